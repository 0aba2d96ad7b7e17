package infer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"transcriber/internal/domain"
	"transcriber/internal/toolrun"
)

// recordingRunner captures the invocation and returns a canned response.
type recordingRunner struct {
	name   string
	args   []string
	result toolrun.Result
	err    error
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) (toolrun.Result, error) {
	if err := ctx.Err(); err != nil {
		return toolrun.Result{ExitCode: -1}, err
	}
	r.name = name
	r.args = args
	return r.result, r.err
}

const sampleWhisperJSON = `{
  "transcription": [
    {"offsets": {"from": 0, "to": 2500}, "text": " hello there"},
    {"offsets": {"from": 2500, "to": 4000}, "text": " general"}
  ]
}`

// noDownload fails the test if the engine tries to fetch a model.
func noDownload(t *testing.T) func(context.Context, string, string) error {
	return func(ctx context.Context, url, dest string) error {
		t.Fatalf("unexpected model download: %s", url)
		return nil
	}
}

// TestTranscribeHappyPath verifies args, JSON parsing, and ms-to-seconds
// offset conversion with a model already on disk.
func TestTranscribeHappyPath(t *testing.T) {
	modelsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(modelsDir, "ggml-tiny.bin"), []byte("model"), 0o644); err != nil {
		t.Fatalf("seed model: %v", err)
	}

	workDir := t.TempDir()
	runner := &recordingRunner{}
	engine := NewEngineForTests("whisper.cpp", modelsDir, runner, os.Stat,
		func(name string) ([]byte, error) {
			if name != filepath.Join(workDir, "whisper-out.json") {
				t.Fatalf("read from %q", name)
			}
			return []byte(sampleWhisperJSON), nil
		},
		noDownload(t),
	)

	segments, err := engine.Transcribe(context.Background(), "/work/audio.wav", domain.ModelSizeTiny, workDir, nil, nil)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(segments))
	}
	if segments[0].StartSec != 0 || segments[0].EndSec != 2.5 || segments[0].Text != "hello there" {
		t.Fatalf("unexpected first segment: %+v", segments[0])
	}
	if segments[1].StartSec != 2.5 || segments[1].EndSec != 4 {
		t.Fatalf("unexpected second segment: %+v", segments[1])
	}

	joined := strings.Join(runner.args, " ")
	for _, want := range []string{"-m " + filepath.Join(modelsDir, "ggml-tiny.bin"), "-f /work/audio.wav", "-oj"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %s", want, joined)
		}
	}
}

// TestTranscribeDownloadsModelOnFirstUse verifies the one-time fetch and
// the user-facing notification.
func TestTranscribeDownloadsModelOnFirstUse(t *testing.T) {
	modelsDir := filepath.Join(t.TempDir(), "models")
	downloaded := ""
	var notices []string
	engine := NewEngineForTests("whisper.cpp", modelsDir, &recordingRunner{}, os.Stat,
		func(name string) ([]byte, error) { return []byte(sampleWhisperJSON), nil },
		func(ctx context.Context, url, dest string) error {
			downloaded = dest
			return nil
		},
	)

	_, err := engine.Transcribe(context.Background(), "/work/audio.wav", domain.ModelSizeBase, t.TempDir(), nil, func(message string) {
		notices = append(notices, message)
	})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if filepath.Base(downloaded) != "ggml-base.bin" {
		t.Fatalf("downloaded = %q, want ggml-base.bin", downloaded)
	}
	if len(notices) != 1 || !strings.Contains(notices[0], "only happens once") {
		t.Fatalf("notices = %v", notices)
	}
}

// TestTranscribeDownloadFailure verifies error kind mapping for an
// unreachable model host.
func TestTranscribeDownloadFailure(t *testing.T) {
	engine := NewEngineForTests("whisper.cpp", filepath.Join(t.TempDir(), "models"), &recordingRunner{}, os.Stat,
		func(name string) ([]byte, error) { return nil, os.ErrNotExist },
		func(ctx context.Context, url, dest string) error {
			return errors.New("connection refused")
		},
	)

	_, err := engine.Transcribe(context.Background(), "/work/audio.wav", domain.ModelSizeTiny, t.TempDir(), nil, nil)
	var jobErr *domain.JobError
	if !errors.As(err, &jobErr) || jobErr.Kind != domain.ErrorKindInferenceFailed {
		t.Fatalf("error = %v, want inference_failed", err)
	}
	if !strings.Contains(jobErr.Message, "model download failed") {
		t.Fatalf("message = %q", jobErr.Message)
	}
}

// TestTranscribeToolFailure verifies error kind mapping on non-zero exit.
func TestTranscribeToolFailure(t *testing.T) {
	modelsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(modelsDir, "ggml-tiny.bin"), []byte("model"), 0o644); err != nil {
		t.Fatalf("seed model: %v", err)
	}
	runner := &recordingRunner{
		result: toolrun.Result{Stderr: "failed to load model", ExitCode: 3},
		err:    errors.New("exit status 3"),
	}
	engine := NewEngineForTests("whisper.cpp", modelsDir, runner, os.Stat,
		func(name string) ([]byte, error) { return nil, os.ErrNotExist },
		noDownload(t),
	)

	_, err := engine.Transcribe(context.Background(), "/work/audio.wav", domain.ModelSizeTiny, t.TempDir(), nil, nil)
	var jobErr *domain.JobError
	if !errors.As(err, &jobErr) || jobErr.Kind != domain.ErrorKindInferenceFailed {
		t.Fatalf("error = %v, want inference_failed", err)
	}
	if !strings.Contains(jobErr.Message, "exit=3") {
		t.Fatalf("message = %q", jobErr.Message)
	}
}

// TestTranscribeMissingJSON verifies the post-run output check.
func TestTranscribeMissingJSON(t *testing.T) {
	modelsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(modelsDir, "ggml-tiny.bin"), []byte("model"), 0o644); err != nil {
		t.Fatalf("seed model: %v", err)
	}
	engine := NewEngineForTests("whisper.cpp", modelsDir, &recordingRunner{}, os.Stat,
		func(name string) ([]byte, error) { return nil, os.ErrNotExist },
		noDownload(t),
	)

	_, err := engine.Transcribe(context.Background(), "/work/audio.wav", domain.ModelSizeTiny, t.TempDir(), nil, nil)
	var jobErr *domain.JobError
	if !errors.As(err, &jobErr) || jobErr.Kind != domain.ErrorKindInferenceFailed {
		t.Fatalf("error = %v, want inference_failed", err)
	}
	if !strings.Contains(jobErr.Message, "JSON is missing") {
		t.Fatalf("message = %q", jobErr.Message)
	}
}

// TestTranscribeCancellationPassesThrough verifies context errors surface
// unchanged.
func TestTranscribeCancellationPassesThrough(t *testing.T) {
	modelsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(modelsDir, "ggml-tiny.bin"), []byte("model"), 0o644); err != nil {
		t.Fatalf("seed model: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := NewEngineForTests("whisper.cpp", modelsDir, &recordingRunner{}, os.Stat,
		func(name string) ([]byte, error) { return nil, os.ErrNotExist },
		noDownload(t),
	)

	_, err := engine.Transcribe(ctx, "/work/audio.wav", domain.ModelSizeTiny, t.TempDir(), nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

// TestParseSegmentsRejectsGarbage verifies malformed output handling.
func TestParseSegmentsRejectsGarbage(t *testing.T) {
	if _, err := parseSegments([]byte("{not json")); err == nil {
		t.Fatal("expected parse error")
	}

	segments, err := parseSegments([]byte(`{"transcription": []}`))
	if err != nil {
		t.Fatalf("parseSegments() error = %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("segments = %d, want 0", len(segments))
	}
}
