package infer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"transcriber/internal/domain"
	"transcriber/internal/logging"
	"transcriber/internal/toolrun"
)

// outputStem is the fixed transcript base name inside the job workspace.
const outputStem = "whisper-out"

// Engine runs whisper.cpp over normalized audio and parses its JSON
// transcription into ordered segments.
type Engine struct {
	toolPath  string
	modelsDir string
	runner    toolrun.Runner
	log       *logging.Logger
	stat      func(name string) (os.FileInfo, error)
	mkdirAll  func(path string, perm os.FileMode) error
	readFile  func(name string) ([]byte, error)
	download  func(ctx context.Context, url, dest string) error
}

// NewEngine constructs the production inference engine.
func NewEngine(toolPath, modelsDir string, runner toolrun.Runner, log *logging.Logger) *Engine {
	return &Engine{
		toolPath:  toolPath,
		modelsDir: modelsDir,
		runner:    runner,
		log:       log,
		stat:      os.Stat,
		mkdirAll:  os.MkdirAll,
		readFile:  os.ReadFile,
		download:  downloadURLToFile,
	}
}

// NewEngineForTests constructs an engine with injectable dependencies.
func NewEngineForTests(
	toolPath string,
	modelsDir string,
	runner toolrun.Runner,
	stat func(string) (os.FileInfo, error),
	readFile func(string) ([]byte, error),
	download func(ctx context.Context, url, dest string) error,
) *Engine {
	return &Engine{
		toolPath:  toolPath,
		modelsDir: modelsDir,
		runner:    runner,
		stat:      stat,
		mkdirAll:  os.MkdirAll,
		readFile:  readFile,
		download:  download,
	}
}

// Transcribe runs inference for the requested model size and returns the
// ordered segment sequence. A first-use model download is surfaced through
// notify as normal latency, not a failure. Failures map to
// ErrorKindInferenceFailed.
func (e *Engine) Transcribe(
	ctx context.Context,
	audioPath string,
	size domain.ModelSize,
	workDir string,
	observe func(toolrun.CommandLog),
	notify func(message string),
) ([]domain.Segment, error) {
	modelPath, err := e.ensureModel(ctx, size, notify)
	if err != nil {
		return nil, err
	}

	base := filepath.Join(workDir, outputStem)
	args := buildWhisperArgs(modelPath, audioPath, base)
	e.log.Debug("running whisper.cpp model=%s audio=%s", modelPath, audioPath)

	result, runErr := e.runner.Run(ctx, e.toolPath, args...)
	if observe != nil {
		observe(result.Log(e.toolPath, args))
	}
	if runErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewJobError(
			domain.ErrorKindInferenceFailed, runErr,
			"whisper.cpp transcription failed (exit=%d)", result.ExitCode,
		)
	}

	jsonPath := base + ".json"
	data, err := e.readFile(jsonPath)
	if err != nil {
		return nil, domain.NewJobError(
			domain.ErrorKindInferenceFailed, err,
			"whisper.cpp completed but transcript JSON is missing",
		)
	}

	segments, err := parseSegments(data)
	if err != nil {
		return nil, domain.NewJobError(
			domain.ErrorKindInferenceFailed, err,
			"cannot parse whisper.cpp output",
		)
	}

	e.log.Info("transcribed %d segments", len(segments))
	return segments, nil
}

// ensureModel returns the local model path for a size, downloading the
// catalog preset on first use.
func (e *Engine) ensureModel(ctx context.Context, size domain.ModelSize, notify func(string)) (string, error) {
	model, found := domain.WhisperModelForSize(size)
	if !found {
		return "", domain.NewJobError(
			domain.ErrorKindInferenceFailed, nil,
			"unsupported model size: %s", size,
		)
	}

	modelPath := filepath.Join(e.modelsDir, model.FileName)
	if info, err := e.stat(modelPath); err == nil && !info.IsDir() {
		return modelPath, nil
	}

	if notify != nil {
		notify(fmt.Sprintf("Downloading %s model (%s), this only happens once...", model.Name, model.SizeLabel))
	}
	e.log.Info("downloading model %s to %s", model.Name, modelPath)

	if err := e.mkdirAll(e.modelsDir, 0o755); err != nil {
		return "", domain.NewJobError(
			domain.ErrorKindInferenceFailed, err,
			"cannot create models directory: %s", e.modelsDir,
		)
	}
	if err := e.download(ctx, model.URL, modelPath); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", domain.NewJobError(
			domain.ErrorKindInferenceFailed, err,
			"model download failed: %s", model.Name,
		)
	}

	return modelPath, nil
}

// whisperJSON mirrors the whisper.cpp -oj output document.
type whisperJSON struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// parseSegments converts millisecond offsets into segment values.
func parseSegments(data []byte) ([]domain.Segment, error) {
	var doc whisperJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	segments := make([]domain.Segment, 0, len(doc.Transcription))
	for _, entry := range doc.Transcription {
		segments = append(segments, domain.Segment{
			StartSec: float64(entry.Offsets.From) / 1000,
			EndSec:   float64(entry.Offsets.To) / 1000,
			Text:     strings.TrimSpace(entry.Text),
		})
	}
	return segments, nil
}

// buildWhisperArgs builds whisper.cpp args for JSON transcript export.
func buildWhisperArgs(modelPath, audioPath, outputBase string) []string {
	return []string{
		"-m", modelPath,
		"-f", audioPath,
		"-of", outputBase,
		"-oj",
	}
}

// downloadURLToFile streams a URL into dest, writing through a temp file
// so an aborted download never leaves a truncated model behind.
func downloadURLToFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, dest)
}
