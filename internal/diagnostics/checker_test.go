package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"transcriber/internal/domain"
)

func testSettings(t *testing.T) domain.Settings {
	return domain.Settings{
		DefaultModelSize: domain.ModelSizeTiny,
		FFmpegPath:       "ffmpeg",
		YtDlpPath:        "yt-dlp",
		WhisperPath:      "whisper.cpp",
		ModelsDir:        t.TempDir(),
		OutputDir:        t.TempDir(),
	}
}

func itemByID(t *testing.T, report domain.DiagnosticReport, id string) domain.DiagnosticItem {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("no diagnostic item %q in %+v", id, report.Items)
	return domain.DiagnosticItem{}
}

// TestRunAllHealthy verifies a clean report when every check passes.
func TestRunAllHealthy(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(testSettings(t))
	if report.HasFailures {
		t.Fatalf("unexpected failures: %+v", report.Items)
	}
	if len(report.Items) != 5 {
		t.Fatalf("items = %d, want 5", len(report.Items))
	}
	if report.GeneratedAt.IsZero() {
		t.Fatal("expected report timestamp")
	}
}

// TestRunMissingToolFails verifies PATH lookup failures are reported.
func TestRunMissingToolFails(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) {
			if name == "yt-dlp" {
				return "", errors.New("not found")
			}
			return "/usr/bin/" + name, nil
		},
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(testSettings(t))
	if !report.HasFailures {
		t.Fatal("expected failures in report")
	}

	item := itemByID(t, report, "tool_yt-dlp")
	if item.Status != domain.DiagnosticStatusFail {
		t.Fatalf("status = %s, want fail", item.Status)
	}
	if item.Hint == "" {
		t.Fatal("expected install hint")
	}
}

// TestRunAbsoluteToolPath verifies configured absolute paths bypass PATH
// lookup and are stat-checked instead.
func TestRunAbsoluteToolPath(t *testing.T) {
	binDir := t.TempDir()
	ffmpeg := filepath.Join(binDir, "ffmpeg")
	if err := os.WriteFile(ffmpeg, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("seed binary: %v", err)
	}

	settings := testSettings(t)
	settings.FFmpegPath = ffmpeg

	checker := NewCheckerForTests(
		func(name string) (string, error) {
			if name == "ffmpeg" {
				t.Fatal("absolute path must not hit PATH lookup")
			}
			return "/usr/bin/" + name, nil
		},
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	item := itemByID(t, checker.Run(settings), "tool_ffmpeg")
	if item.Status != domain.DiagnosticStatusPass {
		t.Fatalf("status = %s, want pass: %s", item.Status, item.Message)
	}

	settings.FFmpegPath = filepath.Join(binDir, "missing")
	item = itemByID(t, checker.Run(settings), "tool_ffmpeg")
	if item.Status != domain.DiagnosticStatusFail {
		t.Fatalf("status = %s, want fail for missing absolute path", item.Status)
	}
}

// TestRunMissingModelIsPassWithHint verifies first-use download semantics:
// an absent model never blocks startup.
func TestRunMissingModelIsPassWithHint(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	settings := testSettings(t)
	item := itemByID(t, checker.Run(settings), "models")
	if item.Status != domain.DiagnosticStatusPass {
		t.Fatalf("status = %s, want pass", item.Status)
	}
	if !strings.Contains(item.Hint, "download") {
		t.Fatalf("hint = %q, want first-use download hint", item.Hint)
	}

	if err := os.WriteFile(filepath.Join(settings.ModelsDir, "ggml-tiny.bin"), []byte("model"), 0o644); err != nil {
		t.Fatalf("seed model: %v", err)
	}
	item = itemByID(t, checker.Run(settings), "models")
	if item.Status != domain.DiagnosticStatusPass || !strings.Contains(item.Message, "downloaded") {
		t.Fatalf("item = %+v, want downloaded pass", item)
	}
}

// TestRunUnwritableOutputDirFails verifies the write-check probe.
func TestRunUnwritableOutputDirFails(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		os.Stat,
		func(string, os.FileMode) error { return nil },
		func(string, string) (*os.File, error) { return nil, errors.New("read-only filesystem") },
		os.Remove,
	)

	report := checker.Run(testSettings(t))
	item := itemByID(t, report, "output_dir")
	if item.Status != domain.DiagnosticStatusFail {
		t.Fatalf("status = %s, want fail", item.Status)
	}
	if !report.HasFailures {
		t.Fatal("expected failures in report")
	}
}

// TestRunEmptyOutputDirFails verifies empty configuration is rejected.
func TestRunEmptyOutputDirFails(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	settings := testSettings(t)
	settings.OutputDir = "   "
	item := itemByID(t, checker.Run(settings), "output_dir")
	if item.Status != domain.DiagnosticStatusFail {
		t.Fatalf("status = %s, want fail", item.Status)
	}
}
