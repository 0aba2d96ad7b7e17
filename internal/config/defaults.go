package config

import (
	"os"
	"path/filepath"
	"strings"

	"transcriber/internal/domain"
)

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		DefaultModelSize: domain.ModelSizeTiny,
		FFmpegPath:       "ffmpeg",
		YtDlpPath:        "yt-dlp",
		WhisperPath:      "whisper.cpp",
		ModelsDir:        filepath.Join(homeDir, ".transcriber", "models"),
		OutputDir:        filepath.Join(homeDir, "Documents", "Transcripts"),
		Verbose:          false,
	}
}

// Normalize trims user inputs and restores defaults for empty fields.
func Normalize(settings domain.Settings) domain.Settings {
	defaults := DefaultSettings()

	settings.FFmpegPath = fallback(settings.FFmpegPath, defaults.FFmpegPath)
	settings.YtDlpPath = fallback(settings.YtDlpPath, defaults.YtDlpPath)
	settings.WhisperPath = fallback(settings.WhisperPath, defaults.WhisperPath)
	settings.ModelsDir = fallback(settings.ModelsDir, defaults.ModelsDir)
	settings.OutputDir = fallback(settings.OutputDir, defaults.OutputDir)

	if size, err := domain.ParseModelSize(string(settings.DefaultModelSize)); err == nil {
		settings.DefaultModelSize = size
	} else {
		settings.DefaultModelSize = defaults.DefaultModelSize
	}

	return settings
}

// fallback returns the trimmed value or the default when empty.
func fallback(value, def string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return def
	}
	return trimmed
}
