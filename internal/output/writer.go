package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"transcriber/internal/domain"
	"transcriber/internal/logging"
)

// fallbackName is used when a title sanitizes down to nothing.
const fallbackName = "transcript"

// maxBaseNameLen caps sanitized base names to keep paths portable.
const maxBaseNameLen = 100

// Writer persists transcripts and audio artifacts with collision-free
// names and copies the transcript text to the clipboard as a best-effort
// side effect.
type Writer struct {
	clipboard func(text string) error
	log       *logging.Logger
}

// NewWriter constructs a writer; clipboard may be nil to disable copying.
func NewWriter(clipboard func(string) error, log *logging.Logger) *Writer {
	return &Writer{
		clipboard: clipboard,
		log:       log,
	}
}

// Write formats the transcript, picks a collision-free file name in
// outputDir, and writes the full content in one visible step. The
// clipboard copy failure is logged but never fails the job.
func (w *Writer) Write(transcript domain.Transcript, outputDir string) (string, error) {
	if transcript.Empty() {
		return "", domain.NewJobError(domain.ErrorKindPersistFailed, nil, "transcript has no segments")
	}

	content := FormatTranscript(transcript)
	base := SanitizeTitle(transcript.SourceTitle)

	path, err := w.writeDeduped(outputDir, base, ".txt", strings.NewReader(content))
	if err != nil {
		return "", domain.NewJobError(domain.ErrorKindPersistFailed, err, "cannot save transcript")
	}
	w.log.Info("transcript saved: %s", path)

	if w.clipboard != nil {
		if err := w.clipboard(content); err != nil {
			w.log.Warning("clipboard copy failed: %v", err)
		} else {
			w.log.Debug("transcript copied to clipboard")
		}
	}

	return path, nil
}

// SaveAudio copies an audio artifact into outputDir under a sanitized,
// collision-free name that keeps the source extension.
func (w *Writer) SaveAudio(srcPath, title, outputDir string) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", domain.NewJobError(domain.ErrorKindPersistFailed, err, "cannot open audio artifact")
	}
	defer src.Close()

	ext := filepath.Ext(srcPath)
	if ext == "" {
		ext = ".audio"
	}

	path, err := w.writeDeduped(outputDir, SanitizeTitle(title), ext, src)
	if err != nil {
		return "", domain.NewJobError(domain.ErrorKindPersistFailed, err, "cannot save audio artifact")
	}
	w.log.Info("audio artifact saved: %s", path)
	return path, nil
}

// writeDeduped reserves the first unused <base>[_N]<ext> name with an
// exclusive create, writes the full content to a temp file in the same
// directory, and renames it over the reservation so readers never see a
// partial file.
func (w *Writer) writeDeduped(outputDir, base, ext string, content io.Reader) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	target, err := reserveName(outputDir, base, ext)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(outputDir, ".partial-*")
	if err != nil {
		_ = os.Remove(target)
		return "", err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		_ = os.Remove(target)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		_ = os.Remove(target)
		return "", err
	}

	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		_ = os.Remove(target)
		return "", err
	}
	return target, nil
}

// reserveName claims the first unused numbered name via O_EXCL so a
// concurrent external writer cannot be clobbered.
func reserveName(outputDir, base, ext string) (string, error) {
	for counter := 0; ; counter++ {
		name := base + ext
		if counter > 0 {
			name = fmt.Sprintf("%s_%d%s", base, counter, ext)
		}
		target := filepath.Join(outputDir, name)

		f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_ = f.Close()
			return target, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
	}
}

// FormatTranscript renders the canonical on-disk transcript layout: a
// title header followed by one [H:MM:SS] line per segment.
func FormatTranscript(t domain.Transcript) string {
	var sb strings.Builder
	sb.WriteString("Video: ")
	sb.WriteString(t.SourceTitle)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	for i, segment := range t.Segments {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("[")
		sb.WriteString(FormatTimestamp(segment.StartSec))
		sb.WriteString("] ")
		sb.WriteString(segment.Text)
	}
	return sb.String()
}

// FormatTimestamp renders floor-truncated seconds as H:MM:SS with an
// unpadded hour.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// SanitizeTitle keeps letters, digits, spaces, dashes and underscores,
// trims the result, and caps its length; empty results fall back to a
// fixed placeholder.
func SanitizeTitle(title string) string {
	var sb strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}

	safe := strings.TrimSpace(sb.String())
	runes := []rune(safe)
	if len(runes) > maxBaseNameLen {
		safe = strings.TrimSpace(string(runes[:maxBaseNameLen]))
	}
	if safe == "" {
		return fallbackName
	}
	return safe
}
