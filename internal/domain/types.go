package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// JobPhase tracks each pipeline stage for a single transcription job.
type JobPhase string

const (
	JobPhaseIdle         JobPhase = "idle"
	JobPhaseResolving    JobPhase = "resolving"
	JobPhaseNormalizing  JobPhase = "normalizing"
	JobPhaseTranscribing JobPhase = "transcribing"
	JobPhaseSaving       JobPhase = "saving"
	JobPhaseDone         JobPhase = "done"
	JobPhaseFailed       JobPhase = "failed"
	JobPhaseCancelled    JobPhase = "cancelled"
)

// ErrorKind classifies terminal job failures for the UI.
type ErrorKind string

const (
	ErrorKindBusy                ErrorKind = "busy"
	ErrorKindSourceUnavailable   ErrorKind = "source_unavailable"
	ErrorKindNormalizationFailed ErrorKind = "normalization_failed"
	ErrorKindInferenceFailed     ErrorKind = "inference_failed"
	ErrorKindPersistFailed       ErrorKind = "persist_failed"
	ErrorKindCancelled           ErrorKind = "cancelled"
)

// ModelSize selects one of the supported whisper model presets.
type ModelSize string

const (
	ModelSizeTiny   ModelSize = "tiny"
	ModelSizeBase   ModelSize = "base"
	ModelSizeSmall  ModelSize = "small"
	ModelSizeMedium ModelSize = "medium"
	ModelSizeLarge  ModelSize = "large"
)

// ModelSizes lists supported sizes in ascending quality order.
func ModelSizes() []ModelSize {
	return []ModelSize{ModelSizeTiny, ModelSizeBase, ModelSizeSmall, ModelSizeMedium, ModelSizeLarge}
}

// ParseModelSize validates a raw model size string.
func ParseModelSize(raw string) (ModelSize, error) {
	size := ModelSize(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range ModelSizes() {
		if size == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown model size: %q", raw)
}

// SourceKind distinguishes remote URLs from local media files.
type SourceKind string

const (
	SourceKindRemoteURL SourceKind = "remote_url"
	SourceKindLocalFile SourceKind = "local_file"
)

// Source identifies the media input; exactly one field is set.
type Source struct {
	URL       string `json:"url,omitempty"`
	LocalPath string `json:"localPath,omitempty"`
}

// RemoteSource builds a remote URL source.
func RemoteSource(url string) Source {
	return Source{URL: strings.TrimSpace(url)}
}

// LocalSource builds a local file source.
func LocalSource(path string) Source {
	return Source{LocalPath: strings.TrimSpace(path)}
}

// Kind reports which variant of the source union is populated.
func (s Source) Kind() SourceKind {
	if s.LocalPath != "" {
		return SourceKindLocalFile
	}
	return SourceKindRemoteURL
}

// Title derives a display title for local sources from the file stem.
func (s Source) Title() string {
	if s.LocalPath == "" {
		return ""
	}
	base := filepath.Base(s.LocalPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// JobRequest is the immutable input for one transcription run.
//
// SaveAudio keeps the intermediate audio artifact in the output directory
// alongside the transcript; it never stops the pipeline early.
type JobRequest struct {
	Source    Source    `json:"source"`
	ModelSize ModelSize `json:"modelSize"`
	SaveAudio bool      `json:"saveAudio"`
	OutputDir string    `json:"outputDir"`
}

// Job stores the current job identity and lifecycle phase.
type Job struct {
	ID        string    `json:"id"`
	Phase     JobPhase  `json:"phase"`
	Message   string    `json:"message,omitempty"`
	StartedAt time.Time `json:"startedAt,omitempty"`
	EndedAt   time.Time `json:"endedAt,omitempty"`
}

// ResultStatus is the terminal outcome variant of a job.
type ResultStatus string

const (
	ResultStatusDone      ResultStatus = "done"
	ResultStatusFailed    ResultStatus = "failed"
	ResultStatusCancelled ResultStatus = "cancelled"
)

// JobResult is the single terminal value delivered per job.
type JobResult struct {
	JobID      string       `json:"jobId"`
	Status     ResultStatus `json:"status"`
	Transcript *Transcript  `json:"transcript,omitempty"`
	TextPath   string       `json:"textPath,omitempty"`
	AudioPath  string       `json:"audioPath,omitempty"`
	ErrorKind  ErrorKind    `json:"errorKind,omitempty"`
	Message    string       `json:"message,omitempty"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	DefaultModelSize ModelSize `json:"defaultModelSize"`
	FFmpegPath       string    `json:"ffmpegPath"`
	YtDlpPath        string    `json:"ytDlpPath"`
	WhisperPath      string    `json:"whisperPath"`
	ModelsDir        string    `json:"modelsDir"`
	OutputDir        string    `json:"outputDir"`
	Verbose          bool      `json:"verbose"`
}
