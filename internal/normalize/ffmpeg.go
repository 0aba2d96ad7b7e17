package normalize

import (
	"context"
	"os"
	"path/filepath"

	"transcriber/internal/domain"
	"transcriber/internal/logging"
	"transcriber/internal/toolrun"
)

// normalizedName is the fixed output file name inside the job workspace.
const normalizedName = "normalized-16k-mono.wav"

// Normalizer converts arbitrary media into the mono 16 kHz PCM WAV the
// inference engine requires, via ffmpeg.
type Normalizer struct {
	toolPath string
	runner   toolrun.Runner
	log      *logging.Logger
	stat     func(name string) (os.FileInfo, error)
}

// NewNormalizer constructs the production normalizer.
func NewNormalizer(toolPath string, runner toolrun.Runner, log *logging.Logger) *Normalizer {
	return &Normalizer{
		toolPath: toolPath,
		runner:   runner,
		log:      log,
		stat:     os.Stat,
	}
}

// NewNormalizerForTests constructs a normalizer with injectable dependencies.
func NewNormalizerForTests(toolPath string, runner toolrun.Runner, stat func(string) (os.FileInfo, error)) *Normalizer {
	return &Normalizer{
		toolPath: toolPath,
		runner:   runner,
		stat:     stat,
	}
}

// Normalize transcodes inputPath into workDir and returns the WAV path.
// Failures map to ErrorKindNormalizationFailed.
func (n *Normalizer) Normalize(ctx context.Context, inputPath, workDir string, observe func(toolrun.CommandLog)) (string, error) {
	if _, err := n.stat(inputPath); err != nil {
		return "", domain.NewJobError(
			domain.ErrorKindNormalizationFailed, err,
			"cannot access input media: %s", inputPath,
		)
	}

	outPath := filepath.Join(workDir, normalizedName)
	args := buildFFmpegArgs(inputPath, outPath)
	n.log.Debug("normalizing %s -> %s", inputPath, outPath)

	result, err := n.runner.Run(ctx, n.toolPath, args...)
	emit(observe, result.Log(n.toolPath, args))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", domain.NewJobError(
			domain.ErrorKindNormalizationFailed, err,
			"ffmpeg audio conversion failed (exit=%d)", result.ExitCode,
		)
	}

	if _, err := n.stat(outPath); err != nil {
		return "", domain.NewJobError(
			domain.ErrorKindNormalizationFailed, err,
			"ffmpeg completed but output file is missing",
		)
	}

	return outPath, nil
}

// buildFFmpegArgs builds CLI args for mono 16k PCM WAV output.
func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	}
}

// emit forwards command logs when an observer is configured.
func emit(observe func(toolrun.CommandLog), log toolrun.CommandLog) {
	if observe != nil {
		observe(log)
	}
}
