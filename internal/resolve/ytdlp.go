package resolve

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"transcriber/internal/domain"
	"transcriber/internal/logging"
	"transcriber/internal/toolrun"
)

// downloadStem is the fixed base name for downloaded audio inside the job
// workspace; the final extension depends on the extractor.
const downloadStem = "temp_audio"

// Resolver turns a remote URL into a local audio file using yt-dlp.
type Resolver struct {
	toolPath string
	runner   toolrun.Runner
	log      *logging.Logger
	glob     func(pattern string) ([]string, error)
}

// NewResolver constructs the production resolver.
func NewResolver(toolPath string, runner toolrun.Runner, log *logging.Logger) *Resolver {
	return &Resolver{
		toolPath: toolPath,
		runner:   runner,
		log:      log,
		glob:     filepath.Glob,
	}
}

// NewResolverForTests constructs a resolver with injectable dependencies.
func NewResolverForTests(toolPath string, runner toolrun.Runner, glob func(string) ([]string, error)) *Resolver {
	return &Resolver{
		toolPath: toolPath,
		runner:   runner,
		glob:     glob,
	}
}

// Resolve probes the URL for its title, downloads the best audio stream
// into workDir, and returns the local file. Failures map to
// ErrorKindSourceUnavailable; the raw yt-dlp error never escapes.
func (r *Resolver) Resolve(ctx context.Context, url, workDir string, observe func(toolrun.CommandLog)) (domain.ResolvedMedia, error) {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return domain.ResolvedMedia{}, domain.NewJobError(domain.ErrorKindSourceUnavailable, nil, "source URL is empty")
	}

	r.log.Debug("resolving source URL: %s", trimmed)

	probeArgs := buildProbeArgs(trimmed)
	probeResult, err := r.runner.Run(ctx, r.toolPath, probeArgs...)
	emit(observe, probeResult.Log(r.toolPath, probeArgs))
	if err != nil {
		if ctx.Err() != nil {
			return domain.ResolvedMedia{}, ctx.Err()
		}
		return domain.ResolvedMedia{}, domain.NewJobError(
			domain.ErrorKindSourceUnavailable, err,
			"cannot access source: %s", failureDetail(probeResult.Stderr),
		)
	}

	title := firstLine(probeResult.Stdout)
	if title == "" {
		title = "unknown"
	}
	r.log.Info("resolved source title: %s", title)

	downloadArgs := buildDownloadArgs(trimmed, filepath.Join(workDir, downloadStem))
	downloadResult, err := r.runner.Run(ctx, r.toolPath, downloadArgs...)
	emit(observe, downloadResult.Log(r.toolPath, downloadArgs))
	if err != nil {
		if ctx.Err() != nil {
			return domain.ResolvedMedia{}, ctx.Err()
		}
		return domain.ResolvedMedia{}, domain.NewJobError(
			domain.ErrorKindSourceUnavailable, err,
			"audio download failed: %s", failureDetail(downloadResult.Stderr),
		)
	}

	audioPath, err := r.findDownloadedAudio(workDir)
	if err != nil {
		return domain.ResolvedMedia{}, domain.NewJobError(
			domain.ErrorKindSourceUnavailable, err,
			"download finished but no audio file was produced",
		)
	}

	r.log.Debug("downloaded audio: %s", audioPath)
	return domain.ResolvedMedia{
		Path:  audioPath,
		Title: title,
	}, nil
}

// findDownloadedAudio locates the downloaded file; the exact extension
// depends on the extractor, so fall back to a stem glob.
func (r *Resolver) findDownloadedAudio(workDir string) (string, error) {
	expected := filepath.Join(workDir, downloadStem+".mp3")
	matches, err := r.glob(expected)
	if err == nil && len(matches) > 0 {
		return matches[0], nil
	}

	matches, err = r.glob(filepath.Join(workDir, downloadStem+".*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no %s.* file in %s", downloadStem, workDir)
	}
	return matches[0], nil
}

// buildProbeArgs builds the metadata-only invocation printing the title.
func buildProbeArgs(url string) []string {
	return []string{
		"--no-warnings",
		"--skip-download",
		"--print", "%(title)s",
		url,
	}
}

// buildDownloadArgs builds the best-audio mp3 extraction invocation.
func buildDownloadArgs(url, outputStem string) []string {
	return []string{
		"--no-warnings",
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"-o", outputStem + ".%(ext)s",
		url,
	}
}

// firstLine returns the first non-empty trimmed line of output.
func firstLine(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// failureDetail condenses tool stderr into a single status line.
func failureDetail(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return "unknown tool error"
}

// emit forwards command logs when an observer is configured.
func emit(observe func(toolrun.CommandLog), log toolrun.CommandLog) {
	if observe != nil {
		observe(log)
	}
}
