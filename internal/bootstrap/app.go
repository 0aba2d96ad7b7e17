package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"transcriber/internal/config"
	"transcriber/internal/diagnostics"
	"transcriber/internal/domain"
	"transcriber/internal/infer"
	"transcriber/internal/jobs"
	"transcriber/internal/logging"
	"transcriber/internal/normalize"
	"transcriber/internal/output"
	"transcriber/internal/resolve"
	"transcriber/internal/toolrun"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// logFileName is the structured status log inside the output directory.
const logFileName = "transcriber_gui.log"

var mediaDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Media files",
		Pattern:     "*.mp4;*.mov;*.mkv;*.avi;*.mp3;*.wav;*.m4a;*.flac;*.aac;*.ogg;*.webm",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// App wires configuration, the job orchestrator, and UI runtime callbacks.
// Settings are resolved once at startup and stay immutable for the process
// lifetime; SaveSettings persists changes for the next launch.
type App struct {
	Settings     domain.Settings
	Store        config.Store
	Orchestrator *jobs.Orchestrator
	Diagnostics  domain.DiagnosticReport

	assets  fs.FS
	checker *diagnostics.Checker
	log     *logging.Logger

	mu         sync.Mutex
	runtimeCtx context.Context
}

// New builds the application with persisted settings and startup checks.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded
// frontend assets. It aborts when the output directory cannot be created,
// before any job can be submitted.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	store := config.NewJSONStore(filepath.Join(homeDir, ".transcriber", "settings.json"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if err := os.MkdirAll(settings.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", settings.OutputDir, err)
	}

	log, err := logging.NewFileLogger(filepath.Join(settings.OutputDir, logFileName), settings.Verbose)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	checker := diagnostics.NewChecker()
	report := checker.Run(settings)

	app := &App{
		Settings:    settings,
		Store:       store,
		Diagnostics: report,
		assets:      assets,
		checker:     checker,
		log:         log,
	}

	runner := toolrun.NewExecRunner()
	app.Orchestrator = jobs.NewOrchestrator(jobs.Config{
		Resolver:   resolve.NewResolver(settings.YtDlpPath, runner, log),
		Normalizer: normalize.NewNormalizer(settings.FFmpegPath, runner, log),
		Engine:     infer.NewEngine(settings.WhisperPath, settings.ModelsDir, runner, log),
		Writer:     output.NewWriter(app.clipboardSetText, log),
		Logger:     log,
		Emit:       app.emitJobEvent,
	})

	return app, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Media Transcriber",
		Width:       980,
		Height:      720,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.runtimeCtx = nil
		},
		Bind: []interface{}{a},
	})
}

// Startup stores the Wails runtime context for push events and clipboard.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	return a.Diagnostics
}

// RefreshDiagnostics reruns dependency checks against saved settings.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	a.Diagnostics = a.checker.Run(settings)
	return a.Diagnostics, nil
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// SaveSettings persists settings and refreshes diagnostics. Tool paths
// and the output directory take effect on the next launch.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := config.Normalize(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.Diagnostics = a.checker.Run(normalized)
	return normalized, nil
}

// GetModelSizes lists the supported whisper model size options.
func (a *App) GetModelSizes() []domain.ModelSize {
	return domain.ModelSizes()
}

// StartTranscription submits one job for a URL or local file path. It
// returns immediately; progress and the terminal result arrive as
// job:event pushes. A second submission while a job is active fails with
// a busy error without disturbing the running job.
func (a *App) StartTranscription(input string, modelSize string, saveAudio bool) (domain.Job, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return domain.Job{}, fmt.Errorf("enter a URL or browse for a file")
	}

	size := a.Settings.DefaultModelSize
	if strings.TrimSpace(modelSize) != "" {
		parsed, err := domain.ParseModelSize(modelSize)
		if err != nil {
			return domain.Job{}, err
		}
		size = parsed
	}

	source := domain.RemoteSource(trimmed)
	if _, err := os.Stat(trimmed); err == nil {
		source = domain.LocalSource(trimmed)
	}

	return a.Orchestrator.Start(domain.JobRequest{
		Source:    source,
		ModelSize: size,
		SaveAudio: saveAudio,
		OutputDir: a.Settings.OutputDir,
	})
}

// CancelTranscription cancels the currently running job, if any.
func (a *App) CancelTranscription() error {
	return a.Orchestrator.Cancel("")
}

// CurrentJob returns current job metadata and phase.
func (a *App) CurrentJob() domain.Job {
	return a.Orchestrator.Current()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.Orchestrator.EventsSince(sinceSeq)
}

// PickInputFile opens a native file dialog for media selection.
func (a *App) PickInputFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select media file",
		Filters: mediaDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickOutputDirectory opens a native directory picker for transcripts.
func (a *App) PickOutputDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select output directory",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// OpenOutputFolder opens the given path (or the output dir) in the file
// manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		target = a.Settings.OutputDir
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// emitJobEvent pushes one orchestrator event onto the UI runtime. Events
// cross from the worker goroutine to the frontend through the Wails event
// system, so subscribers never run on the worker.
func (a *App) emitJobEvent(event jobs.Event) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "job:event", event)
	}
}

// clipboardSetText copies transcript text via the Wails runtime.
func (a *App) clipboardSetText(text string) error {
	ctx, err := a.runtimeContext()
	if err != nil {
		return err
	}
	return wailsruntime.ClipboardSetText(ctx, text)
}

// runtimeContext returns the current Wails runtime context.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// openInFileManager launches the platform file explorer for the path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
