package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"transcriber/internal/domain"
	"transcriber/internal/logging"
	"transcriber/internal/toolrun"
)

// Resolver turns a remote URL into a local media file.
type Resolver interface {
	Resolve(ctx context.Context, url, workDir string, observe func(toolrun.CommandLog)) (domain.ResolvedMedia, error)
}

// Normalizer converts arbitrary media into normalized inference audio.
type Normalizer interface {
	Normalize(ctx context.Context, inputPath, workDir string, observe func(toolrun.CommandLog)) (string, error)
}

// Engine produces ordered segments from normalized audio.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string, size domain.ModelSize, workDir string, observe func(toolrun.CommandLog), notify func(message string)) ([]domain.Segment, error)
}

// Writer persists transcripts and audio artifacts.
type Writer interface {
	Write(transcript domain.Transcript, outputDir string) (string, error)
	SaveAudio(srcPath, title, outputDir string) (string, error)
}

// Config wires orchestrator collaborators. Emit, when set, receives every
// published event after it enters the bus; bootstrap uses it to marshal
// events onto the UI runtime so callbacks never run observer code on the
// worker goroutine's behalf.
type Config struct {
	Resolver   Resolver
	Normalizer Normalizer
	Engine     Engine
	Writer     Writer
	Logger     *logging.Logger
	Emit       func(Event)
}

// Orchestrator drives a single transcription job through the
// resolve/normalize/transcribe/save pipeline on one background goroutine,
// while Start and Cancel stay non-blocking for the interactive surface.
type Orchestrator struct {
	resolver   Resolver
	normalizer Normalizer
	engine     Engine
	writer     Writer
	manager    *Manager
	events     *EventBus
	log        *logging.Logger
	emit       func(Event)
	newID      func() string
	mkdirTemp  func(dir, pattern string) (string, error)
	removeAll  func(path string) error

	mu       sync.Mutex
	activeID string
	cancel   context.CancelFunc
}

// NewOrchestrator builds an orchestrator in idle state.
func NewOrchestrator(cfg Config) *Orchestrator {
	return &Orchestrator{
		resolver:   cfg.Resolver,
		normalizer: cfg.Normalizer,
		engine:     cfg.Engine,
		writer:     cfg.Writer,
		manager:    NewManager(),
		events:     NewEventBus(1000),
		log:        cfg.Logger,
		emit:       cfg.Emit,
		newID:      uuid.NewString,
		mkdirTemp:  os.MkdirTemp,
		removeAll:  os.RemoveAll,
	}
}

// Start launches the job pipeline for one request. It fails synchronously
// with ErrorKindBusy while another job is active.
func (o *Orchestrator) Start(req domain.JobRequest) (domain.Job, error) {
	if _, err := domain.ParseModelSize(string(req.ModelSize)); err != nil {
		return domain.Job{}, fmt.Errorf("invalid request: %w", err)
	}
	if req.OutputDir == "" {
		return domain.Job{}, fmt.Errorf("invalid request: output directory is required")
	}

	jobID := "job-" + o.newID()
	if err := o.manager.Start(jobID); err != nil {
		return domain.Job{}, domain.NewJobError(domain.ErrorKindBusy, err, "a job is already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.activeID = jobID
	o.cancel = cancel
	o.mu.Unlock()

	o.log.Section("JOB STARTED: " + jobID)
	o.publishStatus(jobID, domain.JobPhaseResolving, "Job started", 0)

	go o.run(ctx, jobID, req)
	return o.manager.Current(), nil
}

// Cancel requests cooperative cancellation of the given job and returns
// without waiting for teardown. The in-flight external process is killed
// through context cancellation; the terminal result still arrives via the
// completion event. Cancel publishes nothing itself: all events flow from
// the worker goroutine, so the terminal result stays last.
func (o *Orchestrator) Cancel(jobID string) error {
	o.mu.Lock()
	cancel := o.cancel
	active := o.activeID
	o.mu.Unlock()

	if cancel == nil || (jobID != "" && jobID != active) {
		return ErrNoRunningJob
	}

	if err := o.manager.Cancel(); err != nil {
		return err
	}
	cancel()
	o.log.Info("cancellation requested for %s", active)
	return nil
}

// Current returns current job metadata and phase.
func (o *Orchestrator) Current() domain.Job {
	return o.manager.Current()
}

// EventsSince returns all events with sequence greater than seq.
func (o *Orchestrator) EventsSince(seq int64) []Event {
	return o.events.Since(seq)
}

// run executes the stage pipeline on the worker goroutine. It publishes
// exactly one terminal result event per job, always last.
func (o *Orchestrator) run(ctx context.Context, jobID string, req domain.JobRequest) {
	workDir, err := o.mkdirTemp("", "transcriber-job-*")
	if err != nil {
		o.finishFailed(jobID, domain.NewJobError(domain.ErrorKindPersistFailed, err, "failed to create temporary workspace"))
		return
	}
	defer func() {
		if cleanupErr := o.removeAll(workDir); cleanupErr != nil {
			o.log.Warning("cleanup workspace %s: %v", workDir, cleanupErr)
		}
	}()

	observe := func(log toolrun.CommandLog) {
		o.publish(commandEvent(jobID, log))
	}

	// Resolving. Local files skip the resolver entirely.
	media := domain.ResolvedMedia{Path: req.Source.LocalPath, Title: req.Source.Title()}
	if req.Source.Kind() == domain.SourceKindRemoteURL {
		if ctx.Err() != nil {
			o.finishCancelled(jobID)
			return
		}
		o.publishStatus(jobID, domain.JobPhaseResolving, "Downloading audio from source...", 10)

		media, err = o.resolver.Resolve(ctx, req.Source.URL, workDir, observe)
		if err != nil {
			o.finish(jobID, err)
			return
		}
		o.publishStatus(jobID, domain.JobPhaseResolving, "Download complete: "+media.Title, 40)
	}

	// Normalizing.
	if ctx.Err() != nil {
		o.finishCancelled(jobID)
		return
	}
	o.transition(jobID, domain.JobPhaseNormalizing)
	o.publishStatus(jobID, domain.JobPhaseNormalizing, "Converting audio for transcription...", 45)

	audioPath, err := o.normalizer.Normalize(ctx, media.Path, workDir, observe)
	if err != nil {
		o.finish(jobID, err)
		return
	}
	o.publishStatus(jobID, domain.JobPhaseNormalizing, "Audio conversion complete", 55)

	// The audio artifact is flushed before inference and is deliberately
	// not rolled back on later failure or cancellation.
	var savedAudioPath string
	if req.SaveAudio {
		savedAudioPath, err = o.writer.SaveAudio(audioPath, media.Title, req.OutputDir)
		if err != nil {
			o.finish(jobID, err)
			return
		}
		o.publishStatus(jobID, domain.JobPhaseNormalizing, "Audio saved: "+savedAudioPath, 58)
	}

	// Transcribing.
	if ctx.Err() != nil {
		o.finishCancelled(jobID)
		return
	}
	o.transition(jobID, domain.JobPhaseTranscribing)
	o.publishStatus(jobID, domain.JobPhaseTranscribing, "Transcribing audio (this may take a few minutes)...", 60)

	notify := func(message string) {
		o.publishStatus(jobID, domain.JobPhaseTranscribing, message, 60)
	}
	segments, err := o.engine.Transcribe(ctx, audioPath, req.ModelSize, workDir, observe, notify)
	if err != nil {
		o.finish(jobID, err)
		return
	}

	transcript := domain.NewTranscript(media.Title, segments)
	if transcript.Empty() {
		o.finish(jobID, domain.NewJobError(domain.ErrorKindInferenceFailed, nil, "transcription produced no output"))
		return
	}
	o.publishStatus(jobID, domain.JobPhaseTranscribing, fmt.Sprintf("Transcribed %d segments", len(segments)), 90)

	// Saving.
	if ctx.Err() != nil {
		o.finishCancelled(jobID)
		return
	}
	o.transition(jobID, domain.JobPhaseSaving)
	o.publishStatus(jobID, domain.JobPhaseSaving, "Saving transcript...", 95)

	textPath, err := o.writer.Write(transcript, req.OutputDir)
	if err != nil {
		o.finish(jobID, err)
		return
	}

	o.transition(jobID, domain.JobPhaseDone)
	o.log.Section("JOB COMPLETE: " + jobID)
	o.clearActive(jobID)
	o.publishResult(domain.JobResult{
		JobID:      jobID,
		Status:     domain.ResultStatusDone,
		Transcript: &transcript,
		TextPath:   textPath,
		AudioPath:  savedAudioPath,
		Message:    "Transcript saved: " + textPath,
	})
}

// finish routes a stage error to the cancelled or failed terminal path.
func (o *Orchestrator) finish(jobID string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		o.finishCancelled(jobID)
		return
	}
	o.finishFailed(jobID, err)
}

// finishCancelled publishes the single cancelled terminal result. The
// acknowledging status event is emitted here rather than from Cancel so
// it cannot interleave past the result.
func (o *Orchestrator) finishCancelled(jobID string) {
	o.transition(jobID, domain.JobPhaseCancelled)
	o.log.Info("job cancelled: %s", jobID)
	o.publishStatus(jobID, domain.JobPhaseCancelled, "Cancellation requested", 0)
	o.clearActive(jobID)
	o.publishResult(domain.JobResult{
		JobID:     jobID,
		Status:    domain.ResultStatusCancelled,
		ErrorKind: domain.ErrorKindCancelled,
		Message:   "Job cancelled",
	})
}

// finishFailed publishes the single failed terminal result with its kind.
func (o *Orchestrator) finishFailed(jobID string, err error) {
	kind := domain.ErrorKindPersistFailed
	message := err.Error()

	var jobErr *domain.JobError
	if errors.As(err, &jobErr) {
		kind = jobErr.Kind
		message = jobErr.Message
	}

	o.transition(jobID, domain.JobPhaseFailed)
	o.log.Error("job failed: %s: %s (%s)", jobID, message, kind)
	o.publish(Event{
		JobID:   jobID,
		Type:    EventTypeError,
		Phase:   domain.JobPhaseFailed,
		Message: message,
	})
	o.clearActive(jobID)
	o.publishResult(domain.JobResult{
		JobID:     jobID,
		Status:    domain.ResultStatusFailed,
		ErrorKind: kind,
		Message:   message,
	})
}

// transition applies a manager phase change, tolerating the case where
// cancellation already moved the job to a terminal phase.
func (o *Orchestrator) transition(jobID string, phase domain.JobPhase) {
	if err := o.manager.Transition(phase); err != nil {
		o.log.Debug("transition %s -> %s skipped: %v", jobID, phase, err)
	}
}

// publishStatus sends a normalized status event.
func (o *Orchestrator) publishStatus(jobID string, phase domain.JobPhase, message string, progress int) {
	o.manager.SetMessage(message)
	o.publish(Event{
		JobID:    jobID,
		Type:     EventTypeStatus,
		Phase:    phase,
		Message:  message,
		Progress: progress,
	})
}

// publishResult sends the terminal event for a job.
func (o *Orchestrator) publishResult(result domain.JobResult) {
	o.publish(Event{
		JobID:   result.JobID,
		Type:    EventTypeResult,
		Phase:   o.manager.Current().Phase,
		Message: result.Message,
		Result:  &result,
	})
}

// publish stores event history and forwards to the UI emit hook.
func (o *Orchestrator) publish(event Event) {
	published := o.events.Publish(event)
	if o.emit != nil {
		o.emit(published)
	}
}

// clearActive clears cancellation handles for the completed job ID.
func (o *Orchestrator) clearActive(jobID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.activeID == jobID {
		o.activeID = ""
		o.cancel = nil
	}
}
