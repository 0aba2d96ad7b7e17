package jobs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"transcriber/internal/domain"
)

// ErrJobAlreadyRunning is returned when starting a second active job.
var ErrJobAlreadyRunning = errors.New("job already running")

// ErrNoRunningJob is returned when cancel is requested for idle state.
var ErrNoRunningJob = errors.New("no running job")

// Manager tracks the single allowed active job and its transitions.
type Manager struct {
	mu      sync.RWMutex
	current domain.Job
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Job{
			Phase: domain.JobPhaseIdle,
		},
	}
}

// Start creates a new job and moves it to the resolving phase.
func (m *Manager) Start(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isRunning(m.current.Phase) {
		return ErrJobAlreadyRunning
	}

	m.current = domain.Job{
		ID:        jobID,
		Phase:     domain.JobPhaseResolving,
		StartedAt: time.Now().UTC(),
	}
	return nil
}

// Transition validates and applies phase transitions for the current job.
func (m *Manager) Transition(phase domain.JobPhase) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" && phase != domain.JobPhaseIdle {
		return fmt.Errorf("cannot transition without an active job")
	}
	if phase == m.current.Phase {
		return nil
	}
	if !isValidTransition(m.current.Phase, phase) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Phase, phase)
	}

	m.current.Phase = phase
	if isTerminal(phase) {
		m.current.EndedAt = time.Now().UTC()
	}
	return nil
}

// SetMessage records the latest human-readable status for the job.
func (m *Manager) SetMessage(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Message = message
}

// Current returns a snapshot of the current job.
func (m *Manager) Current() domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reset clears job metadata and returns the manager to idle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Job{Phase: domain.JobPhaseIdle}
}

// IsRunning reports whether the current phase is an active stage.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isRunning(m.current.Phase)
}

// Cancel moves an active job to the cancelled phase.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !isRunning(m.current.Phase) {
		return ErrNoRunningJob
	}
	m.current.Phase = domain.JobPhaseCancelled
	m.current.EndedAt = time.Now().UTC()
	return nil
}

// isRunning checks if a phase represents active pipeline execution.
func isRunning(phase domain.JobPhase) bool {
	switch phase {
	case domain.JobPhaseResolving, domain.JobPhaseNormalizing, domain.JobPhaseTranscribing, domain.JobPhaseSaving:
		return true
	default:
		return false
	}
}

// isTerminal checks if a phase ends the job lifecycle.
func isTerminal(phase domain.JobPhase) bool {
	switch phase {
	case domain.JobPhaseDone, domain.JobPhaseFailed, domain.JobPhaseCancelled:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the allowed job state machine edges. The
// pipeline is strictly linear; cancellation and failure may short-circuit
// any active phase.
func isValidTransition(from, to domain.JobPhase) bool {
	switch from {
	case domain.JobPhaseIdle:
		return to == domain.JobPhaseResolving
	case domain.JobPhaseResolving:
		return to == domain.JobPhaseNormalizing || to == domain.JobPhaseFailed || to == domain.JobPhaseCancelled
	case domain.JobPhaseNormalizing:
		return to == domain.JobPhaseTranscribing || to == domain.JobPhaseFailed || to == domain.JobPhaseCancelled
	case domain.JobPhaseTranscribing:
		return to == domain.JobPhaseSaving || to == domain.JobPhaseFailed || to == domain.JobPhaseCancelled
	case domain.JobPhaseSaving:
		return to == domain.JobPhaseDone || to == domain.JobPhaseFailed || to == domain.JobPhaseCancelled
	case domain.JobPhaseDone, domain.JobPhaseFailed, domain.JobPhaseCancelled:
		return to == domain.JobPhaseResolving || to == domain.JobPhaseIdle
	default:
		return false
	}
}
