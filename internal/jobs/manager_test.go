package jobs

import (
	"testing"

	"transcriber/internal/domain"
)

// TestManagerLifecycle verifies normal progression to done state.
func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	if m.IsRunning() {
		t.Fatal("new manager should be idle")
	}

	if err := m.Start("job-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !m.IsRunning() {
		t.Fatal("expected running after start")
	}
	if m.Current().StartedAt.IsZero() {
		t.Fatal("expected started timestamp")
	}

	for _, phase := range []domain.JobPhase{
		domain.JobPhaseNormalizing,
		domain.JobPhaseTranscribing,
		domain.JobPhaseSaving,
		domain.JobPhaseDone,
	} {
		if err := m.Transition(phase); err != nil {
			t.Fatalf("transition to %s: %v", phase, err)
		}
	}

	current := m.Current()
	if current.Phase != domain.JobPhaseDone {
		t.Fatalf("current phase = %s, want done", current.Phase)
	}
	if current.EndedAt.IsZero() {
		t.Fatal("expected ended timestamp after terminal phase")
	}
}

// TestManagerRejectsSecondStart checks the single-job invariant.
func TestManagerRejectsSecondStart(t *testing.T) {
	m := NewManager()
	if err := m.Start("job-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := m.Start("job-2"); err != ErrJobAlreadyRunning {
		t.Fatalf("second start error = %v, want %v", err, ErrJobAlreadyRunning)
	}
	if m.Current().ID != "job-1" {
		t.Fatalf("current job = %s, want job-1 untouched", m.Current().ID)
	}
}

// TestManagerRejectsInvalidTransition checks state machine constraints.
func TestManagerRejectsInvalidTransition(t *testing.T) {
	m := NewManager()
	if err := m.Start("job-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := m.Transition(domain.JobPhaseDone); err == nil {
		t.Fatal("expected invalid transition error")
	}
	if err := m.Transition(domain.JobPhaseSaving); err == nil {
		t.Fatal("expected invalid skip-ahead transition error")
	}
}

// TestManagerCancel verifies cancel behavior and repeated cancel handling.
func TestManagerCancel(t *testing.T) {
	m := NewManager()
	if err := m.Start("job-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := m.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if m.Current().Phase != domain.JobPhaseCancelled {
		t.Fatalf("phase = %s, want cancelled", m.Current().Phase)
	}

	if err := m.Cancel(); err != ErrNoRunningJob {
		t.Fatalf("second cancel error = %v, want %v", err, ErrNoRunningJob)
	}
}

// TestManagerRestartAfterTerminal verifies reuse after completion.
func TestManagerRestartAfterTerminal(t *testing.T) {
	m := NewManager()
	if err := m.Start("job-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if err := m.Start("job-2"); err != nil {
		t.Fatalf("restart after terminal: %v", err)
	}
	if m.Current().ID != "job-2" {
		t.Fatalf("current job = %s, want job-2", m.Current().ID)
	}
}
