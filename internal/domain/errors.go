package domain

import "fmt"

// JobError is the typed failure adapters hand back to the orchestrator.
// Raw tool errors stay wrapped inside Err and never cross to the UI.
type JobError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error formats the failure for logs and the completion event.
func (e *JobError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *JobError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewJobError builds a JobError with a formatted message.
func NewJobError(kind ErrorKind, err error, format string, args ...any) *JobError {
	return &JobError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
