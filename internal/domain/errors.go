// Package domain defines core types, interfaces, and errors for the asset
// governance workflow.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input. It is always raised before any
// network call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., an illegal lifecycle transition or
// a command already in flight for the same asset).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// FetchError indicates a page fetch failed. The coordinator clears the
// displayed page whenever it returns one.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// TransitionError indicates a lifecycle command failed and the optimistic
// update was rolled back. It is recoverable.
type TransitionError struct {
	AssetID string
	Action  Action
	Err     error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s asset %s: %v (rolled back)", e.Action, e.AssetID, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// PartialFailureError indicates the primary step of a multi-step operation was
// committed but a follow-up step failed. The primary step is not rolled back.
type PartialFailureError struct {
	AssetID string
	Step    string
	Err     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("asset %s: %s failed: %v", e.AssetID, e.Step, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// JobFailedError is returned when the server reports a job as failed, or when
// a poll request for the job could not be completed.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Message)
}

// JobTimeoutError is returned when polling gives up. The job may still be
// running server-side.
type JobTimeoutError struct {
	JobID    string
	Attempts int
}

func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("job %s still running after %d polls", e.JobID, e.Attempts)
}
