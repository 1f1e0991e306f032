package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrStateConflict = errors.New("submission state conflict")
)

// Typed failures of the AI-model collaborator. The first three are transient
// and retried by the report generator; a rejection is terminal.
var (
	ErrModelRateLimited = errors.New("model rate limited")
	ErrModelTimeout     = errors.New("model call timed out")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrModelRejected    = errors.New("model rejected prompt")
)

// RetryableModelError reports whether a model failure is worth another attempt.
func RetryableModelError(err error) bool {
	return errors.Is(err, ErrModelRateLimited) ||
		errors.Is(err, ErrModelTimeout) ||
		errors.Is(err, ErrModelUnavailable)
}

// ValidationError rejects a submission on the first schema violation found.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer for %q: %s", e.Field, e.Reason)
}

// GenerationError is terminal: the AI call exhausted its retry budget or was
// permanently rejected.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("report generation failed: %v", e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// StorageConflictError means a second report with different content was
// written for the same submission. This is a data-integrity fault and must
// never be resolved by overwriting.
type StorageConflictError struct {
	SubmissionID string
	Existing     string
	Incoming     string
}

func (e *StorageConflictError) Error() string {
	return fmt.Sprintf("conflicting report for submission %s: stored checksum %s, incoming %s",
		e.SubmissionID, e.Existing, e.Incoming)
}
