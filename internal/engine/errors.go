package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while executing a pipeline.
//
// Runtime errors include:
//   - Invalid pipeline: structural validation failed
//   - Step failure: a sequence operation rejected its input
//   - Cancellation: the context ended between steps
//   - Quota exceeded: a step produced more items than allowed
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Pipeline names the affected pipeline.
	Pipeline string

	// Step is the index of the failing step, or -1.
	Step int

	// Op is the operation name of the failing step.
	Op string

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeInvalidPipeline indicates the pipeline failed validation.
	ErrCodeInvalidPipeline RuntimeErrorCode = "INVALID_PIPELINE"

	// ErrCodeStepFailed indicates a step returned an error.
	ErrCodeStepFailed RuntimeErrorCode = "STEP_FAILED"

	// ErrCodeCancelled indicates the context was cancelled mid-run.
	ErrCodeCancelled RuntimeErrorCode = "CANCELLED"

	// ErrCodeQuotaExceeded indicates too many items for the engine limits.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Pipeline != "" && e.Step >= 0 {
		return fmt.Sprintf("%s: %s (pipeline=%s, step=%d %s)", e.Code, e.Message, e.Pipeline, e.Step, e.Op)
	}
	if e.Step >= 0 {
		return fmt.Sprintf("%s: %s (step=%d %s)", e.Code, e.Message, e.Step, e.Op)
	}
	if e.Pipeline != "" {
		return fmt.Sprintf("%s: %s (pipeline=%s)", e.Code, e.Message, e.Pipeline)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsInvalidPipeline returns true if the pipeline failed validation.
// Uses errors.As to handle wrapped errors.
func IsInvalidPipeline(err error) bool {
	return hasCode(err, ErrCodeInvalidPipeline)
}

// IsCancelled returns true if execution stopped on context cancellation.
func IsCancelled(err error) bool {
	return hasCode(err, ErrCodeCancelled)
}

// IsQuotaError returns true if the error is a quota exceeded error.
func IsQuotaError(err error) bool {
	return hasCode(err, ErrCodeQuotaExceeded)
}

// NewQuotaError creates a RuntimeError for quota exceeded.
func NewQuotaError(pipeline string, step int, op string, items, maxItems int) *RuntimeError {
	return &RuntimeError{
		Code:     ErrCodeQuotaExceeded,
		Message:  fmt.Sprintf("item count exceeds limit (%d > %d)", items, maxItems),
		Pipeline: pipeline,
		Step:     step,
		Op:       op,
	}
}

func newStepError(pipeline string, step int, op string, err error) *RuntimeError {
	return &RuntimeError{
		Code:     ErrCodeStepFailed,
		Message:  err.Error(),
		Pipeline: pipeline,
		Step:     step,
		Op:       op,
		Err:      err,
	}
}
