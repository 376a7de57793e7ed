package seq

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// ErrCodeNegativeCount indicates Skip or Take received n < 0.
	ErrCodeNegativeCount ErrorCode = "NEGATIVE_COUNT"

	// ErrCodeUnsupportedKeyKind indicates a key that is not a boolean,
	// number or string.
	ErrCodeUnsupportedKeyKind ErrorCode = "UNSUPPORTED_KEY_KIND"

	// ErrCodeMixedKeyKinds indicates a key whose kind differs from the
	// kind chosen for the ordering.
	ErrCodeMixedKeyKinds ErrorCode = "MIXED_KEY_KINDS"

	// ErrCodeUnserializableItem indicates an item with no canonical form
	// (channels, funcs, NaN).
	ErrCodeUnserializableItem ErrorCode = "UNSERIALIZABLE_ITEM"
)

// QueryError is returned by operations whose input cannot be processed.
type QueryError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the operation ("orderBy", "skip", ...).
	Op string

	// Message is a human-readable description.
	Message string

	// Index is the offending item position, or -1.
	Index int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: %s: %s (index=%d)", e.Op, e.Code, e.Message, e.Index)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// CodeOf returns the QueryError code carried by err, or "".
func CodeOf(err error) ErrorCode {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// IsNegativeCount reports whether err is a negative Skip/Take count.
func IsNegativeCount(err error) bool {
	return CodeOf(err) == ErrCodeNegativeCount
}

// IsKeyKindError reports whether err is an unsupported or mixed key kind.
func IsKeyKindError(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeUnsupportedKeyKind || code == ErrCodeMixedKeyKinds
}

func negativeCount(op string, n int) *QueryError {
	return &QueryError{
		Code:    ErrCodeNegativeCount,
		Op:      op,
		Message: fmt.Sprintf("count must be >= 0, got %d", n),
		Index:   -1,
	}
}
