// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrTerminalReached  = errors.New("no further content")

	// Authorization errors
	ErrForbidden = errors.New("forbidden")

	// Persistence errors
	ErrPersistence    = errors.New("persistence failure")
	ErrTransient      = errors.New("transient failure")
	ErrUniqueConflict = errors.New("unique constraint conflict")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "learner", "content", "ctf"
	Op      string // Operation that failed, e.g., "AddXP", "Submit"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Learner domain errors
var (
	ErrLearnerNotFound      = NewDomainError("learner", "Find", ErrNotFound, "learner not found")
	ErrLearnerAlreadyExists = NewDomainError("learner", "Create", ErrAlreadyExists, "learner already exists")
	ErrInvalidLearnerID     = NewDomainError("learner", "Validate", ErrInvalidID, "invalid learner ID")
	ErrNegativeXPAmount     = NewDomainError("learner", "AddXP", ErrNegativeValue, "xp amount cannot be negative")
)

// Content domain errors
var (
	ErrNodeNotFound   = NewDomainError("content", "Lookup", ErrNotFound, "content node not found")
	ErrCourseNotFound = NewDomainError("content", "Lookup", ErrNotFound, "course not found")
	ErrModuleNotFound = NewDomainError("content", "Lookup", ErrNotFound, "module not found")
	ErrLessonNotFound = NewDomainError("content", "Lookup", ErrNotFound, "lesson not found")
)

// Achievement domain errors
var (
	ErrRuleNotFound         = NewDomainError("achievement", "Find", ErrNotFound, "achievement rule not found")
	ErrAlreadyAwarded       = NewDomainError("achievement", "Award", ErrAlreadyExists, "achievement already awarded")
	ErrUnknownRuleKind      = NewDomainError("achievement", "Evaluate", ErrInvalidInput, "unknown rule predicate kind")
	ErrInvalidRuleThreshold = NewDomainError("achievement", "Validate", ErrValueOutOfRange, "rule threshold must be positive")
)

// CTF domain errors
var (
	ErrChallengeNotFound = NewDomainError("ctf", "Find", ErrNotFound, "challenge not found")
	ErrEmptyFlag         = NewDomainError("ctf", "Submit", ErrEmptyValue, "submitted flag is empty")
	ErrChallengeLocked   = NewDomainError("ctf", "Submit", ErrForbidden, "challenge requires more XP")
)

// Session domain errors
var (
	ErrSessionNotFound    = NewDomainError("session", "Load", ErrNotFound, "session not found")
	ErrInvalidSessionKind = NewDomainError("session", "Validate", ErrInvalidInput, "invalid session kind")
	ErrPayloadMismatch    = NewDomainError("session", "Decode", ErrInvalidInput, "payload does not match session kind")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsRetryable checks if the operation can be retried. Every mutating operation
// in the engine is an idempotent upsert or an append-guarded insert, so a
// single retry after a transient failure cannot double-apply an effect.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
