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
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "character", "journal", "task"
	Op      string // Operation that failed, e.g., "AwardXP", "LevelUp"
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

// User domain errors
var (
	ErrUserNotFound      = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists = NewDomainError("user", "Register", ErrAlreadyExists, "email already registered")
	ErrInvalidEmail      = NewDomainError("user", "Validate", ErrInvalidFormat, "invalid email address")
	ErrWeakPassword      = NewDomainError("user", "Validate", ErrInvalidInput, "password does not meet requirements")
)

// Character domain errors
var (
	ErrCharacterNotFound      = NewDomainError("character", "Find", ErrNotFound, "character not found")
	ErrCharacterAlreadyExists = NewDomainError("character", "Create", ErrAlreadyExists, "user already has a character")
	ErrStatNotFound           = NewDomainError("character", "FindStat", ErrNotFound, "stat not found")
	ErrStatAlreadyAttached    = NewDomainError("character", "AttachStat", ErrAlreadyExists, "stat already attached to character")
	ErrInvalidStatCategory    = NewDomainError("character", "Validate", ErrInvalidInput, "invalid stat category")
	ErrNegativeXPDelta        = NewDomainError("character", "AwardXP", ErrNegativeValue, "XP awards cannot be negative")
	ErrNotReadyToLevelUp      = NewDomainError("character", "LevelUp", ErrInvalidState, "stat has not earned enough XP to level up")
	ErrStatVersionConflict    = NewDomainError("character", "UpdateStat", ErrOptimisticLock, "stat was modified concurrently")
)

// Task domain errors
var (
	ErrTaskNotFound         = NewDomainError("task", "Find", ErrNotFound, "task not found")
	ErrTaskAlreadyCompleted = NewDomainError("task", "Complete", ErrAlreadyProcessed, "task already completed")
	ErrTaskArchived         = NewDomainError("task", "Complete", ErrInvalidState, "task is archived")
	ErrInvalidDifficulty    = NewDomainError("task", "Validate", ErrInvalidInput, "invalid task difficulty")
	ErrInvalidTaskStatus    = NewDomainError("task", "Validate", ErrInvalidInput, "invalid task status")
)

// Journal domain errors
var (
	ErrEntryNotFound = NewDomainError("journal", "Find", ErrNotFound, "journal entry not found")
	ErrEmptyEntry    = NewDomainError("journal", "Validate", ErrEmptyValue, "journal entry body cannot be empty")
)

// External service errors
var (
	ErrTitleGenUnavailable     = NewDomainError("titlegen", "Generate", ErrServiceUnavailable, "title generator is unavailable")
	ErrTitleGenInvalidResponse = NewDomainError("titlegen", "Parse", ErrInvalidFormat, "title generator returned malformed output")
	ErrWeatherUnavailable      = NewDomainError("weather", "Fetch", ErrServiceUnavailable, "weather service is unavailable")
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
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsConflict checks if the error is a concurrency conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrOptimisticLock)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrOptimisticLock)
}
