package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no resolution strategy yields any songs,
	// or the upstream reports the playlist missing.
	ErrNotFound = errors.New("playlist not found or empty, make sure it is public")
	// ErrUnauthorized indicates a rejected or quota-exhausted API credential.
	ErrUnauthorized = errors.New("youtube api key is invalid or quota exceeded")
	// ErrUpstreamTimeout indicates an upstream call exceeded its time budget.
	ErrUpstreamTimeout = errors.New("upstream request timed out, please try again")
	// ErrUpstream covers any other upstream failure or parse error.
	ErrUpstream = errors.New("failed to fetch playlist")
	// ErrConfiguration indicates a missing required credential; not
	// recoverable by retry.
	ErrConfiguration = errors.New("youtube api key is not configured")
	// ErrSubmissionPending rejects a duplicate score submission while one is
	// still outstanding for the session.
	ErrSubmissionPending = errors.New("score submission already in progress")
)

// ValidationError reports a bad input value together with the offending
// field, so transports can surface both.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
