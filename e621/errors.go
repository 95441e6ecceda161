package e621

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrNoClient is returned when an entity method needs the client that
	// created the entity, but the entity was built by hand.
	ErrNoClient = errors.New("entity has no origin client")
	// ErrInvalidScore is returned for vote scores outside {+1, -1}.
	ErrInvalidScore = errors.New("vote score must be 1 or -1")
	// ErrClientClosed is returned for operations submitted after Close.
	ErrClientClosed = errors.New("client is closed")
)

// CallerError indicates a caller-correctable failure: an invalid search
// parameter, a missing resource, or any 4xx answer from the server. When the
// server supplied a structured payload it is attached for inspection.
type CallerError struct {
	StatusCode int             // zero when raised before dispatch
	Message    string
	Response   json.RawMessage // raw server payload, if any
}

// Error implements the error interface
func (e *CallerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("e621: status %d: %s", e.StatusCode, e.Message)
	}
	return "e621: " + e.Message
}

// IsNotFound checks if the error indicates a missing resource
func (e *CallerError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.Message == "Not found."
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *CallerError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func callerErrorf(format string, args ...any) *CallerError {
	return &CallerError{Message: fmt.Sprintf(format, args...)}
}

// ServiceError indicates a server-side or infrastructure fault (any 5xx).
// It is not locally recoverable and is propagated to the caller unchanged.
type ServiceError struct {
	StatusCode int
	Reason     string
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("e621 service error: status %d: %s", e.StatusCode, e.Reason)
}

// ShapeMismatchError is returned by the diff engine when the two values being
// compared do not share a representational shape.
type ShapeMismatchError struct {
	Original string
	Updated  string
}

// Error implements the error interface
func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("cannot diff %s against %s", e.Original, e.Updated)
}
