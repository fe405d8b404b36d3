package api

import (
	"errors"
	"fmt"
)

// ErrAuthRequired means no credential was available or the server rejected
// it. Callers should send the user to login and must not retry.
var ErrAuthRequired = errors.New("authentication required")

// ErrValidation marks input rejected before any network call was made.
var ErrValidation = errors.New("validation error")

// ValidationError describes why input was rejected. It matches
// ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// AuthError is returned when the server answers 401. It matches
// ErrAuthRequired with errors.Is.
type AuthError struct {
	Method string
	Path   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (401) on %s %s", e.Method, e.Path)
}

func (e *AuthError) Is(target error) bool {
	return target == ErrAuthRequired
}

// RemoteError is a non-2xx response or a 2xx body with success:false.
type RemoteError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote failure (%d) on %s %s", e.StatusCode, e.Method, e.Path)
	}
	return fmt.Sprintf("remote failure (%d) on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Message)
}

// TransportError wraps a network-level failure (dial, timeout, reset).
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure on %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Kind classifies an error into the subsystem's failure taxonomy.
type Kind int

const (
	KindNone Kind = iota
	KindAuthRequired
	KindValidation
	KindRemote
	KindTransport
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "NONE"
	case KindAuthRequired:
		return "AUTH_REQUIRED"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindRemote:
		return "REMOTE_FAILURE"
	case KindTransport:
		return "TRANSPORT_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// KindOf reports which taxonomy bucket err (or any error in its chain)
// belongs to.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		remoteErr    *RemoteError
		transportErr *TransportError
	)
	switch {
	case errors.Is(err, ErrAuthRequired):
		return KindAuthRequired
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.As(err, &remoteErr):
		return KindRemote
	case errors.As(err, &transportErr):
		return KindTransport
	default:
		return KindUnknown
	}
}

// IsAuthError reports whether err (or any error in its chain) means the
// credential is missing or rejected.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthRequired)
}

// UserMessage returns the text shown to a user for err. Remote and
// transport failures share one generic message.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindNone:
		return ""
	case KindAuthRequired:
		return "Please log in again."
	case KindValidation:
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return validationErr.Message
		}
		return "Invalid input."
	default:
		return "Something went wrong. Please try again later."
	}
}
