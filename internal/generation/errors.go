package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies every failure surfaced by the pipeline. The set is
// closed: callers switch on it to pick a recovery action.
type ErrorKind string

// Error kinds.
const (
	// KindInputInvalid marks an empty or malformed request. It never reaches the generator.
	KindInputInvalid ErrorKind = "input_invalid"

	// KindUnauthorized means the generator rejected the configured credential.
	KindUnauthorized ErrorKind = "unauthorized"

	// KindRateLimited means the generator asked us to slow down.
	KindRateLimited ErrorKind = "rate_limited"

	// KindServerError is a failure on the generator side (5xx).
	KindServerError ErrorKind = "server_error"

	// KindOffline means the generator could not be reached at all.
	KindOffline ErrorKind = "offline"

	// KindClientError means the generator rejected the request shape (4xx).
	KindClientError ErrorKind = "client_error"

	// KindMalformedResponse means the generator answered with an unusable payload.
	KindMalformedResponse ErrorKind = "malformed_response"

	// KindCancelled marks work that was intentionally aborted.
	KindCancelled ErrorKind = "cancelled"

	// KindAlreadyRunning is returned by the batch single-flight guard.
	KindAlreadyRunning ErrorKind = "already_running"
)

// Sentinel errors, one per kind, so callers can use errors.Is without
// unpacking a *Error.
var (
	ErrInputInvalid      = errors.New("invalid generation input")
	ErrUnauthorized      = errors.New("generator rejected credentials")
	ErrRateLimited       = errors.New("generator rate limit exceeded")
	ErrServerError       = errors.New("generator server error")
	ErrOffline           = errors.New("generator unreachable")
	ErrClientError       = errors.New("generator rejected request")
	ErrMalformedResponse = errors.New("malformed generator response")
	ErrCancelled         = errors.New("generation cancelled")
	ErrAlreadyRunning    = errors.New("batch already running")
)

var kindSentinels = map[ErrorKind]error{
	KindInputInvalid:      ErrInputInvalid,
	KindUnauthorized:      ErrUnauthorized,
	KindRateLimited:       ErrRateLimited,
	KindServerError:       ErrServerError,
	KindOffline:           ErrOffline,
	KindClientError:       ErrClientError,
	KindMalformedResponse: ErrMalformedResponse,
	KindCancelled:         ErrCancelled,
	KindAlreadyRunning:    ErrAlreadyRunning,
}

// Retryable reports whether a failure of this kind may succeed on a later attempt.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimited, KindServerError, KindOffline:
		return true
	default:
		return false
	}
}

// RecoverySuggestion returns a short, user-facing hint for single-item flows.
func (k ErrorKind) RecoverySuggestion() string {
	switch k {
	case KindInputInvalid:
		return "Enter a word or phrase and try again."
	case KindUnauthorized:
		return "Check the configured API key."
	case KindRateLimited:
		return "Too many requests. Wait a moment and retry."
	case KindServerError:
		return "The generation service is having trouble. Try again later."
	case KindOffline:
		return "Check your network connection and retry."
	case KindClientError:
		return "The request was rejected. Try rephrasing the input."
	case KindMalformedResponse:
		return "The service returned an unexpected answer. Try again."
	case KindCancelled:
		return "The operation was cancelled."
	case KindAlreadyRunning:
		return "Another batch is in progress. Wait for it to finish or cancel it."
	default:
		return ""
	}
}

// Error is the typed failure returned by Client implementations and by the
// pipeline. Code carries the upstream status code when one exists and Reason
// a short description (for example why a response was malformed).
type Error struct {
	Kind   ErrorKind
	Code   int
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, e.Code)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: cause}
}

// InputInvalid returns a validation failure with the given reason.
func InputInvalid(reason string) *Error {
	return NewError(KindInputInvalid, reason, nil)
}

// Unauthorized wraps a credential rejection.
func Unauthorized(cause error) *Error {
	return NewError(KindUnauthorized, "", cause)
}

// RateLimited wraps a rate limit response.
func RateLimited(cause error) *Error {
	return &Error{Kind: KindRateLimited, Code: 429, Err: cause}
}

// ServerError wraps an upstream failure with its status code.
func ServerError(code int, cause error) *Error {
	return &Error{Kind: KindServerError, Code: code, Err: cause}
}

// ClientError wraps an upstream rejection of the request with its status code.
func ClientError(code int, cause error) *Error {
	return &Error{Kind: KindClientError, Code: code, Err: cause}
}

// MalformedResponse reports an unusable response payload.
func MalformedResponse(reason string, cause error) *Error {
	return NewError(KindMalformedResponse, reason, cause)
}

// Offline wraps a transport failure.
func Offline(cause error) *Error {
	return NewError(KindOffline, "", cause)
}

// Cancelled wraps a cancellation cause, usually context.Canceled.
func Cancelled(cause error) *Error {
	return NewError(KindCancelled, "", cause)
}

// AlreadyRunning is returned when a batch is started while another is active.
func AlreadyRunning() *Error {
	return NewError(KindAlreadyRunning, "", nil)
}

// AsError maps any error into the closed taxonomy. A *Error anywhere in the
// chain is returned as is. Context cancellation becomes KindCancelled, deadline
// and network failures become KindOffline, and anything else unknown is
// treated as a server-side failure. Returns nil for a nil error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr
	}

	switch {
	case errors.Is(err, context.Canceled):
		return Cancelled(err)
	case errors.Is(err, context.DeadlineExceeded):
		return Offline(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Offline(err)
	}

	return ServerError(0, err)
}

// KindOf returns the taxonomy kind of err. It returns an empty kind for nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return AsError(err).Kind
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err).Retryable()
}
