package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors data sources wrap their failures with so callers can
// classify them without looking at the message text.
var (
	ErrBadCredentials = errors.New("bad credentials")
	ErrNotFound       = errors.New("not found")
)

// ErrorKind classifies an AggregationError.
type ErrorKind int

const (
	UserNotFound ErrorKind = iota + 1
	AuthenticationFailed
	UpstreamError
)

func (k ErrorKind) String() string {
	switch k {
	case UserNotFound:
		return "user_not_found"
	case AuthenticationFailed:
		return "authentication_failed"
	case UpstreamError:
		return "upstream_error"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// AggregationError is the only error type returned by the aggregator.
type AggregationError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewUserNotFound reports a failed profile lookup for username.
func NewUserNotFound(username string, err error) *AggregationError {
	return &AggregationError{
		Kind:    UserNotFound,
		Message: fmt.Sprintf("GitHub user '%s' not found or API error: %v", username, err),
		Err:     err,
	}
}

// NewAuthenticationFailed reports a rejected credential.
func NewAuthenticationFailed(err error) *AggregationError {
	return &AggregationError{
		Kind:    AuthenticationFailed,
		Message: "GitHub API authentication failed. Please check your token.",
		Err:     err,
	}
}

// NewUpstreamError reports any other upstream failure, keeping its text.
func NewUpstreamError(err error) *AggregationError {
	return &AggregationError{
		Kind:    UpstreamError,
		Message: err.Error(),
		Err:     err,
	}
}

func (e *AggregationError) Error() string {
	return e.Message
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

// MarshalJSON serialises the error for transport to a caller.
func (e *AggregationError) MarshalJSON() ([]byte, error) {
	out := struct {
		Error  string `json:"error"`
		Kind   string `json:"kind"`
		Detail string `json:"detail,omitempty"`
	}{
		Error: e.Message,
		Kind:  e.Kind.String(),
	}
	if e.Err != nil {
		out.Detail = e.Err.Error()
	}
	return json.Marshal(out)
}

// KindOf returns the kind of err if it is an AggregationError, or 0.
func KindOf(err error) ErrorKind {
	var aggErr *AggregationError
	if errors.As(err, &aggErr) {
		return aggErr.Kind
	}
	return 0
}
