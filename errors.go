package jus

import (
	"fmt"
	"time"

	"github.com/apptik-go/jus/pkg/cache"
)

// NetworkResponse is the result of one transport attempt, successful or not.
type NetworkResponse struct {
	StatusCode  int
	Data        []byte
	Headers     cache.Headers
	NotModified bool
	NetworkTime time.Duration
}

// JusError is the base of the error taxonomy. Every error kind carries an
// optional NetworkResponse (when the transport got as far as a response) and
// the elapsed time of the attempt that produced it.
type JusError struct {
	Kind     string
	Response *NetworkResponse
	Elapsed  time.Duration
	Err      error
}

func (e *JusError) Error() string {
	if e.Response != nil {
		return fmt.Sprintf("jus: %s (status %d)", e.Kind, e.Response.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("jus: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("jus: %s", e.Kind)
}

func (e *JusError) Unwrap() error { return e.Err }

func newError(kind string, resp *NetworkResponse, elapsed time.Duration, err error) *JusError {
	return &JusError{Kind: kind, Response: resp, Elapsed: elapsed, Err: err}
}

// TimeoutError indicates a socket timeout or an HTTP 408/504. Retryable.
func TimeoutError(elapsed time.Duration, err error) *JusError {
	return newError("timeout", nil, elapsed, err)
}

// NoConnectionError indicates the transport could not reach the server at
// all. Terminal.
func NoConnectionError(elapsed time.Duration, err error) *JusError {
	return newError("no-connection", nil, elapsed, err)
}

// NetworkError is a transport-level I/O failure that carries a response when
// one was received. Terminal unless the caller classifies it into a more
// specific kind.
func NetworkError(resp *NetworkResponse, elapsed time.Duration, err error) *JusError {
	return newError("network", resp, elapsed, err)
}

// ServerError indicates a 5xx response. Retryable once per RetryPolicy.
func ServerError(resp *NetworkResponse, elapsed time.Duration) *JusError {
	return newError("server", resp, elapsed, nil)
}

// RequestError indicates a non-auth 4xx response. Terminal.
func RequestError(resp *NetworkResponse, elapsed time.Duration) *JusError {
	return newError("request", resp, elapsed, nil)
}

// AuthFailureError indicates a 401 response. Retryable once after a
// successful Authenticator refresh, terminal otherwise.
func AuthFailureError(resp *NetworkResponse, elapsed time.Duration, err error) *JusError {
	return newError("auth-failure", resp, elapsed, err)
}

// ForbiddenError indicates a 403 response. Terminal.
func ForbiddenError(resp *NetworkResponse, elapsed time.Duration) *JusError {
	return newError("forbidden", resp, elapsed, nil)
}

// ParseError indicates the response converter failed to decode a body that
// was otherwise delivered successfully by the transport. Terminal.
func ParseError(err error) *JusError {
	return newError("parse", nil, 0, err)
}

// IsKind reports whether err is a *JusError of the given kind.
func IsKind(err error, kind string) bool {
	je, ok := err.(*JusError)
	return ok && je.Kind == kind
}
