// Package auth provides the pluggable bearer-token Authenticator hook used
// by the network façade's 401 retry path, plus a Redis-backed cache for
// sharing a refreshed token across processes.
package auth

import (
	"context"
	"time"
)

// Authenticator supplies bearer tokens for the Authorization header and
// refreshes them on demand when the server returns 401.
type Authenticator interface {
	// GetAuthToken returns the current token, fetching or refreshing it if
	// necessary.
	GetAuthToken(ctx context.Context) (string, error)
}

// AuthenticatorFunc adapts a plain function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context) (string, error)

// GetAuthToken implements Authenticator.
func (f AuthenticatorFunc) GetAuthToken(ctx context.Context) (string, error) { return f(ctx) }

// Error wraps a failure to obtain or refresh a token. The network façade
// surfaces this as a terminal AuthFailureError.
type Error struct {
	Err error
}

func (e *Error) Error() string { return "jus/auth: " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err as an auth Error, or returns nil if err is nil.
func NewError(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Err: err}
}

// cachingAuthenticator caches the underlying Authenticator's token and
// serializes refreshes: concurrent 401s from multiple in-flight requests
// could each trigger their own refresh, so within one process at most one
// refresh happens at a time — the mutex below is that decision. Cross-
// process coordination is RedisTokenCache's job.
type cachingAuthenticator struct {
	delegate Authenticator
	mu       chanMutex
	token    string
	haveTok  bool
}

// chanMutex is a 1-buffered channel used as a mutex so RefreshNow can also
// be expressed as "acquire, mutate, release" without importing sync here
// twice for token state and lock state.
type chanMutex chan struct{}

func newChanMutex() chanMutex {
	m := make(chanMutex, 1)
	m <- struct{}{}
	return m
}

func (m chanMutex) Lock()   { <-m }
func (m chanMutex) Unlock() { m <- struct{}{} }

// NewCachingAuthenticator wraps delegate so GetAuthToken returns a cached
// token instead of calling delegate on every request; RefreshNow forces a
// re-fetch (used after a 401).
func NewCachingAuthenticator(delegate Authenticator) *cachingAuthenticator {
	return &cachingAuthenticator{delegate: delegate, mu: newChanMutex()}
}

// GetAuthToken returns the cached token, fetching it on first use.
func (c *cachingAuthenticator) GetAuthToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.haveTok {
		return c.token, nil
	}
	tok, err := c.delegate.GetAuthToken(ctx)
	if err != nil {
		return "", err
	}
	c.token, c.haveTok = tok, true
	return c.token, nil
}

// RefreshNow discards the cached token and fetches a fresh one.
func (c *cachingAuthenticator) RefreshNow(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, err := c.delegate.GetAuthToken(ctx)
	if err != nil {
		return "", err
	}
	c.token, c.haveTok = tok, true
	return c.token, nil
}

// nowFunc exists so tests can stub time without a full clock abstraction.
var nowFunc = time.Now
