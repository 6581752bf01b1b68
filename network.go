package jus

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/apptik-go/jus/pkg/auth"
	"github.com/apptik-go/jus/pkg/cache"
	"github.com/apptik-go/jus/pkg/pool"
	"github.com/rs/zerolog/log"
)

// DefaultSlowRequestThreshold is the lifetime above which performRequest
// logs an attempt even outside debug logging.
const DefaultSlowRequestThreshold = 3000 * time.Millisecond

// HttpStack is the replaceable low-level transport driver. It must honor
// the per-attempt timeout carried on the request's retry policy, surface
// timeouts as a *TimeoutSignal rather than a generic error, and never
// retry internally — BasicNetwork owns the retry loop.
type HttpStack interface {
	PerformRequest(ctx context.Context, r Request, extraHeaders map[string]string) (*NetworkResponse, error)
}

// TimeoutSignal is the error an HttpStack returns to indicate a socket or
// connect timeout on this attempt (as opposed to a malformed URL or a
// connection failure).
type TimeoutSignal struct{ Err error }

func (t *TimeoutSignal) Error() string { return fmt.Sprintf("jus: timeout: %v", t.Err) }
func (t *TimeoutSignal) Unwrap() error { return t.Err }

// NoConnectionSignal is the error an HttpStack returns when it could not
// reach the server at all (DNS failure, connection refused, ...).
type NoConnectionSignal struct{ Err error }

func (n *NoConnectionSignal) Error() string { return fmt.Sprintf("jus: no connection: %v", n.Err) }
func (n *NoConnectionSignal) Unwrap() error  { return n.Err }

// MalformedURLSignal is the error an HttpStack returns when the request's
// URL could not be parsed at all. Unlike every other transport error, this
// is not recoverable by retrying or refreshing auth, so PerformRequest
// panics rather than feeding it through the retry loop.
type MalformedURLSignal struct{ Err error }

func (m *MalformedURLSignal) Error() string { return fmt.Sprintf("jus: malformed url: %v", m.Err) }
func (m *MalformedURLSignal) Unwrap() error  { return m.Err }

// Network executes one full request lifecycle including retries.
type Network interface {
	PerformRequest(r Request) (*NetworkResponse, error)
}

// BasicNetwork is the Network façade driving retries, cache-validator
// headers and authenticator refresh over a replaceable HttpStack.
type BasicNetwork struct {
	stack         HttpStack
	pool          *pool.ByteArrayPool
	authenticator auth.Authenticator

	// authMu guards authToken/haveAuthToken: a *BasicNetwork is shared
	// across every networkDispatcher goroutine in the pool, and a 401 on
	// one dispatcher refreshes the token while another may be reading it
	// to build its own Authorization header.
	authMu        sync.Mutex
	authToken     string
	haveAuthToken bool

	slowRequestThreshold time.Duration
}

// NewBasicNetwork builds a façade over stack. pool may be nil (a default
// 4096-byte pool is created); authenticator may be nil (no Authorization
// header is sent, and 401s are terminal).
func NewBasicNetwork(stack HttpStack, bufferPool *pool.ByteArrayPool, authenticator auth.Authenticator) *BasicNetwork {
	if bufferPool == nil {
		bufferPool = pool.New(pool.DefaultPoolMaxBytes)
	}
	return &BasicNetwork{
		stack:                stack,
		pool:                 bufferPool,
		authenticator:        authenticator,
		slowRequestThreshold: DefaultSlowRequestThreshold,
	}
}

// SetSlowRequestThreshold overrides the default 3-second slow-request log
// threshold.
func (n *BasicNetwork) SetSlowRequestThreshold(d time.Duration) { n.slowRequestThreshold = d }

// PerformRequest runs the full retry loop for r, returning either a
// successful NetworkResponse or a terminal typed error once the retry
// budget is exhausted.
func (n *BasicNetwork) PerformRequest(r Request) (*NetworkResponse, error) {
	start := timeNow()

	for {
		headers := map[string]string{}
		for k, v := range r.Headers() {
			headers[k] = v
		}
		n.addCacheHeaders(headers, r.CacheEntry())
		if err := n.addAuthHeaders(headers); err != nil {
			return nil, AuthFailureError(nil, timeNow().Sub(start), err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.RetryPolicy().CurrentTimeout())
		resp, err := n.stack.PerformRequest(ctx, r, headers)
		cancel()

		elapsed := timeNow().Sub(start)

		if err != nil {
			if mu, ok := err.(*MalformedURLSignal); ok {
				panic(fmt.Sprintf("jus: bad URL %s: %v", r.URL(), mu.Err))
			}
			if retryErr := n.classifyTransportErr(err, elapsed); retryErr != nil {
				if giveup := r.RetryPolicy().Retry(retryErr); giveup != nil {
					return nil, giveup
				}
				continue
			}
			return nil, NoConnectionError(elapsed, err)
		}

		n.logSlowRequest(elapsed, r, resp)

		if resp.StatusCode == http.StatusNotModified {
			return n.handleNotModified(r, resp), nil
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return resp, nil
		}

		outcome, retryable := n.classifyStatus(r, resp, elapsed)
		if !retryable {
			return nil, outcome
		}
		if giveup := r.RetryPolicy().Retry(outcome); giveup != nil {
			return nil, giveup
		}
		// Budget allows another attempt: loop back to step 2 and rebuild
		// headers, picking up the refreshed auth token or the grown
		// per-attempt timeout as appropriate.
	}
}

func (n *BasicNetwork) handleNotModified(r Request, resp *NetworkResponse) *NetworkResponse {
	entry := r.CacheEntry()
	if entry == nil {
		return &NetworkResponse{StatusCode: http.StatusNotModified, Headers: resp.Headers, NotModified: true, NetworkTime: resp.NetworkTime}
	}
	merged := cache.Merge(entry.ResponseHeaders, resp.Headers)
	return &NetworkResponse{
		StatusCode:  http.StatusNotModified,
		Data:        entry.Data,
		Headers:     merged,
		NotModified: true,
		NetworkTime: resp.NetworkTime,
	}
}

// classifyStatus maps a non-2xx, non-304 status code to the error taxonomy
// and reports whether the caller should retry (after RetryPolicy grants
// another attempt) or treat it as terminal.
func (n *BasicNetwork) classifyStatus(r Request, resp *NetworkResponse, elapsed time.Duration) (outcome error, retryable bool) {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if n.authenticator == nil {
			return AuthFailureError(resp, elapsed, nil), false
		}
		tok, err := n.refreshAuthToken()
		if err != nil {
			return AuthFailureError(resp, elapsed, err), false
		}
		n.authMu.Lock()
		n.authToken, n.haveAuthToken = tok, true
		n.authMu.Unlock()
		return AuthFailureError(resp, elapsed, nil), true
	case http.StatusForbidden:
		return ForbiddenError(resp, elapsed), false
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return TimeoutError(elapsed, nil), true
	default:
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return RequestError(resp, elapsed), false
		}
		if resp.StatusCode >= 500 {
			return ServerError(resp, elapsed), true
		}
		return NetworkError(resp, elapsed, nil), false
	}
}

func (n *BasicNetwork) classifyTransportErr(err error, elapsed time.Duration) error {
	switch err.(type) {
	case *TimeoutSignal:
		return TimeoutError(elapsed, err)
	case *NoConnectionSignal:
		return nil
	default:
		return nil
	}
}

func (n *BasicNetwork) refreshAuthToken() (string, error) {
	type refresher interface {
		RefreshNow(ctx context.Context) (string, error)
	}
	if rf, ok := n.authenticator.(refresher); ok {
		return rf.RefreshNow(context.Background())
	}
	return n.authenticator.GetAuthToken(context.Background())
}

func (n *BasicNetwork) addAuthHeaders(headers map[string]string) error {
	if n.authenticator == nil {
		return nil
	}
	n.authMu.Lock()
	tok, have := n.authToken, n.haveAuthToken
	n.authMu.Unlock()
	if !have {
		var err error
		tok, err = n.authenticator.GetAuthToken(context.Background())
		if err != nil {
			return err
		}
		n.authMu.Lock()
		n.authToken, n.haveAuthToken = tok, true
		n.authMu.Unlock()
	}
	headers["Authorization"] = "Bearer " + tok
	return nil
}

func (n *BasicNetwork) addCacheHeaders(headers map[string]string, entry *cache.Entry) {
	if entry == nil {
		return
	}
	if entry.ETag != "" {
		headers["If-None-Match"] = entry.ETag
	}
	if entry.LastModified > 0 {
		headers["If-Modified-Since"] = time.UnixMilli(entry.LastModified).UTC().Format(http.TimeFormat)
	}
}

func (n *BasicNetwork) logSlowRequest(elapsed time.Duration, r Request, resp *NetworkResponse) {
	if elapsed <= n.slowRequestThreshold {
		return
	}
	size := 0
	if resp != nil {
		size = len(resp.Data)
	}
	log.Warn().
		Str("correlation_id", r.CorrelationID()).
		Str("method", r.Method()).
		Str("url", r.URL()).
		Dur("lifetime", elapsed).
		Int("size", size).
		Int("retry_count", r.RetryPolicy().CurrentRetryCount()).
		Msg("slow HTTP request")
}
