// Package jus implements a prioritized, two-tier HTTP request queue: a
// cache dispatcher serving requests straight from a pluggable on-disk or
// Redis response cache, and a pool of network dispatchers falling back to
// a transport driver with retry, backoff and authenticator-refresh
// semantics layered on top.
package jus

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/apptik-go/jus/pkg/cache"
	"github.com/apptik-go/jus/pkg/retry"
)

// NetworkRequest is the pre-encoded wire form of a request body, produced
// by a RequestConverter before the transport driver is invoked.
type NetworkRequest struct {
	Data        []byte
	ContentType string
}

// RequestConverter encodes a typed body U into its wire form.
type RequestConverter[U any] func(body U) (NetworkRequest, error)

// ResponseConverter decodes a NetworkResponse into a typed result T.
type ResponseConverter[T any] func(resp *NetworkResponse) (T, error)

// Listener carries the success/error callbacks invoked by the delivery
// executor. For an admitted request, at most one of OnSuccess or OnError
// fires, once, with two exceptions: a request canceled before delivery gets
// neither, and a request served from a soft-expired cache entry whose
// background revalidation returns changed data (or fails) gets a second
// callback after the first OnSuccess.
type Listener[T any] struct {
	OnSuccess func(T)
	OnError   func(error)
}

// Request is the capability set the queue and dispatchers operate on. It
// deliberately knows nothing about the typed payload: TypedRequest[T]
// supplies decode/deliver behavior through closures captured at
// construction, which is the Go rendering of the source library's
// inheritance-based Request<T> subclasses (see DESIGN.md).
type Request interface {
	Method() string
	URL() string
	Tag() any
	Priority() Priority

	// CorrelationID is a UUID assigned at construction, independent of the
	// caller-supplied Tag, so log lines and cancelAll predicates always have
	// a stable per-request identifier to key on even when Tag is nil.
	CorrelationID() string

	// Sequence returns the admission-order sequence number assigned by
	// RequestQueue.Add. Zero until admitted.
	Sequence() int64

	// ShouldCache reports whether this request's response may be written
	// to and served from the cache.
	ShouldCache() bool

	// CacheKey identifies cached entries for this request. Defaults to
	// "METHOD URL" but a request may compute additional dimensions.
	CacheKey() string

	// Headers returns the caller-supplied extra headers, not including
	// cache validators or Authorization (the network façade adds those).
	Headers() map[string]string

	// Body returns the pre-encoded request body, if any.
	Body() *NetworkRequest

	// CacheEntry returns the entry attached by CacheDispatcher for
	// validator headers and soft-expired revalidation, or nil.
	CacheEntry() *cache.Entry

	// SetCacheEntry attaches entry so the network façade can send
	// If-None-Match / If-Modified-Since, and so a 304 response can be
	// merged back into the cached body.
	SetCacheEntry(entry *cache.Entry)

	// RetryPolicy returns the request's mutable retry state.
	RetryPolicy() *retry.Policy

	// Canceled reports whether Cancel has been called.
	Canceled() bool

	// Cancel flips the cancellation flag. Checked at dispatcher entry and
	// before delivery; in-flight transport reads are not aborted.
	Cancel()

	// ResponseDelivered reports whether a result has already been handed
	// to the delivery executor.
	ResponseDelivered() bool

	// deliverSuccess decodes resp with the request's ResponseConverter and
	// invokes OnSuccess, returning the parsed cache entry to write (nil if
	// the response is not cacheable or ShouldCache is false).
	deliverSuccess(resp *NetworkResponse) (*cache.Entry, error)

	// deliverCachedSuccess decodes a cached body directly, for the
	// cache-hit path where there is no NetworkResponse.
	deliverCachedSuccess(entry *cache.Entry) error

	// deliverError invokes OnError.
	deliverError(err error)

	setSequence(seq int64)
	setRequestQueue(q *RequestQueue)
	markDelivered()
	finish(reason string)
}

// Less implements the queue's comparator: priority DESC, then sequence
// ASC, matching the FIFO-within-priority ordering guarantee.
func Less(a, b Request) bool {
	if a.Priority() != b.Priority() {
		return a.Priority() > b.Priority()
	}
	return a.Sequence() < b.Sequence()
}

// TypedRequest is the concrete Request implementation for a result type T.
// It is the polymorphic capability set the design notes call for: a plain
// record plus the two converters, instead of a type hierarchy.
type TypedRequest[T any] struct {
	method        string
	url           string
	tag           any
	correlationID string
	priority      Priority
	sequence    int64
	shouldCache bool
	cacheKeyFn  func() string
	headers     map[string]string
	body        *NetworkRequest
	decode      ResponseConverter[T]
	listener    Listener[T]
	retryPolicy *retry.Policy

	cacheEntry *cache.Entry
	queue      *RequestQueue

	canceled   atomic.Bool
	delivered  atomic.Bool
	finished   atomic.Bool
}

// NewTypedRequest builds a request with NORMAL priority and the default
// retry policy. shouldCache defaults to true for GET and false for every
// other method; SetShouldCache overrides it.
func NewTypedRequest[T any](method, url string, decode ResponseConverter[T], listener Listener[T]) *TypedRequest[T] {
	return &TypedRequest[T]{
		method:        method,
		url:           url,
		correlationID: uuid.NewString(),
		priority:      PriorityNormal,
		shouldCache:   method == "GET",
		decode:        decode,
		listener:      listener,
		retryPolicy:   retry.DefaultPolicy(),
		headers:       map[string]string{},
	}
}

func (r *TypedRequest[T]) Method() string { return r.method }
func (r *TypedRequest[T]) URL() string    { return r.url }

// Tag returns the caller-supplied tag, falling back to the request's
// CorrelationID when none was set, so CancelAll(tag) still has something
// stable to match against.
func (r *TypedRequest[T]) Tag() any {
	if r.tag != nil {
		return r.tag
	}
	return r.correlationID
}

func (r *TypedRequest[T]) CorrelationID() string { return r.correlationID }
func (r *TypedRequest[T]) Priority() Priority     { return r.priority }
func (r *TypedRequest[T]) Sequence() int64   { return atomic.LoadInt64(&r.sequence) }
func (r *TypedRequest[T]) ShouldCache() bool { return r.shouldCache }

func (r *TypedRequest[T]) CacheKey() string {
	if r.cacheKeyFn != nil {
		return r.cacheKeyFn()
	}
	return r.method + " " + r.url
}

func (r *TypedRequest[T]) Headers() map[string]string { return r.headers }
func (r *TypedRequest[T]) Body() *NetworkRequest       { return r.body }
func (r *TypedRequest[T]) CacheEntry() *cache.Entry    { return r.cacheEntry }
func (r *TypedRequest[T]) SetCacheEntry(entry *cache.Entry) { r.cacheEntry = entry }
func (r *TypedRequest[T]) RetryPolicy() *retry.Policy  { return r.retryPolicy }
func (r *TypedRequest[T]) Canceled() bool              { return r.canceled.Load() }
func (r *TypedRequest[T]) Cancel()                     { r.canceled.Store(true) }
func (r *TypedRequest[T]) ResponseDelivered() bool     { return r.delivered.Load() }

// SetTag attaches a caller-defined tag used by RequestQueue.CancelAll.
func (r *TypedRequest[T]) SetTag(tag any) *TypedRequest[T] { r.tag = tag; return r }

// SetPriority sets the admission priority.
func (r *TypedRequest[T]) SetPriority(p Priority) *TypedRequest[T] { r.priority = p; return r }

// SetShouldCache overrides the default cacheability (true for GET).
func (r *TypedRequest[T]) SetShouldCache(v bool) *TypedRequest[T] { r.shouldCache = v; return r }

// SetHeader adds one extra header sent with every attempt.
func (r *TypedRequest[T]) SetHeader(name, value string) *TypedRequest[T] {
	r.headers[name] = value
	return r
}

// SetBody attaches a pre-encoded body, typically produced by a
// RequestConverter at the call site.
func (r *TypedRequest[T]) SetBody(body NetworkRequest) *TypedRequest[T] { r.body = &body; return r }

// SetCacheKeyFunc overrides the default "METHOD URL" cache key, e.g. to
// fold extra request dimensions into it.
func (r *TypedRequest[T]) SetCacheKeyFunc(fn func() string) *TypedRequest[T] {
	r.cacheKeyFn = fn
	return r
}

// SetRetryPolicy overrides the default retry policy.
func (r *TypedRequest[T]) SetRetryPolicy(p *retry.Policy) *TypedRequest[T] { r.retryPolicy = p; return r }

func (r *TypedRequest[T]) deliverSuccess(resp *NetworkResponse) (*cache.Entry, error) {
	val, err := r.decode(resp)
	if err != nil {
		return nil, ParseError(err)
	}
	if r.listener.OnSuccess != nil {
		r.listener.OnSuccess(val)
	}
	if !r.shouldCache {
		return nil, nil
	}
	entry, cacheable := cache.ParseCacheHeaders(resp.Data, resp.Headers, timeNow())
	if !cacheable {
		return nil, nil
	}
	return entry, nil
}

func (r *TypedRequest[T]) deliverCachedSuccess(entry *cache.Entry) error {
	val, err := r.decode(&NetworkResponse{StatusCode: 200, Data: entry.Data, Headers: entry.ResponseHeaders})
	if err != nil {
		return ParseError(err)
	}
	if r.listener.OnSuccess != nil {
		r.listener.OnSuccess(val)
	}
	return nil
}

func (r *TypedRequest[T]) deliverError(err error) {
	if r.listener.OnError != nil {
		r.listener.OnError(err)
	}
}

func (r *TypedRequest[T]) setSequence(seq int64)         { atomic.StoreInt64(&r.sequence, seq) }
func (r *TypedRequest[T]) setRequestQueue(q *RequestQueue) { r.queue = q }
func (r *TypedRequest[T]) markDelivered()                { r.delivered.Store(true) }

func (r *TypedRequest[T]) finish(reason string) {
	if r.finished.Swap(true) {
		return
	}
	if r.queue != nil {
		r.queue.finish(r, reason)
	}
}
