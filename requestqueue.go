package jus

import (
	"sync"
	"sync/atomic"

	"github.com/apptik-go/jus/pkg/cache"
)

// DefaultNetworkThreadPoolSize is the default number of NetworkDispatcher
// workers started by RequestQueue.Start.
const DefaultNetworkThreadPoolSize = 4

// waiterGroup tracks, for one cache key, the request admitted as primary (the
// one actually queued for a transport attempt) and every follower parked
// behind it by Add. Readmitted followers are pushed straight onto cacheQueue
// and never become a waiterGroup's primary themselves, so finish must compare
// against primary rather than keying off the map entry's mere presence.
type waiterGroup struct {
	primary Request
	waiting []Request
}

// RequestQueue admits requests, assigns them sequence numbers, routes them
// to the cache or network tier, coalesces duplicate in-flight cacheable
// requests onto a single transport attempt, and tracks every admitted
// request until it finishes so CancelAll can reach it.
type RequestQueue struct {
	cache    cache.Cache
	network  Network
	delivery *delivery

	cacheQueue   *blockingQueue
	networkQueue *blockingQueue

	networkPoolSize int

	mu              sync.Mutex
	currentRequests map[Request]struct{}
	waiters         map[string]*waiterGroup

	sequence int64

	cacheDispatcher    *cacheDispatcher
	networkDispatchers []*networkDispatcher
	started            bool
}

// New builds a RequestQueue. executor may be nil, in which case a
// FuncExecutor is used (each delivery runs on its own goroutine).
// networkPoolSize <= 0 uses DefaultNetworkThreadPoolSize.
func New(c cache.Cache, network Network, executor Executor, networkPoolSize int) *RequestQueue {
	if networkPoolSize <= 0 {
		networkPoolSize = DefaultNetworkThreadPoolSize
	}
	return &RequestQueue{
		cache:           c,
		network:         network,
		delivery:        newDelivery(executor),
		cacheQueue:      newBlockingQueue(),
		networkQueue:    newBlockingQueue(),
		networkPoolSize: networkPoolSize,
		currentRequests: make(map[Request]struct{}),
		waiters:         make(map[string]*waiterGroup),
	}
}

// Cache returns the cache backend this queue was built with.
func (q *RequestQueue) Cache() cache.Cache { return q.cache }

// Start initializes the cache and launches the cache dispatcher and the
// network dispatcher pool. Calls after the first return nil and do nothing.
func (q *RequestQueue) Start() error {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return nil
	}
	q.started = true
	q.mu.Unlock()

	if err := q.cache.Initialize(); err != nil {
		return err
	}

	q.cacheDispatcher = newCacheDispatcher(q)
	go q.cacheDispatcher.run()

	q.networkDispatchers = make([]*networkDispatcher, q.networkPoolSize)
	for i := range q.networkDispatchers {
		d := newNetworkDispatcher(q)
		q.networkDispatchers[i] = d
		go d.run()
	}
	return nil
}

// Stop interrupts every dispatcher: requests still waiting in either queue
// are never taken and remain in currentRequests. A request a dispatcher is
// already serving runs to completion and is still delivered.
func (q *RequestQueue) Stop() {
	q.cacheQueue.Stop()
	q.networkQueue.Stop()
}

// Add admits request: assigns its sequence number, records it in
// currentRequests, and routes it to the network queue (non-cacheable) or
// the cache queue plus, if no identical cache-key request is already
// in-flight, the waiters map (cacheable). A cacheable request whose key
// already has a waiting primary is parked instead of queued a second
// time, so at most one transport attempt ever runs per key.
func (q *RequestQueue) Add(r Request) {
	r.setSequence(atomic.AddInt64(&q.sequence, 1))
	r.setRequestQueue(q)

	q.mu.Lock()
	q.currentRequests[r] = struct{}{}

	if !r.ShouldCache() {
		q.mu.Unlock()
		q.networkQueue.Put(r)
		return
	}

	key := r.CacheKey()
	if wg, primaryInFlight := q.waiters[key]; primaryInFlight {
		wg.waiting = append(wg.waiting, r)
		q.mu.Unlock()
		return
	}
	q.waiters[key] = &waiterGroup{primary: r}
	q.mu.Unlock()
	q.cacheQueue.Put(r)
}

// CancelAll cancels every currently tracked request matching tag (compared
// with ==) or, if tag implements the predicate signature
// func(Request) bool, matching the predicate.
func (q *RequestQueue) CancelAll(filter any) {
	pred, isPred := filter.(func(Request) bool)

	q.mu.Lock()
	matches := make([]Request, 0, len(q.currentRequests))
	for r := range q.currentRequests {
		if isPred {
			if pred(r) {
				matches = append(matches, r)
			}
			continue
		}
		if r.Tag() == filter {
			matches = append(matches, r)
		}
	}
	q.mu.Unlock()

	for _, r := range matches {
		r.Cancel()
	}
}

// finish removes r from currentRequests and, if r was the primary admitted
// for its cache key, re-admits every waiter parked behind it onto the
// cache queue so they observe the freshly written cache entry.
//
// Matching is by identity against waiterGroup.primary, not by cache-key
// presence alone: readmitted waiters bypass Add and never become a key's
// primary themselves, so a readmitted waiter that re-misses cache and falls
// through to the network again must not be allowed to clear and readmit a
// different, still-in-flight primary's waiterGroup for the same key.
func (q *RequestQueue) finish(r Request, reason string) {
	q.mu.Lock()
	delete(q.currentRequests, r)

	var toReadmit []Request
	if r.ShouldCache() {
		if wg, ok := q.waiters[r.CacheKey()]; ok && wg.primary == r {
			delete(q.waiters, r.CacheKey())
			toReadmit = wg.waiting
		}
	}
	q.mu.Unlock()

	for _, w := range toReadmit {
		q.cacheQueue.Put(w)
	}
}

// requeueForRevalidation re-admits r directly onto the network queue,
// bypassing Add's coalescing (r was already the primary for its key and
// is still tracked in currentRequests). Used by CacheDispatcher after
// serving a soft-expired entry, to trigger a background revalidation.
func (q *RequestQueue) requeueForRevalidation(r Request) {
	q.networkQueue.Put(r)
}
