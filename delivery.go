package jus

import "github.com/apptik-go/jus/pkg/cache"

// Executor runs a delivery closure, typically on a single caller-owned
// goroutine or loop (the Go analogue of a single-thread UI/main-loop
// poster). FuncExecutor (one goroutine per closure) and the channel-backed
// SequentialExecutor are provided for the common cases.
type Executor interface {
	Execute(func())
}

// ExecutorFunc adapts a plain function to Executor.
type ExecutorFunc func(func())

// Execute implements Executor.
func (f ExecutorFunc) Execute(fn func()) { f(fn) }

// FuncExecutor runs every closure on its own goroutine. Use this when
// listeners are safe to run concurrently with each other; otherwise supply
// a single-worker Executor (e.g. one that posts onto a channel drained by
// one goroutine) to serialize delivery.
var FuncExecutor Executor = ExecutorFunc(func(fn func()) { go fn() })

// SequentialExecutor runs every closure on one dedicated goroutine, in the
// order it receives them — the Go equivalent of posting to a single UI
// thread's message loop.
type SequentialExecutor struct {
	work chan func()
	done chan struct{}
}

// NewSequentialExecutor starts the worker goroutine and returns the
// executor. Call Stop to shut it down.
func NewSequentialExecutor() *SequentialExecutor {
	e := &SequentialExecutor{
		work: make(chan func(), 64),
		done: make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *SequentialExecutor) run() {
	for {
		select {
		case fn := <-e.work:
			fn()
		case <-e.done:
			return
		}
	}
}

// Execute implements Executor.
func (e *SequentialExecutor) Execute(fn func()) {
	select {
	case e.work <- fn:
	case <-e.done:
	}
}

// Stop terminates the worker goroutine. Pending work is dropped.
func (e *SequentialExecutor) Stop() { close(e.done) }

// delivery posts success/error outcomes onto a caller-chosen Executor.
// Delivery is exactly-once: markDelivered is set before the closure is
// handed to the executor, and the cancellation check happens again on the
// executor side so a request canceled after being queued for delivery
// still only finishes once.
type delivery struct {
	executor Executor
}

func newDelivery(executor Executor) *delivery {
	if executor == nil {
		executor = FuncExecutor
	}
	return &delivery{executor: executor}
}

// postResponse decodes and delivers a network response. The parsed cache
// entry (if cacheable) is written after the listener has fired and before
// finish, so parked waiters readmitted by finish see it; a listener that
// reads the cache from inside OnSuccess does not. afterwork, if non-nil,
// runs after finish; the network dispatcher passes nil.
func (d *delivery) postResponse(r Request, resp *NetworkResponse, c cache.Cache, afterwork func()) {
	r.markDelivered()
	d.executor.Execute(func() {
		if r.Canceled() {
			r.finish("canceled-at-delivery")
			return
		}
		entry, err := r.deliverSuccess(resp)
		if err != nil {
			r.deliverError(err)
			r.finish("error-at-delivery")
			return
		}
		if entry != nil && c != nil {
			_ = c.Put(r.CacheKey(), entry)
		}
		r.finish("network-done")
		if afterwork != nil {
			afterwork()
		}
	})
}

// postCachedResponse delivers a response served directly from the cache
// (the fresh and soft-expired-but-usable paths). Unlike postResponse this
// never writes back to the cache.
func (d *delivery) postCachedResponse(r Request, entry *cache.Entry, afterwork func()) {
	r.markDelivered()
	d.executor.Execute(func() {
		if r.Canceled() {
			r.finish("canceled-at-delivery")
			return
		}
		if err := r.deliverCachedSuccess(entry); err != nil {
			r.deliverError(err)
			r.finish("error-at-delivery")
			return
		}
		if afterwork == nil {
			r.finish("cache-done")
			return
		}
		// Soft-expired refresh: the request has already been delivered
		// once. afterwork re-queues it for revalidation and finish is left
		// to the network dispatcher: a 304 just finishes it, while a changed
		// response is written to the cache and delivered a second time.
		afterwork()
	})
}

// postError delivers a terminal error.
func (d *delivery) postError(r Request, err error) {
	r.markDelivered()
	d.executor.Execute(func() {
		if r.Canceled() {
			r.finish("canceled-at-delivery")
			return
		}
		r.deliverError(err)
		r.finish("error-delivered")
	})
}
