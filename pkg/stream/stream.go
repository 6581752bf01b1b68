// Package stream adapts the queue's callback-based Listener contract into a
// channel, for callers who'd rather receive one Result than wire OnSuccess/
// OnError closures by hand. It changes nothing about delivery semantics —
// it is built strictly on top of the existing listener contract.
package stream

import "github.com/apptik-go/jus"

// Result carries the outcome of one submitted request: exactly one of
// Value or Err is meaningful. One Result is sent per jus.Listener callback
// (see jus.Listener for the cases with no callback or a second one).
type Result[T any] struct {
	Value T
	Err   error
}

// Submit builds a jus.TypedRequest whose Listener pushes its outcome onto
// the returned channel (buffered by one, so delivery never blocks waiting
// on a reader), applies configure if non-nil, then adds it to q. The
// channel is never closed, so callers receive from it rather than ranging
// over it.
func Submit[T any](q *jus.RequestQueue, method, url string, decode jus.ResponseConverter[T], configure func(*jus.TypedRequest[T])) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	r := jus.NewTypedRequest(method, url, decode, jus.Listener[T]{
		OnSuccess: func(v T) { ch <- Result[T]{Value: v} },
		OnError:   func(err error) { ch <- Result[T]{Err: err} },
	})
	if configure != nil {
		configure(r)
	}
	q.Add(r)
	return ch
}
