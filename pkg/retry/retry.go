// Package retry implements the per-request retry/backoff budget applied by
// the network façade between transport attempts.
package retry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jus_retries_total",
		Help: "Total number of retry attempts granted by RetryPolicy.",
	})

	retryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jus_retry_exhausted_total",
		Help: "Total number of times a RetryPolicy ran out of attempts.",
	})

	retryTimeoutSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jus_retry_timeout_seconds",
		Help:    "Per-attempt timeout handed to the transport after each retry grant.",
		Buckets: []float64{0.5, 1, 2, 2.5, 5, 10, 30},
	})
)

// DefaultTimeout, DefaultMaxRetries and DefaultBackoffMultiplier are the
// configuration defaults enumerated for RetryPolicy.
const (
	DefaultTimeout           = 2500 * time.Millisecond
	DefaultMaxRetries        = 1
	DefaultBackoffMultiplier = 1.0
)

// Policy tracks the mutable retry state attached to one Request. It is not
// safe for concurrent use — only the dispatcher currently owning the
// request touches it, per the single-owner invariant on Request mutable
// fields.
type Policy struct {
	currentTimeout    time.Duration
	currentRetryCount int
	backoffMultiplier float64
	maxNumRetries     int
}

// New creates a Policy with the given per-attempt timeout, retry budget and
// exponential backoff multiplier.
func New(timeout time.Duration, maxNumRetries int, backoffMultiplier float64) *Policy {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if backoffMultiplier <= 0 {
		backoffMultiplier = DefaultBackoffMultiplier
	}
	return &Policy{
		currentTimeout:    timeout,
		maxNumRetries:     maxNumRetries,
		backoffMultiplier: backoffMultiplier,
	}
}

// DefaultPolicy returns a Policy built from the package defaults.
func DefaultPolicy() *Policy {
	return New(DefaultTimeout, DefaultMaxRetries, DefaultBackoffMultiplier)
}

// CurrentTimeout is the timeout the transport must apply to the next
// attempt.
func (p *Policy) CurrentTimeout() time.Duration { return p.currentTimeout }

// CurrentRetryCount is the number of retries already granted.
func (p *Policy) CurrentRetryCount() int { return p.currentRetryCount }

// Retry grows the timeout and retry count, or re-raises err unchanged once
// the budget (maxNumRetries + 1 total attempts) is exhausted.
func (p *Policy) Retry(err error) error {
	if p.currentRetryCount+1 > p.maxNumRetries {
		retryExhaustedTotal.Inc()
		return err
	}
	p.currentRetryCount++
	growth := time.Duration(float64(p.currentTimeout) * p.backoffMultiplier)
	p.currentTimeout += growth
	retriesTotal.Inc()
	retryTimeoutSeconds.Observe(p.currentTimeout.Seconds())
	return nil
}

// Clone returns an independent copy carrying the same configuration but a
// reset attempt count, for reuse across multiple requests sharing one
// configuration template.
func (p *Policy) Clone() *Policy {
	return &Policy{
		currentTimeout:    p.currentTimeout,
		backoffMultiplier: p.backoffMultiplier,
		maxNumRetries:     p.maxNumRetries,
	}
}
