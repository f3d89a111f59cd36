// Package ratelimit implements the REST client's per-bucket rate-limit
// coordinator: it serializes outbound HTTP requests against
// server-dictated token buckets, discovers bucket parameters from response
// headers, and recovers from HTTP 429 throttling without losing requests.
package ratelimit

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/corvidkit/corvid/internal/metrics"
)

// Coordinator owns the bucket registry for one REST session. Entries are
// created lazily on first use and never evicted for the session's lifetime.
type Coordinator struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	global  *globalGate
	logger  *zap.Logger
	metrics *metrics.Registry
}

// Option configures a Coordinator at construction time.
type Option func(*Coordinator)

// WithLogger attaches a structured logger; the zero value logs nothing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithMetrics attaches a metrics registry the coordinator updates with a
// per-bucket remaining gauge whenever a response carries that header.
func WithMetrics(m *metrics.Registry) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator returns a Coordinator with an empty bucket registry.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		buckets: make(map[string]*bucket),
		global:  newGlobalGate(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) getOrCreate(key string) *bucket {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.buckets[key]
	if !ok {
		b = newBucket(key)
		c.buckets[key] = b
	}
	return b
}

// Submit enqueues fn on the bucket named by key and blocks until the
// bucket's drain goroutine dispatches it and a response (or transport
// error) arrives, or until ctx is canceled first. Canceling ctx unblocks
// the caller but does not dequeue the request: it
// still runs, and its result is simply discarded.
func (c *Coordinator) Submit(ctx context.Context, key string, fn RequestFunc) (*http.Response, error) {
	b := c.getOrCreate(key)
	resultCh := make(chan result, 1)
	b.pushBack(queueEntry{ctx: ctx, fn: fn, resultCh: resultCh})
	c.maybeSpawnBurst(b)

	select {
	case r := <-resultCh:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Coordinator) maybeSpawnBurst(b *bucket) {
	b.mu.Lock()
	if b.burstRunning {
		b.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	token := &struct{}{}
	b.burstRunning = true
	b.burstCancel = cancel
	b.burstToken = token
	b.mu.Unlock()

	go c.runBurst(b, ctx, token)
}

// cancelBurst is invoked by the 429 handler to tear
// down the currently running drain goroutine and reset the burst-task slot
// to nil, so the next submission (the 429 retry, specifically) spawns a
// fresh one. The queue itself is left untouched.
//
// State is cleared here synchronously rather than left to the cancelled
// goroutine's own cleanup, because that goroutine only observes
// cancellation at its next cooperative yield — if the caller relied on
// that, a subsequent maybeSpawnBurst would see burstRunning still true and
// refuse to spawn the replacement. The cancelled goroutine's deferred
// cleanup checks burstToken before touching shared state so it cannot
// clobber a burst spawned after it was superseded.
func (c *Coordinator) cancelBurst(b *bucket) {
	b.mu.Lock()
	if b.burstCancel != nil {
		b.burstCancel()
	}
	b.burstRunning = false
	b.burstCancel = nil
	b.burstToken = nil
	b.mu.Unlock()
}

// runBurst is one cooperative drain of a bucket's pending queue up to its
// current token allowance.
func (c *Coordinator) runBurst(b *bucket, ctx context.Context, token *struct{}) {
	respawn := false
	defer func() {
		b.mu.Lock()
		current := b.burstToken == token
		if current {
			b.burstRunning = false
			b.burstCancel = nil
			b.burstToken = nil
		}
		b.mu.Unlock()
		// Submissions that arrived while this burst was still marked running
		// did not spawn their own; start the next cycle for them.
		if current && respawn && b.queueLen() > 0 {
			c.maybeSpawnBurst(b)
		}
	}()

	if !b.isFirstRequestDone() {
		if e, ok := b.popFront(); ok {
			c.dispatch(b, e)
		}
		b.markFirstRequestDone()
		respawn = true
		return
	}

	readyCh := b.waitHeaders()
	if !b.ready() {
		select {
		case <-readyCh:
		case <-ctx.Done():
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		runtime.Gosched() // yield once per iteration

		if b.queueLen() == 0 {
			respawn = true
			return
		}

		if err := c.global.wait(ctx); err != nil {
			return
		}

		waitCh := b.waitHeaders()
		if b.exhausted() {
			select {
			case <-waitCh:
			case <-ctx.Done():
				return
			}
			if d := time.Until(b.resetAtSnapshot()); d > 0 {
				t := time.NewTimer(d)
				select {
				case <-t.C:
				case <-ctx.Done():
					t.Stop()
					return
				}
			}
			continue
		}

		b.decrementRemaining()
		e, ok := b.popFront()
		if !ok {
			continue
		}
		c.dispatch(b, e)
	}
}

// dispatch runs one request asynchronously so the drain loop can continue
// without waiting for the response: dispatch one request, continue.
func (c *Coordinator) dispatch(b *bucket, e queueEntry) {
	go c.request(b, e)
}

// request wraps one dispatch attempt: it invokes the underlying op,
// handles 429 recovery, and otherwise records header-derived bucket state
// before delivering the response.
func (c *Coordinator) request(b *bucket, e queueEntry) {
	resp, err := e.fn(e.ctx)
	if err != nil {
		// Transport failures propagate to the submitter; remaining is left
		// unchanged.
		e.resultCh <- result{nil, err}
		return
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.cancelBurst(b)

		retryAfterMs, global := parseThrottled(resp.Body)
		resp.Body.Close()

		resetAt := time.Now().Add(time.Duration(retryAfterMs) * time.Millisecond)
		b.recordThrottled(resetAt)
		b.signalHeaders()

		if global {
			c.global.trip(time.Duration(retryAfterMs) * time.Millisecond)
		}

		c.logger.Debug("bucket throttled, retrying",
			zap.String("bucket", b.key),
			zap.Int64("retry_after_ms", retryAfterMs),
			zap.Bool("global", global),
		)

		// Re-enqueue the original request at the tail of the same bucket's
		// queue, reusing its resultCh so the original caller still
		// receives the eventual response.
		b.pushBack(e)
		c.maybeSpawnBurst(b)
		return
	}

	limit, remaining, resetAt, haveLimit, haveRemaining, haveReset := parseRateHeaders(resp.Header)
	if haveLimit || haveRemaining || haveReset {
		b.updateFromHeaders(limit, remaining, resetAt, haveLimit, haveRemaining, haveReset)
	}
	b.signalHeaders()

	if c.metrics != nil && haveRemaining {
		c.metrics.Set("ratelimit.bucket."+b.key+".remaining", remaining)
	}

	e.resultCh <- result{resp, nil}
}
