package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/eapache/queue"
)

// RequestFunc performs the underlying HTTP call. It is supplied by the
// caller (typically rest.Dispatcher) and invoked by the coordinator once
// the bucket's token budget permits it.
type RequestFunc func(ctx context.Context) (*http.Response, error)

type result struct {
	resp *http.Response
	err  error
}

type queueEntry struct {
	ctx      context.Context
	fn       RequestFunc
	resultCh chan result
}

// bucket holds the per-route rate-limit state: the
// server-dictated limit/remaining/reset_at window, the FIFO pending queue,
// and the bookkeeping needed to run at most one drain goroutine at a time.
type bucket struct {
	key string

	mu               sync.Mutex
	limit            int
	remaining        int
	resetAt          time.Time
	limitKnown       bool
	remainingKnown   bool
	resetKnown       bool
	firstRequestDone bool
	burstRunning     bool
	burstCancel      context.CancelFunc
	burstToken       *struct{}
	headersCh        chan struct{}

	queueMu sync.Mutex
	q       *queue.Queue

	inFlight int64 // not updated by the coordinator; always 0
}

func newBucket(key string) *bucket {
	return &bucket{
		key:       key,
		headersCh: make(chan struct{}),
		q:         queue.New(),
	}
}

func (b *bucket) pushBack(e queueEntry) {
	b.queueMu.Lock()
	b.q.Add(e)
	b.queueMu.Unlock()
}

func (b *bucket) popFront() (queueEntry, bool) {
	b.queueMu.Lock()
	defer b.queueMu.Unlock()
	if b.q.Length() == 0 {
		return queueEntry{}, false
	}
	e := b.q.Peek().(queueEntry)
	b.q.Remove()
	return e, true
}

func (b *bucket) queueLen() int {
	b.queueMu.Lock()
	defer b.queueMu.Unlock()
	return b.q.Length()
}

// ready reports whether all three header-derived parameters are known,
// gating the cold-start burst.
func (b *bucket) ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.limitKnown && b.remainingKnown && b.resetKnown
}

func (b *bucket) exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remainingKnown && b.remaining <= 0
}

func (b *bucket) resetAtSnapshot() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resetAt
}

func (b *bucket) decrementRemaining() {
	b.mu.Lock()
	if b.remainingKnown {
		b.remaining--
	}
	b.mu.Unlock()
}

// waitHeaders returns the channel currently used to signal a header/429
// update. Snapshot it before checking state, then select on it, to avoid
// missing a signal raised between the check and the wait (classic
// edge-triggered condition pattern).
func (b *bucket) waitHeaders() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.headersCh
}

// signalHeaders wakes every current waiter and arms a fresh channel for the
// next round, implementing an edge-triggered condition variable.
func (b *bucket) signalHeaders() {
	b.mu.Lock()
	close(b.headersCh)
	b.headersCh = make(chan struct{})
	b.mu.Unlock()
}

func (b *bucket) updateFromHeaders(limit, remaining int, resetAt time.Time, haveLimit, haveRemaining, haveReset bool) {
	b.mu.Lock()
	if haveLimit {
		b.limit = limit
		b.limitKnown = true
	}
	if haveRemaining {
		b.remaining = remaining
		b.remainingKnown = true
	}
	if haveReset {
		b.resetAt = resetAt
		b.resetKnown = true
	}
	b.mu.Unlock()
}

func (b *bucket) recordThrottled(resetAt time.Time) {
	b.mu.Lock()
	b.remaining = 0
	b.remainingKnown = true
	b.resetAt = resetAt
	b.resetKnown = true
	b.mu.Unlock()
}

func (b *bucket) markFirstRequestDone() {
	b.mu.Lock()
	b.firstRequestDone = true
	b.mu.Unlock()
}

func (b *bucket) isFirstRequestDone() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.firstRequestDone
}
