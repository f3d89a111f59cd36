// Package event implements a minimal in-process pub/sub used internally by
// the gateway shard runtime to couple its frame decoder, opcode handler, and
// heartbeat handler without those pieces holding direct references to one
// another.
package event

import (
	"context"
	"sync"

	"github.com/corvidkit/corvid/errs"
)

// ListenerFunc receives the arguments passed to PushEvent.
type ListenerFunc func(args ...any)

// Pusher is a named-event pub/sub with registration-order dispatch and a
// one-shot Wait primitive.
type Pusher struct {
	mu        sync.Mutex
	listeners map[string][]ListenerFunc
	waiters   map[string][]chan []any
}

// NewPusher returns a ready-to-use Pusher.
func NewPusher() *Pusher {
	return &Pusher{
		listeners: make(map[string][]ListenerFunc),
		waiters:   make(map[string][]chan []any),
	}
}

// RegisterListener appends fn to name's listener list. Listeners run, in
// registration order, synchronously within PushEvent.
func (p *Pusher) RegisterListener(name string, fn ListenerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners[name] = append(p.listeners[name], fn)
}

// PushEvent invokes every listener registered for name, in registration
// order, and resolves any Wait calls currently pending on name.
func (p *Pusher) PushEvent(name string, args ...any) {
	p.mu.Lock()
	listeners := append([]ListenerFunc(nil), p.listeners[name]...)
	waiters := p.waiters[name]
	delete(p.waiters, name)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(args...)
	}
	for _, ch := range waiters {
		ch <- args
	}
}

// Wait blocks until the next emission of name or until ctx is done, in
// which case it returns errs.ErrTimeout.
func (p *Pusher) Wait(ctx context.Context, name string) ([]any, error) {
	ch := make(chan []any, 1)
	p.mu.Lock()
	p.waiters[name] = append(p.waiters[name], ch)
	p.mu.Unlock()

	select {
	case args := <-ch:
		return args, nil
	case <-ctx.Done():
		return nil, errs.ErrTimeout
	}
}
