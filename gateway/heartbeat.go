package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/corvidkit/corvid/event"
)

// heartbeatHandler schedules periodic HEARTBEAT sends and watches for the
// matching HEARTBEAT_ACK, mirroring original_source's HeartbeatHandler: a
// missed ack within ackTimeout pushes "connection_stale" instead of killing
// the connection itself, leaving reconnection to the caller.
type heartbeatHandler struct {
	shard  *Shard
	pusher *event.Pusher

	ackTimeout time.Duration

	mu        sync.Mutex
	interval  time.Duration
	stopped   bool
	cancel    context.CancelFunc
	sent      int64
	acked     int64
	lastSent  time.Time
	lastAcked time.Time
}

func newHeartbeatHandler(shard *Shard, pusher *event.Pusher) *heartbeatHandler {
	return &heartbeatHandler{
		shard:      shard,
		pusher:     pusher,
		ackTimeout: 10 * time.Second,
	}
}

// start begins the heartbeat loop at interval, sending the first heartbeat
// immediately per original_source's do_heartbeat-on-HELLO behavior.
func (h *heartbeatHandler) start(interval time.Duration) {
	h.mu.Lock()
	h.interval = interval
	h.stopped = false
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.mu.Unlock()

	go h.loop(ctx)
}

func (h *heartbeatHandler) stop() {
	h.mu.Lock()
	h.stopped = true
	if h.cancel != nil {
		h.cancel()
	}
	h.mu.Unlock()
}

func (h *heartbeatHandler) loop(ctx context.Context) {
	for {
		if err := h.beat(ctx); err != nil {
			return
		}
		h.mu.Lock()
		interval := h.interval
		h.mu.Unlock()

		t := time.NewTimer(interval)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return
		}
	}
}

// beat sends one heartbeat and waits for its ack, pushing "connection_stale"
// on timeout instead of returning an error the caller must notice
// themselves.
func (h *heartbeatHandler) beat(ctx context.Context) error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return context.Canceled
	}
	h.sent++
	h.lastSent = time.Now()
	h.mu.Unlock()

	if err := h.shard.sendHeartbeat(); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, h.ackTimeout)
	defer cancel()
	_, err := h.pusher.Wait(waitCtx, "heartbeat_ack")
	if err != nil {
		h.stop()
		h.pusher.PushEvent("connection_stale")
		return err
	}

	h.mu.Lock()
	h.acked++
	h.lastAcked = time.Now()
	h.mu.Unlock()
	return nil
}

func (h *heartbeatHandler) ack() {
	h.pusher.PushEvent("heartbeat_ack")
}

// stats reports heartbeats sent/acked for P6 ("acked never exceeds sent").
func (h *heartbeatHandler) stats() (sent, acked int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sent, h.acked
}

// latency is the most recent round-trip time between a heartbeat and its ack.
func (h *heartbeatHandler) latency() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lastAcked.Before(h.lastSent) {
		return 0
	}
	return h.lastAcked.Sub(h.lastSent)
}
