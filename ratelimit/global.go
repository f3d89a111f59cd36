package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// globalGate handles the 429 body's global flag: when set, every bucket
// gates on a shared global reset_at instead of just its own. It is built
// on x/time/rate rather than a bespoke timer: in steady state the limiter
// allows everything (rate.Inf), and a global 429 trips it to rate 0 for
// the retry-after duration, during which every bucket's Wait call blocks
// until the limiter's rate is restored.
type globalGate struct {
	limiter *rate.Limiter
}

func newGlobalGate() *globalGate {
	return &globalGate{limiter: rate.NewLimiter(rate.Inf, 1)}
}

// trip gates all buckets for d, then restores unlimited throughput.
func (g *globalGate) trip(d time.Duration) {
	if d <= 0 {
		return
	}
	g.limiter.SetLimit(0)
	time.AfterFunc(d, func() {
		g.limiter.SetLimit(rate.Inf)
	})
}

// wait blocks until the global gate is open or ctx is done.
func (g *globalGate) wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}
