// Package ratelimit implements the single shared outbound token bucket that
// gates DirectionsClient calls across the ScenarioEvaluator's worker pool
// (spec.md §5), plus the 429 cooldown that holds back every caller until its
// window ends. The refill math is grounded on the teacher's inbound
// per-tenant rate limiter (api_gateway/internal/middleware/ratelimit.go),
// adapted from a per-key sync.Map of buckets to a single shared bucket
// guarded by one mutex, since every DirectionsClient worker draws from the
// same provider quota rather than per-caller quotas.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Bucket is a token bucket shared across all DirectionsClient workers.
type Bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
	ratePerSec float64
	burst      float64

	cooldownUntil time.Time
	cooldownCh    chan struct{}
}

// Config configures the shared bucket.
type Config struct {
	// RequestsPerSecond is the steady-state allowance across all workers.
	// Default: 10 (spec.md §5).
	RequestsPerSecond float64
	// Burst is the maximum number of tokens the bucket can accumulate.
	Burst float64
}

func (c Config) withDefaults() Config {
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 10
	}
	if c.Burst <= 0 {
		c.Burst = c.RequestsPerSecond
	}
	return c
}

// New creates a Bucket starting full.
func New(cfg Config) *Bucket {
	cfg = cfg.withDefaults()
	return &Bucket{
		tokens:     cfg.Burst,
		lastUpdate: time.Now(),
		ratePerSec: cfg.RequestsPerSecond,
		burst:      cfg.Burst,
	}
}

// Wait blocks until a token is available or ctx is cancelled. During an
// active 429 cooldown window (see Cooldown), Wait blocks every caller until
// the window ends; callers are not admitted one at a time during the window.
func (b *Bucket) Wait(ctx context.Context) error {
	for {
		wait, cooldownGate := b.reserve()
		if cooldownGate != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-cooldownGate:
				continue
			}
		}
		if wait <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			return nil
		}
	}
}

// reserve attempts to take one token. It returns either a duration to sleep
// before the caller may proceed, or (during cooldown) a channel that closes
// when the cooldown-holder releases the gate.
func (b *Bucket) reserve() (time.Duration, <-chan struct{}) {
	b.mu.Lock()

	if !b.cooldownUntil.IsZero() {
		if time.Now().Before(b.cooldownUntil) {
			ch := b.cooldownCh
			b.mu.Unlock()
			return 0, ch
		}
		b.cooldownUntil = time.Time{}
		b.cooldownCh = nil
	}

	now := time.Now()
	elapsed := now.Sub(b.lastUpdate).Seconds()
	b.tokens += elapsed * b.ratePerSec
	if b.tokens > b.burst {
		b.tokens = b.burst
	}
	b.lastUpdate = now

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		b.mu.Unlock()
		return 0, nil
	}

	deficit := 1.0 - b.tokens
	wait := time.Duration(deficit / b.ratePerSec * float64(time.Second))
	b.tokens = 0
	b.mu.Unlock()
	return wait, nil
}

// Cooldown opens a window of length d during which Wait admits no caller;
// once it ends, waiting callers proceed under the normal token refill. Safe
// to call concurrently; overlapping cooldowns extend the existing window
// rather than stacking.
func (b *Bucket) Cooldown(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	until := time.Now().Add(d)
	if until.Before(b.cooldownUntil) {
		return
	}
	if b.cooldownCh != nil {
		close(b.cooldownCh)
	}
	b.cooldownUntil = until
	b.cooldownCh = make(chan struct{})

	ch := b.cooldownCh
	gateUntil := until
	go func() {
		time.Sleep(time.Until(gateUntil))
		b.mu.Lock()
		if b.cooldownCh == ch {
			close(ch)
			b.cooldownCh = nil
			b.cooldownUntil = time.Time{}
		}
		b.mu.Unlock()
	}()
}
