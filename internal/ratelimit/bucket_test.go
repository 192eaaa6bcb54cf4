package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWaitAllowsBurstThenThrottles(t *testing.T) {
	b := New(Config{RequestsPerSecond: 1000, Burst: 2})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := b.Wait(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Fatalf("expected burst of 2 to pass immediately")
	}
}

func TestWaitRespectsContextCancel(t *testing.T) {
	b := New(Config{RequestsPerSecond: 1, Burst: 1})
	ctx := context.Background()
	if err := b.Wait(ctx); err != nil {
		t.Fatalf("unexpected error on first token: %v", err)
	}

	cancelCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := b.Wait(cancelCtx); err == nil {
		t.Fatal("expected context deadline error while waiting for next token")
	}
}

func TestCooldownBlocksWaitForWindow(t *testing.T) {
	b := New(Config{RequestsPerSecond: 1000, Burst: 1000})
	b.Cooldown(20 * time.Millisecond)

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Fatalf("expected Wait to block for the cooldown window, took %v", time.Since(start))
	}
}
