package provider

import (
	"context"
	"testing"
	"time"
)

func TestThrottleAllowsBurst(t *testing.T) {
	throttle := NewThrottle(2, time.Minute)
	ctx := context.Background()

	start := time.Now()
	if err := throttle.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := throttle.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Fatalf("burst waits should return immediately")
	}
}

func TestThrottleRefill(t *testing.T) {
	throttle := NewThrottle(1, 5*time.Millisecond)
	ctx := context.Background()

	if err := throttle.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := throttle.Wait(ctx); err != nil {
		t.Fatalf("expected token after refill, got %v", err)
	}
}

func TestThrottleHonorsContext(t *testing.T) {
	throttle := NewThrottle(1, time.Second)
	ctx := context.Background()
	_ = throttle.Wait(ctx)

	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := throttle.Wait(timeoutCtx); err == nil {
		t.Fatal("expected context deadline error")
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Fatalf("wait should stop after context cancellation")
	}
}

func TestNilThrottleNeverBlocks(t *testing.T) {
	var throttle *Throttle
	if err := throttle.Wait(context.Background()); err != nil {
		t.Fatalf("nil throttle should not fail: %v", err)
	}
}
