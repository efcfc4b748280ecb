package ratelimiter

import (
	"testing"
	"time"
)

func TestTokenBucket_BurstThenReject(t *testing.T) {
	// Negligible refill rate so only the initial burst is admitted.
	tb := NewTokenBucket(0.0001, 3)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("Request %d should have been admitted", i+1)
		}
	}

	if tb.Allow() {
		t.Error("Request beyond capacity should have been rejected")
	}
}

func TestTokenBucket_CapacityIsCeiling(t *testing.T) {
	tb := NewTokenBucket(1000, 1)
	tb.Allow()

	// Force a refill window, then confirm the bucket holds at most one token.
	tb.mutex.Lock()
	tb.tokens = 0
	tb.lastFill = tb.lastFill.Add(-10 * time.Second)
	tb.mutex.Unlock()

	if !tb.Allow() {
		t.Fatal("Expected a token after refill")
	}
	if tb.Allow() {
		t.Error("Bucket refilled beyond its capacity of 1")
	}
}
