package cache

import (
	"context"
	"testing"
	"time"
)

func TestLocalCacheRoundTrip(t *testing.T) {
	c := NewLocalCache(time.Minute)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "u1", "hi"); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	c.Set(ctx, "u1", "hi", "hello")
	got, ok := c.Get(ctx, "u1", "hi")
	if !ok || got != "hello" {
		t.Errorf("Get = (%q, %v), want (hello, true)", got, ok)
	}

	// Same message from another user is a different entry.
	if _, ok := c.Get(ctx, "u2", "hi"); ok {
		t.Error("cache entries must be scoped per user")
	}
}

func TestLocalCacheExpiry(t *testing.T) {
	c := NewLocalCache(10 * time.Millisecond)
	ctx := context.Background()

	c.Set(ctx, "u1", "hi", "hello")
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get(ctx, "u1", "hi"); ok {
		t.Error("expired entry must miss")
	}
}
