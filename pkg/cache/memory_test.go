package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(10)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got string
	if err := c.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "v" {
		t.Fatalf("got %q, want %q", got, "v")
	}
}

func TestMemoryCacheMissAndExpiry(t *testing.T) {
	c := NewMemoryCache(10)
	ctx := context.Background()

	var got string
	if err := c.Get(ctx, "absent", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}

	if err := c.Set(ctx, "k", "v", time.Nanosecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := c.Get(ctx, "k", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss after expiry", err)
	}
}

func TestMemoryCacheEncodesStructs(t *testing.T) {
	type entry struct {
		Volume string `json:"volume"`
	}
	c := NewMemoryCache(10)
	ctx := context.Background()

	if err := c.Set(ctx, "volume:BTCUSDT", entry{Volume: "15000000000"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got entry
	if err := c.Get(ctx, "volume:BTCUSDT", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Volume != "15000000000" {
		t.Fatalf("volume = %q", got.Volume)
	}
}

func TestMemoryCacheBoundedEviction(t *testing.T) {
	c := NewMemoryCache(2)
	ctx := context.Background()

	_ = c.Set(ctx, "a", "1", time.Minute)
	_ = c.Set(ctx, "b", "2", time.Hour)
	_ = c.Set(ctx, "c", "3", time.Hour)

	if len(c.data) != 2 {
		t.Fatalf("size = %d, want 2", len(c.data))
	}
}

func TestLayeredCacheBackfillsLocal(t *testing.T) {
	local := NewMemoryCache(10)
	remote := NewMemoryCache(10)
	layered := NewLayeredCache(local, remote)
	ctx := context.Background()

	// Simulate a value only the remote layer has.
	if err := remote.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got string
	if err := layered.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "v" {
		t.Fatalf("got %q", got)
	}
	if err := local.Get(ctx, "k", &got); err != nil {
		t.Fatalf("local backfill missing: %v", err)
	}
}
