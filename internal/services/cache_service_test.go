package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusride/pkg/cache"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	type point struct {
		X, Y int
	}
	if err := c.Set(ctx, "p", point{1, 2}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got point
	if err := c.Get(ctx, "p", &got); err != nil || got != (point{1, 2}) {
		t.Fatalf("get = %+v (%v)", got, err)
	}

	if err := c.Delete(ctx, "p", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Get(ctx, "p", &got); !errors.Is(err, cache.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiryAndSetNX(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ok, err := c.SetNX(ctx, "lock", "a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetNX = %v (%v)", ok, err)
	}
	if ok, _ := c.SetNX(ctx, "lock", "b", time.Minute); ok {
		t.Fatal("second SetNX should not win while the key is live")
	}

	now = now.Add(2 * time.Minute)
	if exists, _ := c.Exists(ctx, "lock"); exists {
		t.Fatal("expected key to expire")
	}
	if ok, _ := c.SetNX(ctx, "lock", "c", time.Minute); !ok {
		t.Fatal("SetNX should succeed after expiry")
	}

	var v string
	if err := c.Get(ctx, "lock", &v); err != nil || v != "c" {
		t.Fatalf("expected value c, got %q (%v)", v, err)
	}
}
