package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ustudiopd/eventlive/pkg/guideline/compiler"
)

func TestKey(t *testing.T) {
	got := Key("gp-1", "h1", "rev-2", "abc")
	if got != "guideline:compiled:gp-1:h1:rev-2:abc" {
		t.Errorf("Key() = %q", got)
	}
	if Key("", "h1", "rev", "fp") == Key("", "h2", "rev", "fp") {
		t.Error("Key() ignores the content hash")
	}
}

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, 10)

	if _, ok, _ := c.Get(ctx, "missing"); ok {
		t.Error("Get() hit on empty cache")
	}

	want := &compiler.Compiled{FormID: "form-1"}
	if err := c.Set(ctx, "k", want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get() = _, %v, %v", ok, err)
	}
	if got != want {
		t.Errorf("Get() returned a different entry")
	}
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, 10)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", &compiler.Compiled{})
	now = now.Add(59 * time.Second)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Error("entry expired early")
	}
	now = now.Add(2 * time.Second)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("entry did not expire")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after expiry", c.Len())
	}
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	_ = c.Set(ctx, "a", &compiler.Compiled{})
	_ = c.Set(ctx, "b", &compiler.Compiled{})
	_, _, _ = c.Get(ctx, "a")
	_ = c.Set(ctx, "c", &compiler.Compiled{})

	for key, want := range map[string]bool{"a": true, "b": false, "c": true} {
		if _, ok, _ := c.Get(ctx, key); ok != want {
			t.Errorf("Get(%q) hit = %v, want %v", key, ok, want)
		}
	}
}

func TestMemoryCache_Close(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, 0)
	for i := 0; i < 3; i++ {
		_ = c.Set(ctx, fmt.Sprint(i), &compiler.Compiled{})
	}
	_ = c.Close()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Close, want 0", c.Len())
	}
}
