package cache

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/tenancy/id"
)

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))
	u := id.NewUserID()

	if _, ok := c.GetMemberships(ctx, u); ok {
		t.Fatal("expected cache miss")
	}

	c.SetMemberships(ctx, u, []string{"acme", "beta"})
	got, ok := c.GetMemberships(ctx, u)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0] != "acme" {
		t.Fatalf("unexpected memberships %v", got)
	}
}

func TestMemoryCacheEmptyIsHit(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	u := id.NewUserID()

	c.SetMemberships(ctx, u, nil)
	got, ok := c.GetMemberships(ctx, u)
	if !ok || got == nil || len(got) != 0 {
		t.Fatalf("expected cached empty list, got %v, %v", got, ok)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))
	now := time.Now()
	c.now = func() time.Time { return now }
	u := id.NewUserID()

	c.SetMemberships(ctx, u, []string{"acme"})
	now = now.Add(2 * time.Minute)

	if _, ok := c.GetMemberships(ctx, u); ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
	if c.Len() != 0 {
		t.Fatal("expired entry should be dropped on read")
	}
}

func TestMemoryCacheInvalidateUser(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	u1, u2 := id.NewUserID(), id.NewUserID()

	c.SetMemberships(ctx, u1, []string{"acme"})
	c.SetMemberships(ctx, u2, []string{"acme"})
	c.InvalidateUser(ctx, u1)

	if _, ok := c.GetMemberships(ctx, u1); ok {
		t.Fatal("expected u1 invalidated")
	}
	if _, ok := c.GetMemberships(ctx, u2); !ok {
		t.Fatal("expected u2 still cached")
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(3))

	for range 10 {
		c.SetMemberships(ctx, id.NewUserID(), []string{"acme"})
	}
	if c.Len() > 3 {
		t.Fatalf("expected at most 3 entries, got %d", c.Len())
	}
}

func TestMemoryCacheReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	u := id.NewUserID()

	in := []string{"acme"}
	c.SetMemberships(ctx, u, in)
	in[0] = "mutated"

	got, _ := c.GetMemberships(ctx, u)
	got[0] = "mutated too"

	again, _ := c.GetMemberships(ctx, u)
	if again[0] != "acme" {
		t.Fatalf("cache shares memory with callers: %v", again)
	}
}
