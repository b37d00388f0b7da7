package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRUCacheGetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	c.Set("2025-08", "august")
	if v, ok := c.Get("2025-08"); !ok || v != "august" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	if _, ok := c.Get("2025-09"); ok {
		t.Fatal("unexpected hit for missing key")
	}

	c.Set("2025-08", "august v2")
	if v, _ := c.Get("2025-08"); v != "august v2" {
		t.Fatalf("overwrite lost: %q", v)
	}
	if c.Size() != 1 {
		t.Fatalf("Size = %d", c.Size())
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a") // a is now most recent
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used entry should be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("recently used entry evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("Size = %d", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)

	c.Set("a", "1")
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("b", "2")

	clock.t = clock.t.Add(45 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry returned")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("live entry missing")
	}

	clock.t = clock.t.Add(time.Minute)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Fatalf("Size = %d", c.Size())
	}
}

func TestLRUCacheDeleteAndClear(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Delete("a")
	c.Delete("missing")
	if _, ok := c.Get("a"); ok || c.Size() != 1 {
		t.Fatalf("Delete failed, size %d", c.Size())
	}

	c.Clear()
	if c.Size() != 0 {
		t.Fatalf("Clear left %d entries", c.Size())
	}
	c.Set("c", "3")
	if _, ok := c.Get("c"); !ok {
		t.Fatal("cache unusable after Clear")
	}
}

func TestManagerSweep(t *testing.T) {
	a, clock := newTestCache(10, time.Second)
	b, _ := newTestCache(10, time.Hour)
	b.now = clock.Now

	a.Set("x", "1")
	b.Set("y", "2")
	clock.t = clock.t.Add(time.Minute)

	m := NewManager()
	m.Register(a)
	m.Register(b)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep = %d, want 1", n)
	}

	m.StartCleanup(context.Background(), time.Hour)
	m.Stop()
	m.Stop()
}
