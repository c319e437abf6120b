package cache

import (
	"context"
	"testing"
	"time"
)

// memStore is an in-memory CounterStore recording the TTL of the last write
// per key. TTL expiry itself is the store's job in production, so the fake
// does not age anything out.
type memStore struct {
	counters map[string]Counter
	ttls     map[string]time.Duration
	puts     int
}

func newMemStore() *memStore {
	return &memStore{
		counters: make(map[string]Counter),
		ttls:     make(map[string]time.Duration),
	}
}

func (m *memStore) Get(ctx context.Context, key string) (*Counter, error) {
	c, ok := m.counters[key]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memStore) Put(ctx context.Context, key string, c Counter, ttl time.Duration) error {
	m.counters[key] = c
	m.ttls[key] = ttl
	m.puts++
	return nil
}

func TestCheckAndIncrementFirstRequest(t *testing.T) {
	store := newMemStore()

	result, err := CheckAndIncrement(context.Background(), store, "k", 5, 3600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Limited {
		t.Fatal("first request must not be limited")
	}

	c := store.counters["k"]
	if c.Count != 1 {
		t.Errorf("count = %d, want 1", c.Count)
	}
	if got, want := store.ttls["k"], 3600*time.Second; got != want {
		t.Errorf("first write TTL = %v, want %v", got, want)
	}
}

func TestCheckAndIncrementReArmsRemainingTTL(t *testing.T) {
	store := newMemStore()
	now := time.Now().Unix()

	// Counter created half an hour ago in an hourly window.
	store.counters["k"] = Counter{Count: 2, FirstSeen: now - 1800}

	result, err := CheckAndIncrement(context.Background(), store, "k", 5, 3600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Limited {
		t.Fatal("request under limit must not be limited")
	}

	if c := store.counters["k"]; c.Count != 3 {
		t.Errorf("count = %d, want 3", c.Count)
	}

	// TTL re-armed to the remaining window, not the full one.
	ttl := store.ttls["k"]
	if ttl > 1801*time.Second || ttl < 1798*time.Second {
		t.Errorf("re-armed TTL = %v, want about 1800s", ttl)
	}
}

func TestCheckAndIncrementOverLimit(t *testing.T) {
	store := newMemStore()
	now := time.Now().Unix()

	store.counters["k"] = Counter{Count: 5, FirstSeen: now - 1800}

	result, err := CheckAndIncrement(context.Background(), store, "k", 5, 3600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Limited {
		t.Fatal("6th request in the window must be limited")
	}
	if result.RetryAfter < 1798 || result.RetryAfter > 1800 {
		t.Errorf("retryAfter = %d, want about 1800", result.RetryAfter)
	}

	// A breached counter is not incremented.
	if c := store.counters["k"]; c.Count != 5 {
		t.Errorf("count after breach = %d, want 5", c.Count)
	}
	if store.puts != 0 {
		t.Errorf("puts after breach = %d, want 0", store.puts)
	}
}

func TestCheckAndIncrementRetryAfterFloor(t *testing.T) {
	store := newMemStore()
	now := time.Now().Unix()

	// Window effectively over but the key has not expired yet.
	store.counters["k"] = Counter{Count: 5, FirstSeen: now - 3700}

	result, err := CheckAndIncrement(context.Background(), store, "k", 5, 3600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Limited {
		t.Fatal("expected limited")
	}
	if result.RetryAfter != 1 {
		t.Errorf("retryAfter = %d, want floor of 1", result.RetryAfter)
	}
}

func TestCounterKeys(t *testing.T) {
	// Key layout is part of the operational contract (dashboards, debugging).
	if got, want := IPKey("1.2.3.4"), "qinv:rate:ip:1.2.3.4:hourly"; got != want {
		t.Errorf("IPKey = %q, want %q", got, want)
	}
	if got, want := PhoneKey("abc123"), "qinv:rate:phone:abc123:daily"; got != want {
		t.Errorf("PhoneKey = %q, want %q", got, want)
	}
	if got, want := CodeIPKey("ABCDefgh", "1.2.3"), "qinv:rate:code:ABCDefgh:ip:1.2.3:daily"; got != want {
		t.Errorf("CodeIPKey = %q, want %q", got, want)
	}
}
