package cache

import (
	"context"
	"encoding/json"
	"time"

	ri "github.com/redis/go-redis/v9"

	"QuestsInvite/storage/redis"
)

// Rate-limit counters, one independent counter per (dimension, key, window):
//
//   qinv:rate:ip:{clientIP}:hourly        limit 5   TTL 3600
//   qinv:rate:phone:{sha256}:daily        limit 3   TTL 86400
//   qinv:rate:code:{shareCode}:ip:{block}:daily  limit 20  TTL 86400
//
// Counters are a read-then-write JSON record; expiry rides on the store's own
// TTL. Concurrent increments on the same key can race — approximate counting
// is fine for abuse deterrence.

const rate = "rate"

// Counter is the stored record for one key.
type Counter struct {
	Count     int   `json:"count"`
	FirstSeen int64 `json:"firstSeen"` // unix seconds
}

// Result of a single dimension check.
type Result struct {
	Limited    bool
	RetryAfter int // seconds until the window resets, floored at 1
}

// CounterStore is the TTL-capable key-value surface the limiter needs.
// Production uses Redis; tests swap in an in-memory fake.
type CounterStore interface {
	// Get returns the counter under key, or nil when absent.
	Get(ctx context.Context, key string) (*Counter, error)
	// Put writes the counter under key with the given TTL.
	Put(ctx context.Context, key string, c Counter, ttl time.Duration) error
}

type redisStore struct{}

// NewRedisStore returns the Redis-backed CounterStore. Call only after
// storage init succeeded.
func NewRedisStore() CounterStore {
	return redisStore{}
}

func (redisStore) Get(ctx context.Context, key string) (*Counter, error) {
	raw, err := redis.Client().Get(ctx, key).Result()
	if err == ri.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var c Counter
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		// A corrupt record is treated as absent so the window restarts.
		return nil, nil
	}
	return &c, nil
}

func (redisStore) Put(ctx context.Context, key string, c Counter, ttl time.Duration) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return redis.Client().Set(ctx, key, raw, ttl).Err()
}

// CheckAndIncrement applies the window to one key. The counter is only
// incremented when not already over limit; increments re-arm the TTL to the
// remaining window time, never extending it past the original expiry.
func CheckAndIncrement(ctx context.Context, store CounterStore, key string, limit, windowSeconds int) (Result, error) {
	now := time.Now().Unix()

	existing, err := store.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}

	if existing != nil {
		if existing.Count >= limit {
			retryAfter := int(int64(windowSeconds) - (now - existing.FirstSeen))
			if retryAfter < 1 {
				retryAfter = 1
			}
			return Result{Limited: true, RetryAfter: retryAfter}, nil
		}

		existing.Count++
		remaining := int64(windowSeconds) - (now - existing.FirstSeen)
		if remaining < 1 {
			remaining = 1
		}
		if err := store.Put(ctx, key, *existing, time.Duration(remaining)*time.Second); err != nil {
			return Result{}, err
		}
		return Result{}, nil
	}

	first := Counter{Count: 1, FirstSeen: now}
	if err := store.Put(ctx, key, first, time.Duration(windowSeconds)*time.Second); err != nil {
		return Result{}, err
	}
	return Result{}, nil
}

// IPKey is the hourly per-address counter key.
func IPKey(clientIP string) string {
	return redis.Key(rate, "ip", clientIP, "hourly")
}

// PhoneKey is the daily per-phone counter key; phoneHash is the SHA-256 of
// the normalized number.
func PhoneKey(phoneHash string) string {
	return redis.Key(rate, "phone", phoneHash, "daily")
}

// CodeIPKey bounds how many numbers one network neighborhood can throw at a
// single share code per day.
func CodeIPKey(shareCode, ipBlock string) string {
	return redis.Key(rate, "code", shareCode, "ip", ipBlock, "daily")
}
