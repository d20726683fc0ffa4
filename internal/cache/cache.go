package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Store is a byte-valued key/value cache with a fixed per-store TTL.
// Counters written by Incr never expire and read back through Get as decimal text.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Incr(ctx context.Context, key string) (int64, error)
}

// Memory is the in-process Store used when no Redis is configured.
type Memory struct {
	mu        sync.RWMutex
	ttl       time.Duration
	m         map[string]entry
	now       func() time.Time
	lastSweep time.Time
}

// a zero exp never expires
type entry struct {
	val []byte
	exp time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.exp.IsZero() && now.After(e.exp)
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Memory{
		ttl: ttl,
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if e.expired(now) {
		c.mu.Lock()
		// re-check: a concurrent Set may have refreshed the entry
		if cur, ok := c.m[key]; ok && cur.expired(now) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	return e.val, true, nil
}

func (c *Memory) Set(_ context.Context, key string, val []byte) error {
	cp := make([]byte, len(val))
	copy(cp, val)

	now := c.now()

	c.mu.Lock()
	c.m[key] = entry{val: cp, exp: now.Add(c.ttl)}
	c.sweepLocked(now)
	c.mu.Unlock()
	return nil
}

func (c *Memory) Incr(_ context.Context, key string) (int64, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	var n int64
	if e, ok := c.m[key]; ok && !e.expired(now) {
		v, err := strconv.ParseInt(string(e.val), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("incr %q: value is not an integer", key)
		}
		n = v
	}

	n++
	c.m[key] = entry{val: []byte(strconv.FormatInt(n, 10))}
	return n, nil
}

// sweepLocked drops expired entries at most once per TTL. Keys that are never
// read again would otherwise stay in the map forever.
func (c *Memory) sweepLocked(now time.Time) {
	if now.Sub(c.lastSweep) < c.ttl {
		return
	}
	c.lastSweep = now

	for k, e := range c.m {
		if e.expired(now) {
			delete(c.m, k)
		}
	}
}
