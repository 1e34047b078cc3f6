package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. It backs tests and single-node
// deployments where Redis is not worth running.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]entry
}

type entry struct {
	val []byte
	exp time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m: make(map[string]entry),
	}
}

func (c *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	now := time.Now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, ErrMiss
	}

	return e.val, nil
}

func (c *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.m[key] = entry{val: val, exp: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryStore) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryStore) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()

	if !ok {
		return 0, false, nil
	}

	remaining := time.Until(e.exp)
	if remaining <= 0 {
		return 0, false, nil
	}

	return remaining, true, nil
}
