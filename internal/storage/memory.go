package storage

import (
	"context"
	"sync"
)

// MemoryOpener is an in-memory Opener, used by tests and as the development
// default when no Redis/Postgres URL is configured.
type MemoryOpener struct {
	mu          sync.Mutex
	collections map[string]*memoryCollection
}

// NewMemoryOpener constructs an empty in-memory storage backend.
func NewMemoryOpener() *MemoryOpener {
	return &MemoryOpener{collections: make(map[string]*memoryCollection)}
}

func (o *MemoryOpener) Collection(ctx context.Context, name string) (Collection, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.collections[name]
	if !ok {
		c = &memoryCollection{data: make(map[string][]byte)}
		o.collections[name] = c
	}
	return c, nil
}

func (o *MemoryOpener) Close() error { return nil }

type memoryCollection struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func (c *memoryCollection) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (c *memoryCollection) Put(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	c.data[key] = cp
	return nil
}

func (c *memoryCollection) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCollection) Keys(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ Opener = (*MemoryOpener)(nil)
