package cache

import (
	"context"
	"sync"
	"time"
)

// Cache memoizes a loader per key for ttl. Failed loads are not kept.
type Cache[T any] struct {
	m      sync.Map
	ttl    time.Duration
	loader func(ctx context.Context, key string) (T, error)
}

type entry[T any] struct {
	mx    sync.Mutex
	value T
	ts    time.Time
}

func NewWithTTL[T any](ttl time.Duration, loader func(ctx context.Context, key string) (T, error)) *Cache[T] {
	return &Cache[T]{
		m:      sync.Map{},
		ttl:    ttl,
		loader: loader,
	}
}

// Clean drops entries that are long expired.
func (c *Cache[T]) Clean() {
	c.m.Range(func(key, value any) bool {
		e := value.(*entry[T])

		if !e.mx.TryLock() {
			return true
		}

		defer e.mx.Unlock()

		if time.Since(e.ts) > c.ttl*10 {
			c.m.Delete(key)
		}

		return true
	})
}

// Load returns the cached value or calls the loader. Concurrent loads of one
// key wait for a single loader call.
func (c *Cache[T]) Load(ctx context.Context, key string) (T, error) {
	var e *entry[T]

	if v, ok := c.m.Load(key); ok {
		e = v.(*entry[T])
	} else {
		v1, _ := c.m.LoadOrStore(key, new(entry[T]))
		e = v1.(*entry[T])
	}

	e.mx.Lock()
	defer e.mx.Unlock()

	if !e.ts.IsZero() && time.Since(e.ts) <= c.ttl {
		return e.value, nil
	}

	v, err := c.loader(ctx, key)
	if err != nil {
		var zero T

		return zero, err
	}

	e.value = v
	e.ts = time.Now()

	return v, nil
}
