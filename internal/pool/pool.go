// Package pool provides a bounded free-list for reusable mutable objects.
package pool

import "sync"

// Pool retains at most limit released items. Items are reset before reuse;
// releases beyond the bound are discarded for the garbage collector.
type Pool[T any] struct {
	mu    sync.Mutex
	items []T
	limit int
	newFn func() T
	reset func(T)
}

func New[T any](limit int, newFn func() T, reset func(T)) *Pool[T] {
	if limit < 0 {
		limit = 0
	}
	return &Pool[T]{
		items: make([]T, 0, limit),
		limit: limit,
		newFn: newFn,
		reset: reset,
	}
}

func (p *Pool[T]) Get() T {
	p.mu.Lock()
	if n := len(p.items); n > 0 {
		item := p.items[n-1]
		var zero T
		p.items[n-1] = zero
		p.items = p.items[:n-1]
		p.mu.Unlock()
		return item
	}
	p.mu.Unlock()
	return p.newFn()
}

func (p *Pool[T]) Put(item T) {
	if p.reset != nil {
		p.reset(item)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.items) >= p.limit {
		return
	}
	p.items = append(p.items, item)
}

// Len reports the number of retained items.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}
