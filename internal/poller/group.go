package poller

import (
	"context"
	"log/slog"
	"sync"
)

// Group keeps one Poller per key, e.g. one chart feed per (asset, range).
// Pollers are created on first use and live until Stop.
type Group[K comparable, T any] struct {
	build  func(key K) (Config, FetchFunc[T])
	logger *slog.Logger

	mu      sync.Mutex
	pollers map[K]*Poller[T]
}

func NewGroup[K comparable, T any](build func(key K) (Config, FetchFunc[T]), logger *slog.Logger) *Group[K, T] {
	return &Group[K, T]{
		build:   build,
		logger:  logger,
		pollers: make(map[K]*Poller[T]),
	}
}

// Get returns the poller for key, creating it if needed.
func (g *Group[K, T]) Get(key K) *Poller[T] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p, ok := g.pollers[key]; ok {
		return p
	}
	cfg, fetch := g.build(key)
	p := New(cfg, fetch, g.logger)
	g.pollers[key] = p
	return p
}

// Subscribe is shorthand for Get(key).Subscribe(ctx).
func (g *Group[K, T]) Subscribe(ctx context.Context, key K) (<-chan T, func()) {
	return g.Get(key).Subscribe(ctx)
}

// Len reports how many keyed pollers exist.
func (g *Group[K, T]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pollers)
}

// Stop stops every poller in the group.
func (g *Group[K, T]) Stop() {
	g.mu.Lock()
	pollers := make([]*Poller[T], 0, len(g.pollers))
	for _, p := range g.pollers {
		pollers = append(pollers, p)
	}
	g.pollers = make(map[K]*Poller[T])
	g.mu.Unlock()

	for _, p := range pollers {
		p.Stop()
	}
}
