// Package poller implements shared, cancellable recurring fetches.
//
// ONE SOURCE, MANY SUBSCRIBERS:
// A Poller owns a single loop for one kind of data. Views subscribe to it
// instead of starting their own timers, so two views showing the same prices
// cause one upstream request per tick, not two.
//
//	first Subscribe  → loop starts, fetches immediately, then every Interval
//	each tick        → value replaces the previous one wholesale
//	failed tick      → logged, previous value stays, next tick on schedule
//	last unsubscribe → loop cancelled, in-flight fetch aborted via ctx
//
// Ticks run one after another in the loop goroutine, so a slow response can
// never land after (and overwrite) a newer one. A value whose fetch finishes
// after cancellation is dropped.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Standard refresh intervals.
const (
	PortfolioInterval = 60 * time.Second
	DashboardInterval = 60 * time.Second
	TradingInterval   = 30 * time.Second
	ChartInterval     = 2 * time.Second
)

// FetchFunc produces one value. It must honour ctx.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type Config struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single fetch. Zero or anything above Interval means
	// Interval.
	Timeout time.Duration
}

// Poller fans the latest value of one fetch loop out to subscribers.
type Poller[T any] struct {
	cfg    Config
	fetch  FetchFunc[T]
	logger *slog.Logger

	mu        sync.Mutex
	subs      map[int]*subscriber[T]
	nextID    int
	latest    T
	hasLatest bool
	lastErr   error
	cancel    context.CancelFunc
	done      chan struct{}
	stopped   bool
}

func New[T any](cfg Config, fetch FetchFunc[T], logger *slog.Logger) *Poller[T] {
	if cfg.Timeout <= 0 || cfg.Timeout > cfg.Interval {
		cfg.Timeout = cfg.Interval
	}
	return &Poller[T]{
		cfg:    cfg,
		fetch:  fetch,
		logger: logger.With(slog.String("poller", cfg.Name)),
		subs:   make(map[int]*subscriber[T]),
	}
}

// Subscribe registers a consumer. The channel holds at most one pending
// value; a newer value replaces an unread one. If a value is already known it
// is delivered at once. The subscription ends when unsubscribe is called or
// ctx is done, whichever comes first; the channel is then closed.
func (p *Poller[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	sub := &subscriber[T]{ch: make(chan T, 1), gone: make(chan struct{})}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		sub.close()
		return sub.ch, func() {}
	}
	id := p.nextID
	p.nextID++
	p.subs[id] = sub
	if p.hasLatest {
		sub.ch <- p.latest
	}
	if p.cancel == nil {
		p.startLocked()
	}
	p.mu.Unlock()

	unsubscribe := func() { p.remove(id) }
	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-sub.gone:
		}
	}()
	return sub.ch, unsubscribe
}

type subscriber[T any] struct {
	ch   chan T
	gone chan struct{}
}

func (s *subscriber[T]) close() {
	close(s.ch)
	close(s.gone)
}

func (p *Poller[T]) remove(id int) {
	p.mu.Lock()
	sub, ok := p.subs[id]
	if !ok {
		p.mu.Unlock()
		return
	}
	delete(p.subs, id)
	sub.close()

	var done chan struct{}
	if len(p.subs) == 0 && p.cancel != nil {
		p.cancel()
		p.cancel = nil
		done = p.done
	}
	p.mu.Unlock()

	if done != nil {
		<-done
		p.logger.Debug("poller idle")
	}
}

// Latest returns the most recent value and whether one has been fetched.
func (p *Poller[T]) Latest() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.hasLatest
}

// Err returns the error of the most recent tick, or nil if it succeeded.
func (p *Poller[T]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Subscribers reports how many consumers are attached.
func (p *Poller[T]) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Running reports whether the fetch loop is active.
func (p *Poller[T]) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Stop ends the loop for good and closes every subscriber channel.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	for id, sub := range p.subs {
		sub.close()
		delete(p.subs, id)
	}
	var done chan struct{}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
		done = p.done
	}
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (p *Poller[T]) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
	p.logger.Debug("poller started", slog.Duration("interval", p.cfg.Interval))
}

func (p *Poller[T]) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller[T]) tick(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	v, err := p.fetch(fetchCtx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		p.logger.Warn("poll failed, keeping previous value",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Re-check under the lock: a cancel that raced the fetch must win.
	if ctx.Err() != nil {
		return
	}
	p.latest = v
	p.hasLatest = true
	p.lastErr = nil
	for _, sub := range p.subs {
		select {
		case sub.ch <- v:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- v
		}
	}
}
