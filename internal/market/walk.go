package market

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
)

// WalkPoint is one sample of the mock BTC/USD chart.
type WalkPoint struct {
	Minute int   `json:"minute"`
	Price  int64 `json:"price"`
}

const (
	walkLength = 50
	walkStart  = 45000
	walkStep   = 500
	walkDrift  = 0.48
)

// RandomWalk is the demo price chart shown on the trading view. It is not
// market data: each step moves the last price by (r-0.48)*500 for uniform r,
// so it trends slightly upward.
type RandomWalk struct {
	mu      sync.Mutex
	rng     *rand.Rand
	points  []WalkPoint
	started bool
}

// NewRandomWalk seeds a 50-point series starting from 45000. A nil rng uses
// a randomly seeded generator.
func NewRandomWalk(rng *rand.Rand) *RandomWalk {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	w := &RandomWalk{rng: rng, points: make([]WalkPoint, 0, walkLength)}

	price := float64(walkStart)
	for i := range walkLength {
		price += w.delta()
		w.points = append(w.points, WalkPoint{Minute: i, Price: int64(math.Round(price))})
	}
	return w
}

func (w *RandomWalk) delta() float64 {
	return (w.rng.Float64() - walkDrift) * walkStep
}

// Points returns a copy of the current window.
func (w *RandomWalk) Points() []WalkPoint {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]WalkPoint(nil), w.points...)
}

// Advance drops the oldest point and appends a new one.
func (w *RandomWalk) Advance() []WalkPoint {
	w.mu.Lock()
	defer w.mu.Unlock()

	last := w.points[len(w.points)-1]
	next := WalkPoint{
		Minute: last.Minute + 1,
		Price:  int64(math.Round(float64(last.Price) + w.delta())),
	}
	w.points = append(w.points[1:], next)
	return append([]WalkPoint(nil), w.points...)
}

// Fetch adapts the walk to a poller: the first call shows the seeded window,
// every later call advances it.
func (w *RandomWalk) Fetch(_ context.Context) ([]WalkPoint, error) {
	w.mu.Lock()
	first := !w.started
	w.started = true
	w.mu.Unlock()

	if first {
		return w.Points(), nil
	}
	return w.Advance(), nil
}
