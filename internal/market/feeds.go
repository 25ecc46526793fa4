package market

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/poller"
)

// CardKey selects one price-card feed.
type CardKey struct {
	Asset string
	Days  int
}

// Feeds holds the shared pollers every view subscribes to.
type Feeds struct {
	Prices  *poller.Poller[map[string]decimal.Decimal]
	Cards   *poller.Group[CardKey, []model.MarketSnapshot]
	Trading *poller.Poller[[]model.MarketSnapshot]
	Chart   *poller.Poller[[]WalkPoint]
}

// NewFeeds wires the standard intervals to client. walk may be nil.
func NewFeeds(client *Client, walk *RandomWalk, logger *slog.Logger) *Feeds {
	if walk == nil {
		walk = NewRandomWalk(nil)
	}
	ids := TrackedIDs()

	return &Feeds{
		Prices: poller.New(poller.Config{Name: "portfolio-prices", Interval: poller.PortfolioInterval},
			func(ctx context.Context) (map[string]decimal.Decimal, error) {
				prices, err := client.SimplePrices(ctx, ids)
				if err != nil {
					return nil, err
				}
				return PriceMap(prices), nil
			}, logger),

		Cards: poller.NewGroup(func(key CardKey) (poller.Config, poller.FetchFunc[[]model.MarketSnapshot]) {
			cfg := poller.Config{
				Name:     fmt.Sprintf("cards-%s-%dd", key.Asset, key.Days),
				Interval: poller.DashboardInterval,
			}
			return cfg, func(ctx context.Context) ([]model.MarketSnapshot, error) {
				return client.Cards(ctx, key.Asset, key.Days)
			}
		}, logger),

		Trading: poller.New(poller.Config{Name: "trading-markets", Interval: poller.TradingInterval},
			func(ctx context.Context) ([]model.MarketSnapshot, error) {
				return client.Markets(ctx, ids, false)
			}, logger),

		Chart: poller.New(poller.Config{Name: "mock-chart", Interval: poller.ChartInterval}, walk.Fetch, logger),
	}
}

// Stop ends every feed.
func (f *Feeds) Stop() {
	f.Prices.Stop()
	f.Cards.Stop()
	f.Trading.Stop()
	f.Chart.Stop()
}
