package view

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sakif/trading-dashboard/internal/model"
)

// Quote is the trading panel's headline for the selected pair.
type Quote struct {
	Pair      string
	Price     decimal.Decimal
	Change24h float64
}

// MarketFeed is a subscription to the 30s trading markets poller.
type MarketFeed interface {
	Subscribe(ctx context.Context) (<-chan []model.MarketSnapshot, func())
	Latest() ([]model.MarketSnapshot, bool)
}

// TradingDesk tracks the selected pair over the shared market feed. Order
// entry is local-only and not modeled here.
type TradingDesk struct {
	feed     MarketFeed
	selected string
}

func NewTradingDesk(feed MarketFeed) *TradingDesk {
	return &TradingDesk{feed: feed, selected: "bitcoin"}
}

// Select switches the pair by provider id ("ethereum") or symbol ("eth").
func (d *TradingDesk) Select(asset string) {
	d.selected = strings.ToLower(strings.TrimSpace(asset))
}

// Quote picks the selected asset out of markets.
func (d *TradingDesk) Quote(markets []model.MarketSnapshot) (Quote, bool) {
	for _, m := range markets {
		if m.ID == d.selected || strings.EqualFold(m.Symbol, d.selected) {
			return Quote{
				Pair:      strings.ToUpper(m.Symbol) + "/USDT",
				Price:     m.CurrentPrice,
				Change24h: m.PriceChangePercentage24h,
			}, true
		}
	}
	return Quote{}, false
}

// Watch streams quotes for the selected pair until ctx is done. Ticks that
// do not contain the pair are skipped.
func (d *TradingDesk) Watch(ctx context.Context) <-chan Quote {
	out := make(chan Quote)
	updates, unsubscribe := d.feed.Subscribe(ctx)
	go func() {
		defer close(out)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case markets, ok := <-updates:
				if !ok {
					return
				}
				q, found := d.Quote(markets)
				if !found {
					continue
				}
				select {
				case out <- q:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
