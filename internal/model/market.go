package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MarketSnapshot is the per-asset record returned by the market data provider.
// It is replaced wholesale on every poll; only ChartPrices is attached locally.
type MarketSnapshot struct {
	ID                       string          `json:"id"`
	Symbol                   string          `json:"symbol"`
	Name                     string          `json:"name"`
	CurrentPrice             decimal.Decimal `json:"current_price"`
	PriceChangePercentage24h float64         `json:"price_change_percentage_24h"`
	MarketCap                float64         `json:"market_cap,omitempty"`
	TotalVolume              float64         `json:"total_volume,omitempty"`
	Sparkline                *Sparkline      `json:"sparkline_in_7d,omitempty"`
	ChartPrices              []PricePoint    `json:"chart_prices,omitempty"`
}

// Sparkline is the provider's 7-day price series.
type Sparkline struct {
	Price []float64 `json:"price"`
}

// PricePoint is one sample of a historical price series.
// On the wire it is a two-element array: [unix milliseconds, price].
type PricePoint struct {
	Time  time.Time
	Price float64
}

func (p *PricePoint) UnmarshalJSON(b []byte) error {
	var pair []float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("model: decoding price point: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("model: price point has %d elements, want 2", len(pair))
	}
	p.Time = time.UnixMilli(int64(pair[0])).UTC()
	p.Price = pair[1]
	return nil
}

func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{float64(p.Time.UnixMilli()), p.Price})
}
