package model

import (
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Wallet maps asset symbols (BTC, ETH, USDT, ...) to held amounts.
// The client treats it as read-only.
type Wallet struct {
	UserID   string                     `json:"userId"`
	Balances map[string]decimal.Decimal `json:"balances"`
}

// Value multiplies every balance by its spot price. Symbols without a price
// contribute zero.
func (w *Wallet) Value(prices map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	if w == nil {
		return total
	}
	for symbol, amount := range w.Balances {
		price, ok := prices[symbol]
		if !ok {
			continue
		}
		total = total.Add(amount.Mul(price))
	}
	return total
}

// Symbols returns the held symbols in alphabetical order.
func (w *Wallet) Symbols() []string {
	if w == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(w.Balances))
}

// TradeType is the side of a trade.
type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

// TradeRequest is the body of POST /wallet/trade.
type TradeRequest struct {
	UserID string          `json:"userId"`
	Symbol string          `json:"symbol"`
	Type   TradeType       `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Price  decimal.Decimal `json:"price"`
}

// AirdropRequest is the body of PATCH /wallet/balance.
type AirdropRequest struct {
	UserID string          `json:"userId"`
	Symbol string          `json:"symbol"`
	Amount decimal.Decimal `json:"amount"`
}

// Transaction is one settled trade or airdrop.
type Transaction struct {
	ID        string          `json:"id"     validate:"required"`
	UserID    string          `json:"userId"`
	Symbol    string          `json:"symbol"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"createdAt,omitzero"`
}
