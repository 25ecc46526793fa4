package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/repository"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWalletService_Get(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "bob", "BTC", 2)
	ctx := context.Background()

	w, err := f.wallet.Get(ctx, "bob", "bob")
	require.NoError(t, err)
	assert.True(t, w.Balances["BTC"].Equal(decimal.NewFromInt(2)))

	_, err = f.wallet.Get(ctx, "admin", "bob")
	assert.NoError(t, err)

	_, err = f.wallet.Get(ctx, "alice", "bob")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestWalletService_TradeBuyAndSell(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "bob", "USDT", 1000)
	ctx := context.Background()

	tx, err := f.wallet.Trade(ctx, "bob", model.TradeRequest{
		Symbol: "eth", Type: model.TradeBuy, Amount: dec("0.5"), Price: dec("1500"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "ETH", tx.Symbol)
	assert.Equal(t, "bob", tx.UserID, "empty userId trades for the caller")

	w, _ := f.wallets.Get(ctx, "bob")
	assert.True(t, w.Balances["ETH"].Equal(dec("0.5")))
	assert.True(t, w.Balances["USDT"].Equal(dec("250")))

	_, err = f.wallet.Trade(ctx, "bob", model.TradeRequest{
		Symbol: "ETH", Type: model.TradeSell, Amount: dec("0.25"), Price: dec("2000"),
	})
	require.NoError(t, err)

	w, _ = f.wallets.Get(ctx, "bob")
	assert.True(t, w.Balances["ETH"].Equal(dec("0.25")))
	assert.True(t, w.Balances["USDT"].Equal(dec("750")))

	txs, err := f.wallet.Transactions(ctx, "bob", "bob", 0)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestWalletService_TradeRejections(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "bob", "USDT", 100)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   string
		req     model.TradeRequest
		wantErr error
	}{
		{"insufficient USDT", "bob", model.TradeRequest{Symbol: "BTC", Type: model.TradeBuy, Amount: dec("1"), Price: dec("50000")}, apperror.ErrValidation},
		{"sell without holdings", "bob", model.TradeRequest{Symbol: "BTC", Type: model.TradeSell, Amount: dec("1"), Price: dec("1")}, apperror.ErrValidation},
		{"zero amount", "bob", model.TradeRequest{Symbol: "BTC", Type: model.TradeBuy, Amount: decimal.Zero, Price: dec("1")}, apperror.ErrValidation},
		{"negative price", "bob", model.TradeRequest{Symbol: "BTC", Type: model.TradeBuy, Amount: dec("1"), Price: dec("-1")}, apperror.ErrValidation},
		{"unknown side", "bob", model.TradeRequest{Symbol: "BTC", Type: "short", Amount: dec("1"), Price: dec("1")}, apperror.ErrValidation},
		{"quote against itself", "bob", model.TradeRequest{Symbol: "usdt", Type: model.TradeBuy, Amount: dec("1"), Price: dec("1")}, apperror.ErrValidation},
		{"someone else's wallet", "alice", model.TradeRequest{UserID: "bob", Symbol: "BTC", Type: model.TradeBuy, Amount: dec("1"), Price: dec("1")}, apperror.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.wallet.Trade(ctx, tt.actor, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	w, _ := f.wallets.Get(ctx, "bob")
	assert.True(t, w.Balances["USDT"].Equal(decimal.NewFromInt(100)), "rejected trades leave the wallet untouched")
}

func TestWalletService_Airdrop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.wallet.Airdrop(ctx, "admin", model.AirdropRequest{UserID: "bob", Symbol: "sol", Amount: dec("12.5")})
	require.NoError(t, err)
	assert.True(t, w.Balances["SOL"].Equal(dec("12.5")))

	txs, _ := f.wallets.Transactions(ctx, "bob", repository.ListOptions{})
	require.Len(t, txs, 1)
	assert.Equal(t, "airdrop", txs[0].Type)

	_, err = f.wallet.Airdrop(ctx, "bob", model.AirdropRequest{UserID: "bob", Symbol: "SOL", Amount: dec("1")})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.wallet.Airdrop(ctx, "admin", model.AirdropRequest{UserID: "bob", Symbol: "SOL", Amount: dec("0")})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.wallet.Airdrop(ctx, "admin", model.AirdropRequest{UserID: "nobody", Symbol: "SOL", Amount: dec("1")})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
