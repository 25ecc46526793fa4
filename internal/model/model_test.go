package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletValue(t *testing.T) {
	w := &Wallet{Balances: map[string]decimal.Decimal{
		"BTC":  decimal.RequireFromString("0.5"),
		"USDT": decimal.RequireFromString("100"),
		"DOGE": decimal.RequireFromString("1000"), // no price known
	}}
	prices := map[string]decimal.Decimal{
		"BTC":  decimal.RequireFromString("60000"),
		"USDT": decimal.NewFromInt(1),
	}

	got := w.Value(prices)
	assert.True(t, got.Equal(decimal.RequireFromString("30100")), "got %s", got)
}

func TestWalletValue_NilWallet(t *testing.T) {
	var w *Wallet
	assert.True(t, w.Value(nil).IsZero())
}

func TestWalletSymbols(t *testing.T) {
	w := &Wallet{Balances: map[string]decimal.Decimal{
		"USDT": decimal.NewFromInt(1),
		"BTC":  decimal.NewFromInt(1),
		"ETH":  decimal.NewFromInt(1),
	}}
	assert.Equal(t, []string{"BTC", "ETH", "USDT"}, w.Symbols())

	var empty *Wallet
	assert.Nil(t, empty.Symbols())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleModerator.Valid())
	assert.False(t, Role("root").Valid())
}

func TestPricePointJSON(t *testing.T) {
	var points []PricePoint
	require.NoError(t, json.Unmarshal([]byte(`[[1700000000000, 42000.5],[1700000060000, 42010]]`), &points))
	require.Len(t, points, 2)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), points[0].Time)
	assert.Equal(t, 42010.0, points[1].Price)

	var bad PricePoint
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &bad))
}

func TestTodoMembership(t *testing.T) {
	todo := &Todo{AssignedTo: []string{"u1", "u2"}, CompletedBy: []string{"u2"}}
	assert.True(t, todo.IsAssignedTo("u1"))
	assert.False(t, todo.IsCompletedBy("u1"))
	assert.True(t, todo.IsCompletedBy("u2"))
}
