package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/repository"
)

var _ repository.WalletRepository = (*WalletDB)(nil)

// WalletDB stores per-symbol balances as decimal strings.
type WalletDB struct {
	conn *sql.DB
}

// Get returns the wallet of userID. A user without balances has an empty
// wallet, not a missing one.
func (w *WalletDB) Get(ctx context.Context, userID string) (*model.Wallet, error) {
	rows, err := w.conn.QueryContext(ctx,
		`SELECT symbol, amount FROM wallet_balances WHERE user_id = ? ORDER BY symbol`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading wallet %s: %w", userID, err)
	}
	defer rows.Close()

	wallet := &model.Wallet{UserID: userID, Balances: map[string]decimal.Decimal{}}
	for rows.Next() {
		var symbol, amount string
		if err := rows.Scan(&symbol, &amount); err != nil {
			return nil, fmt.Errorf("sqlite: scanning balance: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("sqlite: corrupt balance %s/%s: %w", userID, symbol, err)
		}
		wallet.Balances[symbol] = d
	}
	return wallet, rows.Err()
}

// Adjust applies deltas inside one transaction and records tx when non-nil.
func (w *WalletDB) Adjust(ctx context.Context, userID string, deltas map[string]decimal.Decimal, rec *model.Transaction) error {
	tx, err := w.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning wallet tx: %w", err)
	}
	defer tx.Rollback()

	for symbol, delta := range deltas {
		var current string
		err := tx.QueryRowContext(ctx,
			`SELECT amount FROM wallet_balances WHERE user_id = ? AND symbol = ?`,
			userID, symbol).Scan(&current)
		balance := decimal.Zero
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("sqlite: reading balance %s: %w", symbol, err)
		default:
			if balance, err = decimal.NewFromString(current); err != nil {
				return fmt.Errorf("sqlite: corrupt balance %s: %w", symbol, err)
			}
		}

		next := balance.Add(delta)
		if next.IsNegative() {
			return apperror.ValidationFailed("amount", fmt.Sprintf("insufficient %s balance", symbol))
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO wallet_balances (user_id, symbol, amount) VALUES (?, ?, ?)
			 ON CONFLICT(user_id, symbol) DO UPDATE SET amount = excluded.amount`,
			userID, symbol, next.String())
		if err != nil {
			return fmt.Errorf("sqlite: writing balance %s: %w", symbol, err)
		}
	}

	if rec != nil {
		rec.ID = xid.New().String()
		rec.UserID = userID
		rec.CreatedAt = time.Now().UTC()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO transactions (id, user_id, symbol, type, amount, price, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.UserID, rec.Symbol, rec.Type, rec.Amount.String(), rec.Price.String(), rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("sqlite: recording transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing wallet tx: %w", err)
	}
	return nil
}

// Transactions lists a user's history newest first.
func (w *WalletDB) Transactions(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Transaction, error) {
	rows, err := w.conn.QueryContext(ctx,
		`SELECT id, user_id, symbol, type, amount, price, created_at
		 FROM transactions WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		userID, clampLimit(opts.Limit), max(opts.Offset, 0))
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing transactions: %w", err)
	}
	defer rows.Close()

	out := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		var amount, price string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Symbol, &t.Type, &amount, &price, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning transaction: %w", err)
		}
		t.Amount, _ = decimal.NewFromString(amount)
		t.Price, _ = decimal.NewFromString(price)
		out = append(out, t)
	}
	return out, rows.Err()
}
