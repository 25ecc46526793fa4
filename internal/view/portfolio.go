package view

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/session"
)

// WalletReader fetches a wallet.
type WalletReader interface {
	GetWallet(ctx context.Context, token, userID string) (*model.Wallet, error)
}

// PriceSource returns the latest symbol → USD map, e.g. the 60s price feed.
type PriceSource func(ctx context.Context) (map[string]decimal.Decimal, error)

// Valuation is one portfolio refresh.
type Valuation struct {
	Wallet *model.Wallet
	Prices map[string]decimal.Decimal
	Total  decimal.Decimal
}

// PortfolioService computes the header's wallet value. Failures are logged
// only; the header keeps showing the previous value.
type PortfolioService struct {
	backend  WalletReader
	prices   PriceSource
	sessions *session.Manager
	logger   *slog.Logger
}

func NewPortfolioService(backend WalletReader, prices PriceSource, sessions *session.Manager, logger *slog.Logger) *PortfolioService {
	return &PortfolioService{backend: backend, prices: prices, sessions: sessions, logger: logger}
}

// Value returns Σ balance × spot price for the signed-in user.
func (s *PortfolioService) Value(ctx context.Context) (*Valuation, error) {
	sess, err := currentSession(s.sessions)
	if err != nil {
		return nil, err
	}

	wallet, err := s.backend.GetWallet(ctx, sess.Token, sess.UserID)
	if err != nil {
		s.logger.Warn("wallet fetch failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("view: loading wallet: %w", err)
	}
	prices, err := s.prices(ctx)
	if err != nil {
		s.logger.Warn("price fetch failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("view: loading prices: %w", err)
	}

	return &Valuation{
		Wallet: wallet,
		Prices: prices,
		Total:  wallet.Value(prices),
	}, nil
}
