package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/repository"
)

// QuoteCurrency is the symbol every trade settles against.
const QuoteCurrency = "USDT"

// WalletService reads balances and applies trades and airdrops.
//
// TRADE SETTLEMENT:
// This is a development stub, not a ledger. A buy of amount A at price P
// adds A of the symbol and removes A×P USDT; a sell does the reverse. The
// repository applies both deltas in one SQL transaction and refuses any
// that would leave a negative balance.
type WalletService struct {
	access
	wallets repository.WalletRepository
	logger  *slog.Logger
}

func NewWalletService(users repository.UserRepository, wallets repository.WalletRepository, logger *slog.Logger) *WalletService {
	return &WalletService{access: access{users: users}, wallets: wallets, logger: logger}
}

func (s *WalletService) Get(ctx context.Context, actorID, userID string) (*model.Wallet, error) {
	if _, err := s.requireSelfOrAdmin(ctx, actorID, userID); err != nil {
		return nil, err
	}
	w, err := s.wallets.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/wallet: fetching %s: %w", userID, err)
	}
	return w, nil
}

func (s *WalletService) Transactions(ctx context.Context, actorID, userID string, limit int) ([]model.Transaction, error) {
	if _, err := s.requireSelfOrAdmin(ctx, actorID, userID); err != nil {
		return nil, err
	}
	txs, err := s.wallets.Transactions(ctx, userID, repository.ListOptions{Limit: normalizeLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("service/wallet: listing transactions of %s: %w", userID, err)
	}
	return txs, nil
}

// Trade settles a buy or sell against USDT. An empty UserID trades for the
// caller.
func (s *WalletService) Trade(ctx context.Context, actorID string, req model.TradeRequest) (*model.Transaction, error) {
	if req.UserID == "" {
		req.UserID = actorID
	}
	if _, err := s.requireSelfOrAdmin(ctx, actorID, req.UserID); err != nil {
		return nil, err
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	switch {
	case symbol == "":
		return nil, apperror.ValidationFailed("symbol", "Symbol is required")
	case symbol == QuoteCurrency:
		return nil, apperror.ValidationFailed("symbol", "Cannot trade USDT against itself")
	case req.Type != model.TradeBuy && req.Type != model.TradeSell:
		return nil, apperror.ValidationFailed("type", "Trade type must be buy or sell")
	case !req.Amount.IsPositive():
		return nil, apperror.ValidationFailed("amount", "Amount must be greater than zero")
	case !req.Price.IsPositive():
		return nil, apperror.ValidationFailed("price", "Price must be greater than zero")
	}

	cost := req.Amount.Mul(req.Price)
	deltas := map[string]decimal.Decimal{
		symbol:        req.Amount,
		QuoteCurrency: cost.Neg(),
	}
	if req.Type == model.TradeSell {
		deltas[symbol] = req.Amount.Neg()
		deltas[QuoteCurrency] = cost
	}

	tx := &model.Transaction{
		UserID: req.UserID,
		Symbol: symbol,
		Type:   string(req.Type),
		Amount: req.Amount,
		Price:  req.Price,
	}
	if err := s.wallets.Adjust(ctx, req.UserID, deltas, tx); err != nil {
		return nil, fmt.Errorf("service/wallet: settling %s %s for %s: %w", req.Type, symbol, req.UserID, err)
	}

	s.logger.Info("trade settled",
		slog.String("userID", req.UserID),
		slog.String("type", string(req.Type)),
		slog.String("symbol", symbol),
		slog.String("amount", req.Amount.String()),
		slog.String("price", req.Price.String()),
	)
	return tx, nil
}

// Airdrop credits a positive amount of any symbol to a user. Admin only.
func (s *WalletService) Airdrop(ctx context.Context, actorID string, req model.AirdropRequest) (*model.Wallet, error) {
	actor, err := s.requireAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, apperror.ValidationFailed("symbol", "Symbol is required")
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.ValidationFailed("amount", "Amount must be greater than zero")
	}
	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("service/wallet: airdrop target: %w", err)
	}

	tx := &model.Transaction{
		UserID: req.UserID,
		Symbol: symbol,
		Type:   "airdrop",
		Amount: req.Amount,
		Price:  decimal.Zero,
	}
	if err := s.wallets.Adjust(ctx, req.UserID, map[string]decimal.Decimal{symbol: req.Amount}, tx); err != nil {
		return nil, fmt.Errorf("service/wallet: airdropping %s to %s: %w", symbol, req.UserID, err)
	}

	s.logger.Info("airdrop",
		slog.String("by", actor.UID),
		slog.String("userID", req.UserID),
		slog.String("symbol", symbol),
		slog.String("amount", req.Amount.String()),
	)
	return s.wallets.Get(ctx, req.UserID)
}
