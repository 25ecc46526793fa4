package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/service"
)

// WalletHandler serves /api/wallet/*.
//
// ROUTE ORDER:
// chi prefers static segments over parameters, so POST /wallet/trade and
// PATCH /wallet/balance never collide with GET /wallet/{userId}.
type WalletHandler struct {
	wallets *service.WalletService
	logger  *slog.Logger
}

func NewWalletHandler(wallets *service.WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{wallets: wallets, logger: logger}
}

// HandleGet → GET /api/wallet/{userId}
func (h *WalletHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.wallets.Get(r.Context(), actorID(r), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, wallet, "")
}

// HandleTransactions → GET /api/wallet/{userId}/transactions?limit=N
func (h *WalletHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	txs, err := h.wallets.Transactions(r.Context(), actorID(r), chi.URLParam(r, "userId"), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, txs, "")
}

// HandleTrade → POST /api/wallet/trade {userId, symbol, type, amount, price}
func (h *WalletHandler) HandleTrade(w http.ResponseWriter, r *http.Request) {
	var req model.TradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	tx, err := h.wallets.Trade(r.Context(), actorID(r), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusCreated, tx, "Trade executed")
}

// HandleAirdrop → PATCH /api/wallet/balance {userId, symbol, amount}
func (h *WalletHandler) HandleAirdrop(w http.ResponseWriter, r *http.Request) {
	var req model.AirdropRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	wallet, err := h.wallets.Airdrop(r.Context(), actorID(r), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, wallet, "Airdrop successful")
}
