package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/trading-dashboard/internal/api"
	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/notify"
)

// =========================================================================
// AUTH
// =========================================================================

func TestSignIn_EstablishesSession(t *testing.T) {
	h := newHarness(t)
	h.backend.auth = &model.AuthData{UID: "u1", Token: "t1", Email: "a@b.com", Role: model.RoleUser}
	svc := NewAuthService(h.backend, h.sessions, h.notes, h.logger)

	_, err := svc.SignIn(context.Background(), " a@b.com ", "pw")
	require.NoError(t, err)

	s := h.sessions.Current()
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "t1", s.Token)
	assert.True(t, s.Authenticated())
	assert.Equal(t, "Success", h.lastNote(t).Title)
}

func TestSignIn_EmptyFieldsNeverCallBackend(t *testing.T) {
	h := newHarness(t)
	svc := NewAuthService(h.backend, h.sessions, h.notes, h.logger)

	_, err := svc.SignIn(context.Background(), "", "pw")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Empty(t, h.backend.called())
	assert.Equal(t, "Please fill in all fields", h.lastNote(t).Description)
}

func TestSignUp_RejectedShowsBackendMessage(t *testing.T) {
	h := newHarness(t)
	h.backend.err = errRejected
	svc := NewAuthService(h.backend, h.sessions, h.notes, h.logger)

	_, err := svc.SignUp(context.Background(), api.Credentials{Email: "a@b.com", Password: "pw"})
	assert.ErrorIs(t, err, apperror.ErrRejected)
	assert.False(t, h.sessions.Current().Authenticated())
	n := h.lastNote(t)
	assert.Equal(t, "Email already in use", n.Description)
	assert.Equal(t, notify.VariantDestructive, n.Variant)
}

func TestSignIn_TransportShowsGenericMessage(t *testing.T) {
	h := newHarness(t)
	h.backend.err = apperror.Transport(errors.New("dial tcp: connection refused"))
	svc := NewAuthService(h.backend, h.sessions, h.notes, h.logger)

	_, err := svc.SignIn(context.Background(), "a@b.com", "pw")
	assert.ErrorIs(t, err, apperror.ErrTransport)
	assert.Equal(t, "Something went wrong", h.lastNote(t).Description)
}

// =========================================================================
// PROFILE AND PORTFOLIO
// =========================================================================

func TestProfile_RequiresSession(t *testing.T) {
	h := newHarness(t)
	svc := NewProfileService(h.backend, h.sessions, h.notes, h.logger)

	_, err := svc.Load(context.Background())
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Empty(t, h.backend.called())
}

func TestProfile_Update(t *testing.T) {
	h := newHarness(t).signedIn(t)
	h.backend.user = &model.User{UID: "u1", Email: "a@b.com", Role: model.RoleUser}
	svc := NewProfileService(h.backend, h.sessions, h.notes, h.logger)

	u, err := svc.Update(context.Background(), " Satoshi ", "555")
	require.NoError(t, err)
	assert.Equal(t, "Satoshi", u.DisplayName)
	assert.Equal(t, "Profile updated successfully!", h.lastNote(t).Description)
}

func TestProfile_WalletFailure(t *testing.T) {
	h := newHarness(t).signedIn(t)
	h.backend.err = apperror.Transport(errors.New("eof"))
	svc := NewProfileService(h.backend, h.sessions, h.notes, h.logger)

	_, _, err := svc.Wallet(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "Failed to load wallet", h.lastNote(t).Description)
}

func TestPortfolio_Value(t *testing.T) {
	h := newHarness(t).signedIn(t)
	h.backend.wallet = &model.Wallet{UserID: "u1", Balances: map[string]decimal.Decimal{
		"BTC":  decimal.RequireFromString("0.1"),
		"USDT": decimal.RequireFromString("250"),
	}}
	prices := func(context.Context) (map[string]decimal.Decimal, error) {
		return map[string]decimal.Decimal{"BTC": decimal.NewFromInt(60000), "USDT": decimal.NewFromInt(1)}, nil
	}
	svc := NewPortfolioService(h.backend, prices, h.sessions, h.logger)

	v, err := svc.Value(context.Background())
	require.NoError(t, err)
	assert.True(t, v.Total.Equal(decimal.NewFromInt(6250)), "total = %s", v.Total)
}

func TestPortfolio_PriceFailure(t *testing.T) {
	h := newHarness(t).signedIn(t)
	h.backend.wallet = &model.Wallet{UserID: "u1"}
	prices := func(context.Context) (map[string]decimal.Decimal, error) {
		return nil, apperror.Transport(errors.New("429"))
	}
	svc := NewPortfolioService(h.backend, prices, h.sessions, h.logger)

	_, err := svc.Value(context.Background())
	assert.ErrorIs(t, err, apperror.ErrTransport)
	assert.Empty(t, h.notes.All(), "portfolio failures are logged, not toasted")
}

// =========================================================================
// ADMIN
// =========================================================================

func TestAdmin_AirdropValidation(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{"zero", "0"},
		{"negative", "-5"},
		{"garbage", "lots"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t).signedIn(t)
			svc := NewAdminService(h.backend, h.sessions, h.notes, h.logger)

			_, err := svc.Airdrop(context.Background(), "u2", "BTC", tt.amount)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Empty(t, h.backend.called())
			assert.Equal(t, "Please enter a valid amount", h.lastNote(t).Description)
		})
	}
}

func TestAdmin_Airdrop(t *testing.T) {
	h := newHarness(t).signedIn(t)
	svc := NewAdminService(h.backend, h.sessions, h.notes, h.logger)

	w, err := svc.Airdrop(context.Background(), "u2", "btc", "0.25")
	require.NoError(t, err)
	assert.True(t, w.Balances["BTC"].Equal(decimal.RequireFromString("0.25")))
	n := h.lastNote(t)
	assert.Equal(t, "Airdrop Successful", n.Title)
	assert.Equal(t, "0.25 BTC sent to user", n.Description)
}

func TestAdmin_SetActiveKeepsRole(t *testing.T) {
	h := newHarness(t).signedIn(t)
	svc := NewAdminService(h.backend, h.sessions, h.notes, h.logger)

	u, err := svc.SetActive(context.Background(), &model.User{UID: "u2", Role: model.RoleModerator, IsActive: true}, false)
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, u.Role)
	assert.False(t, u.IsActive)
	assert.Equal(t, "User deactivated successfully", h.lastNote(t).Description)
}

func TestAdmin_SetRoleRejectsUnknown(t *testing.T) {
	h := newHarness(t).signedIn(t)
	svc := NewAdminService(h.backend, h.sessions, h.notes, h.logger)

	_, err := svc.SetRole(context.Background(), &model.User{UID: "u2"}, "root")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Empty(t, h.backend.called())
}

func TestAdmin_SetTodoAccess(t *testing.T) {
	h := newHarness(t).signedIn(t)
	svc := NewAdminService(h.backend, h.sessions, h.notes, h.logger)

	u, err := svc.SetTodoAccess(context.Background(), "u2", true)
	require.NoError(t, err)
	assert.True(t, u.CanAccessTodos)
	assert.Equal(t, []string{"SetTodoAccess"}, h.backend.called())
	assert.Equal(t, "Todo access updated successfully", h.lastNote(t).Description)
}

func TestAdmin_DeleteIPFailure(t *testing.T) {
	h := newHarness(t).signedIn(t)
	h.backend.err = apperror.Rejected(404, "")
	svc := NewAdminService(h.backend, h.sessions, h.notes, h.logger)

	err := svc.DeleteIP(context.Background(), "ip1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// TODOS
// =========================================================================

func TestWeekDates(t *testing.T) {
	start := time.Date(2024, 12, 29, 15, 0, 0, 0, time.UTC)

	got := WeekDates(start)
	assert.Equal(t, []string{
		"2024-12-29", "2024-12-30", "2024-12-31",
		"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-04",
	}, got)
}

func TestTodoCreate_ValidationBeforeNetwork(t *testing.T) {
	tests := []struct {
		name string
		in   model.TodoInput
	}{
		{"empty task", model.TodoInput{Date: "2024-05-06", Task: "  ", AssignedTo: []string{"u2"}}},
		{"no assignees", model.TodoInput{Date: "2024-05-06", Task: "Rebalance"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t).signedIn(t)
			svc := NewTodoService(h.backend, h.sessions, h.notes, h.logger)

			_, err := svc.Create(context.Background(), time.Now(), tt.in)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Empty(t, h.backend.called(), "no network call")
			assert.Equal(t, "Please enter a task and select at least one person", h.lastNote(t).Description)
		})
	}
}

func TestTodoCreate_RefetchesWeek(t *testing.T) {
	h := newHarness(t).signedIn(t)
	h.backend.todos = []model.Todo{{ID: "t1", Date: "2024-05-07", Task: "Existing"}}
	svc := NewTodoService(h.backend, h.sessions, h.notes, h.logger)
	week := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

	got, err := svc.Create(context.Background(), week,
		model.TodoInput{Date: "2024-05-08", Task: " Rebalance ", AssignedTo: []string{"u2"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"CreateTodo", "GetTodos"}, h.backend.called())
	assert.Equal(t, "u1", h.backend.lastIn.UserID)
	assert.Equal(t, "Rebalance", h.backend.lastIn.Task)
	assert.Equal(t, []string{"2024-05-06", "2024-05-12"}, h.backend.todoGet)
	assert.Len(t, got.On("2024-05-07"), 1)
}

func TestTodoMutationsRefetch(t *testing.T) {
	h := newHarness(t).signedIn(t)
	svc := NewTodoService(h.backend, h.sessions, h.notes, h.logger)
	week := time.Now()

	_, err := svc.Toggle(context.Background(), week, "t1", "")
	require.NoError(t, err)
	_, err = svc.Delete(context.Background(), week, "t1")
	require.NoError(t, err)

	assert.Equal(t, []string{"ToggleTodo", "GetTodos", "DeleteTodo", "GetTodos"}, h.backend.called())
}

func TestTodoDelete_FailureDoesNotRefetch(t *testing.T) {
	h := newHarness(t).signedIn(t)
	h.backend.err = apperror.Transport(errors.New("eof"))
	svc := NewTodoService(h.backend, h.sessions, h.notes, h.logger)

	_, err := svc.Delete(context.Background(), time.Now(), "t1")
	assert.Error(t, err)
	assert.Equal(t, []string{"DeleteTodo"}, h.backend.called())
	assert.Equal(t, "Failed to delete task", h.lastNote(t).Description)
}

// =========================================================================
// TRADING
// =========================================================================

type staticFeed struct {
	ch chan []model.MarketSnapshot
}

func (s *staticFeed) Subscribe(context.Context) (<-chan []model.MarketSnapshot, func()) {
	return s.ch, func() {}
}

func (s *staticFeed) Latest() ([]model.MarketSnapshot, bool) { return nil, false }

func TestTradingDesk_Watch(t *testing.T) {
	feed := &staticFeed{ch: make(chan []model.MarketSnapshot, 2)}
	desk := NewTradingDesk(feed)
	desk.Select("ETH")

	feed.ch <- []model.MarketSnapshot{{ID: "bitcoin", Symbol: "btc"}}
	feed.ch <- []model.MarketSnapshot{
		{ID: "bitcoin", Symbol: "btc", CurrentPrice: decimal.NewFromInt(60000)},
		{ID: "ethereum", Symbol: "eth", CurrentPrice: decimal.NewFromInt(3000), PriceChangePercentage24h: 2.5},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	q, ok := <-desk.Watch(ctx)
	require.True(t, ok)
	assert.Equal(t, "ETH/USDT", q.Pair)
	assert.True(t, q.Price.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, 2.5, q.Change24h)
}
