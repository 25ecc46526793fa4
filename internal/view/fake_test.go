package view

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sakif/trading-dashboard/internal/api"
	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/notify"
	"github.com/sakif/trading-dashboard/internal/session"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeBackend is an in-memory stand-in for the API client. It records every
// call by name so tests can assert what did and did not hit the network.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string
	err   error // returned by every call when set

	auth    *model.AuthData
	user    *model.User
	users   []model.User
	wallet  *model.Wallet
	todos   []model.Todo
	ips     []model.IPRecord
	lastIn  model.TodoInput
	todoGet []string // [start, end] of the last GetTodos
}

func (f *fakeBackend) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeBackend) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) SignIn(_ context.Context, email, password string) (*model.AuthData, error) {
	if err := f.record("SignIn"); err != nil {
		return nil, err
	}
	return f.auth, nil
}

func (f *fakeBackend) SignUp(_ context.Context, creds api.Credentials) (*model.AuthData, error) {
	if err := f.record("SignUp"); err != nil {
		return nil, err
	}
	return f.auth, nil
}

func (f *fakeBackend) GetUser(_ context.Context, token, id string) (*model.User, error) {
	if err := f.record("GetUser"); err != nil {
		return nil, err
	}
	return f.user, nil
}

func (f *fakeBackend) UpdateUser(_ context.Context, token, id string, u model.ProfileUpdate) (*model.User, error) {
	if err := f.record("UpdateUser"); err != nil {
		return nil, err
	}
	updated := *f.user
	updated.DisplayName = u.DisplayName
	updated.PhoneNumber = u.PhoneNumber
	return &updated, nil
}

func (f *fakeBackend) GetWallet(_ context.Context, token, userID string) (*model.Wallet, error) {
	if err := f.record("GetWallet"); err != nil {
		return nil, err
	}
	return f.wallet, nil
}

func (f *fakeBackend) GetTransactions(_ context.Context, token, userID string) ([]model.Transaction, error) {
	if err := f.record("GetTransactions"); err != nil {
		return nil, err
	}
	return []model.Transaction{}, nil
}

func (f *fakeBackend) ListUsers(_ context.Context, token string, limit int) ([]model.User, error) {
	if err := f.record("ListUsers"); err != nil {
		return nil, err
	}
	return f.users, nil
}

func (f *fakeBackend) UpdateRole(_ context.Context, token, id string, role model.Role, active bool) (*model.User, error) {
	if err := f.record("UpdateRole"); err != nil {
		return nil, err
	}
	return &model.User{UID: id, Role: role, IsActive: active}, nil
}

func (f *fakeBackend) DeleteUser(_ context.Context, token, id string) error {
	return f.record("DeleteUser")
}

func (f *fakeBackend) SetTodoAccess(_ context.Context, token, id string, allowed bool) (*model.User, error) {
	if err := f.record("SetTodoAccess"); err != nil {
		return nil, err
	}
	return &model.User{UID: id, CanAccessTodos: allowed}, nil
}

func (f *fakeBackend) Airdrop(_ context.Context, token, userID, symbol string, amount decimal.Decimal) (*model.Wallet, error) {
	if err := f.record("Airdrop"); err != nil {
		return nil, err
	}
	return &model.Wallet{UserID: userID, Balances: map[string]decimal.Decimal{symbol: amount}}, nil
}

func (f *fakeBackend) ListIPAddresses(_ context.Context, token string, limit int) ([]model.IPRecord, error) {
	if err := f.record("ListIPAddresses"); err != nil {
		return nil, err
	}
	return f.ips, nil
}

func (f *fakeBackend) DeleteIPAddress(_ context.Context, token, id string) error {
	return f.record("DeleteIPAddress")
}

func (f *fakeBackend) GetTodos(_ context.Context, token, start, end string) ([]model.Todo, error) {
	if err := f.record("GetTodos"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.todoGet = []string{start, end}
	f.mu.Unlock()
	return f.todos, nil
}

func (f *fakeBackend) CreateTodo(_ context.Context, token string, in model.TodoInput) (*model.Todo, error) {
	if err := f.record("CreateTodo"); err != nil {
		return nil, err
	}
	f.lastIn = in
	return &model.Todo{ID: "t-new", Date: in.Date, Task: in.Task, AssignedTo: in.AssignedTo}, nil
}

func (f *fakeBackend) UpdateTodo(_ context.Context, token, id string, in model.TodoInput) (*model.Todo, error) {
	if err := f.record("UpdateTodo"); err != nil {
		return nil, err
	}
	f.lastIn = in
	return &model.Todo{ID: id, Date: in.Date, Task: in.Task}, nil
}

func (f *fakeBackend) ToggleTodo(_ context.Context, token, id, userID string) (*model.Todo, error) {
	if err := f.record("ToggleTodo"); err != nil {
		return nil, err
	}
	return &model.Todo{ID: id, CompletedBy: []string{userID}}, nil
}

func (f *fakeBackend) DeleteTodo(_ context.Context, token, id string) error {
	return f.record("DeleteTodo")
}

type harness struct {
	backend  *fakeBackend
	sessions *session.Manager
	notes    *notify.Recorder
	logger   *slog.Logger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &harness{
		backend:  &fakeBackend{},
		sessions: session.NewManager(session.NewMemoryStore(), logger),
		notes:    &notify.Recorder{},
		logger:   logger,
	}
}

// signedIn establishes a session for u1 with token t1.
func (h *harness) signedIn(t *testing.T) *harness {
	t.Helper()
	require.NoError(t, h.sessions.Establish(context.Background(),
		model.AuthData{UID: "u1", Token: "t1", Email: "a@b.com", Role: model.RoleAdmin}))
	return h
}

func (h *harness) lastNote(t *testing.T) notify.Notification {
	t.Helper()
	n, ok := h.notes.Last()
	require.True(t, ok, "expected a notification")
	return n
}

var errRejected = apperror.Rejected(400, "Email already in use")
