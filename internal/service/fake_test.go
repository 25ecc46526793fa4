package service

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/auth"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// In-memory implementations of the repository interfaces. They reproduce
// the error categories of the SQLite implementation (ErrNotFound,
// ErrConflict, ErrValidation) and nothing else.

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[string]*repository.UserWithSecret
	nextID int
	// set to simulate a database failure
	createErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*repository.UserWithSecret{}}
}

func (f *fakeUsers) Create(_ context.Context, u *model.User, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return apperror.Conflict("user", u.Email)
		}
	}
	f.nextID++
	u.UID = fmt.Sprintf("user-%d", f.nextID)
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	u.CreatedAt = time.Now()
	f.byID[u.UID] = &repository.UserWithSecret{User: *u, PasswordHash: hash}
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := u.User
	return &copied, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*repository.UserWithSecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUsers) List(_ context.Context, opts repository.ListOptions) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u.User)
	}
	slices.SortFunc(out, func(a, b model.User) int { return cmp.Compare(a.UID, b.UID) })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id string, up model.ProfileUpdate) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	u.DisplayName, u.PhoneNumber = up.DisplayName, up.PhoneNumber
	copied := u.User
	return &copied, nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id string, st model.RoleStatus) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	u.Role, u.IsActive = st.Role, st.IsActive
	copied := u.User
	return &copied, nil
}

func (f *fakeUsers) SetTodoAccess(_ context.Context, id string, allowed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.CanAccessTodos = allowed
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.byID, id)
	return nil
}

// put inserts a ready-made account, bypassing sign-up.
func (f *fakeUsers) put(u model.User) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.UID] = &repository.UserWithSecret{User: u}
	return &u
}

type fakeWallets struct {
	mu       sync.Mutex
	balances map[string]map[string]decimal.Decimal
	txs      map[string][]model.Transaction
	nextTx   int
}

func newFakeWallets() *fakeWallets {
	return &fakeWallets{
		balances: map[string]map[string]decimal.Decimal{},
		txs:      map[string][]model.Transaction{},
	}
}

func (f *fakeWallets) Get(_ context.Context, userID string) (*model.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]decimal.Decimal{}
	for k, v := range f.balances[userID] {
		out[k] = v
	}
	return &model.Wallet{UserID: userID, Balances: out}, nil
}

func (f *fakeWallets) Adjust(_ context.Context, userID string, deltas map[string]decimal.Decimal, tx *model.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current := f.balances[userID]
	next := map[string]decimal.Decimal{}
	for k, v := range current {
		next[k] = v
	}
	for symbol, d := range deltas {
		v := next[symbol].Add(d)
		if v.IsNegative() {
			return apperror.ValidationFailed("amount", "insufficient "+symbol+" balance")
		}
		next[symbol] = v
	}
	f.balances[userID] = next
	if tx != nil {
		f.nextTx++
		tx.ID = fmt.Sprintf("tx-%d", f.nextTx)
		tx.CreatedAt = time.Now()
		f.txs[userID] = append(f.txs[userID], *tx)
	}
	return nil
}

func (f *fakeWallets) Transactions(_ context.Context, userID string, opts repository.ListOptions) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.txs[userID])
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

type fakeTodos struct {
	mu     sync.Mutex
	byID   map[string]model.Todo
	nextID int
}

func newFakeTodos() *fakeTodos { return &fakeTodos{byID: map[string]model.Todo{}} }

func (f *fakeTodos) Create(_ context.Context, t *model.Todo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t.ID = fmt.Sprintf("todo-%d", f.nextID)
	f.byID[t.ID] = cloneTodo(*t)
	return nil
}

func (f *fakeTodos) GetByID(_ context.Context, id string) (*model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("todo", id)
	}
	c := cloneTodo(t)
	return &c, nil
}

func (f *fakeTodos) ListRange(_ context.Context, start, end string) ([]model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Todo
	for _, t := range f.byID {
		if (start == "" || t.Date >= start) && (end == "" || t.Date <= end) {
			out = append(out, cloneTodo(t))
		}
	}
	slices.SortFunc(out, func(a, b model.Todo) int { return cmp.Compare(a.Date+a.ID, b.Date+b.ID) })
	return out, nil
}

func (f *fakeTodos) Update(_ context.Context, t *model.Todo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[t.ID]; !ok {
		return apperror.NotFound("todo", t.ID)
	}
	f.byID[t.ID] = cloneTodo(*t)
	return nil
}

func (f *fakeTodos) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return apperror.NotFound("todo", id)
	}
	delete(f.byID, id)
	return nil
}

func cloneTodo(t model.Todo) model.Todo {
	t.AssignedTo = slices.Clone(t.AssignedTo)
	t.CompletedBy = slices.Clone(t.CompletedBy)
	return t
}

type fakeIPs struct {
	mu   sync.Mutex
	recs []model.IPRecord
	// set to simulate a failing address log
	recordErr error
}

func (f *fakeIPs) Record(_ context.Context, rec *model.IPRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	rec.ID = fmt.Sprintf("ip-%d", len(f.recs)+1)
	f.recs = append(f.recs, *rec)
	return nil
}

func (f *fakeIPs) List(_ context.Context, opts repository.ListOptions) ([]model.IPRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.recs)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeIPs) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.recs {
		if r.ID == id {
			f.recs = slices.Delete(f.recs, i, i+1)
			return nil
		}
	}
	return apperror.NotFound("ip record", id)
}

// =========================================================================
// FIXTURE
// =========================================================================

const testAdminEmail = "root@example.com"

type fixture struct {
	users   *fakeUsers
	wallets *fakeWallets
	todos   *fakeTodos
	ips     *fakeIPs
	tokens  *auth.TokenService

	auth    *AuthService
	userSvc *UserService
	wallet  *WalletService
	todoSvc *TodoService
	ipSvc   *IPService

	admin  *model.User
	alice  *model.User // can access todos
	bob    *model.User // plain user
	frozen *model.User // deactivated
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		users:   newFakeUsers(),
		wallets: newFakeWallets(),
		todos:   newFakeTodos(),
		ips:     &fakeIPs{},
		tokens:  tokens,
	}
	f.auth = NewAuthService(f.users, f.wallets, f.ips, tokens,
		auth.NewPasswordServiceForTest(bcrypt.MinCost), testAdminEmail, logger)
	f.userSvc = NewUserService(f.users, logger)
	f.wallet = NewWalletService(f.users, f.wallets, logger)
	f.todoSvc = NewTodoService(f.users, f.todos, logger)
	f.ipSvc = NewIPService(f.users, f.ips, logger)

	f.admin = f.users.put(model.User{UID: "admin", Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true})
	f.alice = f.users.put(model.User{UID: "alice", Email: "alice@example.com", Role: model.RoleUser, IsActive: true, CanAccessTodos: true})
	f.bob = f.users.put(model.User{UID: "bob", Email: "bob@example.com", Role: model.RoleUser, IsActive: true})
	f.frozen = f.users.put(model.User{UID: "frozen", Email: "frozen@example.com", Role: model.RoleUser, IsActive: false})
	return f
}

// fund credits a wallet directly.
func (f *fixture) fund(t *testing.T, userID, symbol string, amount int64) {
	t.Helper()
	err := f.wallets.Adjust(context.Background(), userID, map[string]decimal.Decimal{symbol: decimal.NewFromInt(amount)}, nil)
	if err != nil {
		t.Fatalf("fund: %v", err)
	}
}
