package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/sakif/trading-dashboard/internal/model"
)

// Credentials are sent to the sign-in and sign-up endpoints and nowhere else.
type Credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

// Health is the payload of GET /check.
type Health struct {
	Status string `json:"status" validate:"required"`
}

func userPath(id string) string { return "/user/" + url.PathEscape(id) }

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	return url.Values{"limit": {strconv.Itoa(limit)}}
}

// =========================================================================
// USERS
// =========================================================================

func (c *Client) SignUp(ctx context.Context, creds Credentials) (*model.AuthData, error) {
	return do[*model.AuthData](ctx, c, request{method: http.MethodPost, path: "/user/signup", body: creds})
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*model.AuthData, error) {
	return do[*model.AuthData](ctx, c, request{
		method: http.MethodPost,
		path:   "/user/signin",
		body:   Credentials{Email: email, Password: password},
	})
}

// GetUser fetches the canonical user record. The guard calls this on every
// protected view mount.
func (c *Client) GetUser(ctx context.Context, token, id string) (*model.User, error) {
	return do[*model.User](ctx, c, request{method: http.MethodGet, path: userPath(id), token: token})
}

func (c *Client) UpdateUser(ctx context.Context, token, id string, update model.ProfileUpdate) (*model.User, error) {
	return do[*model.User](ctx, c, request{method: http.MethodPut, path: userPath(id), token: token, body: update})
}

// ListUsers returns at most limit users; limit <= 0 leaves the page size to
// the backend.
func (c *Client) ListUsers(ctx context.Context, token string, limit int) ([]model.User, error) {
	return do[[]model.User](ctx, c, request{method: http.MethodGet, path: "/user", token: token, query: limitQuery(limit)})
}

func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	_, err := do[Empty](ctx, c, request{method: http.MethodDelete, path: userPath(id), token: token})
	return err
}

func (c *Client) GetRole(ctx context.Context, token, id string) (*model.RoleStatus, error) {
	return do[*model.RoleStatus](ctx, c, request{method: http.MethodGet, path: userPath(id) + "/role", token: token})
}

func (c *Client) UpdateRole(ctx context.Context, token, id string, role model.Role, isActive bool) (*model.User, error) {
	return do[*model.User](ctx, c, request{
		method: http.MethodPatch,
		path:   userPath(id) + "/role",
		token:  token,
		body:   model.RoleStatus{Role: role, IsActive: isActive},
	})
}

// SetTodoAccess grants or revokes the todo board. Admin only.
func (c *Client) SetTodoAccess(ctx context.Context, token, id string, allowed bool) (*model.User, error) {
	return do[*model.User](ctx, c, request{
		method: http.MethodPatch,
		path:   userPath(id) + "/todo-access",
		token:  token,
		body:   map[string]bool{"canAccessTodos": allowed},
	})
}

// =========================================================================
// WALLET
// =========================================================================

func (c *Client) GetWallet(ctx context.Context, token, userID string) (*model.Wallet, error) {
	return do[*model.Wallet](ctx, c, request{method: http.MethodGet, path: "/wallet/" + url.PathEscape(userID), token: token})
}

func (c *Client) GetTransactions(ctx context.Context, token, userID string) ([]model.Transaction, error) {
	return do[[]model.Transaction](ctx, c, request{
		method: http.MethodGet,
		path:   "/wallet/" + url.PathEscape(userID) + "/transactions",
		token:  token,
	})
}

func (c *Client) ExecuteTrade(ctx context.Context, token string, trade model.TradeRequest) (*model.Transaction, error) {
	return do[*model.Transaction](ctx, c, request{method: http.MethodPost, path: "/wallet/trade", token: token, body: trade})
}

// Airdrop credits amount of symbol to userID. Admin only.
func (c *Client) Airdrop(ctx context.Context, token, userID, symbol string, amount decimal.Decimal) (*model.Wallet, error) {
	return do[*model.Wallet](ctx, c, request{
		method: http.MethodPatch,
		path:   "/wallet/balance",
		token:  token,
		body:   model.AirdropRequest{UserID: userID, Symbol: symbol, Amount: amount},
	})
}

// =========================================================================
// TODOS
// =========================================================================

func todoPath(id string) string { return "/todos/" + url.PathEscape(id) }

// GetTodos lists todos dated within [startDate, endDate]; empty bounds are
// omitted from the query.
func (c *Client) GetTodos(ctx context.Context, token, startDate, endDate string) ([]model.Todo, error) {
	q := url.Values{}
	if startDate != "" {
		q.Set("startDate", startDate)
	}
	if endDate != "" {
		q.Set("endDate", endDate)
	}
	return do[[]model.Todo](ctx, c, request{method: http.MethodGet, path: "/todos", token: token, query: q})
}

func (c *Client) CreateTodo(ctx context.Context, token string, in model.TodoInput) (*model.Todo, error) {
	return do[*model.Todo](ctx, c, request{method: http.MethodPost, path: "/todos", token: token, body: in})
}

func (c *Client) UpdateTodo(ctx context.Context, token, id string, in model.TodoInput) (*model.Todo, error) {
	return do[*model.Todo](ctx, c, request{method: http.MethodPut, path: todoPath(id), token: token, body: in})
}

// ToggleTodo flips userID's completion mark on the todo.
func (c *Client) ToggleTodo(ctx context.Context, token, id, userID string) (*model.Todo, error) {
	return do[*model.Todo](ctx, c, request{
		method: http.MethodPatch,
		path:   todoPath(id) + "/complete",
		token:  token,
		body:   map[string]string{"userId": userID},
	})
}

func (c *Client) DeleteTodo(ctx context.Context, token, id string) error {
	_, err := do[Empty](ctx, c, request{method: http.MethodDelete, path: todoPath(id), token: token})
	return err
}

// =========================================================================
// IP ADDRESSES
// =========================================================================

func (c *Client) ListIPAddresses(ctx context.Context, token string, limit int) ([]model.IPRecord, error) {
	return do[[]model.IPRecord](ctx, c, request{method: http.MethodGet, path: "/ipaddresses", token: token, query: limitQuery(limit)})
}

func (c *Client) DeleteIPAddress(ctx context.Context, token, id string) error {
	_, err := do[Empty](ctx, c, request{method: http.MethodDelete, path: "/ipaddresses/" + url.PathEscape(id), token: token})
	return err
}

// Health pings the backend origin.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	return do[*Health](ctx, c, request{method: http.MethodGet, path: "/check", abs: true})
}
