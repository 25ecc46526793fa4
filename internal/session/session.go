// Package session holds the locally persisted identity of the dashboard user.
//
// PERSISTED KEYS:
// Exactly four string keys live in the durable store:
//
//	userId     → the account id returned by sign-in/sign-up
//	userToken  → the bearer token attached to API calls
//	userEmail  → cached for display
//	userRole   → cached for display; never trusted for authorization
//
// The absence of userId or userToken is the only "signed out" signal.
//
// LIFECYCLE:
// A Manager is created once per process with an injected Store, loaded
// explicitly with Load, written by Establish after a successful sign-in and
// wiped by Clear on logout. Nothing in the program reads the store directly.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sakif/trading-dashboard/internal/model"
)

const (
	KeyUserID = "userId"
	KeyToken  = "userToken"
	KeyEmail  = "userEmail"
	KeyRole   = "userRole"
)

// Keys lists every key owned by the session, in the order they are written.
var Keys = []string{KeyToken, KeyUserID, KeyEmail, KeyRole}

// Store is a durable string key-value store. Get reports ok=false for a
// missing key; Delete ignores keys that are not present.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Session is a snapshot of the persisted identity.
type Session struct {
	UserID string
	Token  string
	Email  string
	Role   model.Role
}

// Authenticated reports whether both the user id and the token are present.
// A partial session counts as signed out.
func (s Session) Authenticated() bool {
	return s.UserID != "" && s.Token != ""
}

// Manager is the injectable session context.
type Manager struct {
	store  Store
	logger *slog.Logger

	mu      sync.RWMutex
	current Session
}

// NewManager creates a Manager over store. Call Load before first use.
func NewManager(store Store, logger *slog.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Load reads the persisted keys into memory and returns the snapshot.
func (m *Manager) Load(ctx context.Context) (Session, error) {
	values := make(map[string]string, len(Keys))
	for _, key := range Keys {
		v, ok, err := m.store.Get(ctx, key)
		if err != nil {
			return Session{}, fmt.Errorf("session: reading %s: %w", key, err)
		}
		if ok {
			values[key] = v
		}
	}

	s := Session{
		UserID: values[KeyUserID],
		Token:  values[KeyToken],
		Email:  values[KeyEmail],
		Role:   model.Role(values[KeyRole]),
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	m.logger.Debug("session loaded",
		slog.Bool("authenticated", s.Authenticated()),
		slog.String("userID", s.UserID),
	)
	return s, nil
}

// Current returns the in-memory snapshot taken by the last Load/Establish/Clear.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Establish persists the identity returned by sign-in or sign-up.
func (m *Manager) Establish(ctx context.Context, data model.AuthData) error {
	if data.UID == "" || data.Token == "" {
		return fmt.Errorf("session: refusing to store a partial identity")
	}

	pairs := [][2]string{
		{KeyToken, data.Token},
		{KeyUserID, data.UID},
		{KeyEmail, data.Email},
		{KeyRole, string(data.Role)},
	}
	for _, kv := range pairs {
		if err := m.store.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("session: writing %s: %w", kv[0], err)
		}
	}

	m.mu.Lock()
	m.current = Session{UserID: data.UID, Token: data.Token, Email: data.Email, Role: data.Role}
	m.mu.Unlock()

	m.logger.Info("session established", slog.String("userID", data.UID))
	return nil
}

// Clear removes exactly the four session keys and nothing else.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Delete(ctx, Keys...); err != nil {
		return fmt.Errorf("session: clearing: %w", err)
	}

	m.mu.Lock()
	prev := m.current.UserID
	m.current = Session{}
	m.mu.Unlock()

	m.logger.Info("session cleared", slog.String("userID", prev))
	return nil
}
