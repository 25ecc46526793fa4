// Package service contains the business rules of the development backend.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes {success,data,message}
//	Service (Business layer) → validates, authorizes, orchestrates
//	Repository (Data layer)  → reads/writes SQLite
//
// WHO MAY DO WHAT?
// Every method that acts on behalf of a caller takes the caller's user ID
// (the JWT subject) as actorID and authorizes it here, not in the handler:
//
//	admin only        → list/delete IP records, change roles, delete users, airdrop
//	self or admin     → read/update a user, read a wallet, trade
//	todo access       → canAccessTodos or admin
//
// A deactivated account is refused everywhere, even with a valid token.
//
// DEPENDENCY INJECTION:
// Services take repository interfaces, never *sqlite.DB, so the tests in
// this package run against in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/repository"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// normalizeLimit clamps a caller-supplied page size into [1, MaxListLimit].
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// access resolves actor IDs into user records and applies the role rules.
// Services embed it.
type access struct {
	users repository.UserRepository
}

// actor loads the calling account. A token whose user no longer exists is
// treated as unauthenticated.
func (a access) actor(ctx context.Context, actorID string) (*model.User, error) {
	if actorID == "" {
		return nil, apperror.Unauthorized("valid authentication required")
	}
	u, err := a.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("account no longer exists")
		}
		return nil, fmt.Errorf("service: loading actor %s: %w", actorID, err)
	}
	if !u.IsActive {
		return nil, apperror.Forbidden("Account is deactivated")
	}
	return u, nil
}

func (a access) requireAdmin(ctx context.Context, actorID string) (*model.User, error) {
	u, err := a.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, apperror.Forbidden("Admin access required")
	}
	return u, nil
}

func (a access) requireSelfOrAdmin(ctx context.Context, actorID, targetID string) (*model.User, error) {
	u, err := a.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if u.UID != targetID && !u.IsAdmin() {
		return nil, apperror.Forbidden("You can only access your own account")
	}
	return u, nil
}

func (a access) requireTodoAccess(ctx context.Context, actorID string) (*model.User, error) {
	u, err := a.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !u.CanAccessTodos && !u.IsAdmin() {
		return nil, apperror.Forbidden("You do not have access to todos")
	}
	return u, nil
}
