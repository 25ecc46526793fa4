// Package repository declares the storage interfaces used by the development
// backend. The sqlite subpackage implements all of them.
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sakif/trading-dashboard/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserWithSecret pairs a user record with its bcrypt hash. The hash never
// leaves the backend.
type UserWithSecret struct {
	model.User
	PasswordHash string
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User, passwordHash string) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*UserWithSecret, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error)
	UpdateRole(ctx context.Context, id string, status model.RoleStatus) (*model.User, error)
	SetTodoAccess(ctx context.Context, id string, allowed bool) error
	Delete(ctx context.Context, id string) error
}

type WalletRepository interface {
	Get(ctx context.Context, userID string) (*model.Wallet, error)
	// Adjust adds each delta to the matching balance atomically. A balance
	// that would go negative aborts the whole adjustment with ErrValidation.
	Adjust(ctx context.Context, userID string, deltas map[string]decimal.Decimal, tx *model.Transaction) error
	Transactions(ctx context.Context, userID string, opts ListOptions) ([]model.Transaction, error)
}

type TodoRepository interface {
	Create(ctx context.Context, todo *model.Todo) error
	GetByID(ctx context.Context, id string) (*model.Todo, error)
	ListRange(ctx context.Context, startDate, endDate string) ([]model.Todo, error)
	Update(ctx context.Context, todo *model.Todo) error
	Delete(ctx context.Context, id string) error
}

type IPRepository interface {
	Record(ctx context.Context, rec *model.IPRecord) error
	List(ctx context.Context, opts ListOptions) ([]model.IPRecord, error)
	Delete(ctx context.Context, id string) error
}
