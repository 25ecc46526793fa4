package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB stores accounts.
type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, email, display_name, phone_number, role, is_active,
	can_access_todos, ip_address, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (*model.User, error) {
	var u model.User
	var role string
	dest := []any{
		&u.UID, &u.Email, &u.DisplayName, &u.PhoneNumber, &role, &u.IsActive,
		&u.CanAccessTodos, &u.IPAddress, &u.CreatedAt, &u.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// Create inserts a new user. ID and timestamps are filled in place.
// A duplicate email yields apperror.ErrConflict.
func (u *UserDB) Create(ctx context.Context, user *model.User, passwordHash string) error {
	now := time.Now().UTC()
	user.UID = xid.New().String()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, display_name, phone_number, role,
			is_active, can_access_todos, ip_address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.UID, user.Email, passwordHash, user.DisplayName, user.PhoneNumber,
		string(user.Role), user.IsActive, user.CanAccessTodos, user.IPAddress,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}
	return nil
}

// GetByID returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail is used by sign-in and is the only read that returns the hash.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*repository.UserWithSecret, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var hash string
	user, err := scanUser(u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+`, password_hash FROM users WHERE email = ?`, email), &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return &repository.UserWithSecret{User: *user, PasswordHash: hash}, nil
}

// List returns users newest first.
func (u *UserDB) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	rows, err := u.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		clampLimit(opts.Limit), max(opts.Offset, 0))
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (u *UserDB) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	res, err := u.conn.ExecContext(ctx,
		`UPDATE users SET display_name = ?, phone_number = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(update.DisplayName), strings.TrimSpace(update.PhoneNumber), time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating profile %s: %w", id, err)
	}
	if err := requireAffected(res, "user", id); err != nil {
		return nil, err
	}
	return u.GetByID(ctx, id)
}

func (u *UserDB) UpdateRole(ctx context.Context, id string, status model.RoleStatus) (*model.User, error) {
	res, err := u.conn.ExecContext(ctx,
		`UPDATE users SET role = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		string(status.Role), status.IsActive, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating role %s: %w", id, err)
	}
	if err := requireAffected(res, "user", id); err != nil {
		return nil, err
	}
	return u.GetByID(ctx, id)
}

func (u *UserDB) SetTodoAccess(ctx context.Context, id string, allowed bool) error {
	res, err := u.conn.ExecContext(ctx,
		`UPDATE users SET can_access_todos = ?, updated_at = ? WHERE id = ?`,
		allowed, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating todo access %s: %w", id, err)
	}
	return requireAffected(res, "user", id)
}

func (u *UserDB) Delete(ctx context.Context, id string) error {
	res, err := u.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	return requireAffected(res, "user", id)
}

func requireAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
