package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/repository"
)

const (
	MaxDisplayNameLength = 64
	MaxPhoneLength       = 32
)

// UserService manages account records after sign-up.
type UserService struct {
	access
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{access: access{users: users}, users: users, logger: logger}
}

// Get returns the target's record to the target itself or to an admin.
func (s *UserService) Get(ctx context.Context, actorID, id string) (*model.User, error) {
	if _, err := s.requireSelfOrAdmin(ctx, actorID, id); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/users: fetching %s: %w", id, err)
	}
	return u, nil
}

// List pages through all accounts. Admins need it for the console and todo
// users need it to pick assignees, so either qualifies.
func (s *UserService) List(ctx context.Context, actorID string, limit int) ([]model.User, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.CanAccessTodos {
		return nil, apperror.Forbidden("Admin access required")
	}
	users, err := s.users.List(ctx, repository.ListOptions{Limit: normalizeLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("service/users: listing: %w", err)
	}
	return users, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actorID, id string, update model.ProfileUpdate) (*model.User, error) {
	if _, err := s.requireSelfOrAdmin(ctx, actorID, id); err != nil {
		return nil, err
	}

	update.DisplayName = strings.TrimSpace(update.DisplayName)
	update.PhoneNumber = strings.TrimSpace(update.PhoneNumber)
	if utf8.RuneCountInString(update.DisplayName) > MaxDisplayNameLength {
		return nil, apperror.ValidationFailed("displayName",
			fmt.Sprintf("Display name must be %d characters or fewer", MaxDisplayNameLength))
	}
	if len(update.PhoneNumber) > MaxPhoneLength {
		return nil, apperror.ValidationFailed("phoneNumber",
			fmt.Sprintf("Phone number must be %d characters or fewer", MaxPhoneLength))
	}

	u, err := s.users.UpdateProfile(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("service/users: updating %s: %w", id, err)
	}
	return u, nil
}

// Role returns the target's role and active flag.
func (s *UserService) Role(ctx context.Context, actorID, id string) (*model.RoleStatus, error) {
	u, err := s.Get(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	return &model.RoleStatus{Role: u.Role, IsActive: u.IsActive}, nil
}

// SetRole changes role and active flag together. Admins cannot demote or
// deactivate themselves, so the console can never lock out its last admin
// by accident.
func (s *UserService) SetRole(ctx context.Context, actorID, id string, status model.RoleStatus) (*model.User, error) {
	actor, err := s.requireAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !status.Role.Valid() {
		return nil, apperror.ValidationFailed("role", "Role must be one of user, admin, moderator")
	}
	if actor.UID == id && (status.Role != model.RoleAdmin || !status.IsActive) {
		return nil, apperror.ValidationFailed("role", "You cannot demote or deactivate yourself")
	}

	u, err := s.users.UpdateRole(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("service/users: updating role of %s: %w", id, err)
	}

	s.logger.Info("role changed",
		slog.String("by", actor.UID),
		slog.String("userID", id),
		slog.String("role", string(status.Role)),
		slog.Bool("active", status.IsActive),
	)
	return u, nil
}

// SetTodoAccess grants or revokes the todo board.
func (s *UserService) SetTodoAccess(ctx context.Context, actorID, id string, allowed bool) (*model.User, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if err := s.users.SetTodoAccess(ctx, id, allowed); err != nil {
		return nil, fmt.Errorf("service/users: setting todo access of %s: %w", id, err)
	}
	return s.users.GetByID(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	actor, err := s.requireAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.UID == id {
		return apperror.ValidationFailed("id", "You cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/users: deleting %s: %w", id, err)
	}
	s.logger.Info("user deleted", slog.String("by", actor.UID), slog.String("userID", id))
	return nil
}
