package view

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/notify"
	"github.com/sakif/trading-dashboard/internal/session"
)

const (
	adminUserLimit = 100
	ipRecordLimit  = 50
)

// AdminBackend is what the admin console and the IP address log call.
type AdminBackend interface {
	ListUsers(ctx context.Context, token string, limit int) ([]model.User, error)
	UpdateRole(ctx context.Context, token, id string, role model.Role, isActive bool) (*model.User, error)
	DeleteUser(ctx context.Context, token, id string) error
	SetTodoAccess(ctx context.Context, token, id string, allowed bool) (*model.User, error)
	Airdrop(ctx context.Context, token, userID, symbol string, amount decimal.Decimal) (*model.Wallet, error)
	ListIPAddresses(ctx context.Context, token string, limit int) ([]model.IPRecord, error)
	DeleteIPAddress(ctx context.Context, token, id string) error
}

// AdminService backs the admin console. Callers must pass the admin guard
// first; the backend enforces the same rule again.
type AdminService struct {
	backend  AdminBackend
	sessions *session.Manager
	notifier notify.Notifier
	logger   *slog.Logger
}

func NewAdminService(backend AdminBackend, sessions *session.Manager, notifier notify.Notifier, logger *slog.Logger) *AdminService {
	return &AdminService{backend: backend, sessions: sessions, notifier: notifier, logger: logger}
}

// Users lists up to 100 accounts.
func (s *AdminService) Users(ctx context.Context) ([]model.User, error) {
	sess, err := currentSession(s.sessions)
	if err != nil {
		return nil, err
	}
	users, err := s.backend.ListUsers(ctx, sess.Token, adminUserLimit)
	if err != nil {
		return nil, reportFailure(ctx, s.notifier, err, "Failed to load users")
	}
	return users, nil
}

// SetRole changes a user's role, keeping their active flag.
func (s *AdminService) SetRole(ctx context.Context, target *model.User, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, reportFailure(ctx, s.notifier,
			apperror.ValidationFailed("role", fmt.Sprintf("Unknown role %q", role)), "")
	}
	updated, err := s.updateRole(ctx, target.UID, role, target.IsActive, "Failed to update role")
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, notify.Info("Success", "User role updated successfully"))
	return updated, nil
}

// SetActive activates or deactivates a user, keeping their role.
func (s *AdminService) SetActive(ctx context.Context, target *model.User, active bool) (*model.User, error) {
	updated, err := s.updateRole(ctx, target.UID, target.Role, active, "Failed to update status")
	if err != nil {
		return nil, err
	}
	state := "deactivated"
	if active {
		state = "activated"
	}
	s.notifier.Notify(ctx, notify.Info("Success", fmt.Sprintf("User %s successfully", state)))
	return updated, nil
}

func (s *AdminService) updateRole(ctx context.Context, id string, role model.Role, active bool, fallback string) (*model.User, error) {
	sess, err := currentSession(s.sessions)
	if err != nil {
		return nil, err
	}
	updated, err := s.backend.UpdateRole(ctx, sess.Token, id, role, active)
	if err != nil {
		return nil, reportFailure(ctx, s.notifier, err, fallback)
	}
	s.logger.Info("user role changed",
		slog.String("userID", id),
		slog.String("role", string(role)),
		slog.Bool("active", active),
	)
	return updated, nil
}

// SetTodoAccess grants or revokes the todo board for a user.
func (s *AdminService) SetTodoAccess(ctx context.Context, id string, allowed bool) (*model.User, error) {
	sess, err := currentSession(s.sessions)
	if err != nil {
		return nil, err
	}
	updated, err := s.backend.SetTodoAccess(ctx, sess.Token, id, allowed)
	if err != nil {
		return nil, reportFailure(ctx, s.notifier, err, "Failed to update todo access")
	}
	s.logger.Info("todo access changed", slog.String("userID", id), slog.Bool("allowed", allowed))
	s.notifier.Notify(ctx, notify.Info("Success", "Todo access updated successfully"))
	return updated, nil
}

func (s *AdminService) Delete(ctx context.Context, id string) error {
	sess, err := currentSession(s.sessions)
	if err != nil {
		return err
	}
	if err := s.backend.DeleteUser(ctx, sess.Token, id); err != nil {
		return reportFailure(ctx, s.notifier, err, "Failed to delete user")
	}
	s.notifier.Notify(ctx, notify.Info("Success", "User deleted successfully"))
	return nil
}

// Airdrop credits amount of symbol to a user. The amount must be positive;
// that is checked before any network call.
func (s *AdminService) Airdrop(ctx context.Context, userID, symbol, amount string) (*model.Wallet, error) {
	sess, err := currentSession(s.sessions)
	if err != nil {
		return nil, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	value, perr := decimal.NewFromString(strings.TrimSpace(amount))
	if perr != nil || !value.IsPositive() || symbol == "" || userID == "" {
		return nil, reportFailure(ctx, s.notifier,
			apperror.ValidationFailed("amount", "Please enter a valid amount"), "")
	}

	wallet, err := s.backend.Airdrop(ctx, sess.Token, userID, symbol, value)
	if err != nil {
		return nil, reportFailure(ctx, s.notifier, err, "Failed to send airdrop")
	}
	s.notifier.Notify(ctx, notify.Info("Airdrop Successful", fmt.Sprintf("%s %s sent to user", value, symbol)))
	return wallet, nil
}

// IPAddresses lists the 50 most recent sign-up addresses.
func (s *AdminService) IPAddresses(ctx context.Context) ([]model.IPRecord, error) {
	sess, err := currentSession(s.sessions)
	if err != nil {
		return nil, err
	}
	records, err := s.backend.ListIPAddresses(ctx, sess.Token, ipRecordLimit)
	if err != nil {
		return nil, reportFailure(ctx, s.notifier, err, "Failed to load IP addresses")
	}
	return records, nil
}

func (s *AdminService) DeleteIP(ctx context.Context, id string) error {
	sess, err := currentSession(s.sessions)
	if err != nil {
		return err
	}
	if err := s.backend.DeleteIPAddress(ctx, sess.Token, id); err != nil {
		return reportFailure(ctx, s.notifier, err, "Failed to delete IP address")
	}
	s.notifier.Notify(ctx, notify.Info("Success", "IP address record deleted successfully"))
	return nil
}
