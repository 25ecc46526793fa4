package view

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/notify"
	"github.com/sakif/trading-dashboard/internal/session"
)

// ProfileBackend is what the profile screen calls.
type ProfileBackend interface {
	GetUser(ctx context.Context, token, id string) (*model.User, error)
	UpdateUser(ctx context.Context, token, id string, update model.ProfileUpdate) (*model.User, error)
	GetWallet(ctx context.Context, token, userID string) (*model.Wallet, error)
	GetTransactions(ctx context.Context, token, userID string) ([]model.Transaction, error)
}

type ProfileService struct {
	backend  ProfileBackend
	sessions *session.Manager
	notifier notify.Notifier
	logger   *slog.Logger
}

func NewProfileService(backend ProfileBackend, sessions *session.Manager, notifier notify.Notifier, logger *slog.Logger) *ProfileService {
	return &ProfileService{backend: backend, sessions: sessions, notifier: notifier, logger: logger}
}

// Load fetches the signed-in user's record.
func (s *ProfileService) Load(ctx context.Context) (*model.User, error) {
	sess, err := currentSession(s.sessions)
	if err != nil {
		return nil, err
	}
	user, err := s.backend.GetUser(ctx, sess.Token, sess.UserID)
	if err != nil {
		return nil, reportFailure(ctx, s.notifier, err, "Failed to load profile")
	}
	return user, nil
}

// Update changes display name and phone number.
func (s *ProfileService) Update(ctx context.Context, displayName, phoneNumber string) (*model.User, error) {
	sess, err := currentSession(s.sessions)
	if err != nil {
		return nil, err
	}
	update := model.ProfileUpdate{
		DisplayName: strings.TrimSpace(displayName),
		PhoneNumber: strings.TrimSpace(phoneNumber),
	}
	user, err := s.backend.UpdateUser(ctx, sess.Token, sess.UserID, update)
	if err != nil {
		return nil, reportFailure(ctx, s.notifier, err, fallbackFor(err, "Update failed"))
	}
	s.notifier.Notify(ctx, notify.Info("Success", "Profile updated successfully!"))
	s.logger.Info("profile updated", slog.String("userID", sess.UserID))
	return user, nil
}

// Wallet returns balances and recent transactions.
func (s *ProfileService) Wallet(ctx context.Context) (*model.Wallet, []model.Transaction, error) {
	sess, err := currentSession(s.sessions)
	if err != nil {
		return nil, nil, err
	}
	wallet, err := s.backend.GetWallet(ctx, sess.Token, sess.UserID)
	if err != nil {
		return nil, nil, reportFailure(ctx, s.notifier, err, "Failed to load wallet")
	}
	txs, err := s.backend.GetTransactions(ctx, sess.Token, sess.UserID)
	if err != nil {
		return nil, nil, reportFailure(ctx, s.notifier, err, "Failed to load transactions")
	}
	return wallet, txs, nil
}
