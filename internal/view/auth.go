package view

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/trading-dashboard/internal/api"
	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/notify"
	"github.com/sakif/trading-dashboard/internal/session"
)

// Authenticator is the part of the API client used by sign-in and sign-up.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*model.AuthData, error)
	SignUp(ctx context.Context, creds api.Credentials) (*model.AuthData, error)
}

// AuthService backs the sign-in and sign-up screens.
type AuthService struct {
	backend  Authenticator
	sessions *session.Manager
	notifier notify.Notifier
	logger   *slog.Logger
}

func NewAuthService(backend Authenticator, sessions *session.Manager, notifier notify.Notifier, logger *slog.Logger) *AuthService {
	return &AuthService{backend: backend, sessions: sessions, notifier: notifier, logger: logger}
}

// SignIn authenticates and, on success, persists the session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*model.AuthData, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, reportFailure(ctx, s.notifier,
			apperror.ValidationFailed("email", "Please fill in all fields"), "")
	}

	data, err := s.backend.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Warn("sign-in failed", slog.String("email", email), slog.String("error", err.Error()))
		return nil, reportFailure(ctx, s.notifier, err, fallbackFor(err, "Signin failed"))
	}
	return s.establish(ctx, data, "Signed in successfully!")
}

// SignUp creates an account and signs in with it.
func (s *AuthService) SignUp(ctx context.Context, creds api.Credentials) (*model.AuthData, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	creds.DisplayName = strings.TrimSpace(creds.DisplayName)
	if creds.Email == "" || creds.Password == "" {
		return nil, reportFailure(ctx, s.notifier,
			apperror.ValidationFailed("email", "Please fill in all fields"), "")
	}

	data, err := s.backend.SignUp(ctx, creds)
	if err != nil {
		s.logger.Warn("sign-up failed", slog.String("email", creds.Email), slog.String("error", err.Error()))
		return nil, reportFailure(ctx, s.notifier, err, fallbackFor(err, "Signup failed"))
	}
	return s.establish(ctx, data, "Account created successfully!")
}

func (s *AuthService) establish(ctx context.Context, data *model.AuthData, message string) (*model.AuthData, error) {
	if err := s.sessions.Establish(ctx, *data); err != nil {
		return nil, reportFailure(ctx, s.notifier, fmt.Errorf("view: saving session: %w", err), "Something went wrong")
	}
	s.notifier.Notify(ctx, notify.Info("Success", message))
	return data, nil
}

// fallbackFor picks the text shown when err has no backend message: a
// rejection without message gets rejected, everything else "Something went
// wrong".
func fallbackFor(err error, rejected string) string {
	if isBackendMessage(err) {
		return rejected
	}
	return "Something went wrong"
}
