package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/auth"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/repository"
)

// StarterBalance is credited in USDT to every new wallet so the trade
// endpoint has something to settle against.
var StarterBalance = decimal.NewFromInt(10000)

// AuthService handles sign-up and sign-in.
//
//	AuthHandler (HTTP) → AuthService → UserRepository / WalletRepository / IPRepository
//	                                 ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	users      repository.UserRepository
	wallets    repository.WalletRepository
	ips        repository.IPRepository
	tokens     *auth.TokenService
	passwords  *auth.PasswordService
	adminEmail string
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewAuthService wires an AuthService. adminEmail, when non-empty, is
// promoted to admin at sign-up so a fresh database has someone to run the
// admin console.
func NewAuthService(
	users repository.UserRepository,
	wallets repository.WalletRepository,
	ips repository.IPRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	adminEmail string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		wallets:    wallets,
		ips:        ips,
		tokens:     tokens,
		passwords:  passwords,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}
}

// SignUpInput is everything the handler knows about a sign-up request.
type SignUpInput struct {
	Email       string
	Password    string
	DisplayName string
	IPAddress   string
	UserAgent   string
}

// errBadCredentials deliberately does not say which half was wrong.
var errBadCredentials = apperror.Unauthorized("Invalid email or password")

// SignUp creates the account, records the caller's address, credits the
// starter balance and issues a token.
//
// Only account creation is fatal. A failed IP record or starter credit is
// logged: the user can still sign in and an admin can airdrop later.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*model.AuthData, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, apperror.ValidationFailed("email", "Please enter a valid email address")
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Email:       email,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Role:        model.RoleUser,
		IsActive:    true,
		IPAddress:   in.IPAddress,
	}
	if s.adminEmail != "" && email == s.adminEmail {
		user.Role = model.RoleAdmin
		user.CanAccessTodos = true
	}

	if err := s.users.Create(ctx, user, hash); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, &apperror.AppError{Err: apperror.ErrConflict, Message: "Email already in use", Field: "email"}
		}
		return nil, fmt.Errorf("service/auth: creating user %s: %w", email, err)
	}

	s.logger.Info("user signed up",
		slog.String("userID", user.UID),
		slog.String("role", string(user.Role)),
	)

	if in.IPAddress != "" {
		rec := &model.IPRecord{IPAddress: in.IPAddress, UserAgent: in.UserAgent, UserID: user.UID}
		if err := s.ips.Record(ctx, rec); err != nil {
			s.logger.Warn("recording sign-up address failed",
				slog.String("userID", user.UID),
				slog.String("error", err.Error()),
			)
		}
	}

	deposit := &model.Transaction{
		UserID: user.UID,
		Symbol: "USDT",
		Type:   "deposit",
		Amount: StarterBalance,
		Price:  decimal.NewFromInt(1),
	}
	if err := s.wallets.Adjust(ctx, user.UID, map[string]decimal.Decimal{"USDT": StarterBalance}, deposit); err != nil {
		s.logger.Warn("crediting starter balance failed",
			slog.String("userID", user.UID),
			slog.String("error", err.Error()),
		)
	}

	return s.issue(user)
}

// SignIn verifies the credentials and issues a token. Deactivated accounts
// are refused even with the right password.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*model.AuthData, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "Email and password are required")
	}

	found, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if err := s.passwords.Verify(found.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Info("sign-in rejected", slog.String("userID", found.UID))
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	if !found.IsActive {
		return nil, apperror.Forbidden("Account is deactivated")
	}

	return s.issue(&found.User)
}

func (s *AuthService) issue(user *model.User) (*model.AuthData, error) {
	token, err := s.tokens.Generate(user.UID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.UID, err)
	}
	return &model.AuthData{
		UID:         user.UID,
		Token:       token,
		Email:       user.Email,
		Role:        user.Role,
		DisplayName: user.DisplayName,
	}, nil
}
