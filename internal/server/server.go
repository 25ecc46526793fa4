// Package server wires the development backend: database, services,
// handlers and the chi route table.
//
// This is the "composition root": every dependency is built in New and
// nowhere else, so handlers and services never construct their own
// collaborators.
//
//	sqlite.DB → repositories → services → handlers → chi routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/trading-dashboard/internal/auth"
	"github.com/sakif/trading-dashboard/internal/config"
	"github.com/sakif/trading-dashboard/internal/handler"
	"github.com/sakif/trading-dashboard/internal/middleware"
	sqliteRepo "github.com/sakif/trading-dashboard/internal/repository/sqlite"
	"github.com/sakif/trading-dashboard/internal/service"
)

// Server owns the router and the database connection. The database is
// closed by Start on shutdown, or by Close when Start is never called.
type Server struct {
	router *chi.Mux
	config config.Server
	logger *slog.Logger
	db     *sqliteRepo.DB
	tokens *auth.TokenService
}

// Option customises a Server. Tests use them to trade bcrypt cost for speed.
type Option func(*options)

type options struct {
	passwords *auth.PasswordService
}

// WithPasswordService replaces the default (cost 12) password hasher.
func WithPasswordService(p *auth.PasswordService) Option {
	return func(o *options) { o.passwords = p }
}

// New opens the database and builds the route table.
func New(cfg config.Server, logger *slog.Logger, opts ...Option) (*Server, error) {
	o := options{passwords: auth.NewPasswordService()}
	for _, opt := range opts {
		opt(&o)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		tokens: tokens,
	}
	s.setupRoutes(o)

	return s, nil
}

// Router exposes the handler for httptest servers.
func (s *Server) Router() http.Handler { return s.router }

// Close releases the database. Only needed when Start is not used.
func (s *Server) Close() error { return s.db.Close() }

// setupRoutes configures middleware and routes.
//
// ROUTE TABLE:
//
//	GET    /check                          health (public)
//	POST   /api/user/signup                public
//	POST   /api/user/signin                public
//	GET    /api/user                       admin or todo users
//	GET    /api/user/{id}                  self or admin
//	PUT    /api/user/{id}                  self or admin
//	DELETE /api/user/{id}                  admin
//	GET    /api/user/{id}/role             self or admin
//	PATCH  /api/user/{id}/role             admin
//	PATCH  /api/user/{id}/todo-access      admin
//	GET    /api/wallet/{userId}            self or admin
//	GET    /api/wallet/{userId}/transactions
//	POST   /api/wallet/trade               self or admin
//	PATCH  /api/wallet/balance             admin (airdrop)
//	GET    /api/todos?startDate&endDate    todo access
//	POST   /api/todos                      todo access
//	PUT    /api/todos/{id}                 todo access
//	PATCH  /api/todos/{id}/complete        todo access
//	DELETE /api/todos/{id}                 creator or admin
//	GET    /api/ipaddresses?limit          admin
//	DELETE /api/ipaddresses/{id}           admin
//
// MIDDLEWARE ORDER MATTERS:
// RequestID before Logger so every line carries the id; RealIP before the
// handlers so sign-up records the forwarded address; Recoverer turns a
// panic into a 500 instead of a dropped connection.
func (s *Server) setupRoutes(o options) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	users := s.db.Users()
	wallets := s.db.Wallets()
	todos := s.db.Todos()
	ips := s.db.IPs()

	authHandler := handler.NewAuthHandler(
		service.NewAuthService(users, wallets, ips, s.tokens, o.passwords, s.config.AdminEmail, s.logger),
		s.logger,
	)
	userHandler := handler.NewUserHandler(service.NewUserService(users, s.logger), s.logger)
	walletHandler := handler.NewWalletHandler(service.NewWalletService(users, wallets, s.logger), s.logger)
	todoHandler := handler.NewTodoHandler(service.NewTodoService(users, todos, s.logger), s.logger)
	ipHandler := handler.NewIPHandler(service.NewIPService(users, ips, s.logger), s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	s.router.Get("/check", healthHandler.HandleCheck)

	requireAuth := auth.RequireAuth(s.tokens)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/signup", authHandler.HandleSignUp)
			r.Post("/signin", authHandler.HandleSignIn)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/", userHandler.HandleList)
				r.Get("/{id}", userHandler.HandleGet)
				r.Put("/{id}", userHandler.HandleUpdate)
				r.Delete("/{id}", userHandler.HandleDelete)
				r.Get("/{id}/role", userHandler.HandleGetRole)
				r.Patch("/{id}/role", userHandler.HandleUpdateRole)
				r.Patch("/{id}/todo-access", userHandler.HandleTodoAccess)
			})
		})

		r.With(requireAuth).Route("/wallet", func(r chi.Router) {
			r.Post("/trade", walletHandler.HandleTrade)
			r.Patch("/balance", walletHandler.HandleAirdrop)
			r.Get("/{userId}", walletHandler.HandleGet)
			r.Get("/{userId}/transactions", walletHandler.HandleTransactions)
		})

		r.With(requireAuth).Route("/todos", func(r chi.Router) {
			r.Get("/", todoHandler.HandleList)
			r.Post("/", todoHandler.HandleCreate)
			r.Put("/{id}", todoHandler.HandleUpdate)
			r.Patch("/{id}/complete", todoHandler.HandleToggle)
			r.Delete("/{id}", todoHandler.HandleDelete)
		})

		r.With(requireAuth).Route("/ipaddresses", func(r chi.Router) {
			r.Get("/", ipHandler.HandleList)
			r.Delete("/{id}", ipHandler.HandleDelete)
		})
	})
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully:
//  1. stop accepting connections
//  2. give in-flight requests 30s to finish
//  3. close the database (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d/api", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
