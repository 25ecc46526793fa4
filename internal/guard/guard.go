// Package guard decides whether a protected view may render.
//
// LIFECYCLE OF ONE CHECK:
//
//	checking ──(no session)────────────────────────────▶ denied → SignedOutRedirect
//	   │
//	   ├──(policy needs no user record)────────────────▶ authorized
//	   │
//	   └─ fetch canonical user
//	        ├─(backend said success:false)─────────────▶ denied → RefusedRedirect
//	        │                                                     (else DeniedRedirect)
//	        ├─(transport / bad payload)────────────────▶ denied → ErrorRedirect
//	        ├─(predicate false)────────────────────────▶ denied → DeniedRedirect
//	        └─(predicate true)─────────────────────────▶ authorized
//
// The user only ever sees a notification and a redirect. The reason is kept
// for the logs and as the cause of the RedirectError: errors.Is matches
// apperror.ErrUnauthorized for a missing session, apperror.ErrForbidden for
// a failed predicate, and the fetch error itself otherwise.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/notify"
	"github.com/sakif/trading-dashboard/internal/session"
)

type State int

const (
	Checking State = iota
	Authorized
	Denied
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Predicate is a view's access rule over the freshly fetched user.
type Predicate func(u *model.User) bool

// Admin admits role=admin only.
func Admin(u *model.User) bool { return u.IsAdmin() }

// TodoAccess admits users flagged canAccessTodos, and admins.
func TodoAccess(u *model.User) bool { return u != nil && (u.CanAccessTodos || u.IsAdmin()) }

// UserFetcher is the slice of the API client the guard needs.
type UserFetcher interface {
	GetUser(ctx context.Context, token, id string) (*model.User, error)
}

// Decision is the outcome of Check.
type Decision struct {
	State    State
	Redirect string          // set when State is Denied
	Session  session.Session // the session the decision was made on
	User     *model.User     // set when the policy fetched the user
	Cause    error           // why it was denied; nil for a guest bounce
}

// Err turns a denial into a *RedirectError so callers can return it.
func (d Decision) Err() error {
	if d.State == Authorized {
		return nil
	}
	return &RedirectError{To: d.Redirect, Cause: d.Cause}
}

// RedirectError tells the front-end to navigate instead of rendering.
type RedirectError struct {
	To    string
	Cause error
}

func (e *RedirectError) Error() string {
	if e.Cause == nil {
		return "redirect to " + e.To
	}
	return "redirect to " + e.To + ": " + e.Cause.Error()
}

func (e *RedirectError) Unwrap() error { return e.Cause }

// RedirectTarget extracts the navigation target from err, if any.
func RedirectTarget(err error) (string, bool) {
	var re *RedirectError
	if errors.As(err, &re) {
		return re.To, true
	}
	return "", false
}

// Guard runs policies against the current session.
type Guard struct {
	sessions *session.Manager
	users    UserFetcher
	notifier notify.Notifier
	logger   *slog.Logger
	observe  func(view string, s State)
}

type Option func(*Guard)

// WithObserver is called on every state transition. Used by front-ends to
// show a spinner while a check is in flight.
func WithObserver(fn func(view string, s State)) Option {
	return func(g *Guard) { g.observe = fn }
}

func New(sessions *session.Manager, users UserFetcher, notifier notify.Notifier, logger *slog.Logger, opts ...Option) *Guard {
	g := &Guard{
		sessions: sessions,
		users:    users,
		notifier: notifier,
		logger:   logger,
		observe:  func(string, State) {},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check evaluates p. It never calls the backend without an authenticated
// session, and never returns Authorized when the predicate fails.
func (g *Guard) Check(ctx context.Context, p Policy) Decision {
	g.observe(p.View, Checking)

	sess, err := g.sessions.Load(ctx)
	if err != nil {
		g.logger.WarnContext(ctx, "session unreadable, treating as signed out",
			slog.String("view", p.View),
			slog.String("error", err.Error()),
		)
		sess = session.Session{}
	}

	if p.Guest {
		if sess.Authenticated() {
			return g.deny(ctx, p, sess, nil, p.SignedInRedirect, notify.Notification{}, "already signed in", nil)
		}
		return g.allow(p, sess, nil)
	}

	if !sess.Authenticated() {
		return g.deny(ctx, p, sess, nil, p.SignedOutRedirect, notify.Notification{}, "no session", apperror.ErrUnauthorized)
	}

	if !p.RequireUser {
		return g.allow(p, sess, nil)
	}

	user, err := g.users.GetUser(ctx, sess.Token, sess.UserID)
	if err != nil {
		if isBackendRefusal(err) {
			to, n := p.refusal()
			return g.deny(ctx, p, sess, nil, to, n, "backend refused user fetch", err)
		}
		return g.deny(ctx, p, sess, nil, p.ErrorRedirect, p.Failed, "user fetch failed", err)
	}

	if p.Allow != nil && !p.Allow(user) {
		return g.deny(ctx, p, sess, user, p.DeniedRedirect, p.Denied, "predicate rejected user", apperror.ErrForbidden)
	}
	return g.allow(p, sess, user)
}

// Logout clears the session and returns where to go next. It does not call
// the backend.
func (g *Guard) Logout(ctx context.Context) (string, error) {
	if err := g.sessions.Clear(ctx); err != nil {
		return "", fmt.Errorf("guard: logout: %w", err)
	}
	g.notifier.Notify(ctx, notify.Info("Logged out", "You have been logged out successfully"))
	return RouteLanding, nil
}

func (g *Guard) allow(p Policy, sess session.Session, user *model.User) Decision {
	g.observe(p.View, Authorized)
	return Decision{State: Authorized, Session: sess, User: user}
}

func (g *Guard) deny(ctx context.Context, p Policy, sess session.Session, user *model.User,
	to string, n notify.Notification, reason string, cause error) Decision {
	attrs := []any{
		slog.String("view", p.View),
		slog.String("reason", reason),
		slog.String("redirect", to),
	}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	g.logger.WarnContext(ctx, "view denied", attrs...)

	if n.Title != "" {
		g.notifier.Notify(ctx, n)
	}
	g.observe(p.View, Denied)
	return Decision{State: Denied, Redirect: to, Session: sess, User: user, Cause: cause}
}

// isBackendRefusal reports whether the backend answered with an envelope
// (success:false) rather than the request failing in transit.
func isBackendRefusal(err error) bool {
	return errors.Is(err, apperror.ErrRejected) ||
		errors.Is(err, apperror.ErrUnauthorized) ||
		errors.Is(err, apperror.ErrForbidden) ||
		errors.Is(err, apperror.ErrNotFound)
}
