// Package view holds the dashboard's view services: the call sites that turn
// session, API client and market feeds into what each screen shows.
//
// ERROR HANDLING AT THE CALL SITE:
// Every failure is reported twice: once as a returned error (so the CLI can
// set its exit code) and once as a notification (so the user sees a toast).
// Backend-reported failures show the backend's message; anything else shows
// the operation's fallback text. Nothing is retried.
package view

import (
	"context"
	"errors"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/notify"
	"github.com/sakif/trading-dashboard/internal/session"
)

// ErrNotSignedIn is returned by services that need a session when none is
// loaded. The guard normally redirects before a service gets this far.
var ErrNotSignedIn = apperror.Unauthorized("not signed in")

func currentSession(m *session.Manager) (session.Session, error) {
	s := m.Current()
	if !s.Authenticated() {
		return s, ErrNotSignedIn
	}
	return s, nil
}

// reportFailure notifies the user about err and returns it unchanged.
func reportFailure(ctx context.Context, n notify.Notifier, err error, fallback string) error {
	desc := fallback
	if isBackendMessage(err) {
		desc = apperror.Message(err, fallback)
	}
	n.Notify(ctx, notify.Error("Error", desc))
	return err
}

// isBackendMessage reports whether err carries text meant for the user:
// a backend refusal or a client-side validation failure.
func isBackendMessage(err error) bool {
	for _, target := range []error{
		apperror.ErrRejected, apperror.ErrUnauthorized, apperror.ErrForbidden,
		apperror.ErrNotFound, apperror.ErrValidation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
