package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/trading-dashboard/internal/auth"
	"github.com/sakif/trading-dashboard/internal/config"
	"github.com/sakif/trading-dashboard/internal/server"
)

// setup points the CLI at a fresh backend and a fresh state file.
func setup(t *testing.T) {
	t.Helper()

	srv, err := server.New(config.Server{
		DBPath:     ":memory:",
		JWTSecret:  "test-secret-at-least-16-chars!!",
		TokenTTL:   time.Hour,
		AdminEmail: "admin@example.com",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)),
		server.WithPasswordService(auth.NewPasswordServiceForTest(bcrypt.MinCost)))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})

	t.Setenv("API_BASE_URL", ts.URL+"/api")
	t.Setenv("MARKET_BASE_URL", ts.URL+"/market")
	t.Setenv("STATE_PATH", filepath.Join(t.TempDir(), "state.db"))
	t.Setenv("LOG_LEVEL", "error")
}

// invoke runs one command as its own process would.
func invoke(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestHelp(t *testing.T) {
	code, out, _ := invoke(t)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "usage: dashboard")
	assert.Contains(t, out, "todo-access")
}

func TestUnknownCommand(t *testing.T) {
	setup(t)

	code, _, errOut := invoke(t, "frobnicate")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, `unknown command "frobnicate"`)
}

func TestHealthCommand(t *testing.T) {
	setup(t)

	code, out, _ := invoke(t, "health")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "backend ok\n", out)
}

func TestSessionPersistsAcrossInvocations(t *testing.T) {
	setup(t)

	code, out, _ := invoke(t, "whoami")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "not signed in\n", out)

	code, out, _ = invoke(t, "signup", "-email", "dana@example.com", "-password", "hunter22", "-name", "Dana")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "signed up as dana@example.com (user)\n", out)

	code, out, _ = invoke(t, "whoami")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "dana@example.com")
	assert.Contains(t, out, "valid until")

	// A signed-in user is bounced off the sign-in page.
	code, out, _ = invoke(t, "signin", "-email", "dana@example.com", "-password", "hunter22")
	assert.Equal(t, exitRedirect, code)
	assert.Equal(t, "redirect: /dashboard\n", out)

	code, out, _ = invoke(t, "logout")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "signed out; now at /landing\n", out)

	code, out, _ = invoke(t, "whoami")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "not signed in\n", out)
}

func TestAdminPagesRedirectPlainUser(t *testing.T) {
	setup(t)

	code, _, _ := invoke(t, "signup", "-email", "eve@example.com", "-password", "hunter22")
	require.Equal(t, exitOK, code)

	code, out, errOut := invoke(t, "admin")
	assert.Equal(t, exitRedirect, code)
	assert.Equal(t, "redirect: /profile\n", out)
	assert.Contains(t, errOut, "You do not have admin permissions")

	// open follows the redirect and renders the profile instead.
	code, out, _ = invoke(t, "open", "/admin")
	require.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(out, "/profile  Profile\n"), out)
	assert.Contains(t, out, "eve@example.com")
	assert.Contains(t, out, "balance USDT")

	code, out, _ = invoke(t, "todos")
	assert.Equal(t, exitRedirect, code)
	assert.Equal(t, "redirect: /dashboard\n", out)
}

func TestAdminCommands(t *testing.T) {
	setup(t)

	code, _, _ := invoke(t, "signup", "-email", "admin@example.com", "-password", "hunter22")
	require.Equal(t, exitOK, code)

	code, out, _ := invoke(t, "admin")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "admin@example.com")

	code, _, errOut := invoke(t, "set-role")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "-user is required")

	code, _, _ = invoke(t, "todo-access", "-user", "no-such-user")
	assert.Equal(t, exitFailure, code)

	code, out, _ = invoke(t, "todo-add", "-date", "2026-10-19", "-week", "2026-10-19", "-task", "Review limits")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Review limits")

	code, out, _ = invoke(t, "todos", "-week", "2026-10-26")
	require.Equal(t, exitOK, code)
	assert.NotContains(t, out, "Review limits")
}

func TestSignedOutSignInPage(t *testing.T) {
	setup(t)

	code, out, _ := invoke(t, "open", "/")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "/landing  Welcome\n", out)

	code, out, _ = invoke(t, "profile")
	assert.Equal(t, exitRedirect, code)
	assert.Equal(t, "redirect: /signin\n", out)
}
