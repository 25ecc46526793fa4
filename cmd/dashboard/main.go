// Command dashboard is the terminal front-end of the trading dashboard.
//
// Every subcommand is one view mount or one user action: it loads the
// persisted session, runs the view's guard and then talks to the backend.
// A guard denial prints the redirect target instead of the view.
//
//	dashboard signin -email you@example.com -password secret
//	dashboard open /admin
//	dashboard watch -asset eth
//
// Configuration comes from the environment (or a .env file):
//
//	API_BASE_URL     backend REST root (default http://localhost:3001/api)
//	MARKET_BASE_URL  market data provider (default CoinGecko v3)
//	STATE_PATH       SQLite file holding the session (default data/client-state.db)
//	HTTP_TIMEOUT     per-request timeout, e.g. 15s
//	LOG_LEVEL        debug | info | warn | error
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sakif/trading-dashboard/internal/app"
	"github.com/sakif/trading-dashboard/internal/config"
	"github.com/sakif/trading-dashboard/internal/guard"
	"github.com/sakif/trading-dashboard/internal/notify"
	sqliteRepo "github.com/sakif/trading-dashboard/internal/repository/sqlite"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitRedirect = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stdout)
		return exitOK
	}

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	c, err := newCLI(ctx, cfg, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	defer c.Close()

	return c.exitCode(c.dispatch(ctx, args))
}

// cli holds one composed dashboard for the lifetime of a command.
type cli struct {
	app    *app.App
	db     *sqliteRepo.DB
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

func newCLI(ctx context.Context, cfg *config.Client, stdout, stderr io.Writer) (*cli, error) {
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	// SQLite will not create missing directories.
	if cfg.StatePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o755); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}

	a, err := app.New(ctx, app.Options{
		APIBaseURL:    cfg.APIBaseURL,
		MarketBaseURL: cfg.MarketBaseURL,
		HTTPClient:    &http.Client{Timeout: cfg.HTTPTimeout},
		Store:         db.State(),
		Notifier: notify.Multi{
			notify.NewWriter(stderr),
			notify.LogNotifier{Logger: logger},
		},
		Logger: logger,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &cli{app: a, db: db, out: stdout, errOut: stderr, logger: logger}, nil
}

func (c *cli) Close() {
	c.app.Close()
	if err := c.db.Close(); err != nil {
		c.logger.Warn("closing state store", slog.String("error", err.Error()))
	}
}

// exitCode reports err and maps it to a process status. Notifications were
// already printed by the views, so only errors they did not announce are
// written here.
func (c *cli) exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if to, ok := guard.RedirectTarget(err); ok {
		fmt.Fprintf(c.out, "redirect: %s\n", to)
		return exitRedirect
	}
	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(c.errOut, ue.msg)
		return exitUsage
	}
	if errors.Is(err, context.Canceled) {
		return exitOK
	}
	c.logger.Debug("command failed", slog.String("error", err.Error()))
	return exitFailure
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}
