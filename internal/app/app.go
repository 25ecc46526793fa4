// Package app composes the dashboard: one session context, one API client,
// one guard and one set of shared market feeds, handed to every view.
//
// MOUNTING A VIEW:
// Each mount runs the view's guard policy first and loads protected data only
// when the decision is Authorized. A denial comes back as a
// *guard.RedirectError carrying the path to show instead.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sakif/trading-dashboard/internal/api"
	"github.com/sakif/trading-dashboard/internal/guard"
	"github.com/sakif/trading-dashboard/internal/market"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/notify"
	"github.com/sakif/trading-dashboard/internal/session"
	"github.com/sakif/trading-dashboard/internal/view"
)

// maxRedirects bounds Open; policies never chain more than two hops.
const maxRedirects = 4

type Options struct {
	APIBaseURL    string
	MarketBaseURL string
	HTTPClient    *http.Client
	Store         session.Store
	Notifier      notify.Notifier
	Logger        *slog.Logger
	Walk          *market.RandomWalk
}

type App struct {
	Sessions *session.Manager
	API      *api.Client
	Market   *market.Client
	Feeds    *market.Feeds
	Guard    *guard.Guard
	Notifier notify.Notifier

	Auth      *view.AuthService
	Profile   *view.ProfileService
	Portfolio *view.PortfolioService
	Admin     *view.AdminService
	Todos     *view.TodoService
	Trading   *view.TradingDesk

	logger *slog.Logger
}

// New wires the dashboard and loads the persisted session.
func New(ctx context.Context, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.LogNotifier{Logger: logger}
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("app: a session store is required")
	}

	apiOpts := []api.Option{api.WithLogger(logger.With(slog.String("component", "api")))}
	if opts.HTTPClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(opts.HTTPClient))
	}
	client := api.New(opts.APIBaseURL, apiOpts...)

	sessions := session.NewManager(opts.Store, logger.With(slog.String("component", "session")))
	if _, err := sessions.Load(ctx); err != nil {
		return nil, fmt.Errorf("app: loading session: %w", err)
	}

	marketClient := market.NewClient(opts.MarketBaseURL, opts.HTTPClient, logger.With(slog.String("component", "market")))
	feeds := market.NewFeeds(marketClient, opts.Walk, logger)

	a := &App{
		Sessions: sessions,
		API:      client,
		Market:   marketClient,
		Feeds:    feeds,
		Guard:    guard.New(sessions, client, notifier, logger.With(slog.String("component", "guard"))),
		Notifier: notifier,
		logger:   logger,
	}
	a.Auth = view.NewAuthService(client, sessions, notifier, logger)
	a.Profile = view.NewProfileService(client, sessions, notifier, logger)
	a.Portfolio = view.NewPortfolioService(client, a.prices, sessions, logger)
	a.Admin = view.NewAdminService(client, sessions, notifier, logger)
	a.Todos = view.NewTodoService(client, sessions, notifier, logger)
	a.Trading = view.NewTradingDesk(feeds.Trading)
	return a, nil
}

// Close stops every feed.
func (a *App) Close() {
	a.Feeds.Stop()
}

// prices prefers the shared 60s feed and falls back to a direct fetch when
// nobody has subscribed yet.
func (a *App) prices(ctx context.Context) (map[string]decimal.Decimal, error) {
	if latest, ok := a.Feeds.Prices.Latest(); ok {
		return latest, nil
	}
	raw, err := a.Market.SimplePrices(ctx, market.TrackedIDs())
	if err != nil {
		return nil, err
	}
	return market.PriceMap(raw), nil
}

// Open navigates to path, following guard redirects, and returns the path
// that ends up displayed.
func (a *App) Open(ctx context.Context, path string) (Route, error) {
	sess := a.Sessions.Current()
	route := Resolve(path, sess)
	for range maxRedirects {
		if route.Policy == nil {
			return route, nil
		}
		d := a.Guard.Check(ctx, *route.Policy)
		if d.State == guard.Authorized {
			return route, nil
		}
		a.logger.Debug("redirect", slog.String("from", route.Path), slog.String("to", d.Redirect))
		route = Resolve(d.Redirect, d.Session)
	}
	return route, fmt.Errorf("app: too many redirects opening %s", path)
}

// =========================================================================
// VIEW MOUNTS
// =========================================================================

type DashboardView struct {
	Session   session.Session
	Valuation *view.Valuation // nil when wallet or prices could not be loaded
}

func (a *App) Dashboard(ctx context.Context) (*DashboardView, error) {
	d := a.Guard.Check(ctx, guard.Dashboard)
	if err := d.Err(); err != nil {
		return nil, err
	}
	v, err := a.Portfolio.Value(ctx)
	if err != nil {
		a.logger.Warn("dashboard valuation unavailable", slog.String("error", err.Error()))
	}
	return &DashboardView{Session: d.Session, Valuation: v}, nil
}

type TradingView struct {
	Markets []model.MarketSnapshot
	Quote   view.Quote
}

// TradingMarkets mounts the trading view and returns the current markets.
func (a *App) TradingMarkets(ctx context.Context, asset string) (*TradingView, error) {
	if err := a.Guard.Check(ctx, guard.Trading).Err(); err != nil {
		return nil, err
	}
	markets, err := a.Market.Markets(ctx, market.TrackedIDs(), false)
	if err != nil {
		a.Notifier.Notify(ctx, notify.Error("Error", "Failed to load market data"))
		return nil, err
	}
	if asset != "" {
		a.Trading.Select(asset)
	}
	q, _ := a.Trading.Quote(markets)
	return &TradingView{Markets: markets, Quote: q}, nil
}

type ProfileView struct {
	User         *model.User
	Wallet       *model.Wallet
	Transactions []model.Transaction
}

func (a *App) ProfilePage(ctx context.Context) (*ProfileView, error) {
	d := a.Guard.Check(ctx, guard.Profile)
	if err := d.Err(); err != nil {
		return nil, err
	}
	pv := &ProfileView{User: d.User}
	wallet, txs, err := a.Profile.Wallet(ctx)
	if err == nil {
		pv.Wallet, pv.Transactions = wallet, txs
	}
	return pv, nil
}

func (a *App) AdminUsers(ctx context.Context) ([]model.User, error) {
	if err := a.Guard.Check(ctx, guard.AdminConsole).Err(); err != nil {
		return nil, err
	}
	return a.Admin.Users(ctx)
}

func (a *App) IPAddressLog(ctx context.Context) ([]model.IPRecord, error) {
	if err := a.Guard.Check(ctx, guard.IPAddresses).Err(); err != nil {
		return nil, err
	}
	return a.Admin.IPAddresses(ctx)
}

type TodoView struct {
	User      *model.User
	Week      *view.Week
	Assignees []model.User
}

func (a *App) TodoWeek(ctx context.Context, start time.Time) (*TodoView, error) {
	d := a.Guard.Check(ctx, guard.Todos)
	if err := d.Err(); err != nil {
		return nil, err
	}
	week, err := a.Todos.Load(ctx, start)
	if err != nil {
		return nil, err
	}
	tv := &TodoView{User: d.User, Week: week}
	if users, err := a.Todos.Assignees(ctx); err == nil {
		tv.Assignees = users
	}
	return tv, nil
}

// Logout clears the session and returns the landing route.
func (a *App) Logout(ctx context.Context) (Route, error) {
	to, err := a.Guard.Logout(ctx)
	if err != nil {
		return Route{}, err
	}
	return Resolve(to, session.Session{}), nil
}
