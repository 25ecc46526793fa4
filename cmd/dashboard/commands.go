package main

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sakif/trading-dashboard/internal/api"
	"github.com/sakif/trading-dashboard/internal/auth"
	"github.com/sakif/trading-dashboard/internal/guard"
	"github.com/sakif/trading-dashboard/internal/market"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/view"
)

// snapshotTimeout bounds a one-shot read of a feed whose upstream is down.
const snapshotTimeout = 30 * time.Second

const dateLayout = "2006-01-02"

type command struct {
	usage string
	run   func(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error
}

// commands is the full subcommand table, keyed by name.
var commands = map[string]command{
	"signup":         {"create an account and sign in", cmdSignUp},
	"signin":         {"sign in with email and password", cmdSignIn},
	"logout":         {"clear the stored session", cmdLogout},
	"whoami":         {"show the stored session", cmdWhoAmI},
	"open":           {"navigate to a path, following redirects", cmdOpen},
	"profile":        {"show your profile, wallet and transactions", cmdProfile},
	"profile-update": {"change display name and phone number", cmdProfileUpdate},
	"admin":          {"list users (admin)", cmdAdmin},
	"set-role":       {"change a user's role (admin)", cmdSetRole},
	"set-active":     {"activate or deactivate a user (admin)", cmdSetActive},
	"delete-user":    {"delete a user (admin)", cmdDeleteUser},
	"todo-access":    {"grant or revoke todo access (admin)", cmdTodoAccess},
	"airdrop":        {"credit a balance to a user (admin)", cmdAirdrop},
	"ips":            {"list sign-up IP addresses (admin)", cmdIPs},
	"delete-ip":      {"delete an IP address record (admin)", cmdDeleteIP},
	"todos":          {"show a week of todos", cmdTodos},
	"todo-add":       {"add a todo", cmdTodoAdd},
	"todo-edit":      {"edit a todo", cmdTodoEdit},
	"todo-toggle":    {"mark a todo done or undone", cmdTodoToggle},
	"todo-delete":    {"delete a todo", cmdTodoDelete},
	"wallet":         {"show the dashboard header: balances and total value", cmdWallet},
	"trading":        {"show tracked markets and the selected quote", cmdTrading},
	"watch":          {"stream quotes for one pair every 30s", cmdWatch},
	"cards":          {"show price cards with history for one asset", cmdCards},
	"chart":          {"show the demo BTC/USD chart", cmdChart},
	"health":         {"check the backend", cmdHealth},
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: dashboard <command> [flags]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s\t%s\n", name, commands[name].usage)
	}
	tw.Flush()
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		return usagef("unknown command %q; run 'dashboard help'", name)
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return cmd.run(ctx, c, fs, args[1:])
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usagef("%s: %v", fs.Name(), err)
	}
	return nil
}

func required(fs *flag.FlagSet, names ...string) error {
	for _, n := range names {
		if fs.Lookup(n).Value.String() == "" {
			return usagef("%s: -%s is required", fs.Name(), n)
		}
	}
	return nil
}

func (c *cli) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

// =========================================================================
// SESSION
// =========================================================================

func cmdSignUp(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password, at least 6 characters")
	name := fs.String("name", "", "display name")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.app.Guard.Check(ctx, guard.SignUp).Err(); err != nil {
		return err
	}
	data, err := c.app.Auth.SignUp(ctx, api.Credentials{Email: *email, Password: *password, DisplayName: *name})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "signed up as %s (%s)\n", data.Email, data.Role)
	return nil
}

func cmdSignIn(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.app.Guard.Check(ctx, guard.SignIn).Err(); err != nil {
		return err
	}
	data, err := c.app.Auth.SignIn(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "signed in as %s (%s)\n", data.Email, data.Role)
	return nil
}

func cmdLogout(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	if err := parse(fs, args); err != nil {
		return err
	}
	route, err := c.app.Logout(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "signed out; now at %s\n", route.Path)
	return nil
}

func cmdWhoAmI(_ context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	if err := parse(fs, args); err != nil {
		return err
	}
	sess := c.app.Sessions.Current()
	if !sess.Authenticated() {
		fmt.Fprintln(c.out, "not signed in")
		return nil
	}

	tw := c.table()
	fmt.Fprintf(tw, "user id\t%s\n", sess.UserID)
	fmt.Fprintf(tw, "email\t%s\n", sess.Email)
	fmt.Fprintf(tw, "role\t%s\n", sess.Role)
	// The token is opaque to the client; the expiry is only a hint.
	if exp, err := auth.PeekExpiry(sess.Token); err == nil {
		state := "valid"
		if time.Now().After(exp) {
			state = "expired"
		}
		fmt.Fprintf(tw, "token\t%s until %s\n", state, exp.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

// cmdOpen resolves a path through the guards and renders the view it lands
// on when the view has a terminal rendering.
func cmdOpen(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	if err := parse(fs, args); err != nil {
		return err
	}
	path := fs.Arg(0)
	if path == "" {
		path = "/"
	}
	route, err := c.app.Open(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s  %s\n", route.Path, route.Title)

	switch route.Path {
	case guard.RouteDashboard:
		return cmdWallet(ctx, c, flag.NewFlagSet("wallet", flag.ContinueOnError), nil)
	case guard.RouteProfile:
		return cmdProfile(ctx, c, flag.NewFlagSet("profile", flag.ContinueOnError), nil)
	case "/admin":
		return cmdAdmin(ctx, c, flag.NewFlagSet("admin", flag.ContinueOnError), nil)
	case "/ipaddresses":
		return cmdIPs(ctx, c, flag.NewFlagSet("ips", flag.ContinueOnError), nil)
	case "/todos":
		return cmdTodos(ctx, c, flag.NewFlagSet("todos", flag.ContinueOnError), nil)
	case "/trading":
		return cmdTrading(ctx, c, flag.NewFlagSet("trading", flag.ContinueOnError), nil)
	}
	return nil
}

// =========================================================================
// PROFILE AND WALLET
// =========================================================================

func cmdProfile(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	if err := parse(fs, args); err != nil {
		return err
	}
	pv, err := c.app.ProfilePage(ctx)
	if err != nil {
		return err
	}

	tw := c.table()
	fmt.Fprintf(tw, "email\t%s\n", pv.User.Email)
	fmt.Fprintf(tw, "name\t%s\n", pv.User.DisplayName)
	fmt.Fprintf(tw, "phone\t%s\n", pv.User.PhoneNumber)
	fmt.Fprintf(tw, "role\t%s\n", pv.User.Role)
	fmt.Fprintf(tw, "todo access\t%t\n", pv.User.CanAccessTodos || pv.User.IsAdmin())
	if pv.Wallet != nil {
		for _, sym := range pv.Wallet.Symbols() {
			fmt.Fprintf(tw, "balance %s\t%s\n", sym, pv.Wallet.Balances[sym])
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(pv.Transactions) > 0 {
		fmt.Fprintln(c.out)
		tw = c.table()
		fmt.Fprintln(tw, "WHEN\tTYPE\tSYMBOL\tAMOUNT\tPRICE")
		for _, tx := range pv.Transactions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				tx.CreatedAt.Local().Format(time.DateTime), tx.Type, tx.Symbol, tx.Amount, tx.Price)
		}
		return tw.Flush()
	}
	return nil
}

func cmdProfileUpdate(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	name := fs.String("name", "", "display name")
	phone := fs.String("phone", "", "phone number")
	if err := parse(fs, args); err != nil {
		return err
	}
	d := c.app.Guard.Check(ctx, guard.Profile)
	if err := d.Err(); err != nil {
		return err
	}
	// Unset flags keep the current values.
	if *name == "" {
		*name = d.User.DisplayName
	}
	if *phone == "" {
		*phone = d.User.PhoneNumber
	}
	u, err := c.app.Profile.Update(ctx, *name, *phone)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s  %s\n", u.DisplayName, u.PhoneNumber)
	return nil
}

func cmdWallet(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	if err := parse(fs, args); err != nil {
		return err
	}
	dv, err := c.app.Dashboard(ctx)
	if err != nil {
		return err
	}
	if dv.Valuation == nil {
		fmt.Fprintln(c.out, "portfolio value unavailable")
		return nil
	}

	v := dv.Valuation
	tw := c.table()
	fmt.Fprintln(tw, "SYMBOL\tBALANCE\tPRICE\tVALUE")
	for _, sym := range v.Wallet.Symbols() {
		bal := v.Wallet.Balances[sym]
		price, ok := v.Prices[sym]
		if !ok {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\n", sym, bal)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", sym, bal, price.StringFixed(2), bal.Mul(price).StringFixed(2))
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t%s\n", v.Total.StringFixed(2))
	return tw.Flush()
}

// =========================================================================
// ADMIN
// =========================================================================

// adminTarget mounts the admin console and finds id among its users.
func (c *cli) adminTarget(ctx context.Context, id string) (*model.User, error) {
	users, err := c.app.AdminUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].UID == id {
			return &users[i], nil
		}
	}
	return nil, usagef("no user with id %s", id)
}

func cmdAdmin(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	if err := parse(fs, args); err != nil {
		return err
	}
	users, err := c.app.AdminUsers(ctx)
	if err != nil {
		return err
	}
	tw := c.table()
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tACTIVE\tTODOS\tIP")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%t\t%s\n",
			u.UID, u.Email, u.DisplayName, u.Role, u.IsActive, u.CanAccessTodos, u.IPAddress)
	}
	return tw.Flush()
}

func cmdSetRole(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	id := fs.String("user", "", "user id")
	role := fs.String("role", "", "user | moderator | admin")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "user", "role"); err != nil {
		return err
	}
	target, err := c.adminTarget(ctx, *id)
	if err != nil {
		return err
	}
	_, err = c.app.Admin.SetRole(ctx, target, model.Role(strings.ToLower(*role)))
	return err
}

func cmdSetActive(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	id := fs.String("user", "", "user id")
	active := fs.Bool("active", true, "false deactivates the account")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "user"); err != nil {
		return err
	}
	target, err := c.adminTarget(ctx, *id)
	if err != nil {
		return err
	}
	_, err = c.app.Admin.SetActive(ctx, target, *active)
	return err
}

func cmdDeleteUser(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	id := fs.String("user", "", "user id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "user"); err != nil {
		return err
	}
	if err := c.app.Guard.Check(ctx, guard.AdminConsole).Err(); err != nil {
		return err
	}
	return c.app.Admin.Delete(ctx, *id)
}

func cmdTodoAccess(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	id := fs.String("user", "", "user id")
	allow := fs.Bool("allow", true, "false revokes access")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "user"); err != nil {
		return err
	}
	if err := c.app.Guard.Check(ctx, guard.AdminConsole).Err(); err != nil {
		return err
	}
	_, err := c.app.Admin.SetTodoAccess(ctx, *id, *allow)
	return err
}

func cmdAirdrop(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	id := fs.String("user", "", "recipient user id")
	symbol := fs.String("symbol", "USDT", "asset symbol")
	amount := fs.String("amount", "", "positive decimal amount")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.app.Guard.Check(ctx, guard.AdminConsole).Err(); err != nil {
		return err
	}
	w, err := c.app.Admin.Airdrop(ctx, *id, *symbol, *amount)
	if err != nil {
		return err
	}
	sym := strings.ToUpper(*symbol)
	fmt.Fprintf(c.out, "%s balance of %s is now %s\n", sym, w.UserID, w.Balances[sym])
	return nil
}

func cmdIPs(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	if err := parse(fs, args); err != nil {
		return err
	}
	records, err := c.app.IPAddressLog(ctx)
	if err != nil {
		return err
	}
	tw := c.table()
	fmt.Fprintln(tw, "ID\tIP\tUSER\tWHEN\tUSER AGENT")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.IPAddress, r.UserID, r.CreatedAt.Local().Format(time.DateTime), r.UserAgent)
	}
	return tw.Flush()
}

func cmdDeleteIP(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	id := fs.String("id", "", "record id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "id"); err != nil {
		return err
	}
	if err := c.app.Guard.Check(ctx, guard.IPAddresses).Err(); err != nil {
		return err
	}
	return c.app.Admin.DeleteIP(ctx, *id)
}

// =========================================================================
// TODOS
// =========================================================================

// weekFlag registers -week, the first day of the grid. Default is today.
func weekFlag(fs *flag.FlagSet) *string {
	return fs.String("week", time.Now().UTC().Format(dateLayout), "first day of the week, YYYY-MM-DD")
}

func parseWeek(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, usagef("invalid -week %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

func splitIDs(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func cmdTodos(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	week := weekFlag(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	start, err := parseWeek(*week)
	if err != nil {
		return err
	}
	tv, err := c.app.TodoWeek(ctx, start)
	if err != nil {
		return err
	}
	c.printWeek(tv.Week, tv.User.UID, tv.Assignees)
	return nil
}

// todoMutation mounts the todo view, runs fn and prints the refreshed week.
func (c *cli) todoMutation(ctx context.Context, week string, fn func(start time.Time, uid string) error) error {
	start, err := parseWeek(week)
	if err != nil {
		return err
	}
	d := c.app.Guard.Check(ctx, guard.Todos)
	if err := d.Err(); err != nil {
		return err
	}
	return fn(start, d.User.UID)
}

func cmdTodoAdd(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	week := weekFlag(fs)
	date := fs.String("date", time.Now().UTC().Format(dateLayout), "due date, YYYY-MM-DD")
	task := fs.String("task", "", "what needs doing")
	assign := fs.String("assign", "", "comma-separated user ids (default: you)")
	if err := parse(fs, args); err != nil {
		return err
	}
	return c.todoMutation(ctx, *week, func(start time.Time, uid string) error {
		ids := splitIDs(*assign)
		if len(ids) == 0 {
			ids = []string{uid}
		}
		w, err := c.app.Todos.Create(ctx, start, model.TodoInput{Date: *date, Task: *task, AssignedTo: ids})
		if err != nil {
			return err
		}
		c.printWeek(w, uid, nil)
		return nil
	})
}

func cmdTodoEdit(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	week := weekFlag(fs)
	id := fs.String("id", "", "todo id")
	date := fs.String("date", "", "due date, YYYY-MM-DD")
	task := fs.String("task", "", "what needs doing")
	assign := fs.String("assign", "", "comma-separated user ids")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "id", "date"); err != nil {
		return err
	}
	return c.todoMutation(ctx, *week, func(start time.Time, uid string) error {
		w, err := c.app.Todos.Update(ctx, start, *id, model.TodoInput{Date: *date, Task: *task, AssignedTo: splitIDs(*assign)})
		if err != nil {
			return err
		}
		c.printWeek(w, uid, nil)
		return nil
	})
}

func cmdTodoToggle(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	week := weekFlag(fs)
	id := fs.String("id", "", "todo id")
	user := fs.String("user", "", "whose mark to flip (default: you; admins may pick anyone)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "id"); err != nil {
		return err
	}
	return c.todoMutation(ctx, *week, func(start time.Time, uid string) error {
		w, err := c.app.Todos.Toggle(ctx, start, *id, *user)
		if err != nil {
			return err
		}
		c.printWeek(w, uid, nil)
		return nil
	})
}

func cmdTodoDelete(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	week := weekFlag(fs)
	id := fs.String("id", "", "todo id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "id"); err != nil {
		return err
	}
	return c.todoMutation(ctx, *week, func(start time.Time, uid string) error {
		w, err := c.app.Todos.Delete(ctx, start, *id)
		if err != nil {
			return err
		}
		c.printWeek(w, uid, nil)
		return nil
	})
}

func (c *cli) printWeek(w *view.Week, uid string, assignees []model.User) {
	names := make(map[string]string, len(assignees))
	for _, u := range assignees {
		names[u.UID] = cmp.Or(u.DisplayName, u.Email)
	}
	label := func(id string) string { return cmp.Or(names[id], id) }

	tw := c.table()
	fmt.Fprintln(tw, "DATE\tID\tDONE\tTASK\tASSIGNED")
	for _, date := range w.Dates {
		todos := w.On(date)
		if len(todos) == 0 {
			fmt.Fprintf(tw, "%s\t\t\t-\t\n", date)
			continue
		}
		for _, t := range todos {
			done := " "
			if t.IsCompletedBy(uid) {
				done = "x"
			}
			assigned := make([]string, len(t.AssignedTo))
			for i, id := range t.AssignedTo {
				assigned[i] = label(id)
			}
			fmt.Fprintf(tw, "%s\t%s\t[%s]\t%s\t%s\n", date, t.ID, done, t.Task, strings.Join(assigned, ", "))
		}
	}
	tw.Flush()
}

// =========================================================================
// MARKETS
// =========================================================================

func cmdTrading(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	asset := fs.String("asset", "", "selected pair, by id or symbol")
	if err := parse(fs, args); err != nil {
		return err
	}
	tv, err := c.app.TradingMarkets(ctx, *asset)
	if err != nil {
		return err
	}
	c.printMarkets(tv.Markets)
	if tv.Quote.Pair != "" {
		fmt.Fprintf(c.out, "\n%s  %s  %+.2f%%\n", tv.Quote.Pair, tv.Quote.Price.StringFixed(2), tv.Quote.Change24h)
	}
	return nil
}

func cmdWatch(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	asset := fs.String("asset", "bitcoin", "pair to follow, by id or symbol")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.app.Guard.Check(ctx, guard.Trading).Err(); err != nil {
		return err
	}
	c.app.Trading.Select(*asset)
	for q := range c.app.Trading.Watch(ctx) {
		fmt.Fprintf(c.out, "%s  %s  %s  %+.2f%%\n",
			time.Now().Format(time.TimeOnly), q.Pair, q.Price.StringFixed(2), q.Change24h)
	}
	return ctx.Err()
}

func cmdCards(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	asset := fs.String("asset", "bitcoin", "asset whose history is attached")
	days := fs.Int("days", 7, "history window: 1, 7, 30, 90 or 365")
	follow := fs.Bool("follow", false, "keep refreshing every minute")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !market.ValidRange(*days) {
		return usagef("cards: -days must be one of %v", market.ChartRanges)
	}
	if err := c.app.Guard.Check(ctx, guard.Dashboard).Err(); err != nil {
		return err
	}

	ctx, cancel := feedContext(ctx, *follow)
	defer cancel()
	updates, unsubscribe := c.app.Feeds.Cards.Subscribe(ctx, market.CardKey{Asset: *asset, Days: *days})
	defer unsubscribe()

	for cards := range updates {
		c.printMarkets(cards)
		for _, m := range cards {
			if len(m.ChartPrices) > 0 {
				first, last := m.ChartPrices[0], m.ChartPrices[len(m.ChartPrices)-1]
				fmt.Fprintf(c.out, "%s %dd: %.2f -> %.2f (%d points)\n",
					strings.ToUpper(m.Symbol), *days, first.Price, last.Price, len(m.ChartPrices))
			}
		}
		if !*follow {
			return nil
		}
		fmt.Fprintln(c.out)
	}
	return ctx.Err()
}

func cmdChart(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	follow := fs.Bool("follow", false, "keep printing every 5s")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.app.Guard.Check(ctx, guard.Trading).Err(); err != nil {
		return err
	}

	ctx, cancel := feedContext(ctx, *follow)
	defer cancel()
	updates, unsubscribe := c.app.Feeds.Chart.Subscribe(ctx)
	defer unsubscribe()

	for points := range updates {
		if len(points) == 0 {
			continue
		}
		lo, hi := points[0].Price, points[0].Price
		for _, p := range points {
			lo, hi = min(lo, p.Price), max(hi, p.Price)
		}
		last := points[len(points)-1]
		fmt.Fprintf(c.out, "BTC/USD (demo)  last %d  low %d  high %d  over %d minutes\n",
			last.Price, lo, hi, len(points))
		if !*follow {
			return nil
		}
	}
	return ctx.Err()
}

// feedContext bounds a one-shot subscription; a followed feed runs until
// interrupted.
func feedContext(ctx context.Context, follow bool) (context.Context, context.CancelFunc) {
	if follow {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, snapshotTimeout)
}

func (c *cli) printMarkets(markets []model.MarketSnapshot) {
	tw := c.table()
	fmt.Fprintln(tw, "ASSET\tPRICE\t24H")
	for _, m := range markets {
		fmt.Fprintf(tw, "%s\t%s\t%+.2f%%\n", strings.ToUpper(m.Symbol), m.CurrentPrice.StringFixed(2), m.PriceChangePercentage24h)
	}
	tw.Flush()
}

func cmdHealth(ctx context.Context, c *cli, fs *flag.FlagSet, args []string) error {
	if err := parse(fs, args); err != nil {
		return err
	}
	h, err := c.app.API.Health(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "backend unreachable: %v\n", err)
		return err
	}
	fmt.Fprintf(c.out, "backend %s\n", h.Status)
	return nil
}
