package app

import (
	"strings"

	"github.com/sakif/trading-dashboard/internal/guard"
	"github.com/sakif/trading-dashboard/internal/session"
)

// Route is one entry of the path table. Public routes have no policy.
type Route struct {
	Path   string
	Title  string
	Policy *guard.Policy
}

const (
	PathRoot     = "/"
	PathNotFound = "/404"
)

// Routes is the complete navigation surface.
var Routes = []Route{
	{Path: "/landing", Title: "Welcome"},
	{Path: "/dashboard", Title: "Dashboard", Policy: &guard.Dashboard},
	{Path: "/trading", Title: "Trading", Policy: &guard.Trading},
	{Path: "/todos", Title: "Todos", Policy: &guard.Todos},
	{Path: "/signup", Title: "Sign Up", Policy: &guard.SignUp},
	{Path: "/signin", Title: "Sign In", Policy: &guard.SignIn},
	{Path: "/profile", Title: "Profile", Policy: &guard.Profile},
	{Path: "/admin", Title: "Admin", Policy: &guard.AdminConsole},
	{Path: "/ipaddresses", Title: "IP Addresses", Policy: &guard.IPAddresses},
	{Path: "/privacy", Title: "Privacy Policy"},
	{Path: "/terms", Title: "Terms of Service"},
	{Path: "/disclaimer", Title: "Disclaimer"},
}

var notFound = Route{Path: PathNotFound, Title: "Page not found"}

// Resolve maps a path to its route. The root path goes to the dashboard when
// sess is authenticated and to the landing page otherwise; unknown paths
// resolve to the not-found route.
func Resolve(path string, sess session.Session) Route {
	path = "/" + strings.Trim(strings.TrimSpace(path), "/")
	if path == PathRoot {
		if sess.Authenticated() {
			path = guard.RouteDashboard
		} else {
			path = guard.RouteLanding
		}
	}
	for _, r := range Routes {
		if r.Path == path {
			return r
		}
	}
	return notFound
}
