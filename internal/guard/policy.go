package guard

import "github.com/sakif/trading-dashboard/internal/notify"

// Routes the guard redirects to.
const (
	RouteLanding   = "/landing"
	RouteDashboard = "/dashboard"
	RouteSignIn    = "/signin"
	RouteProfile   = "/profile"
)

// Policy describes how one view is protected.
type Policy struct {
	View string

	// Guest inverts the check: signed-in users are sent to SignedInRedirect.
	Guest            bool
	SignedInRedirect string

	// RequireUser fetches the canonical user record before deciding.
	RequireUser bool
	Allow       Predicate

	SignedOutRedirect string
	DeniedRedirect    string
	ErrorRedirect     string

	// RefusedRedirect is where a success:false user fetch lands. Empty
	// means DeniedRedirect with the Denied notification.
	RefusedRedirect string
	Refused         notify.Notification

	Denied notify.Notification // predicate false
	Failed notify.Notification // transport or payload failure
}

// refusal returns the redirect and notification for a backend refusal.
func (p Policy) refusal() (string, notify.Notification) {
	if p.RefusedRedirect != "" {
		return p.RefusedRedirect, p.Refused
	}
	return p.DeniedRedirect, p.Denied
}

var (
	Dashboard = Policy{
		View:              "/dashboard",
		SignedOutRedirect: RouteLanding,
	}

	Trading = Policy{
		View:              "/trading",
		SignedOutRedirect: RouteLanding,
	}

	Profile = Policy{
		View:              "/profile",
		RequireUser:       true,
		SignedOutRedirect: RouteSignIn,
		DeniedRedirect:    RouteSignIn,
		ErrorRedirect:     RouteSignIn,
		Denied:            notify.Error("Error", "Failed to load profile"),
		Failed:            notify.Error("Error", "Failed to load profile"),
	}

	AdminConsole = Policy{
		View:              "/admin",
		RequireUser:       true,
		Allow:             Admin,
		SignedOutRedirect: RouteSignIn,
		DeniedRedirect:    RouteProfile,
		ErrorRedirect:     RouteProfile,
		Denied:            notify.Error("Access Denied", "You do not have admin permissions"),
		Failed:            notify.Error("Error", "Failed to verify admin access"),
	}

	IPAddresses = Policy{
		View:              "/ipaddresses",
		RequireUser:       true,
		Allow:             Admin,
		SignedOutRedirect: RouteSignIn,
		DeniedRedirect:    RouteProfile,
		ErrorRedirect:     RouteProfile,
		Denied:            notify.Error("Access Denied", "You do not have admin permissions"),
		Failed:            notify.Error("Error", "Failed to verify admin access"),
	}

	Todos = Policy{
		View:              "/todos",
		RequireUser:       true,
		Allow:             TodoAccess,
		SignedOutRedirect: RouteSignIn,
		DeniedRedirect:    RouteDashboard,
		RefusedRedirect:   RouteSignIn,
		ErrorRedirect:     RouteSignIn,
		Denied:            notify.Error("Access Denied", "You do not have permission to access the todo list"),
		Refused:           notify.Error("Error", "Failed to verify todo access"),
		Failed:            notify.Error("Error", "Failed to verify todo access"),
	}

	SignIn = Policy{View: "/signin", Guest: true, SignedInRedirect: RouteDashboard}
	SignUp = Policy{View: "/signup", Guest: true, SignedInRedirect: RouteDashboard}
)
