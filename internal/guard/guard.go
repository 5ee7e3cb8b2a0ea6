// Package guard decides, from a session snapshot alone, whether a view may
// render or where navigation must go instead. Decisions are re-evaluated on
// every navigation; nothing is cached.
package guard

import (
	"strings"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
)

// Area groups routes by the guard that protects them.
type Area string

const (
	AreaPublic     Area = "public"
	AreaOnboarding Area = "onboarding"
	AreaProtected  Area = "protected"
)

// Action is the outcome of a guard.
type Action string

const (
	ActionRender   Action = "render"
	ActionRedirect Action = "redirect"
)

// Well-known paths.
const (
	PathLogin      = "/login"
	PathOnboarding = "/onboarding"
	PathHome       = "/"
)

// Decision is what navigation to a path resolves to.
type Decision struct {
	Path       string `json:"path"`
	Area       Area   `json:"area,omitempty"`
	Title      string `json:"title,omitempty"`
	Action     Action `json:"action"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

// Rendered reports whether the view may render.
func (d Decision) Rendered() bool {
	return d.Action == ActionRender
}

// Route is one entry of the route table.
type Route struct {
	Path  string
	Area  Area
	Title string
}

var routes = []Route{
	{Path: "/login", Area: AreaPublic, Title: "Sign in"},
	{Path: "/register", Area: AreaPublic, Title: "Create account"},
	{Path: "/forgot-password", Area: AreaPublic, Title: "Forgot password"},
	{Path: "/reset-password", Area: AreaPublic, Title: "Reset password"},
	{Path: "/onboarding", Area: AreaOnboarding, Title: "Setup your business"},
	{Path: "/", Area: AreaProtected, Title: "Dashboard"},
	{Path: "/invoices", Area: AreaProtected, Title: "Invoices"},
	{Path: "/erp", Area: AreaProtected, Title: "ERP Integrations"},
	{Path: "/settings", Area: AreaProtected, Title: "Settings"},
}

// Routes returns a copy of the route table.
func Routes() []Route {
	return append([]Route(nil), routes...)
}

// Lookup finds the route for path. Trailing slashes are ignored.
func Lookup(path string) (Route, bool) {
	path = normalize(path)
	for _, r := range routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Protected guards the main area: sign-in first, then onboarding.
func Protected(s domain.Session) Decision {
	switch {
	case s.Token == "":
		return redirect(PathLogin)
	case !s.Onboarded:
		return redirect(PathOnboarding)
	default:
		return Decision{Action: ActionRender}
	}
}

// Onboarding guards the wizard: only signed-in operators who have not
// finished onboarding may see it.
func Onboarding(s domain.Session) Decision {
	switch {
	case s.Token == "":
		return redirect(PathLogin)
	case s.Onboarded:
		return redirect(PathHome)
	default:
		return Decision{Action: ActionRender}
	}
}

// Check applies the guard of area.
func Check(area Area, s domain.Session) Decision {
	switch area {
	case AreaProtected:
		return Protected(s)
	case AreaOnboarding:
		return Onboarding(s)
	default:
		return Decision{Action: ActionRender}
	}
}

// Resolve maps a path to a decision. Unknown paths redirect to login.
func Resolve(path string, s domain.Session) Decision {
	route, ok := Lookup(path)
	if !ok {
		d := redirect(PathLogin)
		d.Path = path
		return d
	}
	d := Check(route.Area, s)
	d.Path = route.Path
	d.Area = route.Area
	d.Title = route.Title
	return d
}

// Landing is where a freshly signed-in operator goes.
func Landing(s domain.Session) string {
	switch {
	case s.Token == "":
		return PathLogin
	case s.Onboarded:
		return PathHome
	default:
		return PathOnboarding
	}
}

func redirect(to string) Decision {
	return Decision{Action: ActionRedirect, RedirectTo: to}
}

func normalize(path string) string {
	if path == "" {
		return PathHome
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = PathHome
		}
	}
	return path
}
