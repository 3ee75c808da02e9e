// Package navigation gates route entry on authentication and role, and owns
// the "navigate to login" capability the request interceptor uses on auth
// failure.
package navigation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"coursehub/internal/notify"
)

const maxRedirects = 3

// AuthView is the read-only session view the guard needs.
type AuthView interface {
	IsAuthenticated() bool
	Role() string
}

// Decision is the guard's verdict for one navigation.
type Decision struct {
	Route    Route
	Allow    bool
	Redirect Location
}

// Guard decides whether a navigation may proceed.
type Guard struct {
	table    *Table
	auth     AuthView
	notifier notify.Notifier
}

// NewGuard builds a guard over table reading auth state from auth.
func NewGuard(table *Table, auth AuthView, notifier notify.Notifier) (*Guard, error) {
	if table == nil {
		return nil, fmt.Errorf("route table is required")
	}
	if auth == nil {
		return nil, fmt.Errorf("auth view is required")
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Guard{table: table, auth: auth, notifier: notifier}, nil
}

// Check evaluates a navigation to to.
func (g *Guard) Check(ctx context.Context, to Location) Decision {
	route, _ := g.table.Match(to.Path)

	if route.Redirect != "" {
		return Decision{Route: route, Redirect: Location{Path: route.Redirect}}
	}

	authenticated := g.auth.IsAuthenticated()
	if route.RequiresAuth && !authenticated {
		return Decision{Route: route, Redirect: loginLocation(to.FullPath())}
	}

	if authenticated && (route.Path == PathLogin || route.Path == PathRegister) {
		return Decision{Route: route, Redirect: Location{Path: PathHome}}
	}

	if route.Role != "" && g.auth.Role() != route.Role {
		notify.Error(ctx, g.notifier, "permission denied")
		return Decision{Route: route, Redirect: Location{Path: PathHome}}
	}

	return Decision{Route: route, Allow: true}
}

// Navigator tracks the current location and applies guard decisions.
type Navigator struct {
	mu      sync.Mutex
	guard   *Guard
	current Location
	history []Location
	logger  *slog.Logger
}

type Option func(*Navigator)

func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// NewNavigator starts at the welcome page.
func NewNavigator(guard *Guard, opts ...Option) (*Navigator, error) {
	if guard == nil {
		return nil, fmt.Errorf("guard is required")
	}
	n := &Navigator{
		guard:   guard,
		current: Location{Path: PathWelcome},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Push navigates to target, following guard redirects. It returns the
// location finally entered and its route.
func (n *Navigator) Push(ctx context.Context, target string) (Location, Route, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	to := ParseLocation(target)
	for i := 0; i <= maxRedirects; i++ {
		d := n.guard.Check(ctx, to)
		if d.Allow {
			n.enter(to)
			return to, d.Route, nil
		}
		n.logger.DebugContext(ctx, "navigation redirected", "from", to.FullPath(), "to", d.Redirect.FullPath())
		to = d.Redirect
	}
	return n.current, Route{}, fmt.Errorf("too many redirects navigating to %s", target)
}

// ToLogin sends the user to the login page, preserving the current location
// as the redirect target. It reports false when already at login, so
// concurrent auth failures cause a single navigation.
func (n *Navigator) ToLogin(ctx context.Context) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current.Path == PathLogin {
		return false
	}
	to := loginLocation(n.current.FullPath())
	n.logger.InfoContext(ctx, "redirecting to login", "redirect", to.RedirectTarget())
	n.enter(to)
	return true
}

// Current returns the current location.
func (n *Navigator) Current() Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// History returns every location entered, oldest first.
func (n *Navigator) History() []Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Location, len(n.history))
	copy(out, n.history)
	return out
}

// LoginVisits counts entries into the login page.
func (n *Navigator) LoginVisits() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, l := range n.history {
		if l.Path == PathLogin {
			count++
		}
	}
	return count
}

// Title renders the page title of the current location.
func (n *Navigator) Title() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, _ := n.guard.table.Match(n.current.Path)
	return DocumentTitle(r)
}

func (n *Navigator) enter(to Location) {
	n.current = to
	n.history = append(n.history, to)
}
