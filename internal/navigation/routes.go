package navigation

import (
	"net/url"
	"strings"
)

// AppName is appended to every page title.
const AppName = "Student Course Selection System"

// Well-known paths.
const (
	PathWelcome  = "/"
	PathLogin    = "/login"
	PathRegister = "/register"
	PathHome     = "/app"
)

// Route is one entry in the route table. Role, when set, restricts entry to
// users whose session role matches.
type Route struct {
	Path         string
	Name         string
	Title        string
	RequiresAuth bool
	Role         string
	Redirect     string
}

// Table resolves paths to routes. Unknown paths resolve to the not-found route.
type Table struct {
	routes   []Route
	byPath   map[string]Route
	notFound Route
}

// NewTable builds a table from routes; notFound is returned for unknown paths.
func NewTable(notFound Route, routes ...Route) *Table {
	t := &Table{
		routes:   routes,
		byPath:   make(map[string]Route, len(routes)),
		notFound: notFound,
	}
	for _, r := range routes {
		t.byPath[r.Path] = r
	}
	return t
}

// DefaultTable mirrors the web app's routes plus the pages only the CLI reaches.
func DefaultTable() *Table {
	return NewTable(
		Route{Path: "/404", Name: "NotFound", Title: "Page not found"},
		Route{Path: PathWelcome, Name: "Welcome", Title: "Welcome"},
		Route{Path: PathLogin, Name: "Login", Title: "Login"},
		Route{Path: PathRegister, Name: "Register", Title: "Register"},
		Route{Path: PathHome, RequiresAuth: true, Redirect: "/app/dashboard"},
		Route{Path: "/app/dashboard", Name: "Dashboard", Title: "Dashboard", RequiresAuth: true},
		Route{Path: "/profile", Name: "Profile", Title: "Profile", RequiresAuth: true},

		Route{Path: "/courses", Name: "CourseList", Title: "Courses", RequiresAuth: true},
		Route{Path: "/courses/detail", Name: "CourseDetail", Title: "Course detail", RequiresAuth: true},
		Route{Path: "/courses/my-courses", Name: "MyCourses", Title: "My courses", RequiresAuth: true},
		Route{Path: "/courses/manage", Name: "CourseAdmin", Title: "Manage courses", RequiresAuth: true, Role: "admin"},

		Route{Path: "/enrollments", Name: "Enrollments", Title: "Enrollments", RequiresAuth: true},
		Route{Path: "/enrollments/grades", Name: "Grades", Title: "Grades", RequiresAuth: true, Role: "admin"},
		Route{Path: "/enrollments/statistics", Name: "EnrollmentStatistics", Title: "Enrollment statistics", RequiresAuth: true},

		Route{Path: "/messages", Name: "Messages", Title: "Messages", RequiresAuth: true},
		Route{Path: "/messages/compose", Name: "ComposeMessage", Title: "Compose message", RequiresAuth: true},

		Route{Path: "/friends", Name: "FriendList", Title: "Friends", RequiresAuth: true},
		Route{Path: "/friends/requests", Name: "FriendRequests", Title: "Friend requests", RequiresAuth: true},
		Route{Path: "/friends/recommendations", Name: "FriendRecommendations", Title: "Recommended friends", RequiresAuth: true},

		Route{Path: "/notifications", Name: "Notifications", Title: "Notifications", RequiresAuth: true},

		Route{Path: "/transactions/transfer", Name: "TransferMoney", Title: "Transfer", RequiresAuth: true},
		Route{Path: "/transactions/balance", Name: "Balance", Title: "Balance", RequiresAuth: true},
		Route{Path: "/transactions/history", Name: "TransactionHistory", Title: "Transaction history", RequiresAuth: true},
		Route{Path: "/transactions/recharge", Name: "Recharge", Title: "Recharge", RequiresAuth: true, Role: "admin"},
	)
}

// Match returns the route for path and whether it was found.
func (t *Table) Match(path string) (Route, bool) {
	r, ok := t.byPath[normalizePath(path)]
	if !ok {
		return t.notFound, false
	}
	return r, true
}

// Routes returns the table entries in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// DocumentTitle renders the page title for r.
func DocumentTitle(r Route) string {
	if r.Title == "" {
		return AppName
	}
	return r.Title + " - " + AppName
}

// Location is a path plus query, the target of a navigation.
type Location struct {
	Path  string
	Query url.Values
}

// ParseLocation splits "path?query" into a Location.
func ParseLocation(raw string) Location {
	path, rawQuery, _ := strings.Cut(raw, "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil || len(q) == 0 {
		q = nil
	}
	return Location{Path: normalizePath(path), Query: q}
}

// FullPath renders the location back to "path?query".
func (l Location) FullPath() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// RedirectTarget returns the redirect query parameter, if any.
func (l Location) RedirectTarget() string {
	return l.Query.Get("redirect")
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return PathWelcome
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

func loginLocation(redirect string) Location {
	if redirect == "" || redirect == PathWelcome {
		return Location{Path: PathLogin}
	}
	return Location{Path: PathLogin, Query: url.Values{"redirect": {redirect}}}
}
