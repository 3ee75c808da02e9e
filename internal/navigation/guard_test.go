package navigation

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"coursehub/internal/notify"
)

type fakeAuth struct {
	authenticated bool
	role          string
}

func (f *fakeAuth) IsAuthenticated() bool { return f.authenticated }
func (f *fakeAuth) Role() string          { return f.role }

type GuardSuite struct {
	suite.Suite
	auth     *fakeAuth
	notices  *notify.Recorder
	guard    *Guard
	nav      *Navigator
	ctx      context.Context
	discards *slog.Logger
}

func TestGuardSuite(t *testing.T) {
	suite.Run(t, new(GuardSuite))
}

func (s *GuardSuite) SetupTest() {
	s.ctx = context.Background()
	s.auth = &fakeAuth{}
	s.notices = notify.NewRecorder()
	s.discards = slog.New(slog.NewTextHandler(io.Discard, nil))

	var err error
	s.guard, err = NewGuard(DefaultTable(), s.auth, s.notices)
	s.Require().NoError(err)
	s.nav, err = NewNavigator(s.guard, WithLogger(s.discards))
	s.Require().NoError(err)
}

func (s *GuardSuite) TestNewGuard() {
	s.Run("table is required", func() {
		_, err := NewGuard(nil, s.auth, nil)
		s.Error(err)
	})
	s.Run("auth view is required", func() {
		_, err := NewGuard(DefaultTable(), nil, nil)
		s.Error(err)
	})
}

func (s *GuardSuite) TestCheck() {
	s.Run("protected route redirects anonymous users to login with the full path", func() {
		d := s.guard.Check(s.ctx, ParseLocation("/courses/my-courses?status=enrolled"))
		s.False(d.Allow)
		s.Equal(PathLogin, d.Redirect.Path)
		s.Equal("/courses/my-courses?status=enrolled", d.Redirect.RedirectTarget())
	})

	s.Run("public route is allowed", func() {
		d := s.guard.Check(s.ctx, ParseLocation("/register"))
		s.True(d.Allow)
		s.Equal("Register", d.Route.Name)
	})

	s.Run("authenticated user entering login is sent home", func() {
		s.auth.authenticated = true
		defer func() { s.auth.authenticated = false }()
		d := s.guard.Check(s.ctx, ParseLocation("/login"))
		s.False(d.Allow)
		s.Equal(PathHome, d.Redirect.Path)
	})

	s.Run("role mismatch redirects home with a notice", func() {
		s.auth.authenticated = true
		s.auth.role = "student"
		defer func() { s.auth.authenticated, s.auth.role = false, "" }()

		d := s.guard.Check(s.ctx, ParseLocation("/transactions/recharge"))
		s.False(d.Allow)
		s.Equal(PathHome, d.Redirect.Path)
		last, ok := s.notices.Last()
		s.Require().True(ok)
		s.Equal(notify.LevelError, last.Level)
		s.Equal("permission denied", last.Message)
	})

	s.Run("matching role is allowed", func() {
		s.auth.authenticated = true
		s.auth.role = "admin"
		defer func() { s.auth.authenticated, s.auth.role = false, "" }()
		s.True(s.guard.Check(s.ctx, ParseLocation("/courses/manage")).Allow)
	})

	s.Run("unknown path resolves to not found", func() {
		d := s.guard.Check(s.ctx, ParseLocation("/no/such/page"))
		s.True(d.Allow)
		s.Equal("NotFound", d.Route.Name)
	})
}

func (s *GuardSuite) TestPush() {
	s.Run("app redirect chain ends at login for anonymous users", func() {
		loc, route, err := s.nav.Push(s.ctx, "/app")
		s.Require().NoError(err)
		s.Equal(PathLogin, loc.Path)
		s.Equal("/app/dashboard", loc.RedirectTarget())
		s.Equal("Login", route.Name)
		s.Equal("Login - "+AppName, s.nav.Title())
	})

	s.Run("authenticated user reaches the dashboard", func() {
		s.auth.authenticated = true
		defer func() { s.auth.authenticated = false }()
		loc, route, err := s.nav.Push(s.ctx, "/app")
		s.Require().NoError(err)
		s.Equal("/app/dashboard", loc.Path)
		s.Equal("Dashboard", route.Name)
	})

	s.Run("redirect loops are cut off", func() {
		table := NewTable(Route{Path: "/404"},
			Route{Path: "/a", Redirect: "/b"},
			Route{Path: "/b", Redirect: "/a"},
		)
		g, err := NewGuard(table, s.auth, nil)
		s.Require().NoError(err)
		nav, err := NewNavigator(g, WithLogger(s.discards))
		s.Require().NoError(err)
		_, _, err = nav.Push(s.ctx, "/a")
		s.Error(err)
	})
}

func (s *GuardSuite) TestToLogin() {
	s.Run("preserves current location and is idempotent", func() {
		s.auth.authenticated = true
		_, _, err := s.nav.Push(s.ctx, "/messages")
		s.Require().NoError(err)
		s.auth.authenticated = false

		s.True(s.nav.ToLogin(s.ctx))
		s.False(s.nav.ToLogin(s.ctx))
		s.Equal(PathLogin, s.nav.Current().Path)
		s.Equal("/messages", s.nav.Current().RedirectTarget())
		s.Equal(1, s.nav.LoginVisits())
	})

	s.Run("concurrent calls navigate once", func() {
		nav, err := NewNavigator(s.guard, WithLogger(s.discards))
		s.Require().NoError(err)

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				nav.ToLogin(s.ctx)
			}()
		}
		wg.Wait()
		s.Equal(1, nav.LoginVisits())
		s.Equal("", nav.Current().RedirectTarget(), "welcome page is not worth returning to")
	})
}

func (s *GuardSuite) TestDocumentTitle() {
	s.Equal("Courses - "+AppName, DocumentTitle(Route{Title: "Courses"}))
	s.Equal(AppName, DocumentTitle(Route{}))
}
