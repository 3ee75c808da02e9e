package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	jwttoken "coursehub/internal/jwt_token"
	"coursehub/internal/notify"
	"coursehub/internal/platform/config"
	"coursehub/internal/session"
	"coursehub/internal/stub/catalog"
	"coursehub/internal/stub/handler"
	"coursehub/internal/stub/revocation"
	"coursehub/internal/stub/users"
	"coursehub/internal/transport/httpclient"
)

// CLISuite drives the command tree end to end against the stub backend, with
// sessions kept in a per-test state directory.
type CLISuite struct {
	suite.Suite
	server   *httptest.Server
	stateDir string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	accounts, err := users.NewDirectory(bcrypt.MinCost, users.DefaultSeeds()...)
	s.Require().NoError(err)
	cat := catalog.New(catalog.DefaultCourses())
	cat.SetUnread("202301001", catalog.Unread{Messages: 2, Notifications: 3})

	h, err := handler.New(accounts, cat, jwttoken.NewJWTService("cli-test-key", "coursehub-test"), revocation.NewInMemoryTRL(), 30*time.Minute,
		handler.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)
	s.server = httptest.NewServer(handler.NewRouter(h, nil))
	s.stateDir = s.T().TempDir()
}

func (s *CLISuite) TearDownTest() {
	s.server.Close()
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (s *CLISuite) run(args ...string) result {
	var stdout, stderr bytes.Buffer
	full := append([]string{
		"--base-url", s.server.URL,
		"--store", "file",
		"--state-dir", s.stateDir,
		"--log-level", "error",
	}, args...)
	code := Execute(context.Background(), Streams{In: strings.NewReader(""), Out: &stdout, Err: &stderr}, full)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (s *CLISuite) login(username, password string) {
	res := s.run("login", "-u", username, "-p", password)
	s.Require().Equal(0, res.code, res.stderr)
}

func (s *CLISuite) decode(raw string) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal([]byte(raw), &out), raw)
	return out
}

func (s *CLISuite) TestLoginWhoamiLogout() {
	s.Run("login persists the session", func() {
		res := s.run("login", "-u", "student1", "-p", "123456")
		s.Require().Equal(0, res.code, res.stderr)
		s.Contains(res.stdout, "Logged in as")
		s.Contains(res.stdout, "202301001")
		s.Contains(res.stderr, "login successful")
	})

	s.Run("whoami reads the stored session", func() {
		res := s.run("--json", "whoami")
		s.Require().Equal(0, res.code, res.stderr)
		user := s.decode(res.stdout)
		s.Equal("202301001", user["student_id"])
		s.Equal("student", user["user_type"])
	})

	s.Run("login again is a no-op", func() {
		res := s.run("login", "-u", "student1", "-p", "123456")
		s.Equal(0, res.code)
		s.Contains(res.stderr, "already logged in")
	})

	s.Run("logout clears the session", func() {
		res := s.run("logout")
		s.Require().Equal(0, res.code, res.stderr)
		s.Contains(res.stderr, "logged out")
	})

	s.Run("whoami after logout asks for login", func() {
		res := s.run("whoami")
		s.Equal(1, res.code)
		s.Contains(res.stderr, "please log in first")
		s.Empty(res.stdout)
	})
}

func (s *CLISuite) TestLoginRejected() {
	s.Run("wrong password shows the backend message once", func() {
		res := s.run("login", "-u", "student1", "-p", "wrong")
		s.Equal(1, res.code)
		s.Equal(1, strings.Count(res.stderr, "Incorrect username or password"), res.stderr)
	})

	s.Run("quiet mode reports notices as JSON", func() {
		res := s.run("-q", "login", "-u", "student1", "-p", "wrong")
		s.Equal(1, res.code)

		var out struct {
			Notices []struct {
				Level   string `json:"level"`
				Message string `json:"message"`
			} `json:"notices"`
		}
		s.Require().NoError(json.Unmarshal([]byte(res.stderr), &out), res.stderr)
		s.Require().Len(out.Notices, 1)
		s.Equal("error", out.Notices[0].Level)
		s.Equal("Incorrect username or password", out.Notices[0].Message)
	})
}

func (s *CLISuite) TestStatus() {
	s.login("student1", "123456")

	res := s.run("--json", "status")
	s.Require().Equal(0, res.code, res.stderr)

	var d struct {
		User struct {
			StudentID string `json:"student_id"`
		} `json:"user"`
		Balance *struct {
			Balance float64 `json:"balance"`
		} `json:"balance"`
		UnreadMessages      int `json:"unread_messages"`
		UnreadNotifications int `json:"unread_notifications"`
	}
	s.Require().NoError(json.Unmarshal([]byte(res.stdout), &d), res.stdout)
	s.Equal("202301001", d.User.StudentID)
	s.Require().NotNil(d.Balance)
	s.Equal(500.0, d.Balance.Balance)
	s.Equal(2, d.UnreadMessages)
	s.Equal(3, d.UnreadNotifications)
}

func (s *CLISuite) TestStatusAdminSkipsBalance() {
	s.login("admin", "admin123")

	res := s.run("--json", "status")
	s.Require().Equal(0, res.code, res.stderr)
	d := s.decode(res.stdout)
	s.NotContains(d, "balance")
}

func (s *CLISuite) TestCourses() {
	s.login("student1", "123456")

	s.Run("list", func() {
		res := s.run("courses", "list")
		s.Require().Equal(0, res.code, res.stderr)
		s.Contains(res.stdout, "CS101")
		s.Contains(res.stdout, "MA202")
	})

	s.Run("show", func() {
		res := s.run("--json", "courses", "show", "CS101")
		s.Require().Equal(0, res.code, res.stderr)
		s.Equal("CS101", s.decode(res.stdout)["course_id"])
	})

	s.Run("show unknown course", func() {
		res := s.run("courses", "show", "XX999")
		s.Equal(1, res.code)
		s.Equal(1, strings.Count(res.stderr, httpclient.MsgNotFound), res.stderr)
	})
}

func (s *CLISuite) TestRecharge() {
	s.Run("students may not recharge", func() {
		s.login("student1", "123456")
		res := s.run("recharge", "--student", "202301001", "--amount", "50")
		s.Equal(1, res.code)
		s.Contains(res.stderr, "permission denied")
		s.Require().Equal(0, s.run("logout").code)
	})

	s.Run("admin recharge credits the student", func() {
		s.login("admin", "admin123")
		res := s.run("recharge", "--student", "202301001", "--amount", "50")
		s.Require().Equal(0, res.code, res.stderr)
		s.Require().Equal(0, s.run("logout").code)

		s.login("student1", "123456")
		res = s.run("--json", "balance")
		s.Require().Equal(0, res.code, res.stderr)
		s.Equal(550.0, s.decode(res.stdout)["balance"])
	})
}

func (s *CLISuite) TestInvalidArgument() {
	s.login("student1", "123456")

	res := s.run("watch", "--interval", "0", "--count", "1")
	s.Equal(1, res.code)
	s.Contains(res.stderr, "interval must be positive")
}

func (s *CLISuite) TestWatchPrintsCounts() {
	s.login("student1", "123456")

	res := s.run("watch", "--interval", "10ms", "--count", "2")
	s.Require().Equal(0, res.code, res.stderr)
	s.Equal(1, strings.Count(res.stdout, "unread messages: 2  unread notifications: 3"), res.stdout)
}

func (s *CLISuite) TestVersion() {
	res := s.run("--json", "version")
	s.Require().Equal(0, res.code, res.stderr)
	out := s.decode(res.stdout)
	s.Equal(Version, out["version"])
	s.NotEmpty(out["go"])
}

func (s *CLISuite) TestPollCanceledDuringRefreshKeepsSession() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel()
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer backend.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := Build(context.Background(), config.Client{
		BaseURL:       backend.URL,
		Timeout:       5 * time.Second,
		RefreshLeeway: time.Hour,
		Store:         config.StoreMemory,
	}, notify.NewRecorder(), logger)
	s.Require().NoError(err)
	defer app.Close()

	issued, err := jwttoken.NewJWTService("cli-test-key", "coursehub-test").
		GenerateAccessToken("202301001", "student", time.Now(), 5*time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(app.Session.SetToken(context.Background(), issued.Token))
	s.Require().NoError(app.Session.SetUser(context.Background(), &session.Profile{StudentID: "202301001", UserType: session.RoleStudent}))

	var stdout bytes.Buffer
	rt := &runtime{streams: Streams{Out: &stdout}, app: app}
	s.NoError(rt.poll(ctx, time.Hour, 1))
	s.Equal(issued.Token, app.Session.Token())
	s.Empty(stdout.String())
}
