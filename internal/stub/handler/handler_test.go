package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	jwttoken "coursehub/internal/jwt_token"
	"coursehub/internal/platform/metrics"
	"coursehub/internal/stub/catalog"
	"coursehub/internal/stub/revocation"
	"coursehub/internal/stub/users"
	"coursehub/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	accounts *users.Directory
	catalog  *catalog.Catalog
	trl      *revocation.InMemoryTRL
	router   http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	accounts, err := users.NewDirectory(bcrypt.MinCost, users.DefaultSeeds()...)
	s.Require().NoError(err)
	s.accounts = accounts
	s.catalog = catalog.New(catalog.DefaultCourses())
	s.catalog.SetUnread("202301001", catalog.Unread{Messages: 2, Notifications: 5})
	s.trl = revocation.NewInMemoryTRL()

	reg := prometheus.NewRegistry()
	h, err := New(s.accounts, s.catalog, jwttoken.NewJWTService("test-key", "coursehub-test"), s.trl, 30*time.Minute,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(metrics.NewServer(reg)),
		WithVersion("test"),
	)
	s.Require().NoError(err)
	s.router = NewRouter(h, reg)
}

type response struct {
	status int
	body   map[string]any
	raw    string
}

func (r response) data() map[string]any {
	data, _ := r.body["data"].(map[string]any)
	return data
}

func (s *HandlerSuite) do(method, path, token string, body any) response {
	return s.serve(testutil.WithBearer(testutil.NewJSONRequest(s.T(), method, path, body), token))
}

func (s *HandlerSuite) serve(req *http.Request) response {
	w := testutil.Serve(s.router, req)
	resp := response{status: w.Code, raw: w.Body.String()}
	_ = json.Unmarshal(w.Body.Bytes(), &resp.body)
	return resp
}

func (s *HandlerSuite) login(username, password string) string {
	resp := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": password})
	s.Require().Equal(http.StatusOK, resp.status, resp.raw)
	token, _ := resp.data()["access_token"].(string)
	s.Require().NotEmpty(token)
	return token
}

func (s *HandlerSuite) TestNew() {
	jwt := jwttoken.NewJWTService("k", "i")
	_, err := New(nil, s.catalog, jwt, s.trl, time.Minute)
	s.Error(err)
	_, err = New(s.accounts, s.catalog, jwt, s.trl, 0)
	s.Error(err)
}

func (s *HandlerSuite) TestLogin() {
	s.Run("json credentials", func() {
		s.SetupTest()
		resp := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "student1", "password": "123456"})
		s.Equal(http.StatusOK, resp.status)
		s.EqualValues(200, resp.body["code"])
		data := resp.data()
		s.Equal("bearer", data["token_type"])
		s.EqualValues(1800, data["expires_in"])
		s.Equal("student", data["user_type"])
		user, _ := data["user"].(map[string]any)
		s.Equal("202301001", user["student_id"])

		logins := s.accounts.Logins()
		s.Require().Len(logins, 1)
		s.True(logins[0].Success)
		s.Equal("202301001", logins[0].UserID)
		s.Equal("192.0.2.1", logins[0].ClientIP)
		s.Equal("Unknown Device", logins[0].Device.Name)
	})

	s.Run("oauth2 form", func() {
		s.SetupTest()
		form := url.Values{"username": {"admin"}, "password": {"admin123"}}
		resp := s.serve(testutil.NewFormRequest(http.MethodPost, "/api/v1/auth/login", form))
		s.Equal(http.StatusOK, resp.status)
		s.Equal("admin", resp.data()["user_type"])
	})

	s.Run("wrong password is an http 401 and is logged", func() {
		s.SetupTest()
		resp := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "student1", "password": "bad"})
		s.Equal(http.StatusUnauthorized, resp.status)
		s.Equal("Incorrect username or password", resp.body["detail"])
		s.Require().Len(s.accounts.Logins(), 1)
		s.False(s.accounts.Logins()[0].Success)
	})

	s.Run("missing fields are a validation error", func() {
		s.SetupTest()
		resp := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "student1"})
		s.Equal(http.StatusUnprocessableEntity, resp.status)
		s.Empty(s.accounts.Logins())
	})
}

func (s *HandlerSuite) TestRegister() {
	body := map[string]any{"student_id": "202301002", "name": "Li Si", "password": "secret1", "id_number": "110101200001011234"}
	resp := s.do(http.MethodPost, "/api/v1/auth/register", "", body)
	s.Equal(http.StatusOK, resp.status, resp.raw)
	s.Equal("202301002", resp.data()["student_id"])

	s.login("202301002", "secret1")

	resp = s.do(http.MethodPost, "/api/v1/auth/register", "", body)
	s.Equal(http.StatusBadRequest, resp.status)
	s.Equal("Student ID already registered", resp.body["detail"])

	resp = s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{"student_id": "x"})
	s.Equal(http.StatusUnprocessableEntity, resp.status)
}

func (s *HandlerSuite) TestMe() {
	s.Run("missing bearer is a real 401", func() {
		resp := s.do(http.MethodGet, "/api/v1/auth/me", "", nil)
		s.Equal(http.StatusUnauthorized, resp.status)
		s.JSONEq(`{"detail":"Not authenticated"}`, resp.raw)
	})

	s.Run("invalid token is an embedded 401", func() {
		resp := s.do(http.MethodGet, "/api/v1/auth/me", "abc", nil)
		s.Equal(http.StatusOK, resp.status)
		s.EqualValues(401, resp.body["code"])
	})

	s.Run("valid token returns the profile", func() {
		token := s.login("admin", "admin123")
		resp := s.do(http.MethodGet, "/api/v1/auth/me", token, nil)
		s.EqualValues(200, resp.body["code"])
		s.Equal("admin", resp.data()["admin_id"])
		s.Equal("admin", resp.data()["user_type"])
	})
}

func (s *HandlerSuite) TestLogoutRevokesToken() {
	token := s.login("student1", "123456")

	resp := s.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	s.EqualValues(200, resp.body["code"])
	s.Equal(1, s.trl.Len())

	resp = s.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	s.Equal(http.StatusOK, resp.status)
	s.EqualValues(401, resp.body["code"])
	s.Equal("Token has been revoked", resp.body["message"])
}

func (s *HandlerSuite) TestRefresh() {
	token := s.login("student1", "123456")

	resp := s.do(http.MethodPost, "/api/v1/auth/refresh", token, nil)
	s.EqualValues(200, resp.body["code"])
	fresh, _ := resp.data()["access_token"].(string)
	s.Require().NotEmpty(fresh)
	s.NotEqual(token, fresh)

	s.EqualValues(401, s.do(http.MethodGet, "/api/v1/auth/me", token, nil).body["code"])
	s.EqualValues(200, s.do(http.MethodGet, "/api/v1/auth/me", fresh, nil).body["code"])
}

func (s *HandlerSuite) TestCourses() {
	token := s.login("student1", "123456")

	resp := s.do(http.MethodGet, "/api/v1/courses?department_id=CS&page_size=2", token, nil)
	s.EqualValues(200, resp.body["code"])
	data := resp.data()
	s.EqualValues(3, data["total"])
	s.EqualValues(2, data["total_pages"])
	s.Len(data["items"], 2)

	resp = s.do(http.MethodGet, "/api/v1/courses/MA101", token, nil)
	s.Equal("Calculus I", resp.data()["course_name"])

	resp = s.do(http.MethodGet, "/api/v1/courses/NOPE", token, nil)
	s.Equal(http.StatusNotFound, resp.status)
	s.Equal("Course not found", resp.body["detail"])
}

func (s *HandlerSuite) TestUnreadCounts() {
	token := s.login("student1", "123456")
	s.EqualValues(2, s.do(http.MethodGet, "/api/v1/messages/unread/count", token, nil).data()["unread_count"])
	s.EqualValues(5, s.do(http.MethodGet, "/api/v1/notifications/unread/count", token, nil).data()["count"])
}

func (s *HandlerSuite) TestBalanceAndRecharge() {
	student := s.login("student1", "123456")
	admin := s.login("admin", "admin123")

	resp := s.do(http.MethodGet, "/api/v1/transactions/balance", student, nil)
	s.EqualValues(500, resp.data()["balance"])

	resp = s.do(http.MethodGet, "/api/v1/transactions/balance", admin, nil)
	s.Equal(http.StatusForbidden, resp.status)

	resp = s.do(http.MethodPost, "/api/v1/transactions/recharge", student, map[string]any{"student_id": "202301001", "amount": 10})
	s.Equal(http.StatusForbidden, resp.status)
	s.Equal("Insufficient permissions", resp.body["detail"])

	resp = s.do(http.MethodPost, "/api/v1/transactions/recharge", admin, map[string]any{"student_id": "202301001", "amount": 100})
	s.EqualValues(200, resp.body["code"], resp.raw)
	s.EqualValues(1, resp.data()["transaction_id"])
	s.Equal("admin", resp.data()["sender_id"])

	resp = s.do(http.MethodGet, "/api/v1/transactions/balance", student, nil)
	s.EqualValues(600, resp.data()["balance"])

	resp = s.do(http.MethodPost, "/api/v1/transactions/recharge", admin, map[string]any{"student_id": "ghost", "amount": 1})
	s.Equal(http.StatusNotFound, resp.status)

	resp = s.do(http.MethodPost, "/api/v1/transactions/recharge", admin, map[string]any{"student_id": "202301001", "amount": -1})
	s.Equal(http.StatusUnprocessableEntity, resp.status)
}

func (s *HandlerSuite) TestHealthAndMetrics() {
	resp := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, resp.status)
	s.Equal("healthy", resp.body["status"])
	s.Equal("test", resp.body["version"])

	s.login("student1", "123456")
	w := testutil.Serve(s.router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `coursehub_stub_login_attempts_total{result="success"} 1`)
	s.Contains(w.Body.String(), `route="/api/v1/auth/login"`)
}

func (s *HandlerSuite) TestRequestIDEchoed() {
	req := httptest.NewRequestWithContext(context.Background(), http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := testutil.Serve(s.router, req)
	s.Equal("req-42", w.Header().Get("X-Request-ID"))
}
