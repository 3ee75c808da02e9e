package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "coursehub/pkg/domain-errors"
)

type stubValidator struct {
	claims map[string]*JWTClaims
}

func (v stubValidator) ValidateToken(token string) (*JWTClaims, error) {
	if c, ok := v.claims[token]; ok {
		return c, nil
	}
	return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
}

type stubRevocations struct {
	revoked map[string]bool
	err     error
}

func (r stubRevocations) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	return r.revoked[jti], r.err
}

type AuthMiddlewareSuite struct {
	suite.Suite
	logger    *slog.Logger
	validator stubValidator
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

func (s *AuthMiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.validator = stubValidator{claims: map[string]*JWTClaims{
		"student-token": {UserID: "202301001", UserType: "student", JTI: "j1"},
		"admin-token":   {UserID: "A1", UserType: "admin", JTI: "j2"},
		"no-jti":        {UserID: "u"},
	}}
}

func (s *AuthMiddlewareSuite) serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func (s *AuthMiddlewareSuite) envelopeCode(w *httptest.ResponseRecorder) int {
	var env struct {
		Code int `json:"code"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	return env.Code
}

func (s *AuthMiddlewareSuite) TestRequireAuth() {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	revocations := stubRevocations{revoked: map[string]bool{"j2": true}}
	h := RequireAuth(s.validator, revocations, s.logger)(next)

	s.Run("valid token reaches the handler with claims", func() {
		w := s.serve(h, "student-token")
		s.Equal(http.StatusNoContent, w.Code)
		s.Equal("202301001", seen)
	})

	s.Run("missing bearer is a transport 401", func() {
		w := s.serve(h, "")
		s.Equal(http.StatusUnauthorized, w.Code)
		s.Contains(w.Body.String(), "Not authenticated")
	})

	s.Run("invalid token is an embedded 401", func() {
		w := s.serve(h, "garbage")
		s.Equal(http.StatusOK, w.Code)
		s.Equal(http.StatusUnauthorized, s.envelopeCode(w))
	})

	s.Run("revoked token is an embedded 401", func() {
		w := s.serve(h, "admin-token")
		s.Equal(http.StatusOK, w.Code)
		s.Equal(http.StatusUnauthorized, s.envelopeCode(w))
		s.Contains(w.Body.String(), "revoked")
	})

	s.Run("token without jti is rejected", func() {
		w := s.serve(h, "no-jti")
		s.Equal(http.StatusUnauthorized, s.envelopeCode(w))
	})

	s.Run("revocation store failure is a 500", func() {
		broken := RequireAuth(s.validator, stubRevocations{err: errors.New("redis down")}, s.logger)(next)
		w := s.serve(broken, "student-token")
		s.Equal(http.StatusInternalServerError, w.Code)
	})

	s.Run("nil revocation checker skips the check", func() {
		open := RequireAuth(s.validator, nil, s.logger)(next)
		w := s.serve(open, "no-jti")
		s.Equal(http.StatusNoContent, w.Code)
	})
}

func (s *AuthMiddlewareSuite) TestRequireUserType() {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequireAuth(s.validator, nil, s.logger)(RequireUserType("admin", s.logger)(next))

	s.Equal(http.StatusNoContent, s.serve(h, "admin-token").Code)
	s.Equal(http.StatusForbidden, s.serve(h, "student-token").Code)
}

func (s *AuthMiddlewareSuite) TestBearerToken() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := BearerToken(req)
	s.False(ok)

	req.Header.Set("Authorization", "Basic abc")
	_, ok = BearerToken(req)
	s.False(ok)

	req.Header.Set("Authorization", "Bearer  tok ")
	token, ok := BearerToken(req)
	s.True(ok)
	s.Equal("tok", token)
}
