// Package service performs the authentication lifecycle against the backend:
// login, registration, identity lookup, token refresh and logout. It is the
// only component that writes a token into Session State.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"coursehub/internal/notify"
	"coursehub/internal/platform/metrics"
	"coursehub/internal/session"
	"coursehub/internal/transport/httpclient"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

const (
	pathLogin    = "/api/v1/auth/login"
	pathRegister = "/api/v1/auth/register"
	pathMe       = "/api/v1/auth/me"
	pathRefresh  = "/api/v1/auth/refresh"
	pathLogout   = "/api/v1/auth/logout"
)

// Notice texts shown by the service itself. Failure notices come from the
// interceptor.
const (
	MsgLoginSuccessful    = "login successful"
	MsgRegistered         = "registration successful, please log in"
	MsgLoggedOut          = "logged out"
	MsgLoginFailed        = "login failed"
	MsgRefreshFailed      = "token refresh failed"
	MsgProfileUnavailable = "failed to load user profile"
)

// Transport performs one backend call and returns the unwrapped payload.
type Transport interface {
	Do(ctx context.Context, req *httpclient.Request) (json.RawMessage, error)
}

// Session is the state the service mutates.
type Session interface {
	Token() string
	User() *session.Profile
	HasState() bool
	TokenExpiry() (time.Time, bool)
	SetToken(ctx context.Context, token string) error
	SetUser(ctx context.Context, user *session.Profile) error
	Restore(ctx context.Context) error
	Invalidate(ctx context.Context) error
}

// Service drives the auth lifecycle.
type Service struct {
	transport Transport
	session   Session
	notifier  notify.Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
	loginForm bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithLoginForm sends credentials url-encoded, as FastAPI's OAuth2 password
// form expects, instead of as JSON.
func WithLoginForm(enabled bool) Option {
	return func(s *Service) {
		s.loginForm = enabled
	}
}

func New(transport Transport, sess Session, opts ...Option) (*Service, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if sess == nil {
		return nil, fmt.Errorf("session is required")
	}

	svc := &Service{
		transport: transport,
		session:   sess,
		notifier:  notify.Discard{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}
