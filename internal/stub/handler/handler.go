// Package handler serves the stub course-selection backend.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"coursehub/internal/api"
	"coursehub/internal/api/courses"
	"coursehub/internal/api/transactions"
	jwttoken "coursehub/internal/jwt_token"
	"coursehub/internal/platform/metrics"
	"coursehub/internal/session"
	"coursehub/internal/stub/catalog"
	"coursehub/internal/stub/revocation"
	"coursehub/internal/stub/users"
	authmw "coursehub/pkg/platform/middleware/auth"
)

// Accounts is the user directory.
type Accounts interface {
	Authenticate(ctx context.Context, username, password string) (users.Account, error)
	Register(ctx context.Context, in users.NewStudent) (users.Account, error)
	Lookup(ctx context.Context, id string) (users.Account, error)
	Credit(ctx context.Context, id string, amount float64) (float64, error)
	RecordLogin(rec users.LoginRecord)
}

// Catalog is the read model behind the resource endpoints.
type Catalog interface {
	ListCourses(ctx context.Context, q catalog.Query) api.Page[courses.Course]
	GetCourse(ctx context.Context, id string) (courses.Course, error)
	Unread(ctx context.Context, userID string) catalog.Unread
	RecordRecharge(ctx context.Context, adminID, studentID string, amount float64, at time.Time) transactions.Transaction
	DailyLimit() float64
}

// TokenIssuer mints access tokens.
type TokenIssuer interface {
	GenerateAccessToken(userID, userType string, now time.Time, expiresIn time.Duration) (jwttoken.IssuedToken, error)
}

// Handler serves the auth and resource endpoints.
type Handler struct {
	accounts  Accounts
	catalog   Catalog
	tokens    TokenIssuer
	validator authmw.JWTValidator
	trl       revocation.List
	tokenTTL  time.Duration
	logger    *slog.Logger
	metrics   *metrics.Server
	version   string
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Server) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(h *Handler) {
		h.version = v
	}
}

// New wires a Handler. jwt both issues and validates tokens.
func New(accounts Accounts, cat Catalog, jwt *jwttoken.JWTService, trl revocation.List, tokenTTL time.Duration, opts ...Option) (*Handler, error) {
	switch {
	case accounts == nil:
		return nil, errors.New("accounts is required")
	case cat == nil:
		return nil, errors.New("catalog is required")
	case jwt == nil:
		return nil, errors.New("jwt service is required")
	case trl == nil:
		return nil, errors.New("revocation list is required")
	case tokenTTL <= 0:
		return nil, errors.New("token TTL must be positive")
	}

	h := &Handler{
		accounts:  accounts,
		catalog:   cat,
		tokens:    jwt,
		validator: jwttoken.NewJWTServiceAdapter(jwt),
		trl:       trl,
		tokenTTL:  tokenTTL,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		version:   "dev",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Register mounts every route on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/register", h.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAuth(h.validator, revocation.Checker{List: h.trl}, h.logger))

			r.Get("/auth/me", h.handleMe)
			r.Post("/auth/refresh", h.handleRefresh)
			r.Post("/auth/logout", h.handleLogout)

			r.Get("/courses", h.handleListCourses)
			r.Get("/courses/{courseID}", h.handleGetCourse)

			r.Get("/messages/unread/count", h.handleUnreadMessages)
			r.Get("/notifications/unread/count", h.handleUnreadNotifications)

			r.With(authmw.RequireUserType(session.RoleStudent, h.logger)).
				Get("/transactions/balance", h.handleBalance)
			r.With(authmw.RequireUserType(session.RoleAdmin, h.logger)).
				Post("/transactions/recharge", h.handleRecharge)
		})
	})
}
