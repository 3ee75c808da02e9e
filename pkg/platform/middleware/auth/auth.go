// Package auth is the bearer-token middleware of the stub backend.
//
// A request without a bearer header is rejected with a real HTTP 401. A token
// that is present but invalid, expired or revoked is rejected inside a 200
// envelope carrying code 401, the way the course-selection backend reports it.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"coursehub/pkg/platform/httputil"
	"coursehub/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// TokenRevocationChecker defines the interface for checking if tokens are revoked
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	UserID    string
	UserType  string
	JTI       string
	ExpiresAt time.Time
}

type contextKeyClaims struct{}

// GetClaims retrieves the authenticated claims from the context.
func GetClaims(ctx context.Context) *JWTClaims {
	claims, _ := ctx.Value(contextKeyClaims{}).(*JWTClaims)
	return claims
}

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.UserID
	}
	return ""
}

// GetUserType retrieves the authenticated user type from the context
func GetUserType(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.UserType
	}
	return ""
}

// WithClaims injects claims into a context.
// Useful for handler tests that don't run the full middleware chain.
func WithClaims(ctx context.Context, claims *JWTClaims) context.Context {
	return context.WithValue(ctx, contextKeyClaims{}, claims)
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func RequireAuth(validator JWTValidator, revocationChecker TokenRevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := BearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteDetail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteEnvelopeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if revocationChecker != nil {
				if claims.JTI == "" {
					logger.WarnContext(ctx, "unauthorized access - missing token jti",
						"request_id", requestID,
					)
					httputil.WriteEnvelopeError(w, http.StatusUnauthorized, "Invalid or expired token")
					return
				}

				revoked, err := revocationChecker.IsTokenRevoked(ctx, claims.JTI)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check token revocation",
						"error", err,
						"request_id", requestID,
					)
					httputil.WriteDetail(w, http.StatusInternalServerError, "Failed to validate token")
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - token revoked",
						"jti", claims.JTI,
						"request_id", requestID,
					)
					httputil.WriteEnvelopeError(w, http.StatusUnauthorized, "Token has been revoked")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}

// RequireUserType rejects authenticated callers of another user type with
// HTTP 403. It must run after RequireAuth.
func RequireUserType(userType string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if GetUserType(ctx) != userType {
				logger.WarnContext(ctx, "forbidden - user type mismatch",
					"required", userType,
					"user_id", GetUserID(ctx),
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteDetail(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
