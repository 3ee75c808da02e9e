// Package requesttime provides middleware and utilities for request-scoped time.
// All operations within a single HTTP request use the same "now" timestamp.
package requesttime

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"coursehub/pkg/requestcontext"
)

// Header carries the client's issue time in unix milliseconds.
const Header = "X-Request-Time"

type contextKeyIssuedAt struct{}

// Middleware captures the current time at the start of the request and the
// client-declared issue time, when present and well-formed.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		if ms, err := strconv.ParseInt(r.Header.Get(Header), 10, 64); err == nil && ms > 0 {
			ctx = context.WithValue(ctx, contextKeyIssuedAt{}, time.UnixMilli(ms))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IssuedAt returns the client-declared issue time.
func IssuedAt(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(contextKeyIssuedAt{}).(time.Time)
	return t, ok
}

// Skew is how far the request's server time is ahead of the client issue
// time. It is zero when the client sent none.
func Skew(ctx context.Context) time.Duration {
	issued, ok := IssuedAt(ctx)
	if !ok {
		return 0
	}
	return requestcontext.Now(ctx).Sub(issued)
}
