// Package device derives a display name for the calling client from its
// User-Agent, for login records.
package device

import (
	"context"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// Info describes the calling client.
type Info struct {
	Name   string
	Mobile bool
	Bot    bool
}

type contextKeyDevice struct{}

// Middleware parses the User-Agent once per request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), Parse(r.Header.Get("User-Agent")))))
	})
}

// Parse turns a User-Agent into device info. Non-browser clients such as the
// CLI report their product token.
func Parse(ua string) Info {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return Info{Name: unknownDevice}
	}

	parsed := useragent.New(ua)
	info := Info{Mobile: parsed.Mobile(), Bot: parsed.Bot()}

	browser, _ := parsed.Browser()
	platform := parsed.OS()
	if platform == "" {
		platform = parsed.Platform()
	}

	switch {
	case browser != "" && platform != "":
		info.Name = browser + " on " + platform
	case browser != "":
		info.Name = browser
	case platform != "":
		info.Name = platform
	default:
		info.Name = ua
	}
	return info
}

// FromContext returns the device info for the request.
func FromContext(ctx context.Context) Info {
	if info, ok := ctx.Value(contextKeyDevice{}).(Info); ok {
		return info
	}
	return Info{Name: unknownDevice}
}

// WithInfo injects device info into a context.
func WithInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, contextKeyDevice{}, info)
}
