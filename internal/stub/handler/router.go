package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coursehub/internal/platform/middleware"
	"coursehub/pkg/platform/middleware/device"
	"coursehub/pkg/platform/middleware/metadata"
	"coursehub/pkg/platform/middleware/requesttime"
)

// NewRouter applies the request middleware chain and mounts h. /metrics is
// served from gatherer when it is non-nil.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(metadata.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(device.Middleware)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Latency(h.metrics))

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	h.Register(r)
	return r
}
