// Command stubserver runs a development backend for the coursehub client:
// seeded accounts, JWT auth with revocation, and a small course catalogue.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	jwttoken "coursehub/internal/jwt_token"
	"coursehub/internal/platform/config"
	"coursehub/internal/platform/httpserver"
	"coursehub/internal/platform/logger"
	"coursehub/internal/platform/metrics"
	"coursehub/internal/platform/redis"
	"coursehub/internal/stub/catalog"
	"coursehub/internal/stub/handler"
	"coursehub/internal/stub/revocation"
	"coursehub/internal/stub/users"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "stubserver:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadStub()
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	accounts, err := users.NewDirectory(cfg.BcryptCost, users.DefaultSeeds()...)
	if err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	cat := catalog.New(catalog.DefaultCourses())
	cat.SetUnread("202301001", catalog.Unread{Messages: 2, Notifications: 3})

	trl, closeTRL, err := newRevocationList(ctx, cfg, reg, log)
	if err != nil {
		return err
	}
	defer closeTRL()

	h, err := handler.New(accounts, cat, jwttoken.NewJWTService(cfg.JWTKey, cfg.Issuer), trl, cfg.TokenTTL,
		handler.WithLogger(log),
		handler.WithMetrics(metrics.NewServer(reg)),
		handler.WithVersion(version),
	)
	if err != nil {
		return err
	}

	var gatherer prometheus.Gatherer
	if !cfg.MetricsOff {
		gatherer = reg
	}
	srv := httpserver.New(cfg.Addr, handler.NewRouter(h, gatherer))
	log.InfoContext(ctx, "stub backend starting", "version", version, "token_ttl", cfg.TokenTTL)
	return httpserver.Run(ctx, srv, log)
}

// newRevocationList uses redis when its URL is set, process memory otherwise.
func newRevocationList(ctx context.Context, cfg config.Stub, reg prometheus.Registerer, log *slog.Logger) (revocation.List, func(), error) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("connect revocation redis: %w", err)
	}
	if client == nil {
		log.InfoContext(ctx, "token revocation list in memory")
		return revocation.NewInMemoryTRL(), func() {}, nil
	}

	log.InfoContext(ctx, "token revocation list in redis")
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.WarnContext(ctx, "failed to close redis", "error", err)
		}
	}
	return revocation.NewRedisTRL(client.Client, revocation.WithRegisterer(reg)), closeFn, nil
}
