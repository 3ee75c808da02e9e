// Package cli is the coursehub command tree. Each command is one "page" of
// the course-selection app: it restores the session, passes its route
// through the navigation guard, then calls the backend through the
// interceptor.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"coursehub/internal/api/courses"
	"coursehub/internal/api/enrollments"
	"coursehub/internal/api/friendships"
	"coursehub/internal/api/messages"
	"coursehub/internal/api/notifications"
	"coursehub/internal/api/transactions"
	authservice "coursehub/internal/auth/service"
	"coursehub/internal/navigation"
	"coursehub/internal/notify"
	"coursehub/internal/platform/config"
	"coursehub/internal/platform/metrics"
	"coursehub/internal/platform/postgres"
	"coursehub/internal/platform/redis"
	"coursehub/internal/session"
	"coursehub/internal/session/store"
	"coursehub/internal/transport/httpclient"
)

// Version is stamped at build time.
var Version = "dev"

// App is the wired client: one session, one interceptor, one navigator.
type App struct {
	Config    config.Client
	Logger    *slog.Logger
	Notifier  notify.Notifier
	Session   *session.State
	Navigator *navigation.Navigator
	HTTP      *httpclient.Client
	Auth      *authservice.Service
	Registry  *prometheus.Registry

	Courses       *courses.Client
	Enrollments   *enrollments.Client
	Friendships   *friendships.Client
	Messages      *messages.Client
	Notifications *notifications.Client
	Transactions  *transactions.Client

	closers []func()
}

// Build wires every component for cfg.
func Build(ctx context.Context, cfg config.Client, notifier notify.Notifier, log *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: log, Notifier: notifier}

	st, err := app.openStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Session, err = session.New(st, session.WithLogger(log))
	if err != nil {
		app.Close()
		return nil, err
	}

	guard, err := navigation.NewGuard(navigation.DefaultTable(), app.Session, notifier)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Navigator, err = navigation.NewNavigator(guard, navigation.WithLogger(log))
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Registry = prometheus.NewRegistry()
	m := metrics.New(app.Registry)

	app.HTTP, err = httpclient.New(cfg.BaseURL, app.Session,
		httpclient.WithLogger(log),
		httpclient.WithMetrics(m),
		httpclient.WithNotifier(notifier),
		httpclient.WithRedirector(app.Navigator),
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithUserAgent("coursehub-cli/"+Version),
	)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Auth, err = authservice.New(app.HTTP, app.Session,
		authservice.WithLogger(log),
		authservice.WithMetrics(m),
		authservice.WithNotifier(notifier),
		authservice.WithLoginForm(cfg.LoginForm),
	)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Courses = courses.New(app.HTTP)
	app.Enrollments = enrollments.New(app.HTTP)
	app.Friendships = friendships.New(app.HTTP)
	app.Messages = messages.New(app.HTTP)
	app.Notifications = notifications.New(app.HTTP)
	app.Transactions = transactions.New(app.HTTP)
	return app, nil
}

// Close releases store connections. Safe on a partially built App.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openStore(ctx context.Context) (store.Store, error) {
	cfg := a.Config
	switch cfg.Store {
	case config.StoreMemory:
		return store.NewInMemory(), nil

	case config.StoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		if client == nil {
			return nil, fmt.Errorf("open redis store: REDIS_URL is empty")
		}
		a.closers = append(a.closers, func() {
			if err := client.Close(); err != nil {
				a.Logger.Warn("failed to close redis", "error", err)
			}
		})
		return store.NewRedis(client.Client, store.WithKeyPrefix(cfg.Redis.KeyPrefix)), nil

	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		st := store.NewPostgres(pool, cfg.Postgres.Namespace)
		if err := st.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return st, nil

	default:
		dir, err := cfg.ResolveStateDir()
		if err != nil {
			return nil, err
		}
		return store.NewFile(dir)
	}
}
