package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	goruntime "runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"coursehub/internal/api"
	"coursehub/internal/api/transactions"
	"coursehub/internal/platform/httpserver"
	"coursehub/internal/session"
)

// dashboard is the summary shown on the home page.
type dashboard struct {
	User                *session.Profile      `json:"user"`
	Balance             *transactions.Balance `json:"balance,omitempty"`
	UnreadMessages      int                   `json:"unread_messages"`
	UnreadNotifications int                   `json:"unread_notifications"`
}

// loadDashboard fetches the dashboard panels concurrently. The first failure
// cancels the rest.
func (rt *runtime) loadDashboard(ctx context.Context) (dashboard, error) {
	var d dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		user, err := rt.app.Auth.FetchCurrentUser(gctx)
		d.User = user
		return err
	})
	if !rt.app.Session.User().IsAdmin() {
		g.Go(func() error {
			b, err := rt.app.Transactions.Balance(gctx)
			d.Balance = b
			return err
		})
	}
	g.Go(func() error {
		n, err := rt.app.Messages.UnreadCount(gctx)
		d.UnreadMessages = n
		return err
	})
	g.Go(func() error {
		n, err := rt.app.Notifications.UnreadCount(gctx)
		d.UnreadNotifications = n
		return err
	})

	if err := g.Wait(); err != nil {
		return dashboard{}, err
	}
	return d, nil
}

func statusCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the dashboard: profile, balance and unread counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := rt.loadDashboard(cmd.Context())
			if err != nil {
				return err
			}
			p := rt.printer()
			return p.emit(d, func() {
				p.line("%s", rt.app.Navigator.Title())
				pairs := [][2]string{
					{"User", d.User.DisplayName() + " (" + d.User.UserID() + ")"},
					{"Role", d.User.Role()},
				}
				if d.Balance != nil {
					pairs = append(pairs, [2]string{"Balance", money(d.Balance.Balance)})
				}
				pairs = append(pairs,
					[2]string{"Unread messages", fmt.Sprint(d.UnreadMessages)},
					[2]string{"Unread notifications", fmt.Sprint(d.UnreadNotifications)},
				)
				p.fields(pairs...)
			})
		},
	}
	return routed(cmd, "/app/dashboard")
}

func watchCmd(rt *runtime) *cobra.Command {
	var (
		interval time.Duration
		count    int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll unread counts until interrupted",
		Long: `Poll unread message and notification counts, printing a line whenever
they change. The token is refreshed before it expires.

When COURSEHUB_METRICS_ADDR is set, client metrics are served at /metrics
on that address while watching.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return api.Invalid("interval must be positive")
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			g, gctx := errgroup.WithContext(ctx)
			if addr := rt.app.Config.MetricsAddr; addr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(rt.app.Registry, promhttp.HandlerOpts{}))
				srv := httpserver.New(addr, mux)
				g.Go(func() error {
					return httpserver.Run(gctx, srv, rt.app.Logger)
				})
			}
			g.Go(func() error {
				defer cancel()
				return rt.poll(gctx, interval, count)
			})
			return g.Wait()
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Polling interval")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many polls (0 polls forever)")
	return routed(cmd, "/app/dashboard")
}

func (rt *runtime) poll(ctx context.Context, interval time.Duration, count int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := [2]int{-1, -1}
	for i := 0; count == 0 || i < count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}

		if err := rt.app.Auth.EnsureFresh(ctx, rt.app.Config.RefreshLeeway); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return err
		}
		messages, err := rt.app.Messages.UnreadCount(ctx)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return err
		}
		notices, err := rt.app.Notifications.UnreadCount(ctx)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return err
		}

		if current := [2]int{messages, notices}; current != last {
			last = current
			rt.printer().line("%s  unread messages: %d  unread notifications: %d",
				time.Now().Format("15:04:05"), messages, notices)
		}
	}
	return nil
}

func versionCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := map[string]string{
				"version": Version,
				"go":      goruntime.Version(),
				"os_arch": goruntime.GOOS + "/" + goruntime.GOARCH,
			}
			p := rt.printer()
			return p.emit(info, func() {
				p.fields(
					[2]string{"Version", info["version"]},
					[2]string{"Go version", info["go"]},
					[2]string{"OS/Arch", info["os_arch"]},
				)
			})
		},
	}
	cmd.Annotations = map[string]string{annotationNoSession: "true"}
	return cmd
}
