package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidemoi/aidemoi/internal/client/watcher"
)

func (a *App) newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the access token and expire the session when it runs out",
		Long: "Checks the stored access token every check interval, warns shortly " +
			"before it expires and clears the session once it has. Press Enter to " +
			"check immediately; interrupt to stop.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx)
		},
	}
}

func (a *App) watch(ctx context.Context) error {
	b, err := a.newBroadcaster(a.config)
	if err != nil {
		return err
	}

	w := watcher.New(a.store, b, watcher.Config{
		Interval:   a.config.CheckInterval,
		WarnBefore: a.config.WarnBefore,
		Origin:     a.config.Origin,
		OnWarn: func(left time.Duration) {
			a.printf("Session expires in %s\n", left.Truncate(time.Second))
		},
		OnExpire: func() {
			if err := a.store.ExpireLocal(ctx); err != nil {
				a.logger.Error(ctx, "clearing expired session failed", "error", err)
			}
			a.printf("Session expired, please log in again\n")
		},
	}, a.logger)
	defer func() { _ = w.Close() }()

	go func() {
		for {
			if _, err := a.in.ReadString('\n'); err != nil {
				return
			}
			w.Nudge()
		}
	}()

	a.printf("Watching session (tab %s)\n", w.TabID())
	return w.Run(ctx)
}
