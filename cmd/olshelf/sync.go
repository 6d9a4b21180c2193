package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mheiman/openlibrary-reader-sub000/internal/auth"
	"github.com/mheiman/openlibrary-reader-sub000/internal/config"
	syncpkg "github.com/mheiman/openlibrary-reader-sub000/internal/sync"
)

var syncVerbose bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the sync engine in the foreground",
	Long: `Run the sync engine until interrupted.

The engine loads shelves and lists (from cache first when available),
refreshes them in the background, and keeps the local cache current.
Shelf state transitions are logged as they are published.

Examples:
  olshelf sync               # Run until Ctrl+C
  olshelf sync --verbose     # Include debug logging`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		level := slog.LevelInfo
		if syncVerbose {
			level = slog.LevelDebug
		}
		logger := newLogger(level)

		a, err := buildApp(logger)
		if err != nil {
			return err
		}
		defer a.Engine.Dispose()

		sub := a.Engine.Subscribe(func(s syncpkg.State) {
			logger.Info("shelf state changed",
				"phase", s.Phase.String(),
				"shelves", len(s.Shelves),
				"refreshing", s.IsRefreshing,
			)
		})
		defer a.Engine.Unsubscribe(sub)

		a.Config.WatchConfig()
		a.Config.OnChange(func(cfg *config.Config) {
			logger.Info("config reloaded",
				"staleness", cfg.Sync.StalenessThreshold(),
				"debounce", cfg.Sync.Debounce(),
			)
		})

		// A session token in config counts as a completed login.
		if config.ResolveEnvVars(a.Config.Get().API.Token) != "" {
			a.Auth.Set(auth.StateAuthenticated)
		} else {
			a.Auth.Set(auth.StateUnauthenticated)
			logger.Warn("no session token configured, running unauthenticated")
		}

		a.Engine.Initialize(ctx)

		<-ctx.Done()
		logger.Info("shutting down")
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncVerbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(syncCmd)
}
