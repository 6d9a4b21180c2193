package main

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mheiman/openlibrary-reader-sub000/internal/auth"
	"github.com/mheiman/openlibrary-reader-sub000/internal/config"
	syncpkg "github.com/mheiman/openlibrary-reader-sub000/internal/sync"
)

var shelvesForce bool

var shelvesCmd = &cobra.Command{
	Use:   "shelves",
	Short: "Load shelves once and print them",
	Long: `Load shelves (from cache when fresh, otherwise from the server)
and print a summary of each.

Examples:
  olshelf shelves            # Cached data when available
  olshelf shelves --force    # Always refetch from the server`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger(slog.LevelWarn)

		a, err := buildApp(logger)
		if err != nil {
			return err
		}
		defer a.Engine.Dispose()

		if config.ResolveEnvVars(a.Config.Get().API.Token) != "" {
			a.Auth.Set(auth.StateAuthenticated)
		} else {
			a.Auth.Set(auth.StateUnauthenticated)
		}

		a.Engine.LoadShelves(ctx, shelvesForce)

		state := a.Engine.State()
		switch state.Phase {
		case syncpkg.PhaseError:
			return fmt.Errorf("failed to load shelves: %s", state.Message)
		case syncpkg.PhaseLoaded:
		default:
			return fmt.Errorf("shelves unavailable (not signed in and no cached data)")
		}

		for _, shelf := range state.Shelves {
			visibility := color.GreenString("public")
			if !shelf.IsVisible {
				visibility = color.YellowString("private")
			}
			fmt.Printf("%-24s %4d books  %-8s synced %s\n",
				shelf.Name, shelf.TotalCount, visibility,
				shelf.LastSyncedAt.Format("2006-01-02 15:04"),
			)
		}
		if len(state.BookLists) > 0 {
			fmt.Printf("\n%d curated lists\n", len(state.BookLists))
		}
		return nil
	},
}

func init() {
	shelvesCmd.Flags().BoolVar(&shelvesForce, "force", false, "Bypass cached shelves")

	rootCmd.AddCommand(shelvesCmd)
}
