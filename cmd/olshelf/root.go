package main

import (
	"github.com/spf13/cobra"

	"github.com/mheiman/openlibrary-reader-sub000/version"
)

var (
	cfgFile string
	homeDir string
)

var rootCmd = &cobra.Command{
	Use:   "olshelf",
	Short: "Shelf synchronization client for a remote library service",
	Long: `olshelf keeps a local view of your reading shelves and curated lists in
sync with the remote library service.

It serves previously loaded data while refreshing in the background,
coalesces concurrent per-shelf refreshes, applies moves and removals only
after the server confirms them, and repairs books whose canonical work
record was merged or redirected server-side.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.olshelf/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "olshelf home directory (default: ~/.olshelf)",
	)

	rootCmd.AddCommand(versionCmd)
}
