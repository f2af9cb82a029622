package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "toughnews",
		Short:         "Collect hard news from RSS feeds into a curated, bounded list",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default: from config)")

	root.AddCommand(collectCmd())
	root.AddCommand(articlesCmd())
	root.AddCommand(archiveCmd())
	root.AddCommand(curateCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func collectCmd() *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one batch: fetch, select, merge and archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd.Context(), policy)
		},
	}

	cmd.Flags().StringVar(&policy, "policy", "", "merge policy: additive or replace (default: from config)")
	return cmd
}

func articlesCmd() *cobra.Command {
	var (
		jsonOutput bool
		shownOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List stored articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArticles(cmd.Context(), jsonOutput, shownOnly)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&shownOnly, "shown", false, "only articles marked for display")
	return cmd
}

func archiveCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Show recent archive snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(cmd.Context(), jsonOutput, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 10, "max snapshots to show (0 for all)")
	return cmd
}

func curateCmd() *cobra.Command {
	var shown bool

	cmd := &cobra.Command{
		Use:   "curate <key>",
		Short: "Set the display flag of one article (key is its URL, or title when it has none)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCurate(cmd.Context(), args[0], shown)
		},
	}

	cmd.Flags().BoolVar(&shown, "shown", true, "display flag to set")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
