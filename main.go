// Package main provides the revload CLI entry point.
// revload loads mobile banking app review exports into PostgreSQL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fintech-reviews/revload/cmd"
	"github.com/fintech-reviews/revload/pkg/buildinfo"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "revload",
	Short: "Load app review CSV exports into PostgreSQL",
	Long: `revload loads mobile banking app review CSV exports into a normalized
PostgreSQL schema.

Reviews arrive as flat CSV files from scraping and enrichment runs, with
header names that drift between exports. revload normalizes each record,
resolves bank names to dimension rows, derives a stable identity for
records that lack one, and upserts in chunks so that re-running a load
is always safe.

COMMON WORKFLOWS:
  First load:       revload schema init  ->  revload load ./data
  After enrichment: revload load ./data  (updates sentiment and themes only)
  Check the data:   revload verify
  Check the system: revload health  ->  revload schema status

DISCOVERY:
  revload <command> --help    Flags and examples for any command`,
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildinfo.Get("revload")
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "revload version %s\n", info.Version)
		fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
		fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cmd.NewLoadCommand())
	rootCmd.AddCommand(cmd.NewSchemaCommand())
	rootCmd.AddCommand(cmd.NewVerifyCommand())
	rootCmd.AddCommand(cmd.NewHealthCommand())
	rootCmd.AddCommand(cmd.NewCredentialsCommand())
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
