package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fintech-reviews/revload/config"
	"github.com/fintech-reviews/revload/pkg/ingest/verify"
)

var verifyOutput string

// NewVerifyCommand creates the 'verify' command.
func NewVerifyCommand() *cobra.Command {
	deps := DefaultLoadDeps()

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run integrity checks against the loaded data",
		Long: `Run integrity checks against the loaded data.

Reports the per-bank review counts with average ratings, the total review
count, and the sentiment label distribution. A failing check query is
reported as a warning rather than an error, so a partially readable
database still produces a report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), deps)
		},
	}

	cmd.Flags().StringVarP(&verifyOutput, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

func runVerify(ctx context.Context, deps *LoadCommandDeps) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := newLogger(cfg)

	pool, err := deps.ConnectToDB(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer pool.Close()

	report, err := verify.NewVerifier(pool, logger).Run(ctx)
	if err != nil {
		return err
	}

	switch resolveFormat(cfg, verifyOutput) {
	case config.OutputFormatJSON:
		return outputJSON(report)
	case config.OutputFormatYAML:
		return outputYAML(report)
	default:
		outputReportText(report)
		return nil
	}
}

// outputReportText formats a verification report for terminal display.
func outputReportText(r *verify.Report) {
	fmt.Printf("Total reviews: %d\n", r.TotalReviews)

	if len(r.Banks) > 0 {
		fmt.Println("\nReviews per bank:")
		for _, b := range r.Banks {
			if b.AverageRating != nil {
				fmt.Printf("  %-30s %6d  (avg rating %.2f)\n", b.BankName, b.ReviewCount, *b.AverageRating)
			} else {
				fmt.Printf("  %-30s %6d\n", b.BankName, b.ReviewCount)
			}
		}
	}

	if len(r.Sentiment) > 0 {
		fmt.Println("\nSentiment distribution:")
		for _, s := range r.Sentiment {
			fmt.Printf("  %-12s %6d\n", s.Label, s.Count)
		}
	}

	for _, w := range r.Warnings {
		fmt.Printf("\nWarning: %s\n", w)
	}
}
