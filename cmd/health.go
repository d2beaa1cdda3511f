package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fintech-reviews/revload/config"
	"github.com/fintech-reviews/revload/pkg/db"
)

var (
	healthOutput       string
	healthWait         bool
	healthWaitInterval time.Duration
)

// healthView is the serializable form of a database health check.
type healthView struct {
	Healthy       bool    `json:"healthy" yaml:"healthy"`
	LatencyMS     float64 `json:"latency_ms" yaml:"latency_ms"`
	TotalConns    int32   `json:"total_conns" yaml:"total_conns"`
	IdleConns     int32   `json:"idle_conns" yaml:"idle_conns"`
	AcquiredConns int32   `json:"acquired_conns" yaml:"acquired_conns"`
	Error         string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewHealthCommand creates the 'health' command.
func NewHealthCommand() *cobra.Command {
	deps := DefaultLoadDeps()

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(cmd.Context(), deps)
		},
	}

	cmd.Flags().StringVarP(&healthOutput, "output", "o", "", "Output format: text, json, yaml")
	cmd.Flags().BoolVarP(&healthWait, "wait", "w", false, "Block until the database answers a ping")
	cmd.Flags().DurationVar(&healthWaitInterval, "interval", 2*time.Second, "Poll interval for --wait")

	return cmd
}

func runHealth(ctx context.Context, deps *LoadCommandDeps) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	pool, err := deps.ConnectToDB(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer pool.Close()

	if healthWait {
		if err := db.WaitForReady(ctx, pool, healthWaitInterval); err != nil {
			return fmt.Errorf("waiting for database: %w", err)
		}
	}

	status := db.Check(ctx, pool)

	view := healthView{
		Healthy:       status.Healthy,
		LatencyMS:     float64(status.Latency.Microseconds()) / 1000.0,
		TotalConns:    status.TotalConns,
		IdleConns:     status.IdleConns,
		AcquiredConns: status.AcquiredConns,
	}
	if status.Error != nil {
		view.Error = status.Error.Error()
	}

	switch resolveFormat(cfg, healthOutput) {
	case config.OutputFormatJSON:
		if err := outputJSON(view); err != nil {
			return err
		}
	case config.OutputFormatYAML:
		if err := outputYAML(view); err != nil {
			return err
		}
	default:
		outputHealthText(view)
	}

	if !view.Healthy {
		return fmt.Errorf("database is not healthy")
	}
	return nil
}

func outputHealthText(v healthView) {
	if v.Healthy {
		fmt.Println("Database: healthy")
	} else {
		fmt.Println("Database: unhealthy")
	}
	fmt.Printf("  Latency:  %.1fms\n", v.LatencyMS)
	fmt.Printf("  Conns:    %d total, %d idle, %d acquired\n", v.TotalConns, v.IdleConns, v.AcquiredConns)
	if v.Error != "" {
		fmt.Printf("  Error:    %s\n", v.Error)
	}
}
