package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fintech-reviews/revload/config"
	"github.com/fintech-reviews/revload/pkg/ingest/schema"
	"github.com/fintech-reviews/revload/pkg/logging"
)

var (
	schemaOutput         string
	schemaPromptPassword bool
)

// NewSchemaCommand creates the 'schema' command group.
func NewSchemaCommand() *cobra.Command {
	deps := DefaultLoadDeps()

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the review database schema",
		Long: `Manage the review database schema.

The schema consists of the banks and reviews tables, their supporting
indexes, and the review_statistics view. All statements are idempotent,
so init is safe to run against an existing database.`,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the schema objects if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaInit(cmd.Context(), deps)
		},
	}
	initCmd.Flags().BoolVar(&schemaPromptPassword, "prompt-password", false, "Prompt for the database password")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show which schema objects exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaStatus(cmd.Context(), deps)
		},
	}
	statusCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Output format: text, json, yaml")

	cmd.AddCommand(initCmd)
	cmd.AddCommand(statusCmd)

	return cmd
}

func runSchemaInit(ctx context.Context, deps *LoadCommandDeps) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := newLogger(cfg)

	pool, err := deps.ConnectToDB(ctx, cfg, schemaPromptPassword)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := schema.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	logger.Info("Schema initialized", logging.F("database", cfg.Database.Database))
	fmt.Println("Schema is up to date")
	return nil
}

// schemaObjectView is the serializable form of an object's status.
type schemaObjectView struct {
	Name   string `json:"name" yaml:"name"`
	Kind   string `json:"kind" yaml:"kind"`
	Exists bool   `json:"exists" yaml:"exists"`
}

type schemaStatusView struct {
	Complete bool               `json:"complete" yaml:"complete"`
	Objects  []schemaObjectView `json:"objects" yaml:"objects"`
}

func runSchemaStatus(ctx context.Context, deps *LoadCommandDeps) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	pool, err := deps.ConnectToDB(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer pool.Close()

	status, err := schema.CheckStatus(ctx, pool)
	if err != nil {
		return fmt.Errorf("checking schema status: %w", err)
	}

	view := schemaStatusView{Complete: status.Complete()}
	for _, o := range status.Objects {
		view.Objects = append(view.Objects, schemaObjectView{Name: o.Name, Kind: o.Kind, Exists: o.Exists})
	}

	switch resolveFormat(cfg, schemaOutput) {
	case config.OutputFormatJSON:
		return outputJSON(view)
	case config.OutputFormatYAML:
		return outputYAML(view)
	default:
		outputSchemaStatusText(view)
		return nil
	}
}

func outputSchemaStatusText(v schemaStatusView) {
	for _, o := range v.Objects {
		mark := "missing"
		if o.Exists {
			mark = "ok"
		}
		fmt.Printf("  %-7s %-30s %s\n", mark, o.Name, o.Kind)
	}
	if v.Complete {
		fmt.Println("\nSchema is complete")
	} else {
		fmt.Println("\nSchema is incomplete, run 'revload schema init'")
	}
}
