package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shreyapuff/petalplanner/internal/bootstrap"
	"github.com/shreyapuff/petalplanner/internal/config"
	"github.com/shreyapuff/petalplanner/internal/export"
	"github.com/shreyapuff/petalplanner/internal/logger"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "petalplanner",
		Short:   "PetalPlanner - a to-do list that grows a mood garden",
		Version: Version,
		RunE:    runServe,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(exportGardenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		logger.ErrorLog(ctx, "Failed to initialize application: %v", err)
		app.Close()
		return err
	}

	if err := app.Run(ctx); err != nil {
		logger.ErrorLog(ctx, "Application failed: %v", err)
		return err
	}
	return nil
}

func exportGardenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-garden",
		Short: "Write the current garden to an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			ctx := cmd.Context()

			app := bootstrap.NewApp()
			defer app.Close()
			if err := app.InitializeCore(ctx); err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()

			if err := export.WriteGarden(ctx, f, config.DefaultEnvConfig.GARDEN_TEMPLATE_PATH, app.Planner.Tasks()); err != nil {
				return err
			}
			fmt.Printf("Garden written to %s (%d flowers)\n", out, len(export.GardenRows(app.Planner.Tasks())))
			return nil
		},
	}

	cmd.Flags().StringP("out", "o", "garden.xlsx", "Output file")
	return cmd
}
