package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketlens/intrascan/internal/application"
	"github.com/marketlens/intrascan/internal/config"
	"github.com/marketlens/intrascan/internal/report"
	"github.com/marketlens/intrascan/internal/scan/pipeline"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <strategy>",
		Short: "Run one scan and print ranked candidates",
		Long: `Runs the named strategy for a scan date, printing candidates ranked by
composite score. Excluded symbols are listed with their reasons.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: pipeline.Strategies,
		RunE:      runScan,
	}
	cmd.Flags().String("date", "", "Scan date YYYY-MM-DD (default today)")
	cmd.Flags().String("format", report.FormatTable, "Output format (table|csv|json|yaml)")
	cmd.Flags().Int("limit", 0, "Override result limit (0 keeps the configured limit)")
	cmd.Flags().Duration("timeout", 5*time.Minute, "Scan deadline")
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	strategy := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		cfg.Scan.ResultLimit = limit
	}

	scanDate := time.Now()
	if raw, _ := cmd.Flags().GetString("date"); raw != "" {
		scanDate, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", raw)
		}
	}

	app, err := application.New(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := app.RunScan(ctx, strategy, scanDate)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	return report.Render(os.Stdout, result, format)
}

func loadConfig(cmd *cobra.Command) (*config.ScannerConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
