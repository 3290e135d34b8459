package main

import (
	"github.com/spf13/cobra"

	"github.com/marketlens/intrascan/internal/application"
	httpiface "github.com/marketlens/intrascan/internal/interfaces/http"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scan results, health, and metrics over HTTP",
		Long: `Starts an HTTP server exposing on-demand scans at
/api/v1/scan/{strategy}, Prometheus metrics at /metrics, and /health.`,
		RunE: runServe,
	}
	cmd.Flags().String("listen", "", "Listen address (overrides configuration)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	app, err := application.New(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	server := httpiface.NewServer(app, app.PrometheusRegistry())
	return server.ListenAndServe(cfg.Server.Listen)
}
