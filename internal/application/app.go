package application

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/marketlens/intrascan/internal/config"
	"github.com/marketlens/intrascan/internal/data"
	"github.com/marketlens/intrascan/internal/data/cache"
	"github.com/marketlens/intrascan/internal/data/pg"
	"github.com/marketlens/intrascan/internal/metrics"
	"github.com/marketlens/intrascan/internal/scan/pipeline"
)

// App assembles the data source chain, telemetry, and configuration into a
// ready-to-run scanner. It implements the HTTP layer's ScanRunner.
type App struct {
	cfg      *config.ScannerConfig
	source   pipeline.DataSource
	store    *pg.Store
	registry *metrics.Registry
	promReg  *prometheus.Registry
}

// New opens the bar store and builds the guarded, optionally cached, data
// source chain: postgres -> circuit breaker + rate limit -> redis cache.
func New(cfg *config.ScannerConfig) (*App, error) {
	store, err := pg.Open(cfg.Storage.DSN, cfg.Storage.MaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("opening bar store: %w", err)
	}

	var source pipeline.DataSource = data.NewGuarded(store, cfg.Storage.RequestsPerSec, cfg.Storage.BreakerFailures)

	if cfg.Cache.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr})
		source = cache.New(source, rdb, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)
		log.Info().Str("addr", cfg.Cache.Addr).Msg("series cache enabled")
	}

	registry := metrics.NewRegistry()
	promReg := prometheus.NewRegistry()
	if err := registry.Register(promReg); err != nil {
		store.Close()
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	return &App{
		cfg:      cfg,
		source:   source,
		store:    store,
		registry: registry,
		promReg:  promReg,
	}, nil
}

// NewWithSource builds an App over an existing data source, used by tests
// and offline replay.
func NewWithSource(cfg *config.ScannerConfig, source pipeline.DataSource) *App {
	registry := metrics.NewRegistry()
	promReg := prometheus.NewRegistry()
	_ = registry.Register(promReg)
	return &App{cfg: cfg, source: source, registry: registry, promReg: promReg}
}

// Close releases the bar store.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// PrometheusRegistry exposes the metric registry for the HTTP layer.
func (a *App) PrometheusRegistry() *prometheus.Registry {
	return a.promReg
}

// RunScan loads the strategy's rule set, resolves its pipeline config, and
// runs one scan.
func (a *App) RunScan(ctx context.Context, strategy string, scanDate time.Time) (*pipeline.Result, error) {
	ruleSet, err := config.LoadRuleSet(a.cfg.RulesDir, strategy)
	if err != nil {
		return nil, fmt.Errorf("loading rule set for %s: %w", strategy, err)
	}

	pipeCfg, err := a.cfg.PipelineConfig(strategy)
	if err != nil {
		return nil, err
	}

	scanner := pipeline.New(a.source, ruleSet, pipeCfg).WithRecorder(a.registry)
	return scanner.Scan(ctx, scanDate)
}
