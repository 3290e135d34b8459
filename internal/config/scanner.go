package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/marketlens/intrascan/internal/domain"
	"github.com/marketlens/intrascan/internal/scan/pipeline"
)

// ScannerConfig is the top-level scanner configuration file. Strategy presets
// provide defaults; anything set here overrides them.
type ScannerConfig struct {
	RulesDir string        `yaml:"rules_dir"`
	Cutoff   string        `yaml:"cutoff"`
	Scan     ScanOverrides `yaml:"scan"`
	Storage  StorageConfig `yaml:"storage"`
	Cache    CacheConfig   `yaml:"cache"`
	Server   ServerConfig  `yaml:"server"`
}

// ScanOverrides tunes the pipeline beyond the strategy preset. Zero values
// leave the preset untouched.
type ScanOverrides struct {
	LookbackDays      int     `yaml:"lookback_days"`
	MinDays           int     `yaml:"min_days"`
	ResultLimit       int     `yaml:"result_limit"`
	Parallelism       int     `yaml:"parallelism"`
	MinPrice          float64 `yaml:"min_price"`
	MaxPrice          float64 `yaml:"max_price"`
	MinBaselineVolume float64 `yaml:"min_baseline_volume"`
}

// StorageConfig points at the bar store.
type StorageConfig struct {
	DSN             string  `yaml:"dsn"`
	MaxOpenConns    int     `yaml:"max_open_conns"`
	RequestsPerSec  float64 `yaml:"requests_per_sec"`
	BreakerFailures int     `yaml:"breaker_failures"`
}

// CacheConfig points at the baseline cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// Load reads the scanner configuration file.
func Load(path string) (*ScannerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var cfg ScannerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML %s: %w", path, err)
	}
	if cfg.RulesDir == "" {
		cfg.RulesDir = "config/rules"
	}
	if cfg.Cutoff == "" {
		cfg.Cutoff = "09:50"
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8087"
	}
	return &cfg, nil
}

// PipelineConfig resolves the strategy preset plus file overrides into a
// ready pipeline.Config.
func (c *ScannerConfig) PipelineConfig(strategy string) (pipeline.Config, error) {
	cfg, err := pipeline.Preset(strategy)
	if err != nil {
		return pipeline.Config{}, err
	}
	cutoff, err := domain.ParseCutoff(c.Cutoff)
	if err != nil {
		return pipeline.Config{}, err
	}
	cfg.Cutoff = cutoff

	o := c.Scan
	if o.LookbackDays > 0 {
		cfg.LookbackDays = o.LookbackDays
	}
	if o.MinDays > 0 {
		cfg.MinDays = o.MinDays
	}
	if o.ResultLimit > 0 {
		cfg.ResultLimit = o.ResultLimit
	}
	if o.Parallelism > 0 {
		cfg.Parallelism = o.Parallelism
	}
	if o.MinPrice > 0 {
		cfg.MinPrice = o.MinPrice
	}
	if o.MaxPrice > 0 {
		cfg.MaxPrice = o.MaxPrice
	}
	if o.MinBaselineVolume > 0 {
		cfg.MinBaselineVolume = o.MinBaselineVolume
	}
	return cfg, nil
}
