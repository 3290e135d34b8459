package pipeline

import (
	"fmt"

	"github.com/marketlens/intrascan/internal/scoring"
)

// Strategy names. All strategies share one pipeline; they differ only in
// rule set and scoring emphasis.
const (
	StrategyBreakout       = "breakout"
	StrategyCRP            = "crp"
	StrategyRelativeVolume = "relative_volume"
	StrategyTechnical      = "technical"
	StrategyMomentum       = "momentum"
)

// Strategies lists the known strategy names in presentation order.
var Strategies = []string{
	StrategyBreakout,
	StrategyCRP,
	StrategyRelativeVolume,
	StrategyTechnical,
	StrategyMomentum,
}

// Preset returns the default Config for a named strategy. The rule set for
// the strategy is loaded separately from configuration.
func Preset(strategy string) (Config, error) {
	cfg := Config{
		Strategy:          strategy,
		LookbackDays:      14,
		MinDays:           7,
		ResultLimit:       20,
		Parallelism:       8,
		MinPrice:          1.0,
		MinBaselineVolume: 10000,
		Weights:           scoring.DefaultWeights(),
		VolatilityTarget:  3.0,
	}
	switch strategy {
	case StrategyBreakout:
	case StrategyCRP:
		// CRP hunts narrow-range consolidation, so the volatility sweet
		// spot sits much lower and gets more of the composite.
		cfg.VolatilityTarget = 1.5
		cfg.Weights = scoring.Weights{Volume: 0.25, Momentum: 0.20, Volatility: 0.40, Liquidity: 0.15}
	case StrategyRelativeVolume:
		cfg.Weights = scoring.Weights{Volume: 0.55, Momentum: 0.15, Volatility: 0.15, Liquidity: 0.15}
	case StrategyTechnical:
		cfg.Weights = scoring.Weights{Volume: 0.25, Momentum: 0.35, Volatility: 0.25, Liquidity: 0.15}
	case StrategyMomentum:
		cfg.Weights = scoring.Weights{Volume: 0.30, Momentum: 0.45, Volatility: 0.10, Liquidity: 0.15}
	default:
		return Config{}, fmt.Errorf("unknown strategy %q", strategy)
	}
	return cfg, nil
}
