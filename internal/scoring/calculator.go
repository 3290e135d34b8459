package scoring

import (
	"math"
	"sort"

	"github.com/marketlens/intrascan/internal/domain"
)

// Weights allocates the composite score across sub-scores.
type Weights struct {
	Volume     float64 `yaml:"volume" json:"volume"`
	Momentum   float64 `yaml:"momentum" json:"momentum"`
	Volatility float64 `yaml:"volatility" json:"volatility"`
	Liquidity  float64 `yaml:"liquidity" json:"liquidity"`
}

// Sum returns the total weight allocation.
func (w Weights) Sum() float64 {
	return w.Volume + w.Momentum + w.Volatility + w.Liquidity
}

// DefaultWeights is the 35/30/20/15 allocation.
func DefaultWeights() Weights {
	return Weights{Volume: 0.35, Momentum: 0.30, Volatility: 0.20, Liquidity: 0.15}
}

// Calculator turns snapshots plus rule verdicts into ranked candidates. The
// liquidity sub-score needs the whole candidate pool, so scoring is two-phase:
// ScoreSymbol per symbol, then RankPool once all symbols are in.
type Calculator struct {
	weights          Weights
	volatilityTarget float64
}

// NewCalculator builds a calculator with the given weights. A zero or
// negative volatility target falls back to the 3% policy default.
func NewCalculator(weights Weights, volatilityTarget float64) *Calculator {
	if volatilityTarget <= 0 {
		volatilityTarget = 3.0
	}
	return &Calculator{weights: weights, volatilityTarget: volatilityTarget}
}

// ScoredSymbol is the per-symbol phase output, complete except for the
// pool-relative liquidity sub-score and the final composite.
type ScoredSymbol struct {
	Snapshot        domain.IndicatorSnapshot
	Verdicts        []domain.RuleVerdict
	VolumeScore     float64
	MomentumScore   float64
	VolatilityScore float64
	RuleBonus       float64
}

// ScoreSymbol computes every sub-score derivable from one symbol in
// isolation. Safe to call concurrently across symbols.
func (c *Calculator) ScoreSymbol(snap domain.IndicatorSnapshot, verdicts []domain.RuleVerdict) ScoredSymbol {
	bonus := 0.0
	for _, v := range verdicts {
		bonus += v.Contribution
	}
	return ScoredSymbol{
		Snapshot:        snap,
		Verdicts:        verdicts,
		VolumeScore:     volumeScore(snap.RelativeVolume),
		MomentumScore:   momentumScore(snap.PriceChangePct),
		VolatilityScore: c.volatilityScore(snap.VolatilityPct),
		RuleBonus:       bonus,
	}
}

// RankPool runs the pool-relative liquidity phase, assembles composite
// scores and classifications, and returns candidates in ranked order:
// composite descending, ties broken by ascending |price_change_pct|, then
// symbol. The tie-break is a strict total order for reproducibility.
func (c *Calculator) RankPool(pool []ScoredSymbol) []domain.ScanCandidate {
	volumes := make([]float64, len(pool))
	for i, s := range pool {
		volumes[i] = s.Snapshot.TotalVolume
	}

	candidates := make([]domain.ScanCandidate, len(pool))
	for i, s := range pool {
		liquidity := liquidityScore(s.Snapshot, volumes)
		composite := c.weights.Volume*s.VolumeScore +
			c.weights.Momentum*s.MomentumScore +
			c.weights.Volatility*s.VolatilityScore +
			c.weights.Liquidity*liquidity +
			s.RuleBonus
		candidates[i] = domain.ScanCandidate{
			Symbol:          s.Snapshot.Symbol,
			Snapshot:        s.Snapshot,
			Verdicts:        s.Verdicts,
			VolumeScore:     s.VolumeScore,
			MomentumScore:   s.MomentumScore,
			VolatilityScore: s.VolatilityScore,
			LiquidityScore:  liquidity,
			RuleBonus:       s.RuleBonus,
			CompositeScore:  clamp(composite, 0, 100),
			Signal:          classifySignal(s.Snapshot),
			Risk:            classifyRisk(s.Snapshot),
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.CompositeScore != b.CompositeScore {
			return a.CompositeScore > b.CompositeScore
		}
		achg := math.Abs(a.Snapshot.PriceChangePct)
		bchg := math.Abs(b.Snapshot.PriceChangePct)
		if achg != bchg {
			return achg < bchg
		}
		return a.Symbol < b.Symbol
	})
	return candidates
}

// volumeScore maps relative volume onto [0,100]: 1x and below read 0, each
// additional 1x adds 50 points, saturating at 3x.
func volumeScore(relativeVolume float64) float64 {
	return clamp((relativeVolume-1)*50, 0, 100)
}

// momentumScore centers at 50 for a flat tape; ±5% price change saturates.
func momentumScore(priceChangePct float64) float64 {
	return clamp(50+priceChangePct*10, 0, 100)
}

// volatilityScore peaks at the target percentage and falls off symmetrically,
// hitting 0 four points away from the target.
func (c *Calculator) volatilityScore(volatilityPct float64) float64 {
	return clamp(100-math.Abs(volatilityPct-c.volatilityTarget)*25, 0, 100)
}

// liquidityScore blends the symbol's volume percentile within the pool with
// a consistency measure from per-bar volume variability.
func liquidityScore(snap domain.IndicatorSnapshot, poolVolumes []float64) float64 {
	percentile := percentileRank(snap.TotalVolume, poolVolumes)
	consistency := clamp(100/(1+snap.VolumeCV), 0, 100)
	return clamp(0.6*percentile+0.4*consistency, 0, 100)
}

// percentileRank is the share of the pool at or below the given volume.
func percentileRank(volume float64, poolVolumes []float64) float64 {
	if len(poolVolumes) == 0 {
		return 0
	}
	atOrBelow := 0
	for _, v := range poolVolumes {
		if v <= volume {
			atOrBelow++
		}
	}
	return float64(atOrBelow) / float64(len(poolVolumes)) * 100
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
