package domain

import "time"

// BaselineStats holds historical reference statistics for one symbol,
// computed fresh per scan from the lookback window preceding the scan date.
type BaselineStats struct {
	Symbol         string  `json:"symbol"`
	QualifyingDays int     `json:"qualifying_days"`
	AvgVolume      float64 `json:"avg_volume"`
	AvgClose       float64 `json:"avg_close"`
	CloseStdDev    float64 `json:"close_std_dev"`
}

// Trend classifies the moving-average relationship of the current session.
type Trend string

const (
	TrendBullish  Trend = "BULLISH_TREND"
	TrendBearish  Trend = "BEARISH_TREND"
	TrendSideways Trend = "SIDEWAYS"
)

// BandPosition locates the current price relative to the baseline
// avg_close ± 2*stddev reference band.
type BandPosition string

const (
	BandBelowLower BandPosition = "BELOW_LOWER"
	BandAboveUpper BandPosition = "ABOVE_UPPER"
	BandMiddle     BandPosition = "MIDDLE"
)

// Signal is the discrete trading-action classification of a candidate.
type Signal string

const (
	SignalStrongBuy  Signal = "STRONG_BUY"
	SignalBuy        Signal = "BUY"
	SignalBreakout   Signal = "BREAKOUT"
	SignalHold       Signal = "HOLD"
	SignalSell       Signal = "SELL"
	SignalStrongSell Signal = "STRONG_SELL"
)

// Risk is the ordinal risk bucket assigned from accumulated risk factors.
type Risk string

const (
	RiskVeryLow Risk = "VERY_LOW_RISK"
	RiskLow     Risk = "LOW_RISK"
	RiskMedium  Risk = "MEDIUM_RISK"
	RiskHigh    Risk = "HIGH_RISK"
)

// IndicatorSnapshot is the per-symbol feature set computed from the current
// day's bars up to the cutoff, normalized against the baseline. Derived
// deterministically and never persisted as mutable state.
type IndicatorSnapshot struct {
	Symbol         string       `json:"symbol"`
	Timestamp      time.Time    `json:"timestamp"`
	OpeningPrice   float64      `json:"opening_price"`
	CurrentPrice   float64      `json:"current_price"`
	DayHigh        float64      `json:"day_high"`
	DayLow         float64      `json:"day_low"`
	TotalVolume    float64      `json:"total_volume"`
	VolumeCV       float64      `json:"volume_cv"`
	RelativeVolume float64      `json:"relative_volume"`
	PriceChangePct float64      `json:"price_change_pct"`
	VolatilityPct  float64      `json:"volatility_pct"`
	RSI            float64      `json:"rsi"`
	ShortMA        float64      `json:"short_ma"`
	LongMA         float64      `json:"long_ma"`
	Trend          Trend        `json:"trend"`
	BandPosition   BandPosition `json:"band_position"`
}

// RuleVerdict records the outcome of evaluating one rule against a snapshot.
type RuleVerdict struct {
	RuleName     string  `json:"rule_name"`
	Matched      bool    `json:"matched"`
	Contribution float64 `json:"contribution"`
}

// ScanCandidate is one symbol's aggregated scan result, immutable once
// produced by scoring. Ordering key is CompositeScore descending with ties
// broken by smaller absolute price change, then symbol.
type ScanCandidate struct {
	Symbol          string            `json:"symbol"`
	Snapshot        IndicatorSnapshot `json:"snapshot"`
	Verdicts        []RuleVerdict     `json:"verdicts"`
	VolumeScore     float64           `json:"volume_score"`
	MomentumScore   float64           `json:"momentum_score"`
	VolatilityScore float64           `json:"volatility_score"`
	LiquidityScore  float64           `json:"liquidity_score"`
	RuleBonus       float64           `json:"rule_bonus"`
	CompositeScore  float64           `json:"composite_score"`
	Signal          Signal            `json:"signal"`
	Risk            Risk              `json:"risk"`
}

// ExclusionReason explains why a symbol dropped out of a scan. Exclusions are
// normal filtering, not errors, and never abort the batch.
type ExclusionReason string

const (
	ExcludeInsufficientHistory ExclusionReason = "insufficient historical coverage"
	ExcludeInsufficientBars    ExclusionReason = "insufficient same-day bars"
	ExcludeUniverseFilter      ExclusionReason = "failed universe filter"
	ExcludeDataRetrieval       ExclusionReason = "data retrieval failed"
)

// Exclusion records one dropped symbol with its reason for diagnostics.
type Exclusion struct {
	Symbol string          `json:"symbol"`
	Reason ExclusionReason `json:"reason"`
	Detail string          `json:"detail,omitempty"`
}
