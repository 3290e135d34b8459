package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/marketlens/intrascan/internal/domain"
	"github.com/marketlens/intrascan/internal/domain/baseline"
	"github.com/marketlens/intrascan/internal/domain/indicators"
	"github.com/marketlens/intrascan/internal/rules"
	"github.com/marketlens/intrascan/internal/scoring"
)

// ErrUniverseResolution marks the one fatal scan failure: the symbol universe
// itself could not be obtained. Every per-symbol failure becomes an exclusion
// instead.
var ErrUniverseResolution = errors.New("universe resolution failed")

// DataSource is the storage collaborator. Retrieval is a blocking call
// boundary; pooling and retries are the implementation's concern.
type DataSource interface {
	// ListSymbols returns the tradable universe for the scan date.
	ListSymbols(ctx context.Context, scanDate time.Time) ([]string, error)

	// HistoricalSeries returns multi-day per-minute bars for the lookback
	// window preceding the scan date.
	HistoricalSeries(ctx context.Context, symbol string, scanDate time.Time, lookbackDays int) (domain.SymbolSeries, error)

	// CurrentSeries returns the scan-day per-minute bars.
	CurrentSeries(ctx context.Context, symbol string, scanDate time.Time) (domain.SymbolSeries, error)
}

// Config carries one scan invocation's parameters.
type Config struct {
	Strategy     string            `yaml:"strategy" json:"strategy"`
	Cutoff       domain.CutoffTime `yaml:"cutoff" json:"cutoff"`
	LookbackDays int               `yaml:"lookback_days" json:"lookback_days"`
	MinDays      int               `yaml:"min_days" json:"min_days"`
	ResultLimit  int               `yaml:"result_limit" json:"result_limit"`
	Parallelism  int               `yaml:"parallelism" json:"parallelism"`

	// Universe filters applied at the baseline stage.
	MinPrice          float64 `yaml:"min_price" json:"min_price"`
	MaxPrice          float64 `yaml:"max_price" json:"max_price"`
	MinBaselineVolume float64 `yaml:"min_baseline_volume" json:"min_baseline_volume"`

	Weights          scoring.Weights `yaml:"weights" json:"weights"`
	VolatilityTarget float64         `yaml:"volatility_target" json:"volatility_target"`
}

// Result is the caller-visible scan outcome: ranked candidates plus every
// exclusion with its reason. Partial marks a scan cancelled mid-flight that
// returns only the symbols finalized before cancellation.
type Result struct {
	RunID      string                 `json:"run_id"`
	Strategy   string                 `json:"strategy"`
	ScanDate   time.Time              `json:"scan_date"`
	Cutoff     domain.CutoffTime      `json:"cutoff"`
	Candidates []domain.ScanCandidate `json:"candidates"`
	Exclusions []domain.Exclusion     `json:"exclusions"`
	Partial    bool                   `json:"partial"`
	Duration   time.Duration          `json:"duration"`
}

// Recorder receives scan telemetry. Implementations must be safe for
// concurrent use; a nil Recorder disables recording.
type Recorder interface {
	ScanCompleted(strategy string, duration time.Duration, candidates int)
	SymbolExcluded(strategy string, reason domain.ExclusionReason)
}

// Scanner wires baseline, indicator, rule, and scoring steps into the
// five-stage scan pipeline. One Scanner may serve many scans; it holds no
// per-scan state.
type Scanner struct {
	source   DataSource
	ruleSet  rules.RuleSet
	calc     *scoring.Calculator
	cfg      Config
	recorder Recorder
}

// New builds a Scanner. The rule set is treated as read-only for the
// Scanner's lifetime.
func New(source DataSource, ruleSet rules.RuleSet, cfg Config) *Scanner {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	if cfg.MinDays <= 0 {
		cfg.MinDays = 7
	}
	return &Scanner{
		source:  source,
		ruleSet: ruleSet,
		calc:    scoring.NewCalculator(cfg.Weights, cfg.VolatilityTarget),
		cfg:     cfg,
	}
}

// WithRecorder attaches a telemetry recorder and returns the scanner.
func (s *Scanner) WithRecorder(r Recorder) *Scanner {
	s.recorder = r
	return s
}

// symbolOutcome is one symbol's result from the parallel phase: either a
// scored symbol or an exclusion, never both.
type symbolOutcome struct {
	scored    *scoring.ScoredSymbol
	exclusion *domain.Exclusion
}

// Scan runs the pipeline for one scan date: resolve universe, per-symbol
// baseline + indicators + rules in a bounded worker pool, then the
// pool-relative scoring phase after the barrier, then the result limit.
//
// Cancellation is cooperative between symbols: in-flight symbols finish,
// undispatched ones are skipped, and the result is flagged Partial.
func (s *Scanner) Scan(ctx context.Context, scanDate time.Time) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	symbols, err := s.source.ListSymbols(ctx, scanDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUniverseResolution, err)
	}

	log.Info().
		Str("run_id", runID).
		Str("strategy", s.cfg.Strategy).
		Str("cutoff", s.cfg.Cutoff.String()).
		Int("universe", len(symbols)).
		Msg("scan started")

	outcomes := make([]symbolOutcome, len(symbols))
	sem := make(chan struct{}, s.cfg.Parallelism)
	var wg sync.WaitGroup

	partial := false
dispatch:
	for i, symbol := range symbols {
		// Cooperative cancellation checkpoint between symbols.
		if ctx.Err() != nil {
			partial = true
			break dispatch
		}
		select {
		case <-ctx.Done():
			partial = true
			break dispatch
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = s.scanSymbol(ctx, symbol, scanDate)
		}(i, symbol)
	}
	wg.Wait() // barrier before the pool-relative liquidity phase

	var pool []scoring.ScoredSymbol
	var exclusions []domain.Exclusion
	for _, out := range outcomes {
		switch {
		case out.scored != nil:
			pool = append(pool, *out.scored)
		case out.exclusion != nil:
			exclusions = append(exclusions, *out.exclusion)
			if s.recorder != nil {
				s.recorder.SymbolExcluded(s.cfg.Strategy, out.exclusion.Reason)
			}
		}
	}

	candidates := s.calc.RankPool(pool)
	if s.cfg.ResultLimit > 0 && len(candidates) > s.cfg.ResultLimit {
		candidates = candidates[:s.cfg.ResultLimit]
	}

	duration := time.Since(start)
	if s.recorder != nil {
		s.recorder.ScanCompleted(s.cfg.Strategy, duration, len(candidates))
	}

	log.Info().
		Str("run_id", runID).
		Int("candidates", len(candidates)).
		Int("exclusions", len(exclusions)).
		Bool("partial", partial).
		Dur("duration", duration).
		Msg("scan completed")

	return &Result{
		RunID:      runID,
		Strategy:   s.cfg.Strategy,
		ScanDate:   scanDate,
		Cutoff:     s.cfg.Cutoff,
		Candidates: candidates,
		Exclusions: exclusions,
		Partial:    partial,
		Duration:   duration,
	}, nil
}

// scanSymbol runs one symbol through baseline, universe filters, indicators,
// and rule evaluation. Every failure path is an exclusion, never an error.
func (s *Scanner) scanSymbol(ctx context.Context, symbol string, scanDate time.Time) symbolOutcome {
	exclude := func(reason domain.ExclusionReason, detail string) symbolOutcome {
		log.Debug().Str("symbol", symbol).Str("reason", string(reason)).Str("detail", detail).Msg("symbol excluded")
		return symbolOutcome{exclusion: &domain.Exclusion{Symbol: symbol, Reason: reason, Detail: detail}}
	}

	hist, err := s.source.HistoricalSeries(ctx, symbol, scanDate, s.cfg.LookbackDays)
	if err != nil {
		return exclude(domain.ExcludeDataRetrieval, fmt.Sprintf("historical series: %v", err))
	}

	base, ok := baseline.Compute(hist, s.cfg.Cutoff, s.cfg.MinDays)
	if !ok {
		return exclude(domain.ExcludeInsufficientHistory,
			fmt.Sprintf("fewer than %d qualifying days in %d-day lookback", s.cfg.MinDays, s.cfg.LookbackDays))
	}

	if detail, ok := s.passesUniverseFilters(base); !ok {
		return exclude(domain.ExcludeUniverseFilter, detail)
	}

	current, err := s.source.CurrentSeries(ctx, symbol, scanDate)
	if err != nil {
		return exclude(domain.ExcludeDataRetrieval, fmt.Sprintf("current series: %v", err))
	}

	snap, ok := indicators.ComputeSnapshot(current, s.cfg.Cutoff, base)
	if !ok {
		return exclude(domain.ExcludeInsufficientBars,
			fmt.Sprintf("fewer than %d bars before %s", indicators.MinBars, s.cfg.Cutoff))
	}

	verdicts := rules.Evaluate(snap, s.ruleSet)
	scored := s.calc.ScoreSymbol(snap, verdicts)
	return symbolOutcome{scored: &scored}
}

func (s *Scanner) passesUniverseFilters(base domain.BaselineStats) (string, bool) {
	if s.cfg.MinPrice > 0 && base.AvgClose < s.cfg.MinPrice {
		return fmt.Sprintf("avg close %.2f below minimum %.2f", base.AvgClose, s.cfg.MinPrice), false
	}
	if s.cfg.MaxPrice > 0 && base.AvgClose > s.cfg.MaxPrice {
		return fmt.Sprintf("avg close %.2f above maximum %.2f", base.AvgClose, s.cfg.MaxPrice), false
	}
	if s.cfg.MinBaselineVolume > 0 && base.AvgVolume < s.cfg.MinBaselineVolume {
		return fmt.Sprintf("baseline volume %.0f below minimum %.0f", base.AvgVolume, s.cfg.MinBaselineVolume), false
	}
	return "", true
}
