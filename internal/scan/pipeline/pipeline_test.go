package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/intrascan/internal/domain"
	"github.com/marketlens/intrascan/internal/rules"
	"github.com/marketlens/intrascan/internal/scoring"
)

type fakeSource struct {
	symbols    []string
	listErr    error
	historical map[string]domain.SymbolSeries
	histErr    map[string]error
	current    map[string]domain.SymbolSeries
	currErr    map[string]error
}

func (f *fakeSource) ListSymbols(ctx context.Context, scanDate time.Time) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.symbols, nil
}

func (f *fakeSource) HistoricalSeries(ctx context.Context, symbol string, scanDate time.Time, lookbackDays int) (domain.SymbolSeries, error) {
	if err := f.histErr[symbol]; err != nil {
		return domain.SymbolSeries{}, err
	}
	return f.historical[symbol], nil
}

func (f *fakeSource) CurrentSeries(ctx context.Context, symbol string, scanDate time.Time) (domain.SymbolSeries, error) {
	if err := f.currErr[symbol]; err != nil {
		return domain.SymbolSeries{}, err
	}
	return f.current[symbol], nil
}

var scanDate = time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)

// histSeries builds a lookback window of identical qualifying days ending the
// day before the scan date.
func histSeries(symbol string, days, barsPerDay int, volumePerBar, closePrice float64) domain.SymbolSeries {
	var bars []domain.PriceBar
	for d := days; d >= 1; d-- {
		dayStart := scanDate.AddDate(0, 0, -d).Add(9*time.Hour + 30*time.Minute)
		for b := 0; b < barsPerDay; b++ {
			bars = append(bars, domain.PriceBar{
				Symbol:    symbol,
				Timestamp: dayStart.Add(time.Duration(b) * time.Minute),
				Open:      closePrice,
				High:      closePrice + 0.5,
				Low:       closePrice - 0.5,
				Close:     closePrice,
				Volume:    volumePerBar,
			})
		}
	}
	return domain.SymbolSeries{Symbol: symbol, Bars: bars}
}

// currentSeries builds a scan-day series walking linearly from open to last.
func currentSeries(symbol string, barCount int, open, last, volumePerBar float64) domain.SymbolSeries {
	dayStart := scanDate.Add(9*time.Hour + 30*time.Minute)
	bars := make([]domain.PriceBar, barCount)
	for i := 0; i < barCount; i++ {
		price := open + (last-open)*float64(i)/float64(barCount-1)
		bars[i] = domain.PriceBar{
			Symbol:    symbol,
			Timestamp: dayStart.Add(time.Duration(i) * time.Minute),
			Open:      price,
			High:      price + 0.2,
			Low:       price - 0.2,
			Close:     price,
			Volume:    volumePerBar,
		}
	}
	return domain.SymbolSeries{Symbol: symbol, Bars: bars}
}

func testConfig() Config {
	return Config{
		Strategy:     StrategyBreakout,
		Cutoff:       domain.CutoffTime{Hour: 10, Minute: 0},
		LookbackDays: 14,
		MinDays:      7,
		Parallelism:  4,
		Weights:      scoring.DefaultWeights(),
	}
}

func breakoutRules() rules.RuleSet {
	return rules.RuleSet{
		Strategy: StrategyBreakout,
		Rules: []rules.Rule{
			{
				Name: "steady_rise", Enabled: true, Weight: 5,
				Conditions: []rules.Condition{
					{Field: "price_change_pct", Op: rules.OpGTE, Threshold: 0.5},
					{Field: "price_change_pct", Op: rules.OpLTE, Threshold: 10.0},
				},
			},
			{
				Name: "heavy_volume", Enabled: true, Weight: 3,
				Conditions: []rules.Condition{
					{Field: "relative_volume", Op: rules.OpGTE, Threshold: 1.5},
				},
			},
		},
	}
}

func TestScan_RanksAndExcludes(t *testing.T) {
	source := &fakeSource{
		symbols: []string{"RUN", "THIN", "FLAT"},
		historical: map[string]domain.SymbolSeries{
			"RUN":  histSeries("RUN", 14, 20, 5000, 100),
			"THIN": histSeries("THIN", 8, 20, 5000, 50), // 8 < 14 lookback is fine, 8 >= 7 min days
			"FLAT": histSeries("FLAT", 14, 20, 5000, 30),
		},
		current: map[string]domain.SymbolSeries{
			"RUN":  currentSeries("RUN", 20, 100, 103, 15000), // +3%, 3x volume
			"THIN": currentSeries("THIN", 5, 50, 50.2, 5000),  // under min bar count
			"FLAT": currentSeries("FLAT", 20, 30, 30, 5000),   // flat, baseline volume
		},
	}

	scanner := New(source, breakoutRules(), testConfig())
	result, err := scanner.Scan(context.Background(), scanDate)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.False(t, result.Partial)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "RUN", result.Candidates[0].Symbol, "breakout-shaped mover should rank first")
	assert.Greater(t, result.Candidates[0].CompositeScore, result.Candidates[1].CompositeScore)

	require.Len(t, result.Exclusions, 1)
	assert.Equal(t, "THIN", result.Exclusions[0].Symbol)
	assert.Equal(t, domain.ExcludeInsufficientBars, result.Exclusions[0].Reason)

	// Matched rules contribute their weights.
	assert.Equal(t, 8.0, result.Candidates[0].RuleBonus)
}

func TestScan_InsufficientHistoryExcluded(t *testing.T) {
	cfg := testConfig()
	cfg.MinDays = 14

	source := &fakeSource{
		symbols: []string{"YOUNG"},
		historical: map[string]domain.SymbolSeries{
			"YOUNG": histSeries("YOUNG", 8, 20, 5000, 50),
		},
		current: map[string]domain.SymbolSeries{
			"YOUNG": currentSeries("YOUNG", 20, 50, 51, 5000),
		},
	}

	result, err := New(source, breakoutRules(), cfg).Scan(context.Background(), scanDate)
	require.NoError(t, err)

	assert.Empty(t, result.Candidates, "excluded symbol must never appear in ranked output")
	require.Len(t, result.Exclusions, 1)
	assert.Equal(t, domain.ExcludeInsufficientHistory, result.Exclusions[0].Reason)
}

func TestScan_EmptyUniverseSucceeds(t *testing.T) {
	source := &fakeSource{symbols: nil}
	result, err := New(source, breakoutRules(), testConfig()).Scan(context.Background(), scanDate)
	require.NoError(t, err)
	assert.Empty(t, result.Candidates)
	assert.Empty(t, result.Exclusions)
	assert.False(t, result.Partial)
}

func TestScan_UniverseResolutionFatal(t *testing.T) {
	source := &fakeSource{listErr: errors.New("exchange unreachable")}
	result, err := New(source, breakoutRules(), testConfig()).Scan(context.Background(), scanDate)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUniverseResolution)
}

func TestScan_DataRetrievalExcludesOnlyThatSymbol(t *testing.T) {
	source := &fakeSource{
		symbols: []string{"GOOD", "BROKEN"},
		historical: map[string]domain.SymbolSeries{
			"GOOD": histSeries("GOOD", 14, 20, 5000, 100),
		},
		histErr: map[string]error{"BROKEN": errors.New("query timeout")},
		current: map[string]domain.SymbolSeries{
			"GOOD": currentSeries("GOOD", 20, 100, 102, 8000),
		},
	}

	result, err := New(source, breakoutRules(), testConfig()).Scan(context.Background(), scanDate)
	require.NoError(t, err, "per-symbol retrieval failure must not abort the scan")

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "GOOD", result.Candidates[0].Symbol)
	require.Len(t, result.Exclusions, 1)
	assert.Equal(t, domain.ExcludeDataRetrieval, result.Exclusions[0].Reason)
	assert.Contains(t, result.Exclusions[0].Detail, "query timeout")
}

func TestScan_Deterministic(t *testing.T) {
	source := &fakeSource{
		symbols:    make([]string, 0, 12),
		historical: map[string]domain.SymbolSeries{},
		current:    map[string]domain.SymbolSeries{},
	}
	for i := 0; i < 12; i++ {
		symbol := fmt.Sprintf("SYM%02d", i)
		source.symbols = append(source.symbols, symbol)
		source.historical[symbol] = histSeries(symbol, 14, 20, float64(1000+i*500), float64(20+i))
		source.current[symbol] = currentSeries(symbol, 20, float64(20+i), float64(20+i)*(1+float64(i%5)/100), float64(2000+i*300))
	}

	scanner := New(source, breakoutRules(), testConfig())
	first, err := scanner.Scan(context.Background(), scanDate)
	require.NoError(t, err)

	for run := 0; run < 5; run++ {
		again, err := scanner.Scan(context.Background(), scanDate)
		require.NoError(t, err)
		require.Equal(t, len(first.Candidates), len(again.Candidates))
		for i := range first.Candidates {
			assert.Equal(t, first.Candidates[i].Symbol, again.Candidates[i].Symbol)
			assert.Equal(t, first.Candidates[i].CompositeScore, again.Candidates[i].CompositeScore)
		}
		assert.Equal(t, first.Exclusions, again.Exclusions)
	}
}

func TestScan_DisablingRuleLeavesOthersAlone(t *testing.T) {
	source := &fakeSource{
		symbols: []string{"MOVER", "SLEEPER"},
		historical: map[string]domain.SymbolSeries{
			"MOVER":   histSeries("MOVER", 14, 20, 5000, 100),
			"SLEEPER": histSeries("SLEEPER", 14, 20, 5000, 40),
		},
		current: map[string]domain.SymbolSeries{
			"MOVER":   currentSeries("MOVER", 20, 100, 103, 15000),
			"SLEEPER": currentSeries("SLEEPER", 20, 40, 40.04, 5000),
		},
	}

	withRule := breakoutRules()
	result1, err := New(source, withRule, testConfig()).Scan(context.Background(), scanDate)
	require.NoError(t, err)

	withoutRule := breakoutRules()
	withoutRule.Rules[0].Enabled = false // steady_rise matched only MOVER
	result2, err := New(source, withoutRule, testConfig()).Scan(context.Background(), scanDate)
	require.NoError(t, err)

	score := func(r *Result, symbol string) float64 {
		for _, c := range r.Candidates {
			if c.Symbol == symbol {
				return c.CompositeScore
			}
		}
		t.Fatalf("%s missing from result", symbol)
		return 0
	}

	assert.Equal(t, score(result1, "SLEEPER"), score(result2, "SLEEPER"),
		"symbols the rule never matched must keep their scores")
	assert.Less(t, score(result2, "MOVER"), score(result1, "MOVER"),
		"disabling a matched rule removes only its contribution")
}

func TestScan_ResultLimit(t *testing.T) {
	source := &fakeSource{
		symbols:    make([]string, 0, 6),
		historical: map[string]domain.SymbolSeries{},
		current:    map[string]domain.SymbolSeries{},
	}
	for i := 0; i < 6; i++ {
		symbol := fmt.Sprintf("S%d", i)
		source.symbols = append(source.symbols, symbol)
		source.historical[symbol] = histSeries(symbol, 14, 20, 5000, 50)
		source.current[symbol] = currentSeries(symbol, 20, 50, 50+float64(i)*0.2, 7500)
	}

	cfg := testConfig()
	cfg.ResultLimit = 3
	result, err := New(source, breakoutRules(), cfg).Scan(context.Background(), scanDate)
	require.NoError(t, err)
	assert.Len(t, result.Candidates, 3)
}

func TestScan_CancelledReturnsPartial(t *testing.T) {
	source := &fakeSource{
		symbols: []string{"A", "B", "C"},
		historical: map[string]domain.SymbolSeries{
			"A": histSeries("A", 14, 20, 5000, 50),
			"B": histSeries("B", 14, 20, 5000, 50),
			"C": histSeries("C", 14, 20, 5000, 50),
		},
		current: map[string]domain.SymbolSeries{
			"A": currentSeries("A", 20, 50, 51, 7500),
			"B": currentSeries("B", 20, 50, 51, 7500),
			"C": currentSeries("C", 20, 50, 51, 7500),
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(source, breakoutRules(), testConfig()).Scan(ctx, scanDate)
	require.NoError(t, err)
	assert.True(t, result.Partial, "cancelled scan must be flagged partial, never a silent full result")
}

func TestPreset_KnownStrategies(t *testing.T) {
	for _, name := range Strategies {
		cfg, err := Preset(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, cfg.Strategy)
		assert.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-9, "%s weights must allocate 100%%", name)
	}
	if _, err := Preset("scalping"); err == nil {
		t.Error("unknown strategy must error")
	}
}
