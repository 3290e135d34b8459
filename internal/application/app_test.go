package application

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/intrascan/internal/config"
	"github.com/marketlens/intrascan/internal/domain"
)

type staticSource struct {
	symbols    []string
	historical map[string]domain.SymbolSeries
	current    map[string]domain.SymbolSeries
}

func (s *staticSource) ListSymbols(ctx context.Context, scanDate time.Time) ([]string, error) {
	return s.symbols, nil
}

func (s *staticSource) HistoricalSeries(ctx context.Context, symbol string, scanDate time.Time, lookbackDays int) (domain.SymbolSeries, error) {
	return s.historical[symbol], nil
}

func (s *staticSource) CurrentSeries(ctx context.Context, symbol string, scanDate time.Time) (domain.SymbolSeries, error) {
	return s.current[symbol], nil
}

func flatDay(symbol string, day time.Time, bars int, price, volume float64) []domain.PriceBar {
	out := make([]domain.PriceBar, bars)
	for i := range out {
		out[i] = domain.PriceBar{
			Symbol:    symbol,
			Timestamp: day.Add(9*time.Hour + 30*time.Minute + time.Duration(i)*time.Minute),
			Open:      price, High: price + 0.1, Low: price - 0.1, Close: price,
			Volume: volume,
		}
	}
	return out
}

func TestRunScan_EndToEnd(t *testing.T) {
	rulesDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rulesDir, "breakout.yaml"), []byte(`strategy: breakout
rules:
  - name: any_volume
    enabled: true
    weight: 2
    conditions:
      - field: relative_volume
        op: gte
        threshold: 0.5
`), 0o644))

	scanDate := time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)
	source := &staticSource{
		symbols:    []string{"ACME"},
		historical: map[string]domain.SymbolSeries{},
		current:    map[string]domain.SymbolSeries{},
	}
	var hist []domain.PriceBar
	for d := 14; d >= 1; d-- {
		hist = append(hist, flatDay("ACME", scanDate.AddDate(0, 0, -d), 20, 50, 5000)...)
	}
	source.historical["ACME"] = domain.SymbolSeries{Symbol: "ACME", Bars: hist}
	source.current["ACME"] = domain.SymbolSeries{Symbol: "ACME", Bars: flatDay("ACME", scanDate, 20, 50, 8000)}

	cfg := &config.ScannerConfig{RulesDir: rulesDir, Cutoff: "10:00"}
	app := NewWithSource(cfg, source)

	result, err := app.RunScan(context.Background(), "breakout", scanDate)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "ACME", result.Candidates[0].Symbol)
	assert.Equal(t, 2.0, result.Candidates[0].RuleBonus)
}

func TestRunScan_UnknownStrategy(t *testing.T) {
	cfg := &config.ScannerConfig{RulesDir: t.TempDir(), Cutoff: "10:00"}
	app := NewWithSource(cfg, &staticSource{})
	_, err := app.RunScan(context.Background(), "nope", time.Now())
	require.Error(t, err)
}
