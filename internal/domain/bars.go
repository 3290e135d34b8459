package domain

import (
	"fmt"
	"time"
)

// PriceBar is one OHLCV observation for a symbol at a minute timestamp.
// Bars are immutable once produced by the data source.
type PriceBar struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// SymbolSeries is an ordered sequence of bars for one symbol, scoped to a
// trading day or a multi-day lookback window. Timestamps are strictly
// increasing; missing minutes are simply absent, never zero-filled.
type SymbolSeries struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`
}

// NewSymbolSeries validates bar ordering and symbol consistency.
func NewSymbolSeries(symbol string, bars []PriceBar) (SymbolSeries, error) {
	for i, bar := range bars {
		if bar.Symbol != symbol {
			return SymbolSeries{}, fmt.Errorf("bar %d belongs to %s, series is %s", i, bar.Symbol, symbol)
		}
		if i > 0 && !bars[i-1].Timestamp.Before(bar.Timestamp) {
			return SymbolSeries{}, fmt.Errorf("bar %d timestamp %s not after previous %s",
				i, bar.Timestamp.Format(time.RFC3339), bars[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return SymbolSeries{Symbol: symbol, Bars: bars}, nil
}

// Len returns the number of bars in the series.
func (s SymbolSeries) Len() int { return len(s.Bars) }

// Empty reports whether the series holds no bars.
func (s SymbolSeries) Empty() bool { return len(s.Bars) == 0 }

// BarsBefore returns the bars strictly before the given intraday cutoff,
// compared on clock time within each bar's own day.
func (s SymbolSeries) BarsBefore(cutoff CutoffTime) []PriceBar {
	out := make([]PriceBar, 0, len(s.Bars))
	for _, bar := range s.Bars {
		if cutoff.After(bar.Timestamp) {
			out = append(out, bar)
		}
	}
	return out
}

// SplitByDay groups bars by calendar date preserving intra-day order.
// Day order follows first appearance, which matches timestamp order.
func (s SymbolSeries) SplitByDay() [][]PriceBar {
	var days [][]PriceBar
	var current []PriceBar
	var currentDay string
	for _, bar := range s.Bars {
		day := bar.Timestamp.Format("2006-01-02")
		if day != currentDay {
			if len(current) > 0 {
				days = append(days, current)
			}
			current = nil
			currentDay = day
		}
		current = append(current, bar)
	}
	if len(current) > 0 {
		days = append(days, current)
	}
	return days
}

// CutoffTime is an intraday clock time (e.g. 09:50) bounding the bars a scan
// may observe on each day.
type CutoffTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseCutoff parses "HH:MM" into a CutoffTime.
func ParseCutoff(s string) (CutoffTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return CutoffTime{}, fmt.Errorf("invalid cutoff %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return CutoffTime{}, fmt.Errorf("cutoff %q out of range", s)
	}
	return CutoffTime{Hour: h, Minute: m}, nil
}

// After reports whether the cutoff falls strictly after ts's clock time.
func (c CutoffTime) After(ts time.Time) bool {
	return ts.Hour()*60+ts.Minute() < c.Hour*60+c.Minute
}

func (c CutoffTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
