package baseline

import (
	"math"

	"github.com/marketlens/intrascan/internal/domain"
)

// MinBarsPerDay is the minimum pre-cutoff bar count for a historical day to
// qualify. Days below it are treated as halted or illiquid sessions.
const MinBarsPerDay = 10

// Compute derives BaselineStats from a multi-day lookback series, keeping only
// days with at least MinBarsPerDay bars before the cutoff. The second return
// is false when fewer than minDays qualifying days exist, which excludes the
// symbol from scanning rather than signalling an error.
func Compute(series domain.SymbolSeries, cutoff domain.CutoffTime, minDays int) (domain.BaselineStats, bool) {
	var (
		dayVolumes []float64
		dayCloses  []float64
	)
	for _, day := range series.SplitByDay() {
		volume := 0.0
		bars := 0
		lastClose := 0.0
		for _, bar := range day {
			if !cutoff.After(bar.Timestamp) {
				continue
			}
			volume += bar.Volume
			lastClose = bar.Close
			bars++
		}
		if bars < MinBarsPerDay {
			continue
		}
		dayVolumes = append(dayVolumes, volume)
		dayCloses = append(dayCloses, lastClose)
	}

	if len(dayVolumes) < minDays {
		return domain.BaselineStats{}, false
	}

	return domain.BaselineStats{
		Symbol:         series.Symbol,
		QualifyingDays: len(dayVolumes),
		AvgVolume:      mean(dayVolumes),
		AvgClose:       mean(dayCloses),
		CloseStdDev:    stddev(dayCloses),
	}, true
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
