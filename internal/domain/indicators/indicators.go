package indicators

import (
	"math"

	"github.com/marketlens/intrascan/internal/domain"
)

// MinBars is the minimum same-day pre-cutoff bar count required to compute a
// snapshot. It matches the baseline day-qualification threshold.
const MinBars = 10

const (
	rsiPeriod   = 14
	shortWindow = 5
	longWindow  = 20
)

// ComputeSnapshot evaluates the current day's bars up to the cutoff against
// the symbol's baseline. The second return is false when the day has too few
// bars, which excludes the symbol from this scan.
//
// All ratio computations are division-guarded: a zero baseline volume yields
// relative volume 1.0 and a zero average price or stddev degrades volatility
// and band position to neutral instead of failing.
func ComputeSnapshot(series domain.SymbolSeries, cutoff domain.CutoffTime, base domain.BaselineStats) (domain.IndicatorSnapshot, bool) {
	bars := series.BarsBefore(cutoff)
	if len(bars) < MinBars {
		return domain.IndicatorSnapshot{}, false
	}

	opening := bars[0].Open
	current := bars[len(bars)-1].Close
	high := bars[0].High
	low := bars[0].Low
	volume := 0.0
	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, bar := range bars {
		if bar.High > high {
			high = bar.High
		}
		if bar.Low < low {
			low = bar.Low
		}
		volume += bar.Volume
		closes[i] = bar.Close
		volumes[i] = bar.Volume
	}

	changePct := 0.0
	if opening != 0 {
		changePct = (current - opening) / opening * 100
	}

	relVolume := 1.0
	if base.AvgVolume > 0 {
		relVolume = volume / base.AvgVolume
	}

	volatilityPct := 0.0
	if base.AvgClose > 0 {
		volatilityPct = (high - low) / base.AvgClose * 100
	}

	shortMA := sma(closes, shortWindow)
	longMA := sma(closes, longWindow)

	return domain.IndicatorSnapshot{
		Symbol:         series.Symbol,
		Timestamp:      bars[len(bars)-1].Timestamp,
		OpeningPrice:   opening,
		CurrentPrice:   current,
		DayHigh:        high,
		DayLow:         low,
		TotalVolume:    volume,
		VolumeCV:       coefficientOfVariation(volumes),
		RelativeVolume: relVolume,
		PriceChangePct: changePct,
		VolatilityPct:  volatilityPct,
		RSI:            RSI(closes, rsiPeriod),
		ShortMA:        shortMA,
		LongMA:         longMA,
		Trend:          classifyTrend(shortMA, longMA),
		BandPosition:   classifyBand(current, base),
	}, true
}

// RSI computes the Relative Strength Index over closes using Wilder's
// smoothing. Returns a neutral 50 when fewer than period+1 closes exist.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50.0
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	alpha := 1.0 / float64(period)
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = avgGain*(1-alpha) + gain*alpha
		avgLoss = avgLoss*(1-alpha) + loss*alpha
	}

	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// coefficientOfVariation measures per-bar volume variability as stddev/mean.
// A flat tape reads 0; a zero mean (all empty bars) also reads 0.
func coefficientOfVariation(volumes []float64) float64 {
	if len(volumes) < 2 {
		return 0
	}
	m := 0.0
	for _, v := range volumes {
		m += v
	}
	m /= float64(len(volumes))
	if m == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range volumes {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum/float64(len(volumes))) / m
}

// sma averages the trailing window of closes, or everything when the series
// is shorter than the window.
func sma(closes []float64, window int) float64 {
	if len(closes) == 0 {
		return 0
	}
	if window > len(closes) {
		window = len(closes)
	}
	sum := 0.0
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	return sum / float64(window)
}

// classifyTrend compares the short and long moving averages with a 0.1%
// neutral zone so near-equal averages read as sideways.
func classifyTrend(shortMA, longMA float64) domain.Trend {
	if longMA == 0 {
		return domain.TrendSideways
	}
	spread := (shortMA - longMA) / longMA
	switch {
	case spread > 0.001:
		return domain.TrendBullish
	case spread < -0.001:
		return domain.TrendBearish
	default:
		return domain.TrendSideways
	}
}

// classifyBand locates the current price against avg_close ± 2*stddev. A
// degenerate baseline (zero stddev or avg close) reads as MIDDLE.
func classifyBand(price float64, base domain.BaselineStats) domain.BandPosition {
	if base.AvgClose <= 0 || base.CloseStdDev <= 0 {
		return domain.BandMiddle
	}
	upper := base.AvgClose + 2*base.CloseStdDev
	lower := base.AvgClose - 2*base.CloseStdDev
	switch {
	case price > upper:
		return domain.BandAboveUpper
	case price < lower:
		return domain.BandBelowLower
	default:
		return domain.BandMiddle
	}
}
