package scoring

import (
	"math"

	"github.com/marketlens/intrascan/internal/domain"
)

// classifySignal assigns the discrete trading-action label. Strong signals
// are checked before weak ones so a strong match is never overwritten by a
// broader rule further down.
func classifySignal(snap domain.IndicatorSnapshot) domain.Signal {
	switch {
	case snap.PriceChangePct >= 4.0 && snap.RelativeVolume >= 2.5:
		return domain.SignalStrongBuy
	case snap.PriceChangePct <= -4.0 && snap.RelativeVolume >= 2.5:
		return domain.SignalStrongSell
	case snap.PriceChangePct >= 2.0 && snap.RelativeVolume >= 2.0 &&
		snap.VolatilityPct >= 2.0 && snap.VolatilityPct <= 4.0:
		return domain.SignalBreakout
	case snap.PriceChangePct >= 0.5 && snap.RelativeVolume >= 1.2:
		return domain.SignalBuy
	case snap.PriceChangePct <= -0.5:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}

// classifyRisk counts independent risk factors and maps the count onto
// ordinal buckets: >=3 high, >=2 medium, >=1 low, else very low.
func classifyRisk(snap domain.IndicatorSnapshot) domain.Risk {
	factors := 0
	if snap.RSI >= 70 || snap.RSI <= 30 {
		factors++
	}
	if snap.BandPosition != domain.BandMiddle {
		factors++
	}
	if math.Abs(snap.PriceChangePct) >= 5.0 {
		factors++
	}
	if snap.Trend == domain.TrendSideways {
		factors++
	}
	switch {
	case factors >= 3:
		return domain.RiskHigh
	case factors >= 2:
		return domain.RiskMedium
	case factors >= 1:
		return domain.RiskLow
	default:
		return domain.RiskVeryLow
	}
}
