package data

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/marketlens/intrascan/internal/domain"
	"github.com/marketlens/intrascan/internal/scan/pipeline"
)

// Guarded decorates a DataSource with a rate limiter and a circuit breaker.
// A tripped breaker fails fast per symbol; the pipeline converts those
// failures into exclusions, so a flapping store degrades a scan instead of
// hanging it.
type Guarded struct {
	inner   pipeline.DataSource
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuarded wraps inner. requestsPerSec <= 0 disables rate limiting;
// breakerFailures <= 0 falls back to 5 consecutive failures.
func NewGuarded(inner pipeline.DataSource, requestsPerSec float64, breakerFailures int) *Guarded {
	if breakerFailures <= 0 {
		breakerFailures = 5
	}
	var limiter *rate.Limiter
	if requestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSec), int(requestsPerSec)+1)
	}
	settings := gobreaker.Settings{
		Name:    "bar-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(breakerFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	}
	return &Guarded{
		inner:   inner,
		limiter: limiter,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (g *Guarded) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

func (g *Guarded) ListSymbols(ctx context.Context, scanDate time.Time) ([]string, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.ListSymbols(ctx, scanDate)
	})
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}

func (g *Guarded) HistoricalSeries(ctx context.Context, symbol string, scanDate time.Time, lookbackDays int) (domain.SymbolSeries, error) {
	if err := g.wait(ctx); err != nil {
		return domain.SymbolSeries{}, err
	}
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.HistoricalSeries(ctx, symbol, scanDate, lookbackDays)
	})
	if err != nil {
		return domain.SymbolSeries{}, err
	}
	return out.(domain.SymbolSeries), nil
}

func (g *Guarded) CurrentSeries(ctx context.Context, symbol string, scanDate time.Time) (domain.SymbolSeries, error) {
	if err := g.wait(ctx); err != nil {
		return domain.SymbolSeries{}, err
	}
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.CurrentSeries(ctx, symbol, scanDate)
	})
	if err != nil {
		return domain.SymbolSeries{}, err
	}
	return out.(domain.SymbolSeries), nil
}
