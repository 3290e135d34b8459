package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/marketlens/intrascan/internal/domain"
	"github.com/marketlens/intrascan/internal/scan/pipeline"
)

// SeriesCache caches historical series lookups in redis. Historical bars are
// immutable once a trading day has closed, so the same lookback window is
// reused across strategies scanning the same morning. Symbol listings and
// current-day bars always go to the store.
//
// Cache failures degrade to store reads; a cold or down redis never fails a
// scan.
type SeriesCache struct {
	inner pipeline.DataSource
	rdb   redis.Cmdable
	ttl   time.Duration
}

// New wraps inner with a redis-backed historical-series cache.
func New(inner pipeline.DataSource, rdb redis.Cmdable, ttl time.Duration) *SeriesCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SeriesCache{inner: inner, rdb: rdb, ttl: ttl}
}

func (c *SeriesCache) ListSymbols(ctx context.Context, scanDate time.Time) ([]string, error) {
	return c.inner.ListSymbols(ctx, scanDate)
}

func (c *SeriesCache) CurrentSeries(ctx context.Context, symbol string, scanDate time.Time) (domain.SymbolSeries, error) {
	return c.inner.CurrentSeries(ctx, symbol, scanDate)
}

func (c *SeriesCache) HistoricalSeries(ctx context.Context, symbol string, scanDate time.Time, lookbackDays int) (domain.SymbolSeries, error) {
	key := seriesKey(symbol, scanDate, lookbackDays)

	if payload, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var series domain.SymbolSeries
		if err := json.Unmarshal(payload, &series); err == nil {
			return series, nil
		}
		log.Warn().Str("key", key).Msg("discarding unreadable cached series")
	} else if err != redis.Nil {
		log.Warn().Err(err).Str("key", key).Msg("series cache read failed")
	}

	series, err := c.inner.HistoricalSeries(ctx, symbol, scanDate, lookbackDays)
	if err != nil {
		return domain.SymbolSeries{}, err
	}

	if payload, err := json.Marshal(series); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("series cache write failed")
		}
	}
	return series, nil
}

func seriesKey(symbol string, scanDate time.Time, lookbackDays int) string {
	return fmt.Sprintf("intrascan:hist:%s:%s:%d", symbol, scanDate.Format("2006-01-02"), lookbackDays)
}
