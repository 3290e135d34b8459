package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/marketlens/intrascan/internal/domain"
)

// Store reads minute bars from postgres. It implements the pipeline's
// DataSource against a `minute_bars` table keyed by (symbol, ts).
type Store struct {
	db *sqlx.DB
}

// Open connects to postgres and verifies the connection.
func Open(dsn string, maxOpenConns int) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bar store: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection, used by tests.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

type barRow struct {
	Symbol string    `db:"symbol"`
	TS     time.Time `db:"ts"`
	Open   float64   `db:"open"`
	High   float64   `db:"high"`
	Low    float64   `db:"low"`
	Close  float64   `db:"close"`
	Volume float64   `db:"volume"`
}

func (r barRow) toBar() domain.PriceBar {
	return domain.PriceBar{
		Symbol:    r.Symbol,
		Timestamp: r.TS,
		Open:      r.Open,
		High:      r.High,
		Low:       r.Low,
		Close:     r.Close,
		Volume:    r.Volume,
	}
}

// ListSymbols returns the distinct symbols with bars on the scan date.
func (s *Store) ListSymbols(ctx context.Context, scanDate time.Time) ([]string, error) {
	var symbols []string
	err := s.db.SelectContext(ctx, &symbols,
		`SELECT DISTINCT symbol FROM minute_bars WHERE ts >= $1 AND ts < $2 ORDER BY symbol`,
		dayStart(scanDate), dayStart(scanDate).AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	return symbols, nil
}

// HistoricalSeries returns the lookback window preceding the scan date.
func (s *Store) HistoricalSeries(ctx context.Context, symbol string, scanDate time.Time, lookbackDays int) (domain.SymbolSeries, error) {
	start := dayStart(scanDate).AddDate(0, 0, -lookbackDays)
	rows, err := s.selectBars(ctx, symbol, start, dayStart(scanDate))
	if err != nil {
		return domain.SymbolSeries{}, fmt.Errorf("failed to fetch historical series for %s: %w", symbol, err)
	}
	return domain.SymbolSeries{Symbol: symbol, Bars: rows}, nil
}

// CurrentSeries returns the scan-day bars.
func (s *Store) CurrentSeries(ctx context.Context, symbol string, scanDate time.Time) (domain.SymbolSeries, error) {
	rows, err := s.selectBars(ctx, symbol, dayStart(scanDate), dayStart(scanDate).AddDate(0, 0, 1))
	if err != nil {
		return domain.SymbolSeries{}, fmt.Errorf("failed to fetch current series for %s: %w", symbol, err)
	}
	return domain.SymbolSeries{Symbol: symbol, Bars: rows}, nil
}

func (s *Store) selectBars(ctx context.Context, symbol string, from, to time.Time) ([]domain.PriceBar, error) {
	var rows []barRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT symbol, ts, open, high, low, close, volume
		 FROM minute_bars
		 WHERE symbol = $1 AND ts >= $2 AND ts < $3
		 ORDER BY ts`,
		symbol, from, to)
	if err != nil {
		return nil, err
	}
	bars := make([]domain.PriceBar, len(rows))
	for i, r := range rows {
		bars[i] = r.toBar()
	}
	return bars, nil
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
