package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marketlens/intrascan/internal/domain"
)

// Registry holds the scanner's Prometheus metrics and implements the
// pipeline's Recorder.
type Registry struct {
	ScanDuration *prometheus.HistogramVec
	ScansTotal   *prometheus.CounterVec
	Candidates   *prometheus.HistogramVec
	Exclusions   *prometheus.CounterVec
}

// NewRegistry creates the metric set, unregistered.
func NewRegistry() *Registry {
	return &Registry{
		ScanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "intrascan_scan_duration_seconds",
				Help:    "Wall time of completed scans by strategy",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"strategy"},
		),
		ScansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intrascan_scans_total",
				Help: "Total scans completed by strategy",
			},
			[]string{"strategy"},
		),
		Candidates: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "intrascan_scan_candidates",
				Help:    "Candidates returned per scan by strategy",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
			},
			[]string{"strategy"},
		),
		Exclusions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intrascan_symbols_excluded_total",
				Help: "Symbols excluded from scans by strategy and reason",
			},
			[]string{"strategy", "reason"},
		),
	}
}

// Register adds all metrics to the given registerer.
func (r *Registry) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{r.ScanDuration, r.ScansTotal, r.Candidates, r.Exclusions} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ScanCompleted records one finished scan.
func (r *Registry) ScanCompleted(strategy string, duration time.Duration, candidates int) {
	r.ScansTotal.WithLabelValues(strategy).Inc()
	r.ScanDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	r.Candidates.WithLabelValues(strategy).Observe(float64(candidates))
}

// SymbolExcluded records one per-symbol exclusion.
func (r *Registry) SymbolExcluded(strategy string, reason domain.ExclusionReason) {
	r.Exclusions.WithLabelValues(strategy, string(reason)).Inc()
}
