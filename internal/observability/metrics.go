// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"short-trade-lab/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	RunsTotal        *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec
	BarsEvaluated    prometheus.Counter
	TradesSimulated  prometheus.Counter
	EntriesBlocked   *prometheus.CounterVec
	LiquidationsHit  prometheus.Counter

	// Optimizer metrics
	GridPointsEvaluated prometheus.Counter
	GridPointFailures   prometheus.Counter
	SweepDuration       prometheus.Histogram
	BestPnL             prometheus.Gauge

	// Live metrics
	LiveBarsConsumed    prometheus.Counter
	LiveOrdersSubmitted *prometheus.CounterVec
	LiveEquity          prometheus.Gauge
	StreamReconnects    prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulSweep prometheus.Gauge
	UptimeSeconds       prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "short_trade_lab"
	}

	return &Metrics{
		// Simulation metrics
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of simulation runs by status",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "run_duration_seconds",
			Help:      "Simulation run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"symbol"}),
		BarsEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "bars_evaluated_total",
			Help:      "Total number of bars evaluated",
		}),
		TradesSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades simulated",
		}),
		EntriesBlocked: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "entries_blocked_total",
			Help:      "Total number of blocked entry attempts by reason",
		}, []string{"reason"}),
		LiquidationsHit: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "liquidations_total",
			Help:      "Total number of simulated liquidations",
		}),

		// Optimizer metrics
		GridPointsEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "grid_points_evaluated_total",
			Help:      "Total number of grid points evaluated",
		}),
		GridPointFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "grid_point_failures_total",
			Help:      "Total number of grid points that failed evaluation",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "sweep_duration_seconds",
			Help:      "Full grid sweep duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		BestPnL: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "best_pnl",
			Help:      "PnL of the current best parameter set",
		}),

		// Live metrics
		LiveBarsConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "bars_consumed_total",
			Help:      "Total number of closed bars consumed by the live loop",
		}),
		LiveOrdersSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "orders_submitted_total",
			Help:      "Total number of order intents submitted by reason",
		}, []string{"reason"}),
		LiveEquity: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "equity",
			Help:      "Current session equity",
		}),
		StreamReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "stream_reconnects_total",
			Help:      "Total number of websocket stream reconnects",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulSweep: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_sweep_timestamp",
			Help:      "Unix timestamp of last successful optimization sweep",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRun records a simulation run.
func RecordRun(symbol, status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RunDuration.WithLabelValues(symbol).Observe(durationSeconds)
}

// RecordTrades adds to the simulated trade counter.
func RecordTrades(n int) {
	DefaultMetrics.TradesSimulated.Add(float64(n))
}

// RecordSimulation accounts one completed run: bars, closed trades,
// blocked entries by reason, and liquidations.
func RecordSimulation(symbol string, durationSeconds float64, barsEvaluated int, trades []domain.TradeRecord) {
	RecordRun(symbol, "ok", durationSeconds)
	DefaultMetrics.BarsEvaluated.Add(float64(barsEvaluated))

	closed := 0
	for i := range trades {
		switch {
		case trades[i].Rejected:
			DefaultMetrics.EntriesBlocked.WithLabelValues(trades[i].RejectReason).Inc()
		case trades[i].ExitReason == domain.ExitReasonLiquidation:
			DefaultMetrics.LiquidationsHit.Inc()
			closed++
		default:
			closed++
		}
	}
	RecordTrades(closed)
}

// RecordBlockedEntry increments the blocked entry counter for a reason.
func RecordBlockedEntry(reason string) {
	DefaultMetrics.EntriesBlocked.WithLabelValues(reason).Inc()
}

// RecordGridPoint records one evaluated grid point.
func RecordGridPoint(failed bool) {
	DefaultMetrics.GridPointsEvaluated.Inc()
	if failed {
		DefaultMetrics.GridPointFailures.Inc()
	}
}

// RecordSweep records a completed sweep and its winner's PnL.
func RecordSweep(durationSeconds, bestPnL float64, atUnix int64) {
	DefaultMetrics.SweepDuration.Observe(durationSeconds)
	DefaultMetrics.BestPnL.Set(bestPnL)
	DefaultMetrics.LastSuccessfulSweep.Set(float64(atUnix))
}

// RecordLiveBar records one consumed bar and the session equity after it.
func RecordLiveBar(equity float64) {
	DefaultMetrics.LiveBarsConsumed.Inc()
	DefaultMetrics.LiveEquity.Set(equity)
}

// RecordOrderSubmitted increments the submitted order counter.
func RecordOrderSubmitted(reason string) {
	DefaultMetrics.LiveOrdersSubmitted.WithLabelValues(reason).Inc()
}

// RecordStreamReconnect increments the websocket reconnect counter.
func RecordStreamReconnect() {
	DefaultMetrics.StreamReconnects.Inc()
}

// StartUptimeCounter ticks the uptime counter once a second until the
// context is cancelled.
func StartUptimeCounter(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				DefaultMetrics.UptimeSeconds.Inc()
			}
		}
	}()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
