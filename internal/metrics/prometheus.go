package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RelayTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightlm_relay_total",
			Help: "Total relay requests by terminal outcome",
		},
		[]string{"outcome"},
	)

	DispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insightlm_dispatch_duration_seconds",
			Help:    "Webhook dispatch duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	HistoryWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightlm_history_write_failures_total",
			Help: "Best-effort history writes that failed",
		},
		[]string{"role"},
	)

	DiagnosticsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightlm_diagnostics_total",
			Help: "Diagnostics runs by overall status",
		},
		[]string{"status"},
	)

	RealtimeSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "insightlm_realtime_subscribers",
			Help: "Currently connected realtime subscribers",
		},
	)
)

func Init() {
	prometheus.MustRegister(RelayTotal)
	prometheus.MustRegister(DispatchDuration)
	prometheus.MustRegister(HistoryWriteFailures)
	prometheus.MustRegister(DiagnosticsTotal)
	prometheus.MustRegister(RealtimeSubscribers)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
