package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// MonitorCycles counts completed monitoring cycles by outcome (safe, threat, error)
	MonitorCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cyberpet",
			Name:      "monitor_cycles_total",
			Help:      "Total number of monitoring cycles by outcome",
		},
		[]string{"outcome"},
	)

	// OracleLatency observes the duration of threat oracle calls
	OracleLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cyberpet",
			Name:      "oracle_request_duration_seconds",
			Help:      "Latency of threat oracle calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		},
	)

	// ThreatsTotal counts threats applied to the pet by source
	ThreatsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cyberpet",
			Name:      "threats_total",
			Help:      "Total number of threats applied to the pet",
		},
		[]string{"source", "category"},
	)

	// PetHealth tracks the current pet health
	PetHealth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cyberpet",
			Name:      "pet_health",
			Help:      "Current pet health (0-100)",
		},
	)

	// PetStage tracks the current evolution stage
	PetStage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cyberpet",
			Name:      "pet_evolution_stage",
			Help:      "Current pet evolution stage (1-4)",
		},
	)

	// SnapshotWrites counts persistence attempts by result
	SnapshotWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cyberpet",
			Name:      "snapshot_writes_total",
			Help:      "Total number of pet snapshot writes",
		},
		[]string{"result"},
	)

	// Subscribers tracks connected broadcast subscribers
	Subscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cyberpet",
			Name:      "broadcast_subscribers",
			Help:      "Number of connected broadcast subscribers",
		},
	)

	// Deliveries counts broadcast deliveries by result (delivered, dropped)
	Deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cyberpet",
			Name:      "broadcast_deliveries_total",
			Help:      "Total number of broadcast deliveries",
		},
		[]string{"type", "result"},
	)

	// ArchivedEvents counts events written to (or dropped before) the archive
	ArchivedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cyberpet",
			Name:      "archived_events_total",
			Help:      "Total number of events handled by the archiver",
		},
		[]string{"result"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// This function is idempotent and can be called multiple times safely.
func InitMetrics() {
	once.Do(func() {
		for _, c := range []prometheus.Collector{
			MonitorCycles, OracleLatency, ThreatsTotal, PetHealth, PetStage,
			SnapshotWrites, Subscribers, Deliveries, ArchivedEvents,
		} {
			// Already-registered collectors are not an error here.
			_ = prometheus.DefaultRegisterer.Register(c)
		}
	})
}
