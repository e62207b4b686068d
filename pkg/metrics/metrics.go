package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Reducer dispatch metrics
	ReducerCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hexwarren_reducer_calls_total",
			Help: "Total number of reducer calls by name and outcome",
		},
		[]string{"reducer", "outcome"},
	)

	ReducerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hexwarren_reducer_duration_seconds",
			Help:    "Reducer execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"reducer"},
	)

	// Raft metrics
	RaftLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hexwarren_raft_is_leader",
			Help: "Whether this node is the Raft leader (1 = leader, 0 = follower)",
		},
	)

	RaftApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hexwarren_raft_apply_duration_seconds",
			Help:    "Time taken to apply a Raft log entry in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Agent loop metrics
	AgentTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hexwarren_agent_ticks_total",
			Help: "Total number of agent ticks by agent name and outcome",
		},
		[]string{"agent", "outcome"},
	)

	AgentTickDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hexwarren_agent_tick_duration_seconds",
			Help:    "Agent tick duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"agent"},
	)

	AgentItemsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hexwarren_agent_items_processed_total",
			Help: "Total number of rows processed by an agent tick",
		},
		[]string{"agent"},
	)

	// Inventory metrics
	InventoryOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hexwarren_inventory_ops_total",
			Help: "Total number of inventory operations by kind and outcome",
		},
		[]string{"op", "outcome"},
	)

	// Building metrics
	BuildingOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hexwarren_building_ops_total",
			Help: "Total number of building operations by kind and outcome",
		},
		[]string{"op", "outcome"},
	)

	BuildingDecayEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hexwarren_building_decay_events_total",
			Help: "Total number of buildings that decayed past zero HP",
		},
	)

	// Anti-cheat metrics
	MovementViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hexwarren_movement_violations_total",
			Help: "Total number of rejected movement requests by reason",
		},
		[]string{"reason"},
	)

	// Permission metrics
	PermissionDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hexwarren_permission_denials_total",
			Help: "Total number of permission checks that denied access, by required rank",
		},
		[]string{"required_rank"},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hexwarren_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hexwarren_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(ReducerCallsTotal)
	prometheus.MustRegister(ReducerDuration)
	prometheus.MustRegister(RaftLeader)
	prometheus.MustRegister(RaftApplyDuration)
	prometheus.MustRegister(AgentTicksTotal)
	prometheus.MustRegister(AgentTickDuration)
	prometheus.MustRegister(AgentItemsProcessed)
	prometheus.MustRegister(InventoryOpsTotal)
	prometheus.MustRegister(BuildingOpsTotal)
	prometheus.MustRegister(BuildingDecayEventsTotal)
	prometheus.MustRegister(MovementViolationsTotal)
	prometheus.MustRegister(PermissionDenialsTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
