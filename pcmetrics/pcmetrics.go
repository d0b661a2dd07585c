// Package pcmetrics exposes the substrate's runtime counters as
// Prometheus collectors, for harnesses that want to scrape pool
// occupancy and scheduler throughput. The core packages never import
// this one; a caller wires these gauges/counters up itself at the points
// named in each field's comment.
package pcmetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every collector a harness may choose to register.
// Registering only a subset is fine: each collector is independent.
type Metrics struct {
	TasksScheduled prometheus.Counter
	TasksCompleted prometheus.Counter
	SchedulerIdleWorkers prometheus.Gauge

	AllocBytesInUse *prometheus.GaugeVec // labeled by alloc.Kind.String()
	ArenaSlotsInUse prometheus.Gauge

	EntitiesLive prometheus.Gauge
	SlabsLive    prometheus.Gauge
}

// New constructs a Metrics bundle with the given namespace, unregistered.
// Call Register to attach it to a prometheus.Registerer.
func New(namespace string) *Metrics {
	return &Metrics{
		TasksScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "task", Name: "scheduled_total",
			Help: "Number of Scheduler.Submit calls observed by the scheduler.",
		}),
		TasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "task", Name: "completed_total",
			Help: "Number of tasks that reached StatusComplete.",
		}),
		SchedulerIdleWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "task", Name: "idle_workers",
			Help: "Number of worker goroutines currently parked on pushEvent.",
		}),
		AllocBytesInUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "alloc", Name: "bytes_in_use",
			Help: "Bytes currently allocated, labeled by tier.",
		}, []string{"kind"}),
		ArenaSlotsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "alloc", Name: "arena_slots_in_use",
			Help: "Number of acquired ArenaRing slots.",
		}),
		EntitiesLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "ecs", Name: "entities_live",
			Help: "Number of currently live entities across all slabs.",
		}),
		SlabsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "ecs", Name: "slabs_live",
			Help: "Number of currently live slabs.",
		}),
	}
}

// Register attaches every collector in m to reg.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.TasksScheduled,
		m.TasksCompleted,
		m.SchedulerIdleWorkers,
		m.AllocBytesInUse,
		m.ArenaSlotsInUse,
		m.EntitiesLive,
		m.SlabsLive,
	)
}
