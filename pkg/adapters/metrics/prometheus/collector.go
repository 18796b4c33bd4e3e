package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aescanero/warden/pkg/domain"
)

// Collector implements ports.MetricsCollector using Prometheus
type Collector struct {
	registrations  prometheus.Counter
	heartbeats     prometheus.Counter
	sweepDemotions prometheus.Counter
	protocolErrors prometheus.Counter
	workers        *prometheus.GaugeVec
}

// NewCollector creates a new Prometheus metrics collector
func NewCollector() *Collector {
	return &Collector{
		registrations: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_registrations_total",
				Help: "Total number of worker registrations",
			},
		),
		heartbeats: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_heartbeats_total",
				Help: "Total number of heartbeats received",
			},
		),
		sweepDemotions: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_sweep_demotions_total",
				Help: "Total number of workers marked not_responding by the sweep",
			},
		),
		protocolErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_protocol_errors_total",
				Help: "Total number of malformed or mismatched heartbeats",
			},
		),
		workers: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "warden_workers",
				Help: "Current number of workers by status",
			},
			[]string{"status"},
		),
	}
}

// RecordRegistration increments the registration counter
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordHeartbeat increments the heartbeat counter
func (c *Collector) RecordHeartbeat() {
	c.heartbeats.Inc()
}

// RecordSweepDemotion increments the sweep demotion counter
func (c *Collector) RecordSweepDemotion() {
	c.sweepDemotions.Inc()
}

// RecordProtocolError increments the protocol error counter
func (c *Collector) RecordProtocolError() {
	c.protocolErrors.Inc()
}

// SetWorkerCounts updates the per-status worker gauge
func (c *Collector) SetWorkerCounts(counts map[domain.Status]int) {
	for _, status := range domain.AllStatuses {
		c.workers.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
