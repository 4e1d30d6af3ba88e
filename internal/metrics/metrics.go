// Package metrics exposes the Provider Manager's status snapshot as
// Prometheus gauges, mirroring the JSON health snapshot shape of
// spec.md §6 for operators who scrape rather than poll.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/textenhance/core/pkg/types"
)

// Collector reports one gauge set per provider, refreshed from a
// snapshot function on every scrape rather than on a background timer.
type Collector struct {
	snapshot func() map[string]types.ProviderStatus

	available          *prometheus.GaugeVec
	lastLatencySeconds *prometheus.GaugeVec
	cooldownRemaining  *prometheus.GaugeVec
}

// NewCollector builds a Collector that pulls from snapshot on each
// Prometheus Collect call.
func NewCollector(snapshot func() map[string]types.ProviderStatus) *Collector {
	return &Collector{
		snapshot: snapshot,
		available: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "textenhance_provider_available",
			Help: "1 if the provider is currently eligible for selection, 0 otherwise.",
		}, []string{"provider"}),
		lastLatencySeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "textenhance_provider_last_latency_seconds",
			Help: "Latency of the provider's most recent call or health probe.",
		}, []string{"provider"}),
		cooldownRemaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "textenhance_provider_cooldown_remaining_seconds",
			Help: "Seconds until the provider's cooldown expires, 0 if not in cooldown.",
		}, []string{"provider"}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.available.Describe(ch)
	c.lastLatencySeconds.Describe(ch)
	c.cooldownRemaining.Describe(ch)
}

// Collect implements prometheus.Collector, refreshing every gauge from
// the live snapshot before emitting.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	now := time.Now()
	for name, status := range c.snapshot() {
		avail := 0.0
		if status.Available {
			avail = 1.0
		}
		c.available.WithLabelValues(name).Set(avail)
		c.lastLatencySeconds.WithLabelValues(name).Set(status.LastLatency.Seconds())

		remaining := 0.0
		if status.InCooldown(now) {
			remaining = status.CooldownUntil.Sub(now).Seconds()
		}
		c.cooldownRemaining.WithLabelValues(name).Set(remaining)
	}
	c.available.Collect(ch)
	c.lastLatencySeconds.Collect(ch)
	c.cooldownRemaining.Collect(ch)
}
