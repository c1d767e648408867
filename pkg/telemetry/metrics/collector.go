// Package metrics provides Prometheus metrics for the proxy.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector owns the Prometheus registry and all proxy metrics.
type Collector struct {
	registry *prometheus.Registry
	Requests *RequestMetrics
}

// NewCollector creates a collector with its own registry. The standard
// Go runtime and process collectors are registered alongside the proxy
// metrics.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{
		registry: registry,
		Requests: NewRequestMetrics(namespace, registry),
	}
}

// Registry returns the underlying registry, used by tests to gather
// metric families directly.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
