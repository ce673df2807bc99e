// ABOUTME: Prometheus instrumentation for lifecycle operations
// ABOUTME: Counts mutations by outcome, times them, and tracks bulk item results
package metrics

import (
	"net/http"
	"time"

	"github.com/harperreed/studiocrm/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements engine.Observer on its own registry.
type Collector struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	bulkItems  *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studiocrm",
			Name:      "operations_total",
			Help:      "Lifecycle mutations by operation, entity type and outcome",
		}, []string{"operation", "entity", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "studiocrm",
			Name:      "operation_duration_seconds",
			Help:      "Time spent in lifecycle mutations including the store transaction",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation", "entity"}),
		bulkItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studiocrm",
			Name:      "bulk_items_total",
			Help:      "Bulk operation items by entity type, action and result",
		}, []string{"entity", "action", "result"}),
	}
	c.registry.MustRegister(c.operations, c.duration, c.bulkItems)
	return c
}

func (c *Collector) ObserveOperation(op string, entity models.EntityType, outcome string, elapsed time.Duration) {
	c.operations.WithLabelValues(op, string(entity), outcome).Inc()
	c.duration.WithLabelValues(op, string(entity)).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveBulk(entity models.EntityType, action string, affected, skipped int) {
	c.bulkItems.WithLabelValues(string(entity), action, "affected").Add(float64(affected))
	c.bulkItems.WithLabelValues(string(entity), action, "skipped").Add(float64(skipped))
}

// Registry exposes the underlying registry for tests and extra collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
