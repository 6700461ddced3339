package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ModelStatusSource reports which registered models are currently loaded
type ModelStatusSource interface {
	Status() map[string]bool
}

// ModelCollector exports the model registry state on every scrape
type ModelCollector struct {
	source ModelStatusSource

	modelLoaded *prometheus.Desc
}

// NewModelCollector creates a new model registry collector
func NewModelCollector(source ModelStatusSource) *ModelCollector {
	return &ModelCollector{
		source: source,
		modelLoaded: prometheus.NewDesc(
			"smartkitchen_model_loaded",
			"Whether a registered model is loaded (1) or not (0)",
			[]string{"model"}, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *ModelCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.modelLoaded
}

// Collect implements prometheus.Collector
func (c *ModelCollector) Collect(ch chan<- prometheus.Metric) {
	for name, loaded := range c.source.Status() {
		value := 0.0
		if loaded {
			value = 1
		}
		ch <- prometheus.MustNewConstMetric(c.modelLoaded, prometheus.GaugeValue, value, name)
	}
}
