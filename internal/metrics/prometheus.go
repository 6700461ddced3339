package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Prediction metrics
	Predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartkitchen_predictions_total",
			Help: "Total number of predictions served",
		},
		[]string{"service", "model", "status"}, // status: success|error
	)

	PredictionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartkitchen_prediction_latency_seconds",
			Help:    "End-to-end prediction latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"service"},
	)

	// Fallback chain metrics
	FallbackAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartkitchen_fallback_attempts_total",
			Help: "Fallback chain stage attempts",
		},
		[]string{"chain", "provider", "outcome"}, // outcome: success|no_result|error
	)

	FallbackExhausted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartkitchen_fallback_exhausted_total",
			Help: "Fallback chains that ran out of providers",
		},
		[]string{"chain"},
	)

	// Feature alignment metrics
	FeatureAlignment = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartkitchen_feature_alignment_total",
			Help: "Feature alignments by outcome against the training column list",
		},
		[]string{"service", "status"}, // status: exact|zero_filled|dropped_unknown|zero_filled_and_dropped
	)

	// Model registry metrics
	ModelLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartkitchen_model_loads_total",
			Help: "Model artifact load attempts",
		},
		[]string{"model", "status"},
	)

	ModelLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartkitchen_model_load_duration_seconds",
			Help:    "Model artifact load duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"model"},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartkitchen_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"},
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartkitchen_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	// Infrastructure metrics
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartkitchen_cache_requests_total",
			Help: "Forecast cache lookups",
		},
		[]string{"result"}, // hit|miss|error
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartkitchen_events_published_total",
			Help: "Events published to Kafka",
		},
		[]string{"topic", "status"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(Predictions)
	prometheus.MustRegister(PredictionLatency)

	prometheus.MustRegister(FallbackAttempts)
	prometheus.MustRegister(FallbackExhausted)

	prometheus.MustRegister(FeatureAlignment)

	prometheus.MustRegister(ModelLoads)
	prometheus.MustRegister(ModelLoadDuration)

	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)

	prometheus.MustRegister(CacheRequests)
	prometheus.MustRegister(EventsPublished)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordPrediction records a served prediction
func RecordPrediction(service, model string, latency time.Duration, err error) {
	Predictions.WithLabelValues(service, model, status(err)).Inc()
	PredictionLatency.WithLabelValues(service).Observe(latency.Seconds())
}

// RecordFallbackAttempt records one stage of a fallback chain
func RecordFallbackAttempt(chain, provider, outcome string) {
	FallbackAttempts.WithLabelValues(chain, provider, outcome).Inc()
}

// RecordFallbackExhausted records a chain with no successful stage
func RecordFallbackExhausted(chain string) {
	FallbackExhausted.WithLabelValues(chain).Inc()
}

// RecordAlignment records the outcome of a feature alignment
func RecordAlignment(service, alignmentStatus string) {
	FeatureAlignment.WithLabelValues(service, alignmentStatus).Inc()
}

// RecordModelLoad records a model load attempt
func RecordModelLoad(model string, duration time.Duration, err error) {
	ModelLoads.WithLabelValues(model, status(err)).Inc()
	ModelLoadDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	WorkerExecutions.WithLabelValues(worker, status(err)).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
}

// RecordCache records a forecast cache lookup
func RecordCache(result string) {
	CacheRequests.WithLabelValues(result).Inc()
}

// RecordEventPublished records a Kafka publish
func RecordEventPublished(topic string, err error) {
	EventsPublished.WithLabelValues(topic, status(err)).Inc()
}
