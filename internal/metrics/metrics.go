// Package metrics provides centralized Prometheus metrics registry for the predictor.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "predictive_punter"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	SamplesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "samples_total",
		Help:      "Samples served by outcome (cached, loaded, generated, regenerated)",
	}, []string{"outcome"})
	PredictorTrainingTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictor_training_total",
		Help:      "Predictor fits by role, phase and status",
	}, []string{"role", "phase", "status"})
	PredictorCacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictor_cache_requests_total",
		Help:      "Predictor cache lookups by result (hit, miss)",
	}, []string{"result"})
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Predictions generated by mode",
	}, []string{"mode"})
	DatesProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dates_processed_total",
		Help:      "Processed dates by status",
	}, []string{"status"})
	SubmitRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submit_retries_total",
		Help:      "Task submissions retried because the worker pool was saturated",
	})
)

// Gauge metrics
var (
	CachedSimilarityClasses = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cached_similarity_classes",
		Help:      "Similarity classes currently held in the predictor cache",
	})
)

// Histogram metrics
var (
	PredictorTrainingDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "predictor_training_duration_seconds",
		Help:      "Duration of predictor fits in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"role"})
	DateProcessingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "date_processing_duration_seconds",
		Help:      "Duration of processing a single date in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800, 3600},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(SamplesTotal)
		registry.MustRegister(PredictorTrainingTotal)
		registry.MustRegister(PredictorCacheRequestsTotal)
		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(DatesProcessedTotal)
		registry.MustRegister(SubmitRetriesTotal)

		registry.MustRegister(CachedSimilarityClasses)

		registry.MustRegister(PredictorTrainingDuration)
		registry.MustRegister(DateProcessingDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordSample records how a sample request was served.
func RecordSample(outcome string) {
	SamplesTotal.WithLabelValues(outcome).Inc()
}

// RecordPredictorTraining records a fit of a classifier or regressor.
func RecordPredictorTraining(role, phase, status string, durationSeconds float64) {
	PredictorTrainingTotal.WithLabelValues(role, phase, status).Inc()
	PredictorTrainingDuration.WithLabelValues(role).Observe(durationSeconds)
}

// RecordPredictorCache records a predictor cache lookup result.
func RecordPredictorCache(result string) {
	PredictorCacheRequestsTotal.WithLabelValues(result).Inc()
}

// SetCachedSimilarityClasses updates the cached class gauge.
func SetCachedSimilarityClasses(count int) {
	CachedSimilarityClasses.Set(float64(count))
}

// RecordPrediction records a generated prediction.
func RecordPrediction(mode string) {
	PredictionsTotal.WithLabelValues(mode).Inc()
}

// RecordDateProcessed records the outcome of processing a date.
func RecordDateProcessed(status string, durationSeconds float64) {
	DatesProcessedTotal.WithLabelValues(status).Inc()
	DateProcessingDuration.Observe(durationSeconds)
}

// RecordSubmitRetry records a saturated worker pool submission.
func RecordSubmitRetry() {
	SubmitRetriesTotal.Inc()
}
