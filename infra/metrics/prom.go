package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/routeopt/core/metrics"
)

// PromSink records predictions and outcomes in Prometheus metrics.
type PromSink struct {
	predictions *prometheus.CounterVec
	factor      *prometheus.HistogramVec
	accuracy    prometheus.Histogram
	rolling     prometheus.Gauge
	ledger      prometheus.Gauge
}

// NewPromSink registers prediction metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.SinkConfig) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.SinkConfig, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	predictions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routeopt_predictions_total",
		Help: "Total number of optimization predictions",
	}, []string{"historical", "personalized", "vehicle", "fallback"})
	factor := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routeopt_optimization_factor",
		Help:    "Distribution of predicted optimization factors",
		Buckets: prometheus.LinearBuckets(0.05, 0.05, 8),
	}, []string{"historical"})
	accuracy := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "routeopt_outcome_accuracy",
		Help:    "Distribution of overall prediction accuracy on reconciled outcomes",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})
	rolling := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "routeopt_rolling_accuracy",
		Help: "Exponential moving average of prediction accuracy",
	})
	ledger := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "routeopt_pending_ledger_size",
		Help: "Pending prediction ledger size after the last sweep",
	})

	if err := reg.Register(predictions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			predictions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(factor); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			factor = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(accuracy); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			accuracy = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(rolling); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			rolling = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(ledger); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			ledger = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{predictions: predictions, factor: factor, accuracy: accuracy, rolling: rolling, ledger: ledger}, nil
}

// RecordPrediction increments the prediction counter and observes the
// predicted factor.
func (s *PromSink) RecordPrediction(rec coremetrics.PredictionRecord) error {
	historical := strconv.FormatBool(rec.HistoricallyEnhanced)
	s.predictions.WithLabelValues(
		historical,
		strconv.FormatBool(rec.Personalized),
		strconv.FormatBool(rec.VehicleOptimized),
		strconv.FormatBool(rec.Fallback),
	).Inc()
	s.factor.WithLabelValues(historical).Observe(rec.OptimizationFactor)
	return nil
}

// RecordOutcome observes the reconciled accuracy and updates the
// rolling gauge.
func (s *PromSink) RecordOutcome(rec coremetrics.OutcomeRecord) error {
	s.accuracy.Observe(rec.OverallAccuracy)
	s.rolling.Set(rec.RollingAccuracy)
	return nil
}

// RecordLedgerSize sets the ledger size gauge.
func (s *PromSink) RecordLedgerSize(size int) error {
	s.ledger.Set(float64(size))
	return nil
}
