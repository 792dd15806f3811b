// Package metrics defines the sink interfaces the engine records
// observability data through. Implementations live under infra/metrics.
package metrics

import "time"

// PredictionRecord captures one optimization result for observability.
type PredictionRecord struct {
	TrackingID           string
	DistanceKm           float64
	OptimizationFactor   float64
	Confidence           float64
	HistoricallyEnhanced bool
	Personalized         bool
	VehicleOptimized     bool
	Fallback             bool
	Time                 time.Time
}

// Sink records predictions for observability purposes.
type Sink interface {
	RecordPrediction(rec PredictionRecord) error
}

// OutcomeRecord captures one reconciled actual result.
type OutcomeRecord struct {
	TrackingID      string
	OverallAccuracy float64
	SavingsAccuracy float64
	RollingAccuracy float64
	Time            time.Time
}

// OutcomeRecorder is implemented by sinks able to record outcomes.
type OutcomeRecorder interface {
	RecordOutcome(rec OutcomeRecord) error
}

// LedgerSizeRecorder records the pending-ledger size after sweeps.
type LedgerSizeRecorder interface {
	RecordLedgerSize(size int) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPrediction(PredictionRecord) error { return nil }
func (NopSink) RecordOutcome(OutcomeRecord) error       { return nil }
func (NopSink) RecordLedgerSize(int) error              { return nil }

// SinkConfig selects and configures one sink backend.
type SinkConfig struct {
	// Type is one of "nop", "prometheus" or "influx".
	Type string `json:"type"`
	// Prometheus settings.
	PrometheusPort int `json:"prometheus_port,omitempty"`
	// Influx settings.
	URL    string `json:"url,omitempty"`
	Token  string `json:"token,omitempty"`
	Org    string `json:"org,omitempty"`
	Bucket string `json:"bucket,omitempty"`
}

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []SinkConfig `json:"sinks"`
}
