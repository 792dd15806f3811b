// Package events defines the prediction related events emitted on the
// event bus.
//
// Available event types:
//   - PredictionEvent: a new optimization result was produced
//   - OutcomeEvent: an actual result was reconciled against its prediction
//   - RetrainEvent: the historical learner signaled a model refresh
//   - SweepEvent: the pending ledger evicted expired predictions
package events

import (
	"time"

	"github.com/kilianp07/routeopt/core/model"
)

// PredictionEvent is published for every optimization result returned
// to a caller.
type PredictionEvent struct {
	Result  model.OptimizationResult
	Request model.RouteRequest
}

// OutcomeEvent is published when a reported actual result was
// reconciled against its pending prediction.
type OutcomeEvent struct {
	TrackingID string
	Accuracy   model.AccuracyReport
	DriverID   string
	VehicleID  string
}

// RetrainEvent is published when the learner's maintenance trigger
// fired.
type RetrainEvent struct {
	Corpus          int
	RollingAccuracy float64
}

// SweepEvent is published after a pending-ledger sweep.
type SweepEvent struct {
	Evicted   int
	Remaining int
	At        time.Time
}
