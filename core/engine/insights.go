package engine

import (
	"github.com/kilianp07/routeopt/core/driver"
	"github.com/kilianp07/routeopt/core/history"
	"github.com/kilianp07/routeopt/core/model"
	"github.com/kilianp07/routeopt/core/vehicle"
)

// LearningInsights summarizes the state of the feedback loop.
type LearningInsights struct {
	HistoricalRoutes   int                    `json:"historical_routes"`
	RollingAccuracy    float64                `json:"rolling_accuracy"`
	RetrainCount       int                    `json:"retrain_count"`
	PendingPredictions int                    `json:"pending_predictions"`
	Patterns           *history.PatternReport `json:"patterns,omitempty"`
}

// GetLearningInsights returns the learner's aggregate state. The
// pattern report is the one derived at the last retrain, refreshed on
// demand when the corpus allows it.
func (e *Engine) GetLearningInsights() LearningInsights {
	e.mu.Lock()
	patterns := e.lastPatterns
	pending := len(e.pending)
	e.mu.Unlock()
	if patterns == nil {
		patterns = e.learner.AnalyzePatterns()
	}
	return LearningInsights{
		HistoricalRoutes:   e.learner.Size(),
		RollingAccuracy:    e.learner.RollingAccuracy(),
		RetrainCount:       e.learner.RetrainCount(),
		PendingPredictions: pending,
		Patterns:           patterns,
	}
}

// HistorySnapshot returns a copy of the learned route corpus.
func (e *Engine) HistorySnapshot() []model.HistoricalRoute {
	return e.learner.Snapshot()
}

// GetDriverProfile exposes a driver profile read-only.
func (e *Engine) GetDriverProfile(driverID string) (driver.Profile, bool) {
	return e.drivers.Get(driverID)
}

// GetVehicleProfile exposes a vehicle profile read-only.
func (e *Engine) GetVehicleProfile(vehicleID string) (vehicle.Profile, bool) {
	return e.vehicles.Get(vehicleID)
}

// FleetAnalytics aggregates over every known driver and vehicle.
type FleetAnalytics struct {
	Drivers                  int                             `json:"drivers"`
	Vehicles                 int                             `json:"vehicles"`
	AvgDriverConfidence      float64                         `json:"avg_driver_confidence"`
	AvgOptimizationPotential float64                         `json:"avg_optimization_potential"`
	Warnings                 map[vehicle.WarningSeverity]int `json:"warnings"`
}

// GetFleetAnalytics rolls the profile stores up into one fleet view.
func (e *Engine) GetFleetAnalytics() FleetAnalytics {
	fa := FleetAnalytics{Warnings: map[vehicle.WarningSeverity]int{}}

	drivers := e.drivers.Snapshot()
	fa.Drivers = len(drivers)
	for _, p := range drivers {
		fa.AvgDriverConfidence += p.Confidence
	}
	if fa.Drivers > 0 {
		fa.AvgDriverConfidence /= float64(fa.Drivers)
	}

	vehicles := e.vehicles.Snapshot()
	fa.Vehicles = len(vehicles)
	for id, p := range vehicles {
		fa.AvgOptimizationPotential += p.OptimizationPotential
		for _, w := range e.vehicles.GenerateWarnings(id) {
			fa.Warnings[w.Severity]++
		}
	}
	if fa.Vehicles > 0 {
		fa.AvgOptimizationPotential /= float64(fa.Vehicles)
	}
	return fa
}
