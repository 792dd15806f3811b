package driver

import (
	"time"

	"github.com/kilianp07/routeopt/core/model"
)

// Behavior holds the learned behavioral tendencies of a driver. All
// fields are ratios around 1.0 or fractions in [0,1].
type Behavior struct {
	// SpeedDeviation is the driver's pace relative to the reference
	// pace for the route length. 1.0 means on target.
	SpeedDeviation float64 `json:"speed_deviation"`
	// RouteAdherence is the fraction of routes driven as recommended.
	RouteAdherence float64 `json:"route_adherence"`
	// FuelEfficiency compares expected against actual consumption.
	// Values above 1 mean the driver beats the fleet average.
	FuelEfficiency float64 `json:"fuel_efficiency"`
	// Punctuality is the fraction of on-time arrivals.
	Punctuality float64 `json:"punctuality"`
}

// Weights are the driver's optimization priorities. They feed the
// dominant-focus derivation in Personalize.
type Weights struct {
	Time    float64 `json:"time"`
	Cost    float64 `json:"cost"`
	Comfort float64 `json:"comfort"`
	Safety  float64 `json:"safety"`
}

// Route-type keys for the preference map.
const (
	RouteUrban    = "urban"    // < 50 km
	RouteRegional = "regional" // 50-200 km
	RouteLongHaul = "long_haul"
)

// RouteTypeOf buckets a request by distance.
func RouteTypeOf(req model.RouteRequest) string {
	switch {
	case req.DistanceKm < 50:
		return RouteUrban
	case req.DistanceKm < 200:
		return RouteRegional
	default:
		return RouteLongHaul
	}
}

// Profile is the per-driver mutable aggregate. Created on first
// sighting of a driver id, mutated after every reported outcome, never
// deleted.
type Profile struct {
	DriverID string   `json:"driver_id"`
	Behavior Behavior `json:"behavior"`
	Weights  Weights  `json:"weights"`
	// RoutePreference scores each route type by how satisfied the
	// driver was on it. Moves only on satisfactory outcomes.
	RoutePreference map[string]float64 `json:"route_preference"`
	RouteCount      int                `json:"route_count"`
	// VarietySeen tracks the distinct conditions the driver was
	// observed in; it feeds the completeness bonus.
	VarietySeen  map[string]bool `json:"variety_seen"`
	Completeness float64         `json:"completeness"`
	Confidence   float64         `json:"confidence"`
	LastUpdated  time.Time       `json:"last_updated"`
}

// FocusArea is the dominant optimization focus derived from the weights.
type FocusArea string

const (
	FocusTime     FocusArea = "time"
	FocusCost     FocusArea = "cost"
	FocusComfort  FocusArea = "comfort"
	FocusBalanced FocusArea = "balanced"
)

// RiskLevel classifies the driver for the personalization step.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// Adjustment is the outcome of the personalization stage.
type Adjustment struct {
	OptimizationFactor float64   `json:"optimization_factor"`
	Confidence         float64   `json:"confidence"`
	Risk               RiskLevel `json:"risk"`
	Focus              FocusArea `json:"focus"`
	Recommendations    []string  `json:"recommendations,omitempty"`
}

func newProfile(id string, now time.Time) *Profile {
	return &Profile{
		DriverID: id,
		Behavior: Behavior{
			SpeedDeviation: 1.0,
			RouteAdherence: 0.8,
			FuelEfficiency: 1.0,
			Punctuality:    0.8,
		},
		Weights:         Weights{Time: 0.25, Cost: 0.25, Comfort: 0.25, Safety: 0.25},
		RoutePreference: map[string]float64{},
		VarietySeen:     map[string]bool{},
		LastUpdated:     now,
	}
}

func (p *Profile) clone() Profile {
	cp := *p
	cp.RoutePreference = make(map[string]float64, len(p.RoutePreference))
	for k, v := range p.RoutePreference {
		cp.RoutePreference[k] = v
	}
	cp.VarietySeen = make(map[string]bool, len(p.VarietySeen))
	for k, v := range p.VarietySeen {
		cp.VarietySeen[k] = v
	}
	return cp
}
