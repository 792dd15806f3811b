package model

import (
	"fmt"
	"time"
)

// Optimization factor bounds. Every stage that multiplies or blends the
// factor must clamp back into this range before returning.
const (
	MinOptimizationFactor = 0.05
	MaxOptimizationFactor = 0.40
)

// ModelVersion identifies the scoring algorithm that produced a result.
// Bump it when the blending or similarity formulas change so stored
// history remains interpretable.
const ModelVersion = "routeopt-v1"

// TrafficLevel describes the expected congestion on a route.
type TrafficLevel string

const (
	TrafficUnknown  TrafficLevel = ""
	TrafficLow      TrafficLevel = "low"
	TrafficModerate TrafficLevel = "moderate"
	TrafficHeavy    TrafficLevel = "heavy"
	TrafficSevere   TrafficLevel = "severe"
)

// Ordinal returns the congestion level as a number usable for closeness
// comparisons. Unknown maps to moderate.
func (t TrafficLevel) Ordinal() int {
	switch t {
	case TrafficLow:
		return 0
	case TrafficModerate, TrafficUnknown:
		return 1
	case TrafficHeavy:
		return 2
	case TrafficSevere:
		return 3
	}
	return 1
}

// WeatherKind describes the expected weather on a route.
type WeatherKind string

const (
	WeatherUnknown WeatherKind = ""
	WeatherClear   WeatherKind = "clear"
	WeatherRain    WeatherKind = "rain"
	WeatherSnow    WeatherKind = "snow"
	WeatherFog     WeatherKind = "fog"
)

// Severity returns a number reflecting how much the weather degrades
// driving conditions.
func (w WeatherKind) Severity() int {
	switch w {
	case WeatherClear, WeatherUnknown:
		return 0
	case WeatherFog:
		return 1
	case WeatherRain:
		return 2
	case WeatherSnow:
		return 3
	}
	return 0
}

// Season of the year, derived from the request timestamp.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
)

// SeasonOf maps a timestamp to its meteorological season.
func SeasonOf(t time.Time) Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonAutumn
	}
}

// Waypoint is an intermediate stop on a requested route.
type Waypoint struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name,omitempty"`
}

// RouteRequest is the immutable input to an optimization run. Only the
// distance is mandatory; every other field is a hint that unlocks a
// richer prediction stage when present.
type RouteRequest struct {
	DistanceKm   float64      `json:"distance_km"`
	Traffic      TrafficLevel `json:"traffic,omitempty"`
	Weather      WeatherKind  `json:"weather,omitempty"`
	FuelPriceEUR float64      `json:"fuel_price_eur,omitempty"` // per liter, 0 means use default
	DriverID     string       `json:"driver_id,omitempty"`
	VehicleID    string       `json:"vehicle_id,omitempty"`
	Waypoints    []Waypoint   `json:"waypoints,omitempty"`
	RequestedAt  time.Time    `json:"requested_at"`
}

// Validate checks that the request is sound before any state is touched.
func (r RouteRequest) Validate() error {
	if r.DistanceKm <= 0 {
		return fmt.Errorf("route distance must be positive, got %v", r.DistanceKm)
	}
	return nil
}

// SavingsBreakdown itemizes what an optimization is expected to save.
type SavingsBreakdown struct {
	DistanceKm float64       `json:"distance_km"`
	Duration   time.Duration `json:"duration"`
	FuelLiters float64       `json:"fuel_liters"`
	CostEUR    float64       `json:"cost_eur"`
}

// OptimizationResult is the outcome of one prediction. It is immutable
// once returned to the caller; only the pending ledger tracks its
// lifecycle afterwards.
type OptimizationResult struct {
	TrackingID         string           `json:"tracking_id"`
	OptimizationFactor float64          `json:"optimization_factor"` // in [MinOptimizationFactor, MaxOptimizationFactor]
	Confidence         float64          `json:"confidence"`          // in [0,1]
	OptimizedKm        float64          `json:"optimized_km"`
	EstimatedDuration  time.Duration    `json:"estimated_duration"`
	Savings            SavingsBreakdown `json:"savings"`

	// Provenance flags record which stages actually fired.
	HistoricallyEnhanced  bool   `json:"historically_enhanced"`
	BasedOnSimilarRoutes  int    `json:"based_on_similar_routes"`
	PersonalizedForDriver string `json:"personalized_for_driver,omitempty"`
	VehicleOptimized      bool   `json:"vehicle_optimized"`
	Fallback              bool   `json:"fallback"`

	Recommendations []string `json:"recommendations,omitempty"`
	ModelVersion    string   `json:"model_version"`
}

// ActualResult is the outcome reported after a route completed. Savings
// and efficiency figures are fractions, not percentages.
type ActualResult struct {
	ActualKm       float64       `json:"actual_km"`
	ActualDuration time.Duration `json:"actual_duration"`
	SavingsPct     float64       `json:"savings_pct"` // achieved optimization fraction
	FuelLiters     float64       `json:"fuel_liters,omitempty"`
	AvgSpeedKmh    float64       `json:"avg_speed_kmh,omitempty"`
	RouteAdherence float64       `json:"route_adherence,omitempty"` // fraction of the route driven as recommended
	OnTime         bool          `json:"on_time"`
	Satisfaction   float64       `json:"satisfaction,omitempty"` // driver rating in [0,1], 0 means not rated
	CompletedAt    time.Time     `json:"completed_at"`
}

// ClampFactor bounds an optimization factor into the global range.
func ClampFactor(f float64) float64 {
	return Clamp(f, MinOptimizationFactor, MaxOptimizationFactor)
}

// ClampConfidence bounds a confidence value into [0,1].
func ClampConfidence(c float64) float64 {
	return Clamp(c, 0, 1)
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
