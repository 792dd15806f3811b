package history

import (
	"math"

	"github.com/kilianp07/routeopt/core/model"
)

// ScoringVersion identifies the similarity formula. Recorded alongside
// predictions so scores stay interpretable after an algorithm swap.
const ScoringVersion = "sim-w6-v1"

// Per-dimension weights of the similarity score. They sum to 1 so the
// score stays in [0,1].
const (
	wDistance  = 0.30
	wVehicle   = 0.20
	wTimeOfDay = 0.15
	wTraffic   = 0.15
	wSeason    = 0.10
	wWeather   = 0.10
)

// Similarity scores how closely a request matches a historical record
// across the weighted feature dimensions. Deterministic for fixed inputs.
func Similarity(a, b model.RouteFeatures) float64 {
	s := wDistance*distanceCloseness(a.DistanceKm, b.DistanceKm) +
		wVehicle*vehicleMatch(a.VehicleType, b.VehicleType) +
		wTimeOfDay*hourCloseness(a.HourOfDay, b.HourOfDay) +
		wTraffic*trafficCloseness(a.Traffic, b.Traffic) +
		wWeather*weatherCloseness(a.Weather, b.Weather)
	if a.Season == b.Season {
		s += wSeason
	}
	return model.Clamp(s, 0, 1)
}

func distanceCloseness(a, b float64) float64 {
	max := math.Max(a, b)
	if max <= 0 {
		return 1
	}
	return 1 - math.Abs(a-b)/max
}

// vehicleMatch is exact; a missing type on one side only is neutral
// rather than a mismatch.
func vehicleMatch(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0.5
	}
	return 0
}

// hourCloseness compares hours on the 24h circle.
func hourCloseness(a, b int) float64 {
	diff := math.Abs(float64(a - b))
	if diff > 12 {
		diff = 24 - diff
	}
	return 1 - diff/12
}

func trafficCloseness(a, b model.TrafficLevel) float64 {
	return 1 - math.Abs(float64(a.Ordinal()-b.Ordinal()))/3
}

func weatherCloseness(a, b model.WeatherKind) float64 {
	return 1 - math.Abs(float64(a.Severity()-b.Severity()))/3
}
