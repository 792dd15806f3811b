package model

import "time"

// RouteFeatures are the normalized dimensions a route is matched on.
// They are captured once when an outcome is recorded and never change.
type RouteFeatures struct {
	DistanceKm   float64      `json:"distance_km"`
	VehicleType  string       `json:"vehicle_type,omitempty"`
	HourOfDay    int          `json:"hour_of_day"`
	Season       Season       `json:"season"`
	Traffic      TrafficLevel `json:"traffic,omitempty"`
	Weather      WeatherKind  `json:"weather,omitempty"`
	DriverRoutes int          `json:"driver_routes"` // driver experience at the time of the route
}

// FeaturesOf derives matching features from a request.
func FeaturesOf(req RouteRequest, vehicleType string, driverRoutes int) RouteFeatures {
	at := req.RequestedAt
	if at.IsZero() {
		at = time.Now()
	}
	return RouteFeatures{
		DistanceKm:   req.DistanceKm,
		VehicleType:  vehicleType,
		HourOfDay:    at.Hour(),
		Season:       SeasonOf(at),
		Traffic:      req.Traffic,
		Weather:      req.Weather,
		DriverRoutes: driverRoutes,
	}
}

// AccuracyReport holds the per-field accuracies of one prediction
// against its reported outcome, each in [0,1].
type AccuracyReport struct {
	Savings  float64 `json:"savings"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Overall  float64 `json:"overall"`
}

// HistoricalRoute is an immutable record of one completed optimization.
type HistoricalRoute struct {
	ID         string             `json:"id"`
	RecordedAt time.Time          `json:"recorded_at"`
	Features   RouteFeatures      `json:"features"`
	Predicted  OptimizationResult `json:"predicted"`
	Actual     ActualResult       `json:"actual"`
	Accuracy   AccuracyReport     `json:"accuracy"`
}
