package vehicle

import (
	"fmt"

	"github.com/kilianp07/routeopt/core/model"
)

// CostEstimate is the per-route operating cost breakdown.
type CostEstimate struct {
	TotalEUR        float64 `json:"total_eur"`
	FuelEUR         float64 `json:"fuel_eur"`
	MaintenanceEUR  float64 `json:"maintenance_eur"`
	TiresEUR        float64 `json:"tires_eur"`
	DepreciationEUR float64 `json:"depreciation_eur"`
	PerKm           float64 `json:"per_km"`
}

// Fixed per-km rate estimates. Trucks wear faster.
const (
	maintenancePerKm = 0.04
	tiresPerKm       = 0.015
	depreciationPerKm = 0.06
	truckRateFactor  = 1.5
)

// OperatingCost computes fuel plus fixed per-route estimates for
// maintenance, tire wear and depreciation.
func (o *Optimizer) OperatingCost(vehicleID string, req model.RouteRequest) CostEstimate {
	o.mu.Lock()
	p := *o.getOrCreateLocked(vehicleID)
	o.mu.Unlock()

	fuel := fuelConsumption(p, req)
	rate := 1.0
	if p.Spec.Type == TypeTruck {
		rate = truckRateFactor
	}
	est := CostEstimate{
		FuelEUR:         fuel.FuelNeededL * o.fuelPrice(req),
		MaintenanceEUR:  req.DistanceKm * maintenancePerKm * rate,
		TiresEUR:        req.DistanceKm * tiresPerKm * rate,
		DepreciationEUR: req.DistanceKm * depreciationPerKm * rate,
	}
	est.TotalEUR = est.FuelEUR + est.MaintenanceEUR + est.TiresEUR + est.DepreciationEUR
	if req.DistanceKm > 0 {
		est.PerKm = est.TotalEUR / req.DistanceKm
	}
	return est
}

// WarningSeverity orders warnings for the fleet dashboarding layer.
type WarningSeverity string

const (
	SeverityMedium   WarningSeverity = "medium"
	SeverityHigh     WarningSeverity = "high"
	SeverityCritical WarningSeverity = "critical"
)

// Warning flags a vehicle condition that needs operator attention.
type Warning struct {
	Severity   WarningSeverity `json:"severity"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Actionable bool            `json:"actionable"`
}

// Fuel warning thresholds, fractions of tank capacity.
const (
	fuelCriticalLevel = 0.15
	fuelLowLevel      = 0.25
)

// GenerateWarnings applies the threshold rules on fuel level and
// maintenance status.
func (o *Optimizer) GenerateWarnings(vehicleID string) []Warning {
	o.mu.Lock()
	p, ok := o.profiles[vehicleID]
	if !ok {
		o.mu.Unlock()
		return nil
	}
	cp := *p
	o.mu.Unlock()
	return warningsFor(cp)
}

func warningsFor(p Profile) []Warning {
	var ws []Warning
	switch {
	case p.State.FuelLevel < fuelCriticalLevel:
		ws = append(ws, Warning{
			Severity:   SeverityHigh,
			Code:       "fuel_critical",
			Message:    fmt.Sprintf("fuel level at %.0f%%, refuel before the next route", p.State.FuelLevel*100),
			Actionable: true,
		})
	case p.State.FuelLevel < fuelLowLevel:
		ws = append(ws, Warning{
			Severity:   SeverityMedium,
			Code:       "fuel_low",
			Message:    fmt.Sprintf("fuel level at %.0f%%", p.State.FuelLevel*100),
			Actionable: true,
		})
	}
	switch p.State.Maintenance {
	case MaintenanceNeedsService:
		ws = append(ws, Warning{
			Severity:   SeverityMedium,
			Code:       "maintenance_due",
			Message:    "vehicle is due for service",
			Actionable: true,
		})
	case MaintenanceCritical:
		ws = append(ws, Warning{
			Severity:   SeverityCritical,
			Code:       "maintenance_critical",
			Message:    "vehicle requires immediate service, avoid dispatching",
			Actionable: true,
		})
	}
	return ws
}
