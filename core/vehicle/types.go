package vehicle

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/routeopt/core/baseline"
	"github.com/kilianp07/routeopt/core/model"
)

// Refinement is the shared result shape of the per-type optimization.
type Refinement struct {
	Result        model.OptimizationResult `json:"result"`
	Viability     Viability                `json:"viability"`
	Fuel          FuelEstimate             `json:"fuel"`
	Cost          CostEstimate             `json:"cost"`
	ChargingStops int                      `json:"charging_stops,omitempty"`
	RestStops     int                      `json:"rest_stops,omitempty"`
	Notes         []string                 `json:"notes,omitempty"`
}

// Per-type factor adjustments.
const (
	electricUrbanBoost = 1.05 // regenerative braking pays off in town
	truckCut           = 0.92
	motorcycleBoost    = 1.03
	electricRangeKm    = 320 // usable full-charge range
	truckShiftDriving  = 4*time.Hour + 30*time.Minute
)

// OptimizeForVehicleType recomputes the prediction with the vehicle's
// own figures and dispatches to the type-specific refinement. All
// variants share the same result shape.
func (o *Optimizer) OptimizeForVehicleType(vehicleID string, req model.RouteRequest, base model.OptimizationResult) Refinement {
	o.mu.Lock()
	p := *o.getOrCreateLocked(vehicleID)
	o.mu.Unlock()

	fuel := fuelConsumption(p, req)
	via := checkViability(p, req)

	factor := base.OptimizationFactor
	ref := Refinement{Viability: via, Fuel: fuel}

	switch p.Spec.Type {
	case TypeElectric:
		if req.DistanceKm < 80 {
			factor *= electricUrbanBoost
		}
		usable := electricRangeKm * p.State.FuelLevel
		if req.DistanceKm > usable {
			ref.ChargingStops = int(math.Ceil((req.DistanceKm - usable) / (electricRangeKm * refuelUsableShare)))
			ref.Notes = append(ref.Notes, fmt.Sprintf("insert %d charging stop(s)", ref.ChargingStops))
		}
	case TypeTruck:
		factor *= truckCut
		if est := baseline.EstimateDuration(req.DistanceKm); est > truckShiftDriving {
			ref.RestStops = int(est / truckShiftDriving)
			ref.Notes = append(ref.Notes, fmt.Sprintf("plan %d mandatory rest stop(s)", ref.RestStops))
		}
	case TypeMotorcycle:
		// Load and height restrictions barely apply; lane filtering
		// shortens urban legs.
		factor *= motorcycleBoost
	}
	if !via.CanComplete {
		ref.Notes = append(ref.Notes, via.Violations...)
	}
	factor = model.ClampFactor(factor)

	out := base
	out.OptimizationFactor = factor
	out.OptimizedKm = req.DistanceKm * (1 - factor)
	out.EstimatedDuration = durationWithCap(out.OptimizedKm, p.Restrictions.SpeedCapKmh)
	savedKm := req.DistanceKm - out.OptimizedKm
	fuelSaved := savedKm / 100 * fuel.Per100Km
	out.Savings = model.SavingsBreakdown{
		DistanceKm: savedKm,
		Duration:   time.Duration(factor * float64(durationWithCap(req.DistanceKm, p.Restrictions.SpeedCapKmh))),
		FuelLiters: fuelSaved,
		CostEUR:    fuelSaved * o.fuelPrice(req),
	}
	out.VehicleOptimized = true
	ref.Result = out
	ref.Cost = o.OperatingCost(vehicleID, req)
	return ref
}

// durationWithCap applies a legal speed cap on top of the reference pace.
func durationWithCap(distanceKm, capKmh float64) time.Duration {
	est := baseline.EstimateDuration(distanceKm)
	if capKmh <= 0 || distanceKm <= 0 {
		return est
	}
	capped := time.Duration(distanceKm / capKmh * float64(time.Hour))
	if capped > est {
		return capped
	}
	return est
}
