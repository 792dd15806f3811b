package vehicle

import (
	"math"
	"time"

	"github.com/kilianp07/routeopt/core/model"
)

// FactorBreakdown itemizes the multipliers behind a fuel estimate.
type FactorBreakdown struct {
	BasePer100Km float64 `json:"base_per_100km"`
	Load         float64 `json:"load"`
	Maintenance  float64 `json:"maintenance"`
	Seasonal     float64 `json:"seasonal"`
	Special      float64 `json:"special"`
}

// FuelEstimate is the vehicle-specific consumption computation for one
// route.
type FuelEstimate struct {
	Per100Km                   float64         `json:"per_100km"`
	FuelNeededL                float64         `json:"fuel_needed_l"`
	CanCompleteWithCurrentFuel bool            `json:"can_complete_with_current_fuel"`
	RecommendedRefuelStops     int             `json:"recommended_refuel_stops"`
	Factors                    FactorBreakdown `json:"factors"`
}

// Consumption multiplier constants.
const (
	loadImpactMax      = 0.15 // full load adds 15%
	climateControlCost = 0.04
	auxEquipmentCost   = 0.03
	refuelUsableShare  = 0.8 // usable tank fraction per refuel stop
)

// FuelConsumption computes the route's consumption for the vehicle,
// creating a default profile when the vehicle is unknown.
func (o *Optimizer) FuelConsumption(vehicleID string, req model.RouteRequest) FuelEstimate {
	o.mu.Lock()
	p := *o.getOrCreateLocked(vehicleID)
	o.mu.Unlock()
	return fuelConsumption(p, req)
}

func fuelConsumption(p Profile, req model.RouteRequest) FuelEstimate {
	hw := highwayShare(req.DistanceKm)
	base := p.EffectiveConsumption(hw)

	load := 1.0
	if p.Spec.MaxLoadKg > 0 {
		load += loadImpactMax * model.Clamp(p.State.CurrentLoadKg/p.Spec.MaxLoadKg, 0, 1)
	}
	maint := p.State.Maintenance.ConsumptionFactor()
	seasonal := seasonalFactor(p.Spec, req.RequestedAt)
	special := 1.0
	if p.State.ClimateControl {
		special += climateControlCost
	}
	if p.State.AuxEquipment {
		special += auxEquipmentCost
	}

	per100 := base * load * maint * seasonal * special
	needed := req.DistanceKm / 100 * per100
	available := p.State.FuelLevel * p.Spec.TankCapacityL

	est := FuelEstimate{
		Per100Km:                   per100,
		FuelNeededL:                needed,
		CanCompleteWithCurrentFuel: available >= needed,
		Factors: FactorBreakdown{
			BasePer100Km: base,
			Load:         load,
			Maintenance:  maint,
			Seasonal:     seasonal,
			Special:      special,
		},
	}
	if !est.CanCompleteWithCurrentFuel && p.Spec.TankCapacityL > 0 {
		shortfall := needed - available
		est.RecommendedRefuelStops = int(math.Ceil(shortfall / (p.Spec.TankCapacityL * refuelUsableShare)))
	}
	return est
}

// highwayShare estimates how much of a route is highway driving from
// its length alone.
func highwayShare(distanceKm float64) float64 {
	return model.Clamp(distanceKm/500, 0.1, 0.85)
}

func seasonalFactor(spec Spec, at time.Time) float64 {
	if at.IsZero() {
		at = time.Now()
	}
	switch model.SeasonOf(at) {
	case model.SeasonWinter:
		return 1 + spec.WinterPenalty
	case model.SeasonSummer:
		return 1 + spec.SummerPenalty
	default:
		return 1
	}
}
