// Package vehicle keeps per-vehicle technical profiles and computes the
// vehicle-specific parts of a prediction: precise fuel consumption,
// route viability, operating cost and maintenance warnings.
package vehicle

import (
	"sync"

	"github.com/kilianp07/routeopt/core/clock"
	"github.com/kilianp07/routeopt/core/logger"
	"github.com/kilianp07/routeopt/core/model"
)

// Config defines the optimizer parameters.
type Config struct {
	// FuelPriceEUR is the default price per liter when the request
	// carries no hint.
	FuelPriceEUR float64 `json:"fuel_price_eur"`
	// ConsumptionAlpha is the EMA step of the real-world consumption.
	ConsumptionAlpha float64 `json:"consumption_alpha"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.FuelPriceEUR == 0 {
		c.FuelPriceEUR = 1.80
	}
	if c.ConsumptionAlpha == 0 {
		c.ConsumptionAlpha = 0.3
	}
}

// Optimizer owns the vehicle profiles. Safe for concurrent use.
type Optimizer struct {
	cfg   Config
	clock clock.Clock
	log   logger.Logger

	mu       sync.Mutex
	profiles map[string]*Profile
}

// NewOptimizer returns an empty profile store.
func NewOptimizer(cfg Config, clk clock.Clock, log logger.Logger) *Optimizer {
	cfg.SetDefaults()
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Optimizer{cfg: cfg, clock: clk, log: log, profiles: map[string]*Profile{}}
}

// StateUpdate carries the current-state fields to merge. Nil fields are
// left untouched.
type StateUpdate struct {
	FuelLevel      *float64           `json:"fuel_level,omitempty"`
	CurrentLoadKg  *float64           `json:"current_load_kg,omitempty"`
	Maintenance    *MaintenanceStatus `json:"maintenance,omitempty"`
	ClimateControl *bool              `json:"climate_control,omitempty"`
	AuxEquipment   *bool              `json:"aux_equipment,omitempty"`
	Spec           *Spec              `json:"spec,omitempty"`
	Restrictions   *Restrictions      `json:"restrictions,omitempty"`
}

// Performance reports the real-world figures of a completed route.
type Performance struct {
	DistanceKm float64 `json:"distance_km"`
	FuelLiters float64 `json:"fuel_liters"`
}

// GetOrCreate returns a copy of the profile, creating it with default
// specs, state and restrictions when absent.
func (o *Optimizer) GetOrCreate(vehicleID string) Profile {
	o.mu.Lock()
	defer o.mu.Unlock()
	return *o.getOrCreateLocked(vehicleID)
}

func (o *Optimizer) getOrCreateLocked(vehicleID string) *Profile {
	p, ok := o.profiles[vehicleID]
	if !ok {
		p = defaultProfile(vehicleID, o.clock.Now())
		o.profiles[vehicleID] = p
	}
	return p
}

// Get returns a copy of the profile if it exists.
func (o *Optimizer) Get(vehicleID string) (Profile, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.profiles[vehicleID]
	if !ok {
		return Profile{}, false
	}
	return *p, true
}

// Count returns the number of known vehicles.
func (o *Optimizer) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.profiles)
}

// Update merges the supplied state fields and, when performance data is
// present, folds it into the real-world consumption statistic.
func (o *Optimizer) Update(vehicleID string, upd StateUpdate, perf *Performance) Profile {
	o.mu.Lock()
	defer o.mu.Unlock()

	p := o.getOrCreateLocked(vehicleID)
	if upd.FuelLevel != nil {
		p.State.FuelLevel = model.Clamp(*upd.FuelLevel, 0, 1)
	}
	if upd.CurrentLoadKg != nil {
		p.State.CurrentLoadKg = *upd.CurrentLoadKg
	}
	if upd.Maintenance != nil {
		p.State.Maintenance = *upd.Maintenance
	}
	if upd.ClimateControl != nil {
		p.State.ClimateControl = *upd.ClimateControl
	}
	if upd.AuxEquipment != nil {
		p.State.AuxEquipment = *upd.AuxEquipment
	}
	if upd.Spec != nil {
		p.Spec = *upd.Spec
	}
	if upd.Restrictions != nil {
		p.Restrictions = *upd.Restrictions
	}

	if perf != nil && perf.DistanceKm > 0 && perf.FuelLiters > 0 {
		observed := perf.FuelLiters / perf.DistanceKm * 100
		if p.RealWorld.Samples == 0 {
			p.RealWorld.Per100Km = observed
		} else {
			a := o.cfg.ConsumptionAlpha
			p.RealWorld.Per100Km = a*observed + (1-a)*p.RealWorld.Per100Km
		}
		p.RealWorld.Samples++
		p.RouteCount++
	}

	o.recomputePotentialLocked(p)
	p.LastUpdated = o.clock.Now()
	if o.log != nil {
		o.log.Debugw("vehicle profile updated", map[string]any{
			"vehicle_id": vehicleID,
			"samples":    p.RealWorld.Samples,
			"per_100km":  p.RealWorld.Per100Km,
		})
	}
	return *p
}

// recomputePotentialLocked scores the optimization headroom: a well
// maintained vehicle beating its spec consumption has the most to give.
func (o *Optimizer) recomputePotentialLocked(p *Profile) {
	score := 0.5
	switch p.State.Maintenance {
	case MaintenanceExcellent:
		score += 0.2
	case MaintenanceGood:
		score += 0.1
	case MaintenanceNeedsService:
		score -= 0.15
	case MaintenanceCritical:
		score -= 0.3
	}
	if p.RealWorld.Samples >= realWorldMinSamples {
		specMix := p.Spec.CityPer100Km*0.5 + p.Spec.HighwayPer100Km*0.5
		if specMix > 0 && p.RealWorld.Per100Km < specMix {
			score += 0.15
		}
	}
	p.OptimizationPotential = model.Clamp(score, 0, 1)
}

// Snapshot copies all profiles for persistence.
func (o *Optimizer) Snapshot() map[string]Profile {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]Profile, len(o.profiles))
	for id, p := range o.profiles {
		out[id] = *p
	}
	return out
}

// Restore replaces the profile map. Used at startup.
func (o *Optimizer) Restore(profiles map[string]Profile) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.profiles = make(map[string]*Profile, len(profiles))
	for id, p := range profiles {
		cp := p
		cp.VehicleID = id
		o.profiles[id] = &cp
	}
}

func (o *Optimizer) fuelPrice(req model.RouteRequest) float64 {
	if req.FuelPriceEUR > 0 {
		return req.FuelPriceEUR
	}
	return o.cfg.FuelPriceEUR
}
