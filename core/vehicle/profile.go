package vehicle

import (
	"time"
)

// Type of vehicle, selecting the type-specific refinement.
type Type string

const (
	TypeStandard   Type = "standard"
	TypeElectric   Type = "electric"
	TypeTruck      Type = "truck"
	TypeMotorcycle Type = "motorcycle"
)

// MaintenanceStatus of a vehicle. Ordered from best to worst.
type MaintenanceStatus string

const (
	MaintenanceExcellent    MaintenanceStatus = "excellent"
	MaintenanceGood         MaintenanceStatus = "good"
	MaintenanceFair         MaintenanceStatus = "fair"
	MaintenanceNeedsService MaintenanceStatus = "needs_service"
	MaintenanceCritical     MaintenanceStatus = "critical"
)

// ConsumptionFactor returns the consumption multiplier for the status.
func (m MaintenanceStatus) ConsumptionFactor() float64 {
	switch m {
	case MaintenanceExcellent:
		return 0.95
	case MaintenanceFair:
		return 1.05
	case MaintenanceNeedsService:
		return 1.10
	case MaintenanceCritical:
		return 1.20
	default:
		return 1.0
	}
}

// Spec is the static technical specification of a vehicle. Consumption
// figures are liters per 100 km, or kWh per 100 km for electric types.
type Spec struct {
	Type            Type    `json:"type"`
	CityPer100Km    float64 `json:"city_per_100km"`
	HighwayPer100Km float64 `json:"highway_per_100km"`
	TankCapacityL   float64 `json:"tank_capacity_l"` // battery kWh for electric
	MaxLoadKg       float64 `json:"max_load_kg"`
	CurbWeightKg    float64 `json:"curb_weight_kg"`
	HeightM         float64 `json:"height_m"`
	MaxSpeedKmh     float64 `json:"max_speed_kmh"`
	// Seasonal consumption increases, as fractions.
	WinterPenalty float64 `json:"winter_penalty"`
	SummerPenalty float64 `json:"summer_penalty"`
}

// State is the dynamic part of a vehicle profile.
type State struct {
	FuelLevel      float64           `json:"fuel_level"` // fraction of tank [0,1]
	CurrentLoadKg  float64           `json:"current_load_kg"`
	Maintenance    MaintenanceStatus `json:"maintenance"`
	ClimateControl bool              `json:"climate_control"`
	AuxEquipment   bool              `json:"aux_equipment"`
}

// Restrictions are the legal and physical route constraints.
type Restrictions struct {
	MaxDrivingTime time.Duration `json:"max_driving_time"`
	BridgeLimitKg  float64       `json:"bridge_limit_kg"`  // 0 means unrestricted
	TunnelHeightM  float64       `json:"tunnel_height_m"`  // 0 means unrestricted
	SpeedCapKmh    float64       `json:"speed_cap_kmh"`    // 0 means unrestricted
}

// Consumption tracks the learned real-world fuel figure.
type Consumption struct {
	Per100Km float64 `json:"per_100km"`
	Samples  int     `json:"samples"`
}

// Profile is the per-vehicle mutable aggregate.
type Profile struct {
	VehicleID    string       `json:"vehicle_id"`
	Spec         Spec         `json:"spec"`
	State        State        `json:"state"`
	Restrictions Restrictions `json:"restrictions"`
	RealWorld    Consumption  `json:"real_world"`
	// OptimizationPotential scores how much headroom the vehicle has,
	// in [0,1].
	OptimizationPotential float64   `json:"optimization_potential"`
	RouteCount            int       `json:"route_count"`
	LastUpdated           time.Time `json:"last_updated"`
}

func defaultProfile(id string, now time.Time) *Profile {
	return &Profile{
		VehicleID: id,
		Spec: Spec{
			Type:            TypeStandard,
			CityPer100Km:    9.5,
			HighwayPer100Km: 7.0,
			TankCapacityL:   60,
			MaxLoadKg:       500,
			CurbWeightKg:    1600,
			HeightM:         1.6,
			MaxSpeedKmh:     180,
			WinterPenalty:   0.12,
			SummerPenalty:   0.05,
		},
		State: State{
			FuelLevel:   0.8,
			Maintenance: MaintenanceGood,
		},
		Restrictions: Restrictions{
			MaxDrivingTime: 9 * time.Hour,
		},
		OptimizationPotential: 0.5,
		LastUpdated:           now,
	}
}

// EffectiveConsumption returns the manufacturer mix or, once enough
// performance samples exist, the learned real-world figure.
func (p Profile) EffectiveConsumption(highwayShare float64) float64 {
	if p.RealWorld.Samples >= realWorldMinSamples {
		return p.RealWorld.Per100Km
	}
	return p.Spec.CityPer100Km*(1-highwayShare) + p.Spec.HighwayPer100Km*highwayShare
}

const realWorldMinSamples = 3
