package vehicle

import (
	"math"
	"testing"
	"time"

	"github.com/kilianp07/routeopt/core/model"
	"github.com/kilianp07/routeopt/infra/logger"
)

func summerRequest(km float64) model.RouteRequest {
	return model.RouteRequest{
		DistanceKm:  km,
		RequestedAt: time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC),
	}
}

func ptr[T any](v T) *T { return &v }

func TestGetOrCreate_Defaults(t *testing.T) {
	o := NewOptimizer(Config{}, nil, logger.NopLogger{})
	p := o.GetOrCreate("v1")
	if p.VehicleID != "v1" || p.Spec.Type != TypeStandard {
		t.Fatalf("default profile wrong: %+v", p)
	}
	if p.State.Maintenance != MaintenanceGood || p.State.FuelLevel != 0.8 {
		t.Fatalf("default state wrong: %+v", p.State)
	}
	if o.Count() != 1 {
		t.Fatalf("profile not stored")
	}
}

func TestUpdate_MergesState(t *testing.T) {
	o := NewOptimizer(Config{}, nil, logger.NopLogger{})
	p := o.Update("v1", StateUpdate{
		FuelLevel:     ptr(0.3),
		CurrentLoadKg: ptr(250.0),
		Maintenance:   ptr(MaintenanceFair),
	}, nil)
	if p.State.FuelLevel != 0.3 || p.State.CurrentLoadKg != 250 || p.State.Maintenance != MaintenanceFair {
		t.Fatalf("state not merged: %+v", p.State)
	}
	// Untouched fields keep their defaults.
	if p.Spec.TankCapacityL != 60 {
		t.Fatalf("spec should be untouched: %+v", p.Spec)
	}
}

func TestUpdate_RealWorldConsumptionEMA(t *testing.T) {
	o := NewOptimizer(Config{ConsumptionAlpha: 0.5}, nil, logger.NopLogger{})
	p := o.Update("v1", StateUpdate{}, &Performance{DistanceKm: 100, FuelLiters: 10})
	if p.RealWorld.Per100Km != 10 || p.RealWorld.Samples != 1 {
		t.Fatalf("first sample should seed the statistic: %+v", p.RealWorld)
	}
	p = o.Update("v1", StateUpdate{}, &Performance{DistanceKm: 100, FuelLiters: 6})
	if p.RealWorld.Per100Km != 8 {
		t.Fatalf("EMA step wrong: %v", p.RealWorld.Per100Km)
	}
	if p.RouteCount != 2 {
		t.Fatalf("route count wrong: %d", p.RouteCount)
	}
}

func TestFuelConsumption_FactorChain(t *testing.T) {
	o := NewOptimizer(Config{}, nil, logger.NopLogger{})
	o.Update("v1", StateUpdate{
		CurrentLoadKg:  ptr(500.0), // full load
		Maintenance:    ptr(MaintenanceCritical),
		ClimateControl: ptr(true),
	}, nil)
	est := o.FuelConsumption("v1", summerRequest(200))
	f := est.Factors
	if f.Load != 1+loadImpactMax {
		t.Fatalf("full load factor = %v", f.Load)
	}
	if f.Maintenance != 1.2 {
		t.Fatalf("critical maintenance factor = %v", f.Maintenance)
	}
	if f.Seasonal <= 1 {
		t.Fatalf("summer factor should increase consumption, got %v", f.Seasonal)
	}
	if f.Special != 1+climateControlCost {
		t.Fatalf("climate factor = %v", f.Special)
	}
	want := f.BasePer100Km * f.Load * f.Maintenance * f.Seasonal * f.Special
	if diff := est.Per100Km - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("per100 %v does not match factor product %v", est.Per100Km, want)
	}
}

func TestFuelConsumption_RefuelStops(t *testing.T) {
	o := NewOptimizer(Config{}, nil, logger.NopLogger{})
	o.Update("v1", StateUpdate{FuelLevel: ptr(0.1)}, nil)
	est := o.FuelConsumption("v1", summerRequest(1200))
	if est.CanCompleteWithCurrentFuel {
		t.Fatalf("1200 km on 10%% tank should need refueling")
	}
	if est.RecommendedRefuelStops < 1 {
		t.Fatalf("expected refuel stops, got %d", est.RecommendedRefuelStops)
	}
}

func TestFuelConsumption_UsesLearnedFigure(t *testing.T) {
	o := NewOptimizer(Config{}, nil, logger.NopLogger{})
	for i := 0; i < 3; i++ {
		o.Update("v1", StateUpdate{}, &Performance{DistanceKm: 100, FuelLiters: 12})
	}
	est := o.FuelConsumption("v1", summerRequest(100))
	if math.Abs(est.Factors.BasePer100Km-12) > 1e-9 {
		t.Fatalf("should use the learned real-world figure, got %v", est.Factors.BasePer100Km)
	}
}

func TestCheckViability_Violations(t *testing.T) {
	o := NewOptimizer(Config{}, nil, logger.NopLogger{})
	o.Update("truck1", StateUpdate{
		Spec: ptr(Spec{
			Type: TypeTruck, CityPer100Km: 32, HighwayPer100Km: 25,
			TankCapacityL: 400, MaxLoadKg: 12000, CurbWeightKg: 9000,
			HeightM: 4.1, MaxSpeedKmh: 90,
		}),
		Restrictions: ptr(Restrictions{
			MaxDrivingTime: 4 * time.Hour,
			BridgeLimitKg:  10000,
			TunnelHeightM:  4.0,
		}),
		CurrentLoadKg: ptr(6000.0),
	}, nil)

	v := o.CheckViability("truck1", summerRequest(800))
	if v.CanComplete {
		t.Fatalf("route should not be viable: %+v", v)
	}
	if len(v.Violations) != 3 {
		t.Fatalf("expected 3 violations (time, weight, height), got %v", v.Violations)
	}
	if len(v.Suggestions) < 3 {
		t.Fatalf("each violation needs a mitigation, got %v", v.Suggestions)
	}
	if v.Score < 0 || v.Score > 1 {
		t.Fatalf("score out of range: %v", v.Score)
	}
}

func TestCheckViability_CleanRoute(t *testing.T) {
	o := NewOptimizer(Config{}, nil, logger.NopLogger{})
	v := o.CheckViability("v1", summerRequest(120))
	if !v.CanComplete || len(v.Violations) != 0 {
		t.Fatalf("default vehicle on a short route should be viable: %+v", v)
	}
	if v.Score != 1 {
		t.Fatalf("clean route should score 1, got %v", v.Score)
	}
}

func TestOperatingCost_Breakdown(t *testing.T) {
	o := NewOptimizer(Config{FuelPriceEUR: 2.0}, nil, logger.NopLogger{})
	est := o.OperatingCost("v1", summerRequest(100))
	sum := est.FuelEUR + est.MaintenanceEUR + est.TiresEUR + est.DepreciationEUR
	if diff := est.TotalEUR - sum; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("total %v does not match breakdown %v", est.TotalEUR, sum)
	}
	if est.PerKm <= 0 {
		t.Fatalf("per-km cost missing")
	}
}

func TestGenerateWarnings_Thresholds(t *testing.T) {
	o := NewOptimizer(Config{}, nil, logger.NopLogger{})
	if ws := o.GenerateWarnings("unknown"); ws != nil {
		t.Fatalf("unknown vehicle has no warnings")
	}
	o.Update("v1", StateUpdate{FuelLevel: ptr(0.1), Maintenance: ptr(MaintenanceCritical)}, nil)
	ws := o.GenerateWarnings("v1")
	if len(ws) != 2 {
		t.Fatalf("expected fuel and maintenance warnings, got %+v", ws)
	}
	if ws[0].Severity != SeverityHigh || ws[0].Code != "fuel_critical" {
		t.Fatalf("fuel warning wrong: %+v", ws[0])
	}
	if ws[1].Severity != SeverityCritical {
		t.Fatalf("maintenance warning wrong: %+v", ws[1])
	}
	o.Update("v1", StateUpdate{FuelLevel: ptr(0.2), Maintenance: ptr(MaintenanceGood)}, nil)
	ws = o.GenerateWarnings("v1")
	if len(ws) != 1 || ws[0].Severity != SeverityMedium {
		t.Fatalf("20%% fuel should be a medium warning: %+v", ws)
	}
}
