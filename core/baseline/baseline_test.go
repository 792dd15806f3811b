package baseline

import (
	"testing"
	"time"

	"github.com/kilianp07/routeopt/core/model"
)

func TestEstimate_Bounds(t *testing.T) {
	e := NewSeeded(Config{}, 1)
	for _, km := range []float64{1, 50, 450, 1200, 5000} {
		res, err := e.Estimate(model.RouteRequest{DistanceKm: km})
		if err != nil {
			t.Fatalf("estimate %v: %v", km, err)
		}
		if res.OptimizationFactor < minFactor || res.OptimizationFactor > maxFactor {
			t.Fatalf("factor %v out of stage bounds for %v km", res.OptimizationFactor, km)
		}
		if res.OptimizedKm >= km {
			t.Fatalf("optimized distance %v not below requested %v", res.OptimizedKm, km)
		}
	}
}

func TestEstimate_InvalidDistance(t *testing.T) {
	e := NewSeeded(Config{}, 1)
	if _, err := e.Estimate(model.RouteRequest{DistanceKm: 0}); err == nil {
		t.Fatalf("expected error for zero distance")
	}
	if _, err := e.Estimate(model.RouteRequest{DistanceKm: -10}); err == nil {
		t.Fatalf("expected error for negative distance")
	}
}

func TestEstimate_SavingsConsistent(t *testing.T) {
	e := NewSeeded(Config{}, 42)
	res, err := e.Estimate(model.RouteRequest{DistanceKm: 450})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if got := res.Savings.DistanceKm + res.OptimizedKm; got < 449.99 || got > 450.01 {
		t.Fatalf("savings and optimized distance do not add up: %v", got)
	}
	if res.Savings.FuelLiters <= 0 || res.Savings.CostEUR <= 0 {
		t.Fatalf("expected positive fuel and cost savings: %+v", res.Savings)
	}
	if res.ModelVersion != model.ModelVersion {
		t.Fatalf("missing model version")
	}
}

func TestEstimate_Deterministic(t *testing.T) {
	a := NewSeeded(Config{}, 7)
	b := NewSeeded(Config{}, 7)
	ra, _ := a.Estimate(model.RouteRequest{DistanceKm: 320})
	rb, _ := b.Estimate(model.RouteRequest{DistanceKm: 320})
	if ra.OptimizationFactor != rb.OptimizationFactor {
		t.Fatalf("same seed produced different factors: %v vs %v", ra.OptimizationFactor, rb.OptimizationFactor)
	}
}

func TestEstimateDuration(t *testing.T) {
	if EstimateDuration(0) != 0 {
		t.Fatalf("zero distance should take no time")
	}
	short := EstimateDuration(50)
	long := EstimateDuration(500)
	if long <= short {
		t.Fatalf("longer route should take longer: %v vs %v", short, long)
	}
	// 500 km at the blended pace lands well under 10 hours.
	if long > 10*time.Hour {
		t.Fatalf("implausible duration %v", long)
	}
}
