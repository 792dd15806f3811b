package driver

import (
	"testing"
	"time"

	"github.com/kilianp07/routeopt/core/model"
	"github.com/kilianp07/routeopt/infra/logger"
)

func request(km float64) model.RouteRequest {
	return model.RouteRequest{DistanceKm: km, RequestedAt: time.Now()}
}

func goodOutcome(km float64) model.ActualResult {
	return model.ActualResult{
		ActualKm:       km,
		ActualDuration: 3 * time.Hour,
		SavingsPct:     0.15,
		FuelLiters:     km / 100 * 7.0, // better than the fleet average
		RouteAdherence: 0.95,
		OnTime:         true,
		Satisfaction:   0.9,
	}
}

func TestGetOrCreate_NeutralDefaults(t *testing.T) {
	s := NewStore(Config{}, nil, logger.NopLogger{})
	p := s.GetOrCreate("d1")
	if p.DriverID != "d1" {
		t.Fatalf("wrong id %s", p.DriverID)
	}
	if p.Behavior.SpeedDeviation != 1.0 || p.Behavior.FuelEfficiency != 1.0 {
		t.Fatalf("defaults not neutral: %+v", p.Behavior)
	}
	if p.Weights.Time != 0.25 || p.Weights.Safety != 0.25 {
		t.Fatalf("weights not neutral: %+v", p.Weights)
	}
	if p.RouteCount != 0 || p.Completeness != 0 {
		t.Fatalf("fresh profile should carry no learning: %+v", p)
	}
	if s.Count() != 1 {
		t.Fatalf("profile not stored")
	}
}

func TestApplyOutcome_MovesBehavior(t *testing.T) {
	s := NewStore(Config{}, nil, logger.NopLogger{})
	before := s.GetOrCreate("d1")
	after := s.ApplyOutcome("d1", request(300), goodOutcome(300))
	if after.RouteCount != 1 {
		t.Fatalf("route count not incremented")
	}
	if after.Behavior.FuelEfficiency <= before.Behavior.FuelEfficiency {
		t.Fatalf("efficient outcome should raise fuel efficiency: %v -> %v",
			before.Behavior.FuelEfficiency, after.Behavior.FuelEfficiency)
	}
	if after.Behavior.RouteAdherence <= before.Behavior.RouteAdherence {
		t.Fatalf("adherent outcome should raise adherence")
	}
	if after.Behavior.Punctuality <= before.Behavior.Punctuality {
		t.Fatalf("on-time outcome should raise punctuality")
	}
}

func TestApplyOutcome_SmallSteps(t *testing.T) {
	s := NewStore(Config{LearningRate: 0.08}, nil, logger.NopLogger{})
	out := goodOutcome(300)
	out.FuelLiters = 300 / 100.0 * 20 // terrible consumption
	after := s.ApplyOutcome("d1", request(300), out)
	// One bad route moves the ratio by at most the learning rate step.
	if after.Behavior.FuelEfficiency < 0.9 {
		t.Fatalf("single outcome moved profile too far: %v", after.Behavior.FuelEfficiency)
	}
}

func TestApplyOutcome_PreferenceGatedOnSatisfaction(t *testing.T) {
	s := NewStore(Config{}, nil, logger.NopLogger{})
	bad := goodOutcome(300)
	bad.Satisfaction = 0.2
	p := s.ApplyOutcome("d1", request(300), bad)
	if p.RoutePreference[RouteLongHaul] != 0 {
		t.Fatalf("unsatisfied outcome must not move preferences")
	}
	p = s.ApplyOutcome("d1", request(300), goodOutcome(300))
	if p.RoutePreference[RouteLongHaul] <= 0 {
		t.Fatalf("satisfied outcome should move preferences")
	}
}

func TestCompleteness_Monotone(t *testing.T) {
	s := NewStore(Config{}, nil, logger.NopLogger{})
	prev := 0.0
	for i := 0; i < 30; i++ {
		p := s.ApplyOutcome("d1", request(100+float64(i)), goodOutcome(100))
		if p.Completeness < prev {
			t.Fatalf("completeness decreased at route %d: %v -> %v", i, prev, p.Completeness)
		}
		if p.Completeness > 1 || p.Confidence > 1 {
			t.Fatalf("scores must stay in [0,1]: %+v", p)
		}
		prev = p.Completeness
	}
	if prev < 1 {
		t.Fatalf("completeness should saturate after enough routes, got %v", prev)
	}
}

func TestPersonalize_PassThroughWithoutProfile(t *testing.T) {
	s := NewStore(Config{}, nil, logger.NopLogger{})
	base := model.OptimizationResult{OptimizationFactor: 0.12, Confidence: 0.5}
	out, adj := s.Personalize("ghost", request(300), base)
	if adj != nil {
		t.Fatalf("missing profile must be a no-op, got %+v", adj)
	}
	if out.OptimizationFactor != base.OptimizationFactor || out.PersonalizedForDriver != "" {
		t.Fatalf("pass-through altered the result: %+v", out)
	}
}

func TestPersonalize_EfficientDriverBoost(t *testing.T) {
	s := NewStore(Config{}, nil, logger.NopLogger{})
	for i := 0; i < 25; i++ {
		out := goodOutcome(300)
		out.FuelLiters = 300 / 100.0 * 6.0
		s.ApplyOutcome("d1", request(300), out)
	}
	base := model.OptimizationResult{OptimizationFactor: 0.12, Confidence: 0.5}
	out, adj := s.Personalize("d1", request(300), base)
	if adj == nil {
		t.Fatalf("expected an adjustment")
	}
	if out.OptimizationFactor <= base.OptimizationFactor {
		t.Fatalf("fuel-efficient driver should get a boost: %v", out.OptimizationFactor)
	}
	if out.OptimizationFactor > model.MaxOptimizationFactor {
		t.Fatalf("factor escaped global bounds: %v", out.OptimizationFactor)
	}
	if out.PersonalizedForDriver != "d1" {
		t.Fatalf("provenance flag not set")
	}
}

func TestPersonalize_LowAdherenceCut(t *testing.T) {
	s := NewStore(Config{LearningRate: 0.5}, nil, logger.NopLogger{})
	for i := 0; i < 10; i++ {
		out := goodOutcome(300)
		out.RouteAdherence = 0.2
		out.Satisfaction = 0
		s.ApplyOutcome("d1", request(300), out)
	}
	base := model.OptimizationResult{OptimizationFactor: 0.20, Confidence: 0.5}
	out, adj := s.Personalize("d1", request(300), base)
	if out.OptimizationFactor >= base.OptimizationFactor {
		t.Fatalf("low adherence should cut the factor: %v", out.OptimizationFactor)
	}
	found := false
	for _, r := range adj.Recommendations {
		if r == "follow the recommended route more closely" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected adherence recommendation, got %v", adj.Recommendations)
	}
	if len(adj.Recommendations) > 3 {
		t.Fatalf("at most 3 recommendations, got %d", len(adj.Recommendations))
	}
}

func TestRisk_Classification(t *testing.T) {
	p := Profile{Behavior: Behavior{SpeedDeviation: 1.3, RouteAdherence: 0.9, Punctuality: 0.9}}
	if p.risk() != RiskHigh {
		t.Fatalf("fast driver should be high risk")
	}
	p = Profile{Behavior: Behavior{SpeedDeviation: 1.0, RouteAdherence: 0.9, Punctuality: 0.9}}
	if p.risk() != RiskLow {
		t.Fatalf("punctual adherent driver should be low risk")
	}
	p = Profile{Behavior: Behavior{SpeedDeviation: 1.0, RouteAdherence: 0.75, Punctuality: 0.75}}
	if p.risk() != RiskModerate {
		t.Fatalf("middle profile should be moderate risk")
	}
}

func TestFocus_Derivation(t *testing.T) {
	p := Profile{Weights: Weights{Time: 0.4, Cost: 0.2, Comfort: 0.2, Safety: 0.2}}
	if p.focus() != FocusTime {
		t.Fatalf("time-weighted profile should focus on time, got %s", p.focus())
	}
	p = Profile{Weights: Weights{Time: 0.25, Cost: 0.25, Comfort: 0.25, Safety: 0.25}}
	if p.focus() != FocusBalanced {
		t.Fatalf("even weights should be balanced, got %s", p.focus())
	}
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	s := NewStore(Config{}, nil, logger.NopLogger{})
	s.ApplyOutcome("d1", request(300), goodOutcome(300))
	s.ApplyOutcome("d2", request(80), goodOutcome(80))
	snap := s.Snapshot()

	restored := NewStore(Config{}, nil, logger.NopLogger{})
	restored.Restore(snap)
	if restored.Count() != 2 {
		t.Fatalf("restore lost profiles: %d", restored.Count())
	}
	p, ok := restored.Get("d1")
	if !ok || p.RouteCount != 1 {
		t.Fatalf("restored profile wrong: %+v", p)
	}
}
