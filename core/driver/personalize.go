package driver

import "github.com/kilianp07/routeopt/core/model"

// Personalization multipliers. Small on purpose: a profile nudges the
// prediction, it never dominates it.
const (
	efficientBoost     = 1.10
	lowAdherenceCut    = 0.90
	focusMargin        = 0.05
	maxRecommendations = 3
)

// Personalize applies the driver's profile to a base result. When no
// profile exists for the id the base result is returned unchanged and
// the adjustment is nil; a missing profile is not an error.
func (s *Store) Personalize(driverID string, req model.RouteRequest, base model.OptimizationResult) (model.OptimizationResult, *Adjustment) {
	s.mu.Lock()
	p, ok := s.profiles[driverID]
	if !ok {
		s.mu.Unlock()
		return base, nil
	}
	profile := p.clone()
	s.mu.Unlock()

	factor := base.OptimizationFactor
	if profile.Behavior.FuelEfficiency >= 1.1 {
		factor *= efficientBoost
	}
	if profile.Behavior.RouteAdherence < 0.7 {
		factor *= lowAdherenceCut
	}
	factor = model.ClampFactor(factor)

	confidence := model.ClampConfidence(base.Confidence * (0.5 + 0.5*profile.Confidence))

	adj := &Adjustment{
		OptimizationFactor: factor,
		Confidence:         confidence,
		Risk:               profile.risk(),
		Focus:              profile.focus(),
		Recommendations:    profile.recommendations(),
	}

	out := base
	out.OptimizationFactor = factor
	out.Confidence = confidence
	out.OptimizedKm = req.DistanceKm * (1 - factor)
	out.Savings.DistanceKm = req.DistanceKm - out.OptimizedKm
	out.PersonalizedForDriver = driverID
	out.Recommendations = adj.Recommendations
	return out, adj
}

// focus derives the dominant optimization focus from the weights. A
// weight must lead the runner-up by a margin or the focus stays balanced.
func (p Profile) focus() FocusArea {
	type cand struct {
		area FocusArea
		v    float64
	}
	cands := []cand{
		{FocusTime, p.Weights.Time},
		{FocusCost, p.Weights.Cost},
		{FocusComfort, p.Weights.Comfort},
	}
	best, second := cands[0], cand{}
	for _, c := range cands[1:] {
		if c.v > best.v {
			second = best
			best = c
		} else if c.v > second.v {
			second = c
		}
	}
	if best.v-second.v < focusMargin {
		return FocusBalanced
	}
	return best.area
}

// risk classifies the driver from the behavioral fields.
func (p Profile) risk() RiskLevel {
	b := p.Behavior
	if b.SpeedDeviation > 1.15 || b.RouteAdherence < 0.6 {
		return RiskHigh
	}
	if b.Punctuality > 0.85 && b.RouteAdherence > 0.85 {
		return RiskLow
	}
	return RiskModerate
}

// recommendations emits up to three prioritized coaching hints from
// simple threshold rules on the profile fields.
func (p Profile) recommendations() []string {
	var recs []string
	if p.Behavior.FuelEfficiency < 0.9 {
		recs = append(recs, "maintain a steadier speed to reduce fuel use")
	}
	if p.Behavior.RouteAdherence < 0.7 {
		recs = append(recs, "follow the recommended route more closely")
	}
	if p.Behavior.Punctuality < 0.7 {
		recs = append(recs, "plan an earlier departure to improve punctuality")
	}
	if p.Behavior.SpeedDeviation > 1.15 {
		recs = append(recs, "reduce cruising speed on open stretches")
	}
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}
