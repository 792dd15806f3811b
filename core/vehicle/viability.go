package vehicle

import (
	"fmt"
	"time"

	"github.com/kilianp07/routeopt/core/baseline"
	"github.com/kilianp07/routeopt/core/model"
)

const minuteRes = time.Minute

// Viability is the pass/fail evaluation of whether a vehicle can
// legally and physically complete a route.
type Viability struct {
	CanComplete bool     `json:"can_complete"`
	Score       float64  `json:"score"`
	Violations  []string `json:"violations,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

const (
	violationPenalty = 0.35
	fuelShortPenalty = 0.15
)

// CheckViability evaluates the vehicle's restrictions against the
// route. Restriction fields left at zero are unrestricted.
func (o *Optimizer) CheckViability(vehicleID string, req model.RouteRequest) Viability {
	o.mu.Lock()
	p := *o.getOrCreateLocked(vehicleID)
	o.mu.Unlock()
	return checkViability(p, req)
}

func checkViability(p Profile, req model.RouteRequest) Viability {
	v := Viability{CanComplete: true, Score: 1.0}

	if p.Restrictions.MaxDrivingTime > 0 {
		if est := baseline.EstimateDuration(req.DistanceKm); est > p.Restrictions.MaxDrivingTime {
			v.fail(fmt.Sprintf("estimated driving time %s exceeds the legal maximum %s", est.Round(minuteRes), p.Restrictions.MaxDrivingTime),
				"split the route across two driving shifts")
		}
	}
	if p.Restrictions.BridgeLimitKg > 0 {
		total := p.Spec.CurbWeightKg + p.State.CurrentLoadKg
		if total > p.Restrictions.BridgeLimitKg {
			v.fail(fmt.Sprintf("gross weight %.0f kg exceeds the bridge limit %.0f kg", total, p.Restrictions.BridgeLimitKg),
				"reduce the load or plan a routing without restricted bridges")
		}
	}
	if p.Restrictions.TunnelHeightM > 0 && p.Spec.HeightM > p.Restrictions.TunnelHeightM {
		v.fail(fmt.Sprintf("vehicle height %.2f m exceeds the tunnel clearance %.2f m", p.Spec.HeightM, p.Restrictions.TunnelHeightM),
			"plan a tunnel-free routing")
	}

	// A fuel shortfall is not a hard failure, the route just needs a
	// stop on the way.
	if est := fuelConsumption(p, req); !est.CanCompleteWithCurrentFuel {
		v.Score -= fuelShortPenalty
		v.Suggestions = append(v.Suggestions,
			fmt.Sprintf("schedule %d refuel stop(s) on the way", est.RecommendedRefuelStops))
	}

	v.Score = model.Clamp(v.Score, 0, 1)
	return v
}

func (v *Viability) fail(violation, suggestion string) {
	v.CanComplete = false
	v.Score -= violationPenalty
	v.Violations = append(v.Violations, violation)
	v.Suggestions = append(v.Suggestions, suggestion)
}
