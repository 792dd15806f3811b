// Package driver keeps per-driver behavioral profiles and turns them
// into small, clamped adjustments of a base prediction. Updates are
// small-step exponential moving averages so one odd route never swings
// a profile.
package driver

import (
	"sync"

	"github.com/kilianp07/routeopt/core/baseline"
	"github.com/kilianp07/routeopt/core/clock"
	"github.com/kilianp07/routeopt/core/logger"
	"github.com/kilianp07/routeopt/core/model"
)

// Config defines the update rule parameters.
type Config struct {
	// LearningRate is the EMA step of behavioral updates.
	LearningRate float64 `json:"learning_rate"`
	// SatisfactionThreshold gates preference updates.
	SatisfactionThreshold float64 `json:"satisfaction_threshold"`
	// RoutesForFullCompleteness is the route count at which the
	// completeness base term saturates.
	RoutesForFullCompleteness int `json:"routes_for_full_completeness"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.LearningRate == 0 {
		c.LearningRate = 0.08
	}
	if c.SatisfactionThreshold == 0 {
		c.SatisfactionThreshold = 0.7
	}
	if c.RoutesForFullCompleteness == 0 {
		c.RoutesForFullCompleteness = 20
	}
}

// Store owns the driver profiles. Safe for concurrent use.
type Store struct {
	cfg   Config
	clock clock.Clock
	log   logger.Logger

	mu       sync.Mutex
	profiles map[string]*Profile
}

// NewStore returns an empty profile store.
func NewStore(cfg Config, clk clock.Clock, log logger.Logger) *Store {
	cfg.SetDefaults()
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Store{cfg: cfg, clock: clk, log: log, profiles: map[string]*Profile{}}
}

// GetOrCreate returns a copy of the profile, lazily creating it with
// neutral defaults on first reference.
func (s *Store) GetOrCreate(driverID string) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(driverID).clone()
}

func (s *Store) getOrCreateLocked(driverID string) *Profile {
	p, ok := s.profiles[driverID]
	if !ok {
		p = newProfile(driverID, s.clock.Now())
		s.profiles[driverID] = p
	}
	return p
}

// Get returns a copy of the profile if it exists.
func (s *Store) Get(driverID string) (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[driverID]
	if !ok {
		return Profile{}, false
	}
	return p.clone(), true
}

// Count returns the number of known drivers.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}

// ApplyOutcome moves the driver's behavioral fields toward the values
// implied by the completed route.
func (s *Store) ApplyOutcome(driverID string, req model.RouteRequest, actual model.ActualResult) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getOrCreateLocked(driverID)
	rate := s.cfg.LearningRate

	if actual.AvgSpeedKmh > 0 {
		if ref := referenceSpeed(req.DistanceKm); ref > 0 {
			p.Behavior.SpeedDeviation = ema(p.Behavior.SpeedDeviation, actual.AvgSpeedKmh/ref, rate)
		}
	}
	if actual.RouteAdherence > 0 {
		p.Behavior.RouteAdherence = ema(p.Behavior.RouteAdherence, model.Clamp(actual.RouteAdherence, 0, 1), rate)
	}
	if actual.FuelLiters > 0 {
		expected := req.DistanceKm / 100 * fleetAvgPer100Km
		p.Behavior.FuelEfficiency = ema(p.Behavior.FuelEfficiency, expected/actual.FuelLiters, rate)
	}
	punctual := 0.0
	if actual.OnTime {
		punctual = 1.0
	}
	p.Behavior.Punctuality = ema(p.Behavior.Punctuality, punctual, rate)

	// Preferences only move on satisfactory outcomes.
	if actual.Satisfaction >= s.cfg.SatisfactionThreshold {
		rt := RouteTypeOf(req)
		p.RoutePreference[rt] = ema(p.RoutePreference[rt], 1.0, 2*rate)
	}

	p.RouteCount++
	if req.Traffic != model.TrafficUnknown {
		p.VarietySeen["traffic:"+string(req.Traffic)] = true
	}
	if req.Weather != model.WeatherUnknown {
		p.VarietySeen["weather:"+string(req.Weather)] = true
	}
	p.VarietySeen["route:"+RouteTypeOf(req)] = true

	s.recomputeConfidenceLocked(p)
	p.LastUpdated = s.clock.Now()
	if s.log != nil {
		s.log.Debugw("driver profile updated", map[string]any{
			"driver_id":    driverID,
			"route_count":  p.RouteCount,
			"completeness": p.Completeness,
		})
	}
	return p.clone()
}

// recomputeConfidenceLocked derives completeness and confidence from
// route count with diminishing returns plus a small variety bonus.
// Both are monotone non-decreasing in route count.
func (s *Store) recomputeConfidenceLocked(p *Profile) {
	base := float64(p.RouteCount) / float64(s.cfg.RoutesForFullCompleteness)
	if base > 1 {
		base = 1
	}
	variety := 0.02 * float64(len(p.VarietySeen))
	completeness := model.Clamp(base+variety, 0, 1)
	if completeness > p.Completeness {
		p.Completeness = completeness
	}
	confidence := model.Clamp(0.8*p.Completeness+0.2*base, 0, 1)
	if confidence > p.Confidence {
		p.Confidence = confidence
	}
}

// Snapshot copies all profiles for persistence.
func (s *Store) Snapshot() map[string]Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Profile, len(s.profiles))
	for id, p := range s.profiles {
		out[id] = p.clone()
	}
	return out
}

// Restore replaces the profile map. Used at startup.
func (s *Store) Restore(profiles map[string]Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = make(map[string]*Profile, len(profiles))
	for id, p := range profiles {
		cp := p.clone()
		if cp.RoutePreference == nil {
			cp.RoutePreference = map[string]float64{}
		}
		if cp.VarietySeen == nil {
			cp.VarietySeen = map[string]bool{}
		}
		cp.DriverID = id
		s.profiles[id] = &cp
	}
}

func ema(current, observed, rate float64) float64 {
	return current + rate*(observed-current)
}

// fleetAvgPer100Km anchors the fuel-efficiency ratio before a vehicle
// profile exists for the route.
const fleetAvgPer100Km = 8.5

func referenceSpeed(distanceKm float64) float64 {
	d := baseline.EstimateDuration(distanceKm)
	if d <= 0 {
		return 0
	}
	return distanceKm / d.Hours()
}
