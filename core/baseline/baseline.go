// Package baseline implements the heuristic optimization estimate used
// when no learned signal is available. It is a pure function of the
// route distance plus a bounded jitter term.
package baseline

import (
	"math/rand"
	"sync"
	"time"

	"github.com/kilianp07/routeopt/core/model"
)

// Stage bounds: the baseline alone never claims more than 25% savings.
// Later stages may push the blended factor up to the global maximum.
const (
	minFactor = model.MinOptimizationFactor
	maxFactor = 0.25
)

// Config defines the estimator coefficients.
type Config struct {
	// BaseFactor is the optimization fraction every route starts from.
	BaseFactor float64 `json:"base_factor"`
	// DistanceCoef scales the distance term, applied to min(km/1000, 1).
	DistanceCoef float64 `json:"distance_coef"`
	// JitterSpan bounds the random term to [-JitterSpan/2, +JitterSpan/2].
	JitterSpan float64 `json:"jitter_span"`
	// Confidence is the fixed confidence of a bare baseline estimate.
	Confidence float64 `json:"confidence"`
	// FuelPer100Km is the fleet-average consumption used before a
	// vehicle profile refines it.
	FuelPer100Km float64 `json:"fuel_per_100km"`
	// FuelPriceEUR is the default fuel price per liter.
	FuelPriceEUR float64 `json:"fuel_price_eur"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.BaseFactor == 0 {
		c.BaseFactor = 0.08
	}
	if c.DistanceCoef == 0 {
		c.DistanceCoef = 0.10
	}
	if c.JitterSpan == 0 {
		c.JitterSpan = 0.04
	}
	if c.Confidence == 0 {
		c.Confidence = 0.5
	}
	if c.FuelPer100Km == 0 {
		c.FuelPer100Km = 8.5
	}
	if c.FuelPriceEUR == 0 {
		c.FuelPriceEUR = 1.80
	}
}

// Estimator produces baseline estimates. The random source is owned so
// tests can seed it for reproducible output.
type Estimator struct {
	cfg Config

	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns an Estimator with defaulted config and a time-seeded
// random source.
func New(cfg Config) *Estimator {
	cfg.SetDefaults()
	return &Estimator{cfg: cfg, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeeded returns an Estimator with a fixed seed.
func NewSeeded(cfg Config, seed int64) *Estimator {
	cfg.SetDefaults()
	return &Estimator{cfg: cfg, rnd: rand.New(rand.NewSource(seed))}
}

// Estimate computes the heuristic optimization for a request. The only
// failure mode is a non-positive distance.
func (e *Estimator) Estimate(req model.RouteRequest) (model.OptimizationResult, error) {
	if err := req.Validate(); err != nil {
		return model.OptimizationResult{}, err
	}

	distTerm := req.DistanceKm / 1000
	if distTerm > 1 {
		distTerm = 1
	}
	factor := e.cfg.BaseFactor + distTerm*e.cfg.DistanceCoef + e.jitter()
	factor = model.Clamp(factor, minFactor, maxFactor)

	optimizedKm := req.DistanceKm * (1 - factor)
	duration := EstimateDuration(optimizedKm)
	savedKm := req.DistanceKm - optimizedKm
	fuelSaved := savedKm / 100 * e.cfg.FuelPer100Km
	price := req.FuelPriceEUR
	if price <= 0 {
		price = e.cfg.FuelPriceEUR
	}

	return model.OptimizationResult{
		OptimizationFactor: factor,
		Confidence:         e.cfg.Confidence,
		OptimizedKm:        optimizedKm,
		EstimatedDuration:  duration,
		Savings: model.SavingsBreakdown{
			DistanceKm: savedKm,
			Duration:   time.Duration(factor * float64(EstimateDuration(req.DistanceKm))),
			FuelLiters: fuelSaved,
			CostEUR:    fuelSaved * price,
		},
		ModelVersion: model.ModelVersion,
	}, nil
}

func (e *Estimator) jitter() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return (e.rnd.Float64() - 0.5) * e.cfg.JitterSpan
}

// EstimateDuration converts a distance into an expected driving time.
// Average speed ramps from urban pace towards highway pace as routes
// get longer.
func EstimateDuration(distanceKm float64) time.Duration {
	if distanceKm <= 0 {
		return 0
	}
	frac := distanceKm / 500
	if frac > 1 {
		frac = 1
	}
	speed := 55 + 30*frac // km/h
	return time.Duration(distanceKm / speed * float64(time.Hour))
}
