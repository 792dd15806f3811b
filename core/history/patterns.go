package history

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/routeopt/core/model"
)

// Time-of-day buckets used by the pattern aggregates.
const (
	BucketNight     = "night"     // 22-05
	BucketMorning   = "morning"   // 06-11
	BucketAfternoon = "afternoon" // 12-17
	BucketEvening   = "evening"   // 18-21
)

// Driver-experience buckets, keyed on the driver's route count when the
// record was taken.
const (
	BucketNovice      = "novice"      // < 10 routes
	BucketExperienced = "experienced" // < 50 routes
	BucketVeteran     = "veteran"
)

// DimensionStats summarizes one pattern bucket.
type DimensionStats struct {
	Routes        int     `json:"routes"`
	MeanSavings   float64 `json:"mean_savings"`
	StdDevSavings float64 `json:"stddev_savings"`
	MeanAccuracy  float64 `json:"mean_accuracy"`
}

// PatternReport holds descriptive per-dimension aggregates. Purely
// informational; nothing in the prediction path depends on it.
type PatternReport struct {
	GeneratedAt      time.Time                       `json:"generated_at"`
	Corpus           int                             `json:"corpus"`
	Season           map[model.Season]DimensionStats `json:"season"`
	TimeOfDay        map[string]DimensionStats       `json:"time_of_day"`
	DriverExperience map[string]DimensionStats       `json:"driver_experience"`
	VehicleType      map[string]DimensionStats       `json:"vehicle_type"`
}

// HourBucket maps an hour of day to its pattern bucket.
func HourBucket(hour int) string {
	switch {
	case hour >= 6 && hour <= 11:
		return BucketMorning
	case hour >= 12 && hour <= 17:
		return BucketAfternoon
	case hour >= 18 && hour <= 21:
		return BucketEvening
	default:
		return BucketNight
	}
}

// ExperienceBucket maps a driver route count to its pattern bucket.
func ExperienceBucket(routes int) string {
	switch {
	case routes < 10:
		return BucketNovice
	case routes < 50:
		return BucketExperienced
	default:
		return BucketVeteran
	}
}

// AnalyzePatterns derives the seasonal, temporal, driver and vehicle
// aggregates from the current corpus. Returns nil below the minimum
// corpus size.
func (l *Learner) AnalyzePatterns() *PatternReport {
	l.mu.Lock()
	routes := make([]model.HistoricalRoute, len(l.routes))
	copy(routes, l.routes)
	l.mu.Unlock()

	if len(routes) < l.cfg.MinCorpusForPatterns {
		return nil
	}

	type samples struct {
		savings  []float64
		accuracy []float64
	}
	season := map[model.Season]*samples{}
	timeOfDay := map[string]*samples{}
	experience := map[string]*samples{}
	vehicleType := map[string]*samples{}

	add := func(m map[string]*samples, key string, r model.HistoricalRoute) {
		s := m[key]
		if s == nil {
			s = &samples{}
			m[key] = s
		}
		s.savings = append(s.savings, r.Actual.SavingsPct)
		s.accuracy = append(s.accuracy, r.Accuracy.Overall)
	}

	for _, r := range routes {
		s := season[r.Features.Season]
		if s == nil {
			s = &samples{}
			season[r.Features.Season] = s
		}
		s.savings = append(s.savings, r.Actual.SavingsPct)
		s.accuracy = append(s.accuracy, r.Accuracy.Overall)

		add(timeOfDay, HourBucket(r.Features.HourOfDay), r)
		add(experience, ExperienceBucket(r.Features.DriverRoutes), r)
		if r.Features.VehicleType != "" {
			add(vehicleType, r.Features.VehicleType, r)
		}
	}

	stats := func(s *samples) DimensionStats {
		d := DimensionStats{
			Routes:       len(s.savings),
			MeanSavings:  stat.Mean(s.savings, nil),
			MeanAccuracy: stat.Mean(s.accuracy, nil),
		}
		if len(s.savings) > 1 {
			d.StdDevSavings = stat.StdDev(s.savings, nil)
		}
		return d
	}

	rep := &PatternReport{
		GeneratedAt:      l.clock.Now(),
		Corpus:           len(routes),
		Season:           map[model.Season]DimensionStats{},
		TimeOfDay:        map[string]DimensionStats{},
		DriverExperience: map[string]DimensionStats{},
		VehicleType:      map[string]DimensionStats{},
	}
	for k, s := range season {
		rep.Season[k] = stats(s)
	}
	for k, s := range timeOfDay {
		rep.TimeOfDay[k] = stats(s)
	}
	for k, s := range experience {
		rep.DriverExperience[k] = stats(s)
	}
	for k, s := range vehicleType {
		rep.VehicleType[k] = stats(s)
	}
	return rep
}
