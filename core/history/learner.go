// Package history stores completed route records and turns them into
// confidence-weighted adjustments for new requests. Learning here is a
// bounded exponential-update scheme, not model training.
package history

import (
	"math"
	"sort"
	"sync"

	"github.com/kilianp07/routeopt/core/clock"
	"github.com/kilianp07/routeopt/core/logger"
	"github.com/kilianp07/routeopt/core/model"
)

// Per-field weights of the overall accuracy.
const (
	accSavingsWeight  = 0.5
	accDistanceWeight = 0.3
	accDurationWeight = 0.2
)

// SimilarPrediction is the learner's adjustment for a new request.
type SimilarPrediction struct {
	OptimizationFactor float64
	Confidence         float64
	// Support is the number of historical records backing the prediction.
	Support int
	// ScoringVersion identifies the similarity formula used.
	ScoringVersion string
}

// Learner holds the historical corpus and its derived statistics.
type Learner struct {
	cfg   Config
	clock clock.Clock
	log   logger.Logger

	mu            sync.Mutex
	routes        []model.HistoricalRoute
	rolling       float64
	rollingSet    bool
	sinceRetrain  int
	retrainCount  int
	totalRecorded int
}

// NewLearner returns an empty learner.
func NewLearner(cfg Config, clk clock.Clock, log logger.Logger) *Learner {
	cfg.SetDefaults()
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Learner{cfg: cfg, clock: clk, log: log}
}

// RecordOutcome appends the completed route, updates the rolling
// accuracy and reports whether the retraining trigger fired.
func (l *Learner) RecordOutcome(trackingID string, predicted model.OptimizationResult, actual model.ActualResult, features model.RouteFeatures) (model.HistoricalRoute, bool) {
	rec := model.HistoricalRoute{
		ID:         trackingID,
		RecordedAt: l.clock.Now(),
		Features:   features,
		Predicted:  predicted,
		Actual:     actual,
		Accuracy:   Accuracy(predicted, actual),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.routes = append(l.routes, rec)
	if len(l.routes) > l.cfg.MaxRoutes {
		l.routes = l.routes[len(l.routes)-l.cfg.MaxRoutes:]
	}
	if l.rollingSet {
		l.rolling = l.cfg.AccuracyAlpha*rec.Accuracy.Overall + (1-l.cfg.AccuracyAlpha)*l.rolling
	} else {
		l.rolling = rec.Accuracy.Overall
		l.rollingSet = true
	}
	l.sinceRetrain++
	l.totalRecorded++

	retrain := l.shouldRetrainLocked()
	if retrain {
		l.sinceRetrain = 0
		l.retrainCount++
		if l.log != nil {
			l.log.Infof("retraining triggered after %d routes, rolling accuracy %.3f", l.totalRecorded, l.rolling)
		}
	}
	return rec, retrain
}

// shouldRetrainLocked evaluates the maintenance trigger: a recent-window
// accuracy slump or a plain volume threshold.
func (l *Learner) shouldRetrainLocked() bool {
	if l.sinceRetrain >= l.cfg.RetrainVolume {
		return true
	}
	cutoff := l.clock.Now().Add(-l.cfg.retrainWindow())
	var sum float64
	var n int
	for i := len(l.routes) - 1; i >= 0; i-- {
		if l.routes[i].RecordedAt.Before(cutoff) {
			break
		}
		sum += l.routes[i].Accuracy.Overall
		n++
	}
	if n < l.cfg.MinCorpusForPrediction {
		return false
	}
	return sum/float64(n) < l.rolling-l.cfg.RetrainMargin
}

// PredictFromSimilar matches the request against the corpus and returns
// an accuracy-and-similarity-weighted factor, or nil when the corpus is
// too small or nothing clears the threshold. Callers fall back to the
// baseline on nil.
func (l *Learner) PredictFromSimilar(features model.RouteFeatures) *SimilarPrediction {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.routes) < l.cfg.MinCorpusForPrediction {
		return nil
	}

	type match struct {
		rec model.HistoricalRoute
		sim float64
	}
	var matches []match
	for _, r := range l.routes {
		if s := Similarity(features, r.Features); s >= l.cfg.SimilarityThreshold {
			matches = append(matches, match{rec: r, sim: s})
		}
	}
	if len(matches) == 0 {
		return nil
	}

	// Rank by similarity, stable order by recency on ties.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].sim != matches[j].sim {
			return matches[i].sim > matches[j].sim
		}
		return matches[i].rec.RecordedAt.After(matches[j].rec.RecordedAt)
	})
	if len(matches) > l.cfg.TopK {
		matches = matches[:l.cfg.TopK]
	}

	var weightSum, factorSum, simSum, accSum float64
	for _, m := range matches {
		w := m.rec.Accuracy.Overall * m.sim
		weightSum += w
		// The realized savings, not the old prediction: the corpus
		// teaches what comparable routes actually delivered.
		factorSum += w * model.ClampFactor(m.rec.Actual.SavingsPct)
		simSum += m.sim
		accSum += m.rec.Accuracy.Overall
	}
	if weightSum == 0 {
		return nil
	}
	n := float64(len(matches))
	return &SimilarPrediction{
		OptimizationFactor: model.ClampFactor(factorSum / weightSum),
		Confidence:         model.ClampConfidence(0.6*(accSum/n) + 0.4*(simSum/n)),
		Support:            len(matches),
		ScoringVersion:     ScoringVersion,
	}
}

// Accuracy computes the per-field accuracies of a prediction against
// its outcome. Each field is 1 minus the normalized absolute error.
func Accuracy(predicted model.OptimizationResult, actual model.ActualResult) model.AccuracyReport {
	rep := model.AccuracyReport{
		Savings:  fieldAccuracy(predicted.OptimizationFactor, actual.SavingsPct),
		Distance: fieldAccuracy(predicted.OptimizedKm, actual.ActualKm),
		Duration: fieldAccuracy(predicted.EstimatedDuration.Seconds(), actual.ActualDuration.Seconds()),
	}
	rep.Overall = accSavingsWeight*rep.Savings + accDistanceWeight*rep.Distance + accDurationWeight*rep.Duration
	return rep
}

func fieldAccuracy(predicted, actual float64) float64 {
	max := math.Max(math.Abs(predicted), math.Abs(actual))
	if max == 0 {
		return 1
	}
	return model.Clamp(1-math.Abs(predicted-actual)/max, 0, 1)
}

// Size returns the number of retained records.
func (l *Learner) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.routes)
}

// RollingAccuracy returns the exponential moving average of the overall
// accuracy, or 0 before the first outcome.
func (l *Learner) RollingAccuracy() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rolling
}

// RetrainCount returns how many times the maintenance trigger fired.
func (l *Learner) RetrainCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.retrainCount
}

// Snapshot copies the corpus for persistence.
func (l *Learner) Snapshot() []model.HistoricalRoute {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]model.HistoricalRoute, len(l.routes))
	copy(cp, l.routes)
	return cp
}

// Restore replaces the corpus, replaying the rolling accuracy in record
// order. Used when loading persisted state at startup.
func (l *Learner) Restore(routes []model.HistoricalRoute) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(routes) > l.cfg.MaxRoutes {
		routes = routes[len(routes)-l.cfg.MaxRoutes:]
	}
	l.routes = make([]model.HistoricalRoute, len(routes))
	copy(l.routes, routes)
	l.rollingSet = false
	for _, r := range l.routes {
		if l.rollingSet {
			l.rolling = l.cfg.AccuracyAlpha*r.Accuracy.Overall + (1-l.cfg.AccuracyAlpha)*l.rolling
		} else {
			l.rolling = r.Accuracy.Overall
			l.rollingSet = true
		}
	}
	l.sinceRetrain = 0
	l.totalRecorded = len(l.routes)
}
