// Package engine composes the baseline estimator, the historical
// learner and the driver/vehicle profile stores into one prediction,
// tracks it in a pending ledger and reconciles it against the actual
// result reported later.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/routeopt/core/baseline"
	"github.com/kilianp07/routeopt/core/clock"
	"github.com/kilianp07/routeopt/core/driver"
	"github.com/kilianp07/routeopt/core/events"
	"github.com/kilianp07/routeopt/core/history"
	"github.com/kilianp07/routeopt/core/logger"
	"github.com/kilianp07/routeopt/core/metrics"
	"github.com/kilianp07/routeopt/core/model"
	"github.com/kilianp07/routeopt/core/persistence"
	"github.com/kilianp07/routeopt/core/vehicle"
	"github.com/kilianp07/routeopt/internal/eventbus"
)

// pendingEntry holds one unresolved prediction with the request it was
// made for, so the learning updates can replay it on reconciliation.
type pendingEntry struct {
	request   model.RouteRequest
	result    model.OptimizationResult
	createdAt time.Time
}

// Engine is the optimization orchestrator.
type Engine struct {
	cfg      Config
	baseline *baseline.Estimator
	learner  *history.Learner
	drivers  *driver.Store
	vehicles *vehicle.Optimizer
	store    persistence.Store
	clock    clock.Clock
	sink     metrics.Sink
	bus      eventbus.EventBus
	log      logger.Logger

	mu           sync.Mutex
	pending      map[string]pendingEntry
	lastPatterns *history.PatternReport
}

// New creates the orchestrator. Persisted state is loaded best-effort:
// a load failure starts the engine empty.
func New(cfg Config, est *baseline.Estimator, learner *history.Learner, drivers *driver.Store, vehicles *vehicle.Optimizer, store persistence.Store, clk clock.Clock, sink metrics.Sink, bus eventbus.EventBus, log logger.Logger) (*Engine, error) {
	if est == nil || learner == nil || drivers == nil || vehicles == nil {
		return nil, fmt.Errorf("engine: nil parameter provided to New")
	}
	cfg.SetDefaults()
	if clk == nil {
		clk = clock.Real{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	e := &Engine{
		cfg:      cfg,
		baseline: est,
		learner:  learner,
		drivers:  drivers,
		vehicles: vehicles,
		store:    store,
		clock:    clk,
		sink:     sink,
		bus:      bus,
		log:      log,
		pending:  map[string]pendingEntry{},
	}
	e.loadState()
	return e, nil
}

// loadState restores persisted learning state. Failures are logged and
// leave the engine empty; degraded startup is not an error.
func (e *Engine) loadState() {
	if e.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if routes, err := e.store.LoadHistoricalRoutes(ctx); err != nil {
		e.log.Warnf("historical routes load failed, starting empty: %v", err)
	} else if len(routes) > 0 {
		e.learner.Restore(routes)
	}
	if profiles, err := e.store.LoadDriverProfiles(ctx); err != nil {
		e.log.Warnf("driver profiles load failed, starting empty: %v", err)
	} else if len(profiles) > 0 {
		e.drivers.Restore(profiles)
	}
	if profiles, err := e.store.LoadVehicleProfiles(ctx); err != nil {
		e.log.Warnf("vehicle profiles load failed, starting empty: %v", err)
	} else if len(profiles) > 0 {
		e.vehicles.Restore(profiles)
	}
}

// Optimize runs the prediction pipeline: baseline, driver
// personalization, vehicle recompute, historical blend. A valid request
// always gets a result; if an enhancement stage fails the baseline
// answer is returned with the Fallback flag set.
func (e *Engine) Optimize(req model.RouteRequest) (model.OptimizationResult, error) {
	if err := req.Validate(); err != nil {
		return model.OptimizationResult{}, err
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = e.clock.Now()
	}

	base, err := e.baseline.Estimate(req)
	if err != nil {
		return model.OptimizationResult{}, err
	}

	result, enhanceErr := e.enhance(req, base)
	if enhanceErr != nil {
		e.log.Errorf("enhancement failed, falling back to baseline: %v", enhanceErr)
		result = base
		result.Fallback = true
	}

	result.TrackingID = uuid.NewString()
	result.ModelVersion = model.ModelVersion

	e.mu.Lock()
	e.pending[result.TrackingID] = pendingEntry{request: req, result: result, createdAt: e.clock.Now()}
	size := len(e.pending)
	e.mu.Unlock()
	pendingEntries.Set(float64(size))
	predictionsTotal.WithLabelValues(strconv.FormatBool(result.Fallback)).Inc()

	if e.bus != nil {
		e.bus.Publish(events.PredictionEvent{Result: result, Request: req})
	}
	if err := e.sink.RecordPrediction(metrics.PredictionRecord{
		TrackingID:           result.TrackingID,
		DistanceKm:           req.DistanceKm,
		OptimizationFactor:   result.OptimizationFactor,
		Confidence:           result.Confidence,
		HistoricallyEnhanced: result.HistoricallyEnhanced,
		Personalized:         result.PersonalizedForDriver != "",
		VehicleOptimized:     result.VehicleOptimized,
		Fallback:             result.Fallback,
		Time:                 e.clock.Now(),
	}); err != nil {
		e.log.Errorf("metrics error: %v", err)
	}
	return result, nil
}

// enhance runs the personalization, vehicle and historical stages. A
// panic in any stage is converted into an error so Optimize can fall
// back to the baseline result.
func (e *Engine) enhance(req model.RouteRequest, base model.OptimizationResult) (result model.OptimizationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("enhancement stage panic: %v", r)
		}
	}()

	result = base
	if req.DriverID != "" {
		result, _ = e.drivers.Personalize(req.DriverID, req, result)
	}
	if req.VehicleID != "" {
		ref := e.vehicles.OptimizeForVehicleType(req.VehicleID, req, result)
		result = ref.Result
		result.Recommendations = append(result.Recommendations, ref.Notes...)
	}
	if hp := e.learner.PredictFromSimilar(e.featuresOf(req)); hp != nil {
		blended := e.cfg.LocalWeight*result.OptimizationFactor + e.cfg.HistoricalWeight*hp.OptimizationFactor
		result = e.reprice(req, result, model.ClampFactor(blended))
		if hp.Confidence < result.Confidence {
			result.Confidence = hp.Confidence
		}
		result.HistoricallyEnhanced = true
		result.BasedOnSimilarRoutes = hp.Support
	}
	return result, nil
}

// reprice recomputes the distance projection and scales the savings
// breakdown to a new factor.
func (e *Engine) reprice(req model.RouteRequest, res model.OptimizationResult, factor float64) model.OptimizationResult {
	old := res.OptimizationFactor
	res.OptimizationFactor = factor
	res.OptimizedKm = req.DistanceKm * (1 - factor)
	res.Savings.DistanceKm = req.DistanceKm - res.OptimizedKm
	if old > 0 {
		scale := factor / old
		res.Savings.Duration = time.Duration(float64(res.Savings.Duration) * scale)
		res.Savings.FuelLiters *= scale
		res.Savings.CostEUR *= scale
	}
	return res
}

// featuresOf derives the matching features, enriching them with the
// known vehicle type and driver experience.
func (e *Engine) featuresOf(req model.RouteRequest) model.RouteFeatures {
	var vehicleType string
	if req.VehicleID != "" {
		if p, ok := e.vehicles.Get(req.VehicleID); ok {
			vehicleType = string(p.Spec.Type)
		}
	}
	var driverRoutes int
	if req.DriverID != "" {
		if p, ok := e.drivers.Get(req.DriverID); ok {
			driverRoutes = p.RouteCount
		}
	}
	return model.FeaturesOf(req, vehicleType, driverRoutes)
}

// ReportActualResult reconciles a reported outcome against its pending
// prediction and feeds it back into the learner and the profile
// stores. Returns false for an unknown or already consumed tracking id
// without mutating anything.
func (e *Engine) ReportActualResult(trackingID string, actual model.ActualResult, driverID, vehicleID string) bool {
	e.mu.Lock()
	entry, ok := e.pending[trackingID]
	if !ok {
		e.mu.Unlock()
		outcomesTotal.WithLabelValues("unknown").Inc()
		e.log.Warnf("actual result for unknown tracking id %s discarded", trackingID)
		return false
	}
	delete(e.pending, trackingID)
	size := len(e.pending)
	e.mu.Unlock()
	pendingEntries.Set(float64(size))

	if actual.CompletedAt.IsZero() {
		actual.CompletedAt = e.clock.Now()
	}

	req := entry.request
	rec, retrain := e.learner.RecordOutcome(trackingID, entry.result, actual, e.featuresOf(req))
	if retrain {
		patterns := e.learner.AnalyzePatterns()
		e.mu.Lock()
		e.lastPatterns = patterns
		e.mu.Unlock()
		if e.bus != nil {
			e.bus.Publish(events.RetrainEvent{Corpus: e.learner.Size(), RollingAccuracy: e.learner.RollingAccuracy()})
		}
	}

	if driverID != "" {
		e.drivers.ApplyOutcome(driverID, req, actual)
	}
	if vehicleID != "" {
		var perf *vehicle.Performance
		if actual.ActualKm > 0 && actual.FuelLiters > 0 {
			perf = &vehicle.Performance{DistanceKm: actual.ActualKm, FuelLiters: actual.FuelLiters}
		}
		e.vehicles.Update(vehicleID, vehicle.StateUpdate{}, perf)
	}

	outcomesTotal.WithLabelValues("reconciled").Inc()
	if e.bus != nil {
		e.bus.Publish(events.OutcomeEvent{TrackingID: trackingID, Accuracy: rec.Accuracy, DriverID: driverID, VehicleID: vehicleID})
	}
	if rec2, ok := e.sink.(metrics.OutcomeRecorder); ok {
		if err := rec2.RecordOutcome(metrics.OutcomeRecord{
			TrackingID:      trackingID,
			OverallAccuracy: rec.Accuracy.Overall,
			SavingsAccuracy: rec.Accuracy.Savings,
			RollingAccuracy: e.learner.RollingAccuracy(),
			Time:            e.clock.Now(),
		}); err != nil {
			e.log.Errorf("metrics error: %v", err)
		}
	}

	e.saveState()
	return true
}

// saveState snapshots the learned state best-effort. Failures are
// logged and never propagated to the report path.
func (e *Engine) saveState() {
	if e.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.store.SaveHistoricalRoutes(ctx, e.learner.Snapshot()); err != nil {
		e.log.Warnf("historical routes save failed: %v", err)
	}
	if err := e.store.SaveDriverProfiles(ctx, e.drivers.Snapshot()); err != nil {
		e.log.Warnf("driver profiles save failed: %v", err)
	}
	if err := e.store.SaveVehicleProfiles(ctx, e.vehicles.Snapshot()); err != nil {
		e.log.Warnf("vehicle profiles save failed: %v", err)
	}
}

// Run sweeps the pending ledger periodically until the context is
// canceled. Purely a memory-bounding operation; an evicted prediction
// simply stops being eligible for learning.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.sweepInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// Sweep evicts pending entries older than the retention window and
// reports the eviction on the bus.
func (e *Engine) Sweep() int {
	cutoff := e.clock.Now().Add(-e.cfg.retention())
	e.mu.Lock()
	evicted := 0
	for id, entry := range e.pending {
		if entry.createdAt.Before(cutoff) {
			delete(e.pending, id)
			evicted++
		}
	}
	remaining := len(e.pending)
	e.mu.Unlock()

	if evicted > 0 {
		sweptEntries.Add(float64(evicted))
		e.log.Infof("swept %d expired pending predictions, %d remaining", evicted, remaining)
	}
	pendingEntries.Set(float64(remaining))
	if lsr, ok := e.sink.(metrics.LedgerSizeRecorder); ok {
		if err := lsr.RecordLedgerSize(remaining); err != nil {
			e.log.Errorf("metrics error: %v", err)
		}
	}
	if e.bus != nil {
		e.bus.Publish(events.SweepEvent{Evicted: evicted, Remaining: remaining, At: e.clock.Now()})
	}
	return evicted
}

// PendingCount returns the current ledger size.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}
