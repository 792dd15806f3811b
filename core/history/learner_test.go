package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/kilianp07/routeopt/core/clock"
	"github.com/kilianp07/routeopt/core/model"
	"github.com/kilianp07/routeopt/infra/logger"
)

func testFeatures(km float64) model.RouteFeatures {
	return model.RouteFeatures{
		DistanceKm: km,
		HourOfDay:  9,
		Season:     model.SeasonSummer,
		Traffic:    model.TrafficModerate,
		Weather:    model.WeatherClear,
	}
}

func predicted(factor, km float64) model.OptimizationResult {
	return model.OptimizationResult{
		OptimizationFactor: factor,
		OptimizedKm:        km * (1 - factor),
		EstimatedDuration:  5 * time.Hour,
		Confidence:         0.5,
	}
}

func actual(savings, km float64) model.ActualResult {
	return model.ActualResult{
		SavingsPct:     savings,
		ActualKm:       km * (1 - savings),
		ActualDuration: 5 * time.Hour,
	}
}

func TestAccuracy_SavingsFormula(t *testing.T) {
	// Predicted 20% savings, actual 16%: 1 - |20-16|/20 = 0.8.
	rep := Accuracy(
		model.OptimizationResult{OptimizationFactor: 0.20},
		model.ActualResult{SavingsPct: 0.16},
	)
	if rep.Savings < 0.799 || rep.Savings > 0.801 {
		t.Fatalf("savings accuracy = %v, want 0.8", rep.Savings)
	}
}

func TestAccuracy_PerfectAndZero(t *testing.T) {
	rep := Accuracy(model.OptimizationResult{}, model.ActualResult{})
	if rep.Overall != 1 {
		t.Fatalf("zero-vs-zero should be perfect, got %v", rep.Overall)
	}
	rep = Accuracy(predicted(0.18, 450), actual(0.18, 450))
	if rep.Overall < 0.99 {
		t.Fatalf("exact prediction should score ~1, got %v", rep.Overall)
	}
}

func TestPredictFromSimilar_MinCorpus(t *testing.T) {
	l := NewLearner(Config{}, nil, logger.NopLogger{})
	for i := 0; i < 4; i++ {
		l.RecordOutcome(fmt.Sprintf("t%d", i), predicted(0.18, 450), actual(0.18, 450), testFeatures(450))
	}
	if p := l.PredictFromSimilar(testFeatures(440)); p != nil {
		t.Fatalf("expected nil below minimum corpus, got %+v", p)
	}
}

func TestPredictFromSimilar_ConvergesOnConsistentHistory(t *testing.T) {
	l := NewLearner(Config{}, nil, logger.NopLogger{})
	for i := 0; i < 6; i++ {
		km := 400 + float64(i*20)
		l.RecordOutcome(fmt.Sprintf("t%d", i), predicted(0.18, km), actual(0.18, km), testFeatures(km))
	}
	p := l.PredictFromSimilar(testFeatures(440))
	if p == nil {
		t.Fatalf("expected a prediction from 6 similar routes")
	}
	if p.Support < 1 {
		t.Fatalf("expected support >= 1, got %d", p.Support)
	}
	if p.OptimizationFactor < 0.16 || p.OptimizationFactor > 0.20 {
		t.Fatalf("factor %v not close to 0.18", p.OptimizationFactor)
	}
	if p.Confidence <= 0 || p.Confidence > 1 {
		t.Fatalf("confidence %v out of range", p.Confidence)
	}
	if p.ScoringVersion != ScoringVersion {
		t.Fatalf("missing scoring version")
	}
}

func TestPredictFromSimilar_LearnsFromActuals(t *testing.T) {
	l := NewLearner(Config{}, nil, logger.NopLogger{})
	// Systematic underprediction: the corpus said 10%, reality delivered 20%.
	for i := 0; i < 6; i++ {
		km := 400 + float64(i*20)
		l.RecordOutcome(fmt.Sprintf("t%d", i), predicted(0.10, km), actual(0.20, km), testFeatures(km))
	}
	p := l.PredictFromSimilar(testFeatures(440))
	if p == nil {
		t.Fatalf("expected a prediction from 6 similar routes")
	}
	if p.OptimizationFactor < 0.18 || p.OptimizationFactor > 0.22 {
		t.Fatalf("factor %v should track the realized savings, not the stale predictions", p.OptimizationFactor)
	}
}

func TestPredictFromSimilar_NoMatch(t *testing.T) {
	l := NewLearner(Config{}, nil, logger.NopLogger{})
	for i := 0; i < 6; i++ {
		f := testFeatures(10)
		f.Season = model.SeasonWinter
		f.Weather = model.WeatherSnow
		f.Traffic = model.TrafficSevere
		f.HourOfDay = 3
		l.RecordOutcome(fmt.Sprintf("t%d", i), predicted(0.10, 10), actual(0.10, 10), f)
	}
	far := testFeatures(5000)
	if p := l.PredictFromSimilar(far); p != nil {
		t.Fatalf("expected nil when nothing clears the threshold, got %+v", p)
	}
}

func TestSimilarity_Deterministic(t *testing.T) {
	a := testFeatures(440)
	b := testFeatures(450)
	s1 := Similarity(a, b)
	s2 := Similarity(a, b)
	if s1 != s2 {
		t.Fatalf("similarity not deterministic: %v vs %v", s1, s2)
	}
	if s1 < 0 || s1 > 1 {
		t.Fatalf("similarity %v out of [0,1]", s1)
	}
	if self := Similarity(a, a); self < 0.99 {
		t.Fatalf("self similarity should be ~1, got %v", self)
	}
}

func TestSimilarity_VehicleTypeDimension(t *testing.T) {
	base := testFeatures(300)
	same, other, blank := base, base, base
	same.VehicleType = "van"
	other.VehicleType = "truck"
	blank.VehicleType = ""

	// Two untyped records are a match, not a half-match.
	if s := Similarity(base, blank); s < 0.99 {
		t.Fatalf("untyped self similarity should be ~1, got %v", s)
	}
	oneSided := Similarity(same, blank)
	mismatch := Similarity(same, other)
	if oneSided <= mismatch {
		t.Fatalf("one-sided unknown (%v) must score above a mismatch (%v)", oneSided, mismatch)
	}
	if full := Similarity(same, same); full <= oneSided {
		t.Fatalf("exact type match (%v) must score above one-sided unknown (%v)", full, oneSided)
	}
}

func TestRollingAccuracy_EMA(t *testing.T) {
	l := NewLearner(Config{AccuracyAlpha: 0.5}, nil, logger.NopLogger{})
	l.RecordOutcome("t1", predicted(0.20, 100), actual(0.20, 100), testFeatures(100))
	first := l.RollingAccuracy()
	if first < 0.99 {
		t.Fatalf("first record sets the rolling accuracy, got %v", first)
	}
	l.RecordOutcome("t2", predicted(0.20, 100), actual(0.10, 200), testFeatures(100))
	second := l.RollingAccuracy()
	if second >= first {
		t.Fatalf("a bad outcome must lower the rolling accuracy: %v -> %v", first, second)
	}
}

func TestRecordOutcome_CorpusCap(t *testing.T) {
	l := NewLearner(Config{MaxRoutes: 10}, nil, logger.NopLogger{})
	for i := 0; i < 25; i++ {
		l.RecordOutcome(fmt.Sprintf("t%d", i), predicted(0.15, 100), actual(0.15, 100), testFeatures(100))
	}
	if l.Size() != 10 {
		t.Fatalf("corpus not capped: %d", l.Size())
	}
	snap := l.Snapshot()
	if snap[0].ID != "t15" {
		t.Fatalf("oldest records should be evicted first, got %s", snap[0].ID)
	}
}

func TestRetrain_VolumeTrigger(t *testing.T) {
	l := NewLearner(Config{RetrainVolume: 5}, nil, logger.NopLogger{})
	fired := 0
	for i := 0; i < 10; i++ {
		if _, retrain := l.RecordOutcome(fmt.Sprintf("t%d", i), predicted(0.15, 100), actual(0.15, 100), testFeatures(100)); retrain {
			fired++
		}
	}
	if fired != 2 {
		t.Fatalf("volume trigger should fire every 5 records, fired %d times", fired)
	}
	if l.RetrainCount() != 2 {
		t.Fatalf("retrain count mismatch: %d", l.RetrainCount())
	}
}

func TestRetrain_AccuracySlump(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	l := NewLearner(Config{RetrainVolume: 1000, AccuracyAlpha: 0.05}, clk, logger.NopLogger{})
	// Build a high long-run accuracy over older records.
	for i := 0; i < 30; i++ {
		l.RecordOutcome(fmt.Sprintf("good%d", i), predicted(0.18, 450), actual(0.18, 450), testFeatures(450))
		clk.Advance(time.Hour)
	}
	// Move past the recent window, then record a run of poor outcomes.
	clk.Advance(10 * 24 * time.Hour)
	fired := false
	for i := 0; i < 8; i++ {
		_, retrain := l.RecordOutcome(fmt.Sprintf("bad%d", i), predicted(0.30, 450), actual(0.05, 900), testFeatures(450))
		clk.Advance(time.Hour)
		fired = fired || retrain
	}
	if !fired {
		t.Fatalf("accuracy slump should trigger retraining")
	}
}

func TestRestore_ReplaysRolling(t *testing.T) {
	l := NewLearner(Config{}, nil, logger.NopLogger{})
	for i := 0; i < 6; i++ {
		l.RecordOutcome(fmt.Sprintf("t%d", i), predicted(0.18, 450), actual(0.16, 450), testFeatures(450))
	}
	snap := l.Snapshot()
	want := l.RollingAccuracy()

	restored := NewLearner(Config{}, nil, logger.NopLogger{})
	restored.Restore(snap)
	if restored.Size() != 6 {
		t.Fatalf("restore lost records: %d", restored.Size())
	}
	got := restored.RollingAccuracy()
	if got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("rolling accuracy not replayed: %v vs %v", got, want)
	}
}
