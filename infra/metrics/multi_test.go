package metrics

import (
	"testing"
	"time"

	coremetrics "github.com/kilianp07/routeopt/core/metrics"
)

// captureSink records predictions only; outcomes go through the
// optional interface and must be skipped for it.
type captureSink struct {
	predictions []coremetrics.PredictionRecord
}

func (c *captureSink) RecordPrediction(rec coremetrics.PredictionRecord) error {
	c.predictions = append(c.predictions, rec)
	return nil
}

type fullSink struct {
	captureSink
	outcomes []coremetrics.OutcomeRecord
	sizes    []int
}

func (f *fullSink) RecordOutcome(rec coremetrics.OutcomeRecord) error {
	f.outcomes = append(f.outcomes, rec)
	return nil
}

func (f *fullSink) RecordLedgerSize(size int) error {
	f.sizes = append(f.sizes, size)
	return nil
}

func TestMultiSinkFanout(t *testing.T) {
	a := &captureSink{}
	b := &fullSink{}
	m := NewMultiSink(a, b)

	rec := coremetrics.PredictionRecord{TrackingID: "t-1", OptimizationFactor: 0.12, Time: time.Now()}
	if err := m.RecordPrediction(rec); err != nil {
		t.Fatalf("RecordPrediction: %v", err)
	}
	if len(a.predictions) != 1 || len(b.predictions) != 1 {
		t.Fatalf("prediction not fanned out: %d/%d", len(a.predictions), len(b.predictions))
	}

	if err := m.RecordOutcome(coremetrics.OutcomeRecord{TrackingID: "t-1", OverallAccuracy: 0.9}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if len(b.outcomes) != 1 {
		t.Fatalf("outcome not delivered to the capable sink: %d", len(b.outcomes))
	}

	if err := m.RecordLedgerSize(7); err != nil {
		t.Fatalf("RecordLedgerSize: %v", err)
	}
	if len(b.sizes) != 1 || b.sizes[0] != 7 {
		t.Fatalf("ledger size not delivered: %v", b.sizes)
	}
}
