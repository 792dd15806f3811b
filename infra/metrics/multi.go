package metrics

import coremetrics "github.com/kilianp07/routeopt/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPrediction forwards the record to all sinks, returning the
// first error encountered.
func (m *MultiSink) RecordPrediction(rec coremetrics.PredictionRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordPrediction(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordOutcome forwards outcome records to sinks that support them.
func (m *MultiSink) RecordOutcome(rec coremetrics.OutcomeRecord) error {
	for _, s := range m.Sinks {
		if or, ok := s.(coremetrics.OutcomeRecorder); ok {
			if err := or.RecordOutcome(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordLedgerSize forwards the ledger size to sinks that support it.
func (m *MultiSink) RecordLedgerSize(size int) error {
	for _, s := range m.Sinks {
		if lr, ok := s.(coremetrics.LedgerSizeRecorder); ok {
			if err := lr.RecordLedgerSize(size); err != nil {
				return err
			}
		}
	}
	return nil
}
