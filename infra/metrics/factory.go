package metrics

import (
	"fmt"

	coremetrics "github.com/kilianp07/routeopt/core/metrics"
)

// NewFromConfig builds the configured sinks and wraps them in a
// MultiSink when more than one is requested. An empty configuration
// yields a NopSink.
func NewFromConfig(cfg coremetrics.Config) (coremetrics.Sink, error) {
	var sinks []coremetrics.Sink
	for _, sc := range cfg.Sinks {
		switch sc.Type {
		case "", "nop":
			sinks = append(sinks, coremetrics.NopSink{})
		case "prometheus":
			s, err := NewPromSink(sc)
			if err != nil {
				return nil, fmt.Errorf("prometheus sink: %w", err)
			}
			sinks = append(sinks, s)
		case "influx":
			sinks = append(sinks, NewInfluxSinkWithFallback(sc.URL, sc.Token, sc.Org, sc.Bucket))
		default:
			return nil, fmt.Errorf("unknown metrics sink type %q", sc.Type)
		}
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMultiSink(sinks...), nil
	}
}
