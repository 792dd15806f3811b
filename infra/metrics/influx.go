package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/routeopt/core/metrics"
	"github.com/kilianp07/routeopt/infra/logger"
)

// InfluxSink writes predictions and outcomes to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPrediction writes the prediction as a point.
func (s *InfluxSink) RecordPrediction(rec coremetrics.PredictionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("route_prediction").
		AddTag("tracking_id", rec.TrackingID).
		AddTag("historical", boolTag(rec.HistoricallyEnhanced)).
		AddTag("personalized", boolTag(rec.Personalized)).
		AddTag("vehicle_optimized", boolTag(rec.VehicleOptimized)).
		AddTag("fallback", boolTag(rec.Fallback)).
		AddTag("component", "engine").
		AddField("distance_km", round3(rec.DistanceKm)).
		AddField("optimization_factor", round3(rec.OptimizationFactor)).
		AddField("confidence", round3(rec.Confidence)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordOutcome writes the reconciled outcome.
func (s *InfluxSink) RecordOutcome(rec coremetrics.OutcomeRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("route_outcome").
		AddTag("tracking_id", rec.TrackingID).
		AddTag("component", "engine").
		AddField("overall_accuracy", round3(rec.OverallAccuracy)).
		AddField("savings_accuracy", round3(rec.SavingsAccuracy)).
		AddField("rolling_accuracy", round3(rec.RollingAccuracy)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordLedgerSize writes the ledger size after a sweep.
func (s *InfluxSink) RecordLedgerSize(size int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("pending_ledger").
		AddTag("component", "engine").
		AddField("size", size).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
