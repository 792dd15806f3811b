// Package export writes the historical route corpus for offline
// analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/routeopt/core/model"
)

// WriteJSON writes the corpus to w in JSON format.
func WriteJSON(w io.Writer, routes []model.HistoricalRoute) error {
	enc := json.NewEncoder(w)
	return enc.Encode(routes)
}

// WriteCSV writes the corpus to w in CSV format.
func WriteCSV(w io.Writer, routes []model.HistoricalRoute) error {
	cw := csv.NewWriter(w)
	header := []string{"tracking_id", "recorded_at", "distance_km", "vehicle_type", "traffic", "weather", "predicted_factor", "actual_savings_pct", "overall_accuracy"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range routes {
		rec := []string{
			r.ID,
			r.RecordedAt.Format(time.RFC3339),
			strconv.FormatFloat(r.Features.DistanceKm, 'f', -1, 64),
			r.Features.VehicleType,
			string(r.Features.Traffic),
			string(r.Features.Weather),
			strconv.FormatFloat(r.Predicted.OptimizationFactor, 'f', -1, 64),
			strconv.FormatFloat(r.Actual.SavingsPct, 'f', -1, 64),
			strconv.FormatFloat(r.Accuracy.Overall, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
