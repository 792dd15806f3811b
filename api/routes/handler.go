// Package routes exposes the optimization engine over HTTP.
package routes

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/routeopt/core/engine"
	"github.com/kilianp07/routeopt/core/model"
)

// NewOptimizeHandler returns an HTTP handler accepting a route request
// via POST /api/routes/optimize.
func NewOptimizeHandler(eng *engine.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req model.RouteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		res, err := eng.Optimize(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(res); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// outcomeRequest mirrors the MQTT outcome payload for HTTP reporting.
type outcomeRequest struct {
	TrackingID string             `json:"tracking_id"`
	DriverID   string             `json:"driver_id,omitempty"`
	VehicleID  string             `json:"vehicle_id,omitempty"`
	Actual     model.ActualResult `json:"actual"`
}

// NewOutcomeHandler returns an HTTP handler accepting actual results
// via POST /api/routes/outcome. An outcome that does not match a
// pending prediction yields 404.
func NewOutcomeHandler(eng *engine.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req outcomeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.TrackingID == "" {
			http.Error(w, "tracking_id is required", http.StatusBadRequest)
			return
		}
		accepted := eng.ReportActualResult(req.TrackingID, req.Actual, req.DriverID, req.VehicleID)
		if !accepted {
			http.Error(w, "unknown tracking id", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]bool{"accepted": true})
	})
}

// NewInsightsHandler returns an HTTP handler exposing learning insights
// and fleet analytics via GET /api/routes/insights. Requests must
// include an Authorization header with "Bearer <token>" when token is
// non-empty.
func NewInsightsHandler(eng *engine.Engine, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		out := struct {
			Learning engine.LearningInsights `json:"learning"`
			Fleet    engine.FleetAnalytics   `json:"fleet"`
		}{
			Learning: eng.GetLearningInsights(),
			Fleet:    eng.GetFleetAnalytics(),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// NewMux mounts all route handlers on a dedicated mux.
func NewMux(eng *engine.Engine, token string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/routes/optimize", NewOptimizeHandler(eng))
	mux.Handle("/api/routes/outcome", NewOutcomeHandler(eng))
	mux.Handle("/api/routes/insights", NewInsightsHandler(eng, token))
	return mux
}
