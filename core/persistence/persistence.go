// Package persistence defines the best-effort storage collaborator. A
// save failure is logged by the caller and never rolls back in-memory
// state; a load failure starts the engine empty.
package persistence

import (
	"context"

	"github.com/kilianp07/routeopt/core/driver"
	"github.com/kilianp07/routeopt/core/model"
	"github.com/kilianp07/routeopt/core/vehicle"
)

// Store persists the engine's learned state.
type Store interface {
	LoadHistoricalRoutes(ctx context.Context) ([]model.HistoricalRoute, error)
	SaveHistoricalRoutes(ctx context.Context, routes []model.HistoricalRoute) error

	LoadDriverProfiles(ctx context.Context) (map[string]driver.Profile, error)
	SaveDriverProfiles(ctx context.Context, profiles map[string]driver.Profile) error

	LoadVehicleProfiles(ctx context.Context) (map[string]vehicle.Profile, error)
	SaveVehicleProfiles(ctx context.Context, profiles map[string]vehicle.Profile) error
}
