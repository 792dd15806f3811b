// Package persist provides the storage backends for the engine's
// learned state: an in-memory store for tests and single-process
// deployments, and a Postgres store for durable state.
package persist

import (
	"context"
	"sync"

	"github.com/kilianp07/routeopt/core/driver"
	"github.com/kilianp07/routeopt/core/model"
	"github.com/kilianp07/routeopt/core/vehicle"
)

// MemoryStore keeps the learned state in process memory. Saves copy
// their input so later mutations by the caller don't leak in.
type MemoryStore struct {
	mu       sync.Mutex
	routes   []model.HistoricalRoute
	drivers  map[string]driver.Profile
	vehicles map[string]vehicle.Profile
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadHistoricalRoutes(context.Context) ([]model.HistoricalRoute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.HistoricalRoute, len(s.routes))
	copy(out, s.routes)
	return out, nil
}

func (s *MemoryStore) SaveHistoricalRoutes(_ context.Context, routes []model.HistoricalRoute) error {
	cp := make([]model.HistoricalRoute, len(routes))
	copy(cp, routes)
	s.mu.Lock()
	s.routes = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LoadDriverProfiles(context.Context) (map[string]driver.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyDrivers(s.drivers), nil
}

func (s *MemoryStore) SaveDriverProfiles(_ context.Context, profiles map[string]driver.Profile) error {
	cp := copyDrivers(profiles)
	s.mu.Lock()
	s.drivers = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LoadVehicleProfiles(context.Context) (map[string]vehicle.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyVehicles(s.vehicles), nil
}

func (s *MemoryStore) SaveVehicleProfiles(_ context.Context, profiles map[string]vehicle.Profile) error {
	cp := copyVehicles(profiles)
	s.mu.Lock()
	s.vehicles = cp
	s.mu.Unlock()
	return nil
}

func copyDrivers(in map[string]driver.Profile) map[string]driver.Profile {
	out := make(map[string]driver.Profile, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyVehicles(in map[string]vehicle.Profile) map[string]vehicle.Profile {
	out := make(map[string]vehicle.Profile, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
