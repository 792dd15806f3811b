package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kilianp07/routeopt/core/driver"
	"github.com/kilianp07/routeopt/core/model"
	"github.com/kilianp07/routeopt/core/vehicle"
)

// State kinds stored in the routeopt_state table.
const (
	kindRoutes   = "historical_routes"
	kindDrivers  = "driver_profiles"
	kindVehicles = "vehicle_profiles"
)

// PostgresStore persists the learned state as one JSONB document per
// state kind. The engine saves full snapshots, so upserting whole
// documents beats row-per-record bookkeeping here.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the database, verifies the connection and
// ensures the schema exists.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("verify postgres connection: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	const stmt = `
	CREATE TABLE IF NOT EXISTS routeopt_state (
		kind TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) load(ctx context.Context, kind string, out any) error {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM routeopt_state WHERE kind = $1`, kind).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", kind, err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	return nil
}

func (s *PostgresStore) save(ctx context.Context, kind string, in any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO routeopt_state (kind, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (kind) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		kind, payload)
	if err != nil {
		return fmt.Errorf("save %s: %w", kind, err)
	}
	return nil
}

func (s *PostgresStore) LoadHistoricalRoutes(ctx context.Context) ([]model.HistoricalRoute, error) {
	var routes []model.HistoricalRoute
	if err := s.load(ctx, kindRoutes, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

func (s *PostgresStore) SaveHistoricalRoutes(ctx context.Context, routes []model.HistoricalRoute) error {
	return s.save(ctx, kindRoutes, routes)
}

func (s *PostgresStore) LoadDriverProfiles(ctx context.Context) (map[string]driver.Profile, error) {
	var profiles map[string]driver.Profile
	if err := s.load(ctx, kindDrivers, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *PostgresStore) SaveDriverProfiles(ctx context.Context, profiles map[string]driver.Profile) error {
	return s.save(ctx, kindDrivers, profiles)
}

func (s *PostgresStore) LoadVehicleProfiles(ctx context.Context) (map[string]vehicle.Profile, error) {
	var profiles map[string]vehicle.Profile
	if err := s.load(ctx, kindVehicles, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *PostgresStore) SaveVehicleProfiles(ctx context.Context, profiles map[string]vehicle.Profile) error {
	return s.save(ctx, kindVehicles, profiles)
}
