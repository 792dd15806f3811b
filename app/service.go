// Package app wires the configuration into a running optimization
// service: the engine, its state store, the metrics sinks and the MQTT
// outcome ingest.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/routeopt/api/routes"
	"github.com/kilianp07/routeopt/config"
	"github.com/kilianp07/routeopt/core/baseline"
	"github.com/kilianp07/routeopt/core/driver"
	"github.com/kilianp07/routeopt/core/engine"
	"github.com/kilianp07/routeopt/core/events"
	"github.com/kilianp07/routeopt/core/history"
	"github.com/kilianp07/routeopt/core/persistence"
	"github.com/kilianp07/routeopt/core/vehicle"
	"github.com/kilianp07/routeopt/infra/logger"
	"github.com/kilianp07/routeopt/infra/metrics"
	"github.com/kilianp07/routeopt/infra/mqtt"
	"github.com/kilianp07/routeopt/infra/persist"
	"github.com/kilianp07/routeopt/internal/eventbus"
)

// Service owns the engine and the adapters built from configuration.
type Service struct {
	Engine *engine.Engine

	bus      *eventbus.Bus
	ingestor *mqtt.Ingestor
	pg       *persist.PostgresStore
	log      logger.Logger
	promAddr string
	api      config.APIConfig
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	sink, err := metrics.NewFromConfig(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	var promAddr string
	for _, sc := range cfg.Metrics.Sinks {
		if sc.Type == "prometheus" && sc.PrometheusPort != 0 {
			promAddr = fmt.Sprintf(":%d", sc.PrometheusPort)
		}
	}

	var store persistence.Store
	var pg *persist.PostgresStore
	switch cfg.Persistence.Backend {
	case "memory":
		store = persist.NewMemoryStore()
	case "postgres":
		pg, err = persist.NewPostgresStore(cfg.Persistence.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		store = pg
	}

	bus := eventbus.New()
	eng, err := engine.New(cfg.Engine,
		baseline.New(cfg.Baseline),
		history.NewLearner(cfg.History, nil, logger.New("history")),
		driver.NewStore(cfg.Drivers, nil, logger.New("drivers")),
		vehicle.NewOptimizer(cfg.Vehicles, nil, logger.New("vehicles")),
		store, nil, sink, bus, logger.New("engine"))
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	svc := &Service{Engine: eng, bus: bus, pg: pg, log: logg, promAddr: promAddr, api: cfg.API}
	if cfg.MQTT.Enabled {
		ingestor, err := mqtt.NewIngestor(cfg.MQTT.Config, eng)
		if err != nil {
			return nil, fmt.Errorf("mqtt ingest: %w", err)
		}
		svc.ingestor = ingestor
	}
	return svc, nil
}

// Run starts the ledger sweep and the metrics endpoint, then blocks
// until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.Engine.Run(ctx)
	go s.logEvents(ctx)
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.api.Enabled {
		srv := &http.Server{Addr: s.api.Listen, Handler: routes.NewMux(s.Engine, s.api.Token)}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.log.Errorf("api shutdown: %v", err)
			}
		}()
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

// logEvents mirrors notable engine events into the service log.
func (s *Service) logEvents(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case events.RetrainEvent:
				s.log.Infof("model retrained: corpus=%d rolling_accuracy=%.3f", e.Corpus, e.RollingAccuracy)
			case events.SweepEvent:
				if e.Evicted > 0 {
					s.log.Infof("sweep evicted %d stale predictions, %d pending", e.Evicted, e.Remaining)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.ingestor != nil {
		s.ingestor.Close()
	}
	s.bus.Close()
	if s.pg != nil {
		return s.pg.Close()
	}
	return nil
}
