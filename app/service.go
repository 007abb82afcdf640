// Package app assembles the engine, the intel feed, the operator API and
// the observability sinks from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/milops/convoyd/api/dispatch"
	"github.com/milops/convoyd/config"
	"github.com/milops/convoyd/core/audit"
	"github.com/milops/convoyd/core/engine"
	"github.com/milops/convoyd/core/events"
	"github.com/milops/convoyd/core/intel"
	coremon "github.com/milops/convoyd/core/monitoring"
	"github.com/milops/convoyd/infra/feed"
	"github.com/milops/convoyd/infra/intelapi"
	"github.com/milops/convoyd/infra/logger"
	"github.com/milops/convoyd/infra/metrics"
	"github.com/milops/convoyd/infra/monitoring"
	"github.com/milops/convoyd/internal/eventbus"
)

// Service owns the running components of the dispatch engine.
type Service struct {
	Engine *engine.Engine

	bus         *eventbus.Bus
	feed        *feed.Feed
	store       audit.Store
	log         logger.Logger
	apiCfg      config.APIConfig
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")

	monitor, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(monitor)

	sink, err := metrics.NewSink(cfg.Metrics, log)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	store, err := newAuditStore(cfg.Audit)
	if err != nil {
		return nil, fmt.Errorf("audit store: %w", err)
	}

	var sources intel.Sources
	if cfg.Intel.Enabled {
		cli, err := intelapi.New(cfg.Intel)
		if err != nil {
			return nil, fmt.Errorf("intel api: %w", err)
		}
		sources = cli.Sources()
	}

	bus := eventbus.New()
	eng, err := engine.New(cfg.Engine, engine.Deps{
		Sources: sources,
		Bus:     bus,
		Sink:    sink,
		Audit:   store,
		Log:     logger.New("engine"),
	})
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	svc := &Service{
		Engine:      eng,
		bus:         bus,
		store:       store,
		log:         log,
		apiCfg:      cfg.API,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}
	if cfg.Feed.Enabled {
		f, err := feed.New(cfg.Feed, eng)
		if err != nil {
			return nil, fmt.Errorf("intel feed: %w", err)
		}
		svc.feed = f
	}
	return svc, nil
}

func newAuditStore(cfg config.AuditConfig) (audit.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return audit.NewSQLiteStore(cfg.Path)
	default:
		return audit.NewJSONLStore(cfg.Path)
	}
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.feed != nil {
		go s.forwardRecommendations(ctx)
	}
	if s.promEnabled {
		go func() {
			defer coremon.Recover()
			if err := metrics.StartPromServer(s.promPort, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.apiCfg.Enabled {
		go s.serveAPI(ctx)
	}
	<-ctx.Done()
	return nil
}

// forwardRecommendations publishes every issued recommendation on the
// outbound feed topic.
func (s *Service) forwardRecommendations(ctx context.Context) {
	defer coremon.Recover()
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if rec, isRec := ev.(events.RecommendationEvent); isRec {
				if err := s.feed.PublishRecommendation(rec.Recommendation); err != nil {
					s.log.Errorf("publish recommendation: %v", err)
					coremon.CaptureException(err, map[string]string{"module": "feed"})
				}
			}
		}
	}
}

func (s *Service) serveAPI(ctx context.Context) {
	defer coremon.Recover()
	mux := http.NewServeMux()
	mux.Handle("/api/dispatch/queue", dispatch.NewQueueHandler(s.Engine))
	mux.Handle("/api/dispatch/evaluate", dispatch.NewEvaluateHandler(s.Engine))
	mux.Handle("/api/dispatch/recommendation", dispatch.NewRecommendationHandler(s.Engine))
	mux.Handle("/api/dispatch/decision", dispatch.NewDecisionHandler(s.Engine))
	mux.Handle("/api/dispatch/logs", dispatch.NewLogHandler(s.store, s.apiCfg.LogToken))

	srv := &http.Server{
		Addr:              s.apiCfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Infof("operator API listening on %s", s.apiCfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Errorf("api server: %v", err)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.feed != nil {
		s.feed.Close()
	}
	err := s.Engine.Close()
	coremon.Flush(2 * time.Second)
	return err
}
