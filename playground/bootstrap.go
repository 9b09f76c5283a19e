package playground

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/dbn-playground/catalog"
	"github.com/wippyai/dbn-playground/errors"
)

// EngineLoader loads the engine and binds its entry points.
type EngineLoader func(ctx context.Context) (*Binding, error)

// BootstrapConfig configures Bootstrap.
type BootstrapConfig struct {
	Engine  EngineLoader
	Catalog *catalog.Catalog
	Fetcher catalog.Fetcher
	Logger  *zap.Logger

	// Default is the example selected once bootstrap completes. Empty
	// leaves nothing selected.
	Default string

	FetchConcurrency int
}

// Session is a bootstrapped playground: the engine is bound and the catalog
// fetch has settled.
type Session struct {
	binding *Binding
	catalog *catalog.Catalog
	runner  *Runner
	report  *catalog.FetchReport
	initial State
	logger  *zap.Logger
}

// Option is one entry of the example selector.
type Option struct {
	Value string
	Label string
}

// Bootstrap loads the engine and fetches example contents concurrently and
// waits for both. An engine failure is fatal and no Session is returned.
// Failed example fetches only leave those examples empty.
func Bootstrap(ctx context.Context, cfg BootstrapConfig) (*Session, error) {
	if cfg.Engine == nil {
		return nil, errors.InvalidInput(errors.PhaseBootstrap, "engine loader is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.InvalidInput(errors.PhaseBootstrap, "catalog is required")
	}
	if cfg.Fetcher == nil {
		return nil, errors.InvalidInput(errors.PhaseBootstrap, "fetcher is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Default != "" {
		if err := checkDefault(cfg.Catalog, cfg.Default); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	var (
		binding *Binding
		report  *catalog.FetchReport
		g       errgroup.Group
	)
	g.Go(func() error {
		b, err := cfg.Engine(ctx)
		if err != nil {
			return err
		}
		if b == nil {
			return errors.NotInitialized(errors.PhaseBootstrap, "engine binding")
		}
		binding = b
		return nil
	})
	g.Go(func() error {
		report = cfg.Catalog.Fetch(ctx, cfg.Fetcher, catalog.FetchOptions{
			Logger:      logger,
			Concurrency: cfg.FetchConcurrency,
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("engine failed to load", zap.Error(err))
		return nil, errors.Instantiation(err)
	}

	s := &Session{
		binding: binding,
		catalog: cfg.Catalog,
		runner:  NewRunner(binding, logger),
		report:  report,
		logger:  logger,
	}
	if cfg.Default != "" {
		st, err := Select(cfg.Catalog, s.initial, cfg.Default)
		if err != nil {
			return nil, err
		}
		s.initial = st
	}

	logger.Info("playground ready",
		zap.Int("examples", cfg.Catalog.Len()),
		zap.Int("fetch_failures", len(report.Failed)),
		zap.Bool("secondary", binding.HasSecondary()),
		zap.Duration("elapsed", time.Since(start)))
	return s, nil
}

func checkDefault(cat *catalog.Catalog, name string) error {
	if _, ok := cat.Lookup(name); ok {
		return nil
	}
	detail := fmt.Sprintf("default example %q is not in the catalog", name)
	if s, ok := cat.Suggest(name); ok {
		detail += fmt.Sprintf(" (did you mean %q?)", s)
	}
	return errors.Config("catalog.default", detail)
}

func (s *Session) Binding() *Binding            { return s.binding }
func (s *Session) Catalog() *catalog.Catalog    { return s.catalog }
func (s *Session) Runner() *Runner              { return s.runner }
func (s *Session) Report() *catalog.FetchReport { return s.report }

// Initial returns the state after bootstrap, with the default example
// selected when one was configured.
func (s *Session) Initial() State { return s.initial }

// Options returns one selector option per catalog example, in catalog order.
func (s *Session) Options() []Option {
	names := s.catalog.Names()
	opts := make([]Option, len(names))
	for i, n := range names {
		opts[i] = Option{Value: n, Label: n}
	}
	return opts
}

// Dispatcher returns a Dispatcher with the selection and run handlers
// registered. Runs write to surfaces.
func (s *Session) Dispatcher(surfaces Surfaces) *Dispatcher {
	d := NewDispatcher(s.logger)
	d.On(TriggerSelectionChanged, func(_ context.Context, st State, ev Event) (State, error) {
		return Select(s.catalog, st, ev.(SelectionChanged).Name)
	})
	d.On(TriggerRunRequested, func(ctx context.Context, st State, ev Event) (State, error) {
		req := ev.(RunRequested)
		s.runner.Run(ctx, req.Source, req.Secondary, surfaces)
		st.Text = req.Source
		return st, nil
	})
	return d
}
