// Package app wires configuration into a running playground: it resolves
// the catalog and its fetcher, selects the engine and bootstraps a session.
package app

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/dbn-playground/catalog"
	"github.com/wippyai/dbn-playground/config"
	"github.com/wippyai/dbn-playground/dbn"
	"github.com/wippyai/dbn-playground/engine"
	"github.com/wippyai/dbn-playground/errors"
	"github.com/wippyai/dbn-playground/examples"
	"github.com/wippyai/dbn-playground/playground"
	"github.com/wippyai/dbn-playground/runtime"
)

// App owns the resources behind a session.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	mu      sync.Mutex
	closers []func(context.Context) error
}

func New(cfg config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{cfg: cfg, logger: logger}
}

func (a *App) Config() config.Config { return a.cfg }
func (a *App) Logger() *zap.Logger   { return a.logger }

// CatalogSource is a resolved catalog definition and where its contents
// come from.
type CatalogSource struct {
	Catalog *catalog.Catalog
	Fetcher catalog.Fetcher
	Default string
}

// Catalog defines the catalog from the configured manifest, or the bundled
// one, and picks the fetcher for its contents.
func (a *App) Catalog() (*CatalogSource, error) {
	cc := a.cfg.Catalog

	var (
		m   *catalog.Manifest
		err error
	)
	if cc.Manifest != "" {
		m, err = catalog.LoadManifest(os.DirFS(filepath.Dir(cc.Manifest)), filepath.Base(cc.Manifest))
	} else {
		m, err = catalog.LoadManifest(examples.FS, examples.Manifest)
	}
	if err != nil {
		return nil, err
	}
	cat, err := m.Catalog()
	if err != nil {
		return nil, err
	}

	src := &CatalogSource{Catalog: cat, Default: m.Default}
	if cc.Default != "" {
		src.Default = cc.Default
	}

	switch {
	case cc.BaseURL != "":
		src.Fetcher = catalog.NewHTTPFetcher(cc.BaseURL)
	case cc.Dir != "":
		src.Fetcher = catalog.FSFetcher{FS: os.DirFS(cc.Dir)}
	default:
		src.Fetcher = catalog.FSFetcher{FS: examples.FS, Dir: examples.Dir}
	}
	return src, nil
}

// loadFS is where the built-in engine resolves Load statements: the
// example directory when examples come from disk or are bundled.
func (a *App) loadFS() fs.FS {
	cc := a.cfg.Catalog
	switch {
	case cc.BaseURL != "":
		return nil
	case cc.Dir != "":
		return os.DirFS(cc.Dir)
	default:
		sub, err := fs.Sub(examples.FS, examples.Dir)
		if err != nil {
			return nil
		}
		return sub
	}
}

// EngineLoader returns the loader for the configured engine.
func (a *App) EngineLoader() playground.EngineLoader {
	if a.cfg.Engine.BuiltinEngine() {
		return a.loadBuiltin
	}
	return a.loadWASM
}

func (a *App) loadBuiltin(context.Context) (*playground.Binding, error) {
	ec := a.cfg.Engine
	eng := dbn.NewEngine(dbn.Config{
		FS:        a.loadFS(),
		Scale:     ec.Scale,
		MaxFrames: ec.MaxFrames,
	})

	lookup := func(name string) (playground.EntryPoint, error) {
		fn, ok := eng.Entry(name)
		if !ok {
			return nil, errors.NotFound(errors.PhaseBootstrap, "entry point", name)
		}
		return playground.EntryFunc(name, fn), nil
	}

	primary, err := lookup(ec.Primary)
	if err != nil {
		return nil, err
	}
	var secondary playground.EntryPoint
	if ec.Secondary != "" {
		if secondary, err = lookup(ec.Secondary); err != nil {
			return nil, err
		}
	}

	a.logger.Info("built-in engine ready", zap.String("primary", ec.Primary), zap.String("secondary", ec.Secondary))
	return playground.NewBinding(primary, secondary)
}

func (a *App) loadWASM(ctx context.Context) (*playground.Binding, error) {
	ec := a.cfg.Engine

	wasm, err := os.ReadFile(ec.Path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindNotFound, err, "read engine module")
	}

	engine.SetLogger(a.logger.Named("engine"))
	rt, err := runtime.New(ctx, runtime.Options{
		Logger: a.logger,
		Engine: engine.Config{
			MemoryLimitPages: ec.MemoryLimitPages,
			CacheDir:         ec.CacheDir,
		},
	})
	if err != nil {
		return nil, err
	}

	mod, err := rt.Load(ctx, wasm, ec.EntryWIT())
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}

	primary, err := mod.EntryPoint(ec.Primary)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	var secondary playground.EntryPoint
	if ec.Secondary != "" {
		ep, err := mod.EntryPoint(ec.Secondary)
		if err != nil {
			rt.Close(ctx)
			return nil, err
		}
		secondary = ep
	}

	a.addCloser(rt.Close)
	return playground.NewBinding(primary, secondary)
}

func (a *App) addCloser(fn func(context.Context) error) {
	a.mu.Lock()
	a.closers = append(a.closers, fn)
	a.mu.Unlock()
}

// Bootstrap resolves the catalog and runs the playground bootstrap.
func (a *App) Bootstrap(ctx context.Context) (*playground.Session, error) {
	src, err := a.Catalog()
	if err != nil {
		return nil, err
	}
	return playground.Bootstrap(ctx, playground.BootstrapConfig{
		Engine:           a.EngineLoader(),
		Catalog:          src.Catalog,
		Fetcher:          src.Fetcher,
		Default:          src.Default,
		FetchConcurrency: a.cfg.Catalog.Concurrency,
		Logger:           a.logger,
	})
}

// Close releases engine resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var first error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
