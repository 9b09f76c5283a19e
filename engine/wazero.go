package engine

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"
)

// StartExport is the export a WASI command module runs on instantiation.
const StartExport = "_start"

// WazeroEngine owns a wazero runtime that compiles and runs engine modules.
type WazeroEngine struct {
	runtime      wazero.Runtime
	cache        wazero.CompilationCache
	wasiInitMu   sync.Mutex
	wasiInitDone atomic.Bool
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// CacheDir enables wazero's on-disk compilation cache. Compiling a Go
	// wasip1 binary takes seconds; the cache makes restarts cheap.
	CacheDir string
}

// NewWazeroEngine creates a new wazero-based engine
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)

	var cache wazero.CompilationCache
	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.CacheDir != "" {
			c, err := wazero.NewCompilationCacheWithDir(cfg.CacheDir)
			if err != nil {
				return nil, fmt.Errorf("compilation cache %s: %w", cfg.CacheDir, err)
			}
			cache = c
			runtimeCfg = runtimeCfg.WithCompilationCache(c)
		}
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return &WazeroEngine{runtime: runtime, cache: cache}, nil
}

// LoadModule compiles wasmBytes. Compilation happens once; every Exec
// instantiates from the compiled form.
func (e *WazeroEngine) LoadModule(ctx context.Context, wasmBytes []byte) (*WazeroModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile failed: %w", err)
	}

	Logger().Debug("module compiled",
		zap.String("name", compiled.Name()),
		zap.Int("bytes", len(wasmBytes)),
		zap.Int("exports", len(compiled.ExportedFunctions())))

	return &WazeroModule{
		engine:   e,
		compiled: compiled,
	}, nil
}

func (e *WazeroEngine) Close(ctx context.Context) error {
	err := e.runtime.Close(ctx)
	if e.cache != nil {
		if cerr := e.cache.Close(ctx); err == nil {
			err = cerr
		}
	}
	return err
}

// InitWASI instantiates the WASI singleton for this engine's runtime.
// Safe for concurrent calls from multiple modules sharing the same engine.
func (e *WazeroEngine) InitWASI(ctx context.Context) error {
	if e.wasiInitDone.Load() {
		return nil
	}

	e.wasiInitMu.Lock()
	defer e.wasiInitMu.Unlock()

	if e.wasiInitDone.Load() {
		return nil
	}

	if e.runtime.Module(wasiModuleName) != nil {
		e.wasiInitDone.Store(true)
		return nil
	}

	if _, err := InstantiateWASI(ctx, e.runtime); err != nil {
		if e.runtime.Module(wasiModuleName) == nil {
			return fmt.Errorf("instantiate WASI: %w", err)
		}
	}

	e.wasiInitDone.Store(true)
	return nil
}

// WazeroModule is a compiled engine module
type WazeroModule struct {
	engine   *WazeroEngine
	compiled wazero.CompiledModule
	execs    atomic.Uint64
}

// ExportNames returns exported function names in sorted order.
func (m *WazeroModule) ExportNames() []string {
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *WazeroModule) HasExport(name string) bool {
	_, ok := m.compiled.ExportedFunctions()[name]
	return ok
}

// ImportsWASI reports whether the module imports any wasi_snapshot_preview1 function.
func (m *WazeroModule) ImportsWASI() bool {
	for _, def := range m.compiled.ImportedFunctions() {
		if mod, _, ok := def.Import(); ok && mod == wasiModuleName {
			return true
		}
	}
	return false
}

// Execs returns how many times the module has been executed.
func (m *WazeroModule) Execs() uint64 {
	return m.execs.Load()
}

// ExecConfig configures a single command execution
type ExecConfig struct {
	Args  []string
	Stdin []byte
}

// ExecResult holds the captured output of a command execution
type ExecResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode uint32
}

// Exec instantiates a fresh anonymous instance, which runs _start to
// completion, and returns its captured output. Instances never outlive the
// call, so concurrent Execs do not share guest state.
func (m *WazeroModule) Exec(ctx context.Context, cfg ExecConfig) (*ExecResult, error) {
	if err := m.engine.InitWASI(ctx); err != nil {
		return nil, err
	}
	m.execs.Add(1)

	var stdout, stderr bytes.Buffer
	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithArgs(cfg.Args...).
		WithStdin(bytes.NewReader(cfg.Stdin)).
		WithStdout(&stdout).
		WithStderr(&stderr)

	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, modCfg)
	if mod != nil {
		defer closeQuietly(ctx, mod)
	}

	res := &ExecResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *sys.ExitError
		if stderrors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			if res.ExitCode == 0 {
				return res, nil
			}
			return res, fmt.Errorf("exit code %d: %s", res.ExitCode, bytes.TrimSpace(res.Stderr))
		}
		return res, fmt.Errorf("instantiate: %w", err)
	}
	return res, nil
}

func (m *WazeroModule) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

func closeQuietly(ctx context.Context, c api.Closer) {
	if err := c.Close(ctx); err != nil {
		debugf("close instance: %v", err)
	}
}
