package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/dbn-playground/engine"
	"github.com/wippyai/dbn-playground/errors"
)

// DefaultProgramName is argv[0] passed to engine modules.
const DefaultProgramName = "dbn-engine"

// Options configures a Runtime.
type Options struct {
	Logger      *zap.Logger
	ProgramName string
	Engine      engine.Config
}

type Runtime struct {
	engine  *engine.WazeroEngine
	logger  *zap.Logger
	program string
}

func New(ctx context.Context, opts Options) (*Runtime, error) {
	eng, err := engine.NewWazeroEngineWithConfig(ctx, &opts.Engine)
	if err != nil {
		return nil, errors.Load("create engine", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	program := opts.ProgramName
	if program == "" {
		program = DefaultProgramName
	}

	return &Runtime{
		engine:  eng,
		logger:  logger,
		program: program,
	}, nil
}

// Close releases all runtime resources, including compiled modules.
func (r *Runtime) Close(ctx context.Context) error {
	return r.engine.Close(ctx)
}

// Load compiles an engine module and binds the entry points declared in
// witText. Every declared entry must have the signature
// func(source: string) -> string, and the module must be a WASI command.
func (r *Runtime) Load(ctx context.Context, wasm []byte, witText string) (*Module, error) {
	sigs, err := parseWitFunctions(witText)
	if err != nil {
		return nil, err
	}
	for name, sig := range sigs {
		if err := sig.validateEntry(name); err != nil {
			return nil, err
		}
	}

	wazeroModule, err := r.engine.LoadModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("load module", err)
	}

	if !wazeroModule.HasExport(engine.StartExport) {
		return nil, errors.MissingExport(engine.StartExport)
	}
	if !wazeroModule.ImportsWASI() {
		r.logger.Warn("engine module does not import WASI; it cannot read source or write results")
	}

	r.logger.Info("engine module loaded",
		zap.Int("bytes", len(wasm)),
		zap.Strings("entries", sortedKeys(sigs)))

	return &Module{
		runtime:      r,
		wazeroModule: wazeroModule,
		funcTypes:    sigs,
	}, nil
}
