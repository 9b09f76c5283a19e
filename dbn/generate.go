package dbn

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/gif"
	"image/png"
	"io/fs"
	"strings"

	"github.com/wippyai/dbn-playground/playground"
)

// Entry point names, shared with the WASM build.
const (
	EntryPNG = "generate-png"
	EntryGIF = "generate-gif"
)

// DefaultMaxFrames bounds the animation produced by GenerateGIF.
const DefaultMaxFrames = 200

// sourceName labels diagnostics for programs passed as text.
const sourceName = "input"

// Config configures an Engine.
type Config struct {
	// FS resolves Load statements. Nil disables Load.
	FS        fs.FS
	Scale     int
	MaxFrames int
}

// Engine compiles DBN source into data URIs. It is stateless and safe for
// concurrent use.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	if cfg.MaxFrames <= 0 {
		cfg.MaxFrames = DefaultMaxFrames
	}
	return &Engine{cfg: cfg}
}

var defaultEngine = NewEngine(Config{})

// GeneratePNG compiles source with the default engine.
func GeneratePNG(source string) string {
	return defaultEngine.GeneratePNG(context.Background(), source)
}

// GenerateGIF compiles source into an animation with the default engine.
func GenerateGIF(source string) string {
	return defaultEngine.GenerateGIF(context.Background(), source)
}

// GeneratePNG returns a data:image/png URI, or the diagnostics joined by
// newlines.
func (e *Engine) GeneratePNG(ctx context.Context, source string) (out string) {
	defer recoverInto(&out)

	r, err := Eval(ctx, strings.NewReader(source), sourceName, Options{FS: e.cfg.FS, Scale: e.cfg.Scale})
	if err != nil {
		return err.Error()
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.Image); err != nil {
		return err.Error()
	}
	return dataURI("image/png", buf.Bytes())
}

// GenerateGIF returns a data:image/gif URI with one frame per drawing
// statement, or the diagnostics joined by newlines.
func (e *Engine) GenerateGIF(ctx context.Context, source string) (out string) {
	defer recoverInto(&out)

	r, err := Eval(ctx, strings.NewReader(source), sourceName, Options{
		FS:        e.cfg.FS,
		Scale:     e.cfg.Scale,
		GIF:       true,
		MaxFrames: e.cfg.MaxFrames,
	})
	if err != nil {
		return err.Error()
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, r.GIF); err != nil {
		return err.Error()
	}
	return dataURI("image/gif", buf.Bytes())
}

// EntryPoints returns the PNG entry point and the GIF entry point.
func (e *Engine) EntryPoints() (primary, secondary playground.EntryPoint) {
	return playground.EntryFunc(EntryPNG, e.GeneratePNG), playground.EntryFunc(EntryGIF, e.GenerateGIF)
}

// Binding binds PNG as the primary output and, when withGIF is set, GIF as
// the secondary output.
func (e *Engine) Binding(withGIF bool) *playground.Binding {
	primary, secondary := e.EntryPoints()
	if !withGIF {
		secondary = nil
	}
	b, _ := playground.NewBinding(primary, secondary)
	return b
}

// Entry returns the generator registered under name.
func (e *Engine) Entry(name string) (func(context.Context, string) string, bool) {
	switch name {
	case EntryPNG:
		return e.GeneratePNG, true
	case EntryGIF:
		return e.GenerateGIF, true
	}
	return nil, false
}

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func recoverInto(out *string) {
	if r := recover(); r != nil {
		*out = fmt.Sprintf("internal error: %v", r)
	}
}
