package playground

import (
	"context"

	"github.com/wippyai/dbn-playground/errors"
)

// EntryPoint is one compile function exposed by an engine. Invoke never
// fails: engine errors are part of the returned string.
type EntryPoint interface {
	Name() string
	Invoke(ctx context.Context, source string) string
}

type entryFunc struct {
	name string
	fn   func(ctx context.Context, source string) string
}

func (e entryFunc) Name() string { return e.name }

func (e entryFunc) Invoke(ctx context.Context, source string) string {
	return e.fn(ctx, source)
}

// EntryFunc adapts an in-process function to EntryPoint.
func EntryFunc(name string, fn func(ctx context.Context, source string) string) EntryPoint {
	return entryFunc{name: name, fn: fn}
}

// Binding is the handle to a ready engine. Only NewBinding produces one, so
// holding a Binding means the engine finished loading.
type Binding struct {
	primary   EntryPoint
	secondary EntryPoint
}

// NewBinding binds a primary entry point and an optional secondary one.
// secondary may be nil.
func NewBinding(primary, secondary EntryPoint) (*Binding, error) {
	if primary == nil {
		return nil, errors.InvalidInput(errors.PhaseBootstrap, "binding requires a primary entry point")
	}
	return &Binding{primary: primary, secondary: secondary}, nil
}

// Primary returns the primary entry point.
func (b *Binding) Primary() EntryPoint {
	return b.primary
}

// Secondary returns the secondary entry point and whether one is bound.
func (b *Binding) Secondary() (EntryPoint, bool) {
	return b.secondary, b.secondary != nil
}

// HasSecondary reports whether a secondary entry point is bound.
func (b *Binding) HasSecondary() bool {
	return b.secondary != nil
}
