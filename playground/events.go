package playground

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/dbn-playground/errors"
)

// Trigger names a user interaction.
type Trigger string

const (
	TriggerSelectionChanged Trigger = "selection-changed"
	TriggerRunRequested     Trigger = "run-requested"
)

// Event is a user interaction delivered to the Dispatcher.
type Event interface {
	Trigger() Trigger
}

// SelectionChanged is raised when the user picks an example.
type SelectionChanged struct {
	Name string
}

// RunRequested is raised when the user asks to compile the current text.
type RunRequested struct {
	Source    string
	Secondary bool
}

func (SelectionChanged) Trigger() Trigger { return TriggerSelectionChanged }
func (RunRequested) Trigger() Trigger     { return TriggerRunRequested }

// Handler applies an event to the state and returns the new state.
type Handler func(ctx context.Context, st State, ev Event) (State, error)

// Dispatcher routes events to the handler registered for their trigger.
type Dispatcher struct {
	logger   *zap.Logger
	handlers map[Trigger]Handler
	mu       sync.RWMutex
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{logger: logger, handlers: make(map[Trigger]Handler)}
}

// On registers h for t, replacing any previous handler.
func (d *Dispatcher) On(t Trigger, h Handler) {
	d.mu.Lock()
	d.handlers[t] = h
	d.mu.Unlock()
}

// Dispatch applies ev to st. On error st is returned unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, st State, ev Event) (State, error) {
	d.mu.RLock()
	h, ok := d.handlers[ev.Trigger()]
	d.mu.RUnlock()
	if !ok {
		return st, errors.New(errors.PhaseRun, errors.KindNotFound).
			Path(string(ev.Trigger())).
			Detail("no handler for trigger %q", ev.Trigger()).
			Build()
	}

	d.logger.Debug("dispatch", zap.String("trigger", string(ev.Trigger())))
	next, err := h(ctx, st, ev)
	if err != nil {
		return st, err
	}
	return next, nil
}
