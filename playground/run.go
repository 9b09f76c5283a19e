package playground

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome records what one run did.
type Outcome struct {
	Result           Result
	Secondary        string
	Elapsed          time.Duration
	ID               uuid.UUID
	SecondaryInvoked bool
}

// Runner executes runs against a Binding. Runs are serialized: a run that
// starts while another is in flight waits for it to finish.
type Runner struct {
	binding *Binding
	logger  *zap.Logger
	mu      sync.Mutex
	busy    atomic.Bool
}

// NewRunner returns a Runner for b. It panics when b is nil; a Binding only
// exists once the engine has loaded.
func NewRunner(b *Binding, logger *zap.Logger) *Runner {
	if b == nil {
		panic("playground: NewRunner called with nil binding")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{binding: b, logger: logger}
}

func (r *Runner) Binding() *Binding {
	return r.binding
}

// Busy reports whether a run is in flight. Front ends use it to drop run
// triggers instead of queueing them.
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// Run compiles source and writes the result to s. Every surface is cleared
// first. On Image the primary image surface is set and, when secondary is
// requested and bound, the secondary entry point is invoked once and its raw
// return set on the secondary surface without classification. On Failure only
// the error surface is set.
func (r *Runner) Run(ctx context.Context, source string, secondary bool, s Surfaces) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy.Store(true)
	defer r.busy.Store(false)

	start := time.Now()
	out := Outcome{ID: uuid.New()}
	log := r.logger.With(zap.String("run_id", out.ID.String()))

	s.ClearAll()

	primary := r.binding.Primary()
	out.Result = Classify(primary.Invoke(ctx, source))

	switch res := out.Result.(type) {
	case Image:
		s.SetImage(SlotPrimary, res.Data)
		if ep, ok := r.binding.Secondary(); ok && secondary {
			out.Secondary = ep.Invoke(ctx, source)
			out.SecondaryInvoked = true
			s.SetImage(SlotSecondary, out.Secondary)
		}
	case Failure:
		s.SetError(res.Message)
	}

	out.Elapsed = time.Since(start)
	log.Debug("run finished",
		zap.String("entry", primary.Name()),
		zap.Bool("image", isImage(out.Result)),
		zap.Bool("secondary", out.SecondaryInvoked),
		zap.Duration("elapsed", out.Elapsed))
	return out
}

func isImage(r Result) bool {
	_, ok := r.(Image)
	return ok
}
