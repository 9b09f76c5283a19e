package playground

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wippyai/dbn-playground/catalog"
	"github.com/wippyai/dbn-playground/errors"
)

const pngURI = "data:image/png;base64,AAAA"

// stubEntry counts invocations and returns fixed output per source.
type stubEntry struct {
	name    string
	outputs map[string]string
	calls   atomic.Int32
	mu      sync.Mutex
	sources []string
}

func newStub(name string, outputs map[string]string) *stubEntry {
	return &stubEntry{name: name, outputs: outputs}
}

func (s *stubEntry) Name() string { return s.name }

func (s *stubEntry) Invoke(_ context.Context, source string) string {
	s.calls.Add(1)
	s.mu.Lock()
	s.sources = append(s.sources, source)
	s.mu.Unlock()
	if out, ok := s.outputs[source]; ok {
		return out
	}
	return "unexpected source"
}

func mapFetcher(contents map[string]string) catalog.Fetcher {
	return catalog.FetcherFunc(func(_ context.Context, name string) (string, error) {
		c, ok := contents[name]
		if !ok {
			return "", fmt.Errorf("no such example %q", name)
		}
		return c, nil
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		raw  string
		want Result
	}{
		{pngURI, Image{Data: pngURI}},
		{"data:image/gif;base64,R0lG", Image{Data: "data:image/gif;base64,R0lG"}},
		{"data:", Image{Data: "data:"}},
		{"line 1: unexpected token", Failure{Message: "line 1: unexpected token"}},
		{"", Failure{Message: ""}},
		{" data:image/png", Failure{Message: " data:image/png"}},
		{"Data:image/png", Failure{Message: "Data:image/png"}},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.raw))
		})
	}
}

func TestNewBinding(t *testing.T) {
	_, err := NewBinding(nil, nil)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseBootstrap, Kind: errors.KindInvalidInput}))

	b, err := NewBinding(EntryFunc("p", func(context.Context, string) string { return "" }), nil)
	require.NoError(t, err)
	assert.Equal(t, "p", b.Primary().Name())
	assert.False(t, b.HasSecondary())
	_, ok := b.Secondary()
	assert.False(t, ok)
}

func TestNewRunner_NilBindingPanics(t *testing.T) {
	assert.Panics(t, func() { NewRunner(nil, nil) })
}

func TestSelect_ScenarioA(t *testing.T) {
	cat := catalog.MustNew("a.dsl")
	cat.Fetch(context.Background(), mapFetcher(map[string]string{"a.dsl": "circle"}), catalog.FetchOptions{})

	st, err := Select(cat, State{}, "a.dsl")
	require.NoError(t, err)
	assert.Equal(t, State{Selected: "a.dsl", Text: "circle"}, st)
}

func TestSelect_UnsetContentIsEmpty(t *testing.T) {
	cat := catalog.MustNew("ok.dbn", "bad.dbn")
	cat.Fetch(context.Background(), mapFetcher(map[string]string{"ok.dbn": "Paper 10"}), catalog.FetchOptions{})

	st, err := Select(cat, State{Selected: "ok.dbn", Text: "Paper 10"}, "bad.dbn")
	require.NoError(t, err)
	assert.Equal(t, State{Selected: "bad.dbn", Text: ""}, st)
}

func TestSelect_UnknownName(t *testing.T) {
	cat := catalog.MustNew("a.dbn")
	prev := State{Selected: "a.dbn", Text: "keep"}

	st, err := Select(cat, prev, "nope.dbn")
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseSelect, Kind: errors.KindNotFound}))
	assert.Equal(t, prev, st)
}

func TestRun_ScenarioB(t *testing.T) {
	primary := newStub("generate-png", map[string]string{"circle": pngURI})
	b, _ := NewBinding(primary, nil)
	r := NewRunner(b, zaptest.NewLogger(t))

	board := &Board{}
	board.SetError("stale error")
	out := r.Run(context.Background(), "circle", false, board)

	assert.Equal(t, Image{Data: pngURI}, out.Result)
	assert.Equal(t, BoardSnapshot{Primary: pngURI}, board.Snapshot())
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.NotEqual(t, [16]byte{}, [16]byte(out.ID))
}

func TestRun_ScenarioC(t *testing.T) {
	primary := newStub("generate-png", map[string]string{"???": "line 1: unexpected token"})
	secondary := newStub("generate-gif", nil)
	b, _ := NewBinding(primary, secondary)
	r := NewRunner(b, zaptest.NewLogger(t))

	board := &Board{}
	board.SetImage(SlotPrimary, "data:old")
	board.SetImage(SlotSecondary, "data:old")
	out := r.Run(context.Background(), "???", true, board)

	assert.Equal(t, Failure{Message: "line 1: unexpected token"}, out.Result)
	assert.Equal(t, BoardSnapshot{Error: "line 1: unexpected token"}, board.Snapshot())
	assert.False(t, out.SecondaryInvoked)
	assert.Equal(t, int32(0), secondary.calls.Load())
}

func TestRun_ScenarioD(t *testing.T) {
	const gifURI = "data:image/gif;base64,R0lG"

	tests := []struct {
		name      string
		toggle    bool
		wantCalls int32
		want      BoardSnapshot
	}{
		{"toggle on", true, 1, BoardSnapshot{Primary: pngURI, Secondary: gifURI}},
		{"toggle off", false, 0, BoardSnapshot{Primary: pngURI}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			primary := newStub("generate-png", map[string]string{"circle": pngURI})
			secondary := newStub("generate-gif", map[string]string{"circle": gifURI})
			b, _ := NewBinding(primary, secondary)
			r := NewRunner(b, nil)

			board := &Board{}
			out := r.Run(context.Background(), "circle", tc.toggle, board)

			assert.Equal(t, tc.wantCalls, secondary.calls.Load())
			assert.Equal(t, tc.toggle, out.SecondaryInvoked)
			assert.Equal(t, tc.want, board.Snapshot())
			if tc.toggle {
				assert.Equal(t, []string{"circle"}, secondary.sources)
			}
		})
	}
}

func TestRun_SecondaryIsNotClassified(t *testing.T) {
	primary := newStub("generate-png", map[string]string{"x": pngURI})
	secondary := newStub("generate-gif", map[string]string{"x": "too many frames"})
	b, _ := NewBinding(primary, secondary)

	board := &Board{}
	out := NewRunner(b, nil).Run(context.Background(), "x", true, board)

	assert.Equal(t, "too many frames", out.Secondary)
	assert.Equal(t, BoardSnapshot{Primary: pngURI, Secondary: "too many frames"}, board.Snapshot())
}

func TestRun_SecondaryRequestedButUnbound(t *testing.T) {
	primary := newStub("generate-png", map[string]string{"x": pngURI})
	b, _ := NewBinding(primary, nil)

	board := &Board{}
	out := NewRunner(b, nil).Run(context.Background(), "x", true, board)

	assert.False(t, out.SecondaryInvoked)
	assert.Equal(t, BoardSnapshot{Primary: pngURI}, board.Snapshot())
}

func TestRun_EmptySourceIsPassedThrough(t *testing.T) {
	primary := newStub("generate-png", map[string]string{"": "empty program"})
	b, _ := NewBinding(primary, nil)

	out := NewRunner(b, nil).Run(context.Background(), "", false, &Board{})
	assert.Equal(t, Failure{Message: "empty program"}, out.Result)
	assert.Equal(t, []string{""}, primary.sources)
}

// At most one of the image surfaces and the error surface is populated
// after any run, whatever the previous board held.
func TestRun_SurfacesAreExclusive(t *testing.T) {
	outputs := map[string]string{
		"img":  pngURI,
		"err":  "1:1: syntax error",
		"":     "",
		"data": "data:",
	}
	primary := newStub("p", outputs)
	secondary := newStub("s", map[string]string{"img": "data:gif", "data": "data:gif"})
	b, _ := NewBinding(primary, secondary)
	r := NewRunner(b, nil)
	board := &Board{}

	sequence := []string{"img", "err", "img", "", "data", "err", "err", "img"}
	for i, src := range sequence {
		r.Run(context.Background(), src, i%2 == 0, board)
		snap := board.Snapshot()
		images := snap.Primary != "" || snap.Secondary != ""
		assert.False(t, images && snap.Error != "", "run %d (%q): %+v", i, src, snap)
	}
}

func TestRun_Idempotent(t *testing.T) {
	primary := newStub("p", map[string]string{"img": pngURI, "err": "1:1: syntax error"})
	secondary := newStub("s", map[string]string{"img": "data:image/gif;base64,R0lG"})
	b, _ := NewBinding(primary, secondary)
	r := NewRunner(b, nil)

	for _, src := range []string{"img", "err"} {
		for _, sec := range []bool{false, true} {
			board := &Board{}
			first := r.Run(context.Background(), src, sec, board)
			firstSnap := board.Snapshot()

			second := r.Run(context.Background(), src, sec, board)
			assert.Equal(t, first.Result, second.Result, "%s/%v", src, sec)
			assert.Equal(t, first.Secondary, second.Secondary, "%s/%v", src, sec)
			assert.Equal(t, first.SecondaryInvoked, second.SecondaryInvoked, "%s/%v", src, sec)
			assert.Equal(t, firstSnap, board.Snapshot(), "%s/%v", src, sec)
		}
	}
}

// Surfaces are already empty when the engine is invoked, whether the
// previous run left an image or an error behind.
func TestRun_ClearsBeforeInvoke(t *testing.T) {
	board := &Board{}
	var seen []BoardSnapshot
	primary := EntryFunc("p", func(_ context.Context, source string) string {
		seen = append(seen, board.Snapshot())
		if source == "img" {
			return pngURI
		}
		return "1:1: syntax error"
	})
	secondary := EntryFunc("s", func(context.Context, string) string {
		return "data:image/gif;base64,R0lG"
	})
	b, _ := NewBinding(primary, secondary)
	r := NewRunner(b, nil)

	r.Run(context.Background(), "img", true, board)
	require.NotEmpty(t, board.Snapshot().Primary)
	require.NotEmpty(t, board.Snapshot().Secondary)

	r.Run(context.Background(), "err", true, board)
	require.NotEmpty(t, board.Snapshot().Error)

	r.Run(context.Background(), "img", false, board)

	require.Len(t, seen, 3)
	for i, snap := range seen {
		assert.True(t, snap.Empty(), "invoke %d saw %+v", i, snap)
	}
}

func TestRun_Serialized(t *testing.T) {
	var inFlight, peak atomic.Int32
	slow := EntryFunc("slow", func(context.Context, string) string {
		n := inFlight.Add(1)
		if n > peak.Load() {
			peak.Store(n)
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return pngURI
	})
	b, _ := NewBinding(slow, nil)
	r := NewRunner(b, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Run(context.Background(), "x", false, &Board{})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
	assert.False(t, r.Busy())
}

func TestBootstrap(t *testing.T) {
	cat := catalog.MustNew("a.dbn", "b.dbn", "broken.dbn")
	primary := newStub("generate-png", map[string]string{"Paper 10": pngURI})

	s, err := Bootstrap(context.Background(), BootstrapConfig{
		Engine: func(context.Context) (*Binding, error) {
			return NewBinding(primary, nil)
		},
		Catalog: cat,
		Fetcher: mapFetcher(map[string]string{"a.dbn": "Paper 10", "b.dbn": "Paper 20"}),
		Default: "b.dbn",
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	assert.Equal(t, []Option{
		{Value: "a.dbn", Label: "a.dbn"},
		{Value: "b.dbn", Label: "b.dbn"},
		{Value: "broken.dbn", Label: "broken.dbn"},
	}, s.Options())
	assert.Equal(t, State{Selected: "b.dbn", Text: "Paper 20"}, s.Initial())
	assert.Contains(t, s.Report().Failed, "broken.dbn")

	// Every example selects to exactly its fetched content.
	for _, opt := range s.Options() {
		ex, _ := cat.Lookup(opt.Value)
		st, err := Select(s.Catalog(), State{}, opt.Value)
		require.NoError(t, err)
		assert.Equal(t, ex.Text(), st.Text)
	}
}

func TestBootstrap_NoDefault(t *testing.T) {
	s, err := Bootstrap(context.Background(), BootstrapConfig{
		Engine: func(context.Context) (*Binding, error) {
			return NewBinding(newStub("p", nil), nil)
		},
		Catalog: catalog.MustNew("a.dbn"),
		Fetcher: mapFetcher(map[string]string{"a.dbn": "Paper 1"}),
	})
	require.NoError(t, err)
	assert.Equal(t, State{}, s.Initial())
}

func TestBootstrap_EngineFailureIsFatal(t *testing.T) {
	var fetched atomic.Bool
	s, err := Bootstrap(context.Background(), BootstrapConfig{
		Engine: func(context.Context) (*Binding, error) {
			return nil, fmt.Errorf("bad magic number")
		},
		Catalog: catalog.MustNew("a.dbn"),
		Fetcher: catalog.FetcherFunc(func(context.Context, string) (string, error) {
			fetched.Store(true)
			return "", nil
		}),
	})
	assert.Nil(t, s)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseBootstrap, Kind: errors.KindInstantiation}))
	assert.ErrorContains(t, err, "bad magic number")
	assert.True(t, fetched.Load(), "catalog fetch still settles")
}

func TestBootstrap_NilBindingIsFatal(t *testing.T) {
	_, err := Bootstrap(context.Background(), BootstrapConfig{
		Engine:  func(context.Context) (*Binding, error) { return nil, nil },
		Catalog: catalog.MustNew(),
		Fetcher: mapFetcher(nil),
	})
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseBootstrap, Kind: errors.KindInstantiation}))
}

func TestBootstrap_RunsConcurrently(t *testing.T) {
	engineStarted := make(chan struct{})
	fetchStarted := make(chan struct{})

	_, err := Bootstrap(context.Background(), BootstrapConfig{
		Engine: func(context.Context) (*Binding, error) {
			close(engineStarted)
			<-fetchStarted
			return NewBinding(newStub("p", nil), nil)
		},
		Catalog: catalog.MustNew("a.dbn"),
		Fetcher: catalog.FetcherFunc(func(context.Context, string) (string, error) {
			close(fetchStarted)
			<-engineStarted
			return "Paper 0", nil
		}),
	})
	require.NoError(t, err)
}

func TestBootstrap_BadDefault(t *testing.T) {
	_, err := Bootstrap(context.Background(), BootstrapConfig{
		Engine: func(context.Context) (*Binding, error) {
			t.Fatal("engine must not load with an invalid default")
			return nil, nil
		},
		Catalog: catalog.MustNew("lines.dbn", "paper.dbn"),
		Fetcher: mapFetcher(nil),
		Default: "line.dbn",
	})
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindConfig}))
	assert.ErrorContains(t, err, `did you mean "lines.dbn"`)
}

func TestBootstrap_RequiresCollaborators(t *testing.T) {
	_, err := Bootstrap(context.Background(), BootstrapConfig{})
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseBootstrap, Kind: errors.KindInvalidInput}))
}

func TestDispatcher(t *testing.T) {
	primary := newStub("p", map[string]string{"Paper 10": pngURI})
	s, err := Bootstrap(context.Background(), BootstrapConfig{
		Engine:  func(context.Context) (*Binding, error) { return NewBinding(primary, nil) },
		Catalog: catalog.MustNew("a.dbn"),
		Fetcher: mapFetcher(map[string]string{"a.dbn": "Paper 10"}),
	})
	require.NoError(t, err)

	board := &Board{}
	d := s.Dispatcher(board)
	ctx := context.Background()

	st, err := d.Dispatch(ctx, s.Initial(), SelectionChanged{Name: "a.dbn"})
	require.NoError(t, err)
	assert.Equal(t, "Paper 10", st.Text)

	st, err = d.Dispatch(ctx, st, RunRequested{Source: st.Text})
	require.NoError(t, err)
	assert.Equal(t, pngURI, board.Snapshot().Primary)
	assert.Equal(t, "a.dbn", st.Selected)

	_, err = d.Dispatch(ctx, st, SelectionChanged{Name: "zzz"})
	assert.Error(t, err)
}

type unknownEvent struct{}

func (unknownEvent) Trigger() Trigger { return "unknown" }

func TestDispatcher_NoHandler(t *testing.T) {
	d := NewDispatcher(nil)
	st := State{Selected: "a"}
	got, err := d.Dispatch(context.Background(), st, unknownEvent{})
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseRun, Kind: errors.KindNotFound}))
	assert.Equal(t, st, got)
}
