package runtime

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/wippyai/dbn-playground/errors"
	"github.com/wippyai/dbn-playground/internal/wasmtest"
)

const twoEntries = `
export generate-png: func(source: string) -> string;
export generate-gif: func(source: string) -> string;
`

func newRuntime(t *testing.T) *Runtime {
	t.Helper()
	ctx := context.Background()
	rt, err := New(ctx, Options{Logger: zaptest.NewLogger(t)})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(func() { rt.Close(ctx) })
	return rt
}

func TestLoad_Entries(t *testing.T) {
	rt := newRuntime(t)

	mod, err := rt.Load(context.Background(), wasmtest.Command("x"), twoEntries)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if got := strings.Join(mod.Entries(), ","); got != "generate-gif,generate-png" {
		t.Errorf("Entries = %q", got)
	}
}

func TestLoad_MissingStart(t *testing.T) {
	rt := newRuntime(t)

	_, err := rt.Load(context.Background(), wasmtest.Empty, twoEntries)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindMissingExport}) {
		t.Fatalf("expected missing export error, got %v", err)
	}
}

func TestLoad_Garbage(t *testing.T) {
	rt := newRuntime(t)

	_, err := rt.Load(context.Background(), []byte{0x01, 0x02}, twoEntries)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindInvalidData}) {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestLoad_InvalidSignatures(t *testing.T) {
	tests := []struct {
		name string
		wit  string
	}{
		{"no params", "export f: func() -> string;"},
		{"two params", "export f: func(a: string, b: string) -> string;"},
		{"wrong param", "export f: func(a: u32) -> string;"},
		{"no result", "export f: func(a: string);"},
		{"wrong result", "export f: func(a: string) -> bool;"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rt := newRuntime(t)
			_, err := rt.Load(context.Background(), wasmtest.Command("x"), tc.wit)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseParse, Kind: errors.KindInvalidSignature}) {
				t.Fatalf("expected invalid signature, got %v", err)
			}
		})
	}
}

func TestParseWitFunctions(t *testing.T) {
	sigs, err := parseWitFunctions(twoEntries)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(sigs) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(sigs))
	}
	for name, sig := range sigs {
		if err := sig.validateEntry(name); err != nil {
			t.Errorf("%s: %v", name, err)
		}
		if got := sig.String(); got != "func(string) -> string" {
			t.Errorf("%s: String() = %q", name, got)
		}
	}

	if _, err := parseWitFunctions("nothing here"); err == nil {
		t.Error("expected error for text without functions")
	}

	dup := "export f: func(s: string) -> string;\nexport f: func(s: string) -> string;"
	if _, err := parseWitFunctions(dup); err == nil {
		t.Error("expected error for duplicate entry")
	}
}

func TestSplitParams(t *testing.T) {
	got := splitParams("a: string, b: list<tuple<u8, u8>>, c: u32")
	if len(got) != 3 {
		t.Fatalf("expected 3 params, got %d: %q", len(got), got)
	}
	if got[1] != "b: list<tuple<u8, u8>>" {
		t.Errorf("nested param = %q", got[1])
	}
}

func TestModule_Call(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	const image = "data:image/png;base64,AAAA"
	mod, err := rt.Load(ctx, wasmtest.Command(image), twoEntries)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	out, err := mod.Call(ctx, "generate-png", "Paper 50")
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if out != image {
		t.Errorf("Call = %q, want %q", out, image)
	}

	if _, err := mod.Call(ctx, "generate-svg", ""); !stderrors.Is(err, &errors.Error{Phase: errors.PhaseEngine, Kind: errors.KindNotFound}) {
		t.Errorf("expected not found for undeclared entry, got %v", err)
	}
}

func TestEntryPoint_FoldsFailures(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	mod, err := rt.Load(ctx, wasmtest.Trap(), twoEntries)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	ep, err := mod.EntryPoint("generate-png")
	if err != nil {
		t.Fatalf("EntryPoint error: %v", err)
	}
	if ep.Name() != "generate-png" {
		t.Errorf("Name = %q", ep.Name())
	}

	out := ep.Invoke(ctx, "Paper 50")
	if !strings.HasPrefix(out, "generate-png: ") {
		t.Errorf("Invoke = %q, want folded failure message", out)
	}
	if strings.HasPrefix(out, "data:") {
		t.Error("failure must not look like an image")
	}

	if _, err := mod.EntryPoint("missing"); err == nil {
		t.Error("expected error for unknown entry point")
	}
}
