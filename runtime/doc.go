// Package runtime provides the high-level API for loading an engine module.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, runtime.Options{Logger: logger})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.Load(ctx, wasmBytes, `
//	    export generate-png: func(source: string) -> string;
//	    export generate-gif: func(source: string) -> string;
//	`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	png, _ := mod.EntryPoint("generate-png")
//	fmt.Println(png.Invoke(ctx, "Paper 50"))
//
// # Entry Points
//
// Core WASM modules carry no type metadata, so the entry points are declared
// in WIT text. Only func(source: string) -> string is accepted; anything else
// is rejected at load time with KindInvalidSignature.
//
// An entry point is invoked through the WASI command ABI:
//
//	argv   = [program, entry-name]
//	stdin  = source text
//	stdout = returned string
//
// # Thread Safety
//
// Runtime and Module are safe for concurrent use. Every call runs in a fresh
// instance.
package runtime
