// Command dbn-wasm is the DBN engine as a WASI command module. The entry
// point name is argv[1], the program source is read from stdin and the
// result string is written to stdout:
//
//	GOOS=wasip1 GOARCH=wasm go build -o dbn.wasm ./cmd/dbn-wasm
//
// A native build speaks the same protocol, which is handy for debugging
// engine output without a wasm runtime.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wippyai/dbn-playground/dbn"
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(stderr, "usage: dbn-wasm ENTRY < source")
		return 2
	}

	generate, ok := dbn.NewEngine(dbn.Config{}).Entry(args[1])
	if !ok {
		fmt.Fprintf(stderr, "unknown entry point %q\n", args[1])
		return 2
	}

	src, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintf(stderr, "read source: %v\n", err)
		return 1
	}

	if _, err := io.WriteString(stdout, generate(context.Background(), string(src))); err != nil {
		return 1
	}
	return 0
}
