// Package engine provides the low-level wazero integration for engine modules.
//
// An engine module is a WASI preview1 command (for example a Go program built
// with GOOS=wasip1 GOARCH=wasm). The host talks to it through the command ABI
// only: argv selects the entry point, stdin carries the source text and stdout
// carries the returned string. No canonical ABI or shared memory is involved.
//
// # Architecture
//
//	WazeroEngine  - Owns a wazero runtime, the WASI host module and an optional
//	                compilation cache
//	WazeroModule  - A compiled module; Exec instantiates it once per call
//
// # Execution Flow
//
//  1. WazeroEngine.LoadModule() compiles and validates the binary
//  2. WazeroModule.Exec() lazily instantiates wasi_snapshot_preview1 once
//  3. Exec instantiates an anonymous instance, which runs _start
//  4. proc_exit(0) or a normal return is success; any other exit code or a
//     trap is returned as an error together with the captured output
//
// # Thread Safety
//
// WazeroEngine and WazeroModule are safe for concurrent use. Each Exec gets
// its own instance, stdin and output buffers.
package engine
