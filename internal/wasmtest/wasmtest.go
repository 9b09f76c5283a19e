// Package wasmtest assembles tiny WASI command modules for engine tests, so
// tests do not depend on a Go toolchain producing a wasip1 binary.
package wasmtest

// Empty is a valid module with no imports and no exports.
var Empty = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
}

// Command returns a WASI command module whose _start writes out to stdout via
// fd_write and returns. Equivalent WAT:
//
//	(module
//	  (import "wasi_snapshot_preview1" "fd_write" (func (param i32 i32 i32 i32) (result i32)))
//	  (memory (export "memory") 1)
//	  (data (i32.const 8) "<iovec: ptr=16 len=len(out)>")
//	  (data (i32.const 16) "<out>")
//	  (func (export "_start")
//	    (drop (call 0 (i32.const 1) (i32.const 8) (i32.const 1) (i32.const 0)))))
func Command(out string) []byte {
	body := []byte{
		0x00,       // no locals
		0x41, 0x01, // i32.const 1 (stdout)
		0x41, 0x08, // i32.const 8 (iovec)
		0x41, 0x01, // i32.const 1 (iovec count)
		0x41, 0x00, // i32.const 0 (nwritten)
		0x10, 0x00, // call fd_write
		0x1a, // drop
		0x0b, // end
	}
	return assemble(out, body)
}

// Trap returns a WASI command module whose _start hits unreachable.
func Trap() []byte {
	body := []byte{
		0x00, // no locals
		0x00, // unreachable
		0x0b, // end
	}
	return assemble("", body)
}

func assemble(out string, startBody []byte) []byte {
	m := append([]byte(nil), Empty...)

	// types: 0 = (i32 i32 i32 i32) -> i32, 1 = () -> ()
	m = appendSection(m, 0x01, []byte{
		0x02,
		0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x01, 0x7f,
		0x60, 0x00, 0x00,
	})

	imports := []byte{0x01}
	imports = appendName(imports, "wasi_snapshot_preview1")
	imports = appendName(imports, "fd_write")
	imports = append(imports, 0x00, 0x00) // func, type 0
	m = appendSection(m, 0x02, imports)

	m = appendSection(m, 0x03, []byte{0x01, 0x01})       // one func of type 1
	m = appendSection(m, 0x05, []byte{0x01, 0x00, 0x01}) // one memory, min 1 page

	exports := []byte{0x02}
	exports = appendName(exports, "memory")
	exports = append(exports, 0x02, 0x00)
	exports = appendName(exports, "_start")
	exports = append(exports, 0x00, 0x01) // func index 1 (after the import)
	m = appendSection(m, 0x07, exports)

	code := []byte{0x01}
	code = appendULEB(code, uint32(len(startBody)))
	code = append(code, startBody...)
	m = appendSection(m, 0x0a, code)

	iovec := []byte{0x10, 0x00, 0x00, 0x00}
	iovec = appendU32LE(iovec, uint32(len(out)))
	data := []byte{0x02}
	data = append(data, 0x00, 0x41, 0x08, 0x0b) // active, offset i32.const 8
	data = appendULEB(data, uint32(len(iovec)))
	data = append(data, iovec...)
	data = append(data, 0x00, 0x41, 0x10, 0x0b) // active, offset i32.const 16
	data = appendULEB(data, uint32(len(out)))
	data = append(data, out...)
	m = appendSection(m, 0x0b, data)

	return m
}

func appendSection(m []byte, id byte, content []byte) []byte {
	m = append(m, id)
	m = appendULEB(m, uint32(len(content)))
	return append(m, content...)
}

func appendName(b []byte, name string) []byte {
	b = appendULEB(b, uint32(len(name)))
	return append(b, name...)
}

func appendULEB(b []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b = append(b, c|0x80)
			continue
		}
		return append(b, c)
	}
}

func appendU32LE(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
