package testutil

import (
	"bytes"
)

// Transaction codes understood by the module ServiceModule builds.
const (
	WasmCodeTrap = 99
	WasmCodeSpin = 7
)

// Linear memory layout of the ServiceModule.
const (
	wasmDescriptorAt = 256
	wasmReplyAt      = 512
	wasmAllocAt      = 4096
)

// ServiceModule assembles a minimal service module exporting memory,
// allocate, interface_descriptor and transact. The descriptor is served
// from a data segment. transact traps on WasmCodeTrap, spins forever on
// WasmCodeSpin, and otherwise replies with a bare success status.
func ServiceModule(descriptor string) []byte {
	const (
		i32 = 0x7f
		i64 = 0x7e
	)
	types := section(0x01, vec(
		[]byte{0x60, 1, i32, 1, i32},
		[]byte{0x60, 0, 1, i64},
		[]byte{0x60, 3, i32, i64, i32, 1, i64},
	))
	funcs := section(0x03, vec([]byte{0}, []byte{1}, []byte{2}))
	memory := section(0x05, vec([]byte{0x00, 0x01}))
	exports := section(0x07, vec(
		cat(name("memory"), []byte{0x02, 0}),
		cat(name("allocate"), []byte{0x00, 0}),
		cat(name("interface_descriptor"), []byte{0x00, 1}),
		cat(name("transact"), []byte{0x00, 2}),
	))

	allocate := cat([]byte{0x41}, sleb(wasmAllocAt), []byte{0x0b})
	describe := cat([]byte{0x42}, sleb(packed(wasmDescriptorAt, len(descriptor))), []byte{0x0b})
	transact := cat(
		// if code == WasmCodeTrap { unreachable }
		[]byte{0x20, 0x00, 0x41}, sleb(WasmCodeTrap), []byte{0x46, 0x04, 0x40, 0x00, 0x0b},
		// if code == WasmCodeSpin { loop { br 0 } }
		[]byte{0x20, 0x00, 0x41}, sleb(WasmCodeSpin), []byte{0x46, 0x04, 0x40, 0x03, 0x40, 0x0c, 0x00, 0x0b, 0x0b},
		[]byte{0x42}, sleb(packed(wasmReplyAt, 4)), []byte{0x0b},
	)
	code := section(0x0a, vec(body(allocate), body(describe), body(transact)))

	data := section(0x0b, vec(cat(
		[]byte{0x00, 0x41}, sleb(wasmDescriptorAt), []byte{0x0b},
		uleb(uint64(len(descriptor))), []byte(descriptor),
	)))

	return cat([]byte("\x00asm\x01\x00\x00\x00"), types, funcs, memory, exports, code, data)
}

// EmptyModule is a valid module with no exports.
func EmptyModule() []byte {
	return []byte("\x00asm\x01\x00\x00\x00")
}

func packed(ptr, length int) int64 {
	return int64(uint64(ptr)<<32 | uint64(length))
}

func body(instrs []byte) []byte {
	fn := append([]byte{0x00}, instrs...) // no locals
	return cat(uleb(uint64(len(fn))), fn)
}

func section(id byte, payload []byte) []byte {
	return cat([]byte{id}, uleb(uint64(len(payload))), payload)
}

func vec(items ...[]byte) []byte {
	return cat(uleb(uint64(len(items))), bytes.Join(items, nil))
}

func name(s string) []byte {
	return cat(uleb(uint64(len(s))), []byte(s))
}

func cat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
