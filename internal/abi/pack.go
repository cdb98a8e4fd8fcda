// Package abi moves byte slices across the WebAssembly boundary as a packed
// pointer and length.
package abi

import "fmt"

// PtrHighBits is the shift of the pointer half of a packed value.
const PtrHighBits = 32

// PackPtrLen packs a pointer and length into one uint64, pointer high.
// A null pointer with a non-zero length panics.
func PackPtrLen(ptr, length uint32) uint64 {
	if ptr == 0 && length > 0 {
		panic(fmt.Sprintf("abi: null pointer with length %d", length))
	}
	return uint64(ptr)<<PtrHighBits | uint64(length)
}

// UnpackPtrLen reverses PackPtrLen.
func UnpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr, length = uint32(packed>>PtrHighBits), uint32(packed)
	if ptr == 0 && length > 0 {
		panic(fmt.Sprintf("abi: null pointer with length %d", length))
	}
	return ptr, length
}
