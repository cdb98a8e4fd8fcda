//go:build wasip1

package abi

import (
	"fmt"
	"sync"
	"unsafe"
)

// MaxTotalAllocations caps the bytes a guest keeps pinned for the host.
const MaxTotalAllocations = 64 << 20

// pinned keeps host-visible buffers reachable until they are released.
var pinned = struct {
	sync.Mutex
	bufs  map[uint32][]byte
	total int
}{bufs: make(map[uint32][]byte)}

//go:wasmexport allocate
func allocate(size uint32) uint32 {
	if size == 0 {
		return 0
	}
	pinned.Lock()
	defer pinned.Unlock()

	if pinned.total+int(size) > MaxTotalAllocations {
		panic(fmt.Sprintf("abi: allocation of %d bytes exceeds limit (%d pinned)", size, pinned.total))
	}
	buf := make([]byte, size)
	ptr := uint32(uintptr(unsafe.Pointer(&buf[0])))
	pinned.bufs[ptr] = buf
	pinned.total += int(size)
	return ptr
}

//go:wasmexport deallocate
func deallocate(ptr uint32, _ uint32) {
	pinned.Lock()
	defer pinned.Unlock()

	if buf, ok := pinned.bufs[ptr]; ok {
		delete(pinned.bufs, ptr)
		pinned.total -= len(buf)
	}
}

// PtrFromBytes copies data into a pinned buffer and returns it packed.
func PtrFromBytes(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	ptr := allocate(uint32(len(data)))
	//nolint:gosec // G103: linear memory offset
	copy(unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), len(data)), data)
	return PackPtrLen(ptr, uint32(len(data)))
}

// BytesFromPtr copies the packed region out of linear memory.
func BytesFromPtr(packed uint64) []byte {
	ptr, length := UnpackPtrLen(packed)
	if ptr == 0 {
		return nil
	}
	out := make([]byte, length)
	//nolint:gosec // G103: linear memory offset
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length))
	return out
}

// DeallocatePacked releases a region obtained from allocate.
func DeallocatePacked(packed uint64) {
	if ptr, length := UnpackPtrLen(packed); ptr != 0 {
		deallocate(ptr, length)
	}
}
