package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackPtrLen(t *testing.T) {
	tests := []struct {
		name   string
		ptr    uint32
		length uint32
	}{
		{name: "zero", ptr: 0, length: 0},
		{name: "typical", ptr: 0x10000, length: 48},
		{name: "max", ptr: 0xFFFFFFFF, length: 0xFFFFFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed := PackPtrLen(tt.ptr, tt.length)
			assert.Equal(t, uint64(tt.ptr)<<32|uint64(tt.length), packed)

			ptr, length := UnpackPtrLen(packed)
			assert.Equal(t, tt.ptr, ptr)
			assert.Equal(t, tt.length, length)
		})
	}
}

func TestPackPtrLen_NullWithLength(t *testing.T) {
	assert.Panics(t, func() { PackPtrLen(0, 8) })
	assert.Panics(t, func() { UnpackPtrLen(8) })
}

func BenchmarkPackUnpack(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = UnpackPtrLen(PackPtrLen(0x12345678, 256))
	}
}
