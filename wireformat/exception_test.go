package wireformat_test

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/wireformat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestException_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ex   *wireformat.Exception
	}{
		{"security", &wireformat.Exception{Code: wireformat.ExSecurity, Message: "requires android.permission.REBOOT"}},
		{"illegal state", &wireformat.Exception{Code: wireformat.ExIllegalState, Message: "not now"}},
		{"service specific", &wireformat.Exception{Code: wireformat.ExServiceSpecific, Message: "busy", ServiceError: 17}},
		{"parcelable", &wireformat.Exception{Code: wireformat.ExParcelable}},
		{"stack trace", &wireformat.Exception{Code: wireformat.ExSecurity, Message: "denied", Stack: "\tat Foo.bar(Foo.java:1)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ex, err := wireformat.DecodeReply(wireformat.EncodeException(tt.ex), entities.ArgVoid)
			require.NoError(t, err)
			require.NotNil(t, ex)
			assert.Equal(t, tt.ex, ex)
		})
	}
}

// androidReply assembles reply bytes field by field the way the platform's
// Parcel writes them, independently of Writer.
type androidReply struct {
	buf []byte
}

func (a *androidReply) int32(v int32) *androidReply {
	a.buf = binary.LittleEndian.AppendUint32(a.buf, uint32(v))
	return a
}

func (a *androidReply) int64(v int64) *androidReply {
	a.buf = binary.LittleEndian.AppendUint64(a.buf, uint64(v))
	return a
}

func (a *androidReply) string16(s string) *androidReply {
	units := utf16.Encode([]rune(s))
	a.int32(int32(len(units)))
	for _, u := range units {
		a.buf = binary.LittleEndian.AppendUint16(a.buf, u)
	}
	a.buf = append(a.buf, 0, 0)
	for len(a.buf)%4 != 0 {
		a.buf = append(a.buf, 0)
	}
	return a
}

// sized writes a size field counting itself, then the section.
func (a *androidReply) sized(section *androidReply) *androidReply {
	a.int32(int32(4 + len(section.buf)))
	a.buf = append(a.buf, section.buf...)
	return a
}

func TestException_StackTraceHeader(t *testing.T) {
	stack := "\tat com.android.server.power.PowerManagerService.reboot(PowerManagerService.java:4012)"
	reply := (&androidReply{}).
		int32(int32(wireformat.ExSecurity)).
		string16("Neither user 2000 nor current process has android.permission.REBOOT.").
		sized((&androidReply{}).string16(stack))

	_, ex, err := wireformat.DecodeReply(reply.buf, entities.ArgVoid)
	require.NoError(t, err)
	require.NotNil(t, ex)
	assert.True(t, ex.IsSecurity())
	assert.Equal(t, stack, ex.Stack)

	r := wireformat.NewReader(reply.buf)
	_, err = r.ReadException()
	require.NoError(t, err)
	assert.Equal(t, 0, r.Remaining())
}

func TestException_ServiceSpecificAfterStack(t *testing.T) {
	reply := (&androidReply{}).
		int32(int32(wireformat.ExServiceSpecific)).
		string16("busy").
		sized((&androidReply{}).string16("\tat Foo.bar")).
		int32(17)

	_, ex, err := wireformat.DecodeReply(reply.buf, entities.ArgVoid)
	require.NoError(t, err)
	require.NotNil(t, ex)
	assert.Equal(t, int32(17), ex.ServiceError)
}

func TestException_NoStackTrace(t *testing.T) {
	reply := (&androidReply{}).
		int32(int32(wireformat.ExNullPointer)).
		string16("npe").
		int32(0)

	r := wireformat.NewReader(reply.buf)
	ex, err := r.ReadException()
	require.NoError(t, err)
	assert.Equal(t, "null_pointer: npe", ex.Error())
	assert.Empty(t, ex.Stack)
	assert.Equal(t, 0, r.Remaining())
}

func TestException_ParcelableBlob(t *testing.T) {
	reply := (&androidReply{}).
		int32(int32(wireformat.ExParcelable)).
		string16("").
		int32(0).
		sized((&androidReply{}).int64(0x0102030405060708)).
		int32(99)

	r := wireformat.NewReader(reply.buf)
	ex, err := r.ReadException()
	require.NoError(t, err)
	assert.Equal(t, wireformat.ExParcelable, ex.Code)
	trailing, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(99), trailing)
}

func TestException_ReplyHeaderIsSuccess(t *testing.T) {
	tests := []struct {
		name   string
		header *androidReply
	}{
		{"strict mode payload", (&androidReply{}).int32(int32(wireformat.ExHasReplyHeader)).sized((&androidReply{}).int32(0))},
		{"empty header", (&androidReply{}).int32(int32(wireformat.ExHasReplyHeader)).int32(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := tt.header.int32(1)
			v, ex, err := wireformat.DecodeReply(reply.buf, entities.ArgBool)
			require.NoError(t, err)
			assert.Nil(t, ex)
			assert.Equal(t, true, v)
		})
	}

	w := wireformat.NewWriter()
	w.WriteReplyHeader([]byte{0, 0, 0, 0})
	w.WriteBool(true)
	v, ex, err := wireformat.DecodeReply(w.Bytes(), entities.ArgBool)
	require.NoError(t, err)
	assert.Nil(t, ex)
	assert.Equal(t, true, v)
}

func TestException_NotedAppOpsHeader(t *testing.T) {
	appOps := func() *androidReply {
		return (&androidReply{}).
			int32(int32(wireformat.ExHasNotedAppOpsReplyHeader)).
			int32(2).
			string16("location").int64(1 << 3).int64(0).
			int32(-1).int64(0).int64(1 << 40)
	}

	t.Run("success", func(t *testing.T) {
		reply := appOps().int32(int32(wireformat.ExNone)).int32(7)
		v, ex, err := wireformat.DecodeReply(reply.buf, entities.ArgInt32)
		require.NoError(t, err)
		assert.Nil(t, ex)
		assert.Equal(t, int32(7), v)
	})

	t.Run("security exception", func(t *testing.T) {
		reply := appOps().int32(int32(wireformat.ExSecurity)).string16("denied").int32(0)
		_, ex, err := wireformat.DecodeReply(reply.buf, entities.ArgVoid)
		require.NoError(t, err)
		require.NotNil(t, ex)
		assert.True(t, ex.IsSecurity())
	})

	t.Run("followed by reply header", func(t *testing.T) {
		reply := appOps().
			int32(int32(wireformat.ExHasReplyHeader)).
			sized((&androidReply{}).int32(0)).
			int32(1)
		v, ex, err := wireformat.DecodeReply(reply.buf, entities.ArgBool)
		require.NoError(t, err)
		assert.Nil(t, ex)
		assert.Equal(t, true, v)
	})
}

func TestException_SizeSmallerThanField(t *testing.T) {
	reply := (&androidReply{}).int32(int32(wireformat.ExSecurity)).string16("x").int32(2)
	_, _, err := wireformat.DecodeReply(reply.buf, entities.ArgVoid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smaller than its size field")
}

func TestException_DescriptorMismatch(t *testing.T) {
	ex := &wireformat.Exception{Code: wireformat.ExSecurity, Message: "Binder invocation to an incorrect interface"}
	assert.True(t, ex.IsDescriptorMismatch())
	assert.True(t, ex.IsSecurity())

	ex = &wireformat.Exception{Code: wireformat.ExSecurity, Message: "uid 10001 lacks REBOOT"}
	assert.False(t, ex.IsDescriptorMismatch())
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "security", wireformat.ExSecurity.Category())
	assert.Equal(t, "unknown(-42)", wireformat.ExceptionCode(-42).Category())
}

func TestDecodeReply_Values(t *testing.T) {
	reply, err := wireformat.EncodeReply(entities.String("ok"))
	require.NoError(t, err)

	v, ex, err := wireformat.DecodeReply(reply, entities.ArgString)
	require.NoError(t, err)
	assert.Nil(t, ex)
	assert.Equal(t, "ok", v)

	reply, err = wireformat.EncodeReply(entities.TypedArgument{})
	require.NoError(t, err)
	v, _, err = wireformat.DecodeReply(reply, entities.ArgVoid)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, _, err = wireformat.DecodeReply([]byte{0, 0, 0, 0}, entities.ArgInt64)
	assert.Error(t, err)
}

func TestEncodeCall(t *testing.T) {
	data, err := wireformat.EncodeCall("d", wireformat.TokenFormatFor(28), []entities.TypedArgument{entities.Int32(3)})
	require.NoError(t, err)

	r := wireformat.NewReader(data)
	desc, err := r.ReadInterfaceToken(wireformat.TokenFormatFor(28))
	require.NoError(t, err)
	assert.Equal(t, "d", desc)

	args, err := r.ReadArgs([]entities.TypedArgument{{Kind: entities.ArgInt32}})
	require.NoError(t, err)
	assert.Equal(t, int32(3), args[0].Value)
}
