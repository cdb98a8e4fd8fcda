package wireformat

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

const alignment = 4

// Writer appends parcel fields to an in-memory buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// Bytes returns the encoded payload.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) WriteInt32(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

func (w *Writer) WriteUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) WriteInt64(v int64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
}

func (w *Writer) WriteUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// WriteBool writes b as an int32 0 or 1.
func (w *Writer) WriteBool(b bool) {
	if b {
		w.WriteInt32(1)
		return
	}
	w.WriteInt32(0)
}

// WriteString16 writes s as a UTF-16 string: unit count, units, NUL, padding.
func (w *Writer) WriteString16(s string) {
	units := utf16.Encode([]rune(s))
	w.WriteInt32(int32(len(units)))
	for _, u := range units {
		w.buf = binary.LittleEndian.AppendUint16(w.buf, u)
	}
	w.buf = binary.LittleEndian.AppendUint16(w.buf, 0)
	w.pad()
}

// WriteNullString16 writes the null string marker.
func (w *Writer) WriteNullString16() {
	w.WriteInt32(-1)
}

// WriteBlob writes a length-prefixed byte array. A nil slice is written as null.
func (w *Writer) WriteBlob(b []byte) {
	if b == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(b)))
	w.buf = append(w.buf, b...)
	w.pad()
}

// WriteInt32Array writes a length-prefixed int32 array. A nil slice is written as null.
func (w *Writer) WriteInt32Array(v []int32) {
	if v == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(v)))
	for _, x := range v {
		w.WriteInt32(x)
	}
}

// WriteStringArray writes a length-prefixed String16 array. A nil slice is written as null.
func (w *Writer) WriteStringArray(v []string) {
	if v == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(v)))
	for _, s := range v {
		w.WriteString16(s)
	}
}

// WriteCharSequence writes a non-null plain text sequence.
func (w *Writer) WriteCharSequence(s string) {
	w.WriteInt32(1) // present
	w.WriteInt32(1) // plain text kind
	w.WriteString16(s)
}

func (w *Writer) pad() {
	for len(w.buf)%alignment != 0 {
		w.buf = append(w.buf, 0)
	}
}

// Reader consumes parcel fields from a payload.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Position returns the read offset.
func (r *Reader) Position() int {
	return r.pos
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, fmt.Errorf("short parcel: need %d bytes at offset %d, have %d", n, r.pos, r.Remaining())
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip advances the read offset by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

func (r *Reader) align() error {
	if rem := r.pos % alignment; rem != 0 {
		return r.Skip(alignment - rem)
	}
	return nil
}

func (r *Reader) ReadInt32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadInt32()
	return v != 0, err
}

// ReadString16 reads a UTF-16 string. The second result is false for null.
func (r *Reader) ReadString16() (string, bool, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return "", false, err
	}
	if n == -1 {
		return "", false, nil
	}
	if n < 0 {
		return "", false, fmt.Errorf("invalid string length %d", n)
	}
	b, err := r.take(int(n)*2 + 2)
	if err != nil {
		return "", false, err
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	if term := binary.LittleEndian.Uint16(b[n*2:]); term != 0 {
		return "", false, fmt.Errorf("string not NUL terminated at offset %d", r.pos-2)
	}
	if err := r.align(); err != nil {
		return "", false, err
	}
	return string(utf16.Decode(units)), true, nil
}

// ReadBlob reads a length-prefixed byte array; nil for null.
func (r *Reader) ReadBlob() ([]byte, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return nil, nil
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, r.align()
}

// ReadInt32Array reads a length-prefixed int32 array; nil for null.
func (r *Reader) ReadInt32Array() ([]int32, error) {
	n, err := r.ReadInt32()
	if err != nil || n == -1 {
		return nil, err
	}
	if n < 0 || int(n)*4 > r.Remaining() {
		return nil, fmt.Errorf("invalid array length %d", n)
	}
	out := make([]int32, n)
	for i := range out {
		if out[i], err = r.ReadInt32(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadStringArray reads a length-prefixed String16 array; nil for null.
func (r *Reader) ReadStringArray() ([]string, error) {
	n, err := r.ReadInt32()
	if err != nil || n == -1 {
		return nil, err
	}
	if n < 0 || int(n)*4 > r.Remaining() {
		return nil, fmt.Errorf("invalid array length %d", n)
	}
	out := make([]string, n)
	for i := range out {
		if out[i], _, err = r.ReadString16(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
