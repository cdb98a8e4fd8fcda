package wireformat

import (
	"fmt"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/errors"
)

// WriteArgs encodes args in order. An argument whose Value does not match its
// Kind stops encoding with a *errors.WireFormatError.
func (w *Writer) WriteArgs(args []entities.TypedArgument) error {
	for i, a := range args {
		if err := w.writeArg(a); err != nil {
			return &errors.WireFormatError{
				Operation: "encode",
				Type:      fmt.Sprintf("argument %d (%s)", i, a.Kind),
				Err:       err,
			}
		}
	}
	return nil
}

func (w *Writer) writeArg(a entities.TypedArgument) error {
	if a.Null {
		switch a.Kind {
		case entities.ArgString:
			w.WriteNullString16()
		case entities.ArgBlob, entities.ArgInt32Array, entities.ArgStringArray:
			w.WriteInt32(-1)
		case entities.ArgCharSequence, entities.ArgStruct, entities.ArgReference:
			w.WriteInt32(0)
		default:
			return fmt.Errorf("kind %s cannot be null", a.Kind)
		}
		return nil
	}

	switch a.Kind {
	case entities.ArgInt32:
		v, ok := a.Value.(int32)
		if !ok {
			return mismatch(a)
		}
		w.WriteInt32(v)
	case entities.ArgInt64:
		v, ok := a.Value.(int64)
		if !ok {
			return mismatch(a)
		}
		w.WriteInt64(v)
	case entities.ArgUint32:
		v, ok := a.Value.(uint32)
		if !ok {
			return mismatch(a)
		}
		w.WriteUint32(v)
	case entities.ArgUint64:
		v, ok := a.Value.(uint64)
		if !ok {
			return mismatch(a)
		}
		w.WriteUint64(v)
	case entities.ArgBool:
		v, ok := a.Value.(bool)
		if !ok {
			return mismatch(a)
		}
		w.WriteBool(v)
	case entities.ArgString:
		v, ok := a.Value.(string)
		if !ok {
			return mismatch(a)
		}
		w.WriteString16(v)
	case entities.ArgCharSequence:
		v, ok := a.Value.(string)
		if !ok {
			return mismatch(a)
		}
		w.WriteCharSequence(v)
	case entities.ArgBlob:
		v, ok := a.Value.([]byte)
		if !ok && a.Value != nil {
			return mismatch(a)
		}
		if v == nil {
			v = []byte{}
		}
		w.WriteBlob(v)
	case entities.ArgInt32Array:
		v, ok := a.Value.([]int32)
		if !ok && a.Value != nil {
			return mismatch(a)
		}
		if v == nil {
			v = []int32{}
		}
		w.WriteInt32Array(v)
	case entities.ArgStringArray:
		v, ok := a.Value.([]string)
		if !ok && a.Value != nil {
			return mismatch(a)
		}
		if v == nil {
			v = []string{}
		}
		w.WriteStringArray(v)
	case entities.ArgStruct:
		w.WriteInt32(1)
		for _, f := range a.Fields {
			if err := w.writeArg(f); err != nil {
				return fmt.Errorf("struct field: %w", err)
			}
		}
	case entities.ArgReference:
		v, ok := a.Value.(string)
		if !ok {
			return mismatch(a)
		}
		w.WriteInt32(1)
		w.WriteString16(v)
	default:
		return fmt.Errorf("unsupported argument kind %d", a.Kind)
	}
	return nil
}

func mismatch(a entities.TypedArgument) error {
	return fmt.Errorf("value %T does not match kind %s", a.Value, a.Kind)
}

// ReadArgs decodes arguments using template for their kinds and, for
// structs, their field layout. Template values are ignored.
func (r *Reader) ReadArgs(template []entities.TypedArgument) ([]entities.TypedArgument, error) {
	out := make([]entities.TypedArgument, 0, len(template))
	for i, t := range template {
		a, err := r.readArg(t)
		if err != nil {
			return nil, &errors.WireFormatError{
				Operation: "decode",
				Type:      fmt.Sprintf("argument %d (%s)", i, t.Kind),
				Err:       err,
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *Reader) readArg(t entities.TypedArgument) (entities.TypedArgument, error) {
	a := entities.TypedArgument{Kind: t.Kind}
	var err error

	switch t.Kind {
	case entities.ArgInt32:
		a.Value, err = r.ReadInt32()
	case entities.ArgInt64:
		a.Value, err = r.ReadInt64()
	case entities.ArgUint32:
		a.Value, err = r.ReadUint32()
	case entities.ArgUint64:
		a.Value, err = r.ReadUint64()
	case entities.ArgBool:
		a.Value, err = r.ReadBool()
	case entities.ArgString:
		var s string
		var ok bool
		s, ok, err = r.ReadString16()
		a.Value, a.Null = s, !ok
	case entities.ArgCharSequence, entities.ArgReference:
		var present int32
		if present, err = r.ReadInt32(); err != nil || present == 0 {
			a.Null = present == 0
			break
		}
		if t.Kind == entities.ArgCharSequence {
			if _, err = r.ReadInt32(); err != nil {
				break
			}
		}
		a.Value, _, err = r.ReadString16()
	case entities.ArgBlob:
		var b []byte
		b, err = r.ReadBlob()
		a.Value, a.Null = b, b == nil
	case entities.ArgInt32Array:
		var v []int32
		v, err = r.ReadInt32Array()
		a.Value, a.Null = v, v == nil
	case entities.ArgStringArray:
		var v []string
		v, err = r.ReadStringArray()
		a.Value, a.Null = v, v == nil
	case entities.ArgStruct:
		var present int32
		if present, err = r.ReadInt32(); err != nil || present == 0 {
			a.Null = present == 0
			break
		}
		a.Fields = make([]entities.TypedArgument, 0, len(t.Fields))
		for _, ft := range t.Fields {
			f, ferr := r.readArg(ft)
			if ferr != nil {
				return a, fmt.Errorf("struct field: %w", ferr)
			}
			a.Fields = append(a.Fields, f)
		}
	default:
		err = fmt.Errorf("unsupported argument kind %d", t.Kind)
	}

	if a.Null {
		a.Value = nil
	}
	return a, err
}
