package entities

import (
	"fmt"
	"strings"
)

// ArgKind tags the wire representation of a TypedArgument.
// The zero value is ArgVoid and is only meaningful as a return kind.
type ArgKind uint8

const (
	ArgVoid ArgKind = iota
	ArgInt32
	ArgInt64
	ArgUint32
	ArgUint64
	ArgBool
	ArgString
	ArgCharSequence
	ArgBlob
	ArgInt32Array
	ArgStringArray
	ArgStruct
	ArgReference
)

var argKindNames = map[ArgKind]string{
	ArgVoid:         "void",
	ArgInt32:        "int32",
	ArgInt64:        "int64",
	ArgUint32:       "uint32",
	ArgUint64:       "uint64",
	ArgBool:         "bool",
	ArgString:       "string",
	ArgCharSequence: "charsequence",
	ArgBlob:         "blob",
	ArgInt32Array:   "int32[]",
	ArgStringArray:  "string[]",
	ArgStruct:       "struct",
	ArgReference:    "reference",
}

// String returns the kind name used in manifests and logs.
func (k ArgKind) String() string {
	if name, ok := argKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ArgKind(%d)", uint8(k))
}

// ParseArgKind maps a kind name back to its ArgKind.
func ParseArgKind(name string) (ArgKind, bool) {
	for k, n := range argKindNames {
		if n == name {
			return k, true
		}
	}
	return ArgVoid, false
}

// TypedArgument is one positional argument of a raw call.
// Value holds the Go value matching Kind:
//   - ArgInt32: int32, ArgInt64: int64, ArgUint32: uint32, ArgUint64: uint64
//   - ArgBool: bool
//   - ArgString, ArgCharSequence, ArgReference: string
//   - ArgBlob: []byte
//   - ArgInt32Array: []int32
//   - ArgStringArray: []string
//   - ArgStruct: Value is unused, Fields holds the nested arguments in order
//
// Null marks a null string, blob, array, struct or reference.
type TypedArgument struct {
	Value  any
	Fields []TypedArgument
	Kind   ArgKind
	Null   bool
}

// Int32 returns a 32-bit signed argument.
func Int32(v int32) TypedArgument { return TypedArgument{Kind: ArgInt32, Value: v} }

// Int64 returns a 64-bit signed argument.
func Int64(v int64) TypedArgument { return TypedArgument{Kind: ArgInt64, Value: v} }

// Uint32 returns a 32-bit unsigned argument.
func Uint32(v uint32) TypedArgument { return TypedArgument{Kind: ArgUint32, Value: v} }

// Uint64 returns a 64-bit unsigned argument.
func Uint64(v uint64) TypedArgument { return TypedArgument{Kind: ArgUint64, Value: v} }

// Bool returns a boolean argument.
func Bool(v bool) TypedArgument { return TypedArgument{Kind: ArgBool, Value: v} }

// String returns a string argument.
func String(v string) TypedArgument { return TypedArgument{Kind: ArgString, Value: v} }

// NullString returns a null string argument.
func NullString() TypedArgument { return TypedArgument{Kind: ArgString, Null: true} }

// CharSequence returns a string argument encoded as a text sequence.
func CharSequence(v string) TypedArgument { return TypedArgument{Kind: ArgCharSequence, Value: v} }

// Blob returns an opaque binary argument.
func Blob(v []byte) TypedArgument { return TypedArgument{Kind: ArgBlob, Value: v} }

// NullBlob returns a null binary argument.
func NullBlob() TypedArgument { return TypedArgument{Kind: ArgBlob, Null: true} }

// Int32Array returns an int32 array argument.
func Int32Array(v ...int32) TypedArgument { return TypedArgument{Kind: ArgInt32Array, Value: v} }

// StringArray returns a string array argument.
func StringArray(v ...string) TypedArgument { return TypedArgument{Kind: ArgStringArray, Value: v} }

// Struct returns a nested structured argument whose fields are encoded in order.
func Struct(fields ...TypedArgument) TypedArgument {
	return TypedArgument{Kind: ArgStruct, Fields: fields}
}

// NullStruct returns a null structured argument.
func NullStruct() TypedArgument { return TypedArgument{Kind: ArgStruct, Null: true} }

// Reference returns a reference to another service or component identity.
func Reference(identity string) TypedArgument {
	return TypedArgument{Kind: ArgReference, Value: identity}
}

// NullReference returns a null service reference.
func NullReference() TypedArgument { return TypedArgument{Kind: ArgReference, Null: true} }

// String renders the argument for logs.
func (a TypedArgument) String() string {
	if a.Null {
		return a.Kind.String() + "(null)"
	}
	if a.Kind == ArgStruct {
		parts := make([]string, len(a.Fields))
		for i, f := range a.Fields {
			parts[i] = f.String()
		}
		return "struct{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprintf("%s(%v)", a.Kind, a.Value)
}

// CallDescriptor selects one remote method and carries its ordered arguments.
// When Code is zero the transaction code is looked up by Descriptor and Method
// in the session's transaction table.
type CallDescriptor struct {
	Service    string
	Descriptor string
	Method     string
	Args       []TypedArgument
	Code       uint32
	Flags      uint32
	Returns    ArgKind
}

// WithArgs returns a copy of the descriptor with the given arguments.
func (d CallDescriptor) WithArgs(args ...TypedArgument) CallDescriptor {
	d.Args = args
	return d
}

// WithCode returns a copy of the descriptor with an explicit transaction code.
func (d CallDescriptor) WithCode(code uint32) CallDescriptor {
	d.Code = code
	return d
}

// WithReturns returns a copy of the descriptor declaring the reply value kind.
func (d CallDescriptor) WithReturns(kind ArgKind) CallDescriptor {
	d.Returns = kind
	return d
}

// String returns "service:descriptor.method".
func (d CallDescriptor) String() string {
	return d.Service + ":" + d.Descriptor + "." + d.Method
}
