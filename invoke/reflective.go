package invoke

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/errors"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Reflective invokes methods by name and parameter signature. It reaches every
// method in the handle's method set, not only those of the interface the
// handle was obtained through. It is stateless and safe to share.
type Reflective struct{}

// Invoke calls method on target with args, which must match paramTypes one to
// one. A trailing error result is returned as the call's failure exactly as
// the method produced it.
func (Reflective) Invoke(target any, method string, paramTypes []reflect.Type, args ...any) entities.CallResult {
	call := describe(target, method)

	if isNil(target) {
		return entities.Failed(entities.FailureNullTarget, errors.NullTarget(call))
	}
	if len(paramTypes) != len(args) {
		return malformed(call, "%d parameter types for %d arguments", len(paramTypes), len(args))
	}

	m, ok := lookupMethod(reflect.ValueOf(target), method)
	if !ok {
		return malformed(call, "no method %q on %T", method, target)
	}

	mt := m.Type()
	if mt.NumIn() != len(paramTypes) {
		return malformed(call, "method takes %d parameters, signature names %d", mt.NumIn(), len(paramTypes))
	}

	in := make([]reflect.Value, len(args))
	for i, pt := range paramTypes {
		if mt.In(i) != pt {
			return malformed(call, "parameter %d is %s, signature names %s", i, mt.In(i), pt)
		}
		if args[i] == nil {
			switch pt.Kind() {
			case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
				in[i] = reflect.Zero(pt)
				continue
			default:
				return malformed(call, "nil argument %d for %s", i, pt)
			}
		}
		v := reflect.ValueOf(args[i])
		if !v.Type().AssignableTo(pt) {
			return malformed(call, "argument %d is %s, not assignable to %s", i, v.Type(), pt)
		}
		in[i] = v
	}

	out := m.Call(in)

	if n := len(out); n > 0 && mt.Out(n-1) == errorType {
		if errv := out[n-1]; !errv.IsNil() {
			err := errv.Interface().(error)
			return entities.Failed(errors.KindOf(err), err)
		}
		out = out[:n-1]
	}

	switch len(out) {
	case 0:
		return entities.Succeeded(nil)
	case 1:
		return entities.Succeeded(out[0].Interface())
	default:
		values := make([]any, len(out))
		for i, o := range out {
			values[i] = o.Interface()
		}
		return entities.Succeeded(values)
	}
}

// lookupMethod tries the exact name first, then the exported spelling, so
// "clearApplicationUserData" finds ClearApplicationUserData.
func lookupMethod(v reflect.Value, name string) (reflect.Value, bool) {
	if m := v.MethodByName(name); m.IsValid() {
		return m, true
	}
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return reflect.Value{}, false
	}
	if m := v.MethodByName(string(unicode.ToUpper(r)) + name[size:]); m.IsValid() {
		return m, true
	}
	return reflect.Value{}, false
}

func isNil(target any) bool {
	if target == nil {
		return true
	}
	v := reflect.ValueOf(target)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func describe(target any, method string) string {
	if target == nil {
		return "<nil>." + method
	}
	name := reflect.TypeOf(target).String()
	return strings.TrimPrefix(name, "*") + "." + method
}

func malformed(call, format string, args ...any) entities.CallResult {
	return entities.Failed(entities.FailureMalformedEncoding,
		errors.MalformedEncoding(call, fmt.Errorf(format, args...)))
}
