package wireformat

import (
	"fmt"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/errors"
)

// EncodeCall builds the request payload: interface token, then arguments.
func EncodeCall(descriptor string, f TokenFormat, args []entities.TypedArgument) ([]byte, error) {
	w := NewWriter()
	w.WriteInterfaceToken(descriptor, f)
	if err := w.WriteArgs(args); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeReply reads the reply status and, on success, a value of kind
// returns. A remote exception is returned as *Exception with a nil error.
// A struct return yields the remaining raw bytes after the presence marker.
func DecodeReply(reply []byte, returns entities.ArgKind) (any, *Exception, error) {
	r := NewReader(reply)
	ex, err := r.ReadException()
	if err != nil {
		return nil, nil, &errors.WireFormatError{Operation: "decode", Type: "reply status", Err: err}
	}
	if ex != nil {
		return nil, ex, nil
	}
	if returns == entities.ArgVoid {
		return nil, nil, nil
	}

	if returns == entities.ArgStruct {
		present, err := r.ReadInt32()
		if err != nil {
			return nil, nil, &errors.WireFormatError{Operation: "decode", Type: "reply struct", Err: err}
		}
		if present == 0 {
			return nil, nil, nil
		}
		rest := make([]byte, r.Remaining())
		copy(rest, reply[r.Position():])
		return rest, nil, nil
	}

	a, err := r.readArg(entities.TypedArgument{Kind: returns})
	if err != nil {
		return nil, nil, &errors.WireFormatError{
			Operation: "decode",
			Type:      fmt.Sprintf("reply %s", returns),
			Err:       err,
		}
	}
	return a.Value, nil, nil
}

// EncodeReply builds a successful reply carrying value encoded as kind.
// A void kind writes only the status marker.
func EncodeReply(value entities.TypedArgument) ([]byte, error) {
	w := NewWriter()
	w.WriteNoException()
	if value.Kind == entities.ArgVoid {
		return w.Bytes(), nil
	}
	if err := w.WriteArgs([]entities.TypedArgument{value}); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// EncodeException builds a reply carrying a remote exception.
func EncodeException(e *Exception) []byte {
	w := NewWriter()
	w.WriteException(e)
	return w.Bytes()
}
