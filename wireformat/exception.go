package wireformat

import (
	"fmt"
	"strings"
)

// ExceptionCode is the status marker at the start of every reply.
type ExceptionCode int32

const (
	ExNone                 ExceptionCode = 0
	ExSecurity             ExceptionCode = -1
	ExBadParcelable        ExceptionCode = -2
	ExIllegalArgument      ExceptionCode = -3
	ExNullPointer          ExceptionCode = -4
	ExIllegalState         ExceptionCode = -5
	ExNetworkMainThread    ExceptionCode = -6
	ExUnsupportedOperation ExceptionCode = -7
	ExServiceSpecific      ExceptionCode = -8
	ExParcelable           ExceptionCode = -9

	// ExHasNotedAppOpsReplyHeader prefixes the real status with the app-ops
	// the call noted (platform version 30 and later).
	ExHasNotedAppOpsReplyHeader ExceptionCode = -127
	ExHasReplyHeader            ExceptionCode = -128
	ExTransactionFailed         ExceptionCode = -129
)

var exceptionCategories = map[ExceptionCode]string{
	ExSecurity:             "security",
	ExBadParcelable:        "bad_parcelable",
	ExIllegalArgument:      "illegal_argument",
	ExNullPointer:          "null_pointer",
	ExIllegalState:         "illegal_state",
	ExNetworkMainThread:    "network_main_thread",
	ExUnsupportedOperation: "unsupported_operation",
	ExServiceSpecific:      "service_specific",
	ExParcelable:           "parcelable",
	ExTransactionFailed:    "transaction_failed",
}

// Category returns the short category name of the code.
func (c ExceptionCode) Category() string {
	if s, ok := exceptionCategories[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown(%d)", int32(c))
}

// Exception is a remote exception decoded from a reply.
type Exception struct {
	Message      string
	Stack        string // remote stack trace, when the server sent one
	Code         ExceptionCode
	ServiceError int32 // set for ExServiceSpecific
}

func (e *Exception) Error() string {
	if e.Message == "" {
		return e.Code.Category()
	}
	return e.Code.Category() + ": " + e.Message
}

// IsSecurity reports whether the remote access-control layer rejected the call.
func (e *Exception) IsSecurity() bool {
	return e.Code == ExSecurity
}

// IsDescriptorMismatch reports whether the remote stub refused the interface
// token, which it signals as a security exception naming the interface.
func (e *Exception) IsDescriptorMismatch() bool {
	return e.Code == ExSecurity && strings.Contains(strings.ToLower(e.Message), "incorrect interface")
}

// WriteNoException writes the success status marker.
func (w *Writer) WriteNoException() {
	w.WriteInt32(int32(ExNone))
}

// WriteReplyHeader writes a successful status carrying a strict-mode reply
// header with payload. The return value follows it directly.
func (w *Writer) WriteReplyHeader(payload []byte) {
	w.WriteInt32(int32(ExHasReplyHeader))
	w.writeSized(func(inner *Writer) { inner.buf = append(inner.buf, payload...) })
}

// WriteException writes a remote exception: code, message, stack trace
// header and, for service-specific exceptions, the error code. Without a
// stack trace the header is a bare zero.
func (w *Writer) WriteException(e *Exception) {
	w.WriteInt32(int32(e.Code))
	w.WriteString16(e.Message)
	if e.Stack == "" {
		w.WriteInt32(0)
	} else {
		w.writeSized(func(inner *Writer) { inner.WriteString16(e.Stack) })
	}
	switch e.Code {
	case ExServiceSpecific:
		w.WriteInt32(e.ServiceError)
	case ExParcelable:
		w.writeSized(func(*Writer) {})
	}
}

// writeSized writes a section prefixed by its size. The size counts the
// 4-byte size field itself.
func (w *Writer) writeSized(fill func(*Writer)) {
	inner := NewWriter()
	fill(inner)
	w.WriteInt32(int32(4 + inner.Len()))
	w.buf = append(w.buf, inner.Bytes()...)
}

// readSized consumes a section written by writeSized and returns its
// payload. A zero size is an absent section.
func (r *Reader) readSized() ([]byte, error) {
	size, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	switch {
	case size == 0:
		return nil, nil
	case size < 4:
		return nil, fmt.Errorf("section size %d at offset %d is smaller than its size field", size, r.pos-4)
	}
	return r.take(int(size) - 4)
}

// skipNotedAppOps consumes the noted app-ops header: an attribution count,
// then per attribution a nullable tag and two 64-bit op masks.
func (r *Reader) skipNotedAppOps() error {
	n, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("invalid attribution count %d", n)
	}
	for i := int32(0); i < n; i++ {
		if _, _, err := r.ReadString16(); err != nil {
			return err
		}
		if err := r.Skip(16); err != nil {
			return err
		}
	}
	return nil
}

// ReadException consumes the reply status. It returns nil when the call
// succeeded and the reader is positioned at the return value.
func (r *Reader) ReadException() (*Exception, error) {
	code, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	if ExceptionCode(code) == ExHasNotedAppOpsReplyHeader {
		if err := r.skipNotedAppOps(); err != nil {
			return nil, fmt.Errorf("noted app-ops header: %w", err)
		}
		if code, err = r.ReadInt32(); err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
	}

	switch ExceptionCode(code) {
	case ExNone:
		return nil, nil
	case ExHasReplyHeader:
		// Only sent with successful replies.
		if _, err := r.readSized(); err != nil {
			return nil, fmt.Errorf("reply header: %w", err)
		}
		return nil, nil
	}

	e := &Exception{Code: ExceptionCode(code)}
	if e.Message, _, err = r.ReadString16(); err != nil {
		return nil, fmt.Errorf("exception message: %w", err)
	}
	stack, err := r.readSized()
	if err != nil {
		return nil, fmt.Errorf("stack header: %w", err)
	}
	if len(stack) > 0 {
		// The stack text is informational; an unreadable one is ignored.
		if text, ok, err := NewReader(stack).ReadString16(); err == nil && ok {
			e.Stack = text
		}
	}

	switch e.Code {
	case ExServiceSpecific:
		if e.ServiceError, err = r.ReadInt32(); err != nil {
			return nil, fmt.Errorf("service error: %w", err)
		}
	case ExParcelable:
		if _, err := r.readSized(); err != nil {
			return nil, fmt.Errorf("parcelable exception: %w", err)
		}
	}
	return e, nil
}
