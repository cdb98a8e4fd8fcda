package entities

// ErrorClass groups body errors for report consumers.
type ErrorClass string

const (
	ErrorClassInvocation ErrorClass = "invocation"
	ErrorClassTimeout    ErrorClass = "timeout"
	ErrorClassConfig     ErrorClass = "config"
	ErrorClassPanic      ErrorClass = "panic"
	ErrorClassBypass     ErrorClass = "bypass"
	ErrorClassInternal   ErrorClass = "internal"
)

// ErrorDetail is the serialized form of the error a probe body returned. It
// is recorded in report entries, so every field must be reproducible from
// one session to the next.
type ErrorDetail struct {
	Class       ErrorClass  `json:"class"`
	Kind        FailureKind `json:"kind,omitempty"`
	Message     string      `json:"message"`
	Category    string      `json:"category,omitempty"` // remote exception category
	Field       string      `json:"field,omitempty"`    // offending config field
	ServiceCode int32       `json:"service_code,omitempty"`
}

func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	prefix := string(e.Class)
	if e.Kind != "" {
		prefix += "/" + string(e.Kind)
	}
	return prefix + ": " + e.Message
}

// Timeout reports whether the local watchdog cut the call off.
func (e *ErrorDetail) Timeout() bool {
	return e != nil && e.Class == ErrorClassTimeout
}
