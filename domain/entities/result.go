package entities

// FailureKind categorizes why an invocation did not return normally.
// The empty kind means the call completed.
type FailureKind string

const (
	// FailureNone means the call returned normally.
	FailureNone FailureKind = ""

	// FailureNullTarget means a required object handle was unavailable.
	FailureNullTarget FailureKind = "null_target"

	// FailureServiceUnavailable means the named service is not registered.
	FailureServiceUnavailable FailureKind = "service_unavailable"

	// FailureDescriptorMismatch means the service rejected the interface token.
	FailureDescriptorMismatch FailureKind = "descriptor_mismatch"

	// FailureAccessDenied means the remote access-control layer rejected the call.
	FailureAccessDenied FailureKind = "access_denied"

	// FailureRemoteFault means the remote side raised any other exception category.
	FailureRemoteFault FailureKind = "remote_fault"

	// FailureTimeout means the local watchdog expired while waiting.
	FailureTimeout FailureKind = "timeout"

	// FailureMalformedEncoding means the caller built a call that does not
	// match the wire contract. It is a probe defect, not a platform property.
	FailureMalformedEncoding FailureKind = "malformed_encoding"

	// FailureUnexpected covers local failures outside the taxonomy, such as a
	// recovered panic inside a probe body.
	FailureUnexpected FailureKind = "unexpected"
)

// CallResult is the tagged result of one invocation: either a value or a
// categorized failure. Err is nil exactly when Kind is FailureNone.
type CallResult struct {
	Value any
	Err   error
	Kind  FailureKind
}

// Succeeded returns a CallResult holding a return value.
func Succeeded(value any) CallResult {
	return CallResult{Value: value}
}

// Failed returns a CallResult holding a categorized failure.
func Failed(kind FailureKind, err error) CallResult {
	return CallResult{Kind: kind, Err: err}
}

// OK reports whether the call returned normally.
func (r CallResult) OK() bool {
	return r.Kind == FailureNone
}

// Unwrap returns the value and error pair, for probe bodies that only care
// about the error.
func (r CallResult) Unwrap() (any, error) {
	return r.Value, r.Err
}

// RawOutcome is what a single probe execution produced, before classification.
type RawOutcome struct {
	// Bypassed is set when the probe skipped the call on purpose.
	Bypassed bool

	// Reason explains a bypass.
	Reason string

	// Failure is the failure category, FailureNone when the call completed.
	Failure FailureKind

	// Detail is the failure message, if any.
	Detail string

	// Granted records the caller's grant status observed before the call.
	Granted bool
}
