// Package errors provides the invocation error taxonomy of the prober.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/reglet-dev/permprobe/domain/entities"
)

// ErrDeadObject is returned by transports when a previously resolved handle
// no longer refers to a live service.
var ErrDeadObject = stdErrors.New("dead object")

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts an error to the form recorded in reports. Errors
// outside the taxonomy are internal, with their kind still derived by KindOf.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Class:   entities.ErrorClassInternal,
		Kind:    KindOf(err),
		Message: err.Error(),
	}
}

// CallError is the single failure type raised by the invocation layer.
// Kind is the explicit category the classifier matches on.
type CallError struct {
	Err      error
	Kind     entities.FailureKind
	Call     string // "service:descriptor.method" or "Type.Method"
	Category string // remote exception category, e.g. "illegal_state"
	Message  string
	Code     int32 // service-specific error code, when the remote sent one
	Duration time.Duration
}

func (e *CallError) Error() string {
	var msg string
	switch {
	case e.Call != "" && e.Category != "":
		msg = fmt.Sprintf("%s: %s (%s)", e.Call, e.Kind, e.Category)
	case e.Call != "":
		msg = fmt.Sprintf("%s: %s", e.Call, e.Kind)
	default:
		msg = string(e.Kind)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call failed on the local watchdog.
func (e *CallError) Timeout() bool {
	return e.Kind == entities.FailureTimeout
}

// ToErrorDetail implements DetailedError.
func (e *CallError) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{
		Class:       entities.ErrorClassInvocation,
		Kind:        e.Kind,
		Message:     e.Error(),
		Category:    e.Category,
		ServiceCode: e.Code,
	}
	if e.Timeout() {
		detail.Class = entities.ErrorClassTimeout
	}
	return detail
}

// NullTarget reports a missing object handle for call.
func NullTarget(call string) *CallError {
	return &CallError{Kind: entities.FailureNullTarget, Call: call, Message: "target is nil"}
}

// ServiceUnavailable reports a service name that could not be resolved.
func ServiceUnavailable(service string, err error) *CallError {
	return &CallError{
		Kind:    entities.FailureServiceUnavailable,
		Call:    service,
		Message: "service is not registered",
		Err:     err,
	}
}

// DescriptorMismatch reports a service whose interface differs from the expected token.
func DescriptorMismatch(service, want, got string) *CallError {
	return &CallError{
		Kind:    entities.FailureDescriptorMismatch,
		Call:    service,
		Message: fmt.Sprintf("expected interface %q, service reports %q", want, got),
	}
}

// AccessDenied reports a rejection by the remote access-control layer.
func AccessDenied(call, message string) *CallError {
	return &CallError{Kind: entities.FailureAccessDenied, Call: call, Category: "security", Message: message}
}

// RemoteFault reports any other exception raised by the remote side.
func RemoteFault(call, category, message string) *CallError {
	return &CallError{Kind: entities.FailureRemoteFault, Call: call, Category: category, Message: message}
}

// Timeout reports a local watchdog expiry.
func Timeout(call string, d time.Duration) *CallError {
	return &CallError{
		Kind:     entities.FailureTimeout,
		Call:     call,
		Message:  fmt.Sprintf("no reply within %v", d),
		Duration: d,
	}
}

// MalformedEncoding reports a call that does not match the wire contract.
func MalformedEncoding(call string, err error) *CallError {
	return &CallError{Kind: entities.FailureMalformedEncoding, Call: call, Err: err}
}

// BypassError is returned by a probe that deliberately skipped its call.
type BypassError struct {
	Reason string
}

func (e *BypassError) Error() string {
	return "bypassed: " + e.Reason
}

// ToErrorDetail implements DetailedError.
func (e *BypassError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Class: entities.ErrorClassBypass, Message: e.Reason}
}

// Bypass returns a BypassError with the given reason.
func Bypass(reason string) error {
	return &BypassError{Reason: reason}
}

// Bypassf returns a BypassError with a formatted reason.
func Bypassf(format string, args ...any) error {
	return &BypassError{Reason: fmt.Sprintf(format, args...)}
}

// BypassReason returns the reason if err is a BypassError.
func BypassReason(err error) (string, bool) {
	var be *BypassError
	if stdErrors.As(err, &be) {
		return be.Reason, true
	}
	return "", false
}

// PanicError wraps a value recovered from a panicking probe body.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return "panic: " + err.Error()
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ToErrorDetail implements DetailedError.
func (e *PanicError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Class: entities.ErrorClassPanic, Kind: entities.FailureUnexpected, Message: e.Error()}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Class: entities.ErrorClassConfig, Message: e.Error(), Field: e.Field}
}

// WireFormatError represents a payload encoding/decoding error.
type WireFormatError struct {
	Err       error
	Operation string
	Type      string
}

func (e *WireFormatError) Error() string {
	return fmt.Sprintf("wire format %s failed for %s: %v", e.Operation, e.Type, e.Err)
}

func (e *WireFormatError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *WireFormatError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Class: entities.ErrorClassInternal, Kind: entities.FailureMalformedEncoding, Message: e.Error()}
}

// KindOf maps any error to its failure category. A nil error is FailureNone.
// Errors outside the taxonomy are FailureUnexpected.
func KindOf(err error) entities.FailureKind {
	if err == nil {
		return entities.FailureNone
	}

	var ce *CallError
	if stdErrors.As(err, &ce) {
		return ce.Kind
	}

	var we *WireFormatError
	if stdErrors.As(err, &we) {
		return entities.FailureMalformedEncoding
	}

	if stdErrors.Is(err, context.DeadlineExceeded) {
		return entities.FailureTimeout
	}
	if stdErrors.Is(err, ErrDeadObject) {
		return entities.FailureServiceUnavailable
	}
	return entities.FailureUnexpected
}

// Result converts an error into a tagged CallResult.
func Result(value any, err error) entities.CallResult {
	if err == nil {
		return entities.Succeeded(value)
	}
	return entities.Failed(KindOf(err), err)
}
