package entities

import "fmt"

// Verdict is the classification of one probe execution.
type Verdict string

const (
	// VerdictEnforced means the access-control layer rejected the call.
	VerdictEnforced Verdict = "enforced"

	// VerdictNotEnforced means the guarded operation was reachable.
	VerdictNotEnforced Verdict = "not_enforced"

	// VerdictBypassed means the probe skipped the call on purpose.
	VerdictBypassed Verdict = "bypassed"

	// VerdictInconclusive means the result says nothing about enforcement.
	VerdictInconclusive Verdict = "inconclusive"
)

// Outcome is the verdict produced once per probe execution.
type Outcome struct {
	// Verdict is the classification.
	Verdict Verdict `json:"verdict"`

	// Reason explains a Bypassed verdict.
	Reason string `json:"reason,omitempty"`

	// Cause is the failure category behind an Inconclusive verdict.
	Cause FailureKind `json:"cause,omitempty"`

	// Detail carries the failure message.
	Detail string `json:"detail,omitempty"`

	// Granted records whether the caller held the capability when the probe ran.
	Granted bool `json:"granted"`

	// Defect marks a broken probe (malformed encoding), reported loudly.
	Defect bool `json:"defect,omitempty"`
}

// Enforced returns an Enforced outcome.
func Enforced(detail string) Outcome {
	return Outcome{Verdict: VerdictEnforced, Detail: detail}
}

// NotEnforced returns a NotEnforced outcome.
func NotEnforced() Outcome {
	return Outcome{Verdict: VerdictNotEnforced}
}

// Bypassed returns a Bypassed outcome with the given reason.
func Bypassed(reason string) Outcome {
	return Outcome{Verdict: VerdictBypassed, Reason: reason}
}

// Inconclusive returns an Inconclusive outcome with the given cause.
func Inconclusive(cause FailureKind, detail string) Outcome {
	return Outcome{Verdict: VerdictInconclusive, Cause: cause, Detail: detail}
}

// Finding reports whether the outcome is a security finding: the guarded
// operation was reachable although the caller did not hold the capability.
func (o Outcome) Finding() bool {
	return o.Verdict == VerdictNotEnforced && !o.Granted
}

// String renders the outcome as e.g. "inconclusive(timeout)".
func (o Outcome) String() string {
	switch o.Verdict {
	case VerdictBypassed:
		return fmt.Sprintf("%s(%q)", o.Verdict, o.Reason)
	case VerdictInconclusive:
		return fmt.Sprintf("%s(%s)", o.Verdict, o.Cause)
	default:
		return string(o.Verdict)
	}
}
