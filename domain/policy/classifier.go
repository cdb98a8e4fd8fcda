package policy

import "github.com/reglet-dev/permprobe/domain/entities"

// Classify maps a probe's raw execution result to exactly one verdict.
//
// Only FailureAccessDenied counts as enforcement. Every other failure proves
// nothing about access control and is Inconclusive; a malformed encoding is
// additionally flagged as a probe defect.
func Classify(raw entities.RawOutcome) entities.Outcome {
	var out entities.Outcome

	switch {
	case raw.Bypassed:
		out = entities.Bypassed(raw.Reason)
	case raw.Failure == entities.FailureNone:
		out = entities.NotEnforced()
	case raw.Failure == entities.FailureAccessDenied:
		out = entities.Enforced(raw.Detail)
	case raw.Failure == entities.FailureMalformedEncoding:
		out = entities.Inconclusive(raw.Failure, raw.Detail)
		out.Defect = true
	default:
		out = entities.Inconclusive(raw.Failure, raw.Detail)
	}

	out.Granted = raw.Granted
	return out
}
