package ports

import "github.com/reglet-dev/permprobe/domain/entities"

// OutcomeHandler is notified once per executed probe, in catalog order.
// Implementations can log, render, or collect results.
type OutcomeHandler interface {
	OnOutcome(capability string, outcome entities.Outcome)
}
