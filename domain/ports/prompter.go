package ports

import "github.com/reglet-dev/permprobe/domain/entities"

// HazardPrompter asks an operator whether disruptive probes may run.
type HazardPrompter interface {
	// IsInteractive reports whether an operator can answer.
	IsInteractive() bool

	// ConfirmHazards lists the hazards and returns the operator's decision.
	ConfirmHazards(hazards []entities.Hazard) (bool, error)
}
