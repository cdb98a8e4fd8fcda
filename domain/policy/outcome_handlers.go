package policy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/ports"
)

// Ensure implementations satisfy the interface.
var _ ports.OutcomeHandler = (*StderrOutcomeHandler)(nil)
var _ ports.OutcomeHandler = (*NopOutcomeHandler)(nil)
var _ ports.OutcomeHandler = (*SlogOutcomeHandler)(nil)

// StderrOutcomeHandler prints one line per outcome. Findings are marked.
type StderrOutcomeHandler struct {
	// Out overrides os.Stderr when set.
	Out io.Writer
}

func (h *StderrOutcomeHandler) OnOutcome(capability string, outcome entities.Outcome) {
	w := h.Out
	if w == nil {
		w = os.Stderr
	}
	marker := ""
	if outcome.Finding() {
		marker = " [FINDING]"
	}
	if outcome.Defect {
		marker = " [PROBE DEFECT]"
	}
	fmt.Fprintf(w, "%s: %s%s\n", capability, outcome, marker)
}

// NopOutcomeHandler does nothing.
type NopOutcomeHandler struct{}

func (h *NopOutcomeHandler) OnOutcome(capability string, outcome entities.Outcome) {}

// SlogOutcomeHandler logs outcomes through a structured logger.
type SlogOutcomeHandler struct {
	Logger *slog.Logger
}

func (h *SlogOutcomeHandler) OnOutcome(capability string, outcome entities.Outcome) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	switch {
	case outcome.Defect:
		level = slog.LevelError
	case outcome.Finding():
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "probe outcome",
		slog.String("capability", capability),
		slog.String("verdict", string(outcome.Verdict)),
		slog.String("cause", string(outcome.Cause)),
		slog.String("reason", outcome.Reason),
		slog.Bool("granted", outcome.Granted),
	)
}
