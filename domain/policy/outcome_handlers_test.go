package policy_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/policy"
	"github.com/stretchr/testify/assert"
)

func TestStderrOutcomeHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &policy.StderrOutcomeHandler{Out: &buf}

	h.OnOutcome("android.permission.REBOOT", entities.NotEnforced())
	h.OnOutcome("android.permission.SHUTDOWN", entities.Enforced(""))

	assert.Equal(t,
		"android.permission.REBOOT: not_enforced [FINDING]\nandroid.permission.SHUTDOWN: enforced\n",
		buf.String())
}

func TestSlogOutcomeHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := &policy.SlogOutcomeHandler{Logger: logger}

	h.OnOutcome("REBOOT", entities.Inconclusive(entities.FailureTimeout, ""))

	assert.Contains(t, buf.String(), "verdict=inconclusive")
	assert.Contains(t, buf.String(), "cause=timeout")
	assert.Contains(t, buf.String(), "capability=REBOOT")
}
