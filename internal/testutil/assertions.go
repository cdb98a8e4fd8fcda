// Package testutil provides fakes, assertions and fixture builders shared by
// permprobe tests.
package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/errors"
)

// AssertKind asserts the failure category of err.
func AssertKind(t *testing.T, want entities.FailureKind, err error, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, want, errors.KindOf(err), msgAndArgs...)
}

// AssertVerdict asserts the verdict of an outcome and, for Inconclusive,
// its cause.
func AssertVerdict(t *testing.T, want entities.Outcome, got entities.Outcome, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, want.Verdict, got.Verdict, msgAndArgs...)
	if want.Verdict == entities.VerdictInconclusive {
		assert.Equal(t, want.Cause, got.Cause, msgAndArgs...)
	}
	if want.Reason != "" {
		assert.Equal(t, want.Reason, got.Reason, msgAndArgs...)
	}
}

// AssertJSONEqual compares two JSON documents ignoring formatting.
func AssertJSONEqual(t *testing.T, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedJSON, actualJSON interface{}
	require.NoError(t, json.Unmarshal([]byte(expected), &expectedJSON), "expected JSON is invalid")
	require.NoError(t, json.Unmarshal([]byte(actual), &actualJSON), "actual JSON is invalid")

	assert.Equal(t, expectedJSON, actualJSON, msgAndArgs...)
}

// AssertDurationWithin asserts that actual is within tolerance of expected.
func AssertDurationWithin(t *testing.T, expected, actual, tolerance time.Duration, msgAndArgs ...interface{}) {
	t.Helper()

	diff := expected - actual
	if diff < 0 {
		diff = -diff
	}
	assert.LessOrEqual(t, diff, tolerance, msgAndArgs...)
}
