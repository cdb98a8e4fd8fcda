package transacts_test

import (
	"bytes"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/reglet-dev/permprobe/infrastructure/transacts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequential(t *testing.T) {
	table := transacts.Sequential("android.os.IPowerManager", "acquireWakeLock", "releaseWakeLock", "reboot")

	code, ok := table.Code("android.os.IPowerManager", "reboot")
	require.True(t, ok)
	assert.Equal(t, uint32(3), code)

	_, ok = table.Code("android.os.IPowerManager", "shutdown")
	assert.False(t, ok)
	_, ok = table.Code("other", "reboot")
	assert.False(t, ok)
}

func TestServiceName(t *testing.T) {
	table := transacts.New().Alias("econtroller", "emergency_affordance")
	assert.Equal(t, "emergency_affordance", table.ServiceName("econtroller"))
	assert.Equal(t, "power", table.ServiceName("power"))

	var nilTable *transacts.Table
	assert.Equal(t, "power", nilTable.ServiceName("power"))
}

func TestMerge(t *testing.T) {
	a := transacts.Sequential("d", "x", "y")
	b := transacts.New().Set("d", "y", 9).Alias("p", "power")

	m := transacts.Merge(a, nil, b)

	code, _ := m.Code("d", "x")
	assert.Equal(t, uint32(1), code)
	code, _ = m.Code("d", "y")
	assert.Equal(t, uint32(9), code)
	assert.Equal(t, "power", m.ServiceName("p"))
}

func tableFS() fstest.MapFS {
	return fstest.MapFS{
		"binderdb-28.json": {Data: []byte(`{"methods": {"d": {"m": 4}}}`)},
		"binderdb-31.yaml": {Data: []byte("services:\n  alias: real\nmethods:\n  d:\n    m: 7\n")},
		"binderdb-34.json": {Data: []byte(`{"methods": {"d": {"m": 9}}}`)},
		"notes.txt":        {Data: []byte("ignored")},
	}
}

func TestLoad_ExactVersion(t *testing.T) {
	fsys := tableFS()

	for sdk, want := range map[int]uint32{28: 4, 31: 7, 34: 9} {
		table, err := transacts.Load("mem", sdk, transacts.WithFS(fsys))
		require.NoError(t, err)
		code, ok := table.Code("d", "m")
		require.True(t, ok)
		assert.Equal(t, want, code, "sdk %d", sdk)
		assert.Equal(t, sdk, table.SDK)
	}

	table, err := transacts.Load("mem", 31, transacts.WithFS(fsys))
	require.NoError(t, err)
	assert.Equal(t, "real", table.ServiceName("alias"))
}

func TestLoad_RejectsOtherVersions(t *testing.T) {
	for _, sdk := range []int{30, 33, 35} {
		_, err := transacts.Load("mem", sdk, transacts.WithFS(tableFS()))
		require.Error(t, err, "sdk %d", sdk)
		assert.ErrorContains(t, err, "fallback not enabled")
	}
}

func TestLoad_Fallback(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	tests := []struct {
		sdk      int
		want     uint32
		tableSDK int
	}{
		{28, 4, 28},
		{30, 4, 28},
		{33, 7, 31},
		{35, 9, 34},
	}
	for _, tt := range tests {
		table, err := transacts.Load("mem", tt.sdk,
			transacts.WithFS(tableFS()), transacts.WithFallback(), transacts.WithLogger(logger))
		require.NoError(t, err)
		code, ok := table.Code("d", "m")
		require.True(t, ok)
		assert.Equal(t, tt.want, code, "sdk %d", tt.sdk)
		assert.Equal(t, tt.tableSDK, table.SDK, "sdk %d", tt.sdk)
	}

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "table_sdk=34")
}

func TestLoad_NoneApplicable(t *testing.T) {
	fsys := fstest.MapFS{"binderdb-30.json": {Data: []byte(`{"methods": {}}`)}}

	_, err := transacts.Load("mem", 29, transacts.WithFS(fsys), transacts.WithFallback())
	assert.ErrorContains(t, err, "no transaction table for sdk 29")
}

func TestMarshalParse(t *testing.T) {
	table := transacts.Sequential("d", "a", "b").Alias("x", "y")
	data, err := transacts.Marshal(table)
	require.NoError(t, err)

	back, err := transacts.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, table.Methods, back.Methods)
	assert.Equal(t, table.Services, back.Services)
}
