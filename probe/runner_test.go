package probe_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/errors"
	"github.com/reglet-dev/permprobe/domain/policy"
	"github.com/reglet-dev/permprobe/infrastructure/reference"
	"github.com/reglet-dev/permprobe/infrastructure/transacts"
	"github.com/reglet-dev/permprobe/invoke"
	"github.com/reglet-dev/permprobe/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const powerDescriptor = "android.os.IPowerManager"

type fixture struct {
	device  *reference.Device
	session *invoke.Session
}

func newFixture(t *testing.T, grants ...string) *fixture {
	t.Helper()
	power := reference.NewService("power", powerDescriptor,
		reference.Method{Name: "isInteractive", Returns: entities.Bool(true)},
		reference.Method{Name: "reboot", Permission: "REBOOT",
			Params: []entities.TypedArgument{entities.Bool(false), entities.String(""), entities.Bool(false)}},
		reference.Method{Name: "crash", Fault: nil, Params: []entities.TypedArgument{entities.Int32(0)}},
	)
	d, err := reference.NewDevice(
		reference.WithSDKVersion(33),
		reference.WithGrants(grants...),
		reference.WithService(power),
	)
	require.NoError(t, err)

	s := invoke.NewSession(d,
		invoke.WithTransactionTable(transacts.Sequential(powerDescriptor, "isInteractive", "reboot", "crash")),
		invoke.WithSDKVersion(33),
	)
	t.Cleanup(func() { _ = s.Close() })
	return &fixture{device: d, session: s}
}

func (f *fixture) runner(opts ...probe.RunnerOption) *probe.Runner {
	base := []probe.RunnerOption{
		probe.WithSession(f.session),
		probe.WithPlatform(f.device),
		probe.WithGrantChecker(f.device),
		probe.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	}
	return probe.NewRunner(append(base, opts...)...)
}

func rebootBody(ctx context.Context, env probe.Env) error {
	return env.Transact(ctx, entities.CallDescriptor{
		Service: "power", Descriptor: powerDescriptor, Method: "reboot",
		Args: []entities.TypedArgument{entities.Bool(false), entities.String("probe"), entities.Bool(false)},
	}).Err
}

func interactiveBody(ctx context.Context, env probe.Env) error {
	return env.Transact(ctx, entities.CallDescriptor{
		Service: "power", Descriptor: powerDescriptor, Method: "isInteractive", Returns: entities.ArgBool,
	}).Err
}

func spec(capability string, body probe.Body) probe.Spec {
	return probe.Spec{Capability: capability, Range: entities.AnyVersion(), Body: body}
}

func mustCatalog(t *testing.T, specs ...probe.Spec) *probe.Catalog {
	t.Helper()
	c, err := probe.NewCatalog(probe.WithProbes(specs...))
	require.NoError(t, err)
	return c
}

func capabilities(results []probe.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Spec.Capability
	}
	return out
}

func TestRunner_ScenarioA_ServiceUnavailable(t *testing.T) {
	f := newFixture(t)
	catalog := mustCatalog(t,
		spec("FIRST", interactiveBody),
		spec("MISSING", func(ctx context.Context, env probe.Env) error {
			return env.Transact(ctx, entities.CallDescriptor{Service: "econtroller", Descriptor: "x", Method: "m", Code: 1}).Err
		}),
		spec("LAST", interactiveBody),
	)

	results := f.runner().Run(context.Background(), catalog, 33)

	require.Equal(t, []string{"FIRST", "MISSING", "LAST"}, capabilities(results))
	assert.Equal(t, entities.Inconclusive(entities.FailureServiceUnavailable, "service is not registered").String(),
		results[1].Outcome.String())
	assert.Equal(t, entities.FailureServiceUnavailable, results[1].Outcome.Cause)
}

func TestRunner_ScenarioB_Enforced(t *testing.T) {
	f := newFixture(t)

	results := f.runner().Run(context.Background(), mustCatalog(t, spec("REBOOT", rebootBody)), 33)

	require.Len(t, results, 1)
	assert.Equal(t, entities.VerdictEnforced, results[0].Outcome.Verdict)
	assert.False(t, results[0].Outcome.Granted)
}

func TestRunner_ScenarioC_NotEnforced(t *testing.T) {
	f := newFixture(t)

	results := f.runner().Run(context.Background(), mustCatalog(t, spec("DEVICE_POWER", interactiveBody)), 33)

	require.Len(t, results, 1)
	assert.Equal(t, entities.VerdictNotEnforced, results[0].Outcome.Verdict)
	assert.True(t, results[0].Outcome.Finding())
}

func TestRunner_ScenarioD_HazardBypass(t *testing.T) {
	f := newFixture(t, "REBOOT")
	s := spec("android.permission.REBOOT", rebootBody)
	s.BypassIfGranted = "rebooting would end the session"

	results := f.runner().Run(context.Background(), mustCatalog(t, s), 33)

	require.Len(t, results, 1)
	assert.Equal(t, entities.Bypassed("rebooting would end the session").Verdict, results[0].Outcome.Verdict)
	assert.Equal(t, "rebooting would end the session", results[0].Outcome.Reason)
	assert.True(t, results[0].Outcome.Granted)
	assert.Equal(t, 0, f.device.Service("power").TotalCalls())
	assert.Equal(t, 0, f.device.Lookups("power"))
}

func TestRunner_HazardRunsWhenNotGranted(t *testing.T) {
	f := newFixture(t)
	s := spec("REBOOT", rebootBody)
	s.BypassIfGranted = "hazard"

	results := f.runner().Run(context.Background(), mustCatalog(t, s), 33)

	assert.Equal(t, entities.VerdictEnforced, results[0].Outcome.Verdict)
}

func TestRunner_AcceptDangerous(t *testing.T) {
	f := newFixture(t, "REBOOT")
	s := spec("REBOOT", rebootBody)
	s.BypassIfGranted = "hazard"

	results := f.runner(probe.WithAcceptDangerous(true)).Run(context.Background(), mustCatalog(t, s), 33)

	assert.Equal(t, entities.VerdictNotEnforced, results[0].Outcome.Verdict)
	assert.True(t, results[0].Outcome.Granted)
	assert.False(t, results[0].Outcome.Finding())
	assert.Equal(t, 1, f.device.Service("power").Calls("reboot"))
}

type failingGrants struct{}

func (failingGrants) IsGranted(ctx context.Context, capability string) (bool, error) {
	return false, fmt.Errorf("package manager unreachable")
}

func TestRunner_HazardWithUnknownGrantStatus(t *testing.T) {
	f := newFixture(t)
	s := spec("REBOOT", rebootBody)
	s.BypassIfGranted = "hazard"

	results := f.runner(probe.WithGrantChecker(failingGrants{})).Run(context.Background(), mustCatalog(t, s), 33)

	assert.Equal(t, entities.VerdictBypassed, results[0].Outcome.Verdict)
	assert.Contains(t, results[0].Outcome.Reason, "grant status unknown")
	assert.Equal(t, 0, f.device.Service("power").TotalCalls())
}

// stalledGrants blocks every query until its context ends.
type stalledGrants struct{}

func (stalledGrants) IsGranted(ctx context.Context, capability string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestRunner_GrantQueriesHonorTimeout(t *testing.T) {
	f := newFixture(t)
	hazard := spec("REBOOT", rebootBody)
	hazard.BypassIfGranted = "hazard"
	hazard.Timeout = 30 * time.Millisecond
	needs := spec("DUMP", interactiveBody)
	needs.Requires = []string{"BLUETOOTH_CONNECT"}
	plain := spec("STATUS_BAR", interactiveBody)

	start := time.Now()
	results := f.runner(
		probe.WithGrantChecker(stalledGrants{}),
		probe.WithDefaultTimeout(30*time.Millisecond),
	).Run(context.Background(), mustCatalog(t, hazard, needs, plain), 33)

	require.Len(t, results, 3)
	assert.Equal(t, entities.VerdictBypassed, results[0].Outcome.Verdict)
	assert.Contains(t, results[0].Outcome.Reason, "grant status unknown")
	assert.Equal(t, entities.VerdictBypassed, results[1].Outcome.Verdict)
	assert.Contains(t, results[1].Outcome.Reason, "BLUETOOTH_CONNECT")
	assert.Equal(t, entities.VerdictNotEnforced, results[2].Outcome.Verdict)
	assert.Equal(t, 0, f.device.Service("power").Calls("reboot"))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRunner_IgnoreAndRequires(t *testing.T) {
	f := newFixture(t, "ACCESS_NETWORK_STATE")
	ignored := spec("A", interactiveBody)
	ignored.Ignore = "covered by a separate suite"
	needs := spec("B", interactiveBody)
	needs.Requires = []string{"BLUETOOTH_CONNECT"}
	met := spec("C", interactiveBody)
	met.Requires = []string{"ACCESS_NETWORK_STATE"}

	results := f.runner().Run(context.Background(), mustCatalog(t, ignored, needs, met), 33)

	require.Len(t, results, 3)
	assert.Equal(t, entities.Bypassed("covered by a separate suite"), results[0].Outcome)
	assert.Equal(t, entities.VerdictBypassed, results[1].Outcome.Verdict)
	assert.Contains(t, results[1].Outcome.Reason, "android.permission.BLUETOOTH_CONNECT")
	assert.Equal(t, entities.VerdictNotEnforced, results[2].Outcome.Verdict)
	assert.Equal(t, 1, f.device.Service("power").Calls("isInteractive"))
}

func TestRunner_BodyBypass(t *testing.T) {
	f := newFixture(t)
	s := spec("X", func(ctx context.Context, env probe.Env) error {
		if env.Version() < 34 {
			return errors.Bypass("no call form before 34")
		}
		return nil
	})

	results := f.runner().Run(context.Background(), mustCatalog(t, s), 33)

	assert.Equal(t, entities.Bypassed("no call form before 34"), results[0].Outcome)
}

func TestRunner_VersionFiltering(t *testing.T) {
	f := newFixture(t)
	old := spec("OLD", interactiveBody)
	old.Range = entities.Between(23, 28)
	current := spec("CURRENT", interactiveBody)
	current.Range = entities.Between(30, 33)
	future := spec("FUTURE", interactiveBody)
	future.Range = entities.Since(34)
	edge := spec("EDGE", interactiveBody)
	edge.Range = entities.Since(33)

	catalog := mustCatalog(t, old, current, future, edge)

	assert.Equal(t, []string{"CURRENT", "EDGE"}, capabilities(f.runner().Run(context.Background(), catalog, 33)))
	assert.Equal(t, []string{"FUTURE", "EDGE"}, capabilities(f.runner().Run(context.Background(), catalog, 40)))
	assert.Empty(t, f.runner().Run(context.Background(), catalog, 29))
}

func TestRunner_Selection(t *testing.T) {
	f := newFixture(t)
	catalog := mustCatalog(t, spec("MANAGE_USERS", interactiveBody), spec("REBOOT", rebootBody))
	sel := policy.NewSelection(policy.WithExclude("MANAGE_*"))

	results := f.runner(probe.WithSelection(sel)).Run(context.Background(), catalog, 33)

	assert.Equal(t, []string{"REBOOT"}, capabilities(results))
}

func TestRunner_Timeout(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	hung := spec("HUNG", func(ctx context.Context, env probe.Env) error {
		<-release // ignores its context, like a deadlocked remote call
		return nil
	})
	hung.Timeout = 30 * time.Millisecond

	start := time.Now()
	results := f.runner().Run(context.Background(), mustCatalog(t, hung, spec("NEXT", interactiveBody)), 33)

	require.Len(t, results, 2)
	assert.Equal(t, entities.Inconclusive(entities.FailureTimeout, "no reply within 30ms").Cause, results[0].Outcome.Cause)
	assert.Equal(t, entities.VerdictInconclusive, results[0].Outcome.Verdict)
	assert.Equal(t, entities.VerdictNotEnforced, results[1].Outcome.Verdict)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRunner_DefaultTimeout(t *testing.T) {
	f := newFixture(t)
	s := spec("SLOW", func(ctx context.Context, env probe.Env) error {
		<-ctx.Done()
		return ctx.Err()
	})

	results := f.runner(probe.WithDefaultTimeout(20*time.Millisecond)).Run(context.Background(), mustCatalog(t, s), 33)

	assert.Equal(t, entities.FailureTimeout, results[0].Outcome.Cause)
}

func TestRunner_PanicIsIsolated(t *testing.T) {
	f := newFixture(t)
	catalog := mustCatalog(t,
		spec("PANICS", func(ctx context.Context, env probe.Env) error {
			var m map[string]int
			m["x"] = 1
			return nil
		}),
		spec("AFTER", interactiveBody),
	)

	results := f.runner().Run(context.Background(), catalog, 33)

	require.Len(t, results, 2)
	assert.Equal(t, entities.Inconclusive(entities.FailureUnexpected, "").Verdict, results[0].Outcome.Verdict)
	assert.Equal(t, entities.FailureUnexpected, results[0].Outcome.Cause)
	assert.Equal(t, entities.VerdictNotEnforced, results[1].Outcome.Verdict)
}

func TestRunner_MalformedEncodingIsDefect(t *testing.T) {
	var logs bytes.Buffer
	f := newFixture(t)
	s := spec("BROKEN", func(ctx context.Context, env probe.Env) error {
		return env.Transact(ctx, entities.CallDescriptor{
			Service: "power", Descriptor: powerDescriptor, Method: "notInTable",
		}).Err
	})

	results := f.runner(probe.WithLogger(slog.New(slog.NewTextHandler(&logs, nil)))).
		Run(context.Background(), mustCatalog(t, s), 33)

	assert.True(t, results[0].Outcome.Defect)
	assert.Error(t, results[0].Err)
	assert.Contains(t, logs.String(), "level=ERROR")
	assert.Equal(t, 1, probe.Summarize(results).Defects)
}

func TestRunner_OrderAndSharedState(t *testing.T) {
	f := newFixture(t)
	var mu sync.Mutex
	var state []string
	step := func(name string) probe.Body {
		return func(ctx context.Context, env probe.Env) error {
			mu.Lock()
			defer mu.Unlock()
			state = append(state, name)
			return nil
		}
	}

	results := f.runner().Run(context.Background(),
		mustCatalog(t, spec("ONE", step("one")), spec("TWO", step("two")), spec("THREE", step("three"))), 33)

	assert.Equal(t, []string{"ONE", "TWO", "THREE"}, capabilities(results))
	assert.Equal(t, []string{"one", "two", "three"}, state)
}

type collector struct {
	seen []string
}

func (c *collector) OnOutcome(capability string, outcome entities.Outcome) {
	c.seen = append(c.seen, capability+"="+string(outcome.Verdict))
}

func TestRunner_OutcomeHandlers(t *testing.T) {
	f := newFixture(t)
	c := &collector{}

	f.runner(probe.WithOutcomeHandler(c)).Run(context.Background(),
		mustCatalog(t, spec("REBOOT", rebootBody), spec("DEVICE_POWER", interactiveBody)), 33)

	assert.Equal(t, []string{"REBOOT=enforced", "DEVICE_POWER=not_enforced"}, c.seen)
}

func TestRunner_CancelledSession(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := f.runner().Run(ctx, mustCatalog(t, spec("A", interactiveBody), spec("B", interactiveBody)), 33)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, entities.VerdictInconclusive, r.Outcome.Verdict)
	}
}

func TestRunner_EnvFacts(t *testing.T) {
	f := newFixture(t, "DUMP")
	var version, uid int
	var granted bool
	s := spec("DUMP", func(ctx context.Context, env probe.Env) error {
		version, uid = env.Version(), env.CallerUID()
		var err error
		granted, err = env.Granted(ctx, "DUMP")
		return err
	})

	results := f.runner().Run(context.Background(), mustCatalog(t, s), 33)

	assert.Equal(t, 33, version)
	assert.Equal(t, 10001, uid)
	assert.True(t, granted)
	assert.True(t, results[0].Outcome.Granted)
}

func TestRunner_TransactOnHeldBinder(t *testing.T) {
	f := newFixture(t)
	held := f.device.Service("power")
	s := spec("REBOOT", func(ctx context.Context, env probe.Env) error {
		return env.TransactBinder(ctx, held, entities.CallDescriptor{
			Descriptor: powerDescriptor, Method: "reboot",
			Args: []entities.TypedArgument{entities.Bool(false), entities.String(""), entities.Bool(false)},
		}).Err
	})

	results := f.runner().Run(context.Background(), mustCatalog(t, s), 33)

	assert.Equal(t, entities.VerdictEnforced, results[0].Outcome.Verdict)
	assert.Equal(t, 1, held.Calls("reboot"))
	assert.False(t, f.session.Cached("power"))
}

func TestRunner_TransactOnHeldBinderWithoutSession(t *testing.T) {
	var res entities.CallResult
	s := spec("REBOOT", func(ctx context.Context, env probe.Env) error {
		res = env.TransactBinder(ctx, nil, entities.CallDescriptor{Descriptor: powerDescriptor, Method: "reboot"})
		return nil
	})

	probe.NewRunner().Run(context.Background(), mustCatalog(t, s), 33)

	assert.Equal(t, entities.FailureUnexpected, res.Kind)
}
