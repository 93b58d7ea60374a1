package installer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/astrokit/internal/component"
	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/state"
)

// fake is a scripted component whose installed flag flips on install.
type fake struct {
	name      string
	deps      []string
	installed bool
	installs  int
	installFn func(env *component.Env) error
	health    state.Status
}

func (f *fake) component() component.Component {
	return component.Component{
		Name:        f.name,
		DependsOn:   f.deps,
		IsInstalled: func(context.Context, *component.Env) bool { return f.installed },
		Install: func(_ context.Context, env *component.Env) error {
			f.installs++
			if f.installFn != nil {
				if err := f.installFn(env); err != nil {
					return err
				}
			}
			f.installed = true
			return nil
		},
		Verify: func(context.Context, *component.Env) component.Health {
			switch f.health {
			case "", state.StatusOK:
				return component.OK("fine")
			case state.StatusDegraded:
				return component.Degraded("probe", "impaired")
			default:
				return component.Broken("probe", "unusable")
			}
		},
	}
}

type fixture struct {
	fakes   map[string]*fake
	store   *state.MemoryStore
	records *state.Records
	inst    *Installer
}

func newFixture(t *testing.T, fakes ...*fake) *fixture {
	t.Helper()
	comps := make([]component.Component, len(fakes))
	byName := make(map[string]*fake, len(fakes))
	for i, f := range fakes {
		comps[i] = f.component()
		byName[f.name] = f
	}
	reg, err := component.NewRegistry(comps...)
	require.NoError(t, err)

	store := state.NewMemoryStore()
	records := state.NewRecords(store)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	inst := New(reg, records, &component.Env{}).
		WithHistory(store).
		WithClock(func() time.Time { return clock })
	return &fixture{fakes: byName, store: store, records: records, inst: inst}
}

func outcomes(r *Report) map[string]Outcome {
	out := make(map[string]Outcome, len(r.Items))
	for _, it := range r.Items {
		out[it.Component] = it.Outcome
	}
	return out
}

func TestInstallAllIsIdempotent(t *testing.T) {
	fx := newFixture(t,
		&fake{name: "home"},
		&fake{name: "python", deps: []string{"home"}},
		&fake{name: "core", deps: []string{"python"}},
	)
	ctx := context.Background()

	first, err := fx.inst.InstallAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]Outcome{"home": OutcomeOK, "python": OutcomeOK, "core": OutcomeOK}, outcomes(first))
	assert.Equal(t, ferrors.ExitOK, first.ExitCode())

	rec, ok, err := fx.records.Get(ctx, "core")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rec.Installed)
	assert.Equal(t, state.StatusOK, rec.LastStatus)

	writes := fx.store.Writes()
	second, err := fx.inst.InstallAll(ctx, false)
	require.NoError(t, err)
	for _, it := range second.Items {
		assert.Equal(t, OutcomeSkipped, it.Outcome, it.Component)
	}
	assert.Equal(t, writes, fx.store.Writes(), "second run must not rewrite records")
	for _, f := range fx.fakes {
		assert.Equal(t, 1, f.installs, f.name)
	}
}

func TestSkippedComponentResetsStaleRecord(t *testing.T) {
	fx := newFixture(t, &fake{name: "topcat", installed: true})
	ctx := context.Background()
	require.NoError(t, fx.records.Put(ctx, "topcat", state.Record{
		LastStatus: state.StatusBroken,
		LastDetail: "jar missing",
	}))

	report, err := fx.inst.InstallAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]Outcome{"topcat": OutcomeSkipped}, outcomes(report))
	assert.Equal(t, 0, fx.fakes["topcat"].installs)

	rec, ok, err := fx.records.Get(ctx, "topcat")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rec.Installed)
	assert.True(t, rec.InstalledAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, state.StatusUnknown, rec.LastStatus, "a stale verification is not carried over")
	assert.Empty(t, rec.LastDetail)
}

func TestInstallOrderFollowsDependencies(t *testing.T) {
	var order []string
	track := func(name string) func(*component.Env) error {
		return func(*component.Env) error {
			order = append(order, name)
			return nil
		}
	}
	fx := newFixture(t,
		&fake{name: "viz", deps: []string{"core"}, installFn: track("viz")},
		&fake{name: "core", deps: []string{"python"}, installFn: track("core")},
		&fake{name: "python", installFn: track("python")},
	)

	_, err := fx.inst.InstallAll(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "core", "viz"}, order)
}

func TestFailedInstallBlocksDependentsOnly(t *testing.T) {
	fx := newFixture(t,
		&fake{name: "a"},
		&fake{name: "b", deps: []string{"a"}, installFn: func(*component.Env) error {
			return ferrors.InstallError("b", "pip install failed").Check("pip-install").Hint("retry").Build()
		}},
		&fake{name: "c", deps: []string{"b"}},
		&fake{name: "d", deps: []string{"a"}},
	)

	report, err := fx.inst.InstallAll(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, map[string]Outcome{"a": OutcomeOK, "b": OutcomeFailed, "c": OutcomeBlocked, "d": OutcomeOK}, outcomes(report))
	assert.Equal(t, ferrors.ExitPartial, report.ExitCode())
	assert.Equal(t, 0, fx.fakes["c"].installs, "blocked component must not be attempted")

	b, _ := report.Get("b")
	assert.Equal(t, "pip-install", b.Check)
	assert.Equal(t, "retry", b.FixHint)
	c, _ := report.Get("c")
	assert.Equal(t, "dependency:b", c.Check)
	assert.Contains(t, c.Detail, "b is failed")

	rec, ok, err := fx.records.Get(context.Background(), "b")
	require.NoError(t, err)
	require.True(t, ok, "failed install is recorded")
	assert.False(t, rec.Installed)
	assert.Equal(t, state.StatusBroken, rec.LastStatus)
}

func TestBrokenVerifyBlocksDependents(t *testing.T) {
	fx := newFixture(t,
		&fake{name: "java", health: state.StatusBroken},
		&fake{name: "topcat", deps: []string{"java"}},
	)

	report, err := fx.inst.InstallAll(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, map[string]Outcome{"java": OutcomeBroken, "topcat": OutcomeBlocked}, outcomes(report))
	assert.Equal(t, ferrors.ExitTotal, report.ExitCode())
}

func TestDegradedDependencyStillProceeds(t *testing.T) {
	fx := newFixture(t,
		&fake{name: "python", health: state.StatusDegraded},
		&fake{name: "core", deps: []string{"python"}},
	)

	report, err := fx.inst.InstallAll(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, map[string]Outcome{"python": OutcomeDegraded, "core": OutcomeOK}, outcomes(report))
	assert.Equal(t, ferrors.ExitOK, report.ExitCode())
}

func TestForceReinstallsWithReinstallEnv(t *testing.T) {
	var sawReinstall bool
	fx := newFixture(t, &fake{name: "kit", installed: true, installFn: func(env *component.Env) error {
		sawReinstall = env.Reinstall
		return nil
	}})

	report, err := fx.inst.InstallAll(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, report.Items[0].Outcome)
	assert.True(t, sawReinstall)
	assert.False(t, fx.inst.Env().Reinstall, "shared env must not be mutated")
}

func TestUpdateAsksForUpgrade(t *testing.T) {
	var env *component.Env
	fx := newFixture(t, &fake{name: "core", installed: true, installFn: func(e *component.Env) error {
		env = e
		return nil
	}})

	report, err := fx.inst.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindUpdate, report.Kind)
	require.NotNil(t, env)
	assert.True(t, env.Upgrade)
	assert.True(t, env.Reinstall)
}

func TestInstallNamedComponentsUsesClosure(t *testing.T) {
	fx := newFixture(t,
		&fake{name: "home"},
		&fake{name: "python", deps: []string{"home"}},
		&fake{name: "java"},
		&fake{name: "topcat", deps: []string{"java", "home"}},
	)

	report, err := fx.inst.Install(context.Background(), false, "topcat")
	require.NoError(t, err)
	assert.Equal(t, map[string]Outcome{"home": OutcomeOK, "java": OutcomeOK, "topcat": OutcomeOK}, outcomes(report))
	assert.Equal(t, 0, fx.fakes["python"].installs)

	_, err = fx.inst.Install(context.Background(), false, "nope")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestCyclicGraphIsConfigError(t *testing.T) {
	fx := newFixture(t,
		&fake{name: "a", deps: []string{"b"}},
		&fake{name: "b", deps: []string{"a"}},
	)

	_, err := fx.inst.InstallAll(context.Background(), false)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	var cyc *component.CyclicDependencyError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, 0, fx.fakes["a"].installs+fx.fakes["b"].installs)
}

func TestCanceledRunBlocksRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fx := newFixture(t,
		&fake{name: "a", installFn: func(*component.Env) error {
			cancel()
			return nil
		}},
		&fake{name: "b"},
		&fake{name: "c"},
	)

	report, err := fx.inst.InstallAll(ctx, false)
	require.NoError(t, err)
	require.Len(t, report.Items, 3, "report covers every component")
	assert.Equal(t, OutcomeOK, report.Items[0].Outcome)
	for _, it := range report.Items[1:] {
		assert.Equal(t, OutcomeBlocked, it.Outcome)
		assert.Equal(t, "canceled", it.Detail)
	}
}

func TestUnclassifiedInstallErrorNamesComponent(t *testing.T) {
	fx := newFixture(t, &fake{name: "kit", installFn: func(*component.Env) error {
		return errors.New("disk full")
	}})

	report, err := fx.inst.InstallAll(context.Background(), false)
	require.NoError(t, err)
	ce, ok := ferrors.AsClassified(report.FirstError())
	require.True(t, ok)
	assert.Equal(t, "kit", ce.Component())
	assert.Equal(t, "install", report.Items[0].Check)
}

func TestHistoryEventsShareRunID(t *testing.T) {
	fx := newFixture(t, &fake{name: "a"}, &fake{name: "b", deps: []string{"a"}})

	report, err := fx.inst.InstallAll(context.Background(), false)
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)

	events, err := fx.store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, report.RunID, e.RunID)
		assert.Equal(t, KindInstall, e.Kind)
		assert.Equal(t, string(OutcomeOK), e.Outcome)
	}
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]string
	health   map[string]string
	runs     []string
}

func (c *countingRecorder) ObserveInstallDuration(string, string, time.Duration) {}
func (c *countingRecorder) IncOutcome(component, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[component] = outcome
}
func (c *countingRecorder) SetHealth(component, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.health[component] = status
}
func (c *countingRecorder) ObserveRunDuration(kind string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, kind)
}

func TestRecorderSeesOutcomes(t *testing.T) {
	rec := &countingRecorder{outcomes: map[string]string{}, health: map[string]string{}}
	fx := newFixture(t, &fake{name: "a", health: state.StatusDegraded}, &fake{name: "b", installed: true})
	fx.inst.WithRecorder(rec)

	_, err := fx.inst.InstallAll(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "degraded", "b": "skipped"}, rec.outcomes)
	assert.Equal(t, map[string]string{"a": "degraded"}, rec.health)
	assert.Equal(t, []string{KindInstall}, rec.runs)
}

func TestReinstallTouchesOnlyListed(t *testing.T) {
	fx := newFixture(t, &fake{name: "a", installed: true}, &fake{name: "b", installed: true, deps: []string{"a"}})
	report := fx.inst.Reinstall(context.Background(), KindRepair, []component.Component{fx.fakes["b"].component()})
	require.Len(t, report.Items, 1)
	assert.Equal(t, OutcomeOK, report.Items[0].Outcome)
	assert.Equal(t, 0, fx.fakes["a"].installs)
	assert.Equal(t, 1, fx.fakes["b"].installs)
}
