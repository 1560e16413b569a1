package matrix

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/crossforge/crossforge/model"
	"github.com/crossforge/crossforge/pipeline"
)

// fakeSteps implements every step interface with recorded calls and
// per-step configurable failures.
type fakeSteps struct {
	mu sync.Mutex

	provisionErr map[pipeline.OS]error
	buildErr     map[pipeline.OS]error
	stripErr     map[pipeline.OS]error
	publishErr   map[pipeline.OS]error

	provisioned []string
	built       []pipeline.OS
	processed   []pipeline.OS
	published   []string
}

func newFakeSteps() *fakeSteps {
	return &fakeSteps{
		provisionErr: make(map[pipeline.OS]error),
		buildErr:     make(map[pipeline.OS]error),
		stripErr:     make(map[pipeline.OS]error),
		publishErr:   make(map[pipeline.OS]error),
	}
}

// The provisioner only sees the channel, so per-OS provisioning failures
// are keyed through a channel-scoped provisioner wrapper below.
func (f *fakeSteps) Provision(ctx context.Context, channel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provisioned = append(f.provisioned, channel)
	return nil
}

func (f *fakeSteps) Build(ctx context.Context, target pipeline.Target) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.buildErr[target.OS]; err != nil {
		return err
	}
	f.built = append(f.built, target.OS)
	return nil
}

func (f *fakeSteps) Process(ctx context.Context, target pipeline.Target) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.stripErr[target.OS]; err != nil {
		return err
	}
	f.processed = append(f.processed, target.OS)
	return nil
}

func (f *fakeSteps) Publish(ctx context.Context, name, path string) (model.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for os, err := range f.publishErr {
		if err != nil && targetFor(os).ArtifactName == name {
			return model.Location{}, err
		}
	}
	f.published = append(f.published, name)
	return model.Location{Path: "dist/" + name, Size: 1}, nil
}

// failingProvisioner fails for a fixed set of targets by wrapping the
// controller with one provisioner per target OS.
type failingProvisioner struct {
	inner *fakeSteps
	err   error
}

func (p *failingProvisioner) Provision(ctx context.Context, channel string) error {
	if p.err != nil {
		return p.err
	}
	return p.inner.Provision(ctx, channel)
}

func targetFor(os pipeline.OS) pipeline.Target {
	p := pipeline.Default()
	for _, t := range p.Targets {
		if t.OS == os {
			return t
		}
	}
	panic("unknown test target: " + string(os))
}

func allTargets() []pipeline.Target {
	return pipeline.Default().Targets
}

func TestRunAllTargetsSucceed(t *testing.T) {
	steps := newFakeSteps()
	c := New(zerolog.Nop(), steps, steps, steps, steps)

	results := c.Run(context.Background(), "stable", allTargets())

	require.Len(t, results, 3)
	require.True(t, Succeeded(results))
	for i, target := range allTargets() {
		require.Equal(t, target.OS, results[i].Target.OS)
		require.Equal(t, model.StatusSuccess, results[i].Status)
		require.Equal(t, StateSucceeded, results[i].Final)
		require.NotNil(t, results[i].Location)
		require.NoError(t, results[i].Err)
	}

	// Publisher invoked exactly once per target with the fixed names.
	require.ElementsMatch(t,
		[]string{"vault-hunter-linux", "vault-hunter-windows", "vault-hunter-mac"},
		steps.published)
	require.ElementsMatch(t, []string{"stable", "stable", "stable"}, steps.provisioned)
}

func TestRunBuildFailureIsolated(t *testing.T) {
	steps := newFakeSteps()
	steps.buildErr[pipeline.OSLinux] = errors.New("rustc exited with status 1")
	c := New(zerolog.Nop(), steps, steps, steps, steps)

	results := c.Run(context.Background(), "stable", allTargets())

	require.False(t, Succeeded(results))

	byOS := make(map[pipeline.OS]Result)
	for _, r := range results {
		byOS[r.Target.OS] = r
	}

	// Failed target: build_failure, never post-processed or published.
	require.Equal(t, model.StatusBuildFailure, byOS[pipeline.OSLinux].Status)
	require.Equal(t, StateFailed, byOS[pipeline.OSLinux].Final)
	require.Error(t, byOS[pipeline.OSLinux].Err)
	require.Nil(t, byOS[pipeline.OSLinux].Location)
	require.NotContains(t, steps.processed, pipeline.OSLinux)
	require.NotContains(t, steps.published, "vault-hunter-linux")

	// Sibling targets complete untouched.
	require.Equal(t, model.StatusSuccess, byOS[pipeline.OSWindows].Status)
	require.Equal(t, StateSucceeded, byOS[pipeline.OSWindows].Final)
	require.Equal(t, model.StatusSuccess, byOS[pipeline.OSMac].Status)
	require.Contains(t, steps.published, "vault-hunter-windows")
	require.Contains(t, steps.published, "vault-hunter-mac")
}

func TestRunStripFailureSkipsPublish(t *testing.T) {
	steps := newFakeSteps()
	steps.stripErr[pipeline.OSMac] = errors.New("strip: not an object file")
	c := New(zerolog.Nop(), steps, steps, steps, steps)

	results := c.Run(context.Background(), "stable", allTargets())

	byOS := make(map[pipeline.OS]Result)
	for _, r := range results {
		byOS[r.Target.OS] = r
	}

	require.Equal(t, model.StatusStripFailure, byOS[pipeline.OSMac].Status)
	require.NotContains(t, steps.published, "vault-hunter-mac")
	require.Contains(t, steps.published, "vault-hunter-linux")
	require.Contains(t, steps.published, "vault-hunter-windows")
}

func TestRunPublishFailure(t *testing.T) {
	steps := newFakeSteps()
	steps.publishErr[pipeline.OSWindows] = errors.New("store unavailable")
	c := New(zerolog.Nop(), steps, steps, steps, steps)

	results := c.Run(context.Background(), "stable", allTargets())

	byOS := make(map[pipeline.OS]Result)
	for _, r := range results {
		byOS[r.Target.OS] = r
	}

	require.Equal(t, model.StatusPublishFailure, byOS[pipeline.OSWindows].Status)
	require.Nil(t, byOS[pipeline.OSWindows].Location)
	require.Equal(t, model.StatusSuccess, byOS[pipeline.OSLinux].Status)
	require.Equal(t, model.StatusSuccess, byOS[pipeline.OSMac].Status)
}

func TestRunToolchainFailureForOneTarget(t *testing.T) {
	// Simulated toolchain_failure for windows only: linux and macos must
	// still succeed, aggregate run status failed.
	steps := newFakeSteps()
	windows := targetFor(pipeline.OSWindows)

	failing := &failingProvisioner{inner: steps, err: errors.New("network failure fetching toolchain")}
	good := New(zerolog.Nop(), steps, steps, steps, steps)
	bad := New(zerolog.Nop(), failing, steps, steps, steps)

	goodResults := good.Run(context.Background(), "stable",
		[]pipeline.Target{targetFor(pipeline.OSLinux), targetFor(pipeline.OSMac)})
	badResults := bad.Run(context.Background(), "stable", []pipeline.Target{windows})

	results := append(goodResults, badResults...)

	require.False(t, Succeeded(results))
	require.Equal(t, model.StatusSuccess, results[0].Status)
	require.Equal(t, model.StatusSuccess, results[1].Status)
	require.Equal(t, model.StatusToolchainFailure, results[2].Status)

	// A provisioning failure aborts every later step for that target.
	require.NotContains(t, steps.built, pipeline.OSWindows)
	require.NotContains(t, steps.processed, pipeline.OSWindows)
	require.NotContains(t, steps.published, "vault-hunter-windows")
}

func TestRunContextCancelled(t *testing.T) {
	steps := newFakeSteps()
	c := New(zerolog.Nop(), steps, steps, steps, steps)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := c.Run(ctx, "stable", allTargets())

	require.False(t, Succeeded(results))
	for _, r := range results {
		require.ErrorIs(t, r.Err, context.Canceled)
	}
	require.Empty(t, steps.published)
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StatePending, "pending"},
		{StateProvisioning, "provisioning"},
		{StateBuilding, "building"},
		{StatePostProcessing, "post-processing"},
		{StatePublishing, "publishing"},
		{StateSucceeded, "succeeded"},
		{StateFailed, "failed"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
			}
		})
	}
}

func TestTerminalStateMatchesAggregate(t *testing.T) {
	// Every result ends in exactly one terminal state, and the aggregate
	// helper agrees with it.
	steps := newFakeSteps()
	steps.buildErr[pipeline.OSWindows] = errors.New("link error")
	c := New(zerolog.Nop(), steps, steps, steps, steps)

	results := c.Run(context.Background(), "stable", allTargets())

	require.False(t, Succeeded(results))
	for _, r := range results {
		if r.Status.Failed() {
			require.Equal(t, StateFailed, r.Final)
		} else {
			require.Equal(t, StateSucceeded, r.Final)
		}
	}
}

func TestResultOrderMatchesTargets(t *testing.T) {
	steps := newFakeSteps()
	c := New(zerolog.Nop(), steps, steps, steps, steps)

	targets := allTargets()
	results := c.Run(context.Background(), "stable", targets)

	require.Len(t, results, len(targets))
	for i := range targets {
		require.Equal(t, targets[i].ArtifactName, results[i].Target.ArtifactName)
	}
}
