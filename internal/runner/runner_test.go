package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/me/xbench/internal/workload"
	"github.com/me/xbench/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeWorkload records lifecycle calls and can fail any phase on demand.
type fakeWorkload struct {
	name string

	mu    sync.Mutex
	calls []string
	draws []int64

	setupErr    error
	runErr      error
	teardownErr error
	verifyErr   error
}

func (f *fakeWorkload) Name() string        { return f.name }
func (f *fakeWorkload) Binary() string      { return f.name }
func (f *fakeWorkload) Description() string { return "fake " + f.name }

func (f *fakeWorkload) record(phase string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, phase)
}

func (f *fakeWorkload) Setup(ctx context.Context, env *workload.Env) error {
	f.record("setup")
	return f.setupErr
}

func (f *fakeWorkload) Run(ctx context.Context, env *workload.Env) (*model.WorkloadOutput, error) {
	f.record("run")
	if f.runErr != nil {
		return nil, f.runErr
	}
	f.mu.Lock()
	f.draws = append(f.draws, env.Rand.Int63())
	f.mu.Unlock()
	return &model.WorkloadOutput{Stdout: f.name + " ok"}, nil
}

func (f *fakeWorkload) Teardown(ctx context.Context, env *workload.Env) error {
	f.record("teardown")
	return f.teardownErr
}

func (f *fakeWorkload) Verify(ctx context.Context, env *workload.Env) error {
	f.record("verify")
	return f.verifyErr
}

func (f *fakeWorkload) phases() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// allowProber treats every node as reachable except the listed ones.
type allowProber struct {
	unreachable map[string]bool
}

func (p *allowProber) Reachable(ctx context.Context, node string) bool {
	return !p.unreachable[node]
}

func testRegistry(t *testing.T, fakes ...*fakeWorkload) *workload.Registry {
	t.Helper()
	reg := workload.NewRegistry(testLogger())
	for _, f := range fakes {
		f := f
		reg.Register(f.name, func() (workload.Workload, error) { return f, nil })
	}
	return reg
}

func testInfo(nodes ...string) *model.Info {
	if len(nodes) == 0 {
		nodes = []string{"."}
	}
	info, err := model.NewInfo(model.Info{
		Name: "bench", Description: "bench run", Nodes: nodes,
		LogLevel: model.LogLevelInfo, Seed: 12345, MaxDuration: 60,
		Accelerators: 8, MinMemory: 2, MinCores: 1, MinThreads: 1,
		MinWorkloads: 1, MaxWorkloads: 100, Timeout: 60,
	})
	if err != nil {
		panic(err)
	}
	return info
}

func schedOf(info *model.Info, steps ...[]string) *model.Schedule {
	s := &model.Schedule{Info: info}
	for _, names := range steps {
		step := &model.Step{Info: info}
		for _, name := range names {
			step.Workloads = append(step.Workloads, &model.Load{Workload: name, Info: info})
		}
		s.Steps = append(s.Steps, step)
	}
	return s
}

func TestRun_PhasesAndResults(t *testing.T) {
	nst := &fakeWorkload{name: "nst"}
	sandstone := &fakeWorkload{name: "sandstone"}
	r := New(testRegistry(t, nst, sandstone), &allowProber{}, testLogger())

	info := testInfo()
	result, err := r.Run(context.Background(), schedOf(info, []string{"nst"}, []string{"nst", "sandstone"}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(result.Results))
	}
	out := result.Output(1, ".", "sandstone")
	if out == nil || out.Stdout != "sandstone ok" {
		t.Errorf("step 1 sandstone output = %+v", out)
	}

	// nst appears in both steps: two full setup/run/teardown sweeps.
	if got, want := nst.phases(), []string{"setup", "run", "teardown", "setup", "run", "teardown"}; !reflect.DeepEqual(got, want) {
		t.Errorf("nst phases = %v, want %v", got, want)
	}
	if got, want := sandstone.phases(), []string{"setup", "run", "teardown"}; !reflect.DeepEqual(got, want) {
		t.Errorf("sandstone phases = %v, want %v", got, want)
	}
}

func TestRun_VerifyGate(t *testing.T) {
	r := New(testRegistry(t), &allowProber{}, testLogger())
	_, err := r.Run(context.Background(), &model.Schedule{Info: testInfo()})
	if err == nil {
		t.Fatal("Run accepted a schedule with no steps")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrConstraint {
		t.Errorf("error = %v, want constraint APIError", err)
	}
}

func TestRun_UnreachableNodeAbortsBeforeAnyPhase(t *testing.T) {
	nst := &fakeWorkload{name: "nst"}
	r := New(testRegistry(t, nst), &allowProber{unreachable: map[string]bool{"node9": true}}, testLogger())

	_, err := r.Run(context.Background(), schedOf(testInfo(".", "node9"), []string{"nst"}))
	if err == nil {
		t.Fatal("Run proceeded with an unreachable node")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrConnectivity {
		t.Fatalf("error = %v, want connectivity APIError", err)
	}
	if !strings.Contains(apiErr.Message, "node9") {
		t.Errorf("message %q does not name the node", apiErr.Message)
	}
	if len(nst.phases()) != 0 {
		t.Errorf("phases ran despite the aborted run: %v", nst.phases())
	}
}

func TestRun_SetupErrorSkipsRunAndLaterSteps(t *testing.T) {
	bad := &fakeWorkload{name: "bad", setupErr: errors.New("no binary")}
	next := &fakeWorkload{name: "next"}
	r := New(testRegistry(t, bad, next), &allowProber{}, testLogger())

	info := testInfo()
	result, err := r.Run(context.Background(), schedOf(info, []string{"bad"}, []string{"next"}))
	if err == nil {
		t.Fatal("Run succeeded despite setup failure")
	}
	if !strings.Contains(err.Error(), "step 0: setup") {
		t.Errorf("error %q should locate the failing step and phase", err)
	}
	if got, want := bad.phases(), []string{"setup"}; !reflect.DeepEqual(got, want) {
		t.Errorf("bad phases = %v, want setup only", got)
	}
	if len(next.phases()) != 0 {
		t.Errorf("later step ran after failure: %v", next.phases())
	}
	if result == nil || len(result.Results) != 0 {
		t.Errorf("partial result = %+v, want empty aggregation", result)
	}
}

func TestRun_RunErrorSkipsTeardown(t *testing.T) {
	bad := &fakeWorkload{name: "bad", runErr: errors.New("crashed")}
	r := New(testRegistry(t, bad), &allowProber{}, testLogger())

	_, err := r.Run(context.Background(), schedOf(testInfo(), []string{"bad"}))
	if err == nil {
		t.Fatal("Run succeeded despite run failure")
	}
	if got, want := bad.phases(), []string{"setup", "run"}; !reflect.DeepEqual(got, want) {
		t.Errorf("phases = %v, want no teardown after run failure", got)
	}
}

func TestRun_PartialResultsSurvivePartnerFailure(t *testing.T) {
	ok := &fakeWorkload{name: "ok"}
	bad := &fakeWorkload{name: "bad", runErr: errors.New("crashed")}
	r := New(testRegistry(t, ok, bad), &allowProber{}, testLogger())

	result, err := r.Run(context.Background(), schedOf(testInfo(), []string{"ok", "bad"}))
	if err == nil {
		t.Fatal("Run succeeded despite a failing load")
	}
	if result.Output(0, ".", "ok") == nil {
		t.Error("surviving load's output missing from the partial result")
	}
}

func TestRun_SameSeedSameDraws(t *testing.T) {
	draws := func() [][]int64 {
		a := &fakeWorkload{name: "a"}
		b := &fakeWorkload{name: "b"}
		r := New(testRegistry(t, a, b), &allowProber{}, testLogger())
		if _, err := r.Run(context.Background(), schedOf(testInfo(), []string{"a"}, []string{"b"})); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return [][]int64{a.draws, b.draws}
	}
	if !reflect.DeepEqual(draws(), draws()) {
		t.Error("two runs with the same seed drew different values")
	}
}

func TestRunWorkload_FullLifecycle(t *testing.T) {
	f := &fakeWorkload{name: "solo"}
	r := New(testRegistry(t, f), &allowProber{}, testLogger())

	out, err := r.RunWorkload(context.Background(), "solo", nil)
	if err != nil {
		t.Fatalf("RunWorkload: %v", err)
	}
	if out == nil || out.Stdout != "solo ok" {
		t.Errorf("output = %+v", out)
	}
	if got, want := f.phases(), []string{"setup", "run", "teardown", "verify"}; !reflect.DeepEqual(got, want) {
		t.Errorf("phases = %v, want %v", got, want)
	}
}

func TestRunWorkload_VerifyFailure(t *testing.T) {
	f := &fakeWorkload{name: "solo", verifyErr: errors.New("checksum mismatch")}
	r := New(testRegistry(t, f), &allowProber{}, testLogger())

	out, err := r.RunWorkload(context.Background(), "solo", nil)
	if err == nil {
		t.Fatal("RunWorkload succeeded despite verify failure")
	}
	if out == nil {
		t.Error("run output discarded on verify failure")
	}
}

func TestLifecyclePhase(t *testing.T) {
	f := &fakeWorkload{name: "solo"}
	r := New(testRegistry(t, f), &allowProber{}, testLogger())

	for _, phase := range []string{"setup", "run", "teardown", "verify"} {
		if err := r.LifecyclePhase(context.Background(), "solo", phase, nil); err != nil {
			t.Errorf("LifecyclePhase(%s): %v", phase, err)
		}
	}
	if err := r.LifecyclePhase(context.Background(), "solo", "reboot", nil); err == nil {
		t.Error("LifecyclePhase accepted an unknown phase")
	}
	if err := r.LifecyclePhase(context.Background(), "mystery", "setup", nil); err == nil {
		t.Error("LifecyclePhase accepted an unknown workload")
	}
}

func TestRun_RemoteNodesGoToDeployer(t *testing.T) {
	f := &fakeWorkload{name: "nst"}
	var deployed []string
	r := New(testRegistry(t, f), &allowProber{}, testLogger(),
		WithDeployer(deployFunc(func(ctx context.Context, node string, load *model.Load) error {
			deployed = append(deployed, node+"/"+load.Workload)
			return nil
		})))

	info := testInfo("node7")
	if _, err := r.Run(context.Background(), schedOf(info, []string{"nst"})); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := deployed, []string{"node7/nst"}; !reflect.DeepEqual(got, want) {
		t.Errorf("deployed = %v, want %v", got, want)
	}
	if len(f.phases()) != 0 {
		t.Errorf("local phases ran for a remote-only load: %v", f.phases())
	}
}

// deployFunc adapts a function to the Deployer interface.
type deployFunc func(ctx context.Context, node string, load *model.Load) error

func (f deployFunc) Deploy(ctx context.Context, node string, load *model.Load) error {
	return f(ctx, node, load)
}
