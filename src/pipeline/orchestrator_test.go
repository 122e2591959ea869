package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sofmeright/shipgate/src/build"
	"github.com/sofmeright/shipgate/src/config"
)

var matrix = []config.Target{
	{Name: "linux-64", Triple: "x86_64-unknown-linux-gnu", Binary: "feeless", Archive: "feeless-linux-64.tar.gz"},
	{Name: "armv7", Triple: "armv7-unknown-linux-gnueabihf", Binary: "feeless", Archive: "feeless-armv7.tar.gz"},
	{Name: "macos-64", Triple: "x86_64-apple-darwin", Binary: "feeless", Archive: "feeless-macos-64.tar.gz"},
	{Name: "win-64", Triple: "x86_64-pc-windows-msvc", Binary: "feeless", Archive: "feeless-win-64.zip"},
}

// tempFactory hands out fresh directories without a git checkout.
type tempFactory struct{ base string }

func (f *tempFactory) Acquire(targetName string) (string, func(), error) {
	dir, err := os.MkdirTemp(f.base, targetName+"-*")
	if err != nil {
		return "", nil, err
	}
	return dir, func() {}, nil
}

// failingFactory refuses to provision any workspace.
type failingFactory struct{}

func (failingFactory) Acquire(targetName string) (string, func(), error) {
	return "", nil, fmt.Errorf("no disk for %s", targetName)
}

// fakeBuilder simulates the external build capability: it writes a binary
// into the workspace unless the target is listed as failing, and records
// every invocation plus peak concurrency.
type fakeBuilder struct {
	fail  map[string]error
	delay time.Duration

	mu       sync.Mutex
	calls    []string
	inFlight int32
	peak     int32
}

func (b *fakeBuilder) Build(ctx context.Context, target config.Target, workspace string) build.Result {
	cur := atomic.AddInt32(&b.inFlight, 1)
	for {
		p := atomic.LoadInt32(&b.peak)
		if cur <= p || atomic.CompareAndSwapInt32(&b.peak, p, cur) {
			break
		}
	}
	defer atomic.AddInt32(&b.inFlight, -1)

	b.mu.Lock()
	b.calls = append(b.calls, target.Name)
	b.mu.Unlock()

	if b.delay > 0 {
		time.Sleep(b.delay)
	}

	if err, ok := b.fail[target.Name]; ok {
		return build.Result{Target: target, Status: build.StatusFailed, Err: err, Output: "error: " + err.Error()}
	}

	bin := filepath.Join(workspace, "out", target.Binary)
	if err := os.MkdirAll(filepath.Dir(bin), 0o755); err != nil {
		return build.Result{Target: target, Status: build.StatusFailed, Err: err}
	}
	content := []byte("binary-for-" + target.Name)
	if err := os.WriteFile(bin, content, 0o755); err != nil {
		return build.Result{Target: target, Status: build.StatusFailed, Err: err}
	}
	return build.Result{Target: target, Status: build.StatusSuccess, BinaryPath: bin}
}

func (b *fakeBuilder) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func newOrchestrator(t *testing.T, builder Builder, jobs int) *Orchestrator {
	t.Helper()
	return &Orchestrator{
		Targets:    matrix,
		Workspaces: &tempFactory{base: t.TempDir()},
		Builder:    builder,
		OutputDir:  t.TempDir(),
		Jobs:       jobs,
	}
}

func TestRunAllSuccess(t *testing.T) {
	builder := &fakeBuilder{}
	o := newOrchestrator(t, builder, 2)

	outcomes := o.RunAll(context.Background())
	if len(outcomes) != len(matrix) {
		t.Fatalf("outcomes = %d, want %d", len(outcomes), len(matrix))
	}

	for i, oc := range outcomes {
		if !oc.Succeeded() {
			t.Fatalf("target %s failed: %v", oc.Target.Name, oc.Err)
		}
		// Outcomes come back in configured target order.
		if oc.Target.Name != matrix[i].Name {
			t.Errorf("outcome[%d] = %s, want %s", i, oc.Target.Name, matrix[i].Name)
		}
		if _, err := os.Stat(oc.Artifact.Path); err != nil {
			t.Errorf("artifact for %s missing on disk: %v", oc.Target.Name, err)
		}
		// Per-target output directory, never shared.
		wantDir := filepath.Join(o.OutputDir, oc.Target.Name)
		if filepath.Dir(oc.Artifact.Path) != wantDir {
			t.Errorf("artifact dir = %s, want %s", filepath.Dir(oc.Artifact.Path), wantDir)
		}
	}
}

func TestRunAllDoesNotShortCircuit(t *testing.T) {
	builder := &fakeBuilder{fail: map[string]error{"armv7": fmt.Errorf("linker exited with code 1")}}
	o := newOrchestrator(t, builder, 1)

	outcomes := o.RunAll(context.Background())

	if got := builder.callCount(); got != len(matrix) {
		t.Errorf("builds attempted = %d, want all %d despite the failure", got, len(matrix))
	}

	for _, oc := range outcomes {
		switch oc.Target.Name {
		case "armv7":
			if oc.Succeeded() || oc.Stage != StageBuild {
				t.Errorf("armv7 outcome = %+v, want build failure", oc)
			}
		default:
			// A failed target must not alter the others' outcomes.
			if !oc.Succeeded() {
				t.Errorf("target %s affected by armv7 failure: %v", oc.Target.Name, oc.Err)
			}
		}
	}
}

func TestRunAllBoundedConcurrency(t *testing.T) {
	builder := &fakeBuilder{delay: 30 * time.Millisecond}
	o := newOrchestrator(t, builder, 2)

	o.RunAll(context.Background())

	if peak := atomic.LoadInt32(&builder.peak); peak > 2 {
		t.Errorf("peak concurrent builds = %d, want <= 2", peak)
	}
}

func TestRunAllToolchainFailureStage(t *testing.T) {
	builder := &fakeBuilder{fail: map[string]error{
		"win-64": fmt.Errorf("%w: x86_64-pc-windows-msvc not installed", build.ErrToolchainUnavailable),
	}}
	o := newOrchestrator(t, builder, 0)

	outcomes := o.RunAll(context.Background())
	for _, oc := range outcomes {
		if oc.Target.Name == "win-64" && oc.Stage != StageProvision {
			t.Errorf("toolchain failure classified as %q, want provision", oc.Stage)
		}
	}
}

func TestRunAllWorkspaceFailure(t *testing.T) {
	o := &Orchestrator{
		Targets:    matrix[:1],
		Workspaces: failingFactory{},
		Builder:    &fakeBuilder{},
		OutputDir:  t.TempDir(),
	}

	outcomes := o.RunAll(context.Background())
	if outcomes[0].Succeeded() || outcomes[0].Stage != StageProvision {
		t.Errorf("outcome = %+v, want provision failure", outcomes[0])
	}
}

func TestRunAllCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newOrchestrator(t, &fakeBuilder{}, 1)

	done := make(chan []Outcome, 1)
	go func() { done <- o.RunAll(ctx) }()

	select {
	case outcomes := <-done:
		for _, oc := range outcomes {
			if oc.Succeeded() {
				t.Errorf("target %s succeeded under a cancelled context", oc.Target.Name)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled run blocked the barrier")
	}
}

func TestProgressReportedOnCancelledRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newOrchestrator(t, &fakeBuilder{}, 1)

	var n atomic.Int32
	o.Progress = func(Outcome) { n.Add(1) }

	outcomes := o.RunAll(ctx)

	// Targets that never got a semaphore slot still report progress, so
	// callers counting callbacks see as many as returned outcomes.
	if got := n.Load(); got != int32(len(outcomes)) {
		t.Errorf("progress callbacks = %d, want %d", got, len(outcomes))
	}
}

func TestProgressCallback(t *testing.T) {
	builder := &fakeBuilder{}
	o := newOrchestrator(t, builder, 2)

	var n atomic.Int32
	o.Progress = func(Outcome) { n.Add(1) }

	o.RunAll(context.Background())
	if got := n.Load(); got != int32(len(matrix)) {
		t.Errorf("progress callbacks = %d, want %d", got, len(matrix))
	}
}
