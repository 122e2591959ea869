// Package pipeline fans a target matrix out into independent build
// pipelines and joins them at a release gate. The fan-out is
// embarrassingly parallel: pipelines share nothing during execution, and
// the gate is the only synchronization point.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sofmeright/shipgate/src/archive"
	"github.com/sofmeright/shipgate/src/build"
	"github.com/sofmeright/shipgate/src/config"
)

// Builder runs the external build capability for one target. Abstracted
// so the orchestrator can be exercised without a real toolchain.
type Builder interface {
	Build(ctx context.Context, target config.Target, workspace string) build.Result
}

// Packager turns a successful build into a release archive. Defaults to
// archive.Package.
type Packager func(result build.Result, destDir string) (archive.Artifact, error)

// Orchestrator runs one build+package pipeline per configured target.
type Orchestrator struct {
	Targets    []config.Target
	Workspaces build.WorkspaceFactory
	Builder    Builder
	Packager   Packager

	// OutputDir receives one subdirectory per target; no two pipelines
	// ever write the same path.
	OutputDir string

	// Jobs bounds how many pipelines run at once. Values < 1 mean
	// unbounded.
	Jobs int

	// Progress, when set, is called as each target finishes. Called from
	// pipeline goroutines; implementations must be safe for concurrent use.
	Progress func(Outcome)
}

// RunAll executes every target pipeline and blocks until all of them have
// reported a terminal outcome — a full barrier, not a race to first
// failure. No target is skipped because an earlier one broke: a single
// run surfaces every broken platform at once. The returned slice is in
// configured target order.
func (o *Orchestrator) RunAll(ctx context.Context) []Outcome {
	packager := o.Packager
	if packager == nil {
		packager = archive.Package
	}

	var sem *semaphore.Weighted
	if o.Jobs > 0 {
		sem = semaphore.NewWeighted(int64(o.Jobs))
	}

	outcomes := make([]Outcome, len(o.Targets))
	var wg sync.WaitGroup

	for i, target := range o.Targets {
		wg.Add(1)
		go func(i int, target config.Target) {
			defer wg.Done()
			// Every terminal outcome is reported, including targets that
			// never got a semaphore slot.
			defer func() {
				if o.Progress != nil {
					o.Progress(outcomes[i])
				}
			}()

			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					outcomes[i] = failedOutcome(target, StageProvision, fmt.Errorf("run aborted: %w", err), "", 0)
					return
				}
				defer sem.Release(1)
			}

			outcomes[i] = o.runOne(ctx, target, packager)
		}(i, target)
	}

	wg.Wait()
	return outcomes
}

// runOne executes the workspace → build → package pipeline for a single
// target. Each stage's failure is classified so the final report can tell
// operators which platform broke and where.
func (o *Orchestrator) runOne(ctx context.Context, target config.Target, packager Packager) Outcome {
	started := time.Now()

	workspace, cleanup, err := o.Workspaces.Acquire(target.Name)
	if err != nil {
		return failedOutcome(target, StageProvision, err, "", time.Since(started))
	}
	defer cleanup()

	result := o.Builder.Build(ctx, target, workspace)
	if result.Status != build.StatusSuccess {
		stage := StageBuild
		if errors.Is(result.Err, build.ErrToolchainUnavailable) {
			stage = StageProvision
		}
		return failedOutcome(target, stage, result.Err, result.Output, time.Since(started))
	}

	destDir := filepath.Join(o.OutputDir, target.Name)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return failedOutcome(target, StagePackage, err, result.Output, time.Since(started))
	}

	art, err := packager(result, destDir)
	if err != nil {
		return failedOutcome(target, StagePackage, err, result.Output, time.Since(started))
	}

	return Outcome{
		Target:   target,
		Artifact: &art,
		Output:   result.Output,
		Duration: time.Since(started),
	}
}

func failedOutcome(target config.Target, stage Stage, err error, output string, d time.Duration) Outcome {
	return Outcome{
		Target:   target,
		Stage:    stage,
		Err:      err,
		Output:   output,
		Duration: d,
	}
}
