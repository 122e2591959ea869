package pipeline

import (
	"time"

	"github.com/sofmeright/shipgate/src/archive"
	"github.com/sofmeright/shipgate/src/config"
)

// Stage identifies where in its pipeline a target failed.
type Stage string

const (
	// StageProvision covers failures before the build could start:
	// workspace checkout errors and missing toolchains.
	StageProvision Stage = "provision"

	// StageBuild covers build commands that ran and failed, timed out,
	// or produced no binary.
	StageBuild Stage = "build"

	// StagePackage covers archive creation I/O errors. For gating
	// purposes these are identical to build failures.
	StagePackage Stage = "package"
)

// Outcome is the terminal result of one target's pipeline. Exactly one of
// Artifact or Err is set. Outcomes are created by the orchestrator, one
// per configured target, and only read afterwards.
type Outcome struct {
	Target   config.Target
	Artifact *archive.Artifact // set on success
	Stage    Stage             // failing stage, "" on success
	Err      error             // set on failure
	Output   string            // build diagnostic tail, kept for failure reports
	Duration time.Duration
}

// Succeeded reports whether the target produced its artifact.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Artifact != nil
}
