package build

import (
	"errors"
	"time"

	"github.com/sofmeright/shipgate/src/config"
)

// Status is the terminal state of one target's build.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ErrToolchainUnavailable marks failures where the build command itself
// could not be found, as opposed to the build running and failing.
// Callers classify with errors.Is.
var ErrToolchainUnavailable = errors.New("toolchain unavailable")

// Result captures the outcome of one target's build. It is created once by
// the executor and never mutated afterwards; the packager and the release
// gate only read it.
type Result struct {
	Target     config.Target
	Status     Status
	BinaryPath string // set only on success
	Err        error  // set only on failure
	Output     string // diagnostic tail of the build command's output
	Duration   time.Duration
}

// failed builds a failure Result with the common fields filled in.
func failed(target config.Target, err error, output string, started time.Time) Result {
	return Result{
		Target:   target,
		Status:   StatusFailed,
		Err:      err,
		Output:   output,
		Duration: time.Since(started),
	}
}
