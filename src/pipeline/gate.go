package pipeline

import (
	"github.com/sofmeright/shipgate/src/archive"
)

// Failure describes one target that did not produce its artifact.
// Failures are reported per target, never collapsed into a single
// message, so operators can tell which platforms broke.
type Failure struct {
	Target string
	Stage  Stage
	Err    error
	Output string
}

// Decision is the gate's verdict: either every target produced an
// artifact and the release may proceed, or the run aborts with the full
// set of per-target failures. Partial releases are never produced.
type Decision struct {
	Proceed   bool
	Artifacts []archive.Artifact // configured target order; set when Proceed
	Failures  []Failure          // set when !Proceed
}

// Gate is a pure decision function over the joined outcomes: Proceed only
// when every pipeline succeeded. Artifacts built for other targets in a
// failed run are discarded by the caller, not published.
func Gate(outcomes []Outcome) Decision {
	var d Decision

	for _, o := range outcomes {
		if o.Succeeded() {
			continue
		}
		d.Failures = append(d.Failures, Failure{
			Target: o.Target.Name,
			Stage:  o.Stage,
			Err:    o.Err,
			Output: o.Output,
		})
	}

	if len(d.Failures) > 0 {
		return d
	}

	d.Proceed = true
	d.Artifacts = make([]archive.Artifact, 0, len(outcomes))
	for _, o := range outcomes {
		d.Artifacts = append(d.Artifacts, *o.Artifact)
	}
	return d
}
