package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sofmeright/shipgate/src/config"
)

// outputTailLimit caps how much build output is kept for failure reports.
const outputTailLimit = 4096

// Executor runs the external build capability for one target inside a
// workspace. It knows nothing about how the build tool works internally —
// only the contract: exit zero and leave a binary at the configured path.
type Executor struct {
	// Command is the build command template; {triple}, {binary}, {name},
	// and {version} are resolved per target. Always expected to produce
	// an optimized release binary.
	Command string

	// BinaryTemplate is the workspace-relative path where the build
	// leaves the binary, with the same placeholders.
	BinaryTemplate string

	// Project and Version feed the {name} and {version} placeholders.
	Project string
	Version string

	// Timeout is the per-target wall clock limit. Zero means no limit.
	Timeout time.Duration
}

// Build invokes the build command for target in workspace and classifies
// the outcome. Failures are terminal: nothing here retries, and a failure
// for one target never touches another target's run.
func (e *Executor) Build(ctx context.Context, target config.Target, workspace string) Result {
	started := time.Now()

	command := target.ResolvePlaceholders(e.Command, e.Project, e.Version)

	if err := probeToolchain(command); err != nil {
		return failed(target, err, "", started)
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	// The command runs through the shell so config can use the same
	// pipelines and && chains a CI script would.
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = workspace
	// A killed build may leave children holding our output pipe; don't
	// let that stall the barrier.
	cmd.WaitDelay = 3 * time.Second

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := cmd.Run()
	tail := outputTail(out.String())

	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return failed(target, fmt.Errorf("build timed out after %s", e.Timeout), tail, started)
		}
		return failed(target, fmt.Errorf("build command failed: %w", runErr), tail, started)
	}

	binary := filepath.Join(workspace, target.ResolvePlaceholders(e.BinaryTemplate, e.Project, e.Version))
	info, err := os.Stat(binary)
	if err != nil {
		return failed(target, fmt.Errorf("build succeeded but produced no binary at %s", binary), tail, started)
	}
	if info.IsDir() {
		return failed(target, fmt.Errorf("expected binary path %s is a directory", binary), tail, started)
	}

	return Result{
		Target:     target,
		Status:     StatusSuccess,
		BinaryPath: binary,
		Output:     tail,
		Duration:   time.Since(started),
	}
}

// probeToolchain checks that the command's program exists before spending
// a workspace checkout on a build that cannot start.
func probeToolchain(command string) error {
	// Compound commands are the shell's to interpret; probing their first
	// word would misclassify "cd sub && make" as a missing toolchain.
	if strings.ContainsAny(command, "&|;") {
		return nil
	}

	fields := strings.Fields(command)
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty build command", ErrToolchainUnavailable)
	}

	prog := fields[0]
	// Shell syntax up front (env assignments, subshells) defers the probe
	// to the shell itself.
	if strings.ContainsAny(prog, "=$(") || shellBuiltins[prog] {
		return nil
	}

	if _, err := exec.LookPath(prog); err != nil {
		return fmt.Errorf("%w: %s not found in PATH", ErrToolchainUnavailable, prog)
	}
	return nil
}

// shellBuiltins never resolve through PATH.
var shellBuiltins = map[string]bool{
	"cd":     true,
	"exec":   true,
	"export": true,
	"set":    true,
	"eval":   true,
	".":      true,
	":":      true,
}

// outputTail returns the last outputTailLimit bytes, starting at a line
// boundary when possible.
func outputTail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= outputTailLimit {
		return s
	}
	s = s[len(s)-outputTailLimit:]
	if idx := strings.IndexByte(s, '\n'); idx >= 0 && idx < len(s)-1 {
		s = s[idx+1:]
	}
	return s
}
