package output

import (
	"fmt"
	"io"
	"time"

	"github.com/sofmeright/shipgate/src/pipeline"
	"github.com/sofmeright/shipgate/src/release"
)

// MatrixReport renders one row per target with its status, archive, and
// duration inside a framed section.
func MatrixReport(w io.Writer, outcomes []pipeline.Outcome, elapsed time.Duration, color bool) {
	s := NewSection(w, "Build Matrix", elapsed, color)
	defer s.Close()

	for _, o := range outcomes {
		if o.Succeeded() {
			s.Row("%s %-24s %-28s %s",
				StatusIcon("success", color),
				o.Target.DisplayName(),
				o.Artifact.Name()+" ("+formatSize(o.Artifact.SizeBytes)+")",
				Dimmed(formatElapsed(o.Duration), color))
			continue
		}
		s.Row("%s %-24s %-28s %s",
			StatusIcon("failed", color),
			o.Target.DisplayName(),
			string(o.Stage)+" failed",
			Dimmed(formatElapsed(o.Duration), color))
	}
}

// FailureDetail lists every failed target with its stage, error, and the
// tail of its build output. Failures stay separated per target so
// operators can see exactly which platforms broke.
func FailureDetail(w io.Writer, failures []pipeline.Failure, color bool) {
	s := NewSection(w, "Failures", 0, color)
	defer s.Close()

	for i, f := range failures {
		if i > 0 {
			s.Separator()
		}
		s.Row("%s %s — %s stage", StatusIcon("failed", color), Bold(f.Target, color), f.Stage)
		if f.Err != nil {
			s.Row("  %v", f.Err)
		}
		if f.Output != "" {
			for _, line := range lastLines(f.Output, 10) {
				s.Row("  %s", Dimmed(line, color))
			}
		}
	}
}

// PublishReport renders the per-asset upload results and the release URL.
func PublishReport(w io.Writer, rec *release.Record, color bool) {
	s := NewSection(w, "Release "+rec.Tag, 0, color)
	defer s.Close()

	if rec.Reused {
		s.Row("%s", Dimmed("reusing existing release record", color))
	}
	for _, a := range rec.Assets {
		if a.Err != nil {
			s.Row("%s %-34s %v", StatusIcon("failed", color), a.Name, a.Err)
		} else {
			s.Row("%s %s", StatusIcon("success", color), a.Name)
		}
	}
	if rec.URL != "" {
		s.Separator()
		s.Row("%s", rec.URL)
	}
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// lastLines returns up to n trailing lines of s.
func lastLines(s string, n int) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
