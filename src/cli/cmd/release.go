package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sofmeright/shipgate/src/forge"
	"github.com/sofmeright/shipgate/src/gitver"
	"github.com/sofmeright/shipgate/src/output"
	"github.com/sofmeright/shipgate/src/pipeline"
	"github.com/sofmeright/shipgate/src/release"
)

var (
	relTag     string
	relDryRun  bool
	relJobs    int
	relTimeout time.Duration
	relKeep    bool
	relNotes   string
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Build all targets and publish a gated release",
	Long: `Run the full pipeline: check out the release tag into an isolated
workspace per target, build and package every target in parallel, and —
only if every single target succeeded — publish all archives as the
assets of the release for that tag on the detected forge.

One failed target aborts the whole release; nothing is ever partially
published.`,
	RunE: runRelease,
}

func init() {
	releaseCmd.Flags().StringVar(&relTag, "tag", "", "release tag (default: tag at HEAD)")
	releaseCmd.Flags().BoolVar(&relDryRun, "dry-run", false, "build and gate but never publish")
	releaseCmd.Flags().IntVar(&relJobs, "jobs", 0, "max concurrent target builds (default: config)")
	releaseCmd.Flags().DurationVar(&relTimeout, "timeout", 0, "per-target build timeout (default: config)")
	releaseCmd.Flags().BoolVar(&relKeep, "keep-workspaces", false, "keep per-target workspaces for inspection")
	releaseCmd.Flags().StringVar(&relNotes, "notes", "", "path to release notes markdown file")

	rootCmd.AddCommand(releaseCmd)
}

func runRelease(cmd *cobra.Command, args []string) error {
	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	tag, err := gitver.Resolve(rootDir, relTag)
	if err != nil {
		return err
	}

	orch, artifactDir, err := newOrchestrator(rootDir, tag.Tag, tag.Version, cfg.Targets, relJobs, relTimeout, relKeep)
	if err != nil {
		return err
	}

	color := output.UseColor()
	output.ContextBlock(os.Stdout, []output.KV{
		{Key: "tag", Value: tag.Tag},
		{Key: "targets", Value: fmt.Sprintf("%d", len(cfg.Targets))},
		{Key: "sha", Value: shortSHA(tag.SHA)},
		{Key: "jobs", Value: fmt.Sprintf("%d", orch.Jobs)},
	})

	// ── Fan out, full barrier ──
	outcomes, elapsed := runMatrix(orch)
	output.MatrixReport(os.Stdout, outcomes, elapsed, color)

	// ── Gate ──
	decision := pipeline.Gate(outcomes)
	if !decision.Proceed {
		output.FailureDetail(os.Stdout, decision.Failures, color)
		return fmt.Errorf("release %s aborted: %d of %d targets failed, nothing published",
			tag.Tag, len(decision.Failures), len(cfg.Targets))
	}

	if relDryRun {
		fmt.Printf("\n    dry run: %d artifacts built and gated, publish skipped\n", len(decision.Artifacts))
		return nil
	}

	// ── Publish ──
	remoteURL, err := detectRemoteURL(rootDir)
	if err != nil {
		return fmt.Errorf("detecting remote: %w", err)
	}
	provider := forge.DetectProvider(remoteURL)
	if provider == forge.Unknown {
		return fmt.Errorf("could not detect forge from remote URL: %s", remoteURL)
	}

	forgeClient, err := forge.New(provider, remoteURL)
	if err != nil {
		return err
	}

	var notes string
	if relNotes != "" {
		data, err := os.ReadFile(relNotes)
		if err != nil {
			return fmt.Errorf("reading notes file: %w", err)
		}
		notes = string(data)
	}

	publisher := &release.Publisher{
		Forge:      forgeClient,
		Notes:      notes,
		Draft:      cfg.Release.Draft,
		Prerelease: tag.IsPrerelease && cfg.PrereleaseDetect(),
	}

	record, pubErr := publisher.Publish(rootContext(), tag.Tag, decision.Artifacts)
	if record != nil {
		output.PublishReport(os.Stdout, record, color)
	}
	cleanupArtifacts(artifactDir, pubErr)
	if pubErr != nil {
		// A publish failure after a passed gate is a state bug, not a
		// build failure — keep the message distinct from a gate abort.
		return fmt.Errorf("publish failed for %s: %w", tag.Tag, pubErr)
	}

	return nil
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
