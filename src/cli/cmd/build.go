package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/shipgate/src/output"
	"github.com/sofmeright/shipgate/src/pipeline"
	"github.com/sofmeright/shipgate/src/project"
)

var (
	buildOnly []string
	buildJobs int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build and package targets without publishing",
	Long: `Build and package the configured targets (or a subset via --only)
from the working tree, without gating or publishing. Useful for
verifying a single platform locally before tagging a release.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringSliceVar(&buildOnly, "only", nil, "target names to build (repeatable; default: all)")
	buildCmd.Flags().IntVar(&buildJobs, "jobs", 0, "max concurrent target builds (default: config)")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	targets, err := selectTargets(buildOnly)
	if err != nil {
		return err
	}

	// Local builds run from the working tree; the version placeholder
	// resolves to whatever the manifest declares.
	version := project.Detect(rootDir).Version
	if version == "" {
		version = "0.0.0-dev"
	}

	orch, outputDir, err := newOrchestrator(rootDir, "", version, targets, buildJobs, 0, false)
	if err != nil {
		return err
	}

	color := output.UseColor()
	outcomes, elapsed := runMatrix(orch)
	output.MatrixReport(os.Stdout, outcomes, elapsed, color)

	decision := pipeline.Gate(outcomes)
	if !decision.Proceed {
		output.FailureDetail(os.Stdout, decision.Failures, color)
		return fmt.Errorf("%d of %d targets failed", len(decision.Failures), len(targets))
	}

	fmt.Printf("\n    artifacts in %s\n", outputDir)
	return nil
}
