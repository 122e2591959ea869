package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	git "github.com/go-git/go-git/v5"

	"github.com/sofmeright/shipgate/src/build"
	"github.com/sofmeright/shipgate/src/config"
	"github.com/sofmeright/shipgate/src/pipeline"
	"github.com/sofmeright/shipgate/src/project"
)

// resolveProjectName returns the configured project name, falling back to
// build-manifest detection.
func resolveProjectName(rootDir string) string {
	if cfg.Project.Name != "" {
		return cfg.Project.Name
	}
	if meta := project.Detect(rootDir); meta.Name != "" {
		if verbose {
			fmt.Fprintf(os.Stderr, "project name %q detected from %s\n", meta.Name, meta.Source)
		}
		return meta.Name
	}
	return "release"
}

// selectTargets filters the configured matrix down to the requested
// names; an empty filter selects everything.
func selectTargets(only []string) ([]config.Target, error) {
	if len(only) == 0 {
		return cfg.Targets, nil
	}

	byName := make(map[string]config.Target, len(cfg.Targets))
	for _, t := range cfg.Targets {
		byName[t.Name] = t
	}

	selected := make([]config.Target, 0, len(only))
	for _, name := range only {
		t, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown target %q", name)
		}
		selected = append(selected, t)
	}
	return selected, nil
}

// newOrchestrator wires the executor, workspace factory, and output
// directory for a run. tag may be empty for untagged local builds, in
// which case clone mode is unavailable and the invocation directory is
// shared.
func newOrchestrator(rootDir, tag, projectVersion string, targets []config.Target, jobs int, timeout time.Duration, keep bool) (*pipeline.Orchestrator, string, error) {
	jobTimeout, err := cfg.JobTimeout()
	if err != nil {
		return nil, "", err
	}
	if timeout > 0 {
		jobTimeout = timeout
	}

	projectName := resolveProjectName(rootDir)

	executor := &build.Executor{
		Command:        cfg.Project.BuildCommand,
		BinaryTemplate: cfg.Project.BinaryTemplate,
		Project:        projectName,
		Version:        projectVersion,
		Timeout:        jobTimeout,
	}

	var factory build.WorkspaceFactory
	if cfg.Build.Workspace == "shared" || tag == "" {
		factory = &build.SharedFactory{Dir: rootDir}
	} else {
		factory = &build.CloneFactory{RepoDir: rootDir, Tag: tag, Keep: keep}
	}

	outputDir, err := os.MkdirTemp("", "shipgate-artifacts-*")
	if err != nil {
		return nil, "", fmt.Errorf("creating artifact directory: %w", err)
	}

	if jobs <= 0 {
		jobs = cfg.Build.Jobs
	}

	return &pipeline.Orchestrator{
		Targets:    targets,
		Workspaces: factory,
		Builder:    executor,
		OutputDir:  outputDir,
		Jobs:       jobs,
	}, outputDir, nil
}

// runMatrix executes the fan-out and returns the joined outcomes plus the
// elapsed wall clock.
func runMatrix(o *pipeline.Orchestrator) ([]pipeline.Outcome, time.Duration) {
	start := time.Now()
	outcomes := o.RunAll(rootContext())
	return outcomes, time.Since(start)
}

// rootContext returns a context cancelled on SIGINT/SIGTERM so an
// aborted run still reaches the barrier with failed outcomes instead of
// leaving pipelines running.
func rootContext() context.Context {
	ctxOnce.Do(func() {
		rootCtx, _ = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	})
	return rootCtx
}

var (
	ctxOnce sync.Once
	rootCtx context.Context
)

// cleanupArtifacts removes the run's artifact directory after a
// successful publish. Failed runs keep their archives for inspection.
func cleanupArtifacts(dir string, publishErr error) {
	if dir == "" || publishErr != nil {
		return
	}
	os.RemoveAll(dir)
}

// detectRemoteURL reads the origin remote of the repository at rootDir.
func detectRemoteURL(rootDir string) (string, error) {
	repo, err := git.PlainOpen(rootDir)
	if err != nil {
		return "", fmt.Errorf("opening repository: %w", err)
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("no origin remote: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("origin remote has no URL")
	}
	return urls[0], nil
}
