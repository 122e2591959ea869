package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sofmeright/shipgate/src/build"
	"github.com/sofmeright/shipgate/src/config"
)

func setTestConfig(t *testing.T) {
	t.Helper()

	prev := cfg
	cfg = &config.Config{
		Project: config.ProjectConfig{
			Name:           "feeless",
			BuildCommand:   "cargo build --release --target {triple}",
			BinaryTemplate: "target/{triple}/release/{binary}",
		},
		Build: config.BuildConfig{Jobs: 4, Timeout: "10m", Workspace: "shared"},
		Targets: []config.Target{
			{Name: "linux-64", Triple: "x86_64-unknown-linux-gnu", Binary: "feeless", Archive: "feeless-linux-64.tar.gz"},
		},
	}
	t.Cleanup(func() { cfg = prev })
}

func TestReleaseFlags(t *testing.T) {
	for _, name := range []string{"tag", "dry-run", "jobs", "timeout", "keep-workspaces", "notes"} {
		if releaseCmd.Flags().Lookup(name) == nil {
			t.Errorf("release command missing --%s flag", name)
		}
	}
}

func TestNewOrchestratorTimeoutOverride(t *testing.T) {
	setTestConfig(t)

	orch, dir, err := newOrchestrator(t.TempDir(), "", "1.0.0", cfg.Targets, 0, 90*time.Second, false)
	if err != nil {
		t.Fatalf("newOrchestrator: %v", err)
	}
	defer os.RemoveAll(dir)

	if got := orch.Builder.(*build.Executor).Timeout; got != 90*time.Second {
		t.Errorf("executor timeout = %v, want 90s from the flag", got)
	}
}

func TestNewOrchestratorConfigTimeout(t *testing.T) {
	setTestConfig(t)

	orch, dir, err := newOrchestrator(t.TempDir(), "", "1.0.0", cfg.Targets, 0, 0, false)
	if err != nil {
		t.Fatalf("newOrchestrator: %v", err)
	}
	defer os.RemoveAll(dir)

	if got := orch.Builder.(*build.Executor).Timeout; got != 10*time.Minute {
		t.Errorf("executor timeout = %v, want config 10m", got)
	}
}

func TestCleanupArtifacts(t *testing.T) {
	published := t.TempDir()
	if err := os.WriteFile(filepath.Join(published, "feeless-linux-64.tar.gz"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cleanupArtifacts(published, nil)
	if _, err := os.Stat(published); !os.IsNotExist(err) {
		t.Errorf("artifact dir should be gone after a clean publish: %v", err)
	}

	failed := t.TempDir()
	cleanupArtifacts(failed, fmt.Errorf("502 bad gateway"))
	if _, err := os.Stat(failed); err != nil {
		t.Errorf("failed run's artifact dir must be kept: %v", err)
	}
}
