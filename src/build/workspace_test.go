package build

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// initTaggedRepo creates a repository with one committed file tagged 1.0.0.
func initTaggedRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\nname = \"feeless\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, err := wt.Add("Cargo.toml"); err != nil {
		t.Fatalf("add: %v", err)
	}
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := repo.CreateTag("1.0.0", hash, nil); err != nil {
		t.Fatalf("tag: %v", err)
	}

	return dir
}

func TestCloneFactoryIsolation(t *testing.T) {
	repoDir := initTaggedRepo(t)
	f := &CloneFactory{RepoDir: repoDir, Tag: "1.0.0"}

	wsA, cleanupA, err := f.Acquire("linux-64")
	if err != nil {
		t.Fatalf("acquire A: %v", err)
	}
	defer cleanupA()

	wsB, cleanupB, err := f.Acquire("win-64")
	if err != nil {
		t.Fatalf("acquire B: %v", err)
	}
	defer cleanupB()

	if wsA == wsB {
		t.Fatal("two targets received the same workspace")
	}

	// The tagged file is present in both checkouts.
	for _, ws := range []string{wsA, wsB} {
		if _, err := os.Stat(filepath.Join(ws, "Cargo.toml")); err != nil {
			t.Errorf("checkout %s missing tagged file: %v", ws, err)
		}
	}

	// Scribbling in one workspace is invisible to the other.
	if err := os.WriteFile(filepath.Join(wsA, "scratch"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(wsB, "scratch")); err == nil {
		t.Error("write in workspace A leaked into workspace B")
	}
}

func TestCloneFactoryCleanup(t *testing.T) {
	repoDir := initTaggedRepo(t)
	f := &CloneFactory{RepoDir: repoDir, Tag: "1.0.0"}

	ws, cleanup, err := f.Acquire("linux-64")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	cleanup()
	if _, err := os.Stat(ws); err == nil {
		t.Error("workspace not removed by cleanup")
	}
}

func TestCloneFactoryKeep(t *testing.T) {
	repoDir := initTaggedRepo(t)
	f := &CloneFactory{RepoDir: repoDir, Tag: "1.0.0", Keep: true}

	ws, cleanup, err := f.Acquire("linux-64")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer os.RemoveAll(ws)

	cleanup()
	if _, err := os.Stat(ws); err != nil {
		t.Error("keep mode removed the workspace")
	}
}

func TestCloneFactoryUnknownTag(t *testing.T) {
	repoDir := initTaggedRepo(t)
	f := &CloneFactory{RepoDir: repoDir, Tag: "9.9.9"}

	if _, _, err := f.Acquire("linux-64"); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestSharedFactory(t *testing.T) {
	dir := t.TempDir()
	f := &SharedFactory{Dir: dir}

	ws, cleanup, err := f.Acquire("any")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer cleanup()

	if ws != dir {
		t.Errorf("shared workspace = %q, want %q", ws, dir)
	}
}
