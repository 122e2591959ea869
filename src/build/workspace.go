package build

import (
	"fmt"
	"os"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// WorkspaceFactory hands each target pipeline its own build directory.
// No two pipelines may ever share a mutable path, so Acquire is called
// once per target and the returned cleanup releases that target's
// workspace only.
type WorkspaceFactory interface {
	Acquire(targetName string) (dir string, cleanup func(), err error)
}

// CloneFactory checks out the tagged revision into a fresh temp directory
// per target. This is the default isolation mode: builds cannot observe
// each other's intermediate state even when the build tool writes into
// the source tree.
type CloneFactory struct {
	// RepoDir is the local repository the tag lives in.
	RepoDir string

	// Tag is the release tag to check out.
	Tag string

	// Keep leaves workspaces on disk after the run for inspection.
	Keep bool
}

func (f *CloneFactory) Acquire(targetName string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "shipgate-"+targetName+"-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating workspace: %w", err)
	}

	_, err = git.PlainClone(dir, false, &git.CloneOptions{
		URL:           f.RepoDir,
		ReferenceName: plumbing.NewTagReferenceName(f.Tag),
		SingleBranch:  true,
	})
	if err != nil {
		os.RemoveAll(dir)
		return "", nil, fmt.Errorf("checking out %s for %s: %w", f.Tag, targetName, err)
	}

	cleanup := func() {
		if !f.Keep {
			os.RemoveAll(dir)
		}
	}
	return dir, cleanup, nil
}

// SharedFactory points every target at the same directory, for build tools
// that keep per-triple output paths (cargo's target/<triple>/ layout) and
// manage their own isolation. Selected via build.workspace: shared.
type SharedFactory struct {
	Dir string
}

func (f *SharedFactory) Acquire(string) (string, func(), error) {
	return f.Dir, func() {}, nil
}
