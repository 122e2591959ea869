// Package gitver resolves and validates the release tag that drives a
// pipeline run. The tag is the sole release identifier: it selects the
// revision every target builds and names the release record the archives
// are published under.
package gitver

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// TagInfo holds the resolved release tag and its parsed version.
type TagInfo struct {
	Tag          string // tag name as it exists in the repo, e.g. "v1.0.0" or "1.0.0"
	Version      string // canonical semver without leading v: "1.0.0", "1.2.0-rc.1"
	Prerelease   string // "rc.1", "alpha.2", or "" for stable
	SHA          string // full hash of the tagged commit
	IsPrerelease bool
}

// Resolve returns the release tag for rootDir. If explicit is non-empty it
// is validated and looked up; otherwise the tag pointing exactly at HEAD is
// used. A run never starts from an untagged or non-semver revision.
func Resolve(rootDir, explicit string) (*TagInfo, error) {
	repo, err := git.PlainOpen(rootDir)
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", rootDir, err)
	}

	if explicit != "" {
		return resolveNamed(repo, explicit)
	}
	return resolveHead(repo)
}

// resolveNamed looks up a tag by name.
func resolveNamed(repo *git.Repository, name string) (*TagInfo, error) {
	info, err := parseTag(name)
	if err != nil {
		return nil, err
	}

	ref, err := repo.Reference(plumbing.NewTagReferenceName(name), true)
	if err != nil {
		return nil, fmt.Errorf("tag %q not found in repository: %w", name, err)
	}

	info.SHA = commitHash(repo, ref.Hash()).String()
	return info, nil
}

// resolveHead finds the tag pointing exactly at HEAD, the equivalent of
// `git describe --tags --exact-match`.
func resolveHead(repo *git.Repository) (*TagInfo, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	tags, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer tags.Close()

	var found *TagInfo
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		if commitHash(repo, ref.Hash()) != head.Hash() {
			return nil
		}
		info, perr := parseTag(ref.Name().Short())
		if perr != nil {
			// Non-semver tags on HEAD (e.g. "nightly") don't trigger releases.
			return nil
		}
		info.SHA = head.Hash().String()
		found = info
		return nil
	})
	if err != nil {
		return nil, err
	}

	if found == nil {
		return nil, fmt.Errorf("HEAD is not at a semver tag; tag the release or pass --tag")
	}
	return found, nil
}

// parseTag validates a tag name as semver (optional leading v).
func parseTag(name string) (*TagInfo, error) {
	v, err := semver.StrictNewVersion(strings.TrimPrefix(name, "v"))
	if err != nil {
		return nil, fmt.Errorf("tag %q is not a semantic version: %w", name, err)
	}
	return &TagInfo{
		Tag:          name,
		Version:      v.String(),
		Prerelease:   v.Prerelease(),
		IsPrerelease: v.Prerelease() != "",
	}, nil
}

// commitHash dereferences annotated tags to the commit they point at.
// Lightweight tags already reference the commit directly.
func commitHash(repo *git.Repository, h plumbing.Hash) plumbing.Hash {
	if tag, err := repo.TagObject(h); err == nil {
		return tag.Target
	}
	return h
}
