// Package forge provides a platform-agnostic abstraction over git forges
// (GitHub, GitLab, Gitea/Forgejo). The publisher only needs two write
// operations — ensure a release record exists for a tag, and attach a
// file to it — so that is the whole interface, and ShipGate publishes
// identically regardless of where the repo is hosted.
package forge

import (
	"context"
	"fmt"
)

// Provider identifies a git forge platform.
type Provider string

const (
	GitHub  Provider = "github"
	GitLab  Provider = "gitlab"
	Gitea   Provider = "gitea"
	Unknown Provider = "unknown"
)

// Forge is the interface every platform implements.
type Forge interface {
	// Provider returns which platform this forge represents.
	Provider() Provider

	// EnsureRelease returns the release record for opts.TagName, creating
	// it if none exists yet. Reusing an existing record is what makes
	// re-running publish after a partial failure safe.
	EnsureRelease(ctx context.Context, opts ReleaseOptions) (*Release, error)

	// UploadAsset attaches a file to an existing release under the given
	// asset name.
	UploadAsset(ctx context.Context, releaseID string, asset Asset) error
}

// ReleaseOptions configures the release record for a tag.
type ReleaseOptions struct {
	TagName    string
	Name       string
	Notes      string // markdown body
	Draft      bool
	Prerelease bool
}

// Release is a release record on a forge.
type Release struct {
	ID       string // platform-specific ID
	URL      string // web URL to the release page
	Existing bool   // true when the record predated this run
}

// Asset is a file to attach to a release.
type Asset struct {
	Name     string // uploaded file name, matched literally by consumers
	FilePath string // local file to upload
}

// New constructs the forge client for a provider, with owner/repo taken
// from the git remote URL and credentials from the environment.
func New(provider Provider, remoteURL string) (Forge, error) {
	owner, repo := ParseOwnerRepo(remoteURL)

	switch provider {
	case GitHub:
		return NewGitHub(BaseURL(remoteURL), owner, repo), nil
	case GitLab:
		return NewGitLab(BaseURL(remoteURL), owner, repo), nil
	case Gitea:
		return NewGitea(BaseURL(remoteURL), owner, repo), nil
	default:
		return nil, fmt.Errorf("unsupported forge provider %q", provider)
	}
}

// httpError carries the API status code so callers can distinguish
// "release not found" from real failures.
type httpError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("forge API %s %s: %d %s", e.Method, e.URL, e.Status, e.Body)
}

func (e *httpError) NotFound() bool { return e.Status == 404 }
