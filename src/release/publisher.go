// Package release publishes gated artifacts as the assets of a tagged
// forge release. It runs only after the release gate has passed; by that
// point every artifact has been declared present, and this package's job
// is to hold the pipeline to that declaration.
package release

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sofmeright/shipgate/src/archive"
	"github.com/sofmeright/shipgate/src/forge"
)

// AssetResult is the upload outcome for a single archive.
type AssetResult struct {
	Name string
	Err  error
}

// Record describes the published (or failed) release.
type Record struct {
	Tag    string
	URL    string
	Reused bool // an existing release record for the tag was reused
	Assets []AssetResult
}

// Publisher creates the release record for a tag and attaches every
// gated artifact to it.
type Publisher struct {
	Forge      forge.Forge
	Notes      string
	Draft      bool
	Prerelease bool
}

// Publish uploads all artifacts as assets of the release for tag.
//
// Before touching the forge it verifies that every artifact file still
// exists on disk. A missing file at this point means the gate's promise
// was broken between packaging and publishing — a state bug, not a build
// failure — so the whole publish fails without creating anything, and
// the error names each unmatched file.
func (p *Publisher) Publish(ctx context.Context, tag string, artifacts []archive.Artifact) (*Record, error) {
	var unmatched []string
	for _, art := range artifacts {
		if _, err := os.Stat(art.Path); err != nil {
			unmatched = append(unmatched, fmt.Sprintf("%s (%s)", art.Name(), art.Path))
		}
	}
	if len(unmatched) > 0 {
		return nil, fmt.Errorf("unmatched artifact files, refusing to publish: %s", strings.Join(unmatched, ", "))
	}

	rel, err := p.Forge.EnsureRelease(ctx, forge.ReleaseOptions{
		TagName:    tag,
		Name:       tag,
		Notes:      p.Notes,
		Draft:      p.Draft,
		Prerelease: p.Prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("creating release %s: %w", tag, err)
	}

	record := &Record{Tag: tag, URL: rel.URL, Reused: rel.Existing}

	failures := 0
	for _, art := range artifacts {
		uploadErr := p.Forge.UploadAsset(ctx, rel.ID, forge.Asset{
			Name:     art.Name(),
			FilePath: art.Path,
		})
		if uploadErr != nil {
			failures++
		}
		record.Assets = append(record.Assets, AssetResult{Name: art.Name(), Err: uploadErr})
	}

	if failures > 0 {
		return record, fmt.Errorf("release %s: %d of %d assets failed to upload", tag, failures, len(artifacts))
	}
	return record, nil
}
