package archive

import "github.com/sofmeright/shipgate/src/config"

// Artifact is a packaged release archive for one target, ready to upload.
// Created only when the target's build succeeded; owned by its pipeline
// until the release gate collects it.
type Artifact struct {
	Target    config.Target
	Path      string // absolute path of the archive on disk
	SizeBytes int64
}

// Name is the asset name the artifact is published under. It is exactly
// the configured archive file name — the publish step matches by this
// literal string.
func (a Artifact) Name() string {
	return a.Target.Archive
}
