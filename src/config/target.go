package config

import "strings"

// ArchiveKind is the packaging format for a target's release archive.
type ArchiveKind string

const (
	ArchiveTarGz ArchiveKind = "tar.gz"
	ArchiveZip   ArchiveKind = "zip"
)

// Target describes one (OS, arch, ABI) release target. The full set is
// fixed configuration enumerated at startup; adding a platform means adding
// one entry here and nothing else.
type Target struct {
	// Name is the short unique identifier (logging, --only selection).
	Name string `yaml:"name"`

	// Triple is the target triple passed to the build command,
	// e.g. "x86_64-unknown-linux-gnu".
	Triple string `yaml:"triple"`

	// Display is the human-readable label. Defaults to Name.
	Display string `yaml:"display"`

	// Binary is the binary base name inside the archive. Defaults to the
	// project name. The Windows ".exe" suffix is applied by the packager,
	// not here.
	Binary string `yaml:"binary"`

	// Archive is the exact archive file name uploaded as the release
	// asset, e.g. "feeless-linux-64.tar.gz". The compression format is
	// inferred from its extension.
	Archive string `yaml:"archive"`
}

// ArchiveKind infers the packaging format from the archive file name.
// Returns "" when the extension is not a supported format.
func (t Target) ArchiveKind() ArchiveKind {
	switch {
	case strings.HasSuffix(t.Archive, ".tar.gz"), strings.HasSuffix(t.Archive, ".tgz"):
		return ArchiveTarGz
	case strings.HasSuffix(t.Archive, ".zip"):
		return ArchiveZip
	default:
		return ""
	}
}

// DisplayName returns Display, falling back to Name.
func (t Target) DisplayName() string {
	if t.Display != "" {
		return t.Display
	}
	return t.Name
}

// ResolvePlaceholders substitutes {triple}, {binary}, {name}, and
// {version} in a template string for this target.
func (t Target) ResolvePlaceholders(s, project, version string) string {
	r := strings.NewReplacer(
		"{triple}", t.Triple,
		"{binary}", t.Binary,
		"{name}", project,
		"{version}", version,
	)
	return r.Replace(s)
}
