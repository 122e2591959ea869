package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".shipgate.yml"

// Config is the top-level ShipGate configuration.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Build   BuildConfig   `yaml:"build"`
	Targets []Target      `yaml:"targets"`
	Release ReleaseConfig `yaml:"release"`
}

// ProjectConfig describes the project being built. Name and version may be
// left empty and detected from build manifests (Cargo.toml, go.mod).
type ProjectConfig struct {
	// Name is the project name, used as the default binary name.
	Name string `yaml:"name"`

	// BuildCommand is the external build invocation. It runs once per
	// target with {triple}, {binary}, {name}, and {version} resolved.
	// The command is expected to produce an optimized release binary.
	BuildCommand string `yaml:"build_command"`

	// BinaryTemplate is the path, relative to the workspace root, where
	// the build command leaves the binary for a given target.
	// e.g. "target/{triple}/release/{binary}"
	BinaryTemplate string `yaml:"binary_template"`
}

// BuildConfig controls how target pipelines are scheduled.
type BuildConfig struct {
	// Jobs is the maximum number of target pipelines running at once.
	Jobs int `yaml:"jobs"`

	// Timeout is the per-target wall clock limit (Go duration string).
	Timeout string `yaml:"timeout"`

	// Workspace selects workspace isolation:
	//   clone  — fresh checkout of the tag per target (default)
	//   shared — all targets build from the invocation directory; only
	//            safe when the build tool keeps per-triple output paths
	Workspace string `yaml:"workspace"`
}

// ReleaseConfig controls the forge release created after the gate.
type ReleaseConfig struct {
	// Draft creates the release as a draft.
	Draft bool `yaml:"draft"`

	// PrereleaseDetect marks the release as a prerelease when the tag
	// carries a semver prerelease suffix (e.g. 1.2.0-rc.1).
	PrereleaseDetect *bool `yaml:"prerelease_detect"`
}

// Load reads configuration from a YAML file.
// If path is empty, it tries the default file.
// Returns sensible defaults if the file doesn't exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return defaults(), nil
		}
		return nil, err
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	detect := true
	return &Config{
		Build: BuildConfig{
			Jobs:      4,
			Timeout:   "30m",
			Workspace: "clone",
		},
		Release: ReleaseConfig{
			PrereleaseDetect: &detect,
		},
	}
}

// JobTimeout returns the parsed per-target timeout.
func (c *Config) JobTimeout() (time.Duration, error) {
	if c.Build.Timeout == "" {
		return 30 * time.Minute, nil
	}
	d, err := time.ParseDuration(c.Build.Timeout)
	if err != nil {
		return 0, fmt.Errorf("build.timeout: %w", err)
	}
	return d, nil
}

// PrereleaseDetect reports whether prerelease tags should mark the
// release as a prerelease. Defaults to true.
func (c *Config) PrereleaseDetect() bool {
	if c.Release.PrereleaseDetect == nil {
		return true
	}
	return *c.Release.PrereleaseDetect
}
