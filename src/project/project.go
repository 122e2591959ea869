// Package project detects project metadata from build manifests so the
// config can omit what the repository already states. Explicit config
// values always win over detection.
package project

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Meta holds metadata resolved from the project's build manifests.
type Meta struct {
	Name    string // default binary/project name
	Version string // manifest version, if the ecosystem declares one
	Source  string // manifest the values came from ("Cargo.toml", "go.mod", "")
}

// Detect inspects rootDir for known build manifests. Cargo.toml wins over
// go.mod because Rust projects routinely vendor Go tooling, not the
// reverse. Returns an empty Meta when nothing is recognized — detection
// failure is not an error, the config just has to be explicit.
func Detect(rootDir string) Meta {
	if m, ok := detectCargo(rootDir); ok {
		return m
	}
	if m, ok := detectGoMod(rootDir); ok {
		return m
	}
	return Meta{}
}

// detectCargo parses [package] name and version from Cargo.toml.
func detectCargo(rootDir string) (Meta, bool) {
	data, err := os.ReadFile(filepath.Join(rootDir, "Cargo.toml"))
	if err != nil {
		return Meta{}, false
	}

	var cargo struct {
		Package struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"package"`
		Workspace struct {
			Members []string `toml:"members"`
		} `toml:"workspace"`
	}
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return Meta{}, false
	}

	name := cargo.Package.Name
	if name == "" && len(cargo.Workspace.Members) > 0 {
		// Virtual workspace manifest: fall back to the directory name,
		// which by convention matches the primary crate.
		name = filepath.Base(absOrSelf(rootDir))
	}
	if name == "" {
		return Meta{}, false
	}

	return Meta{Name: name, Version: cargo.Package.Version, Source: "Cargo.toml"}, true
}

// detectGoMod extracts the module basename from go.mod.
func detectGoMod(rootDir string) (Meta, bool) {
	data, err := os.ReadFile(filepath.Join(rootDir, "go.mod"))
	if err != nil {
		return Meta{}, false
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "module ") {
			continue
		}
		mod := strings.TrimSpace(strings.TrimPrefix(line, "module "))
		if idx := strings.LastIndex(mod, "/"); idx >= 0 {
			mod = mod[idx+1:]
		}
		if mod == "" {
			return Meta{}, false
		}
		return Meta{Name: mod, Source: "go.mod"}, true
	}
	return Meta{}, false
}

func absOrSelf(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
