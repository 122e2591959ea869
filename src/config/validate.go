package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks structural invariants of a loaded Config.
// All problems are collected before reporting so operators fix a broken
// config in one pass instead of one error at a time.
func Validate(cfg *Config) error {
	var errs []string

	// ── Project ───────────────────────────────────────────────────────────

	if cfg.Project.BuildCommand == "" {
		errs = append(errs, "project.build_command is required")
	}
	if cfg.Project.BinaryTemplate == "" {
		errs = append(errs, "project.binary_template is required")
	}

	// ── Build scheduling ──────────────────────────────────────────────────

	if cfg.Build.Jobs < 1 {
		errs = append(errs, fmt.Sprintf("build.jobs: must be >= 1, got %d", cfg.Build.Jobs))
	}
	if cfg.Build.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Build.Timeout); err != nil {
			errs = append(errs, fmt.Sprintf("build.timeout: invalid duration %q", cfg.Build.Timeout))
		}
	}
	switch cfg.Build.Workspace {
	case "", "clone", "shared":
	default:
		errs = append(errs, fmt.Sprintf("build.workspace: unknown mode %q (supported: clone, shared)", cfg.Build.Workspace))
	}

	// ── Targets ───────────────────────────────────────────────────────────

	if len(cfg.Targets) == 0 {
		errs = append(errs, "targets: at least one target is required")
	}

	names := make(map[string]bool)
	archives := make(map[string]string)
	for i, t := range cfg.Targets {
		tpath := fmt.Sprintf("targets[%d]", i)

		if t.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: name is required", tpath))
		} else if names[t.Name] {
			errs = append(errs, fmt.Sprintf("%s: duplicate target name %q", tpath, t.Name))
		} else {
			names[t.Name] = true
		}

		if t.Triple == "" {
			errs = append(errs, fmt.Sprintf("%s: triple is required", tpath))
		}

		if t.Archive == "" {
			errs = append(errs, fmt.Sprintf("%s: archive is required", tpath))
		} else {
			if t.ArchiveKind() == "" {
				errs = append(errs, fmt.Sprintf("%s: archive %q has no supported extension (.tar.gz, .tgz, .zip)", tpath, t.Archive))
			}
			// An archive name collision would silently overwrite another
			// target's release asset.
			if prev, dup := archives[t.Archive]; dup {
				errs = append(errs, fmt.Sprintf("%s: archive %q already used by target %q", tpath, t.Archive, prev))
			} else {
				archives[t.Archive] = t.Name
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
