package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDetectCargo(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "Cargo.toml", `
[package]
name = "feeless"
version = "1.0.0"
edition = "2018"

[dependencies]
clap = "2.33"
`)

	m := Detect(dir)
	if m.Name != "feeless" || m.Version != "1.0.0" || m.Source != "Cargo.toml" {
		t.Errorf("got %+v, want feeless/1.0.0 from Cargo.toml", m)
	}
}

func TestDetectCargoWinsOverGoMod(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "Cargo.toml", "[package]\nname = \"rusty\"\n")
	writeManifest(t, dir, "go.mod", "module example.com/tooling\n")

	if m := Detect(dir); m.Name != "rusty" {
		t.Errorf("name = %q, want rusty", m.Name)
	}
}

func TestDetectGoMod(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "go.mod", "module github.com/sofmeright/shipgate\n\ngo 1.25.4\n")

	m := Detect(dir)
	if m.Name != "shipgate" || m.Source != "go.mod" {
		t.Errorf("got %+v, want shipgate from go.mod", m)
	}
}

func TestDetectNothing(t *testing.T) {
	if m := Detect(t.TempDir()); m != (Meta{}) {
		t.Errorf("expected empty meta, got %+v", m)
	}
}

func TestDetectBrokenCargoFallsThrough(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "Cargo.toml", "not = [valid")
	writeManifest(t, dir, "go.mod", "module example.com/fallback\n")

	if m := Detect(dir); m.Name != "fallback" {
		t.Errorf("name = %q, want fallback", m.Name)
	}
}
