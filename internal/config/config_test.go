package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "pasc.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := Default()
	if cfg.Outdir != def.Outdir || cfg.Color != def.Color || cfg.Format != def.Format {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverlaysOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pasc.yaml")
	if err := os.WriteFile(path, []byte("outdir: build\ncolor: never\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Outdir != "build" {
		t.Fatalf("expected outdir overlay, got %q", cfg.Outdir)
	}
	if cfg.Color != "never" {
		t.Fatalf("expected color overlay, got %q", cfg.Color)
	}
	if cfg.Format != "text" {
		t.Fatalf("expected format to keep its default, got %q", cfg.Format)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pasc.yaml")
	if err := os.WriteFile(path, []byte("outdir: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}
