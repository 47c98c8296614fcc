package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AutoInstall.Enabled {
		t.Fatal("expected auto_install disabled by default")
	}
	if !cfg.Metadata.Sources.Foojay.Enabled {
		t.Fatal("expected foojay enabled by default")
	}
}

func TestLoadParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	doc := `
default_distribution = "corretto"
lock_timeout_secs = 120

[auto_install]
enabled = true
prompt = false
timeout_secs = 30

[metadata.sources.private]
enabled = true
endpoint = "https://mirror.example.test/packages"
token = "secret"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultDistribution != "corretto" {
		t.Fatalf("unexpected default distribution: %q", cfg.DefaultDistribution)
	}
	if !cfg.AutoInstall.Enabled || cfg.AutoInstall.Prompt {
		t.Fatalf("unexpected auto_install: %+v", cfg.AutoInstall)
	}
	if d := cfg.LockTimeout(); d == nil || *d != 120*time.Second {
		t.Fatalf("unexpected lock timeout: %+v", d)
	}
	if !cfg.Metadata.Sources.Private.Enabled || cfg.Metadata.Sources.Private.Token != "secret" {
		t.Fatalf("unexpected private source config: %+v", cfg.Metadata.Sources.Private)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("this is not [ valid toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed TOML")
	}
}
