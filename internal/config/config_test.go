package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Study.Phrases != nil || cfg.Log.Level != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[study]
first = "predictive"
intro-delay = "250ms"
between-delay = "1s"
legacy-csv = true

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Study.First == nil || *cfg.Study.First != "predictive" {
		t.Fatalf("unexpected first: %v", cfg.Study.First)
	}
	if cfg.Study.IntroDelay == nil || cfg.Study.IntroDelay.Duration != 250*time.Millisecond {
		t.Fatalf("unexpected intro delay: %v", cfg.Study.IntroDelay)
	}
	if cfg.Study.BetweenDelay == nil || cfg.Study.BetweenDelay.Duration != time.Second {
		t.Fatalf("unexpected between delay: %v", cfg.Study.BetweenDelay)
	}
	if cfg.Study.LegacyCSV == nil || !*cfg.Study.LegacyCSV {
		t.Fatalf("expected legacy-csv to be set")
	}
	if cfg.Study.Archive != nil {
		t.Fatalf("expected archive to be unset")
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %v", cfg.Log.Level)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[study]\nblocks = 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[study]\nintro-delay = \"soon\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for bad duration")
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "cfg"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	if got := DefaultConfigPath(); got != filepath.Join(dir, "cfg", "entrystudy", "config.toml") {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join(dir, "data", "entrystudy", "entrystudy.db") {
		t.Fatalf("unexpected db path %s", got)
	}
	if got := DefaultExportDir(); got != filepath.Join(dir, "data", "entrystudy", "exports") {
		t.Fatalf("unexpected export dir %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join(dir, "state", "entrystudy", "entrystudy.log") {
		t.Fatalf("unexpected log path %s", got)
	}
}
