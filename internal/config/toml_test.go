package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[datasets]
data-dir = "/srv/imdb"

[analysis]
chunk-size = 250000
min-year = 1950

[logger]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Datasets.DataDir == nil || *cfg.Datasets.DataDir != "/srv/imdb" {
		t.Errorf("unexpected data dir: %v", cfg.Datasets.DataDir)
	}
	if cfg.Analysis.ChunkSize == nil || *cfg.Analysis.ChunkSize != 250000 {
		t.Errorf("unexpected chunk size: %v", cfg.Analysis.ChunkSize)
	}
	if cfg.Analysis.MinYear == nil || *cfg.Analysis.MinYear != 1950 {
		t.Errorf("unexpected min year: %v", cfg.Analysis.MinYear)
	}
	if cfg.Analysis.TopTitles != nil {
		t.Errorf("unset field should stay nil, got %v", *cfg.Analysis.TopTitles)
	}
	if cfg.Logger.Level == nil || *cfg.Logger.Level != "debug" {
		t.Errorf("unexpected log level: %v", cfg.Logger.Level)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing config file must not be an error, got %v", err)
	}
	if cfg.Datasets.DataDir != nil || cfg.Analysis.ChunkSize != nil {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("datasets = nonsense ["), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
}
