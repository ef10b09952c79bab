// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Datasets DatasetsConfig `toml:"datasets"`
	Analysis AnalysisConfig `toml:"analysis"`
	Reports  ReportsConfig  `toml:"reports"`
	Logger   LoggerConfig   `toml:"logger"`
}

// DatasetsConfig maps dataset retrieval settings.
type DatasetsConfig struct {
	TitlesURL  *string `toml:"titles-url"`
	RatingsURL *string `toml:"ratings-url"`
	DataDir    *string `toml:"data-dir"`
}

// AnalysisConfig maps aggregation settings.
type AnalysisConfig struct {
	ChunkSize       *int `toml:"chunk-size"`
	MinYear         *int `toml:"min-year"`
	PopularVotesMin *int `toml:"popular-votes-min"`
	TopTitles       *int `toml:"top-titles"`
}

// ReportsConfig maps report output settings.
type ReportsConfig struct {
	Dir *string `toml:"dir"`
}

// LoggerConfig maps logging settings.
type LoggerConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
