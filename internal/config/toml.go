// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Study StudyConfig `toml:"study"`
	Log   LogConfig   `toml:"log"`
}

// StudyConfig maps study-related settings. Nil fields were not set in the file.
type StudyConfig struct {
	Phrases      *string   `toml:"phrases"`
	First        *string   `toml:"first"`
	ExportDir    *string   `toml:"export-dir"`
	IntroDelay   *Duration `toml:"intro-delay"`
	BetweenDelay *Duration `toml:"between-delay"`
	LegacyCSV    *bool     `toml:"legacy-csv"`
	Archive      *bool     `toml:"archive"`
	FoldAccents  *bool     `toml:"fold-accents"`
}

// LogConfig maps diagnostics settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
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
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
