package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults holds the CLI-only defaults read from ~/.hashdbrc.yaml. These
// are distinct from a hashdb directory's settings.json: they never
// travel with the directory, only with the user's shell environment.
type Defaults struct {
	DefaultDir     string `yaml:"default_dir"`
	DefaultRepo    string `yaml:"default_repo"`
	LogLevel       string `yaml:"log_level"`
	LogJSON        bool   `yaml:"log_json"`
}

var defaults Defaults

// loadDefaults reads ~/.hashdbrc.yaml if present. A missing file is not
// an error: every field simply keeps its zero value.
func loadDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	path := filepath.Join(home, ".hashdbrc.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = yaml.Unmarshal(data, &defaults)

	if defaults.LogLevel != "" && !rootCmd.PersistentFlags().Changed("log-level") {
		_ = rootCmd.PersistentFlags().Set("log-level", defaults.LogLevel)
	}
	if defaults.LogJSON && !rootCmd.PersistentFlags().Changed("log-json") {
		_ = rootCmd.PersistentFlags().Set("log-json", "true")
	}
}
