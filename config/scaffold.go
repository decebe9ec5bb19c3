package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrExists is returned by Scaffold when the file is already there.
var ErrExists = errors.New("config file already exists")

// Default returns the config written by "ddtr init": an IntelliJ-style
// plugin bundle with Chinese as the source language.
func Default() *Config {
	interval := Duration(DefaultInterval)
	return &Config{
		OutputDir:       "./src/main/resources/messages",
		BaseFilename:    "pluginBundle",
		DefaultFilename: "pluginBundle",
		DefaultLanguage: "zh",
		TargetLanguages: []string{"en", "hk", "ja", "ko"},
		Concurrency:     DefaultConcurrency,
		Interval:        &interval,
	}
}

// Marshal encodes c in the given format.
func (c *Config) Marshal(format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(c)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Scaffold writes Default() to path, choosing the encoding by extension. An
// existing file is only replaced when force is set.
func Scaffold(path string, force bool) error {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s: %w (use --force to overwrite)", path, ErrExists)
	}

	data, err := Default().Marshal(formatOf(path))
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	// Holds API credentials once filled in.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
