package config

import (
	"fmt"
	"os"
)

// Validate checks structural validity of the configuration. Directory
// existence is checked separately so help output works anywhere.
func (c *Config) Validate() error {
	if c.ModelsDir == "" {
		return fmt.Errorf("models_dir is required")
	}
	switch c.OutputFormat {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("invalid output format %q (want auto, text, markdown, or json)", c.OutputFormat)
	}
	return nil
}

// ValidateModelsDir checks that the models directory exists.
func (c *Config) ValidateModelsDir() error {
	if _, err := os.Stat(c.ModelsDir); os.IsNotExist(err) {
		return fmt.Errorf("models directory does not exist: %s\nHint: create the directory or use --models-dir to point at your SQL files", c.ModelsDir)
	}
	return nil
}
