// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package atlas

// Config holds icon atlas configuration.
type Config struct {
	// MinSize is the smallest atlas side in pixels. Must be a power of 2.
	// Default: 512
	MinSize int

	// Slack multiplies the distinct icon count when sizing the atlas.
	// Default: 1.5
	Slack float32

	// SlotTTL is how many frames an unused slot keeps its cell.
	// 0 keeps slots until the atlas is invalidated.
	// Default: 300
	SlotTTL uint64
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		MinSize: 512,
		Slack:   1.5,
		SlotTTL: 300,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MinSize < 1 {
		return &ConfigError{Field: "MinSize", Reason: "must be positive"}
	}
	if c.MinSize&(c.MinSize-1) != 0 {
		return &ConfigError{Field: "MinSize", Reason: "must be power of 2"}
	}
	if c.MinSize > 16384 {
		return &ConfigError{Field: "MinSize", Reason: "must be at most 16384"}
	}
	if !(c.Slack >= 1) {
		return &ConfigError{Field: "Slack", Reason: "must be at least 1"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}
