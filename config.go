// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package uibatch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/uibatch/atlas"
	"github.com/gogpu/uibatch/batch"
)

// Config holds engine configuration. It can be loaded from TOML; keys
// missing from the file keep their default values.
type Config struct {
	// IconSize is the icon cell side in logical pixels. The pixel size is
	// IconSize times the UI scale, rounded up.
	// Default: 24
	IconSize int `toml:"icon_size"`

	// AtlasMinSize is the smallest icon atlas side. Must be a power of 2.
	// Default: 512
	AtlasMinSize int `toml:"atlas_min_size"`

	// AtlasSlack multiplies the distinct icon count when sizing the atlas.
	// Default: 1.5
	AtlasSlack float64 `toml:"atlas_slack"`

	// AtlasSlotTTL is how many frames an unused icon keeps its cell.
	// 0 keeps cells until the atlas is invalidated.
	// Default: 300
	AtlasSlotTTL uint64 `toml:"atlas_slot_ttl"`

	// AtlasIdleFrames releases the atlas texture after this many frames
	// without icons. 0 never releases it.
	// Default: 600
	AtlasIdleFrames uint64 `toml:"atlas_idle_frames"`

	// RingSlots is the number of vertex buffers per vertex layout.
	// Default: 3
	RingSlots int `toml:"ring_slots"`

	// RingIdleFrames releases a vertex ring after this many frames without
	// drawables of its layout. 0 never releases it.
	// Default: 600
	RingIdleFrames uint64 `toml:"ring_idle_frames"`

	// FenceTimeoutMS bounds the wait for a busy ring slot.
	// Default: 1000
	FenceTimeoutMS int `toml:"fence_timeout_ms"`

	// DepthStep is the depth added per drawable in paint order.
	// Default: 1/1048576
	DepthStep float64 `toml:"depth_step"`

	// InitialQuads is the smallest quad index buffer allocated.
	// Default: 1024
	InitialQuads int `toml:"initial_quads"`
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	ac := atlas.DefaultConfig()
	bc := batch.DefaultConfig()
	return Config{
		IconSize:        24,
		AtlasMinSize:    ac.MinSize,
		AtlasSlack:      float64(ac.Slack),
		AtlasSlotTTL:    ac.SlotTTL,
		AtlasIdleFrames: 600,
		RingSlots:       bc.RingSlots,
		RingIdleFrames:  600,
		FenceTimeoutMS:  int(bc.FenceTimeout / time.Millisecond),
		DepthStep:       float64(bc.DepthStep),
		InitialQuads:    bc.InitialQuads,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.IconSize < 1 {
		return &ConfigError{Field: "icon_size", Reason: "must be positive"}
	}
	if c.RingSlots < 1 || c.RingSlots > 8 {
		return &ConfigError{Field: "ring_slots", Reason: "must be in [1, 8]"}
	}
	if c.FenceTimeoutMS < 1 {
		return &ConfigError{Field: "fence_timeout_ms", Reason: "must be positive"}
	}
	if !(c.DepthStep > 0 && c.DepthStep < 1) {
		return &ConfigError{Field: "depth_step", Reason: "must be in (0, 1)"}
	}
	if c.InitialQuads < 1 {
		return &ConfigError{Field: "initial_quads", Reason: "must be positive"}
	}
	ac := c.atlasConfig()
	if err := ac.Validate(); err != nil {
		field := map[string]string{"MinSize": "atlas_min_size", "Slack": "atlas_slack"}
		var ce *atlas.ConfigError
		if errors.As(err, &ce) {
			return &ConfigError{Field: field[ce.Field], Reason: ce.Reason}
		}
		return err
	}
	return nil
}

func (c *Config) atlasConfig() atlas.Config {
	return atlas.Config{
		MinSize: c.AtlasMinSize,
		Slack:   float32(c.AtlasSlack),
		SlotTTL: c.AtlasSlotTTL,
	}
}

func (c *Config) batchConfig() batch.Config {
	return batch.Config{
		RingSlots:    c.RingSlots,
		DepthStep:    float32(c.DepthStep),
		InitialQuads: c.InitialQuads,
		FenceTimeout: time.Duration(c.FenceTimeoutMS) * time.Millisecond,
	}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "uibatch: invalid config " + e.Field + ": " + e.Reason
}

// ParseConfig decodes TOML data over the default configuration and
// validates the result. Unknown keys are an error.
func ParseConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("uibatch: parse config: %w", err)
	}
	return finishConfig(cfg, md)
}

// LoadConfig reads a TOML configuration file. See ParseConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("uibatch: load config %s: %w", path, err)
	}
	return finishConfig(cfg, md)
}

func finishConfig(cfg Config, md toml.MetaData) (Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("uibatch: unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
