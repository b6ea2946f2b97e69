// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package uibatch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.RingSlots != 3 || cfg.AtlasMinSize != 512 || cfg.AtlasSlack != 1.5 {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if got := cfg.batchConfig().FenceTimeout; got != time.Second {
		t.Errorf("fence timeout = %v, want 1s", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"icon size", func(c *Config) { c.IconSize = 0 }, "icon_size"},
		{"ring slots low", func(c *Config) { c.RingSlots = 0 }, "ring_slots"},
		{"ring slots high", func(c *Config) { c.RingSlots = 9 }, "ring_slots"},
		{"fence timeout", func(c *Config) { c.FenceTimeoutMS = 0 }, "fence_timeout_ms"},
		{"depth step", func(c *Config) { c.DepthStep = 1 }, "depth_step"},
		{"initial quads", func(c *Config) { c.InitialQuads = -1 }, "initial_quads"},
		{"atlas size", func(c *Config) { c.AtlasMinSize = 500 }, "atlas_min_size"},
		{"atlas slack", func(c *Config) { c.AtlasSlack = 0.5 }, "atlas_slack"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Error() = %q does not name the field", err.Error())
			}
		})
	}
}

func TestParseConfig_Overlay(t *testing.T) {
	cfg, err := ParseConfig(`
icon_size = 32
ring_slots = 2
atlas_slack = 2.0
`)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.IconSize != 32 || cfg.RingSlots != 2 || cfg.AtlasSlack != 2 {
		t.Errorf("ParseConfig() = %+v", cfg)
	}
	if cfg.AtlasMinSize != DefaultConfig().AtlasMinSize {
		t.Errorf("missing key lost its default: atlas_min_size = %d", cfg.AtlasMinSize)
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"syntax", "icon_size = ", "parse config"},
		{"unknown key", "icon_sise = 3", "icon_sise"},
		{"invalid value", "ring_slots = 12", "ring_slots"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(tt.data)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ParseConfig(%q) = %v, want error mentioning %q", tt.data, err, tt.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uibatch.toml")
	if err := os.WriteFile(path, []byte("fence_timeout_ms = 250\natlas_idle_frames = 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.FenceTimeoutMS != 250 || cfg.AtlasIdleFrames != 0 {
		t.Errorf("LoadConfig() = %+v", cfg)
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadConfig(missing) should fail")
	}
}
