// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package uibatch

import (
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/uibatch/atlas"
	"github.com/gogpu/uibatch/draw"
)

// Option configures an Engine during creation.
//
// Example:
//
//	e, err := uibatch.New(dev,
//	    uibatch.WithGlyphSource(glyphCache),
//	    uibatch.WithIconRenderer(icons),
//	    uibatch.WithUIScale(2),
//	)
type Option func(*engineOptions)

type engineOptions struct {
	config Config
	glyphs draw.GlyphSource
	icons  atlas.IconRenderer
	logger *slog.Logger
	scale  float32
	clear  *gputypes.Color
}

func defaultOptions() engineOptions {
	return engineOptions{
		config: DefaultConfig(),
		scale:  1,
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(o *engineOptions) {
		o.config = cfg
	}
}

// WithGlyphSource sets the rasterized glyph provider used to materialize
// text runs. Without one, submitted text is skipped.
func WithGlyphSource(src draw.GlyphSource) Option {
	return func(o *engineOptions) {
		o.glyphs = src
	}
}

// WithIconRenderer sets the renderer that draws icons into the atlas.
// Without one, submitted icons are dropped.
func WithIconRenderer(r atlas.IconRenderer) Option {
	return func(o *engineOptions) {
		o.icons = r
	}
}

// WithLogger sets the logger for messages of this engine. Sub-packages
// keep using the package logger set by SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = l
	}
}

// WithUIScale sets the initial UI scale. Non-positive values are ignored.
func WithUIScale(s float32) Option {
	return func(o *engineOptions) {
		if s > 0 {
			o.scale = s
		}
	}
}

// WithClearColor makes the first pass of each frame clear the target.
// By default the UI is drawn over the existing contents.
func WithClearColor(c gputypes.Color) Option {
	return func(o *engineOptions) {
		o.clear = &c
	}
}
