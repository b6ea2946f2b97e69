// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package uibatch

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/uibatch/backend"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.scale != 1 || o.clear != nil || o.glyphs != nil || o.icons != nil {
		t.Errorf("defaultOptions() = %+v", o)
	}
}

func TestOptions_Applied(t *testing.T) {
	icons := &countingIcons{}
	cfg := DefaultConfig()
	cfg.IconSize = 16
	e := newEngine(t, backend.NewSoftwareDevice(),
		WithConfig(cfg),
		WithIconRenderer(icons),
		WithGlyphSource(fakeGlyphs{}),
		WithUIScale(1.5),
		WithClearColor(gputypes.Color{R: 1, A: 1}),
	)
	if e.Config().IconSize != 16 || e.UIScale() != 1.5 {
		t.Errorf("config %d scale %v", e.Config().IconSize, e.UIScale())
	}
	if e.iconPixels() != 24 {
		t.Errorf("iconPixels() = %d, want 24", e.iconPixels())
	}
	if e.icons != icons || e.glyphs == nil || e.clear == nil || e.clear.R != 1 {
		t.Error("options not applied")
	}
}

func TestWithUIScale_IgnoresNonPositive(t *testing.T) {
	e := newEngine(t, backend.NewSoftwareDevice(), WithUIScale(0), WithUIScale(-2))
	if e.UIScale() != 1 {
		t.Errorf("UIScale() = %v, want 1", e.UIScale())
	}
}
