// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package draw

import (
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/uibatch/geom"
	"github.com/gogpu/uibatch/gpucore"
)

// PositionedGlyph is a glyph placed by text layout. X, Y is the pen
// position on the baseline, relative to the run's local origin.
type PositionedGlyph struct {
	GID  font.GID
	X, Y float32
}

// Decoration is a set of text decoration lines.
type Decoration uint8

// Decorations.
const (
	DecorationUnderline Decoration = 1 << iota
	DecorationStrikethrough
)

// TextRun is a laid-out run of glyphs in one font, size and color.
// It is recorded as a text placeholder and expanded into glyph drawables
// before batching.
type TextRun struct {
	Font        *font.Font
	Size        float32
	Glyphs      []PositionedGlyph
	Color       color.NRGBA
	Decorations Decoration

	// Box is the run's layout box in local coordinates. When empty the
	// box is estimated from the glyph pen positions and the font size.
	Box geom.Rect

	Pose    geom.Pose
	Scissor geom.Rect
	Clipped bool
}

// GlyphImage locates a rasterized glyph in a glyph atlas.
type GlyphImage struct {
	View gpucore.ViewID
	// Quad is the glyph's rectangle relative to the pen position.
	Quad geom.Rect
	UV   geom.Rect
}

// GlyphSource provides rasterized glyphs. The boolean is false for
// glyphs without an image (spaces, missing glyphs).
type GlyphSource interface {
	Glyph(f *font.Font, size float32, gid font.GID) (GlyphImage, bool)
}

// LocalBox returns the run's layout box in local coordinates.
func (r TextRun) LocalBox() geom.Rect {
	if !r.Box.Empty() {
		return r.Box
	}
	var box geom.Rect
	for _, g := range r.Glyphs {
		box = box.Union(geom.Rect{
			X0: g.X,
			Y0: g.Y - r.Size,
			X1: g.X + r.Size,
			Y1: g.Y + r.Size*0.25,
		})
	}
	return box
}

func (r TextRun) pose() geom.Pose {
	if r.Pose == (geom.Pose{}) {
		return geom.Identity()
	}
	return r.Pose
}

// Bounds returns the run's screen-space bounds. The boolean is false when
// nothing of the run is visible.
func (r TextRun) Bounds() (geom.Rect, bool) {
	if len(r.Glyphs) == 0 {
		return geom.Rect{}, false
	}
	b := r.pose().TransformRect(r.LocalBox())
	if r.Clipped {
		return b.Intersect(r.Scissor)
	}
	return b, !b.Empty()
}

// Materialize expands the run into glyph and glyph effect drawables,
// calling emit for each visible one in paint order.
func (r TextRun) Materialize(src GlyphSource, emit func(Drawable)) {
	p := r.pose()
	finish := func(d Drawable) {
		d = d.WithPose(p)
		if r.Clipped {
			d = d.WithScissor(r.Scissor)
		}
		if _, ok := d.Bounds(); ok {
			emit(d)
		}
	}
	for _, g := range r.Glyphs {
		img, ok := src.Glyph(r.Font, r.Size, g.GID)
		if !ok {
			continue
		}
		finish(Glyph(img.Quad.Translate(g.X, g.Y), img.UV, img.View, r.Color))
	}
	if r.Decorations == 0 || len(r.Glyphs) == 0 {
		return
	}
	box := r.LocalBox()
	baseline := r.Glyphs[0].Y
	thickness := math32.Max(1, r.Size/14)
	if r.Decorations&DecorationUnderline != 0 {
		y := baseline + r.Size*0.08
		finish(GlyphEffect(geom.Rect{X0: box.X0, Y0: y, X1: box.X1, Y1: y + thickness}, r.Color))
	}
	if r.Decorations&DecorationStrikethrough != 0 {
		y := baseline - r.Size*0.28
		finish(GlyphEffect(geom.Rect{X0: box.X0, Y0: y, X1: box.X1, Y1: y + thickness}, r.Color))
	}
}

// GlyphsFromShaped converts horizontally shaped glyphs into pen
// positions starting at x, y.
func GlyphsFromShaped(glyphs []shaping.Glyph, x, y float32) []PositionedGlyph {
	if len(glyphs) == 0 {
		return nil
	}
	out := make([]PositionedGlyph, len(glyphs))
	for i, g := range glyphs {
		out[i] = PositionedGlyph{
			GID: g.GlyphID,
			X:   x + fixedToFloat(g.XOffset),
			Y:   y + fixedToFloat(g.YOffset),
		}
		x += fixedToFloat(g.Advance)
	}
	return out
}

func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
