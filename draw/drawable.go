// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package draw

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/gogpu/uibatch/geom"
	"github.com/gogpu/uibatch/gpucore"
)

// Contract violations. They are raised with panic by the code that
// detects them and can be matched with errors.Is after recover.
var (
	// ErrMissingTexture means a textured pipeline has no view bound.
	ErrMissingTexture = errors.New("draw: required texture missing")

	// ErrUnresolved means a placeholder reached vertex generation without
	// being replaced by its materialized drawable.
	ErrUnresolved = errors.New("draw: placeholder not resolved")
)

// Kind identifies the drawable variant.
type Kind uint8

// Drawable kinds.
const (
	// KindRect is a solid, vertex-colored rectangle.
	KindRect Kind = iota

	// KindBlit is a textured quad.
	KindBlit

	// KindGlyph is one glyph quad sampled from a glyph atlas.
	KindGlyph

	// KindGlyphEffect is a text decoration line (underline, strikethrough).
	KindGlyphEffect

	// KindPicture is a placeholder for embedded content rendered to its
	// own texture before batching.
	KindPicture

	// KindIcon is a placeholder for an icon packed into the icon atlas.
	KindIcon
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindRect:
		return "rect"
	case KindBlit:
		return "blit"
	case KindGlyph:
		return "glyph"
	case KindGlyphEffect:
		return "glyph_effect"
	case KindPicture:
		return "picture"
	case KindIcon:
		return "icon"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsPlaceholder reports whether drawables of this kind must be resolved
// before they can produce vertices.
func (k Kind) IsPlaceholder() bool {
	return k == KindPicture || k == KindIcon
}

// IconID identifies an icon's rendered pixels. Two icons with the same ID
// at the same UI scale must render identically.
type IconID uint64

// EmbeddedContent renders a picture-in-picture widget into a texture.
type EmbeddedContent interface {
	// RenderContent renders the content at the given pixel size and
	// returns the view holding the result with premultiplied color.
	RenderContent(dev gpucore.Device, width, height uint32) (gpucore.ViewID, error)
}

// Key is the batching key of a drawable. Consecutive drawables with equal
// keys are merged into one draw.
type Key struct {
	Pipeline gpucore.Pipeline
	Textures TextureSetup
	Scissor  geom.Rect
	Clipped  bool
}

// Less orders keys by scissor, then pipeline, then texture setup hash.
func (k Key) Less(o Key) bool {
	if k.Clipped != o.Clipped {
		return !k.Clipped
	}
	if k.Clipped && k.Scissor != o.Scissor {
		return rectLess(k.Scissor, o.Scissor)
	}
	if k.Pipeline != o.Pipeline {
		return k.Pipeline.SortKey() < o.Pipeline.SortKey()
	}
	return k.Textures.Hash() < o.Textures.Hash()
}

func rectLess(a, b geom.Rect) bool {
	switch {
	case a.Y0 != b.Y0:
		return a.Y0 < b.Y0
	case a.X0 != b.X0:
		return a.X0 < b.X0
	case a.Y1 != b.Y1:
		return a.Y1 < b.Y1
	default:
		return a.X1 < b.X1
	}
}

// Drawable is one submitted 2D paint operation.
//
// Drawables are immutable: the With methods return modified copies with
// recomputed bounds.
type Drawable struct {
	kind     Kind
	rect     geom.Rect
	pose     geom.Pose
	uv       geom.Rect
	color    color.NRGBA
	pipeline gpucore.Pipeline
	textures TextureSetup
	scissor  geom.Rect
	clipped  bool

	bounds  geom.Rect
	visible bool

	icon     IconID
	animated bool
	content  EmbeddedContent
}

var fullUV = geom.Rect{X0: 0, Y0: 0, X1: 1, Y1: 1}

func newDrawable(kind Kind, r geom.Rect, p gpucore.Pipeline, c color.NRGBA) Drawable {
	d := Drawable{
		kind:     kind,
		rect:     r,
		pose:     geom.Identity(),
		uv:       fullUV,
		color:    c,
		pipeline: p,
	}
	d.computeBounds()
	return d
}

// Rect returns a solid rectangle.
func Rect(r geom.Rect, c color.NRGBA) Drawable {
	return newDrawable(KindRect, r, gpucore.PipelineGUI, c)
}

// Blit returns a quad sampling uv from view, tinted by tint.
func Blit(r, uv geom.Rect, view gpucore.ViewID, tint color.NRGBA) Drawable {
	d := newDrawable(KindBlit, r, gpucore.PipelineGUITextured, tint)
	d.uv = uv
	d.textures = Textures(view)
	return d
}

// BlitSetup returns a textured quad with an explicit pipeline and
// texture setup.
func BlitSetup(r, uv geom.Rect, p gpucore.Pipeline, ts TextureSetup, tint color.NRGBA) Drawable {
	d := newDrawable(KindBlit, r, p, tint)
	d.uv = uv
	d.textures = ts
	return d
}

// Glyph returns a glyph quad sampling uv from a glyph atlas view.
func Glyph(r, uv geom.Rect, atlas gpucore.ViewID, c color.NRGBA) Drawable {
	d := newDrawable(KindGlyph, r, gpucore.PipelineText, c)
	d.uv = uv
	d.textures = Textures(atlas)
	return d
}

// GlyphEffect returns a text decoration line covering r.
func GlyphEffect(r geom.Rect, c color.NRGBA) Drawable {
	return newDrawable(KindGlyphEffect, r, gpucore.PipelineGUI, c)
}

// Picture returns an embedded content placeholder covering r.
func Picture(r geom.Rect, content EmbeddedContent) Drawable {
	d := newDrawable(KindPicture, r, gpucore.PipelineGUITexturedPremultiplied, color.NRGBA{255, 255, 255, 255})
	d.content = content
	return d
}

// Icon returns an icon placeholder covering r. Animated icons are
// re-rendered every frame.
func Icon(r geom.Rect, id IconID, animated bool, tint color.NRGBA) Drawable {
	d := newDrawable(KindIcon, r, gpucore.PipelineGUITexturedPremultiplied, tint)
	d.icon = id
	d.animated = animated
	return d
}

// WithPose returns a copy transformed by p.
func (d Drawable) WithPose(p geom.Pose) Drawable {
	d.pose = p
	d.computeBounds()
	return d
}

// WithScissor returns a copy clipped to the screen-space rectangle s.
func (d Drawable) WithScissor(s geom.Rect) Drawable {
	d.scissor = s
	d.clipped = true
	d.computeBounds()
	return d
}

// WithoutScissor returns an unclipped copy.
func (d Drawable) WithoutScissor() Drawable {
	d.scissor = geom.Rect{}
	d.clipped = false
	d.computeBounds()
	return d
}

// ResolveIcon returns the blit that draws an icon placeholder from the
// icon atlas.
func (d Drawable) ResolveIcon(atlas gpucore.ViewID, uv geom.Rect) Drawable {
	d.kind = KindBlit
	d.uv = uv
	d.textures = Textures(atlas)
	return d
}

// ResolvePicture returns the blit that draws rendered embedded content.
func (d Drawable) ResolvePicture(view gpucore.ViewID) Drawable {
	d.kind = KindBlit
	d.uv = fullUV
	d.textures = Textures(view)
	d.content = nil
	return d
}

func (d *Drawable) computeBounds() {
	b := d.pose.TransformRect(d.rect)
	if d.clipped {
		var ok bool
		if b, ok = b.Intersect(d.scissor); !ok {
			d.bounds, d.visible = geom.Rect{}, false
			return
		}
	}
	d.bounds, d.visible = b, !b.Empty()
}

// Kind returns the drawable's variant.
func (d Drawable) Kind() Kind { return d.kind }

// Geometry returns the untransformed rectangle.
func (d Drawable) Geometry() geom.Rect { return d.rect }

// Pose returns the local-to-screen transform.
func (d Drawable) Pose() geom.Pose { return d.pose }

// UV returns the sampled texture region.
func (d Drawable) UV() geom.Rect { return d.uv }

// Color returns the fill color or tint.
func (d Drawable) Color() color.NRGBA { return d.color }

// Pipeline returns the pipeline the drawable renders with.
func (d Drawable) Pipeline() gpucore.Pipeline { return d.pipeline }

// Textures returns the bound texture setup.
func (d Drawable) Textures() TextureSetup { return d.textures }

// Scissor returns the clip rectangle, if any.
func (d Drawable) Scissor() (geom.Rect, bool) { return d.scissor, d.clipped }

// Bounds returns the screen-space bounds. The boolean is false when the
// drawable is invisible and must not be submitted.
func (d Drawable) Bounds() (geom.Rect, bool) { return d.bounds, d.visible }

// IconID returns the icon identity of an icon placeholder.
func (d Drawable) IconID() IconID { return d.icon }

// Animated reports whether an icon placeholder must be refreshed every frame.
func (d Drawable) Animated() bool { return d.animated }

// Content returns the embedded content of a picture placeholder.
func (d Drawable) Content() EmbeddedContent { return d.content }

// Key returns the batching key.
func (d Drawable) Key() Key {
	return Key{
		Pipeline: d.pipeline,
		Textures: d.textures,
		Scissor:  d.scissor,
		Clipped:  d.clipped,
	}
}

// String returns a debug representation.
func (d Drawable) String() string {
	return fmt.Sprintf("%s%v/%s", d.kind, d.bounds, d.pipeline)
}
