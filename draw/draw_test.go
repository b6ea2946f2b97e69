// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package draw

import (
	"encoding/binary"
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/uibatch/geom"
	"github.com/gogpu/uibatch/gpucore"
)

var white = color.NRGBA{255, 255, 255, 255}

func TestTextureSetup_Count(t *testing.T) {
	tests := []struct {
		name string
		ts   TextureSetup
		want int
	}{
		{"empty", TextureSetup{}, 0},
		{"one", Textures(7), 1},
		{"three", Textures(1, 2, 3), 3},
		{"gap", TextureSetup{Views: [3]gpucore.ViewID{1, 0, 3}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ts.Count(); got != tt.want {
				t.Errorf("Count() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTextureSetup_Hash(t *testing.T) {
	a := Textures(1, 2)
	if a.Hash() != Textures(1, 2).Hash() {
		t.Error("equal setups must hash equally")
	}
	if a.Hash() == Textures(2, 1).Hash() {
		t.Error("view order should affect the hash")
	}
}

func TestTextures_TooMany(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Textures() with 4 views should panic")
		}
	}()
	Textures(1, 2, 3, 4)
}

func TestDrawable_Bounds(t *testing.T) {
	d := Rect(geom.R(0, 0, 10, 10), white).WithPose(geom.Translation(5, 5))
	b, ok := d.Bounds()
	if !ok || b != geom.R(5, 5, 15, 15) {
		t.Errorf("Bounds() = %v, %v", b, ok)
	}

	clipped := d.WithScissor(geom.R(0, 0, 8, 8))
	b, ok = clipped.Bounds()
	if !ok || b != geom.R(5, 5, 8, 8) {
		t.Errorf("clipped Bounds() = %v, %v", b, ok)
	}

	hidden := d.WithScissor(geom.R(100, 100, 110, 110))
	if _, ok := hidden.Bounds(); ok {
		t.Error("drawable outside its scissor should be invisible")
	}

	if _, ok := Rect(geom.Rect{}, white).Bounds(); ok {
		t.Error("empty rect should be invisible")
	}

	if _, ok := hidden.WithoutScissor().Bounds(); !ok {
		t.Error("WithoutScissor() should restore visibility")
	}
}

func TestDrawable_Immutable(t *testing.T) {
	a := Rect(geom.R(0, 0, 10, 10), white)
	_ = a.WithScissor(geom.R(0, 0, 1, 1))
	if _, clipped := a.Scissor(); clipped {
		t.Error("WithScissor() modified the receiver")
	}
}

func TestDrawable_Key(t *testing.T) {
	a := Blit(geom.R(0, 0, 1, 1), geom.R(0, 0, 1, 1), 3, white)
	b := Blit(geom.R(5, 5, 6, 6), geom.R(0, 0, 0.5, 0.5), 3, color.NRGBA{1, 2, 3, 4})
	if a.Key() != b.Key() {
		t.Error("blits with the same view should share a key")
	}
	if a.Key() == a.WithScissor(geom.R(0, 0, 5, 5)).Key() {
		t.Error("scissor should be part of the key")
	}
	if a.Key() == Rect(geom.R(0, 0, 1, 1), white).Key() {
		t.Error("pipeline should be part of the key")
	}
}

func TestKey_Less(t *testing.T) {
	plain := Rect(geom.R(0, 0, 1, 1), white).Key()
	text := Glyph(geom.R(0, 0, 1, 1), geom.R(0, 0, 1, 1), 1, white).Key()
	clipped := Rect(geom.R(0, 0, 1, 1), white).WithScissor(geom.R(0, 0, 5, 5)).Key()

	if !plain.Less(text) || text.Less(plain) {
		t.Error("gui pipeline should sort before text")
	}
	if !text.Less(clipped) {
		t.Error("unclipped keys should sort before clipped keys")
	}
	if plain.Less(plain) {
		t.Error("Less must be irreflexive")
	}
}

func TestDrawable_AppendVertices(t *testing.T) {
	d := Rect(geom.R(1, 2, 3, 4), color.NRGBA{10, 20, 30, 40})
	buf := d.AppendVertices(nil, 0.5)
	stride := gpucore.LayoutPositionColor.Stride()
	if len(buf) != VerticesPerQuad*stride {
		t.Fatalf("len = %d, want %d", len(buf), VerticesPerQuad*stride)
	}
	// third vertex is the bottom-right corner
	v := buf[2*stride:]
	x := math.Float32frombits(binary.LittleEndian.Uint32(v[0:]))
	y := math.Float32frombits(binary.LittleEndian.Uint32(v[4:]))
	z := math.Float32frombits(binary.LittleEndian.Uint32(v[8:]))
	if x != 3 || y != 4 || z != 0.5 {
		t.Errorf("vertex 2 = (%g, %g, %g), want (3, 4, 0.5)", x, y, z)
	}
	if v[12] != 10 || v[15] != 40 {
		t.Errorf("color bytes = %v", v[12:16])
	}

	blit := Blit(geom.R(0, 0, 1, 1), geom.R(0.25, 0.5, 0.75, 1), 9, white)
	buf = blit.AppendVertices(nil, 0)
	stride = gpucore.LayoutPositionTexColor.Stride()
	if len(buf) != VerticesPerQuad*stride {
		t.Fatalf("textured len = %d", len(buf))
	}
	u := math.Float32frombits(binary.LittleEndian.Uint32(buf[stride+12:]))
	if u != 0.75 {
		t.Errorf("vertex 1 u = %g, want 0.75", u)
	}
}

func TestDrawable_AppendVerticesContract(t *testing.T) {
	tests := []struct {
		name string
		d    Drawable
		want error
	}{
		{"missing texture", Blit(geom.R(0, 0, 1, 1), geom.R(0, 0, 1, 1), gpucore.InvalidID, white), ErrMissingTexture},
		{"icon placeholder", Icon(geom.R(0, 0, 1, 1), 1, false, white), ErrUnresolved},
		{"picture placeholder", Picture(geom.R(0, 0, 1, 1), nil), ErrUnresolved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok || !errors.Is(err, tt.want) {
					t.Errorf("panic = %v, want %v", r, tt.want)
				}
			}()
			tt.d.AppendVertices(nil, 0)
		})
	}
}

func TestDrawable_Resolve(t *testing.T) {
	icon := Icon(geom.R(0, 0, 16, 16), 42, true, white).WithScissor(geom.R(0, 0, 8, 8))
	blit := icon.ResolveIcon(5, geom.R(0, 0, 0.1, 0.1))
	if blit.Kind() != KindBlit {
		t.Errorf("Kind() = %v, want blit", blit.Kind())
	}
	if blit.Pipeline() != gpucore.PipelineGUITexturedPremultiplied {
		t.Errorf("Pipeline() = %v", blit.Pipeline())
	}
	if s, ok := blit.Scissor(); !ok || s != geom.R(0, 0, 8, 8) {
		t.Error("resolved icon lost its scissor")
	}
	if got := blit.AppendVertices(nil, 0); len(got) == 0 {
		t.Error("resolved icon produced no vertices")
	}
}

type fakeGlyphs struct{}

func (fakeGlyphs) Glyph(_ *font.Font, size float32, gid font.GID) (GlyphImage, bool) {
	if gid == 0 {
		return GlyphImage{}, false
	}
	return GlyphImage{View: 11, Quad: geom.R(0, -size, size/2, 0), UV: geom.R(0, 0, 0.1, 0.1)}, true
}

func TestTextRun_Materialize(t *testing.T) {
	run := TextRun{
		Size:        10,
		Color:       white,
		Glyphs:      []PositionedGlyph{{GID: 1, X: 0, Y: 10}, {GID: 0, X: 5, Y: 10}, {GID: 2, X: 10, Y: 10}},
		Decorations: DecorationUnderline,
		Pose:        geom.Translation(100, 0),
	}
	var got []Drawable
	run.Materialize(fakeGlyphs{}, func(d Drawable) { got = append(got, d) })
	if len(got) != 3 {
		t.Fatalf("materialized %d drawables, want 3", len(got))
	}
	if got[0].Kind() != KindGlyph || got[2].Kind() != KindGlyphEffect {
		t.Errorf("kinds = %v %v %v", got[0].Kind(), got[1].Kind(), got[2].Kind())
	}
	b, _ := got[1].Bounds()
	if b != geom.R(110, 0, 115, 10) {
		t.Errorf("second glyph bounds = %v", b)
	}
	runBounds, ok := run.Bounds()
	if !ok {
		t.Fatal("run should be visible")
	}
	for _, d := range got {
		db, _ := d.Bounds()
		if !runBounds.Contains(db) {
			t.Errorf("%v escapes run bounds %v", d, runBounds)
		}
	}
}

func TestTextRun_EmptyInvisible(t *testing.T) {
	if _, ok := (TextRun{Size: 12}).Bounds(); ok {
		t.Error("run without glyphs should be invisible")
	}
}

func TestGlyphsFromShaped(t *testing.T) {
	shaped := []shaping.Glyph{
		{GlyphID: 3, Advance: fixed.I(8)},
		{GlyphID: 4, Advance: fixed.I(6), XOffset: fixed.I(1)},
	}
	got := GlyphsFromShaped(shaped, 10, 20)
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].X != 10 || got[1].X != 19 || got[1].Y != 20 || got[1].GID != 4 {
		t.Errorf("glyphs = %+v", got)
	}
}
