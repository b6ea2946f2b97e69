// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package draw

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"math"

	"github.com/gogpu/uibatch/gpucore"
)

// VerticesPerQuad is the number of vertices emitted per drawable.
const VerticesPerQuad = 4

// IndicesPerQuad is the number of indices drawn per drawable.
const IndicesPerQuad = 6

// QuadIndices is the index pattern of one quad, relative to its first vertex.
var QuadIndices = [IndicesPerQuad]uint32{0, 1, 2, 2, 3, 0}

// CheckTextures panics with ErrMissingTexture if the pipeline needs more
// views than the drawable binds.
func (d Drawable) CheckTextures() {
	if need := d.pipeline.Samplers(); d.textures.Count() < need {
		panic(fmt.Errorf("%w: %s needs %d view(s), %v bound", ErrMissingTexture, d.pipeline, need, d.textures.Views))
	}
}

// AppendVertices appends the drawable's quad at depth z to dst, encoded
// in the vertex layout of its pipeline, and returns the extended slice.
//
// Placeholders panic with ErrUnresolved; textured drawables without their
// views panic with ErrMissingTexture.
func (d Drawable) AppendVertices(dst []byte, z float32) []byte {
	switch d.kind {
	case KindRect, KindGlyphEffect:
		return appendQuad(dst, d, z, gpucore.LayoutPositionColor)
	case KindBlit, KindGlyph:
		d.CheckTextures()
		return appendQuad(dst, d, z, gpucore.LayoutPositionTexColor)
	case KindPicture, KindIcon:
		panic(fmt.Errorf("%w: %s", ErrUnresolved, d.kind))
	default:
		panic(fmt.Sprintf("draw: unknown drawable kind %d", d.kind))
	}
}

func appendQuad(dst []byte, d Drawable, z float32, layout gpucore.VertexLayout) []byte {
	if d.pipeline.Layout() != layout {
		panic(fmt.Sprintf("draw: %s drawable with %s pipeline", d.kind, d.pipeline))
	}
	corners := d.pose.Corners(d.rect)
	uvs := [4][2]float32{
		{d.uv.X0, d.uv.Y0},
		{d.uv.X1, d.uv.Y0},
		{d.uv.X1, d.uv.Y1},
		{d.uv.X0, d.uv.Y1},
	}
	for i, c := range corners {
		dst = appendFloat(dst, c[0])
		dst = appendFloat(dst, c[1])
		dst = appendFloat(dst, z)
		if layout == gpucore.LayoutPositionTexColor {
			dst = appendFloat(dst, uvs[i][0])
			dst = appendFloat(dst, uvs[i][1])
		}
		dst = appendColor(dst, d.color)
	}
	return dst
}

func appendFloat(dst []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
}

func appendColor(dst []byte, c color.NRGBA) []byte {
	return append(dst, c.R, c.G, c.B, c.A)
}
