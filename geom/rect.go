// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package geom provides the float32 rectangle and affine pose types used
// for drawable geometry, bounds and scissor regions.
package geom

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Rect is an axis-aligned rectangle in screen pixels.
// X0,Y0 is the top-left corner, X1,Y1 the bottom-right corner.
type Rect struct {
	X0, Y0, X1, Y1 float32
}

// R returns the rectangle spanning the two points, normalized so that
// X0 <= X1 and Y0 <= Y1.
func R(x0, y0, x1, y1 float32) Rect {
	return Rect{
		X0: math32.Min(x0, x1),
		Y0: math32.Min(y0, y1),
		X1: math32.Max(x0, x1),
		Y1: math32.Max(y0, y1),
	}
}

// XYWH returns the rectangle at x,y with the given size.
func XYWH(x, y, w, h float32) Rect {
	return R(x, y, x+w, y+h)
}

// Width returns the rectangle width.
func (r Rect) Width() float32 { return r.X1 - r.X0 }

// Height returns the rectangle height.
func (r Rect) Height() float32 { return r.Y1 - r.Y0 }

// Empty reports whether the rectangle has no area.
// NaN coordinates produce an empty rectangle.
func (r Rect) Empty() bool {
	return !(r.X0 < r.X1 && r.Y0 < r.Y1)
}

// Intersects reports whether r and s share a region of positive area.
// Rectangles that only touch along an edge do not intersect.
func (r Rect) Intersects(s Rect) bool {
	return r.X0 < s.X1 && s.X0 < r.X1 && r.Y0 < s.Y1 && s.Y0 < r.Y1
}

// Contains reports whether s lies entirely inside r.
// An empty s is never contained.
func (r Rect) Contains(s Rect) bool {
	if s.Empty() {
		return false
	}
	return s.X0 >= r.X0 && s.Y0 >= r.Y0 && s.X1 <= r.X1 && s.Y1 <= r.Y1
}

// Intersect returns the common region of r and s.
// The boolean is false when the intersection is empty.
func (r Rect) Intersect(s Rect) (Rect, bool) {
	out := Rect{
		X0: math32.Max(r.X0, s.X0),
		Y0: math32.Max(r.Y0, s.Y0),
		X1: math32.Min(r.X1, s.X1),
		Y1: math32.Min(r.Y1, s.Y1),
	}
	if out.Empty() {
		return Rect{}, false
	}
	return out, true
}

// Union returns the smallest rectangle containing r and s.
// Empty operands are ignored.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	return Rect{
		X0: math32.Min(r.X0, s.X0),
		Y0: math32.Min(r.Y0, s.Y0),
		X1: math32.Max(r.X1, s.X1),
		Y1: math32.Max(r.Y1, s.Y1),
	}
}

// Translate returns r moved by dx, dy.
func (r Rect) Translate(dx, dy float32) Rect {
	return Rect{r.X0 + dx, r.Y0 + dy, r.X1 + dx, r.Y1 + dy}
}

// Pixels returns the integer pixel region covered by r, clamped to a
// target of the given size. Edges are rounded outward.
func (r Rect) Pixels(width, height uint32) (x, y, w, h uint32) {
	x0 := clampPixel(math32.Floor(r.X0), width)
	y0 := clampPixel(math32.Floor(r.Y0), height)
	x1 := clampPixel(math32.Ceil(r.X1), width)
	y1 := clampPixel(math32.Ceil(r.Y1), height)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return x0, y0, x1 - x0, y1 - y0
}

func clampPixel(v float32, limit uint32) uint32 {
	if !(v > 0) {
		return 0
	}
	if v >= float32(limit) {
		return limit
	}
	return uint32(v)
}

// String returns a debug representation.
func (r Rect) String() string {
	return fmt.Sprintf("[%g,%g - %g,%g]", r.X0, r.Y0, r.X1, r.Y1)
}
