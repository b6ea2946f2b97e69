// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geom

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// Pose is a 2D affine transform stored as a row-major 2x3 matrix:
//
//	x' = m[0]*x + m[1]*y + m[2]
//	y' = m[3]*x + m[4]*y + m[5]
type Pose f32.Aff3

// Identity returns the identity pose.
func Identity() Pose {
	return Pose{1, 0, 0, 0, 1, 0}
}

// Translation returns a pose translating by dx, dy.
func Translation(dx, dy float32) Pose {
	return Pose{1, 0, dx, 0, 1, dy}
}

// Scaling returns a pose scaling by sx, sy around the origin.
func Scaling(sx, sy float32) Pose {
	return Pose{sx, 0, 0, 0, sy, 0}
}

// Rotation returns a pose rotating by angle radians around the origin.
func Rotation(angle float32) Pose {
	s, c := math32.Sin(angle), math32.Cos(angle)
	return Pose{c, -s, 0, s, c, 0}
}

// IsIdentity reports whether p is the identity.
func (p Pose) IsIdentity() bool {
	return p == Identity()
}

// Mul returns the pose that applies q first and then p.
func (p Pose) Mul(q Pose) Pose {
	return Pose{
		p[0]*q[0] + p[1]*q[3],
		p[0]*q[1] + p[1]*q[4],
		p[0]*q[2] + p[1]*q[5] + p[2],
		p[3]*q[0] + p[4]*q[3],
		p[3]*q[1] + p[4]*q[4],
		p[3]*q[2] + p[4]*q[5] + p[5],
	}
}

// Apply transforms the point x, y.
func (p Pose) Apply(x, y float32) (float32, float32) {
	return p[0]*x + p[1]*y + p[2], p[3]*x + p[4]*y + p[5]
}

// Corners returns the four transformed corners of r in the order
// top-left, top-right, bottom-right, bottom-left.
func (p Pose) Corners(r Rect) [4][2]float32 {
	var c [4][2]float32
	c[0][0], c[0][1] = p.Apply(r.X0, r.Y0)
	c[1][0], c[1][1] = p.Apply(r.X1, r.Y0)
	c[2][0], c[2][1] = p.Apply(r.X1, r.Y1)
	c[3][0], c[3][1] = p.Apply(r.X0, r.Y1)
	return c
}

// TransformRect returns the axis-aligned bounds of r after p.
func (p Pose) TransformRect(r Rect) Rect {
	c := p.Corners(r)
	out := Rect{X0: c[0][0], Y0: c[0][1], X1: c[0][0], Y1: c[0][1]}
	for _, pt := range c[1:] {
		out.X0 = math32.Min(out.X0, pt[0])
		out.Y0 = math32.Min(out.Y0, pt[1])
		out.X1 = math32.Max(out.X1, pt[0])
		out.Y1 = math32.Max(out.Y1, pt[1])
	}
	return out
}

// Ortho returns the row-major projection mapping a width x height pixel
// space with the origin at the top-left corner to clip space. Depth
// passes through unchanged.
func Ortho(width, height float32) f32.Mat4 {
	return f32.Mat4{
		2 / width, 0, 0, -1,
		0, -2 / height, 0, 1,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}
