// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geom

import (
	"math"
	"testing"
)

func TestRect_Intersects(t *testing.T) {
	a := R(0, 0, 10, 10)
	tests := []struct {
		name string
		b    Rect
		want bool
	}{
		{"overlap", R(5, 5, 15, 15), true},
		{"inside", R(2, 2, 3, 3), true},
		{"touching edge", R(10, 0, 20, 10), false},
		{"touching corner", R(10, 10, 20, 20), false},
		{"disjoint", R(20, 20, 30, 30), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects(%v) = %v, want %v", tt.b, got, tt.want)
			}
			if got := tt.b.Intersects(a); got != tt.want {
				t.Errorf("symmetric Intersects(%v) = %v, want %v", tt.b, got, tt.want)
			}
		})
	}
}

func TestRect_Contains(t *testing.T) {
	a := R(0, 0, 10, 10)
	if !a.Contains(R(0, 0, 10, 10)) {
		t.Error("rect should contain itself")
	}
	if !a.Contains(R(1, 1, 9, 9)) {
		t.Error("rect should contain inner rect")
	}
	if a.Contains(R(1, 1, 11, 9)) {
		t.Error("rect should not contain overhanging rect")
	}
	if a.Contains(Rect{}) {
		t.Error("rect should not contain empty rect")
	}
}

func TestRect_Intersect(t *testing.T) {
	got, ok := R(0, 0, 10, 10).Intersect(R(5, -5, 20, 5))
	if !ok {
		t.Fatal("Intersect() reported empty")
	}
	if want := R(5, 0, 10, 5); got != want {
		t.Errorf("Intersect() = %v, want %v", got, want)
	}
	if _, ok := R(0, 0, 10, 10).Intersect(R(10, 0, 20, 10)); ok {
		t.Error("edge-touching intersection should be empty")
	}
}

func TestRect_EmptyNaN(t *testing.T) {
	nan := float32(math.NaN())
	if !(Rect{nan, 0, 10, 10}).Empty() {
		t.Error("NaN rect should be empty")
	}
}

func TestRect_Pixels(t *testing.T) {
	x, y, w, h := R(-5, 2.5, 10.2, 300).Pixels(100, 100)
	if x != 0 || y != 2 || w != 11 || h != 98 {
		t.Errorf("Pixels() = %d,%d %dx%d, want 0,2 11x98", x, y, w, h)
	}
}

func TestRect_Union(t *testing.T) {
	got := R(0, 0, 1, 1).Union(R(5, 5, 6, 6))
	if want := R(0, 0, 6, 6); got != want {
		t.Errorf("Union() = %v, want %v", got, want)
	}
	if got := (Rect{}).Union(R(1, 1, 2, 2)); got != R(1, 1, 2, 2) {
		t.Errorf("Union(empty) = %v", got)
	}
}

func TestPose_TransformRect(t *testing.T) {
	p := Translation(10, 20).Mul(Scaling(2, 3))
	got := p.TransformRect(R(0, 0, 5, 5))
	if want := R(10, 20, 20, 35); got != want {
		t.Errorf("TransformRect() = %v, want %v", got, want)
	}
}

func TestPose_Rotation(t *testing.T) {
	got := Rotation(math.Pi / 2).TransformRect(R(0, 0, 10, 5))
	const eps = 1e-4
	want := R(-5, 0, 0, 10)
	if abs(got.X0-want.X0) > eps || abs(got.Y0-want.Y0) > eps ||
		abs(got.X1-want.X1) > eps || abs(got.Y1-want.Y1) > eps {
		t.Errorf("rotated bounds = %v, want %v", got, want)
	}
}

func TestPose_Identity(t *testing.T) {
	if !Identity().IsIdentity() {
		t.Error("Identity().IsIdentity() = false")
	}
	if Identity().Mul(Translation(1, 2)) != Translation(1, 2) {
		t.Error("identity should be neutral for Mul")
	}
	x, y := Identity().Apply(3, 4)
	if x != 3 || y != 4 {
		t.Errorf("Apply() = %g,%g", x, y)
	}
}

func TestOrtho(t *testing.T) {
	m := Ortho(200, 100)
	// top-left pixel maps to (-1, 1), bottom-right to (1, -1)
	x := m[0]*0 + m[3]
	y := m[5]*0 + m[7]
	if x != -1 || y != 1 {
		t.Errorf("origin maps to %g,%g", x, y)
	}
	x = m[0]*200 + m[3]
	y = m[5]*100 + m[7]
	if x != 1 || y != -1 {
		t.Errorf("far corner maps to %g,%g", x, y)
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
