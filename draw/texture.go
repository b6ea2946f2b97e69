// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package draw defines the drawables submitted to the engine: solid
// rectangles, textured blits, glyphs, glyph effects, embedded content and
// icon placeholders. Drawables are immutable values with precomputed
// screen-space bounds.
package draw

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/gogpu/uibatch/gpucore"
)

// TextureSetup is the set of texture views bound for a draw.
// Views fill from index 0; unused entries are gpucore.InvalidID.
type TextureSetup struct {
	Views [gpucore.MaxSamplers]gpucore.ViewID
}

// Textures returns a setup binding the given views in order.
// It panics if more than gpucore.MaxSamplers views are passed.
func Textures(views ...gpucore.ViewID) TextureSetup {
	if len(views) > gpucore.MaxSamplers {
		panic("draw: too many texture views")
	}
	var ts TextureSetup
	copy(ts.Views[:], views)
	return ts
}

// Count returns the number of leading valid views.
func (ts TextureSetup) Count() int {
	for i, v := range ts.Views {
		if v == gpucore.InvalidID {
			return i
		}
	}
	return len(ts.Views)
}

// IsZero reports whether no view is bound.
func (ts TextureSetup) IsZero() bool {
	return ts == TextureSetup{}
}

// Hash returns a deterministic 64-bit hash of the setup, used to order
// draws with equal pipelines so equal setups end up adjacent.
func (ts TextureSetup) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range ts.Views {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
