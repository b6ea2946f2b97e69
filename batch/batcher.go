// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package batch turns a prepared render-order tree into a short list of
// indexed draws.
//
// Vertices are written into per-layout ring buffers in paint order.
// Adjacent drawables with equal batching keys share one draw; every draw
// indexes the same quad index buffer. The list is split at the blur
// boundary so the caller can blur the target between the two halves.
package batch

import (
	"fmt"
	"time"

	"github.com/gogpu/uibatch/draw"
	"github.com/gogpu/uibatch/gpucore"
	"github.com/gogpu/uibatch/internal/logging"
	"github.com/gogpu/uibatch/ordertree"
)

// Config controls buffer management.
type Config struct {
	// RingSlots is the number of vertex buffers each ring rotates through.
	RingSlots int

	// DepthStep is the depth added per drawable in paint order.
	DepthStep float32

	// InitialQuads is the smallest quad index buffer allocated.
	InitialQuads int

	// FenceTimeout bounds the wait for a ring slot the GPU still reads.
	FenceTimeout time.Duration
}

// DefaultConfig returns the default batching configuration.
func DefaultConfig() Config {
	return Config{
		RingSlots:    3,
		DepthStep:    1.0 / (1 << 20),
		InitialQuads: 1024,
		FenceTimeout: time.Second,
	}
}

// Draw is one indexed draw of consecutive quads sharing a key.
type Draw struct {
	Key    draw.Key
	Layout gpucore.VertexLayout

	// Vertices is the ring buffer region holding the draw's layout for
	// this frame.
	Vertices gpucore.BufferSlice

	// Indices is the shared quad index buffer.
	Indices gpucore.BufferID

	BaseVertex int32
	FirstIndex uint32
	IndexCount uint32
}

// Quads returns the number of quads the draw covers.
func (d Draw) Quads() int { return int(d.IndexCount) / draw.IndicesPerQuad }

// DrawList is the output of Build.
type DrawList struct {
	BeforeBlur []Draw
	AfterBlur  []Draw

	// Blur reports whether the target is blurred between the halves.
	Blur bool

	// Drawables is the number of quads written.
	Drawables int
}

// Len returns the number of draws.
func (l *DrawList) Len() int { return len(l.BeforeBlur) + len(l.AfterBlur) }

// Empty reports whether the list has no draws.
func (l *DrawList) Empty() bool { return l.Len() == 0 }

func (l *DrawList) reset() {
	clear(l.BeforeBlur)
	clear(l.AfterBlur)
	l.BeforeBlur = l.BeforeBlur[:0]
	l.AfterBlur = l.AfterBlur[:0]
	l.Blur = false
	l.Drawables = 0
}

// Batcher builds draw lists. It owns the vertex rings and the quad index
// buffer and reuses its scratch memory across frames. It is not safe for
// concurrent use.
type Batcher struct {
	dev    gpucore.Device
	cfg    Config
	retire func(gpucore.BufferID)

	rings   [gpucore.LayoutCount]*Ring
	indices *QuadIndices
	scratch [gpucore.LayoutCount][]byte

	list DrawList
}

// New creates a batcher. Buffers replaced while the GPU may still read
// them are handed to retire; a nil retire releases them at once.
func New(dev gpucore.Device, cfg Config, retire func(gpucore.BufferID)) *Batcher {
	def := DefaultConfig()
	if cfg.RingSlots <= 0 {
		cfg.RingSlots = def.RingSlots
	}
	if cfg.DepthStep <= 0 {
		cfg.DepthStep = def.DepthStep
	}
	if cfg.InitialQuads <= 0 {
		cfg.InitialQuads = def.InitialQuads
	}
	if cfg.FenceTimeout <= 0 {
		cfg.FenceTimeout = def.FenceTimeout
	}
	b := &Batcher{dev: dev, cfg: cfg, retire: retire}
	for l := range b.rings {
		layout := gpucore.VertexLayout(l)
		b.rings[l] = NewRing(dev, "vertices "+layout.String(), cfg.RingSlots, retire)
	}
	b.indices = NewQuadIndices(dev, cfg.InitialQuads, retire)
	return b
}

// Ring returns the vertex ring for a layout.
func (b *Batcher) Ring(l gpucore.VertexLayout) *Ring { return b.rings[l] }

// Indices returns the quad index buffer.
func (b *Batcher) Indices() *QuadIndices { return b.indices }

type meshBuilder struct {
	b    *Batcher
	z    float32
	open bool
	cur  Draw
	out  *[]Draw
}

func (m *meshBuilder) add(d draw.Drawable) {
	key := d.Key()
	if !m.open || key != m.cur.Key {
		m.close()
		layout := key.Pipeline.Layout()
		m.cur = Draw{
			Key:        key,
			Layout:     layout,
			BaseVertex: int32(len(m.b.scratch[layout]) / layout.Stride()),
		}
		m.open = true
	}
	l := m.cur.Layout
	m.b.scratch[l] = d.AppendVertices(m.b.scratch[l], m.z)
	m.z += m.b.cfg.DepthStep
	m.cur.IndexCount += draw.IndicesPerQuad
}

func (m *meshBuilder) close() {
	if m.open {
		*m.out = append(*m.out, m.cur)
		m.open = false
	}
}

// Build writes the vertices of every element and glyph in tree into the
// ring buffers and returns the resulting draw list. Each node contributes
// its elements before its glyphs. Placeholders must have been resolved
// into elements beforehand.
//
// Build panics if a textured drawable is missing a texture. The returned
// list is reused by the next call.
func (b *Batcher) Build(tree *ordertree.Tree, frame uint64) (*DrawList, error) {
	b.list.reset()
	for l := range b.scratch {
		b.scratch[l] = b.scratch[l][:0]
	}

	m := meshBuilder{b: b}
	for _, part := range [...]struct {
		r   ordertree.Range
		out *[]Draw
	}{
		{ordertree.BeforeBlur, &b.list.BeforeBlur},
		{ordertree.AfterBlur, &b.list.AfterBlur},
	} {
		m.out = part.out
		tree.ForEachInPaintOrder(part.r, func(_ ordertree.NodeID, n *ordertree.Node) {
			for _, d := range n.Elements() {
				m.add(d)
			}
			for _, d := range n.Glyphs() {
				m.add(d)
			}
		})
		// meshes never span the blur
		m.close()
	}
	_, b.list.Blur = tree.BlurBoundary()

	if b.list.Empty() {
		return &b.list, nil
	}
	if err := b.upload(frame); err != nil {
		b.Abandon()
		return nil, err
	}
	logging.Logger().Debug("batch: built draw list",
		"draws", b.list.Len(), "quads", b.list.Drawables, "blur", b.list.Blur)
	return &b.list, nil
}

func (b *Batcher) upload(frame uint64) error {
	var regions [gpucore.LayoutCount]gpucore.BufferSlice
	for l, data := range b.scratch {
		if len(data) == 0 {
			continue
		}
		layout := gpucore.VertexLayout(l)
		slice, err := b.rings[l].Acquire(frame, uint64(len(data)), b.cfg.FenceTimeout)
		if err != nil {
			return err
		}
		view, err := b.dev.MapBuffer(slice, gpucore.MapWrite)
		if err != nil {
			return fmt.Errorf("batch: map %s vertices: %w", layout, err)
		}
		copy(view.Bytes(), data)
		if err := view.Release(); err != nil {
			return fmt.Errorf("batch: unmap %s vertices: %w", layout, err)
		}
		regions[l] = slice
		b.list.Drawables += len(data) / (layout.Stride() * draw.VerticesPerQuad)
	}

	longest := 0
	for _, draws := range [...][]Draw{b.list.BeforeBlur, b.list.AfterBlur} {
		for _, d := range draws {
			longest = max(longest, d.Quads())
		}
	}
	ib, err := b.indices.Ensure(longest)
	if err != nil {
		return err
	}
	for _, draws := range [...][]Draw{b.list.BeforeBlur, b.list.AfterBlur} {
		for i := range draws {
			draws[i].Vertices = regions[draws[i].Layout]
			draws[i].Indices = ib
		}
	}
	return nil
}

// Submitted attaches the fence of the frame's final submission to every
// ring slot written by the last Build.
func (b *Batcher) Submitted(f gpucore.Fence) {
	for _, r := range b.rings {
		r.Submitted(f)
	}
}

// Abandon forgets ring acquisitions of a frame that was not submitted.
func (b *Batcher) Abandon() {
	for _, r := range b.rings {
		r.Abandon()
	}
}

// ReleaseIdle releases rings not used for more than idle frames. It
// returns the number of rings released.
func (b *Batcher) ReleaseIdle(frame uint64, idle uint64) int {
	n := 0
	for _, r := range b.rings {
		if r.Allocated() && frame-r.LastUsed() > idle {
			r.Release()
			n++
		}
	}
	return n
}

// Release releases every ring and the index buffer.
func (b *Batcher) Release() {
	for _, r := range b.rings {
		r.Release()
	}
	b.indices.Release()
}
