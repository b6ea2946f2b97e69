// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package uibatch

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/uibatch/atlas"
	"github.com/gogpu/uibatch/batch"
	"github.com/gogpu/uibatch/draw"
	"github.com/gogpu/uibatch/geom"
	"github.com/gogpu/uibatch/gpucore"
	"github.com/gogpu/uibatch/ordertree"
)

// State is the position of an Engine in its frame cycle.
type State uint8

// Frame states.
const (
	// StateIdle accepts drawables.
	StateIdle State = iota
	// StatePreparing materializes placeholders and packs the icon atlas.
	StatePreparing
	// StateBatching builds the draw list.
	StateBatching
	// StateSubmitted issues draws to the device.
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePreparing:
		return "Preparing"
	case StateBatching:
		return "Batching"
	case StateSubmitted:
		return "Submitted"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Stats describes the last frame.
type Stats struct {
	Frame uint64

	// Submitted counts visible drawables and text runs submitted.
	Submitted int
	// Drawables counts quads written to vertex buffers.
	Drawables int
	// Draws counts indexed draws.
	Draws int
	Nodes int
	Strata int
	Blur  bool
	// Skipped is set when the frame had nothing to draw and the device
	// was not used.
	Skipped bool

	IconsRendered int
	IconsReused   int
	// IconsDropped counts icon placeholders left out of the frame.
	IconsDropped int
	AtlasSize    int

	// PendingReleases counts resources waiting for the GPU to finish.
	PendingReleases int
}

type retired struct {
	buf   gpucore.BufferID
	tex   gpucore.TextureID
	fence gpucore.Fence
}

// Engine collects the drawables of a frame, orders and batches them, and
// issues the resulting draws. All per-frame state lives on the Engine.
//
// A frame submits drawables, then runs Prepare, Build and Execute, or
// RenderFrame for the last three. Every path back to Idle resets the
// frame, including failed ones.
//
// Engine is not safe for concurrent use; it belongs to the render thread.
type Engine struct {
	dev gpucore.Device
	cfg Config
	log *slog.Logger

	tree    *ordertree.Tree
	atlas   *atlas.Atlas
	batcher *batch.Batcher
	glyphs  draw.GlyphSource
	icons   atlas.IconRenderer
	clear   *gputypes.Color

	scale float32
	// rescaled defers atlas invalidation to the next Prepare
	rescaled bool
	state    State
	frame    uint64
	list     *batch.DrawList
	closed   bool

	globals     gpucore.BufferID
	globalsSize [2]uint32

	// pending are retired during the current frame and not yet fenced
	pending []retired
	retired []retired

	requests []atlas.IconRequest
	stats    Stats
}

// New creates an engine drawing with dev.
func New(dev gpucore.Device, opts ...Option) (*Engine, error) {
	if dev == nil {
		return nil, errors.New("uibatch: nil device")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}
	a, err := atlas.New(dev, o.config.atlasConfig())
	if err != nil {
		return nil, err
	}
	e := &Engine{
		dev:    dev,
		cfg:    o.config,
		log:    o.logger,
		tree:   ordertree.New(),
		atlas:  a,
		glyphs: o.glyphs,
		icons:  o.icons,
		clear:  o.clear,
		scale:  o.scale,
	}
	a.SetRetire(e.retireTexture)
	e.batcher = batch.New(dev, o.config.batchConfig(), e.retireBuffer)
	return e, nil
}

func (e *Engine) logger() *slog.Logger {
	if e.log != nil {
		return e.log
	}
	return Logger()
}

// Device returns the engine's device.
func (e *Engine) Device() gpucore.Device { return e.dev }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// State returns the frame state.
func (e *Engine) State() State { return e.state }

// Frame returns the number of the current or last prepared frame.
func (e *Engine) Frame() uint64 { return e.frame }

// Stats returns statistics of the last frame.
func (e *Engine) Stats() Stats { return e.stats }

// Atlas returns the icon atlas.
func (e *Engine) Atlas() *atlas.Atlas { return e.atlas }

// UIScale returns the UI scale.
func (e *Engine) UIScale() float32 { return e.scale }

// SetUIScale changes the UI scale. A change invalidates the icon atlas
// when the next frame is prepared; icons are rendered again at the new
// size.
func (e *Engine) SetUIScale(s float32) {
	if s <= 0 || s == e.scale {
		return
	}
	e.logger().Debug("uibatch: ui scale changed", "old", e.scale, "new", s)
	e.scale = s
	e.rescaled = true
}

func (e *Engine) iconPixels() int {
	return int(math32.Ceil(float32(e.cfg.IconSize) * e.scale))
}

func (e *Engine) mustAccept() {
	if e.closed {
		panic(ErrClosed)
	}
	if e.state != StateIdle {
		panic(fmt.Errorf("%w: state %s", ErrFrameClosed, e.state))
	}
}

// Submit adds a drawable to the frame. Drawables may arrive in any order
// and overlap freely; later drawables paint over earlier ones they
// intersect.
func (e *Engine) Submit(d draw.Drawable) {
	e.mustAccept()
	e.tree.Submit(d)
}

// SubmitText adds a positioned glyph run to the frame. It is expanded into
// glyphs by the glyph source during Prepare.
func (e *Engine) SubmitText(run draw.TextRun) {
	e.mustAccept()
	e.tree.SubmitText(run)
}

// NextStratum starts an independent paint layer above everything
// submitted so far.
func (e *Engine) NextStratum() {
	e.mustAccept()
	e.tree.NextStratum()
}

// MarkBlurBoundary blurs everything painted before the current stratum.
// It panics if called twice in one frame.
func (e *Engine) MarkBlurBoundary() {
	e.mustAccept()
	if err := e.tree.MarkBlurBoundary(); err != nil {
		panic(fmt.Errorf("uibatch: mark blur boundary: %w", err))
	}
}

// Prepare materializes text, embedded content and icons and sorts each
// node for batching. On error the frame is discarded.
func (e *Engine) Prepare() error {
	if e.closed {
		return ErrClosed
	}
	if e.state != StateIdle {
		panic(fmt.Errorf("%w: state %s", ErrFrameClosed, e.state))
	}
	e.frame++
	e.state = StatePreparing
	e.stats = Stats{Frame: e.frame, Submitted: e.tree.Submitted()}
	if err := e.prepare(); err != nil {
		e.finish()
		return err
	}
	e.state = StateBatching
	return nil
}

func (e *Engine) prepare() error {
	if e.rescaled {
		e.atlas.Invalidate()
		e.rescaled = false
	}
	e.requests = e.requests[:0]
	nodes := e.tree.NodeCount()
	for i := 0; i < nodes; i++ {
		id := ordertree.NodeID(i)
		n := e.tree.Node(id)
		if texts := n.Texts(); len(texts) > 0 {
			if e.glyphs == nil {
				e.logger().Warn("uibatch: text submitted without a glyph source", "runs", len(texts))
			} else {
				for _, run := range texts {
					run.Materialize(e.glyphs, func(d draw.Drawable) { e.tree.AppendGlyph(id, d) })
				}
			}
		}
		for _, p := range n.Pictures() {
			g := p.Geometry()
			w, h := uint32(math32.Ceil(g.Width())), uint32(math32.Ceil(g.Height()))
			if w == 0 || h == 0 {
				continue
			}
			view, err := p.Content().RenderContent(e.dev, w, h)
			if err != nil {
				return fmt.Errorf("uibatch: render embedded content: %w", err)
			}
			e.tree.AppendElement(id, p.ResolvePicture(view))
		}
		for _, ic := range n.Icons() {
			e.requests = append(e.requests, atlas.IconRequest{ID: ic.IconID(), Animated: ic.Animated()})
		}
	}

	if len(e.requests) > 0 {
		if err := e.prepareIcons(nodes); err != nil {
			return err
		}
	}
	e.tree.SortElements()
	return nil
}

func (e *Engine) prepareIcons(nodes int) error {
	if e.icons == nil {
		e.logger().Warn("uibatch: icons submitted without an icon renderer", "icons", len(e.requests))
		e.stats.IconsDropped = len(e.requests)
		return nil
	}
	size, err := e.atlas.Ensure(e.frame, e.requests, e.iconPixels(), e.icons)
	if err != nil {
		return fmt.Errorf("uibatch: icon atlas: %w", err)
	}
	as := e.atlas.Stats()
	e.stats.IconsRendered, e.stats.IconsReused, e.stats.AtlasSize = as.Rendered, as.Reused, size

	view := e.atlas.View()
	for i := 0; i < nodes; i++ {
		id := ordertree.NodeID(i)
		for _, ic := range e.tree.Node(id).Icons() {
			s, ok := e.atlas.Lookup(ic.IconID())
			if !ok || !s.Ready() {
				e.stats.IconsDropped++
				continue
			}
			e.tree.AppendElement(id, ic.ResolveIcon(view, s.UV))
		}
	}
	return nil
}

// Build batches the prepared frame into a draw list. It panics if the
// frame was not prepared, or if a textured drawable lacks its texture.
// On error the frame is discarded.
func (e *Engine) Build() (*batch.DrawList, error) {
	if e.state != StateBatching {
		panic(fmt.Errorf("%w: state %s", ErrNotPrepared, e.state))
	}
	if e.list != nil {
		return e.list, nil
	}
	list, err := e.batcher.Build(e.tree, e.frame)
	if err != nil {
		e.finish()
		return nil, fmt.Errorf("uibatch: build draw list: %w", err)
	}
	e.list = list
	e.stats.Drawables = list.Drawables
	e.stats.Draws = list.Len()
	e.stats.Nodes = e.tree.NodeCount()
	e.stats.Strata = e.tree.StratumCount()
	e.stats.Blur = list.Blur
	return list, nil
}

// Execute issues the draw list to target, blurring between the two halves
// when a blur boundary was marked, and resets the frame. A frame without
// draws does not touch the device.
func (e *Engine) Execute(target gpucore.ViewID, width, height uint32) error {
	if e.state != StateBatching || e.list == nil {
		panic(fmt.Errorf("%w: state %s", ErrNotBuilt, e.state))
	}
	defer e.finish()
	e.state = StateSubmitted

	list := e.list
	if list.Empty() {
		e.stats.Skipped = true
		return nil
	}
	submitted, err := e.submit(target, width, height, list)
	if err != nil {
		e.fenceRings(submitted)
		return err
	}
	fence, err := e.dev.CreateFence()
	if err != nil {
		e.batcher.Abandon()
		return fmt.Errorf("uibatch: create fence: %w", err)
	}
	e.batcher.Submitted(fence)
	e.logger().Debug("uibatch: frame submitted",
		"frame", e.frame, "drawables", e.stats.Drawables, "draws", e.stats.Draws, "blur", list.Blur)
	return nil
}

// fenceRings hands the ring slots of a failed frame back to the batcher.
// Slots read by an already submitted pass wait for a fence.
func (e *Engine) fenceRings(submitted bool) {
	if submitted {
		if f, err := e.dev.CreateFence(); err == nil {
			e.batcher.Submitted(f)
			return
		}
	}
	e.batcher.Abandon()
}

func (e *Engine) submit(target gpucore.ViewID, width, height uint32, list *batch.DrawList) (submitted bool, err error) {
	if err := e.ensureGlobals(width, height); err != nil {
		return false, err
	}
	if len(list.BeforeBlur) > 0 || e.clear != nil {
		if err := e.encode("ui", target, width, height, list.BeforeBlur, e.clear); err != nil {
			return false, err
		}
		submitted = true
	}
	if !list.Blur {
		return submitted, nil
	}
	if err := e.dev.Blur(target); err != nil {
		return submitted, fmt.Errorf("uibatch: blur: %w", err)
	}
	if len(list.AfterBlur) > 0 {
		if err := e.encode("ui after blur", target, width, height, list.AfterBlur, nil); err != nil {
			return submitted, err
		}
		submitted = true
	}
	return submitted, nil
}

func (e *Engine) encode(label string, target gpucore.ViewID, width, height uint32, draws []batch.Draw, clear *gputypes.Color) (err error) {
	pass, err := e.dev.CreateRenderPass(gpucore.RenderPassDesc{
		Label:      label,
		Color:      target,
		ClearColor: clear,
	})
	if err != nil {
		return fmt.Errorf("uibatch: begin %s pass: %w", label, err)
	}
	defer func() {
		if endErr := pass.End(); endErr != nil && err == nil {
			err = fmt.Errorf("uibatch: end %s pass: %w", label, endErr)
		}
	}()
	if len(draws) == 0 {
		return nil
	}

	uniform := gpucore.BufferSlice{Buffer: e.globals, Size: gpucore.GlobalsSize}
	pass.SetIndexBuffer(draws[0].Indices, batch.IndexFormat)

	var (
		pipeline gpucore.Pipeline
		views    draw.TextureSetup
		vertices gpucore.BufferSlice
		scissor  [4]uint32
		bound    bool
		clipped  bool
	)
	for _, d := range draws {
		key := d.Key
		rebind := !bound || key.Pipeline != pipeline
		if rebind {
			pass.SetPipeline(key.Pipeline)
			pass.SetUniform(gpucore.UniformGlobals, uniform)
			pipeline, bound = key.Pipeline, true
		}
		if rebind || key.Textures != views {
			for i, slot := range pipeline.SamplerSlots() {
				pass.BindSampler(slot, key.Textures.Views[i])
			}
			views = key.Textures
		}
		if d.Vertices != vertices {
			pass.SetVertexBuffer(0, d.Vertices)
			vertices = d.Vertices
		}
		if key.Clipped {
			x, y, w, h := key.Scissor.Pixels(width, height)
			if w == 0 || h == 0 {
				continue
			}
			if r := [4]uint32{x, y, w, h}; !clipped || r != scissor {
				pass.EnableScissor(x, y, w, h)
				scissor, clipped = r, true
			}
		} else if clipped {
			pass.DisableScissor()
			clipped = false
		}
		pass.DrawIndexed(d.FirstIndex, d.BaseVertex, d.IndexCount, 1)
	}
	return nil
}

// ensureGlobals keeps the projection uniform matching the target size.
func (e *Engine) ensureGlobals(width, height uint32) error {
	size := [2]uint32{width, height}
	if e.globals != gpucore.InvalidID && e.globalsSize == size {
		return nil
	}
	m := geom.Ortho(float32(width), float32(height))
	data := make([]byte, 0, gpucore.GlobalsSize)
	// column-major
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(m[row*4+col]))
		}
	}
	buf, err := e.dev.CreateBuffer(gpucore.BufferDesc{
		Label: "ui globals",
		Usage: gputypes.BufferUsageUniform,
		Data:  data,
	})
	if err != nil {
		return fmt.Errorf("uibatch: create globals: %w", err)
	}
	if e.globals != gpucore.InvalidID {
		e.retireBuffer(e.globals)
	}
	e.globals, e.globalsSize = buf, size
	return nil
}

// RenderFrame runs Prepare, Build and Execute. The frame is reset even if
// a step fails or panics.
func (e *Engine) RenderFrame(target gpucore.ViewID, width, height uint32) error {
	defer func() {
		if e.state != StateIdle {
			e.batcher.Abandon()
			e.finish()
		}
	}()
	if err := e.Prepare(); err != nil {
		return err
	}
	if _, err := e.Build(); err != nil {
		return err
	}
	return e.Execute(target, width, height)
}

// Reset discards the current frame without drawing it.
func (e *Engine) Reset() {
	if e.state == StateIdle {
		e.tree.Reset()
		return
	}
	e.batcher.Abandon()
	e.finish()
}

func (e *Engine) finish() {
	e.tree.Reset()
	e.list = nil
	e.state = StateIdle
	e.reclaim()
}

func (e *Engine) retireBuffer(id gpucore.BufferID) {
	e.pending = append(e.pending, retired{buf: id})
}

func (e *Engine) retireTexture(id gpucore.TextureID) {
	e.pending = append(e.pending, retired{tex: id})
}

func (e *Engine) release(r retired) {
	if r.buf != gpucore.InvalidID {
		e.dev.ReleaseBuffer(r.buf)
	}
	if r.tex != gpucore.InvalidID {
		e.dev.ReleaseTexture(r.tex)
	}
}

// reclaim releases idle resources and everything the GPU finished with.
// It never blocks.
func (e *Engine) reclaim() {
	if idle := e.cfg.AtlasIdleFrames; idle > 0 && e.atlas.View() != gpucore.InvalidID &&
		e.frame-e.atlas.LastUsed() > idle {
		e.logger().Debug("uibatch: releasing idle icon atlas", "size", e.atlas.Size())
		e.atlas.Invalidate()
	}
	if idle := e.cfg.RingIdleFrames; idle > 0 {
		if n := e.batcher.ReleaseIdle(e.frame, idle); n > 0 {
			e.logger().Debug("uibatch: released idle vertex rings", "rings", n)
		}
	}

	if len(e.pending) > 0 {
		f, err := e.dev.CreateFence()
		if err != nil {
			e.logger().Warn("uibatch: cannot fence retired resources", "err", err)
		} else {
			for i := range e.pending {
				e.pending[i].fence = f
			}
			e.retired = append(e.retired, e.pending...)
			clear(e.pending)
			e.pending = e.pending[:0]
		}
	}

	kept := e.retired[:0]
	for _, r := range e.retired {
		done, err := r.fence.AwaitCompletion(0)
		if err != nil {
			e.logger().Warn("uibatch: fence failed, releasing resource", "err", err)
		}
		if done || err != nil {
			e.release(r)
			continue
		}
		kept = append(kept, r)
	}
	clear(e.retired[len(kept):])
	e.retired = kept
	e.stats.PendingReleases = len(e.retired) + len(e.pending)
}

// Close waits for submitted frames and releases every resource owned by
// the engine.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	if e.state != StateIdle {
		e.batcher.Abandon()
		e.tree.Reset()
		e.list = nil
		e.state = StateIdle
	}
	e.closed = true
	e.batcher.Release()
	e.atlas.Release()
	if e.globals != gpucore.InvalidID {
		e.retireBuffer(e.globals)
		e.globals = gpucore.InvalidID
	}

	f, err := e.dev.CreateFence()
	if err == nil {
		var done bool
		done, err = f.AwaitCompletion(time.Duration(e.cfg.FenceTimeoutMS) * time.Millisecond)
		if err == nil && !done {
			err = ErrFenceTimeout
		}
	}
	for _, r := range e.retired {
		e.release(r)
	}
	for _, r := range e.pending {
		e.release(r)
	}
	e.retired, e.pending = nil, nil
	if err != nil {
		return fmt.Errorf("uibatch: close: %w", err)
	}
	e.logger().Info("uibatch: engine closed", "frames", e.frame)
	return nil
}
