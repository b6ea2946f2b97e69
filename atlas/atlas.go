// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package atlas packs per-frame icon renders into one square texture.
//
// Icons occupy uniform cells of the current icon pixel size. A slot keeps
// its cell across frames, so a stable icon is rendered once per UI scale;
// animated icons are rendered again every frame they are used. The atlas
// grows to the smallest power-of-two side that holds
// ceil(sqrt(slack*n))^2 cells for n distinct icons, and starts over when
// the icon pixel size changes.
package atlas

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/uibatch/draw"
	"github.com/gogpu/uibatch/geom"
	"github.com/gogpu/uibatch/gpucore"
	"github.com/gogpu/uibatch/internal/logging"
)

// ErrInvalidIconSize is returned for a non-positive icon pixel size.
var ErrInvalidIconSize = errors.New("atlas: icon pixel size must be positive")

// IconRequest is one icon needed by the current frame.
type IconRequest struct {
	ID       draw.IconID
	Animated bool
}

// IconRenderer draws icons into atlas cells.
type IconRenderer interface {
	// RenderIcon draws icon id covering cell inside the atlas pass. The
	// pass is scissored to the cell. The renderer must write every pixel
	// of the cell with premultiplied color.
	RenderIcon(pass gpucore.RenderPass, id draw.IconID, cell geom.Rect) error
}

// Slot is the atlas region assigned to one icon.
type Slot struct {
	// X, Y, Size locate the cell in atlas pixels.
	X, Y, Size int
	// UV is the cell in normalized texture coordinates.
	UV geom.Rect
	// Rendered is the frame the icon was last rendered into the cell.
	Rendered uint64

	used  uint64
	cell  int
	ready bool
}

// Ready reports whether the cell holds a successfully rendered icon.
func (s Slot) Ready() bool { return s.ready }

// Stats counts what the last Ensure call did.
type Stats struct {
	Icons    int
	Rendered int
	Reused   int
	Dropped  int
	Expired  int
	Repacked bool
}

// Atlas is the icon atlas. It is not safe for concurrent use.
type Atlas struct {
	dev gpucore.Device
	cfg Config

	tex  gpucore.TextureID
	view gpucore.ViewID
	size int
	grid grid

	slots map[draw.IconID]*Slot

	retire   func(gpucore.TextureID)
	lastUsed uint64
	stats    Stats

	// scratch
	pending []draw.IconID
	seen    map[draw.IconID]bool
}

// New creates an empty atlas. No texture is allocated until icons are
// requested.
func New(dev gpucore.Device, cfg Config) (*Atlas, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Atlas{
		dev:   dev,
		cfg:   cfg,
		slots: make(map[draw.IconID]*Slot),
		seen:  make(map[draw.IconID]bool),
	}, nil
}

// SetRetire sets the function receiving textures the atlas no longer
// uses. The default releases them immediately.
func (a *Atlas) SetRetire(fn func(gpucore.TextureID)) {
	a.retire = fn
}

// View returns the atlas texture view, or gpucore.InvalidID.
func (a *Atlas) View() gpucore.ViewID { return a.view }

// Size returns the atlas side in pixels, or 0 when no texture exists.
func (a *Atlas) Size() int { return a.size }

// CellSize returns the icon cell side in pixels.
func (a *Atlas) CellSize() int { return a.grid.cell }

// LastUsed returns the last frame icons were requested.
func (a *Atlas) LastUsed() uint64 { return a.lastUsed }

// Stats returns counters for the last Ensure call.
func (a *Atlas) Stats() Stats { return a.stats }

// Lookup returns the slot of an icon.
func (a *Atlas) Lookup(id draw.IconID) (Slot, bool) {
	s, ok := a.slots[id]
	if !ok {
		return Slot{}, false
	}
	return *s, true
}

// Invalidate discards the texture and every slot. The next Ensure
// repacks from scratch.
func (a *Atlas) Invalidate() {
	if a.tex != gpucore.InvalidID {
		if a.retire != nil {
			a.retire(a.tex)
		} else {
			a.dev.ReleaseTexture(a.tex)
		}
	}
	a.tex, a.view, a.size = gpucore.InvalidID, gpucore.InvalidID, 0
	a.grid = grid{}
	clear(a.slots)
}

// Release frees the atlas texture. It is equivalent to Invalidate.
func (a *Atlas) Release() { a.Invalidate() }

// RequiredCells returns the cell count reserved for n distinct icons.
func RequiredCells(n int, slack float32) int {
	k := cellsPerSide(n, slack)
	return k * k
}

func cellsPerSide(n int, slack float32) int {
	if n <= 0 {
		return 0
	}
	return int(math32.Ceil(math32.Sqrt(slack * float32(n))))
}

// SideFor returns the atlas side for n distinct icons of iconPx pixels:
// the smallest power of two holding RequiredCells cells, clamped to
// [minSize, maxSize].
func SideFor(n, iconPx int, slack float32, minSize, maxSize int) int {
	side := nextPow2(cellsPerSide(n, slack) * iconPx)
	if side < minSize {
		side = minSize
	}
	if side > maxSize {
		side = maxSize
	}
	return side
}

func nextPow2(v int) int {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(v-1))
}

// Ensure makes every requested icon available in the atlas for frame and
// returns the atlas side in pixels. Icons that do not fit are logged and
// left without a slot for this frame.
func (a *Atlas) Ensure(frame uint64, icons []IconRequest, iconPx int, r IconRenderer) (int, error) {
	a.stats = Stats{}
	if len(icons) == 0 {
		return a.size, nil
	}
	if iconPx <= 0 {
		return a.size, ErrInvalidIconSize
	}
	a.lastUsed = frame

	clear(a.seen)
	animated := make(map[draw.IconID]bool, len(icons))
	distinct := 0
	for _, ic := range icons {
		if !a.seen[ic.ID] {
			a.seen[ic.ID] = true
			distinct++
		}
		if ic.Animated {
			animated[ic.ID] = true
		}
	}
	a.stats.Icons = distinct

	fresh := false
	grow := a.grid.capacity() < RequiredCells(distinct, a.cfg.Slack) &&
		SideFor(distinct, iconPx, a.cfg.Slack, a.cfg.MinSize, a.dev.MaxTextureDimension()) > a.size
	if a.tex == gpucore.InvalidID || a.grid.cell != iconPx || grow {
		if err := a.repack(distinct, iconPx); err != nil {
			return 0, err
		}
		fresh = true
	}

	a.expire(frame)

	// Mark every slot this frame needs before any allocation can evict.
	for id := range a.seen {
		if s, ok := a.slots[id]; ok {
			s.used = frame
		}
	}

	a.pending = a.pending[:0]
	clear(a.seen)
	for _, ic := range icons {
		if a.seen[ic.ID] {
			continue
		}
		a.seen[ic.ID] = true

		if s, ok := a.slots[ic.ID]; ok {
			if s.ready && (!animated[ic.ID] || s.Rendered == frame) {
				a.stats.Reused++
				continue
			}
			a.pending = append(a.pending, ic.ID)
			continue
		}
		s, ok := a.allocate(ic.ID, frame)
		if !ok {
			a.stats.Dropped++
			logging.Logger().Warn("atlas: full, icon dropped for this frame",
				"icon", uint64(ic.ID), "size", a.size, "cells", a.grid.capacity())
			continue
		}
		s.used = frame
		a.pending = append(a.pending, ic.ID)
	}

	if len(a.pending) > 0 {
		if err := a.render(frame, fresh, r); err != nil {
			return a.size, err
		}
	}
	return a.size, nil
}

func (a *Atlas) repack(distinct, iconPx int) error {
	maxSize := a.dev.MaxTextureDimension()
	side := SideFor(distinct, iconPx, a.cfg.Slack, a.cfg.MinSize, maxSize)
	if iconPx > side {
		return fmt.Errorf("atlas: icon size %d exceeds max texture dimension %d", iconPx, maxSize)
	}
	old := a.size
	a.Invalidate()

	tex, err := a.dev.CreateTexture(gpucore.TextureDesc{
		Label:     "icon atlas",
		Usage:     gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment,
		Format:    gputypes.TextureFormatRGBA8Unorm,
		Width:     uint32(side),
		Height:    uint32(side),
		Layers:    1,
		MipLevels: 1,
	})
	if err != nil {
		return fmt.Errorf("atlas: create texture: %w", err)
	}
	view, err := a.dev.CreateTextureView(tex)
	if err != nil {
		a.dev.ReleaseTexture(tex)
		return fmt.Errorf("atlas: create view: %w", err)
	}
	a.tex, a.view, a.size = tex, view, side
	a.grid = newGrid(side, iconPx)
	a.stats.Repacked = true

	logging.Logger().Debug("atlas: repacked",
		"old_size", old, "size", side, "icon_px", iconPx, "icons", distinct)
	return nil
}

// expire frees cells of slots unused for longer than the TTL.
func (a *Atlas) expire(frame uint64) {
	if a.cfg.SlotTTL == 0 {
		return
	}
	for id, s := range a.slots {
		if frame-s.used > a.cfg.SlotTTL {
			a.grid.free(s.cell)
			delete(a.slots, id)
			a.stats.Expired++
		}
	}
}

// allocate assigns a cell to id. When no cell is free, the least recently
// used slot not needed this frame gives up its cell.
func (a *Atlas) allocate(id draw.IconID, frame uint64) (*Slot, bool) {
	cell, ok := a.grid.alloc()
	if !ok {
		var victim draw.IconID
		var oldest *Slot
		for vid, s := range a.slots {
			if s.used == frame {
				continue
			}
			if oldest == nil || s.used < oldest.used || (s.used == oldest.used && s.cell < oldest.cell) {
				victim, oldest = vid, s
			}
		}
		if oldest == nil {
			return nil, false
		}
		delete(a.slots, victim)
		cell = oldest.cell
	}
	x, y := a.grid.origin(cell)
	px := a.grid.cell
	inv := 1 / float32(a.size)
	s := &Slot{
		X:    x,
		Y:    y,
		Size: px,
		UV: geom.Rect{
			X0: float32(x) * inv,
			Y0: float32(y) * inv,
			X1: float32(x+px) * inv,
			Y1: float32(y+px) * inv,
		},
		cell: cell,
	}
	a.slots[id] = s
	return s, true
}

func (a *Atlas) render(frame uint64, fresh bool, r IconRenderer) (err error) {
	if r == nil {
		return errors.New("atlas: no icon renderer")
	}
	desc := gpucore.RenderPassDesc{Label: "icon atlas", Color: a.view}
	if fresh {
		desc.ClearColor = &gputypes.Color{}
	}
	pass, err := a.dev.CreateRenderPass(desc)
	if err != nil {
		return fmt.Errorf("atlas: begin pass: %w", err)
	}
	defer func() {
		if endErr := pass.End(); endErr != nil && err == nil {
			err = fmt.Errorf("atlas: end pass: %w", endErr)
		}
	}()

	for _, id := range a.pending {
		s := a.slots[id]
		pass.EnableScissor(uint32(s.X), uint32(s.Y), uint32(s.Size), uint32(s.Size))
		cell := geom.XYWH(float32(s.X), float32(s.Y), float32(s.Size), float32(s.Size))
		if err := r.RenderIcon(pass, id, cell); err != nil {
			return fmt.Errorf("atlas: render icon %d: %w", uint64(id), err)
		}
		s.Rendered, s.ready = frame, true
		a.stats.Rendered++
	}
	pass.DisableScissor()
	return nil
}
