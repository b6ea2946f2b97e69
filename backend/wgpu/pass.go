// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/uibatch/gpucore"
)

// CreateRenderPass begins encoding a render pass against desc.Color.
// Commands are submitted to the queue by End.
func (d *Device) CreateRenderPass(desc gpucore.RenderPassDesc) (gpucore.RenderPass, error) {
	if d.destroyed {
		return nil, ErrDestroyed
	}
	target, ok := d.views[desc.Color]
	if !ok {
		return nil, fmt.Errorf("wgpu: pass target %d: %w", desc.Color, gpucore.ErrUnknownResource)
	}
	var depth *view
	if desc.Depth != gpucore.InvalidID {
		if depth, ok = d.views[desc.Depth]; !ok {
			return nil, fmt.Errorf("wgpu: pass depth %d: %w", desc.Depth, gpucore.ErrUnknownResource)
		}
	}
	d.freeCompleted(d.queue.PollCompleted())

	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: desc.Label})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create encoder: %w", err)
	}
	if err := enc.BeginEncoding(desc.Label); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	color := hal.RenderPassColorAttachment{
		View:    target.raw,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if desc.ClearColor != nil {
		color.LoadOp = gputypes.LoadOpClear
		color.ClearValue = *desc.ClearColor
	}
	rpd := &hal.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{color},
	}
	if depth != nil {
		ds := &hal.RenderPassDepthStencilAttachment{
			View:         depth.raw,
			DepthLoadOp:  gputypes.LoadOpLoad,
			DepthStoreOp: gputypes.StoreOpStore,
		}
		if desc.ClearDepth != nil {
			ds.DepthLoadOp = gputypes.LoadOpClear
			ds.DepthClearValue = *desc.ClearDepth
		}
		rpd.DepthStencilAttachment = ds
	}

	return &renderPass{
		dev:    d,
		enc:    enc,
		rp:     enc.BeginRenderPass(rpd),
		format: target.format,
		width:  target.width,
		height: target.height,
		depth:  depth != nil,
	}, nil
}

// renderPass records into a HAL render pass. The first recording error is
// kept and returned by End, which then discards the encoding.
type renderPass struct {
	dev    *Device
	enc    hal.CommandEncoder
	rp     hal.RenderPassEncoder
	format gputypes.TextureFormat
	width  uint32
	height uint32
	depth  bool

	pipeline gpucore.Pipeline
	hasPipe  bool
	ended    bool
	err      error
}

func (p *renderPass) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *renderPass) usable() bool {
	if p.ended {
		p.fail(gpucore.ErrPassEnded)
		return false
	}
	return p.err == nil
}

func (p *renderPass) SetPipeline(pl gpucore.Pipeline) {
	if !p.usable() {
		return
	}
	raw, err := p.dev.pipes.get(pipeKey{pipeline: pl, format: p.format, depth: p.depth})
	if err != nil {
		p.fail(err)
		return
	}
	p.rp.SetPipeline(raw)
	p.pipeline, p.hasPipe = pl, true
}

func (p *renderPass) BindSampler(slot string, v gpucore.ViewID) {
	if !p.usable() {
		return
	}
	if !p.hasPipe {
		p.fail(fmt.Errorf("wgpu: bind %s before pipeline", slot))
		return
	}
	slots := p.pipeline.SamplerSlots()
	idx := -1
	for i, s := range slots {
		if s == slot {
			idx = i
		}
	}
	if idx < 0 {
		p.fail(fmt.Errorf("wgpu: pipeline %v has no sampler slot %q", p.pipeline, slot))
		return
	}
	g, err := p.dev.bindGroup(bindKey{group: 1 + uint32(idx), view: v})
	if err != nil {
		p.fail(err)
		return
	}
	p.rp.SetBindGroup(1+uint32(idx), g, nil)
}

func (p *renderPass) SetUniform(name string, slice gpucore.BufferSlice) {
	if !p.usable() {
		return
	}
	if name != gpucore.UniformGlobals {
		p.fail(fmt.Errorf("wgpu: unknown uniform %q", name))
		return
	}
	size := slice.Size
	if size == 0 {
		size = gpucore.GlobalsSize
	}
	g, err := p.dev.bindGroup(bindKey{buffer: slice.Buffer, offset: slice.Offset, size: size})
	if err != nil {
		p.fail(err)
		return
	}
	p.rp.SetBindGroup(0, g, nil)
}

func (p *renderPass) EnableScissor(x, y, w, h uint32) {
	if !p.usable() {
		return
	}
	// clamp to the target; the HAL rejects rectangles outside it
	x, y = min(x, p.width), min(y, p.height)
	w, h = min(w, p.width-x), min(h, p.height-y)
	p.rp.SetScissorRect(x, y, w, h)
}

func (p *renderPass) DisableScissor() {
	if !p.usable() {
		return
	}
	p.rp.SetScissorRect(0, 0, p.width, p.height)
}

func (p *renderPass) SetVertexBuffer(slot uint32, slice gpucore.BufferSlice) {
	if !p.usable() {
		return
	}
	b, ok := p.dev.buffers[slice.Buffer]
	if !ok {
		p.fail(fmt.Errorf("wgpu: vertex buffer %d: %w", slice.Buffer, gpucore.ErrUnknownResource))
		return
	}
	p.rp.SetVertexBuffer(slot, b.raw, slice.Offset)
}

func (p *renderPass) SetIndexBuffer(id gpucore.BufferID, format gputypes.IndexFormat) {
	if !p.usable() {
		return
	}
	b, ok := p.dev.buffers[id]
	if !ok {
		p.fail(fmt.Errorf("wgpu: index buffer %d: %w", id, gpucore.ErrUnknownResource))
		return
	}
	p.rp.SetIndexBuffer(b.raw, format, 0)
}

func (p *renderPass) DrawIndexed(firstIndex uint32, baseVertex int32, indexCount, instanceCount uint32) {
	if !p.usable() {
		return
	}
	if !p.hasPipe {
		p.fail(fmt.Errorf("wgpu: draw without pipeline"))
		return
	}
	p.rp.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, 0)
}

func (p *renderPass) End() error {
	if p.ended {
		return gpucore.ErrPassEnded
	}
	p.ended = true
	p.rp.End()
	if p.err != nil {
		p.enc.DiscardEncoding()
		return p.err
	}
	cmd, err := p.enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	idx, err := p.dev.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		p.dev.device.FreeCommandBuffer(cmd)
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	p.dev.lastSubmit = idx
	p.dev.inflight = append(p.dev.inflight, inflight{index: idx, cmd: cmd})
	return nil
}
