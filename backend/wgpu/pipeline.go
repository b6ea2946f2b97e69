// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/uibatch/gpucore"
)

// depthFormat is the depth attachment format the depth variants expect.
const depthFormat = gputypes.TextureFormatDepth32Float

// pipeKey identifies one render pipeline variant. Pipelines depend on the
// color target format and on whether the pass has a depth attachment.
type pipeKey struct {
	pipeline gpucore.Pipeline
	format   gputypes.TextureFormat
	depth    bool
}

// pipelineSet owns the shader modules, layouts, sampler and the lazily
// created render pipelines shared by every pass.
//
// Bind group layouts:
//
//	group 0: globals (uniform buffer, vertex)
//	group 1: tex0 (texture_2d, fragment) + samp0 (sampler, fragment)
type pipelineSet struct {
	device hal.Device
	wgsl   bool

	shaders       [shaderCount]hal.ShaderModule
	globalsLayout hal.BindGroupLayout
	textureLayout hal.BindGroupLayout
	layouts       [2]hal.PipelineLayout // untextured, textured
	sampler       hal.Sampler

	pipelines map[pipeKey]hal.RenderPipeline
}

func newPipelineSet(device hal.Device, wgsl bool) *pipelineSet {
	return &pipelineSet{
		device:    device,
		wgsl:      wgsl,
		pipelines: make(map[pipeKey]hal.RenderPipeline),
	}
}

// init creates the shared objects. It is idempotent.
func (s *pipelineSet) init() error {
	if s.sampler != nil {
		return nil
	}
	for k := range shaderCount {
		if s.shaders[k] != nil {
			continue
		}
		m, err := createShader(s.device, k, s.wgsl)
		if err != nil {
			return err
		}
		s.shaders[k] = m
	}

	var err error
	if s.globalsLayout == nil {
		s.globalsLayout, err = s.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label: "uibatch_globals_layout",
			Entries: []gputypes.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: gputypes.ShaderStageVertex,
					Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("wgpu: create globals layout: %w", err)
		}
	}
	if s.textureLayout == nil {
		s.textureLayout, err = s.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label: "uibatch_texture_layout",
			Entries: []gputypes.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: gputypes.ShaderStageFragment,
					Texture: &gputypes.TextureBindingLayout{
						SampleType:    gputypes.TextureSampleTypeFloat,
						ViewDimension: gputypes.TextureViewDimension2D,
					},
				},
				{
					Binding:    1,
					Visibility: gputypes.ShaderStageFragment,
					Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("wgpu: create texture layout: %w", err)
		}
	}
	groups := [2][]hal.BindGroupLayout{
		{s.globalsLayout},
		{s.globalsLayout, s.textureLayout},
	}
	for i, g := range groups {
		if s.layouts[i] != nil {
			continue
		}
		s.layouts[i], err = s.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
			Label:            fmt.Sprintf("uibatch_pipe_layout_%d", i),
			BindGroupLayouts: g,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create pipeline layout: %w", err)
		}
	}

	s.sampler, err = s.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "uibatch_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create sampler: %w", err)
	}
	return nil
}

// get returns the pipeline for k, creating it on first use.
func (s *pipelineSet) get(k pipeKey) (hal.RenderPipeline, error) {
	if p, ok := s.pipelines[k]; ok {
		return p, nil
	}
	if !k.pipeline.Valid() {
		return nil, fmt.Errorf("wgpu: unknown pipeline %v", k.pipeline)
	}
	if err := s.init(); err != nil {
		return nil, err
	}

	kind, entry := shaderFor(k.pipeline)
	layout := s.layouts[0]
	if k.pipeline.Samplers() > 0 {
		layout = s.layouts[1]
	}
	blend := k.pipeline.Blend()
	desc := &hal.RenderPipelineDescriptor{
		Label:  "uibatch_" + k.pipeline.String(),
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     s.shaders[kind],
			EntryPoint: "vs_main",
			Buffers:    []gputypes.VertexBufferLayout{k.pipeline.Layout().BufferLayout()},
		},
		Fragment: &hal.FragmentState{
			Module:     s.shaders[kind],
			EntryPoint: entry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    k.format,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if k.depth {
		// Paint order decides visibility; depth is written for later passes.
		keep := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		}
		desc.DepthStencil = &hal.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionAlways,
			StencilFront:      keep,
			StencilBack:       keep,
		}
	}

	p, err := s.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline %v: %w", k.pipeline, err)
	}
	s.pipelines[k] = p
	return p, nil
}

// destroy releases everything in reverse creation order.
func (s *pipelineSet) destroy() {
	for k, p := range s.pipelines {
		s.device.DestroyRenderPipeline(p)
		delete(s.pipelines, k)
	}
	if s.sampler != nil {
		s.device.DestroySampler(s.sampler)
		s.sampler = nil
	}
	for i, l := range s.layouts {
		if l != nil {
			s.device.DestroyPipelineLayout(l)
			s.layouts[i] = nil
		}
	}
	for _, l := range []*hal.BindGroupLayout{&s.textureLayout, &s.globalsLayout} {
		if *l != nil {
			s.device.DestroyBindGroupLayout(*l)
			*l = nil
		}
	}
	for i, m := range s.shaders {
		if m != nil {
			s.device.DestroyShaderModule(m)
			s.shaders[i] = nil
		}
	}
}
