// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Pipeline identifies one of the UI render pipelines.
type Pipeline uint16

// UI pipelines.
const (
	// PipelineGUI draws untextured, vertex-colored geometry.
	PipelineGUI Pipeline = iota

	// PipelineGUITextured draws textured quads with straight alpha.
	PipelineGUITextured

	// PipelineGUITexturedPremultiplied draws textured quads whose texture
	// holds premultiplied color (icon atlas, embedded content).
	PipelineGUITexturedPremultiplied

	// PipelineText draws glyph quads sampling a coverage atlas.
	PipelineText

	pipelineCount
)

// PipelineCount is the number of defined pipelines.
const PipelineCount = int(pipelineCount)

// Pipelines returns all defined pipelines in declaration order.
func Pipelines() []Pipeline {
	return []Pipeline{
		PipelineGUI,
		PipelineGUITextured,
		PipelineGUITexturedPremultiplied,
		PipelineText,
	}
}

// String returns the pipeline's debug name.
func (p Pipeline) String() string {
	switch p {
	case PipelineGUI:
		return "gui"
	case PipelineGUITextured:
		return "gui_textured"
	case PipelineGUITexturedPremultiplied:
		return "gui_textured_premultiplied"
	case PipelineText:
		return "text"
	default:
		return fmt.Sprintf("Pipeline(%d)", uint16(p))
	}
}

// Valid reports whether p is a defined pipeline.
func (p Pipeline) Valid() bool { return p < pipelineCount }

// Layout returns the vertex layout consumed by the pipeline.
func (p Pipeline) Layout() VertexLayout {
	if p == PipelineGUI {
		return LayoutPositionColor
	}
	return LayoutPositionTexColor
}

// Samplers returns how many texture views the pipeline binds.
func (p Pipeline) Samplers() int {
	if p == PipelineGUI {
		return 0
	}
	return 1
}

// SamplerSlots returns the sampler slot names, in binding order.
func (p Pipeline) SamplerSlots() []string {
	return samplerSlots[:p.Samplers()]
}

// SortKey orders pipelines when grouping elements inside one node.
func (p Pipeline) SortKey() uint16 { return uint16(p) }

// Blend returns the color blend state of the pipeline.
func (p Pipeline) Blend() gputypes.BlendState {
	if p == PipelineGUITexturedPremultiplied {
		return gputypes.BlendStatePremultiplied()
	}
	return gputypes.BlendStateAlpha()
}

// MaxSamplers is the largest number of views a texture setup can hold.
const MaxSamplers = 3

var samplerSlots = [MaxSamplers]string{"tex0", "tex1", "tex2"}

// UniformGlobals is the uniform name holding the projection matrix.
const UniformGlobals = "globals"

// GlobalsSize is the byte size of the globals uniform (one mat4x4<f32>).
const GlobalsSize = 64

// VertexLayout identifies a vertex format.
type VertexLayout uint8

// Vertex layouts.
const (
	// LayoutPositionColor is position (x, y, z float32) + RGBA8 color.
	LayoutPositionColor VertexLayout = iota

	// LayoutPositionTexColor is position (x, y, z float32) + uv (float32)
	// + RGBA8 color.
	LayoutPositionTexColor

	layoutCount
)

// LayoutCount is the number of defined vertex layouts.
const LayoutCount = int(layoutCount)

// String returns the layout's debug name.
func (l VertexLayout) String() string {
	switch l {
	case LayoutPositionColor:
		return "pos_color"
	case LayoutPositionTexColor:
		return "pos_tex_color"
	default:
		return fmt.Sprintf("VertexLayout(%d)", uint8(l))
	}
}

// Stride returns the vertex size in bytes.
func (l VertexLayout) Stride() int {
	if l == LayoutPositionColor {
		return 16
	}
	return 24
}

// Attributes returns the vertex attributes in shader location order.
func (l VertexLayout) Attributes() []gputypes.VertexAttribute {
	if l == LayoutPositionColor {
		return []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatUnorm8x4, Offset: 12, ShaderLocation: 1},
		}
	}
	return []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
		{Format: gputypes.VertexFormatUnorm8x4, Offset: 20, ShaderLocation: 2},
	}
}

// BufferLayout returns the vertex buffer layout for pipeline creation.
func (l VertexLayout) BufferLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: uint64(l.Stride()),
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  l.Attributes(),
	}
}
