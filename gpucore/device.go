// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"time"

	"github.com/gogpu/gputypes"
)

// Device is the GPU backend consumed by the engine.
//
// Implementations are used from a single render goroutine and need not be
// safe for concurrent use.
type Device interface {
	// CreateBuffer creates a buffer, optionally with initial contents.
	CreateBuffer(desc BufferDesc) (BufferID, error)

	// MapBuffer maps a byte range of a buffer. The returned view must be
	// released on every exit path.
	MapBuffer(slice BufferSlice, mode MapMode) (MappedView, error)

	// ReleaseBuffer destroys a buffer. Unknown IDs are ignored.
	ReleaseBuffer(id BufferID)

	// CreateTexture creates a texture.
	CreateTexture(desc TextureDesc) (TextureID, error)

	// CreateTextureView creates a default view of a texture.
	CreateTextureView(tex TextureID) (ViewID, error)

	// ReleaseTexture destroys a texture and every view created from it.
	ReleaseTexture(id TextureID)

	// CreateRenderPass begins a render pass. The pass must be ended on
	// every exit path; End submits the recorded work.
	CreateRenderPass(desc RenderPassDesc) (RenderPass, error)

	// CreateFence returns a fence that signals once all work submitted so
	// far has completed on the GPU.
	CreateFence() (Fence, error)

	// Blur blurs the whole color target in place.
	Blur(target ViewID) error

	// MaxTextureDimension returns the largest supported 2D texture side.
	MaxTextureDimension() int
}

// RenderPass records draw commands against a color target.
//
// Recording methods do not return errors; the first recording error is
// reported by End.
type RenderPass interface {
	SetPipeline(p Pipeline)

	// BindSampler binds a texture view with its sampler to a named slot
	// of the current pipeline (see Pipeline.SamplerSlots).
	BindSampler(slot string, view ViewID)

	// SetUniform binds a uniform buffer range by name.
	SetUniform(name string, slice BufferSlice)

	EnableScissor(x, y, w, h uint32)
	DisableScissor()

	SetVertexBuffer(slot uint32, slice BufferSlice)
	SetIndexBuffer(buf BufferID, format gputypes.IndexFormat)

	DrawIndexed(firstIndex uint32, baseVertex int32, indexCount, instanceCount uint32)

	// End finishes and submits the pass.
	End() error
}

// MappedView is a scoped CPU view of mapped buffer memory.
type MappedView interface {
	// Bytes returns the mapped range. It is invalid after Release.
	Bytes() []byte

	// Release unmaps the range.
	Release() error
}

// Fence tracks completion of submitted GPU work.
type Fence interface {
	// AwaitCompletion waits up to timeout for the fence to signal.
	// A zero timeout polls without blocking.
	AwaitCompletion(timeout time.Duration) (bool, error)
}
