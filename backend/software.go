// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/uibatch/gpucore"
)

// Software device errors.
var (
	// ErrUsage is returned when a buffer is used in a way its usage flags
	// do not allow.
	ErrUsage = errors.New("backend: buffer usage does not allow operation")

	// ErrAlreadyMapped is returned when mapping a buffer that is mapped.
	ErrAlreadyMapped = errors.New("backend: buffer already mapped")

	// ErrIncompleteBinding is returned by End when a draw was issued
	// without the state its pipeline needs.
	ErrIncompleteBinding = errors.New("backend: incomplete draw state")
)

// Op names a device or pass operation for error injection.
type Op uint8

// Operations that can be made to fail.
const (
	OpCreateBuffer Op = iota
	OpMapBuffer
	OpCreateTexture
	OpCreateRenderPass
	OpCreateFence
	OpBlur
	OpEndPass
)

func init() {
	Register(NameSoftware, func(opts Options) (gpucore.Device, error) {
		d := NewSoftwareDevice()
		if opts.MaxTextureDimension > 0 {
			d.MaxDimension = opts.MaxTextureDimension
		}
		return d, nil
	})
}

// DrawCall is a recorded DrawIndexed with the state bound at the time.
type DrawCall struct {
	Pipeline      gpucore.Pipeline
	Views         [gpucore.MaxSamplers]gpucore.ViewID
	Scissor       [4]uint32
	Scissored     bool
	Vertices      gpucore.BufferSlice
	Indices       gpucore.BufferID
	IndexFormat   gputypes.IndexFormat
	Uniform       gpucore.BufferSlice
	FirstIndex    uint32
	BaseVertex    int32
	IndexCount    uint32
	InstanceCount uint32
}

// PassRecord is a recorded render pass.
type PassRecord struct {
	Desc  gpucore.RenderPassDesc
	Draws []DrawCall
	// Scissors lists every EnableScissor call in order.
	Scissors [][4]uint32
}

type swBuffer struct {
	desc   gpucore.BufferDesc
	data   []byte
	mapped bool
}

type swTexture struct {
	desc  gpucore.TextureDesc
	views []gpucore.ViewID
}

// SoftwareDevice is an in-memory gpucore.Device that records render
// passes instead of rasterizing.
//
// Submitted work completes immediately unless HoldFences is enabled.
type SoftwareDevice struct {
	// MaxDimension is reported by MaxTextureDimension.
	MaxDimension int

	// HoldFences keeps fences unsignaled until Complete is called.
	HoldFences bool

	// Passes lists ended render passes in submission order.
	Passes []PassRecord

	// Blurs lists the targets of Blur calls in order.
	Blurs []gpucore.ViewID

	nextID    uint64
	buffers   map[gpucore.BufferID]*swBuffer
	textures  map[gpucore.TextureID]*swTexture
	views     map[gpucore.ViewID]gpucore.TextureID
	failures  map[Op]error
	submitted uint64
	completed uint64
}

var _ gpucore.Device = (*SoftwareDevice)(nil)

// NewSoftwareDevice creates a software device.
func NewSoftwareDevice() *SoftwareDevice {
	return &SoftwareDevice{
		MaxDimension: int(gputypes.DefaultLimits().MaxTextureDimension2D),
		buffers:      make(map[gpucore.BufferID]*swBuffer),
		textures:     make(map[gpucore.TextureID]*swTexture),
		views:        make(map[gpucore.ViewID]gpucore.TextureID),
		failures:     make(map[Op]error),
	}
}

// FailNext makes the next call of op fail with err.
func (d *SoftwareDevice) FailNext(op Op, err error) {
	d.failures[op] = err
}

func (d *SoftwareDevice) takeFailure(op Op) error {
	err, ok := d.failures[op]
	if !ok {
		return nil
	}
	delete(d.failures, op)
	return err
}

func (d *SoftwareDevice) id() uint64 {
	d.nextID++
	return d.nextID
}

// CreateBuffer implements gpucore.Device.
func (d *SoftwareDevice) CreateBuffer(desc gpucore.BufferDesc) (gpucore.BufferID, error) {
	if err := d.takeFailure(OpCreateBuffer); err != nil {
		return gpucore.InvalidID, err
	}
	size := desc.Size
	if n := uint64(len(desc.Data)); n > size {
		size = n
	}
	b := &swBuffer{desc: desc, data: make([]byte, size)}
	copy(b.data, desc.Data)
	b.desc.Size, b.desc.Data = size, nil
	id := gpucore.BufferID(d.id())
	d.buffers[id] = b
	return id, nil
}

// MapBuffer implements gpucore.Device.
func (d *SoftwareDevice) MapBuffer(slice gpucore.BufferSlice, mode gpucore.MapMode) (gpucore.MappedView, error) {
	if err := d.takeFailure(OpMapBuffer); err != nil {
		return nil, err
	}
	b, ok := d.buffers[slice.Buffer]
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, slice.Buffer)
	}
	if mode&gpucore.MapWrite != 0 && b.desc.Usage&gputypes.BufferUsageMapWrite == 0 {
		return nil, fmt.Errorf("%w: map write", ErrUsage)
	}
	if mode&gpucore.MapRead != 0 && b.desc.Usage&gputypes.BufferUsageMapRead == 0 {
		return nil, fmt.Errorf("%w: map read", ErrUsage)
	}
	if slice.Offset+slice.Size > uint64(len(b.data)) {
		return nil, gpucore.ErrOutOfRange
	}
	if b.mapped {
		return nil, ErrAlreadyMapped
	}
	b.mapped = true
	return &swMapping{buf: b, bytes: b.data[slice.Offset : slice.Offset+slice.Size]}, nil
}

type swMapping struct {
	buf   *swBuffer
	bytes []byte
}

func (m *swMapping) Bytes() []byte { return m.bytes }

func (m *swMapping) Release() error {
	if m.buf == nil {
		return nil
	}
	m.buf.mapped = false
	m.buf, m.bytes = nil, nil
	return nil
}

// ReleaseBuffer implements gpucore.Device.
func (d *SoftwareDevice) ReleaseBuffer(id gpucore.BufferID) {
	delete(d.buffers, id)
}

// CreateTexture implements gpucore.Device.
func (d *SoftwareDevice) CreateTexture(desc gpucore.TextureDesc) (gpucore.TextureID, error) {
	if err := d.takeFailure(OpCreateTexture); err != nil {
		return gpucore.InvalidID, err
	}
	limit := uint32(d.MaxDimension)
	if desc.Width == 0 || desc.Height == 0 || desc.Width > limit || desc.Height > limit {
		return gpucore.InvalidID, fmt.Errorf("backend: texture %dx%d outside [1, %d]", desc.Width, desc.Height, limit)
	}
	id := gpucore.TextureID(d.id())
	d.textures[id] = &swTexture{desc: desc}
	return id, nil
}

// CreateTextureView implements gpucore.Device.
func (d *SoftwareDevice) CreateTextureView(tex gpucore.TextureID) (gpucore.ViewID, error) {
	t, ok := d.textures[tex]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, tex)
	}
	id := gpucore.ViewID(d.id())
	t.views = append(t.views, id)
	d.views[id] = tex
	return id, nil
}

// ReleaseTexture implements gpucore.Device.
func (d *SoftwareDevice) ReleaseTexture(id gpucore.TextureID) {
	t, ok := d.textures[id]
	if !ok {
		return
	}
	for _, v := range t.views {
		delete(d.views, v)
	}
	delete(d.textures, id)
}

// CreateRenderPass implements gpucore.Device.
func (d *SoftwareDevice) CreateRenderPass(desc gpucore.RenderPassDesc) (gpucore.RenderPass, error) {
	if err := d.takeFailure(OpCreateRenderPass); err != nil {
		return nil, err
	}
	if _, ok := d.views[desc.Color]; !ok {
		return nil, fmt.Errorf("%w: color target view %d", gpucore.ErrUnknownResource, desc.Color)
	}
	return &swPass{dev: d, rec: PassRecord{Desc: desc}}, nil
}

// CreateFence implements gpucore.Device.
func (d *SoftwareDevice) CreateFence() (gpucore.Fence, error) {
	if err := d.takeFailure(OpCreateFence); err != nil {
		return nil, err
	}
	return &swFence{dev: d, value: d.submitted}, nil
}

// Blur implements gpucore.Device.
func (d *SoftwareDevice) Blur(target gpucore.ViewID) error {
	if err := d.takeFailure(OpBlur); err != nil {
		return err
	}
	if _, ok := d.views[target]; !ok {
		return fmt.Errorf("%w: blur target view %d", gpucore.ErrUnknownResource, target)
	}
	d.Blurs = append(d.Blurs, target)
	d.submit()
	return nil
}

// MaxTextureDimension implements gpucore.Device.
func (d *SoftwareDevice) MaxTextureDimension() int { return d.MaxDimension }

func (d *SoftwareDevice) submit() {
	d.submitted++
	if !d.HoldFences {
		d.completed = d.submitted
	}
}

// Complete signals every fence created so far.
func (d *SoftwareDevice) Complete() { d.completed = d.submitted }

// Submissions returns how many passes and blurs were submitted.
func (d *SoftwareDevice) Submissions() uint64 { return d.submitted }

// LiveBuffers returns the number of unreleased buffers.
func (d *SoftwareDevice) LiveBuffers() int { return len(d.buffers) }

// LiveTextures returns the number of unreleased textures.
func (d *SoftwareDevice) LiveTextures() int { return len(d.textures) }

// BufferData returns the contents of a buffer, or nil.
func (d *SoftwareDevice) BufferData(id gpucore.BufferID) []byte {
	if b, ok := d.buffers[id]; ok {
		return b.data
	}
	return nil
}

// BufferDesc returns the descriptor a buffer was created with.
func (d *SoftwareDevice) BufferDesc(id gpucore.BufferID) (gpucore.BufferDesc, bool) {
	b, ok := d.buffers[id]
	if !ok {
		return gpucore.BufferDesc{}, false
	}
	return b.desc, true
}

// TextureDesc returns the descriptor a texture was created with.
func (d *SoftwareDevice) TextureDesc(id gpucore.TextureID) (gpucore.TextureDesc, bool) {
	t, ok := d.textures[id]
	if !ok {
		return gpucore.TextureDesc{}, false
	}
	return t.desc, true
}

// Draws returns every recorded draw call across passes rendering to target.
func (d *SoftwareDevice) Draws(target gpucore.ViewID) []DrawCall {
	var out []DrawCall
	for _, p := range d.Passes {
		if p.Desc.Color == target {
			out = append(out, p.Draws...)
		}
	}
	return out
}

// Reset clears recorded passes and blurs.
func (d *SoftwareDevice) Reset() {
	d.Passes = nil
	d.Blurs = nil
}

type swFence struct {
	dev   *SoftwareDevice
	value uint64
}

func (f *swFence) AwaitCompletion(time.Duration) (bool, error) {
	return f.dev.completed >= f.value, nil
}

type swPass struct {
	dev   *SoftwareDevice
	rec   PassRecord
	state DrawCall
	err   error
	ended bool
}

func (p *swPass) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *swPass) SetPipeline(pl gpucore.Pipeline) {
	if !pl.Valid() {
		p.fail(fmt.Errorf("backend: unknown pipeline %d", pl))
		return
	}
	p.state.Pipeline = pl
	p.state.Views = [gpucore.MaxSamplers]gpucore.ViewID{}
}

func (p *swPass) BindSampler(slot string, view gpucore.ViewID) {
	for i, name := range p.state.Pipeline.SamplerSlots() {
		if name == slot {
			if _, ok := p.dev.views[view]; !ok {
				p.fail(fmt.Errorf("%w: view %d bound to %s", gpucore.ErrUnknownResource, view, slot))
			}
			p.state.Views[i] = view
			return
		}
	}
	p.fail(fmt.Errorf("backend: pipeline %s has no sampler slot %q", p.state.Pipeline, slot))
}

func (p *swPass) SetUniform(name string, slice gpucore.BufferSlice) {
	if name != gpucore.UniformGlobals {
		p.fail(fmt.Errorf("backend: unknown uniform %q", name))
		return
	}
	p.state.Uniform = slice
}

func (p *swPass) EnableScissor(x, y, w, h uint32) {
	r := [4]uint32{x, y, w, h}
	p.state.Scissor, p.state.Scissored = r, true
	p.rec.Scissors = append(p.rec.Scissors, r)
}

func (p *swPass) DisableScissor() {
	p.state.Scissor, p.state.Scissored = [4]uint32{}, false
}

func (p *swPass) SetVertexBuffer(slot uint32, slice gpucore.BufferSlice) {
	if slot != 0 {
		p.fail(fmt.Errorf("backend: vertex buffer slot %d", slot))
		return
	}
	p.state.Vertices = slice
}

func (p *swPass) SetIndexBuffer(buf gpucore.BufferID, format gputypes.IndexFormat) {
	p.state.Indices, p.state.IndexFormat = buf, format
}

func (p *swPass) DrawIndexed(firstIndex uint32, baseVertex int32, indexCount, instanceCount uint32) {
	if p.ended {
		p.fail(gpucore.ErrPassEnded)
		return
	}
	s := p.state
	if _, ok := p.dev.buffers[s.Vertices.Buffer]; !ok {
		p.fail(fmt.Errorf("%w: no vertex buffer", ErrIncompleteBinding))
	}
	if _, ok := p.dev.buffers[s.Indices]; !ok {
		p.fail(fmt.Errorf("%w: no index buffer", ErrIncompleteBinding))
	}
	for i := 0; i < s.Pipeline.Samplers(); i++ {
		if s.Views[i] == gpucore.InvalidID {
			p.fail(fmt.Errorf("%w: %s sampler %d unbound", ErrIncompleteBinding, s.Pipeline, i))
		}
	}
	s.FirstIndex, s.BaseVertex = firstIndex, baseVertex
	s.IndexCount, s.InstanceCount = indexCount, instanceCount
	p.rec.Draws = append(p.rec.Draws, s)
}

func (p *swPass) End() error {
	if p.ended {
		return gpucore.ErrPassEnded
	}
	p.ended = true
	if err := p.dev.takeFailure(OpEndPass); err != nil {
		p.fail(err)
	}
	if p.err != nil {
		return p.err
	}
	p.dev.Passes = append(p.dev.Passes, p.rec)
	p.dev.submit()
	return nil
}
