// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/uibatch/backend"
	"github.com/gogpu/uibatch/gpucore"
	"github.com/gogpu/uibatch/internal/cache"
	"github.com/gogpu/uibatch/internal/logging"
)

// Device errors.
var (
	// ErrNoHAL is returned when a provider does not expose HAL objects.
	ErrNoHAL = errors.New("wgpu: provider does not expose hal.Device and hal.Queue")

	// ErrDestroyed is returned when a destroyed device is used.
	ErrDestroyed = errors.New("wgpu: device destroyed")

	// ErrMapped is returned when mapping a buffer that is already mapped.
	ErrMapped = errors.New("wgpu: buffer already mapped")
)

// defaultBindGroups is the default bind group cache capacity.
const defaultBindGroups = 256

func init() {
	backend.Register(backend.NameWGPU, func(opts backend.Options) (gpucore.Device, error) {
		if opts.Provider == nil {
			return nil, backend.ErrNoProvider
		}
		var o []Option
		if opts.MaxTextureDimension > 0 {
			o = append(o, WithMaxTextureDimension(opts.MaxTextureDimension))
		}
		return NewFromProvider(opts.Provider, o...)
	})
}

// BlurFunc blurs target in place. It runs after the draws recorded before
// the blur boundary have been submitted.
type BlurFunc func(dev hal.Device, queue hal.Queue, target hal.TextureView) error

// Option configures a Device.
type Option func(*options)

type options struct {
	format     gputypes.TextureFormat
	maxDim     int
	blur       BlurFunc
	bindGroups int
	wgsl       bool
}

// WithFormat sets the color format of imported targets when none is given.
// Default: gputypes.TextureFormatBGRA8Unorm, or the provider's surface format.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(o *options) { o.format = f }
}

// WithMaxTextureDimension overrides the 2D texture size limit.
func WithMaxTextureDimension(n int) Option {
	return func(o *options) { o.maxDim = n }
}

// WithBlur sets the full-screen blur. Without one, Blur logs a warning
// once and leaves the target unchanged.
func WithBlur(fn BlurFunc) Option {
	return func(o *options) { o.blur = fn }
}

// WithBindGroupCache sets how many bind groups are kept alive.
func WithBindGroupCache(n int) Option {
	return func(o *options) { o.bindGroups = n }
}

// WithWGSL passes WGSL source to the HAL instead of naga-compiled SPIR-V,
// for HAL backends that compile WGSL themselves.
func WithWGSL() Option {
	return func(o *options) { o.wgsl = true }
}

type buffer struct {
	raw    hal.Buffer
	size   uint64
	usage  gputypes.BufferUsage
	mapped bool
}

type texture struct {
	raw   hal.Texture
	desc  gpucore.TextureDesc
	views []gpucore.ViewID
}

type view struct {
	raw    hal.TextureView
	tex    gpucore.TextureID // InvalidID for imported views
	format gputypes.TextureFormat
	width  uint32
	height uint32
}

// bindKey identifies a cached bind group: a globals range (group 0) or a
// sampled view (group 1).
type bindKey struct {
	group  uint32
	buffer gpucore.BufferID
	offset uint64
	size   uint64
	view   gpucore.ViewID
}

// Device implements gpucore.Device on a gogpu/wgpu HAL device and queue.
//
// The HAL device and queue belong to the caller; Destroy releases only the
// objects this Device created. Device is used from a single render
// goroutine.
type Device struct {
	device hal.Device
	queue  hal.Queue
	opts   options

	nextID   uint64
	buffers  map[gpucore.BufferID]*buffer
	textures map[gpucore.TextureID]*texture
	views    map[gpucore.ViewID]*view

	pipes *pipelineSet
	binds *cache.Cache[bindKey, hal.BindGroup]

	lastSubmit uint64
	inflight   []inflight
	retired    []retiredGroup

	blurWarned bool
	destroyed  bool
}

// inflight is a submitted command buffer waiting to be freed.
type inflight struct {
	index uint64
	cmd   hal.CommandBuffer
}

// retiredGroup is an evicted bind group destroyed once submission index
// completes.
type retiredGroup struct {
	index uint64
	group hal.BindGroup
}

var _ gpucore.Device = (*Device)(nil)

// New creates a device drawing with the given HAL device and queue.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNoHAL
	}
	o := options{
		format:     gputypes.TextureFormatBGRA8Unorm,
		maxDim:     int(gputypes.DefaultLimits().MaxTextureDimension2D),
		bindGroups: defaultBindGroups,
	}
	for _, opt := range opts {
		opt(&o)
	}
	d := &Device{
		device:   device,
		queue:    queue,
		opts:     o,
		buffers:  make(map[gpucore.BufferID]*buffer),
		textures: make(map[gpucore.TextureID]*texture),
		views:    make(map[gpucore.ViewID]*view),
		pipes:    newPipelineSet(device, o.wgsl),
	}
	// an evicted group may still be referenced by an unsubmitted pass
	d.binds = cache.New(o.bindGroups, func(_ bindKey, g hal.BindGroup) {
		d.retired = append(d.retired, retiredGroup{index: d.lastSubmit + 1, group: g})
	})
	logging.Logger().Info("wgpu: device ready", "format", o.format, "maxTexture", o.maxDim)
	return d, nil
}

// NewFromProvider creates a device sharing the host's GPU. The provider
// must implement HalDevice() any and HalQueue() any returning hal.Device
// and hal.Queue. If it also implements gpucontext.DeviceProvider, its
// surface format becomes the default target format.
func NewFromProvider(provider any, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHAL, hp.HalQueue())
	}
	if dp, ok := provider.(gpucontext.DeviceProvider); ok {
		if f := dp.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
			opts = append([]Option{WithFormat(f)}, opts...)
		}
	}
	return New(device, queue, opts...)
}

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

// HAL returns the underlying HAL device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) { return d.device, d.queue }

// CreateBuffer creates a buffer. Initial data is uploaded through the queue.
func (d *Device) CreateBuffer(desc gpucore.BufferDesc) (gpucore.BufferID, error) {
	if d.destroyed {
		return gpucore.InvalidID, ErrDestroyed
	}
	size := max(desc.Size, uint64(len(desc.Data)))
	// buffer sizes must be 4-byte aligned
	size = (size + 3) &^ 3
	usage := desc.Usage
	if desc.Data != nil {
		usage |= gputypes.BufferUsageCopyDst
	}
	raw, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create buffer %q: %w", desc.Label, err)
	}
	if len(desc.Data) > 0 {
		if err := d.queue.WriteBuffer(raw, 0, desc.Data); err != nil {
			d.device.DestroyBuffer(raw)
			return gpucore.InvalidID, fmt.Errorf("wgpu: write buffer %q: %w", desc.Label, err)
		}
	}
	id := gpucore.BufferID(d.newID())
	d.buffers[id] = &buffer{raw: raw, size: size, usage: usage}
	return id, nil
}

// MapBuffer maps a range of a MapRead or MapWrite buffer.
func (d *Device) MapBuffer(slice gpucore.BufferSlice, mode gpucore.MapMode) (gpucore.MappedView, error) {
	b, ok := d.buffers[slice.Buffer]
	if !ok {
		return nil, fmt.Errorf("wgpu: map buffer %d: %w", slice.Buffer, gpucore.ErrUnknownResource)
	}
	if slice.Offset+slice.Size > b.size {
		return nil, fmt.Errorf("wgpu: map buffer %d [%d+%d] of %d: %w",
			slice.Buffer, slice.Offset, slice.Size, b.size, gpucore.ErrOutOfRange)
	}
	if b.mapped {
		return nil, ErrMapped
	}
	if slice.Size == 0 {
		return &mappedView{}, nil
	}
	m, err := d.device.MapBuffer(b.raw, slice.Offset, slice.Size)
	if err != nil {
		return nil, fmt.Errorf("wgpu: map buffer %d: %w", slice.Buffer, err)
	}
	b.mapped = true
	return &mappedView{
		device: d.device,
		buf:    b,
		bytes:  unsafe.Slice((*byte)(m.Ptr), slice.Size),
	}, nil
}

// ReleaseBuffer destroys a buffer and the bind groups using it.
func (d *Device) ReleaseBuffer(id gpucore.BufferID) {
	b, ok := d.buffers[id]
	if !ok {
		return
	}
	d.binds.DeleteFunc(func(k bindKey, _ hal.BindGroup) bool { return k.buffer == id })
	if b.mapped {
		if err := d.device.UnmapBuffer(b.raw); err != nil {
			logging.Logger().Warn("wgpu: unmap on release", "buffer", id, "err", err)
		}
	}
	d.device.DestroyBuffer(b.raw)
	delete(d.buffers, id)
}

// CreateTexture creates a 2D texture.
func (d *Device) CreateTexture(desc gpucore.TextureDesc) (gpucore.TextureID, error) {
	if d.destroyed {
		return gpucore.InvalidID, ErrDestroyed
	}
	if desc.Width == 0 || desc.Height == 0 {
		return gpucore.InvalidID, fmt.Errorf("wgpu: texture %q has zero size", desc.Label)
	}
	raw, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: max(desc.Layers, 1),
		},
		MipLevelCount: max(desc.MipLevels, 1),
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create texture %q: %w", desc.Label, err)
	}
	id := gpucore.TextureID(d.newID())
	d.textures[id] = &texture{raw: raw, desc: desc}
	return id, nil
}

// CreateTextureView creates a view of the whole texture.
func (d *Device) CreateTextureView(id gpucore.TextureID) (gpucore.ViewID, error) {
	t, ok := d.textures[id]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("wgpu: view of texture %d: %w", id, gpucore.ErrUnknownResource)
	}
	dim := gputypes.TextureViewDimension2D
	if t.desc.Layers > 1 {
		dim = gputypes.TextureViewDimension2DArray
	}
	raw, err := d.device.CreateTextureView(t.raw, &hal.TextureViewDescriptor{
		Label:     t.desc.Label,
		Format:    t.desc.Format,
		Dimension: dim,
		Aspect:    gputypes.TextureAspectAll,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create view of %q: %w", t.desc.Label, err)
	}
	vid := gpucore.ViewID(d.newID())
	d.views[vid] = &view{raw: raw, tex: id, format: t.desc.Format, width: t.desc.Width, height: t.desc.Height}
	t.views = append(t.views, vid)
	return vid, nil
}

// ReleaseTexture destroys a texture, its views and their bind groups.
func (d *Device) ReleaseTexture(id gpucore.TextureID) {
	t, ok := d.textures[id]
	if !ok {
		return
	}
	for _, vid := range t.views {
		d.dropView(vid)
	}
	d.device.DestroyTexture(t.raw)
	delete(d.textures, id)
}

// ImportView registers a view owned by the host, such as the current
// surface texture, so it can be used as a render target or sampled.
// A zero format means the device's default format.
func (d *Device) ImportView(raw hal.TextureView, format gputypes.TextureFormat, width, height uint32) gpucore.ViewID {
	if format == gputypes.TextureFormatUndefined {
		format = d.opts.format
	}
	id := gpucore.ViewID(d.newID())
	d.views[id] = &view{raw: raw, format: format, width: width, height: height}
	return id
}

// ForgetView unregisters an imported view. The view itself is not
// destroyed.
func (d *Device) ForgetView(id gpucore.ViewID) {
	if v, ok := d.views[id]; ok && v.tex == gpucore.InvalidID {
		d.binds.DeleteFunc(func(k bindKey, _ hal.BindGroup) bool { return k.view == id })
		delete(d.views, id)
	}
}

func (d *Device) dropView(id gpucore.ViewID) {
	v, ok := d.views[id]
	if !ok {
		return
	}
	d.binds.DeleteFunc(func(k bindKey, _ hal.BindGroup) bool { return k.view == id })
	if v.tex != gpucore.InvalidID {
		d.device.DestroyTextureView(v.raw)
	}
	delete(d.views, id)
}

// MaxTextureDimension returns the largest supported 2D texture side.
func (d *Device) MaxTextureDimension() int { return d.opts.maxDim }

// Blur runs the configured BlurFunc on target.
func (d *Device) Blur(target gpucore.ViewID) error {
	v, ok := d.views[target]
	if !ok {
		return fmt.Errorf("wgpu: blur target %d: %w", target, gpucore.ErrUnknownResource)
	}
	if d.opts.blur == nil {
		if !d.blurWarned {
			logging.Logger().Warn("wgpu: no blur configured, blur boundary ignored")
			d.blurWarned = true
		}
		return nil
	}
	if err := d.opts.blur(d.device, d.queue, v.raw); err != nil {
		return fmt.Errorf("wgpu: blur: %w", err)
	}
	return nil
}

// bindGroup returns the cached bind group for k.
func (d *Device) bindGroup(k bindKey) (hal.BindGroup, error) {
	return d.binds.GetOrCreate(k, func() (hal.BindGroup, error) {
		if err := d.pipes.init(); err != nil {
			return nil, err
		}
		if k.group == 0 {
			b, ok := d.buffers[k.buffer]
			if !ok {
				return nil, fmt.Errorf("wgpu: uniform buffer %d: %w", k.buffer, gpucore.ErrUnknownResource)
			}
			return d.device.CreateBindGroup(&hal.BindGroupDescriptor{
				Label:  "uibatch_globals",
				Layout: d.pipes.globalsLayout,
				Entries: []gputypes.BindGroupEntry{
					{Binding: 0, Resource: gputypes.BufferBinding{
						Buffer: b.raw.NativeHandle(), Offset: k.offset, Size: k.size,
					}},
				},
			})
		}
		v, ok := d.views[k.view]
		if !ok {
			return nil, fmt.Errorf("wgpu: sampled view %d: %w", k.view, gpucore.ErrUnknownResource)
		}
		return d.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "uibatch_texture",
			Layout: d.pipes.textureLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: v.raw.NativeHandle()}},
				{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: d.pipes.sampler.NativeHandle()}},
			},
		})
	})
}

// BindGroups returns the number of cached bind groups.
func (d *Device) BindGroups() int { return d.binds.Len() }

// Destroy waits for the GPU and releases every object the device created.
// The HAL device and queue are left to their owner.
func (d *Device) Destroy() {
	if d.destroyed {
		return
	}
	if err := d.device.WaitIdle(); err != nil {
		logging.Logger().Warn("wgpu: wait idle on destroy", "err", err)
	}
	d.binds.Clear()
	d.freeCompleted(^uint64(0))
	for id := range d.textures {
		d.ReleaseTexture(id)
	}
	for id := range d.buffers {
		d.ReleaseBuffer(id)
	}
	clear(d.views)
	d.pipes.destroy()
	d.destroyed = true
}

// mappedView is a mapped buffer range.
type mappedView struct {
	device hal.Device
	buf    *buffer
	bytes  []byte
}

func (m *mappedView) Bytes() []byte { return m.bytes }

func (m *mappedView) Release() error {
	if m.buf == nil || !m.buf.mapped {
		return nil
	}
	m.buf.mapped = false
	m.bytes = nil
	return m.device.UnmapBuffer(m.buf.raw)
}
