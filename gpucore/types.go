// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Resource IDs
//
// These opaque IDs represent GPU resources. Each device implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// ViewID is an opaque handle to a texture view.
type ViewID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// Errors returned by devices.
var (
	// ErrUnknownResource is returned when an ID does not name a live resource.
	ErrUnknownResource = errors.New("gpucore: unknown resource")

	// ErrOutOfRange is returned when a mapping or slice exceeds the buffer size.
	ErrOutOfRange = errors.New("gpucore: range exceeds buffer size")

	// ErrPassEnded is returned when a render pass is used after End.
	ErrPassEnded = errors.New("gpucore: render pass already ended")
)

// BufferSlice is a byte range inside a buffer.
type BufferSlice struct {
	Buffer BufferID
	Offset uint64
	Size   uint64
}

// Valid reports whether the slice names a buffer.
func (s BufferSlice) Valid() bool { return s.Buffer != InvalidID }

// BufferDesc describes a buffer to create.
//
// When Data is non-nil the buffer is created with Data as its initial
// contents and Size is raised to len(Data) if smaller.
type BufferDesc struct {
	Label string
	Usage gputypes.BufferUsage
	Size  uint64
	Data  []byte
}

// MapMode selects the access granted by MapBuffer.
type MapMode uint8

// Map modes.
const (
	MapRead MapMode = 1 << iota
	MapWrite
)

// TextureDesc describes a texture to create.
type TextureDesc struct {
	Label     string
	Usage     gputypes.TextureUsage
	Format    gputypes.TextureFormat
	Width     uint32
	Height    uint32
	Layers    uint32
	MipLevels uint32
}

// RenderPassDesc describes a render pass.
//
// A nil ClearColor loads the existing color target contents. Depth is
// optional; a nil ClearDepth loads the existing depth contents.
type RenderPassDesc struct {
	Label      string
	Color      ViewID
	ClearColor *gputypes.Color
	Depth      ViewID
	ClearDepth *float32
}
