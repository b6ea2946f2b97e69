// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import (
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/uibatch/gpucore"
	"github.com/gogpu/uibatch/internal/logging"
)

// ErrFenceTimeout is returned when a ring slot is still in use by the GPU
// after the configured wait.
var ErrFenceTimeout = errors.New("batch: timed out waiting for ring slot fence")

// minRingBuffer is the smallest vertex buffer a ring allocates.
const minRingBuffer = 4096

type ringSlot struct {
	buf   gpucore.BufferID
	size  uint64
	fence gpucore.Fence
}

// Ring rotates a fixed number of vertex buffers across frames so that the
// CPU never writes a buffer the GPU may still read.
type Ring struct {
	dev    gpucore.Device
	label  string
	slots  []ringSlot
	cur    int
	retire func(gpucore.BufferID)

	lastUsed uint64
	acquired bool
}

// NewRing creates a ring with n slots. Buffers are allocated lazily.
func NewRing(dev gpucore.Device, label string, n int, retire func(gpucore.BufferID)) *Ring {
	if n < 1 {
		n = 1
	}
	return &Ring{dev: dev, label: label, slots: make([]ringSlot, n), retire: retire}
}

// Slots returns the number of slots.
func (r *Ring) Slots() int { return len(r.slots) }

// Current returns the index of the slot the next Acquire uses.
func (r *Ring) Current() int { return r.cur }

// LastUsed returns the frame the ring was last acquired in.
func (r *Ring) LastUsed() uint64 { return r.lastUsed }

// Acquire returns the current slot's buffer, at least size bytes long.
// If the slot was submitted earlier, Acquire waits up to timeout for its
// fence first.
func (r *Ring) Acquire(frame uint64, size uint64, timeout time.Duration) (gpucore.BufferSlice, error) {
	s := &r.slots[r.cur]
	if s.fence != nil {
		done, err := s.fence.AwaitCompletion(timeout)
		if err != nil {
			return gpucore.BufferSlice{}, fmt.Errorf("batch: %s slot %d fence: %w", r.label, r.cur, err)
		}
		if !done {
			return gpucore.BufferSlice{}, fmt.Errorf("%w: %s slot %d", ErrFenceTimeout, r.label, r.cur)
		}
		s.fence = nil
	}
	if s.size < size {
		newSize := roundBuffer(size)
		buf, err := r.dev.CreateBuffer(gpucore.BufferDesc{
			Label: r.label,
			Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageMapWrite,
			Size:  newSize,
		})
		if err != nil {
			return gpucore.BufferSlice{}, fmt.Errorf("batch: grow %s slot %d: %w", r.label, r.cur, err)
		}
		if s.buf != gpucore.InvalidID {
			// the slot's fence has signaled, nothing reads the old buffer
			r.dev.ReleaseBuffer(s.buf)
		}
		logging.Logger().Debug("batch: ring slot grown",
			"ring", r.label, "slot", r.cur, "old", s.size, "new", newSize)
		s.buf, s.size = buf, newSize
	}
	r.lastUsed = frame
	r.acquired = true
	return gpucore.BufferSlice{Buffer: s.buf, Offset: 0, Size: size}, nil
}

// Submitted attaches the fence guarding the acquired slot and rotates to
// the next slot. It does nothing if nothing was acquired since the last
// call.
func (r *Ring) Submitted(f gpucore.Fence) {
	if !r.acquired {
		return
	}
	r.slots[r.cur].fence = f
	r.cur = (r.cur + 1) % len(r.slots)
	r.acquired = false
}

// Abandon forgets the acquisition of an unsubmitted frame.
func (r *Ring) Abandon() { r.acquired = false }

// Allocated reports whether any slot holds a buffer.
func (r *Ring) Allocated() bool {
	for _, s := range r.slots {
		if s.buf != gpucore.InvalidID {
			return true
		}
	}
	return false
}

// Release hands every slot buffer to the retire function and empties the
// ring.
func (r *Ring) Release() {
	for i := range r.slots {
		s := &r.slots[i]
		if s.buf != gpucore.InvalidID {
			if r.retire != nil {
				r.retire(s.buf)
			} else {
				r.dev.ReleaseBuffer(s.buf)
			}
		}
		*s = ringSlot{}
	}
	r.cur = 0
	r.acquired = false
}

func roundBuffer(size uint64) uint64 {
	if size <= minRingBuffer {
		return minRingBuffer
	}
	return 1 << bits.Len64(size-1)
}
