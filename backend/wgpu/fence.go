// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/uibatch/gpucore"
)

// fence signals once the queue has completed a submission index.
type fence struct {
	dev   *Device
	index uint64
}

// CreateFence returns a fence for everything submitted so far.
func (d *Device) CreateFence() (gpucore.Fence, error) {
	if d.destroyed {
		return nil, ErrDestroyed
	}
	return &fence{dev: d, index: d.lastSubmit}, nil
}

func (f *fence) done() bool {
	completed := f.dev.queue.PollCompleted()
	f.dev.freeCompleted(completed)
	return completed >= f.index
}

// AwaitCompletion reports whether the fence index has completed. A zero
// timeout only polls the queue. Otherwise it blocks in the HAL until the
// device is idle; hal.Queue.Submit takes no fence, so there is no
// per-submission wait to bound by timeout.
func (f *fence) AwaitCompletion(timeout time.Duration) (bool, error) {
	if f.done() {
		return true, nil
	}
	if timeout <= 0 {
		return false, nil
	}
	if err := f.dev.device.WaitIdle(); err != nil {
		return false, fmt.Errorf("wgpu: wait for submission %d: %w", f.index, err)
	}
	f.dev.freeCompleted(f.dev.lastSubmit)
	return true, nil
}

// freeCompleted frees command buffers and evicted bind groups of completed
// submissions.
func (d *Device) freeCompleted(completed uint64) {
	k := 0
	for _, r := range d.retired {
		if r.index <= completed {
			d.device.DestroyBindGroup(r.group)
			continue
		}
		d.retired[k] = r
		k++
	}
	clear(d.retired[k:])
	d.retired = d.retired[:k]

	n := 0
	for _, in := range d.inflight {
		if in.index <= completed {
			d.device.FreeCommandBuffer(in.cmd)
			continue
		}
		d.inflight[n] = in
		n++
	}
	clear(d.inflight[n:])
	d.inflight = d.inflight[:n]
}
