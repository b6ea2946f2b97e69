// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"

	"github.com/gogpu/uibatch/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested device is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNoProvider is returned by devices that need a host GPU provider
	// when none is given.
	ErrNoProvider = errors.New("backend: no device provider")
)

// Device names.
const (
	// NameSoftware is the in-memory recording device.
	NameSoftware = "software"
	// NameWGPU is the gogpu/wgpu HAL device.
	NameWGPU = "wgpu"
)

// Options configures device creation.
type Options struct {
	// Provider supplies the host's GPU device and queue. Its accepted
	// types depend on the device (see backend/wgpu.NewFromProvider).
	Provider any

	// MaxTextureDimension overrides the device limit when non-zero.
	MaxTextureDimension int
}

// Factory creates a device.
type Factory func(opts Options) (gpucore.Device, error)
