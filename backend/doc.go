// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend provides pluggable gpucore.Device implementations.
//
// Devices are registered by name via init() functions and opened at
// runtime. The software device is registered on import:
//
//	import _ "github.com/gogpu/uibatch/backend"
//
// The wgpu device registers itself when its package is imported:
//
//	import _ "github.com/gogpu/uibatch/backend/wgpu"
//
// # Device Selection
//
// Use Default to open the best available device, or Open to request a
// specific one by name:
//
//	dev, name, err := backend.Default(backend.Options{Provider: host})
//
//	// Or request a specific device
//	dev, err := backend.Open(backend.NameSoftware, backend.Options{})
//
// # Software Device
//
// SoftwareDevice keeps buffers in memory and records every render pass
// and draw call instead of rasterizing. It runs headless and is what the
// engine's tests inspect to verify draw lists.
//
// # Available Devices
//
// - "software": in-memory recording device (always available)
// - "wgpu": gogpu/wgpu HAL device shared by the host application
package backend
