// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements gpucore.Device on the gogpu/wgpu HAL.
//
// The device shares the host's hal.Device and hal.Queue, typically those of
// a gogpu application, and never creates or destroys them:
//
//	dev, err := wgpu.NewFromProvider(app) // HalDevice() any, HalQueue() any
//	if err != nil {
//	    return err
//	}
//	defer dev.Destroy()
//
//	target := dev.ImportView(surfaceView, 0, width, height)
//	err = engine.RenderFrame(target, width, height)
//	dev.ForgetView(target)
//
// Importing the package registers the device as backend.NameWGPU; it is
// preferred by backend.Default when backend.Options.Provider is set.
//
// # Shaders
//
// The UI shaders are WGSL, compiled to SPIR-V with gogpu/naga when the
// first pipeline is created. Pipelines are created lazily per pipeline,
// target format and depth attachment.
//
// # Bind groups
//
// Group 0 holds the globals uniform, group 1 the sampled texture and a
// linear clamp sampler. Bind groups are kept in an LRU cache; evicted
// groups and groups of released resources are destroyed once the GPU has
// finished the submissions that may reference them.
//
// # Fences
//
// A fence is the queue submission index at the time it was created.
// A zero-timeout AwaitCompletion polls hal.Queue.PollCompleted; a timed
// one blocks in hal.Device.WaitIdle.
//
// # Blur
//
// The full-screen blur is provided by the host through WithBlur. Without
// one the blur boundary is ignored and a warning is logged.
package wgpu
