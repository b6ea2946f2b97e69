// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucore defines the GPU contract consumed by the uibatch engine.
//
// The engine never talks to a graphics API directly. Everything it needs
// from the GPU is expressed by the [Device] and [RenderPass] interfaces:
// buffer creation and scoped mapping, texture and view creation, scoped
// render passes with indexed draws, fences, and a full-screen blur of the
// color target. Any backend implementing these interfaces can drive the
// engine:
//   - backend/wgpu (gogpu/wgpu HAL, shaders compiled with gogpu/naga)
//   - backend.SoftwareDevice (in-memory recording device for headless use)
//
// # Architecture
//
//	               +-----------------+
//	               |     uibatch     |
//	               |  (Engine/Batch) |
//	               +--------+--------+
//	                        |
//	               +--------v--------+
//	               |     gpucore     |
//	               | (Device, Pass)  |
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	|  wgpu adapter   |          | software device |
//	|  (hal.Device)   |          |   (recording)   |
//	+-----------------+          +-----------------+
//
// # Resource IDs
//
// Resources are referred to by opaque uint64 IDs ([BufferID], [TextureID],
// [ViewID]). The zero value [InvalidID] never names a live resource.
//
// # Pipelines and vertex layouts
//
// The UI renders with a small closed set of pipelines ([Pipeline]). Each
// pipeline names the [VertexLayout] its vertices use and how many texture
// samplers it binds. Backends build the actual GPU pipeline objects from
// this description.
package gpucore
