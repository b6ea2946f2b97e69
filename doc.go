// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package uibatch batches 2D user interface drawables into a small number
// of GPU draw calls.
//
// # Overview
//
// Application code submits rectangles, blits, glyphs, icons, text runs and
// embedded content in any order, overlapping freely. The Engine places
// each drawable in a render-order tree so that whatever it overlaps is
// painted first, packs icons into a shared atlas, merges consecutive
// drawables with the same pipeline, textures and scissor into one draw,
// and issues the draws to a gpucore.Device.
//
// # Quick Start
//
//	dev, _, err := backend.Default(backend.Options{Provider: host})
//	if err != nil {
//	    return err
//	}
//	e, err := uibatch.New(dev, uibatch.WithIconRenderer(icons))
//	if err != nil {
//	    return err
//	}
//	defer e.Close()
//
//	// every frame
//	e.Submit(draw.Rect(geom.XYWH(0, 0, 400, 300), background))
//	e.Submit(draw.Icon(geom.XYWH(8, 8, 24, 24), saveIcon, false, white))
//	if err := e.RenderFrame(target, 1280, 720); err != nil {
//	    return err
//	}
//
// # Frame Cycle
//
// An Engine moves through Idle, Preparing, Batching and Submitted, and
// back to Idle:
//
//   - Idle: Submit, SubmitText, NextStratum and MarkBlurBoundary record the frame.
//   - Preparing: text is expanded into glyphs, embedded content is rendered,
//     icons are packed into the atlas and every node is sorted by batch key.
//   - Batching: vertices are written in paint order and equal keys merge.
//   - Submitted: draws before the blur boundary, the blur, then the rest.
//
// Submitting while a frame is being prepared, marking the blur boundary
// twice, or batching an unprepared frame panics.
//
// # Packages
//
//   - geom: rectangles and affine poses
//   - gpucore: the device contract
//   - draw: drawable variants and vertex encoding
//   - ordertree: render-order tree
//   - atlas: icon atlas
//   - batch: vertex rings and draw list building
//   - backend: device registry and the software device
//   - backend/wgpu: device on gogpu/wgpu HAL
//
// # Coordinate System
//
// Positions are in target pixels:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
package uibatch

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
