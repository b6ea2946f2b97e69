// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package uibatch

import (
	"errors"

	"github.com/gogpu/uibatch/batch"
	"github.com/gogpu/uibatch/ordertree"
)

// Contract violations. The engine panics with an error wrapping one of
// these; they indicate a bug in the caller.
var (
	// ErrAlreadyMarked is raised when MarkBlurBoundary is called twice in
	// one frame.
	ErrAlreadyMarked = ordertree.ErrAlreadyMarked

	// ErrNotPrepared is raised when Build is called before Prepare.
	ErrNotPrepared = errors.New("uibatch: frame not prepared")

	// ErrNotBuilt is raised when Execute is called before Build.
	ErrNotBuilt = errors.New("uibatch: frame not batched")

	// ErrFrameClosed is raised when drawables are submitted, or the frame
	// is prepared again, after Prepare.
	ErrFrameClosed = errors.New("uibatch: frame already prepared")
)

// Errors returned by the engine.
var (
	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("uibatch: engine closed")

	// ErrFenceTimeout is returned when the vertex ring slot for the frame
	// is still in use by the GPU.
	ErrFenceTimeout = batch.ErrFenceTimeout
)
