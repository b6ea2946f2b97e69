// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package uibatch

import (
	"log/slog"

	"github.com/gogpu/uibatch/internal/logging"
)

// SetLogger configures the logger for uibatch and all its sub-packages.
// By default, uibatch produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by uibatch:
//   - [slog.LevelDebug]: per-frame diagnostics (draw counts, ring growth, atlas repacks)
//   - [slog.LevelInfo]: lifecycle events (backend opened, engine closed)
//   - [slog.LevelWarn]: degraded frames (icon dropped, blur unavailable)
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	uibatch.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the current logger used by uibatch.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
