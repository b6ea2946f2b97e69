// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a bounded LRU cache for GPU objects.
//
// Entries evicted by capacity, removed explicitly or dropped by Clear are
// passed to the cache's evict callback, which is where the owner destroys
// the underlying resource.
//
//	c := cache.New[key, hal.BindGroup](64, func(_ key, g hal.BindGroup) {
//	    device.DestroyBindGroup(g)
//	})
//	g, err := c.GetOrCreate(k, func() (hal.BindGroup, error) { ... })
//
// # Thread Safety
//
// Cache is safe for concurrent use.
// It must not be copied after creation (it contains a mutex).
package cache
