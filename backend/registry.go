// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/uibatch/gpucore"
	"github.com/gogpu/uibatch/internal/logging"
)

// registry holds registered devices.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for device selection (first that opens wins).
	devicePriority = []string{NameWGPU, NameSoftware}
)

// Register registers a device factory with the given name.
// This is typically called from init() functions in backend packages.
// If a device with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a device from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered device names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a device with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open creates the named device.
func Open(name string, opts Options) (gpucore.Device, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	dev, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("backend: open %q: %w", name, err)
	}
	return dev, nil
}

// Default opens the best available device based on priority and returns
// it with its name. Devices that fail to open are skipped.
func Default(opts Options) (gpucore.Device, string, error) {
	var errs []error
	tried := make(map[string]bool)
	try := func(name string) (gpucore.Device, bool) {
		tried[name] = true
		dev, err := Open(name, opts)
		if err != nil {
			errs = append(errs, err)
			return nil, false
		}
		logging.Logger().Info("backend: device selected", "name", name)
		return dev, true
	}

	for _, name := range devicePriority {
		if !IsRegistered(name) {
			continue
		}
		if dev, ok := try(name); ok {
			return dev, name, nil
		}
	}
	// Fallback: first other registered device
	for _, name := range Available() {
		if tried[name] {
			continue
		}
		if dev, ok := try(name); ok {
			return dev, name, nil
		}
	}
	if len(errs) == 0 {
		return nil, "", ErrBackendNotAvailable
	}
	return nil, "", errors.Join(append([]error{ErrBackendNotAvailable}, errs...)...)
}

// MustDefault returns the default device or panics.
func MustDefault(opts Options) gpucore.Device {
	dev, _, err := Default(opts)
	if err != nil {
		panic(err)
	}
	return dev
}
