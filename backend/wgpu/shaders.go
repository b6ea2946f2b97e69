// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/uibatch/gpucore"
)

//go:embed shaders/gui.wgsl
var guiShaderSource string

//go:embed shaders/gui_textured.wgsl
var guiTexturedShaderSource string

// shaderKind selects one of the two UI shader modules.
type shaderKind uint8

const (
	shaderGUI shaderKind = iota
	shaderGUITextured
	shaderCount
)

func (k shaderKind) label() string {
	if k == shaderGUI {
		return "uibatch_gui"
	}
	return "uibatch_gui_textured"
}

func (k shaderKind) source() string {
	if k == shaderGUI {
		return guiShaderSource
	}
	return guiTexturedShaderSource
}

// shaderFor returns the module and fragment entry point of a pipeline.
func shaderFor(p gpucore.Pipeline) (shaderKind, string) {
	switch p {
	case gpucore.PipelineGUI:
		return shaderGUI, "fs_main"
	case gpucore.PipelineGUITexturedPremultiplied:
		return shaderGUITextured, "fs_premultiplied"
	case gpucore.PipelineText:
		return shaderGUITextured, "fs_text"
	default:
		return shaderGUITextured, "fs_straight"
	}
}

// compileSPIRV compiles WGSL to SPIR-V words.
func compileSPIRV(source string) ([]uint32, error) {
	b, err := naga.Compile(source)
	if err != nil {
		return nil, err
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("spir-v size %d is not a multiple of 4", len(b))
	}
	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}

// createShader compiles a UI shader and creates its module. With wgsl set
// the source is handed to the HAL unchanged.
func createShader(dev hal.Device, k shaderKind, wgsl bool) (hal.ShaderModule, error) {
	src := hal.ShaderSource{WGSL: k.source()}
	if !wgsl {
		words, err := compileSPIRV(k.source())
		if err != nil {
			return nil, fmt.Errorf("wgpu: compile %s: %w", k.label(), err)
		}
		src = hal.ShaderSource{SPIRV: words}
	}
	m, err := dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  k.label(),
		Source: src,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader %s: %w", k.label(), err)
	}
	return m, nil
}
