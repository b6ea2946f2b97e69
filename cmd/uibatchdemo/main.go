// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command uibatchdemo batches a small UI scene on the software device and
// prints the resulting draw calls.
//
// Usage:
//
//	uibatchdemo [-config uibatch.toml] [-frames 2] [-scale 1] [-v]
package main

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/uibatch"
	"github.com/gogpu/uibatch/backend"
	"github.com/gogpu/uibatch/draw"
	"github.com/gogpu/uibatch/geom"
	"github.com/gogpu/uibatch/gpucore"
)

const (
	width  = 800
	height = 600
)

var (
	white  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	grey   = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
	accent = color.NRGBA{R: 60, G: 120, B: 220, A: 255}
	shade  = color.NRGBA{A: 96}
)

// flatIcons leaves icon cells as cleared; the demo only counts renders.
type flatIcons struct {
	rendered int
}

func (f *flatIcons) RenderIcon(gpucore.RenderPass, draw.IconID, geom.Rect) error {
	f.rendered++
	return nil
}

func main() {
	var (
		configPath = flag.String("config", "", "TOML configuration file")
		frames     = flag.Int("frames", 2, "frames to render")
		scale      = flag.Float64("scale", 1, "UI scale")
		verbose    = flag.Bool("v", false, "log engine diagnostics to stderr")
	)
	flag.Parse()

	if *verbose {
		uibatch.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if err := run(os.Stdout, *configPath, *frames, float32(*scale)); err != nil {
		log.Fatalf("uibatchdemo: %v", err)
	}
}

func run(w io.Writer, configPath string, frames int, scale float32) error {
	cfg := uibatch.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = uibatch.LoadConfig(configPath); err != nil {
			return err
		}
	}

	dev, err := backend.Open(backend.NameSoftware, backend.Options{})
	if err != nil {
		return err
	}
	sw := dev.(*backend.SoftwareDevice)

	target, err := newView(dev, width, height)
	if err != nil {
		return err
	}
	panel, err := newView(dev, 64, 64)
	if err != nil {
		return err
	}
	glyphs, err := newView(dev, 256, 256)
	if err != nil {
		return err
	}

	icons := &flatIcons{}
	e, err := uibatch.New(dev,
		uibatch.WithConfig(cfg),
		uibatch.WithIconRenderer(icons),
		uibatch.WithUIScale(scale),
		uibatch.WithClearColor(gputypes.Color{A: 1}),
	)
	if err != nil {
		return err
	}
	defer e.Close()

	for f := 1; f <= frames; f++ {
		sw.Reset()
		submitScene(e, panel, glyphs)
		if err := e.RenderFrame(target, width, height); err != nil {
			return fmt.Errorf("frame %d: %w", f, err)
		}
		sw.Complete()
		printFrame(w, e.Stats(), sw.Draws(target), len(sw.Blurs))
	}
	fmt.Fprintf(w, "icon renders: %d\n", icons.rendered)
	return nil
}

func newView(dev gpucore.Device, w, h uint32) (gpucore.ViewID, error) {
	tex, err := dev.CreateTexture(gpucore.TextureDesc{
		Label:  "demo",
		Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Width:  w,
		Height: h,
	})
	if err != nil {
		return gpucore.InvalidID, err
	}
	return dev.CreateTextureView(tex)
}

// submitScene submits a window with a toolbar of icons, a label, and a
// dimmed popup above a blur.
func submitScene(e *uibatch.Engine, panel, glyphs gpucore.ViewID) {
	e.Submit(draw.Rect(geom.R(0, 0, width, height), grey))
	e.Submit(draw.Blit(geom.R(100, 100, 500, 400), geom.R(0, 0, 1, 1), panel, white))
	for i := range 4 {
		x := float32(120 + i*32)
		e.Submit(draw.Icon(geom.R(x, 112, x+24, 136), draw.IconID(i+1), false, white))
	}
	for i := range 6 {
		x := float32(120 + i*9)
		e.Submit(draw.Glyph(geom.R(x, 160, x+8, 172), geom.R(0, 0, 0.03, 0.05), glyphs, white))
	}
	e.Submit(draw.GlyphEffect(geom.R(120, 174, 174, 175), white))

	e.NextStratum()
	e.MarkBlurBoundary()
	e.Submit(draw.Rect(geom.R(0, 0, width, height), shade))
	e.Submit(draw.Rect(geom.R(250, 200, 550, 350), accent))
	e.Submit(draw.Icon(geom.R(262, 212, 286, 236), draw.IconID(1), false, white))
}

func printFrame(w io.Writer, st uibatch.Stats, draws []backend.DrawCall, blurs int) {
	fmt.Fprintf(w, "frame %d: %d drawables, %d nodes, %d strata, %d draws, %d blur\n",
		st.Frame, st.Drawables, st.Nodes, st.Strata, st.Draws, blurs)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tpipeline\tview\tfirst\tindices\tscissor")
	for i, dc := range draws {
		scissor := "-"
		if dc.Scissored {
			scissor = fmt.Sprint(dc.Scissor)
		}
		fmt.Fprintf(tw, "  %d\t%s\t%d\t%d\t%d\t%s\n",
			i, dc.Pipeline, dc.Views[0], dc.FirstIndex, dc.IndexCount, scissor)
	}
	_ = tw.Flush()
}
