// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ordertree

import (
	"errors"
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/gogpu/uibatch/draw"
	"github.com/gogpu/uibatch/geom"
	"github.com/gogpu/uibatch/gpucore"
)

var white = color.NRGBA{255, 255, 255, 255}

func rect(x0, y0, x1, y1 float32) draw.Drawable {
	return draw.Rect(geom.R(x0, y0, x1, y1), white)
}

// tagged returns a rect whose color encodes its submission index.
func tagged(i int, r geom.Rect) draw.Drawable {
	return draw.Rect(r, color.NRGBA{uint8(i), uint8(i >> 8), uint8(i >> 16), 255})
}

func tagOf(d draw.Drawable) int {
	c := d.Color()
	return int(c.R) | int(c.G)<<8 | int(c.B)<<16
}

func paintOrder(tr *Tree, r Range) []draw.Drawable {
	var out []draw.Drawable
	tr.ForEachInPaintOrder(r, func(_ NodeID, n *Node) {
		out = append(out, n.Elements()...)
		out = append(out, n.Glyphs()...)
	})
	return out
}

func checkLinks(t *testing.T, tr *Tree) {
	t.Helper()
	for i := 0; i < tr.NodeCount(); i++ {
		n := tr.Node(NodeID(i))
		if up := n.Up(); up != None && tr.Node(up).Down() != NodeID(i) {
			t.Fatalf("node %d: up.down = %d", i, tr.Node(up).Down())
		}
		if down := n.Down(); down != None && tr.Node(down).Up() != NodeID(i) {
			t.Fatalf("node %d: down.up = %d", i, tr.Node(down).Up())
		}
	}
}

func TestTree_PaintOrderProperty(t *testing.T) {
	for seed := uint64(1); seed <= 50; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*7919))
		tr := New()
		n := 20 + rng.IntN(200)
		rects := make([]geom.Rect, n)
		for i := range rects {
			x, y := rng.Float32()*500, rng.Float32()*500
			w, h := 1+rng.Float32()*120, 1+rng.Float32()*120
			rects[i] = geom.XYWH(x, y, w, h)
			// nested children exercise the fast path
			if i > 0 && rng.IntN(3) == 0 {
				p := rects[i-1]
				rects[i] = geom.R(p.X0+1, p.Y0+1, p.X1-1, p.Y1-1)
				if rects[i].Empty() {
					rects[i] = p
				}
			}
			tr.Submit(tagged(i, rects[i]))
		}
		checkLinks(t, tr)

		order := paintOrder(tr, All)
		if len(order) != n {
			t.Fatalf("seed %d: traversal returned %d drawables, want %d", seed, len(order), n)
		}
		pos := make([]int, n)
		for p, d := range order {
			pos[tagOf(d)] = p
		}
		for a := 0; a < n; a++ {
			for b := a + 1; b < n; b++ {
				if rects[a].Intersects(rects[b]) && pos[b] < pos[a] {
					t.Fatalf("seed %d: drawable %d %v paints below earlier overlapping %d %v",
						seed, b, rects[b], a, rects[a])
				}
			}
		}
	}
}

func TestTree_SameNodeNeverOverlaps(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	tr := New()
	for i := 0; i < 300; i++ {
		x, y := rng.Float32()*300, rng.Float32()*300
		tr.Submit(rect(x, y, x+60, y+10))
		tr.Submit(draw.Rect(geom.XYWH(rng.Float32()*300, rng.Float32()*300, 30, 30), white))
	}
	for i := 0; i < tr.NodeCount(); i++ {
		els := tr.Node(NodeID(i)).Elements()
		for a := range els {
			for b := a + 1; b < len(els); b++ {
				ba, _ := els[a].Bounds()
				bb, _ := els[b].Bounds()
				if ba.Intersects(bb) {
					t.Fatalf("node %d holds overlapping %v and %v", i, ba, bb)
				}
			}
		}
	}
}

func TestTree_DisjointShareNode(t *testing.T) {
	tr := New()
	tr.Submit(rect(0, 0, 10, 10))
	tr.Submit(rect(20, 0, 30, 10))
	tr.Submit(rect(40, 0, 50, 10))
	if tr.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", tr.NodeCount())
	}
	if got := len(tr.Node(0).Elements()); got != 3 {
		t.Errorf("root holds %d elements, want 3", got)
	}
}

func TestTree_FastPath(t *testing.T) {
	tr := New()
	tr.Submit(rect(0, 0, 100, 100))
	a := tr.Current()
	tr.Submit(rect(10, 10, 20, 20))
	b := tr.Current()
	if tr.Node(a).Up() != b {
		t.Fatalf("contained drawable went to node %d, want up neighbor %d", b, tr.Node(a).Up())
	}
	order := paintOrder(tr, All)
	if len(order) != 2 {
		t.Fatalf("len = %d", len(order))
	}
	if bb, _ := order[1].Bounds(); bb != geom.R(10, 10, 20, 20) {
		t.Errorf("child painted at position 0")
	}
}

func TestTree_FastPathReusesUpNeighbor(t *testing.T) {
	tr := New()
	tr.Submit(rect(0, 0, 100, 100)) // node 0
	tr.Submit(rect(10, 10, 20, 20)) // node 1
	tr.Submit(rect(0, 0, 5, 5))     // walks: intersects node 0 -> node 1
	tr.Submit(rect(1, 1, 4, 4))     // fast path: node 2
	if tr.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d, want 3", tr.NodeCount())
	}
	if tr.Current() != 2 {
		t.Errorf("Current() = %d, want 2", tr.Current())
	}
}

func TestTree_WalkStopsAtTopmostIntersection(t *testing.T) {
	tr := New()
	tr.Submit(rect(0, 0, 100, 100)) // node 0
	tr.Submit(rect(10, 10, 50, 50)) // node 1
	tr.Submit(rect(20, 20, 30, 30)) // node 2
	// overlaps only the background: goes right above it, sharing node 1
	tr.Submit(rect(60, 60, 70, 70))
	if tr.Current() != 1 {
		t.Errorf("Current() = %d, want 1", tr.Current())
	}
	// overlaps nothing in node 2 or 1 but the background
	tr.Submit(rect(80, 5, 90, 8))
	if tr.Current() != 1 {
		t.Errorf("Current() = %d, want 1", tr.Current())
	}
	// overlaps node 2's drawable: goes above it
	tr.Submit(rect(25, 25, 200, 200))
	if tr.Current() != 3 {
		t.Errorf("Current() = %d, want 3", tr.Current())
	}
	// outside everything: stratum root
	tr.Submit(rect(500, 500, 510, 510))
	if tr.Current() != 0 {
		t.Errorf("Current() = %d, want 0", tr.Current())
	}
	checkLinks(t, tr)
}

func TestTree_InvisibleIgnored(t *testing.T) {
	tr := New()
	tr.Submit(rect(0, 0, 10, 10).WithScissor(geom.R(50, 50, 60, 60)))
	tr.Submit(draw.Rect(geom.Rect{}, white))
	if tr.Submitted() != 0 || tr.Node(0).Len() != 0 {
		t.Error("invisible drawables were recorded")
	}
	tr.Submit(rect(0, 0, 10, 10))
	tr.Submit(rect(100, 100, 100, 100))
	// an invisible drawable must not affect the fast path
	tr.Submit(rect(2, 2, 4, 4))
	if tr.Current() != tr.Node(0).Up() {
		t.Error("fast path lost after invisible submission")
	}
}

func TestTree_StrataIsolation(t *testing.T) {
	tr := New()
	tr.Submit(rect(0, 0, 100, 100))
	tr.Submit(rect(10, 10, 20, 20))
	tr.NextStratum()
	tr.Submit(rect(0, 0, 100, 100))
	if tr.Current() != tr.strata[1].root {
		t.Error("first drawable of a new stratum should land on its root")
	}
	if tr.StratumIndex() != 1 {
		t.Errorf("StratumIndex() = %d, want 1", tr.StratumIndex())
	}
	order := paintOrder(tr, All)
	if len(order) != 3 {
		t.Fatalf("len = %d", len(order))
	}
	if b, _ := order[1].Bounds(); b != geom.R(10, 10, 20, 20) {
		t.Error("later stratum painted before earlier stratum content")
	}
}

func TestTree_BlurPartition(t *testing.T) {
	build := func(mark bool) *Tree {
		tr := New()
		for s := 0; s < 5; s++ {
			if s > 0 {
				tr.NextStratum()
			}
			if mark && s == 3 {
				if err := tr.MarkBlurBoundary(); err != nil {
					t.Fatal(err)
				}
			}
			tr.Submit(tagged(s, geom.R(0, 0, 10, 10)))
		}
		return tr
	}

	tr := build(true)
	before := paintOrder(tr, BeforeBlur)
	after := paintOrder(tr, AfterBlur)
	if len(before) != 3 || len(after) != 2 {
		t.Fatalf("before=%d after=%d, want 3/2", len(before), len(after))
	}
	for i, d := range before {
		if tagOf(d) != i {
			t.Errorf("before[%d] from stratum %d", i, tagOf(d))
		}
	}
	for i, d := range after {
		if tagOf(d) != 3+i {
			t.Errorf("after[%d] from stratum %d", i, tagOf(d))
		}
	}

	tr = build(false)
	if got := len(paintOrder(tr, BeforeBlur)); got != 5 {
		t.Errorf("unmarked before = %d, want 5", got)
	}
	if got := len(paintOrder(tr, AfterBlur)); got != 0 {
		t.Errorf("unmarked after = %d, want 0", got)
	}
}

func TestTree_MarkBlurTwice(t *testing.T) {
	tr := New()
	if err := tr.MarkBlurBoundary(); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if err := tr.MarkBlurBoundary(); !errors.Is(err, ErrAlreadyMarked) {
		t.Errorf("second mark = %v, want ErrAlreadyMarked", err)
	}
	tr.Reset()
	if err := tr.MarkBlurBoundary(); err != nil {
		t.Errorf("mark after reset: %v", err)
	}
}

func TestTree_ResetIdempotent(t *testing.T) {
	tr := New()
	tr.Submit(rect(0, 0, 10, 10))
	tr.NextStratum()
	tr.Submit(rect(0, 0, 10, 10))
	_ = tr.MarkBlurBoundary()

	tr.Reset()
	nodes, strata := tr.NodeCount(), tr.StratumCount()
	tr.Reset()
	if tr.NodeCount() != nodes || tr.StratumCount() != strata {
		t.Error("second Reset() changed the tree")
	}
	if tr.StratumIndex() != 0 {
		t.Errorf("StratumIndex() = %d, want 0", tr.StratumIndex())
	}
	if _, marked := tr.BlurBoundary(); marked {
		t.Error("blur mark survived reset")
	}
	if got := len(paintOrder(tr, All)); got != 0 {
		t.Errorf("reset tree still holds %d drawables", got)
	}

	tr.Submit(rect(0, 0, 10, 10))
	if got := len(paintOrder(tr, All)); got != 1 {
		t.Errorf("fresh frame holds %d drawables, want 1", got)
	}
}

func TestTree_SubmitText(t *testing.T) {
	tr := New()
	tr.Submit(rect(0, 0, 100, 20))
	panel := tr.Current()
	tr.SubmitText(draw.TextRun{
		Size:   10,
		Glyphs: []draw.PositionedGlyph{{GID: 1, X: 2, Y: 12}},
		Box:    geom.R(2, 2, 50, 15),
	})
	if tr.Current() != tr.Node(panel).Up() {
		t.Fatal("text inside panel should use the fast path")
	}
	if got := len(tr.Node(tr.Current()).Texts()); got != 1 {
		t.Errorf("Texts() len = %d, want 1", got)
	}
	// text counts for overlap tests
	tr.Submit(rect(40, 10, 60, 30))
	if tr.Current() != tr.Node(tr.Node(panel).Up()).Up() {
		t.Error("drawable overlapping text should go above it")
	}
}

func TestTree_PlaceholderLists(t *testing.T) {
	tr := New()
	tr.Submit(draw.Icon(geom.R(0, 0, 16, 16), 1, false, white))
	tr.Submit(draw.Picture(geom.R(20, 0, 40, 20), nil))
	tr.Submit(draw.Glyph(geom.R(50, 0, 60, 10), geom.R(0, 0, 1, 1), 3, white))
	root := tr.Node(0)
	if len(root.Icons()) != 1 || len(root.Pictures()) != 1 || len(root.Glyphs()) != 1 {
		t.Errorf("lists: icons=%d pictures=%d glyphs=%d",
			len(root.Icons()), len(root.Pictures()), len(root.Glyphs()))
	}
	// an icon counts for overlap
	tr.Submit(rect(5, 5, 10, 10))
	if tr.Current() == 0 {
		t.Error("drawable overlapping an icon placeholder stayed in its node")
	}
}

func TestTree_SortElements(t *testing.T) {
	tr := New()
	tr.Submit(draw.Blit(geom.R(0, 0, 10, 10), geom.R(0, 0, 1, 1), 7, white))
	tr.Submit(rect(20, 0, 30, 10))
	tr.Submit(draw.Blit(geom.R(40, 0, 50, 10), geom.R(0, 0, 1, 1), 7, white))
	tr.Submit(rect(60, 0, 70, 10))
	tr.SortElements()

	els := tr.Node(0).Elements()
	want := []gpucore.Pipeline{
		gpucore.PipelineGUI, gpucore.PipelineGUI,
		gpucore.PipelineGUITextured, gpucore.PipelineGUITextured,
	}
	for i, d := range els {
		if d.Pipeline() != want[i] {
			t.Errorf("element %d pipeline = %v, want %v", i, d.Pipeline(), want[i])
		}
	}
	// stable: rect at x=20 stays before rect at x=60
	if b, _ := els[0].Bounds(); b.X0 != 20 {
		t.Errorf("sort was not stable: first rect at %v", b)
	}
}

func TestTree_AppendMaterialized(t *testing.T) {
	tr := New()
	tr.Submit(draw.Icon(geom.R(0, 0, 16, 16), 1, false, white))
	id := tr.Current()
	tr.AppendElement(id, draw.Icon(geom.R(0, 0, 16, 16), 1, false, white).ResolveIcon(4, geom.R(0, 0, 1, 1)))
	tr.AppendGlyph(id, draw.GlyphEffect(geom.R(0, 14, 16, 15), white))
	if got := len(paintOrder(tr, All)); got != 2 {
		t.Errorf("paint order holds %d drawables, want 2", got)
	}
}
