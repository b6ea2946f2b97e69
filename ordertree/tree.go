// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package ordertree places drawables into paint order without sorting.
//
// A Tree is a sequence of strata. Each stratum is a chain of nodes linked
// by up/down references; painting walks each chain from its root upward.
// A drawable is inserted strictly above every earlier drawable of its
// stratum whose bounds it intersects, so drawables sharing a node never
// overlap and may be reordered freely for batching.
//
// Nodes live in an arena and are referenced by NodeID. The tree owns all
// nodes; Reset drops them while keeping their storage for the next frame.
package ordertree

import (
	"errors"
	"slices"

	"github.com/gogpu/uibatch/draw"
	"github.com/gogpu/uibatch/geom"
)

// ErrAlreadyMarked is returned when a blur boundary is marked twice in
// one frame.
var ErrAlreadyMarked = errors.New("ordertree: blur boundary already marked")

// NodeID indexes a node in the tree's arena.
type NodeID int32

// None is the absent node reference.
const None NodeID = -1

// Node holds drawables of one paint layer.
type Node struct {
	up, down NodeID
	stratum  int

	// union of the bounds of everything recorded here, for quick rejection
	covered geom.Rect

	elements []draw.Drawable
	glyphs   []draw.Drawable
	icons    []draw.Drawable
	texts    []draw.TextRun
	pictures []draw.Drawable
}

// Up returns the node painted directly above n, or None.
func (n *Node) Up() NodeID { return n.up }

// Down returns the node painted directly below n, or None. It is the
// node's parent in the chain.
func (n *Node) Down() NodeID { return n.down }

// Stratum returns the index of the stratum owning n.
func (n *Node) Stratum() int { return n.stratum }

// Elements returns rectangles, blits, glyph effects and resolved
// placeholders recorded at n.
func (n *Node) Elements() []draw.Drawable { return n.elements }

// Glyphs returns glyph drawables recorded at n.
func (n *Node) Glyphs() []draw.Drawable { return n.glyphs }

// Icons returns icon placeholders recorded at n.
func (n *Node) Icons() []draw.Drawable { return n.icons }

// Texts returns text placeholders recorded at n.
func (n *Node) Texts() []draw.TextRun { return n.texts }

// Pictures returns embedded content placeholders recorded at n.
func (n *Node) Pictures() []draw.Drawable { return n.pictures }

// Len returns the number of recorded drawables and placeholders.
func (n *Node) Len() int {
	return len(n.elements) + len(n.glyphs) + len(n.icons) + len(n.texts) + len(n.pictures)
}

func (n *Node) clearLists() {
	clear(n.elements)
	clear(n.glyphs)
	clear(n.icons)
	clear(n.texts)
	clear(n.pictures)
	n.elements = n.elements[:0]
	n.glyphs = n.glyphs[:0]
	n.icons = n.icons[:0]
	n.texts = n.texts[:0]
	n.pictures = n.pictures[:0]
	n.covered = geom.Rect{}
}

func (n *Node) intersects(b geom.Rect) bool {
	if !n.covered.Intersects(b) {
		return false
	}
	for _, list := range [...][]draw.Drawable{n.elements, n.glyphs, n.icons, n.pictures} {
		for i := range list {
			if db, ok := list[i].Bounds(); ok && db.Intersects(b) {
				return true
			}
		}
	}
	for i := range n.texts {
		if tb, ok := n.texts[i].Bounds(); ok && tb.Intersects(b) {
			return true
		}
	}
	return false
}

type stratum struct {
	root, top NodeID
}

// Range selects strata relative to the blur boundary.
type Range uint8

// Ranges.
const (
	All Range = iota
	BeforeBlur
	AfterBlur
)

// Tree is a render-order tree. The zero value is not usable; call New.
type Tree struct {
	nodes  []Node
	strata []stratum

	current    NodeID
	lastBounds geom.Rect
	hasLast    bool

	blurAt  int
	blurSet bool

	submitted int
}

// New returns an empty tree positioned at stratum 0.
func New() *Tree {
	t := &Tree{}
	t.Reset()
	return t
}

// Reset drops all nodes and strata and returns to stratum 0. Calling it
// twice in a row leaves the tree in the same state.
func (t *Tree) Reset() {
	for i := range t.nodes {
		t.nodes[i].clearLists()
	}
	t.nodes = t.nodes[:0]
	t.strata = t.strata[:0]
	t.hasLast = false
	t.lastBounds = geom.Rect{}
	t.blurAt, t.blurSet = 0, false
	t.submitted = 0
	t.startStratum()
}

func (t *Tree) startStratum() {
	root := t.newNode(None, len(t.strata))
	t.strata = append(t.strata, stratum{root: root, top: root})
	t.current = root
	t.hasLast = false
}

func (t *Tree) newNode(down NodeID, stratum int) NodeID {
	id := NodeID(len(t.nodes))
	if len(t.nodes) < cap(t.nodes) {
		t.nodes = t.nodes[:len(t.nodes)+1]
	} else {
		t.nodes = append(t.nodes, Node{})
	}
	n := &t.nodes[id]
	n.up, n.down, n.stratum = None, down, stratum
	return id
}

// upOf returns the node above id, creating it if absent.
func (t *Tree) upOf(id NodeID) NodeID {
	if up := t.nodes[id].up; up != None {
		return up
	}
	stratum := t.nodes[id].stratum
	up := t.newNode(id, stratum)
	t.nodes[id].up = up
	if s := &t.strata[stratum]; s.top == id {
		s.top = up
	}
	return up
}

// place finds the node for a drawable with bounds b.
func (t *Tree) place(b geom.Rect) NodeID {
	if t.hasLast && t.lastBounds.Contains(b) {
		return t.upOf(t.current)
	}
	s := t.strata[len(t.strata)-1]
	for id := s.top; id != None; id = t.nodes[id].down {
		if t.nodes[id].intersects(b) {
			return t.upOf(id)
		}
	}
	return s.root
}

func (t *Tree) record(b geom.Rect) NodeID {
	id := t.place(b)
	n := &t.nodes[id]
	n.covered = n.covered.Union(b)
	t.current = id
	t.lastBounds = b
	t.hasLast = true
	t.submitted++
	return id
}

// Submit inserts d above every earlier drawable of the current stratum
// that it overlaps. Invisible drawables are ignored.
func (t *Tree) Submit(d draw.Drawable) {
	b, ok := d.Bounds()
	if !ok {
		return
	}
	id := t.record(b)
	n := &t.nodes[id]
	switch d.Kind() {
	case draw.KindRect, draw.KindBlit, draw.KindGlyphEffect:
		n.elements = append(n.elements, d)
	case draw.KindGlyph:
		n.glyphs = append(n.glyphs, d)
	case draw.KindIcon:
		n.icons = append(n.icons, d)
	case draw.KindPicture:
		n.pictures = append(n.pictures, d)
	default:
		panic("ordertree: unknown drawable kind " + d.Kind().String())
	}
}

// SubmitText inserts a text placeholder like Submit does for drawables.
func (t *Tree) SubmitText(run draw.TextRun) {
	b, ok := run.Bounds()
	if !ok {
		return
	}
	id := t.record(b)
	t.nodes[id].texts = append(t.nodes[id].texts, run)
}

// AppendElement records d at node id without placement. It is used to
// materialize placeholders into the node that holds them.
func (t *Tree) AppendElement(id NodeID, d draw.Drawable) {
	n := &t.nodes[id]
	n.elements = append(n.elements, d)
}

// AppendGlyph records a glyph or glyph effect at node id without placement.
func (t *Tree) AppendGlyph(id NodeID, d draw.Drawable) {
	n := &t.nodes[id]
	n.glyphs = append(n.glyphs, d)
}

// NextStratum starts a new independent chain. Later drawables never
// interleave with earlier strata.
func (t *Tree) NextStratum() {
	t.startStratum()
}

// StratumIndex returns the index of the current stratum.
func (t *Tree) StratumIndex() int { return len(t.strata) - 1 }

// StratumCount returns the number of strata.
func (t *Tree) StratumCount() int { return len(t.strata) }

// MarkBlurBoundary records the current stratum as the first one painted
// after the full-screen blur.
func (t *Tree) MarkBlurBoundary() error {
	if t.blurSet {
		return ErrAlreadyMarked
	}
	t.blurAt, t.blurSet = t.StratumIndex(), true
	return nil
}

// BlurBoundary returns the first stratum after the blur and whether a
// boundary was marked.
func (t *Tree) BlurBoundary() (int, bool) { return t.blurAt, t.blurSet }

// Strata returns the half-open stratum index range selected by r.
func (t *Tree) Strata(r Range) (lo, hi int) {
	n := len(t.strata)
	split := n
	if t.blurSet {
		split = t.blurAt
	}
	switch r {
	case BeforeBlur:
		return 0, split
	case AfterBlur:
		return split, n
	default:
		return 0, n
	}
}

// Current returns the node the last drawable was inserted into, or the
// current stratum root when nothing was inserted since it started.
func (t *Tree) Current() NodeID { return t.current }

// Node returns the node with the given ID.
func (t *Tree) Node(id NodeID) *Node { return &t.nodes[id] }

// NodeCount returns the number of nodes in the arena. Node IDs are
// 0..NodeCount()-1.
func (t *Tree) NodeCount() int { return len(t.nodes) }

// Submitted returns how many visible drawables and text runs were submitted.
func (t *Tree) Submitted() int { return t.submitted }

// ForEachInPaintOrder calls visit for every node of the selected strata,
// lowest paint layer first. visit must not modify the tree.
func (t *Tree) ForEachInPaintOrder(r Range, visit func(id NodeID, n *Node)) {
	lo, hi := t.Strata(r)
	for s := lo; s < hi; s++ {
		for id := t.strata[s].root; id != None; id = t.nodes[id].up {
			visit(id, &t.nodes[id])
		}
	}
}

// SortElements stably orders each node's element list by batching key so
// that equal keys become adjacent. Elements of one node never overlap,
// so their relative order does not affect the painted result.
func (t *Tree) SortElements() {
	for i := range t.nodes {
		slices.SortStableFunc(t.nodes[i].elements, compareDrawables)
	}
}

func compareDrawables(a, b draw.Drawable) int {
	ka, kb := a.Key(), b.Key()
	switch {
	case ka.Less(kb):
		return -1
	case kb.Less(ka):
		return 1
	default:
		return 0
	}
}
