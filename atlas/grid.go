// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package atlas

// grid tracks occupancy of uniform square cells laid out row-major.
type grid struct {
	cell int // cell side in pixels
	cols int // cells per row (and rows, the atlas is square)
	used []bool

	// first is a lower bound of the first free cell index
	first int
}

func newGrid(size, cell int) grid {
	cols := size / cell
	if cols < 1 {
		cols = 1
	}
	return grid{cell: cell, cols: cols, used: make([]bool, cols*cols)}
}

// capacity returns the number of cells.
func (g *grid) capacity() int { return len(g.used) }

// alloc claims the first free cell scanning left-to-right, top-to-bottom.
func (g *grid) alloc() (int, bool) {
	for i := g.first; i < len(g.used); i++ {
		if !g.used[i] {
			g.used[i] = true
			g.first = i + 1
			return i, true
		}
	}
	g.first = len(g.used)
	return 0, false
}

func (g *grid) free(i int) {
	g.used[i] = false
	if i < g.first {
		g.first = i
	}
}

// origin returns the top-left pixel of cell i.
func (g *grid) origin(i int) (x, y int) {
	return (i % g.cols) * g.cell, (i / g.cols) * g.cell
}
