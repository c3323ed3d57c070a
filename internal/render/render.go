// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package render draws a plain terminal view of the simulation: a full
// '#'/'.' frame of the viewport, then ANSI cursor-addressed updates of
// only the cells that changed each generation. Grounded on
// original_source/src/draw.c's `draw`, which likewise redraws the whole
// viewport once (`data->dirty`) and thereafter only touches the cells
// named by the change buffer — translated from SDL surface writes to
// terminal character cells, since no pack dependency targets terminal
// Life rendering (kept deliberately minimal, no curses/GUI library).
package render

import (
	"fmt"
	"io"

	"github.com/ClusterCockpit/lifesim/internal/patternio"
	"github.com/ClusterCockpit/lifesim/internal/sim"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	alive         = '#'
	dead          = '.'
)

// View is a fixed-size terminal viewport onto the grid, anchored at
// (OriginX, OriginY).
type View struct {
	w io.Writer

	OriginX, OriginY sim.Coordinate
	Width, Height    int
}

// NewView derives a viewport framed around bounds (clamped to
// maxWidth/maxHeight), the terminal-rendering analogue of draw.c's
// view.x/y/w/h. An unset bounds (no pattern loaded) falls back to a
// defaultWidth x defaultHeight view at the origin.
func NewView(w io.Writer, bounds patternio.Bounds, maxWidth, maxHeight int) *View {
	if maxWidth <= 0 {
		maxWidth = defaultWidth
	}
	if maxHeight <= 0 {
		maxHeight = defaultHeight
	}

	v := &View{w: w, Width: maxWidth, Height: maxHeight}
	if !bounds.WestSet {
		return v
	}

	v.OriginX, v.OriginY = bounds.West, bounds.North

	if span := int(bounds.East) - int(bounds.West); span > 0 && span < maxWidth {
		v.Width = span
	}
	if span := int(bounds.South) - int(bounds.North); span > 0 && span < maxHeight {
		v.Height = span
	}

	return v
}

// DrawFull writes the full viewport to w, one '#'/'.' character per
// cell: draw.c's `dirty` full-redraw branch, minus the SDL surface.
func (v *View) DrawFull(grid *sim.Grid) {
	row := make([]byte, v.Width+1)
	row[v.Width] = '\n'

	for dy := 0; dy < v.Height; dy++ {
		y := v.OriginY + sim.Coordinate(dy)
		for dx := 0; dx < v.Width; dx++ {
			x := v.OriginX + sim.Coordinate(dx)
			if grid.Get(x, y) {
				row[dx] = alive
			} else {
				row[dx] = dead
			}
		}
		v.w.Write(row)
	}
}

// DrawChanges repositions the cursor to each changed cell that falls
// within the viewport and rewrites just that character: draw.c's
// else-branch, which only touches the pixels named by the change
// buffer instead of redrawing the whole surface.
func (v *View) DrawChanges(changes *sim.ChangeBuffer) {
	changes.Iterate(func(c sim.Change) {
		dx := int(c.X) - int(v.OriginX)
		dy := int(c.Y) - int(v.OriginY)
		if dx < 0 || dy < 0 || dx >= v.Width || dy >= v.Height {
			return
		}

		ch := byte(dead)
		if c.Alive {
			ch = alive
		}
		fmt.Fprintf(v.w, "\x1b[%d;%dH%c", dy+1, dx+1, ch)
	})
}
