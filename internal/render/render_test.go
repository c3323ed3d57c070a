// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClusterCockpit/lifesim/internal/patternio"
	"github.com/ClusterCockpit/lifesim/internal/sim"
)

func TestNewViewFallsBackToDefaultWithNoBounds(t *testing.T) {
	v := NewView(&bytes.Buffer{}, patternio.Bounds{}, 0, 0)
	assert.Equal(t, defaultWidth, v.Width)
	assert.Equal(t, defaultHeight, v.Height)
	assert.Equal(t, sim.Coordinate(0), v.OriginX)
	assert.Equal(t, sim.Coordinate(0), v.OriginY)
}

func TestNewViewFramesBounds(t *testing.T) {
	bounds := patternio.Bounds{
		West: 10, East: 13, North: 10, South: 13,
		WestSet: true, EastSet: true, NorthSet: true, SouthSet: true,
	}
	v := NewView(&bytes.Buffer{}, bounds, 80, 24)
	assert.Equal(t, sim.Coordinate(10), v.OriginX)
	assert.Equal(t, sim.Coordinate(10), v.OriginY)
	assert.Equal(t, 3, v.Width)
	assert.Equal(t, 3, v.Height)
}

func TestDrawFullRendersLiveAndDeadCells(t *testing.T) {
	g := sim.NewGrid()
	require.NoError(t, g.Set(1, 0, true))

	var buf bytes.Buffer
	v := &View{w: &buf, OriginX: 0, OriginY: 0, Width: 3, Height: 1}
	v.DrawFull(g)

	assert.Equal(t, ".#.\n", buf.String())
}

func TestDrawChangesOnlyTouchesCellsInsideViewport(t *testing.T) {
	changes := sim.NewChangeBuffer()
	changes.Append(1, 0, true)
	changes.Append(50, 50, true) // outside the viewport, must be skipped

	var buf bytes.Buffer
	v := &View{w: &buf, OriginX: 0, OriginY: 0, Width: 3, Height: 1}
	v.DrawChanges(changes)

	out := buf.String()
	assert.True(t, strings.Contains(out, "\x1b[1;2H#"))
	assert.Equal(t, 1, strings.Count(out, "\x1b["))
}
