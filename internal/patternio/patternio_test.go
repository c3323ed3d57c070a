// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package patternio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClusterCockpit/lifesim/internal/sim"
)

func TestLoadRLEGlider(t *testing.T) {
	const rle = "#N Glider\n#C comment\nx = 3, y = 3, rule = B3/S23\nbo$2bo$3o!\n"

	g := sim.NewGrid()
	bounds, err := LoadRLE(strings.NewReader(rle), g, 10, 10)
	require.NoError(t, err)

	assert.True(t, g.Get(11, 10))
	assert.True(t, g.Get(12, 11))
	assert.True(t, g.Get(10, 12))
	assert.True(t, g.Get(11, 12))
	assert.True(t, g.Get(12, 12))
	assert.False(t, g.Get(10, 10))

	assert.Equal(t, sim.Coordinate(10), bounds.West)
	assert.Equal(t, sim.Coordinate(10), bounds.North)
	assert.Equal(t, sim.Coordinate(13), bounds.East)
	assert.Equal(t, sim.Coordinate(13), bounds.South)
}

func TestLoadRLEMissingTerminatorErrors(t *testing.T) {
	g := sim.NewGrid()
	_, err := LoadRLE(strings.NewReader("3o"), g, 0, 0)
	assert.Error(t, err)
}

func TestLoadRLERejectsUnknownTag(t *testing.T) {
	g := sim.NewGrid()
	_, err := LoadRLE(strings.NewReader("3x!"), g, 0, 0)
	assert.Error(t, err)
}

func TestLoadCellsBlinker(t *testing.T) {
	const cells = "!Name: Blinker\nOOO\n"

	g := sim.NewGrid()
	bounds, err := LoadCells(strings.NewReader(cells), g, 5, 5)
	require.NoError(t, err)

	assert.True(t, g.Get(5, 5))
	assert.True(t, g.Get(6, 5))
	assert.True(t, g.Get(7, 5))
	assert.Equal(t, sim.Coordinate(8), bounds.East)
	assert.Equal(t, sim.Coordinate(6), bounds.South)
}

func TestLoadCellsRejectsInvalidCharacter(t *testing.T) {
	g := sim.NewGrid()
	_, err := LoadCells(strings.NewReader("OX."), g, 0, 0)
	assert.Error(t, err)
}

func TestParseCount(t *testing.T) {
	n, err := ParseCount("")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = ParseCount("12")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = ParseCount("abc")
	assert.Error(t, err)
}
