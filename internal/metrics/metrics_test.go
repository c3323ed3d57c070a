// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClusterCockpit/lifesim/internal/sim"
)

func TestCollectorObserveGeneration(t *testing.T) {
	c := New()
	ctx := sim.NewContext(sim.Options{Workers: 1})
	defer ctx.Close()

	require.NoError(t, ctx.Grid.Set(1, 1, true))
	require.NoError(t, ctx.Advance())

	c.ObserveGeneration(ctx, 3, 5*time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(c.generation), 0.001)
	assert.InDelta(t, 3, testutil.ToFloat64(c.changes), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(c.updateTotal), 0.001)
	assert.InDelta(t, float64(ctx.Grid.MaxDepth()), testutil.ToFloat64(c.quadDepth), 0.001)
}

func TestCollectorQuadDepthTracksSplits(t *testing.T) {
	c := New()
	ctx := sim.NewContext(sim.Options{Workers: 1})
	defer ctx.Close()

	assert.Equal(t, 0, ctx.Grid.MaxDepth())

	c.ObserveGeneration(ctx, 0, time.Millisecond)
	assert.InDelta(t, 0, testutil.ToFloat64(c.quadDepth), 0.001)

	// Five buckets' worth of distinct cells force a split once the fifth
	// is written (QuadSplit == 4), the same pattern grid_test.go uses.
	coords := [][2]sim.Coordinate{
		{0, 0},
		{sim.BucketSide, 0},
		{0, sim.BucketSide},
		{sim.BucketSide, sim.BucketSide},
		{2 * sim.BucketSide, 0},
	}
	for _, c := range coords {
		require.NoError(t, ctx.Grid.Set(c[0], c[1], true))
	}
	require.Greater(t, ctx.Grid.MaxDepth(), 0)

	c.ObserveGeneration(ctx, 5, time.Millisecond)
	assert.InDelta(t, float64(ctx.Grid.MaxDepth()), testutil.ToFloat64(c.quadDepth), 0.001)
}

func TestCountLiveCells(t *testing.T) {
	g := sim.NewGrid()
	require.NoError(t, g.Set(1, 1, true))
	require.NoError(t, g.Set(2, 2, true))
	require.NoError(t, g.Set(40, 40, true))

	assert.Equal(t, 3, CountLiveCells(g))
}
