// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics exposes the running simulation's state as Prometheus
// gauges and counters, registered against a private registry so a
// process embedding lifesim as a library does not collide with its
// own default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ClusterCockpit/lifesim/internal/sim"
)

const namespace = "lifesim"

// Collector holds the set of metrics one running Context reports, and
// the private registry they are registered against.
type Collector struct {
	Registry *prometheus.Registry

	generation   prometheus.Gauge
	liveCells    prometheus.Gauge
	buckets      prometheus.Gauge
	changes      prometheus.Gauge
	quadDepth    prometheus.Gauge
	stepSeconds  prometheus.Histogram
	updateTotal  prometheus.Counter
}

// New creates a Collector and registers its metrics against a fresh
// registry.
func New() *Collector {
	c := &Collector{
		Registry: prometheus.NewRegistry(),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation",
			Help:      "current generation number",
		}),
		liveCells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_cells",
			Help:      "number of live cells after the last update",
		}),
		buckets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buckets",
			Help:      "number of allocated grid buckets",
		}),
		changes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_change_count",
			Help:      "number of cell flips in the last generation",
		}),
		quadDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quad_depth",
			Help:      "depth of the deepest leaf in the quadtree after the last update",
		}),
		stepSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_seconds",
			Help:      "wall-clock time spent in one step+wait+update cycle",
			Buckets:   prometheus.DefBuckets,
		}),
		updateTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "total number of completed generations",
		}),
	}

	c.Registry.MustRegister(c.generation, c.liveCells, c.buckets, c.changes, c.quadDepth, c.stepSeconds, c.updateTotal)
	return c
}

// ObserveGeneration records the state of ctx, the number of cells that
// flipped in the last generation, and how long the generation's
// step+wait+update cycle took. The caller is expected to call this once
// per generation, after Update, passing the change count read before
// Update reset the change buffer.
func (c *Collector) ObserveGeneration(ctx *sim.Context, flips int, elapsed time.Duration) {
	c.generation.Set(float64(ctx.Generation))
	c.buckets.Set(float64(ctx.Grid.BucketCount()))
	c.changes.Set(float64(flips))
	c.quadDepth.Set(float64(ctx.Grid.MaxDepth()))
	c.stepSeconds.Observe(elapsed.Seconds())
	c.updateTotal.Inc()
}

// SetLiveCells records the current total live-cell count. It is kept
// separate from ObserveGeneration because counting live cells requires
// a full grid walk, which a caller may want to do at a lower frequency
// than every generation.
func (c *Collector) SetLiveCells(n int) {
	c.liveCells.Set(float64(n))
}

// CountLiveCells walks every bucket of grid and returns the number of
// set bits, for callers that want an exact live-cell count without
// threading one through from the engine.
func CountLiveCells(grid *sim.Grid) int {
	total := 0
	grid.ForEachLeaf(func(leaf *sim.LeafView) {
		leaf.Buckets(func(b *sim.Bucket) {
			xp, yp := b.BX*sim.BucketSide, b.BY*sim.BucketSide
			for iy := sim.Coordinate(0); iy < sim.BucketSide; iy++ {
				for ix := sim.Coordinate(0); ix < sim.BucketSide; ix++ {
					if grid.Get(xp+ix, yp+iy) {
						total++
					}
				}
			}
		})
	})
	return total
}
