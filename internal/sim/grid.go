// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sim implements the hierarchical sparse grid, change buffer,
// generational engine and work queue that make up the parallel Life
// simulation core.
package sim

import "errors"

// ErrAllocFailed is returned by Grid.Set when growing the tree (a new
// bucket or a leaf split) cannot be completed. Per spec.md §7 the grid
// is left unchanged and the write is dropped; the caller may retry or
// surface the error, but the tree itself is never left partially split.
//
// In Go this can only realistically happen by construction (e.g. a
// deliberately injected allocator failure in tests); ordinary Set calls
// do not return it.
var ErrAllocFailed = errors.New("lifesim: allocation failed during grid write")

// Grid is the region-quadtree of buckets described in spec.md §3-4.1.
// Get and the read-only lookups used by the engine during step are
// safe for unsynchronized concurrent use; Set must only ever be called
// by a single writer at a time (the driver's update phase) — see
// spec.md §5. The tree carries no internal lock of its own; callers
// must enforce that phase separation.
type Grid struct {
	root *quad
}

// NewGrid returns an empty grid with bounds covering the entire
// coordinate plane.
func NewGrid() *Grid {
	return &Grid{root: newRoot()}
}

// Get returns whether cell (x, y) is alive.
func (g *Grid) Get(x, y Coordinate) bool {
	b := findBucket(g.root, x, y, nil)
	if b == nil {
		return false
	}
	return b.get(x%BucketSide, y%BucketSide)
}

// Set writes the alive/dead state of cell (x, y). Writes to the same
// cell are idempotent. Setting a dead cell that has no backing bucket
// is a no-op; setting a live cell allocates a bucket (splitting its
// leaf first if necessary). If the last live bit of a bucket is
// cleared, the bucket is unlinked and released and all ancestor counts
// are decremented (spec.md §4.1's "garbage collection").
func (g *Grid) Set(x, y Coordinate, v bool) error {
	var leaf *quad
	b := findBucket(g.root, x, y, &leaf)
	if leaf == nil {
		// Point lies outside the whole tree; cannot happen for any
		// coordinate in [0, 2^CoordWidth) given the root's bounds.
		return ErrAllocFailed
	}

	if b == nil {
		if !v {
			return nil
		}

		if leaf.count >= QuadSplit {
			if err := split(leaf); err != nil {
				return err
			}
			leaf = findQuad(leaf, x, y)
		}

		nb := newBucket(x/BucketSide, y/BucketSide)
		leaf.head, leaf.tail = appendBucket(leaf.head, leaf.tail, nb)
		incrementCount(leaf)
		b = nb
	}

	b.set(x%BucketSide, y%BucketSide, v)

	if !v && b.empty() {
		leaf.head, leaf.tail = unlink(leaf.head, leaf.tail, b)
		decrementCount(leaf)
	}

	return nil
}

// BucketCount returns the total number of live buckets in the grid.
func (g *Grid) BucketCount() int {
	return g.root.count
}

// ForEachLeaf calls fn once for every non-empty leaf node currently in
// the tree, via a single-threaded pre-order traversal. Per spec.md
// §4.3 this is how the engine discovers the per-leaf tasks it submits
// to the work queue; fn must not itself mutate the grid.
func (g *Grid) ForEachLeaf(fn func(leaf *LeafView)) {
	forEachLeaf(g.root, fn)
}

func forEachLeaf(q *quad, fn func(leaf *LeafView)) {
	if q.leaf {
		if q.head != nil {
			fn(&LeafView{q: q})
		}
		return
	}
	for _, c := range q.children {
		forEachLeaf(c, fn)
	}
}

// MaxDepth returns the depth of the deepest leaf currently in the tree
// (the root alone is depth 0), a cheap read-only walk used to report
// how unevenly the live cells are distributed across the quadtree.
func (g *Grid) MaxDepth() int {
	return maxDepth(g.root)
}

func maxDepth(q *quad) int {
	if q.leaf {
		return 0
	}
	depth := 0
	for _, c := range q.children {
		if d := maxDepth(c) + 1; d > depth {
			depth = d
		}
	}
	return depth
}

// LeafView is a read-only handle to one leaf's bucket list, passed to
// engine tasks. It intentionally exposes nothing that would let a task
// mutate the tree: the grid is read-only to workers during step
// (spec.md §5).
type LeafView struct {
	q *quad
}

// Buckets calls fn for every bucket stored in this leaf, in list order.
func (l *LeafView) Buckets(fn func(b *Bucket)) {
	for b := l.q.head; b != nil; b = b.next {
		fn(b)
	}
}

// NeighborBucket returns the bucket adjacent to b in direction
// (dx, dy) in {-1,0,1}^2 \ {(0,0)}, or nil if no such bucket is
// currently allocated. Bucket-coordinate arithmetic wraps per spec.md
// §3/§4.3. The lookup starts its upward-then-downward descent (spec.md
// §4.1) from this leaf, a read-only traversal of `parent`/`children`
// pointers that touches no shared mutable state, so concurrent lookups
// from different worker goroutines during the same step are race-free.
func (l *LeafView) NeighborBucket(b *Bucket, dx, dy int) *Bucket {
	nbx := wrapBucketCoord(int(b.BX) + dx)
	nby := wrapBucketCoord(int(b.BY) + dy)
	nx := nbx * BucketSide
	ny := nby * BucketSide
	return findBucket(l.q, nx, ny, nil)
}

// wrapBucketCoord wraps a signed bucket-coordinate delta into
// [0, bucketCoordSide), matching the cell plane's unsigned wraparound:
// BucketSide evenly divides 2^CoordWidth, so wrapping a cell coordinate
// by 2^CoordWidth is equivalent to wrapping its bucket coordinate by
// bucketCoordSide.
func wrapBucketCoord(v int) uint16 {
	v %= bucketCoordSide
	if v < 0 {
		v += bucketCoordSide
	}
	return uint16(v)
}

// Alive looks up the live/dead state of an arbitrary cell starting its
// descent from this leaf, the same read-only tree walk NeighborBucket
// uses. Used by the engine to evaluate phantom-bucket cells, whose
// neighbors may belong to buckets other than the one driving the
// lookup.
func (l *LeafView) Alive(x, y Coordinate) bool {
	b := findBucket(l.q, x, y, nil)
	if b == nil {
		return false
	}
	return b.get(x%BucketSide, y%BucketSide)
}
