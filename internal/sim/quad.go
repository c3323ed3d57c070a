// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sim

import "fmt"

// Coordinate is the fixed-width unsigned cell coordinate from spec.md
// §3. All arithmetic on it wraps silently, by construction (Go's
// unsigned integer overflow is defined wraparound).
type Coordinate = uint16

// CoordWidth is W: the plane is [0, 2^W) x [0, 2^W).
const CoordWidth = 16

// QuadSplit is QUADSZ: the maximum number of buckets a leaf may hold
// before it must split.
const QuadSplit = 4

// bucketCoordSide is ceil(2^CoordWidth / BucketSide), the side length
// of the root's bounds in bucket-coordinates.
const bucketCoordSide = (1 << CoordWidth) / BucketSide

// quad is one node of the region-quadtree. It is either an internal
// node with exactly four children, or a leaf holding a bucket list.
// Bounds are in bucket-coordinates: [west, east) x [north, south).
type quad struct {
	west, east, north, south uint16
	parent                   *quad
	count                    int

	leaf bool

	children [4]*quad // nw, ne, sw, se; valid iff !leaf

	head, tail *Bucket // valid iff leaf
}

func newRoot() *quad {
	return &quad{
		west: 0, east: bucketCoordSide,
		north: 0, south: bucketCoordSide,
		leaf: true,
	}
}

// side returns east-west (== south-north), the bucket-coordinate side
// length of this node's bounds.
func (q *quad) side() uint16 {
	return q.east - q.west
}

// containsBucketCoord reports whether the bucket at (bx, by) falls
// within this node's bounds.
func (q *quad) containsBucketCoord(bx, by uint16) bool {
	return q.west <= bx && bx < q.east &&
		q.north <= by && by < q.south
}

// containsCell reports whether cell (x, y) falls within this node's
// bounds, expressed in bucket-coordinates.
func (q *quad) containsCell(x, y Coordinate) bool {
	return q.containsBucketCoord(x/BucketSide, y/BucketSide)
}

// findQuad implements the "upward-then-downward" descent of spec.md
// §4.1: starting at any node, ascend to an ancestor that contains
// (x, y), then descend to the unique leaf. Returns nil if (x, y) lies
// outside the whole tree (i.e. it ascended past the root).
func findQuad(start *quad, x, y Coordinate) *quad {
	q := start
	for q != nil {
		if q.containsCell(x, y) {
			for !q.leaf {
				next := q.childContaining(x, y)
				if next == nil {
					panic(fmt.Sprintf("lifesim: no child of quad[%d,%d)x[%d,%d) contains cell (%d,%d)",
						q.west, q.east, q.north, q.south, x, y))
				}
				q = next
			}
			return q
		}
		q = q.parent
	}
	return nil
}

// childContaining returns the one child whose bounds contain (x, y),
// asserting uniqueness as spec.md §4.1 requires.
func (q *quad) childContaining(x, y Coordinate) *quad {
	var found *quad
	for _, c := range q.children {
		if c.containsCell(x, y) {
			if found != nil {
				panic("lifesim: cell claimed by more than one child quad")
			}
			found = c
		}
	}
	return found
}

// findBucket scans the leaf containing (x, y) for the bucket covering
// it. leafOut, if non-nil, receives the leaf regardless of whether a
// bucket was found (so callers can insert into it).
func findBucket(root *quad, x, y Coordinate, leafOut **quad) *Bucket {
	leaf := findQuad(root, x, y)
	if leafOut != nil {
		*leafOut = leaf
	}
	if leaf == nil {
		return nil
	}
	bx, by := x/BucketSide, y/BucketSide
	for b := leaf.head; b != nil; b = b.next {
		if b.BX == bx && b.BY == by {
			return b
		}
	}
	return nil
}

// ErrSplitUnsupported is returned when a leaf at minimal size (side 1,
// a single bucket slot) overflows QuadSplit: spec.md §4.1 declares this
// outside the design's contract, and §9 requires it fail cleanly rather
// than loop or recurse forever.
var ErrSplitUnsupported = fmt.Errorf("lifesim: cannot split a minimal-size (1x1) quad leaf")

// split replaces leaf (in place) with four child leaves of half the
// side, redistributing its existing buckets. It does not recurse even
// if a child ends up with >= QuadSplit buckets (spec.md §4.1, §9): at
// most QuadSplit buckets exist at the time of a split, and geometry
// guarantees at most QuadSplit of them can land in any one child when
// QuadSplit == 4, so a freshly split child is never itself overfull by
// more than one pending insertion.
func split(leaf *quad) error {
	if leaf.side() < 2 {
		return ErrSplitUnsupported
	}

	half := leaf.side() / 2
	hcenter := leaf.east - half
	vcenter := leaf.south - half

	bounds := [4][4]uint16{
		// west, east, north, south
		{leaf.west, hcenter, leaf.north, vcenter}, // nw
		{hcenter, leaf.east, leaf.north, vcenter}, // ne
		{leaf.west, hcenter, vcenter, leaf.south}, // sw
		{hcenter, leaf.east, vcenter, leaf.south}, // se
	}

	children := [4]*quad{}
	for i := range children {
		children[i] = &quad{
			west: bounds[i][0], east: bounds[i][1],
			north: bounds[i][2], south: bounds[i][3],
			parent: leaf,
			leaf:   true,
		}
	}

	head := leaf.head
	leaf.head, leaf.tail = nil, nil
	leaf.leaf = false
	leaf.children = children

	for cur := head; cur != nil; {
		next := cur.next
		cur.next, cur.prev = nil, nil

		child := leaf.childContaining(cur.BX*BucketSide, cur.BY*BucketSide)
		if child == nil {
			panic("lifesim: bucket does not belong to any child quad after split")
		}
		child.head, child.tail = appendBucket(child.head, child.tail, cur)
		child.count++

		cur = next
	}

	return nil
}

// incrementCount bumps count on q and every ancestor up to the root.
func incrementCount(q *quad) {
	for cur := q; cur != nil; cur = cur.parent {
		cur.count++
	}
}

// decrementCount mirrors incrementCount for bucket removal.
func decrementCount(q *quad) {
	for cur := q; cur != nil; cur = cur.parent {
		cur.count--
	}
}
