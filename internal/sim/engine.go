// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sim

// direction enumerates the eight compass neighbors of a bucket, used
// both to fetch adjacent buckets (LeafView.NeighborBucket) and to
// index the precomputed neighbor array built once per bucket task.
type direction struct {
	dx, dy int
}

const (
	dirN = iota
	dirNE
	dirE
	dirSE
	dirS
	dirSW
	dirW
	dirNW
)

var directions = [8]direction{
	dirN:  {0, -1},
	dirNE: {1, -1},
	dirE:  {1, 0},
	dirSE: {1, 1},
	dirS:  {0, 1},
	dirSW: {-1, 1},
	dirW:  {-1, 0},
	dirNW: {-1, -1},
}

// Step submits one task per currently allocated leaf to queue and
// returns immediately; the caller must follow it with queue.Wait()
// before calling Update, per the step -> wait -> update protocol of
// spec.md §5/§6. Each task evaluates every bucket of its leaf's list
// and appends the generation's flips to changes; it never mutates the
// grid itself, so steps across leaves and across buckets within a leaf
// are independent and race-free.
func Step(grid *Grid, changes *ChangeBuffer, queue *WorkQueue) {
	grid.ForEachLeaf(func(leaf *LeafView) {
		queue.Add(func(run bool) {
			if !run {
				return
			}
			leaf.Buckets(func(b *Bucket) {
				bucketStep(leaf, b, changes)
			})
		})
	})
}

// Update applies every change buffered since the last Update, in
// buffer order, then clears the buffer. Must only be called after the
// work queue submitted by the corresponding Step has fully drained
// (spec.md §5); the double-buffering of reads (during Step, against
// the grid as it stood at generation N) against writes (here, applied
// only now) is what makes flip order within a generation irrelevant.
func Update(grid *Grid, changes *ChangeBuffer) error {
	var err error
	changes.Iterate(func(c Change) {
		if err != nil {
			return
		}
		err = grid.Set(c.X, c.Y, c.Alive)
	})
	changes.Reset()
	return err
}

// applyRule evaluates B3/S23 for one cell and appends a Change iff the
// cell's state flips.
func applyRule(changes *ChangeBuffer, x, y Coordinate, alive bool, liveNeighbors int) {
	var next bool
	if alive {
		next = liveNeighbors == 2 || liveNeighbors == 3
	} else {
		next = liveNeighbors == 3
	}
	if next != alive {
		changes.Append(x, y, next)
	}
}

// bucketStep evaluates every cell of b (its full BucketSide x
// BucketSide interior, including edges and corners) plus, for any
// compass direction where the adjacent bucket is currently absent, the
// handful of phantom-bucket cells that border b and could be born into
// existence there (spec.md §4.3).
func bucketStep(leaf *LeafView, b *Bucket, changes *ChangeBuffer) {
	var neighbors [8]*Bucket
	for d, off := range directions {
		neighbors[d] = leaf.NeighborBucket(b, off.dx, off.dy)
	}

	xp := b.BX * BucketSide
	yp := b.BY * BucketSide

	const last = BucketSide - 1

	for iy := uint16(0); iy < BucketSide; iy++ {
		for ix := uint16(0); ix < BucketSide; ix++ {
			alive := b.get(ix, iy)
			n := 0
			if ix > 0 && ix < last && iy > 0 && iy < last {
				// Interior: every neighbor is inside b itself.
				for _, off := range directions {
					if b.get(uint16(int(ix)+off.dx), uint16(int(iy)+off.dy)) {
						n++
					}
				}
			} else {
				for _, off := range directions {
					if cellLive(b, &neighbors, ix, iy, off.dx, off.dy) {
						n++
					}
				}
			}
			applyRule(changes, xp+ix, yp+iy, alive, n)
		}
	}

	phantomStep(leaf, neighbors, xp, yp, changes)
}

// cellLive resolves one neighbor of a border cell (ix, iy) of bucket b
// in offset direction (dx, dy): if the neighbor falls within b it is
// read directly, otherwise it is read from the adjacent bucket the
// neighbor cell falls in (taken from neighbors), which may be nil (an
// absent bucket contributes no live neighbors).
func cellLive(b *Bucket, neighbors *[8]*Bucket, ix, iy uint16, dx, dy int) bool {
	nx := int(ix) + dx
	ny := int(iy) + dy
	bdx, bdy := 0, 0
	if nx < 0 {
		bdx = -1
	} else if nx >= BucketSide {
		bdx = 1
	}
	if ny < 0 {
		bdy = -1
	} else if ny >= BucketSide {
		bdy = 1
	}
	if bdx == 0 && bdy == 0 {
		return b.get(uint16(nx), uint16(ny))
	}
	var nb *Bucket
	for d, off := range directions {
		if off.dx == bdx && off.dy == bdy {
			nb = neighbors[d]
		}
	}
	if nb == nil {
		return false
	}
	lx := (nx + BucketSide) % BucketSide
	ly := (ny + BucketSide) % BucketSide
	return nb.get(uint16(lx), uint16(ly))
}

// phantomStep handles births just outside b, in bucket positions that
// have no allocated Bucket of their own. Only the cells of such a
// phantom bucket that actually touch b can reach three live neighbors
// from b alone, so only those are evaluated here: the full near edge,
// including its two end cells, for an absent cardinal neighbor, and the
// single corner-touching cell for an absent diagonal neighbor. Neighbor
// counts for these cells are resolved against the live grid via
// leaf.Alive, so a phantom cell that also happens to border a second,
// unrelated live bucket is still counted correctly. An end cell can
// also be evaluated by an adjacent bucket's own phantom pass, so its
// birth may be appended twice; Update applies both records to the same
// result.
func phantomStep(leaf *LeafView, neighbors [8]*Bucket, xp, yp uint16, changes *ChangeBuffer) {
	const last = BucketSide - 1

	if neighbors[dirN] == nil {
		for i := uint16(0); i <= last; i++ {
			phantomCell(leaf, changes, xp+i, yp-1)
		}
	}
	if neighbors[dirS] == nil {
		for i := uint16(0); i <= last; i++ {
			phantomCell(leaf, changes, xp+i, yp+BucketSide)
		}
	}
	if neighbors[dirW] == nil {
		for i := uint16(0); i <= last; i++ {
			phantomCell(leaf, changes, xp-1, yp+i)
		}
	}
	if neighbors[dirE] == nil {
		for i := uint16(0); i <= last; i++ {
			phantomCell(leaf, changes, xp+BucketSide, yp+i)
		}
	}
	if neighbors[dirNW] == nil {
		phantomCell(leaf, changes, xp-1, yp-1)
	}
	if neighbors[dirNE] == nil {
		phantomCell(leaf, changes, xp+BucketSide, yp-1)
	}
	if neighbors[dirSW] == nil {
		phantomCell(leaf, changes, xp-1, yp+BucketSide)
	}
	if neighbors[dirSE] == nil {
		phantomCell(leaf, changes, xp+BucketSide, yp+BucketSide)
	}
}

// phantomCell evaluates one cell known to have no backing bucket (so
// it is necessarily dead) by counting its live neighbors directly
// against the grid, via leaf's read-only descent.
func phantomCell(leaf *LeafView, changes *ChangeBuffer, x, y Coordinate) {
	n := 0
	for _, off := range directions {
		if leaf.Alive(x+Coordinate(off.dx), y+Coordinate(off.dy)) {
			n++
		}
	}
	applyRule(changes, x, y, false, n)
}
