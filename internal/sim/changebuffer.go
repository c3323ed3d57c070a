// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sim

import "sync"

// initialChangeCapacity is the capacity a ChangeBuffer grows to on its
// first overflow, matching spec.md §3's "Capacity doubles on overflow
// starting from 8".
const initialChangeCapacity = 8

// Change is a single state-change record: cell (X, Y) flips to Alive.
type Change struct {
	X, Y  Coordinate
	Alive bool
}

// ChangeBuffer is the thread-safe, append-only sequence of change
// records produced during one step and consumed during the following
// update, described in spec.md §4.2. Appenders may run concurrently
// from any number of worker goroutines; Reset and Iterate are
// single-writer operations that the driver must only call once the
// work queue has drained (spec.md §5's generation-boundary ordering).
type ChangeBuffer struct {
	mu    sync.Mutex
	items []Change
}

// NewChangeBuffer returns an empty change buffer.
func NewChangeBuffer() *ChangeBuffer {
	return &ChangeBuffer{}
}

// Append records one change. Safe to call from any number of
// goroutines concurrently; the order records end up in is unspecified,
// but each call contributes exactly one record (spec.md §4.2).
func (c *ChangeBuffer) Append(x, y Coordinate, alive bool) {
	c.mu.Lock()
	if len(c.items) == cap(c.items) {
		newCap := cap(c.items) * 2
		if newCap == 0 {
			newCap = initialChangeCapacity
		}
		grown := make([]Change, len(c.items), newCap)
		copy(grown, c.items)
		c.items = grown
	}
	c.items = append(c.items, Change{X: x, Y: y, Alive: alive})
	c.mu.Unlock()
}

// Len returns the number of records currently buffered.
func (c *ChangeBuffer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Reset truncates the buffer to zero length without releasing its
// backing capacity. Must only be called by the owning driver between
// generations, never concurrently with Append.
func (c *ChangeBuffer) Reset() {
	c.items = c.items[:0]
}

// Iterate calls fn once for every record currently buffered, in
// insertion order. Must only be called by the owning driver after the
// generation's work queue has drained, never concurrently with Append.
func (c *ChangeBuffer) Iterate(fn func(Change)) {
	for _, ch := range c.items {
		fn(ch)
	}
}

// Snapshot returns a copy of the currently buffered records, for
// observers such as the debug/HTTP API that want to read the change
// list without racing the driver's next Reset.
func (c *ChangeBuffer) Snapshot() []Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Change, len(c.items))
	copy(out, c.items)
	return out
}
