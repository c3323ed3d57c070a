// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sim

// Options configures a Context's worker pool. The grid's geometric
// tunables (W, B, QUADSZ) are compile-time constants in this
// implementation (spec.md §9's Open Question on runtime-configurable
// geometry is resolved in DESIGN.md); only concurrency is
// runtime-configurable.
type Options struct {
	// Workers is the number of worker goroutines backing the Context's
	// queue. Values <= 0 are treated as 1.
	Workers int
}

// Context bundles the grid, its change buffer, the generation counter
// and the work queue driving it, mirroring the C source's struct
// conway. It is the unit cmd/lifesim's driver loop operates on.
type Context struct {
	Grid       *Grid
	Changes    *ChangeBuffer
	Queue      *WorkQueue
	Generation uint64
}

// NewContext constructs an empty Context and starts its worker pool.
func NewContext(opts Options) *Context {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	ctx := &Context{
		Grid:    NewGrid(),
		Changes: NewChangeBuffer(),
		Queue:   NewWorkQueue(),
	}
	ctx.Queue.Start(workers)
	return ctx
}

// Advance runs one full step -> wait -> update generation (spec.md §6)
// and increments Generation on success.
func (c *Context) Advance() error {
	Step(c.Grid, c.Changes, c.Queue)
	c.Queue.Wait()
	if err := Update(c.Grid, c.Changes); err != nil {
		return err
	}
	c.Generation++
	return nil
}

// Close tears down the Context's worker pool. The grid and change
// buffer are left intact; Close is only about releasing goroutines.
func (c *Context) Close() {
	c.Queue.Destroy()
}
