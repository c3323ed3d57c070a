// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sim

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeBufferAppendIterateReset(t *testing.T) {
	c := NewChangeBuffer()
	c.Append(1, 2, true)
	c.Append(3, 4, false)
	assert.Equal(t, 2, c.Len())

	var got []Change
	c.Iterate(func(ch Change) { got = append(got, ch) })
	assert.Equal(t, []Change{{1, 2, true}, {3, 4, false}}, got)

	c.Reset()
	assert.Equal(t, 0, c.Len())
}

func TestChangeBufferGrowsPastInitialCapacity(t *testing.T) {
	c := NewChangeBuffer()
	const n = 100
	for i := uint16(0); i < n; i++ {
		c.Append(i, i, true)
	}
	assert.Equal(t, n, c.Len())
	assert.GreaterOrEqual(t, cap(c.items), n)
}

func TestChangeBufferConcurrentAppend(t *testing.T) {
	c := NewChangeBuffer()
	const workers = 8
	const perWorker = 200

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				c.Append(uint16(w), uint16(i), true)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, c.Len())
}

func TestChangeBufferSnapshotIsACopy(t *testing.T) {
	c := NewChangeBuffer()
	c.Append(1, 1, true)
	snap := c.Snapshot()
	c.Append(2, 2, true)
	assert.Len(t, snap, 1, "snapshot must not observe appends made after it was taken")
	assert.Equal(t, 2, c.Len())
}
