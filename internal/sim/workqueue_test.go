// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sim

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkQueueStartReturnsActualCount(t *testing.T) {
	q := NewWorkQueue()
	n := q.Start(4)
	assert.Equal(t, 4, n)

	// One-shot: a second Start is a no-op that echoes the original count.
	assert.Equal(t, 4, q.Start(8))

	q.Destroy()
}

func TestWorkQueueRunsAllTasksThenDrains(t *testing.T) {
	q := NewWorkQueue()
	q.Start(4)

	var ran int64
	const n = 50
	for i := 0; i < n; i++ {
		q.Add(func(run bool) {
			if run {
				atomic.AddInt64(&ran, 1)
			}
		})
	}
	q.Wait()

	assert.Equal(t, int64(n), atomic.LoadInt64(&ran))
	q.Destroy()
}

func TestWorkQueueWaitIsReusableAcrossGenerations(t *testing.T) {
	q := NewWorkQueue()
	q.Start(2)
	defer q.Destroy()

	for gen := 0; gen < 5; gen++ {
		var ran int64
		for i := 0; i < 10; i++ {
			q.Add(func(run bool) {
				if run {
					atomic.AddInt64(&ran, 1)
				}
			})
		}
		q.Wait()
		assert.Equal(t, int64(10), ran)
	}
}

func TestWorkQueueDestroyReclaimsPendingTasks(t *testing.T) {
	q := NewWorkQueue()
	q.Start(1)

	block := make(chan struct{})
	started := make(chan struct{})
	q.Add(func(run bool) {
		if run {
			close(started)
			<-block
		}
	})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first task never started")
	}

	var reclaimed int64
	for i := 0; i < 10; i++ {
		q.Add(func(run bool) {
			if !run {
				atomic.AddInt64(&reclaimed, 1)
			}
		})
	}

	done := make(chan struct{})
	go func() {
		q.Destroy()
		close(done)
	}()

	// Release the running task only once Destroy has set the destroy
	// flag, so the ten pending tasks are reclaimed rather than run.
	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return q.destroy
	}, time.Second, time.Millisecond)

	close(block)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Destroy never returned")
	}

	assert.Equal(t, int64(10), atomic.LoadInt64(&reclaimed))
}

func TestWorkQueueConcurrencyAtDifferentWorkerCounts(t *testing.T) {
	for _, workers := range []int{1, 8} {
		t.Run("", func(t *testing.T) {
			q := NewWorkQueue()
			got := q.Start(workers)
			require.Equal(t, workers, got)

			var sum int64
			const n = 500
			for i := 0; i < n; i++ {
				q.Add(func(run bool) {
					if run {
						atomic.AddInt64(&sum, 1)
					}
				})
			}
			q.Wait()
			assert.Equal(t, int64(n), sum)
			q.Destroy()
		})
	}
}
