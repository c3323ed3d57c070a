// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sim

import (
	"errors"
	"sync"
)

// ErrQueueNotStarted names the condition of a queue on which no worker
// goroutines have ever been started. Add does not return it: Add
// reports a bool and accepts tasks whether or not workers are running.
var ErrQueueNotStarted = errors.New("lifesim: work queue has no workers started")

// Task is the single entry point a queued unit of work is invoked
// through. run is true when the task is actually being executed, and
// false when the queue is being torn down and the task is only being
// reclaimed: in that case the callback must release any resources it
// owns and return without doing real work. Every Task submitted via
// Add is guaranteed exactly one call, with exactly one of these two
// meanings (spec.md §4.4, §9 "Dynamic dispatch").
type Task func(run bool)

// WorkQueue is a pool of worker goroutines draining a single FIFO of
// Tasks, with bounded concurrency, drain-barrier waits and cooperative
// cancellation, as specified in spec.md §4.4. All exported methods are
// safe to call from any goroutine.
type WorkQueue struct {
	mu           sync.Mutex
	workAvail    *sync.Cond
	queueEmpty   *sync.Cond
	entries      []Task
	active       int
	waiting      int
	target       int
	destroy      bool
	waiters      int
	startedCount int
	wg           sync.WaitGroup
}

// NewWorkQueue returns an idle, empty work queue. No workers run until
// Start is called.
func NewWorkQueue() *WorkQueue {
	q := &WorkQueue{}
	q.workAvail = sync.NewCond(&q.mu)
	q.queueEmpty = sync.NewCond(&q.mu)
	return q
}

// Start spawns up to n worker goroutines and sets the target
// concurrency to however many were actually started. It is a one-shot
// operation: once workers are running (or the queue has been
// destroyed), subsequent calls are no-ops that return the count from
// the original call. Returns 0 if no workers could be started.
func (q *WorkQueue) Start(n int) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.destroy || q.startedCount > 0 {
		return q.startedCount
	}

	for i := 0; i < n; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.startedCount = n
	q.target = n
	return n
}

// Add appends a task to the tail of the FIFO and wakes a worker.
// The caller retains ownership of anything the task closure captures;
// Add itself cannot fail in this implementation (goroutine-backed
// queues do not have the C source's malloc-failure case) but returns a
// bool to preserve the spec's add contract for callers that want to
// treat queue-full/shutdown conditions uniformly.
func (q *WorkQueue) Add(task Task) bool {
	q.mu.Lock()
	q.entries = append(q.entries, task)
	q.workAvail.Signal()
	q.mu.Unlock()
	return true
}

// Wait blocks until the queue is empty and no worker is active: a
// drain barrier. Workers are not stopped; once Wait returns, the queue
// is ready to accept new tasks.
func (q *WorkQueue) Wait() {
	q.mu.Lock()
	q.drainLocked(false, false)
}

// Stop sets the target concurrency to zero and waits for the queue to
// drain. Workers remain alive, blocked on new work, but with a zero
// target they take no further tasks: Start is a no-op once workers
// have been started, so nothing raises the target again on this queue
// (matching the source's single-session-per-queue usage).
func (q *WorkQueue) Stop() {
	q.mu.Lock()
	q.drainLocked(true, false)
}

// Destroy stops accepting new work conceptually, drains the queue,
// reclaims (via Task's run=false path) whatever remains unexecuted,
// joins every worker goroutine and leaves the queue unusable.
func (q *WorkQueue) Destroy() {
	q.mu.Lock()
	q.drainLocked(true, true)
}

// drainLocked implements the drain primitive shared by Wait/Stop/
// Destroy (spec.md §4.4). The caller must hold q.mu on entry; drainLocked
// releases it before returning.
func (q *WorkQueue) drainLocked(zeroTarget, setDestroy bool) {
	if zeroTarget {
		q.target = 0
	}
	if setDestroy {
		q.destroy = true
	}

	q.waiters++
	q.workAvail.Signal()
	if setDestroy {
		q.queueEmpty.Wait()
	} else {
		for len(q.entries) > 0 || q.active > 0 {
			q.queueEmpty.Wait()
		}
	}
	q.waiters--

	lastWaiter := q.waiters == 0
	destroying := q.destroy
	q.mu.Unlock()

	if destroying && lastWaiter {
		q.wg.Wait()
	}
}

// worker is the body of one pool goroutine.
func (q *WorkQueue) worker() {
	defer q.wg.Done()

	q.mu.Lock()
	for {
		if q.destroy {
			break
		}

		if len(q.entries) > 0 && q.active < q.target {
			entry := q.entries[0]
			q.entries = q.entries[1:]
			q.active++
			q.mu.Unlock()

			entry(true)

			q.mu.Lock()
			q.active--
			if q.destroy {
				break
			}
			if len(q.entries) == 0 && q.active == 0 {
				q.queueEmpty.Signal()
			}
			continue
		}

		q.waiting++
		q.workAvail.Wait()
		q.waiting--
	}

	// destroy is set: this goroutine is exiting. If it is the last one
	// still around (no one active, no one else waiting), it reclaims
	// whatever is left in the queue, under the same lock, and hands off
	// to the drain primitive; otherwise it passes the wake-up baton
	// along so the remaining workers also notice destroy and exit in
	// turn.
	if q.active == 0 && q.waiting == 0 {
		pending := q.entries
		q.entries = nil
		for _, entry := range pending {
			entry(false)
		}
		q.queueEmpty.Signal()
		q.mu.Unlock()
		return
	}

	q.workAvail.Signal()
	q.mu.Unlock()
}
