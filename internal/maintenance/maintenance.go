// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package maintenance runs periodic background jobs alongside a running
// simulation: journal compaction and a memory-footprint log line. It is
// the generic-purpose scheduler the driver loop starts once at startup
// and shuts down on exit, independent of the simulation's own per-
// generation step/update loop.
package maintenance

import (
	"runtime"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/ClusterCockpit/lifesim/internal/journal"
	log "github.com/ClusterCockpit/lifesim/pkg/log"
)

// Options configures which maintenance jobs get registered.
type Options struct {
	// JournalRetention is how long generation_stat rows are kept before
	// being compacted away. Zero disables journal compaction.
	JournalRetention time.Duration
	// JournalCompactionInterval is how often the compaction job runs.
	// Defaults to one hour if zero and JournalRetention is set.
	JournalCompactionInterval time.Duration
	// FootprintLogInterval is how often a memory-footprint line is
	// logged. Zero disables the footprint job.
	FootprintLogInterval time.Duration
}

// Scheduler wraps a gocron.Scheduler running this simulation's
// maintenance jobs, mirroring internal/taskManager/taskManager.go's
// Start/Shutdown shape (there a package-level singleton; here a value
// type, since a simulation process owns at most one of these).
type Scheduler struct {
	s gocron.Scheduler
}

// Start creates and starts the scheduler, registering jobs per opts.
// j may be nil, in which case journal compaction is skipped regardless
// of opts.JournalRetention.
func Start(opts Options, j *journal.Journal) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	sched := &Scheduler{s: s}

	if j != nil && opts.JournalRetention > 0 {
		sched.registerJournalCompaction(j, opts)
	}

	if opts.FootprintLogInterval > 0 {
		sched.registerFootprintLog(opts.FootprintLogInterval)
	}

	s.Start()
	return sched, nil
}

func (sched *Scheduler) registerJournalCompaction(j *journal.Journal, opts Options) {
	interval := opts.JournalCompactionInterval
	if interval <= 0 {
		interval = time.Hour
	}

	log.Infof("maintenance: registering journal compaction every %s, retention %s", interval, opts.JournalRetention)
	sched.s.NewJob(gocron.DurationJob(interval),
		gocron.NewTask(func() {
			cutoff := time.Now().Add(-opts.JournalRetention)
			n, err := j.CompactBefore(cutoff)
			if err != nil {
				log.Warnf("maintenance: journal compaction failed: %v", err)
				return
			}
			if n > 0 {
				log.Infof("maintenance: journal compaction removed %d rows older than %s", n, cutoff.Format(time.RFC3339))
			}
		}))
}

func (sched *Scheduler) registerFootprintLog(interval time.Duration) {
	log.Infof("maintenance: registering memory footprint log every %s", interval)
	sched.s.NewJob(gocron.DurationJob(interval),
		gocron.NewTask(func() {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			log.Infof("maintenance: heap_alloc=%dKB sys=%dKB num_gc=%d goroutines=%d",
				m.HeapAlloc/1024, m.Sys/1024, m.NumGC, runtime.NumGoroutine())
		}))
}

// Shutdown stops the scheduler, blocking until running jobs finish.
func (sched *Scheduler) Shutdown() error {
	return sched.s.Shutdown()
}
