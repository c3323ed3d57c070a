// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package maintenance

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClusterCockpit/lifesim/internal/journal"
)

func openJournal(t *testing.T) *journal.Journal {
	t.Helper()
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestStartWithNoJobsRegistersNothingAndShutsDownCleanly(t *testing.T) {
	sched, err := Start(Options{}, nil)
	require.NoError(t, err)
	require.NotNil(t, sched)
	assert.NoError(t, sched.Shutdown())
}

func TestJournalCompactionRemovesOldRows(t *testing.T) {
	j := openJournal(t)
	require.NoError(t, j.Record(time.Now().Add(-2*time.Hour), journal.GenerationStat{Generation: 1}))
	require.NoError(t, j.Record(time.Now(), journal.GenerationStat{Generation: 2}))

	sched, err := Start(Options{
		JournalRetention:          time.Hour,
		JournalCompactionInterval: 20 * time.Millisecond,
	}, j)
	require.NoError(t, err)
	defer sched.Shutdown()

	require.Eventually(t, func() bool {
		stats, err := j.Recent(10)
		return err == nil && len(stats) == 1
	}, time.Second, 10*time.Millisecond)

	stats, err := j.Recent(10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats[0].Generation)
}

func TestFootprintLogDoesNotPanic(t *testing.T) {
	sched, err := Start(Options{FootprintLogInterval: 20 * time.Millisecond}, nil)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, sched.Shutdown())
}
