// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpenRunsMigrations(t *testing.T) {
	j := openTest(t)

	stats, err := j.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestRecordAndRecent(t *testing.T) {
	j := openTest(t)
	now := time.Unix(1700000000, 0)

	require.NoError(t, j.Record(now, GenerationStat{Generation: 1, LiveCells: 5, BucketCount: 1, ChangeCount: 3, StepMicros: 120}))
	require.NoError(t, j.Record(now.Add(time.Second), GenerationStat{Generation: 2, LiveCells: 6, BucketCount: 1, ChangeCount: 2, StepMicros: 90}))

	stats, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, uint64(2), stats[0].Generation)
	assert.Equal(t, uint64(1), stats[1].Generation)
	assert.Equal(t, 6, stats[0].LiveCells)
}

func TestRecentRespectsLimit(t *testing.T) {
	j := openTest(t)
	now := time.Unix(1700000000, 0)

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, j.Record(now, GenerationStat{Generation: i}))
	}

	stats, err := j.Recent(2)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, uint64(5), stats[0].Generation)
	assert.Equal(t, uint64(4), stats[1].Generation)
}

func TestCompactBeforeDeletesOldRows(t *testing.T) {
	j := openTest(t)
	old := time.Unix(1000, 0)
	recent := time.Unix(1_700_000_000, 0)

	require.NoError(t, j.Record(old, GenerationStat{Generation: 1}))
	require.NoError(t, j.Record(recent, GenerationStat{Generation: 2}))

	n, err := j.CompactBefore(time.Unix(1_000_000_000, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stats, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, uint64(2), stats[0].Generation)
}

func TestDuplicateGenerationRejected(t *testing.T) {
	j := openTest(t)
	now := time.Unix(1700000000, 0)

	require.NoError(t, j.Record(now, GenerationStat{Generation: 1}))
	assert.Error(t, j.Record(now, GenerationStat{Generation: 1}))
}
