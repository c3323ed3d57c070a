// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketGetSet(t *testing.T) {
	b := newBucket(3, 4)
	assert.Equal(t, uint16(3), b.BX)
	assert.Equal(t, uint16(4), b.BY)
	assert.True(t, b.empty())

	b.set(0, 0, true)
	assert.True(t, b.get(0, 0))
	assert.True(t, !b.empty())

	b.set(BucketSide-1, BucketSide-1, true)
	assert.True(t, b.get(BucketSide-1, BucketSide-1))

	b.set(0, 0, false)
	assert.False(t, b.get(0, 0))
	assert.True(t, b.get(BucketSide-1, BucketSide-1))

	b.set(BucketSide-1, BucketSide-1, false)
	assert.True(t, b.empty())
}

func TestBucketOrdinalMonotonic(t *testing.T) {
	a := newBucket(0, 0)
	b := newBucket(1, 1)
	require.Greater(t, b.Ordinal, a.Ordinal)
}

func TestBucketListAppendUnlink(t *testing.T) {
	a := newBucket(0, 0)
	b := newBucket(1, 0)
	c := newBucket(2, 0)

	var head, tail *Bucket
	head, tail = appendBucket(head, tail, a)
	head, tail = appendBucket(head, tail, b)
	head, tail = appendBucket(head, tail, c)

	require.Equal(t, a, head)
	require.Equal(t, c, tail)

	var seen []*Bucket
	for cur := head; cur != nil; cur = cur.next {
		seen = append(seen, cur)
	}
	assert.Equal(t, []*Bucket{a, b, c}, seen)

	head, tail = unlink(head, tail, b)
	seen = nil
	for cur := head; cur != nil; cur = cur.next {
		seen = append(seen, cur)
	}
	assert.Equal(t, []*Bucket{a, c}, seen)
	assert.Equal(t, c, tail)

	head, tail = unlink(head, tail, a)
	assert.Equal(t, c, head)
	head, tail = unlink(head, tail, c)
	assert.Nil(t, head)
	assert.Nil(t, tail)
}
