// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sim

// wordBits is the width of one bitmap word. BucketSide must be a
// multiple of it so every row of a bucket packs into whole words.
const wordBits = 64

// BucketSide is B from the spec: the side length, in cells, of a
// bucket's square bitmap.
const BucketSide = 16

// bucketWords is the number of uint64 words needed to hold
// BucketSide*BucketSide bits.
const bucketWords = (BucketSide * BucketSide) / wordBits

// bucketOrdinal hands out the monotonically increasing, purely
// observable debug ordinal described in spec.md §3 ("Bucket").
var bucketOrdinal uint64

// Bucket is a fixed BucketSide x BucketSide patch of cells, packed as a
// bitmap, linked into its owning leaf's bucket list.
type Bucket struct {
	// BX, BY are this bucket's position in bucket-coordinates: cell
	// (x, y) belongs to the bucket at (x/BucketSide, y/BucketSide).
	BX, BY uint16

	next, prev *Bucket

	bits [bucketWords]uint64

	// Ordinal is assigned once, at allocation time, and never reused.
	// It carries no simulation semantics; it exists purely so a
	// debug dump can show allocation order.
	Ordinal uint64
}

func newBucket(bx, by uint16) *Bucket {
	bucketOrdinal++
	return &Bucket{BX: bx, BY: by, Ordinal: bucketOrdinal}
}

// bitIndex maps in-bucket offsets (0..BucketSide-1) to a bit position.
func bitIndex(ix, iy uint16) uint16 {
	return ix + iy*BucketSide
}

func (b *Bucket) get(ix, iy uint16) bool {
	i := bitIndex(ix, iy)
	return b.bits[i/wordBits]&(1<<(i%wordBits)) != 0
}

func (b *Bucket) set(ix, iy uint16, v bool) {
	i := bitIndex(ix, iy)
	word, bit := i/wordBits, uint(i%wordBits)
	if v {
		b.bits[word] |= 1 << bit
	} else {
		b.bits[word] &^= 1 << bit
	}
}

// empty reports whether every bit of the bucket is zero, i.e. the
// bucket's sole invariant (spec.md §3: "a bucket exists only if at
// least one of its bits is 1") has been violated and it must be
// reclaimed.
func (b *Bucket) empty() bool {
	for _, w := range b.bits {
		if w != 0 {
			return false
		}
	}
	return true
}

// unlink removes b from its doubly linked list, given the list's
// head/tail pointers. It returns the (possibly unchanged) head and tail.
func unlink(head, tail, b *Bucket) (*Bucket, *Bucket) {
	if b.next != nil {
		b.next.prev = b.prev
	} else {
		tail = b.prev
	}
	if b.prev != nil {
		b.prev.next = b.next
	} else {
		head = b.next
	}
	b.next, b.prev = nil, nil
	return head, tail
}

// appendBucket links b onto the tail of the list, returning the
// (possibly unchanged) head and the new tail.
func appendBucket(head, tail, b *Bucket) (*Bucket, *Bucket) {
	b.next = nil
	if tail == nil {
		b.prev = nil
		return b, b
	}
	tail.next = b
	b.prev = tail
	return head, b
}
