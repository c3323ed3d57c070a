// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package patternio loads Life patterns from the RLE and plain-text
// .cells formats directly into a sim.Grid.
package patternio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ClusterCockpit/lifesim/internal/sim"
)

// Bounds tracks the rectangle a loaded pattern occupies, in the same
// coordinate space it was loaded into: West/North are the load origin,
// East/South lie one past the last column/row read. Fields are only
// meaningful once the corresponding *Set flag is true; the loaders set
// West and North before reading any input, so a pattern that writes no
// live cells still has WestSet and NorthSet true.
type Bounds struct {
	West, East, North, South sim.Coordinate
	WestSet, EastSet, NorthSet, SouthSet bool
}

func (b *Bounds) trackWest(x sim.Coordinate) {
	if !b.WestSet {
		b.West, b.WestSet = x, true
	}
}

func (b *Bounds) trackNorth(y sim.Coordinate) {
	if !b.NorthSet {
		b.North, b.NorthSet = y, true
	}
}

func (b *Bounds) trackEast(x sim.Coordinate) {
	if !b.EastSet || b.East < x {
		b.East, b.EastSet = x, true
	}
}

func (b *Bounds) trackSouth(y sim.Coordinate) {
	if !b.SouthSet || b.South < y {
		b.South, b.SouthSet = y, true
	}
}

// LoadRLE parses the run-length-encoded Life format (as produced by
// most pattern collections, e.g. LifeWiki) from r, writing live cells
// into grid with the pattern's own (0,0) mapped to (originX, originY).
// Grounded on original_source/src/load.c's load_rle: '#'-prefixed
// header lines are skipped, then a header line of the form
// "x = ..., y = ..." is skipped as well (this implementation, like the
// source, does not parse it — width/height come from the tag stream
// itself), followed by a sequence of runs: a decimal count
// (defaulting to 1 when omitted) followed by one of 'b' (dead run, just
// advances x), 'o' (live run, writes cells) or '$' (end of row, resets
// x and advances y by count); the pattern terminates at '!'.
func LoadRLE(r io.Reader, grid *sim.Grid, originX, originY sim.Coordinate) (Bounds, error) {
	var bounds Bounds
	bounds.trackWest(originX)
	bounds.trackNorth(originY)

	br := bufio.NewReader(r)
	x, y := originX, originY

	if err := skipHeaderLines(br); err != nil {
		return bounds, err
	}

	var digits strings.Builder
	for {
		c, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				bounds.trackEast(x)
				return bounds, fmt.Errorf("patternio: RLE stream ended without a terminating '!'")
			}
			return bounds, err
		}

		switch {
		case c == '\n' || c == ' ' || c == '\t' || c == '\r':
			continue
		case c >= '0' && c <= '9':
			digits.WriteByte(c)
			continue
		}

		n, err := ParseCount(digits.String())
		if err != nil {
			return bounds, fmt.Errorf("patternio: invalid run count: %w", err)
		}
		digits.Reset()

		switch c {
		case 'b':
			x += sim.Coordinate(n)
		case 'o':
			for ; n > 0; n-- {
				if err := grid.Set(x, y, true); err != nil {
					return bounds, err
				}
				x++
			}
		case '$':
			y += sim.Coordinate(n)
			bounds.trackSouth(y)
			bounds.trackEast(x)
			x = originX
		case '!':
			bounds.trackEast(x)
			bounds.trackSouth(y + 1)
			return bounds, nil
		default:
			return bounds, fmt.Errorf("patternio: unexpected RLE tag %q", c)
		}
	}
}

// skipHeaderLines consumes leading '#'-prefixed comment/metadata lines
// and the RLE format's 'x'-prefixed size header line, which this
// implementation, matching load_rle, does not need to parse: cell
// positions come entirely from the tag stream that follows.
func skipHeaderLines(br *bufio.Reader) error {
	for {
		peeked, err := br.Peek(1)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if peeked[0] != '#' && peeked[0] != 'x' {
			return nil
		}
		if _, err := br.ReadString('\n'); err != nil && err != io.EOF {
			return err
		}
		if err == io.EOF {
			return nil
		}
	}
}

// LoadCells parses the plain-text .cells format: 'O' is a live cell,
// '.' a dead cell, a line beginning with '!' is a comment, and a blank
// or shorter line simply ends without affecting the columns it did not
// cover. Grounded on original_source/src/load.c's load_cells.
func LoadCells(r io.Reader, grid *sim.Grid, originX, originY sim.Coordinate) (Bounds, error) {
	var bounds Bounds
	bounds.trackWest(originX)
	bounds.trackNorth(originY)

	scanner := bufio.NewScanner(r)
	y := originY
	sawRow := false

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > 0 && line[0] == '!' {
			continue
		}

		x := originX
		for _, c := range line {
			switch c {
			case 'O':
				if err := grid.Set(x, y, true); err != nil {
					return bounds, err
				}
				x++
			case '.':
				x++
			case '\r':
				// tolerate CRLF line endings
			default:
				return bounds, fmt.Errorf("patternio: invalid .cells character %q", c)
			}
		}
		bounds.trackEast(x)
		y++
		sawRow = true
	}
	if err := scanner.Err(); err != nil {
		return bounds, err
	}
	if sawRow {
		bounds.trackSouth(y)
	}
	return bounds, nil
}

// ParseCount parses one RLE run-length count: an empty string (no
// digits preceded the tag byte) means a count of 1, same as load_rle's
// "if (offset == 0) input_len = 1" before its atoi(buf) call.
func ParseCount(s string) (int, error) {
	if s == "" {
		return 1, nil
	}
	return strconv.Atoi(s)
}
