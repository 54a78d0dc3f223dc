// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package life

import (
	"strconv"
	"strings"
)

// Grid text alphabet. RowSeparator never appears inside a row.
const (
	AliveChar    = '1'
	DeadChar     = '0'
	RowSeparator = '|'
)

// EncodeGrid renders g as rows of '0'/'1' joined by '|'. It never fails.
func EncodeGrid(g Grid) string {
	if g.height == 0 {
		return ""
	}
	var builder strings.Builder
	builder.Grow(g.width*g.height + g.height - 1)
	for y := 0; y < g.height; y++ {
		if y > 0 {
			builder.WriteByte(RowSeparator)
		}
		for _, alive := range g.cells[y*g.width : (y+1)*g.width] {
			if alive {
				builder.WriteByte(AliveChar)
			} else {
				builder.WriteByte(DeadChar)
			}
		}
	}
	return builder.String()
}

// DecodeGrid parses text produced by EncodeGrid against the declared
// dimensions. A row count other than height, a row length other than
// width, or any character outside {'0','1'} fails with KindFormatError.
func DecodeGrid(text string, width, height int) (Grid, error) {
	grid, err := NewGrid(width, height)
	if err != nil {
		return Grid{}, err
	}
	rows := strings.Split(text, string(RowSeparator))
	if len(rows) != height {
		return Grid{}, Errorf(KindFormatError, "grid has %d rows, want %d", len(rows), height)
	}
	for y, row := range rows {
		if len(row) != width {
			return Grid{}, Errorf(KindFormatError, "grid row %d has %d cells, want %d", y, len(row), width)
		}
		if err := decodeRow(row, y, grid.cells[y*width:(y+1)*width]); err != nil {
			return Grid{}, err
		}
	}
	return grid, nil
}

// ParseRows builds a grid from pre-split rows, taking the width from the
// first row. Used for pattern definitions where the dimensions are
// implied by the text.
func ParseRows(rows []string) (Grid, error) {
	if len(rows) == 0 || rows[0] == "" {
		return Grid{}, Errorf(KindFormatError, "pattern has no cells")
	}
	return DecodeGrid(strings.Join(rows, string(RowSeparator)), len(rows[0]), len(rows))
}

func decodeRow(row string, y int, destination []bool) error {
	for x := 0; x < len(row); x++ {
		switch row[x] {
		case AliveChar:
			destination[x] = true
		case DeadChar:
			destination[x] = false
		default:
			return Errorf(KindFormatError, "grid cell (%d,%d) has invalid character %q", x, y, row[x])
		}
	}
	return nil
}

// FormatDimensions returns the "WxH" form of a board size.
func FormatDimensions(width, height int) string {
	return strconv.Itoa(width) + "x" + strconv.Itoa(height)
}

// ParseDimensions parses "WxH". Malformed text is KindFormatError;
// well-formed but non-positive or oversized dimensions are
// KindInvalidDimensions.
func ParseDimensions(text string) (width, height int, err error) {
	widthText, heightText, found := strings.Cut(text, "x")
	if !found {
		return 0, 0, Errorf(KindFormatError, "dimensions %q: expected WxH", text)
	}
	width, err = strconv.Atoi(widthText)
	if err != nil {
		return 0, 0, Errorf(KindFormatError, "dimensions %q: bad width", text)
	}
	height, err = strconv.Atoi(heightText)
	if err != nil {
		return 0, 0, Errorf(KindFormatError, "dimensions %q: bad height", text)
	}
	if err := checkDimensions(width, height); err != nil {
		return 0, 0, err
	}
	return width, height, nil
}
