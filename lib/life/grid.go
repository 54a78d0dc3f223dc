// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package life

// MaxCells bounds the size of any single grid. A board that does not fit
// is rejected at construction rather than failing allocation later in a
// coordinator.
const MaxCells = 1 << 24

// Point is a cell coordinate. X is the column, Y the row.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Grid is a fixed-size row-major grid of alive flags. The zero Grid has
// no cells and is only useful as a "not set" marker; construct grids
// with NewGrid.
//
// Grid values share their backing storage when copied. Use Clone before
// handing a grid to code that might mutate it.
type Grid struct {
	width  int
	height int
	cells  []bool
}

// NewGrid returns an all-dead grid. Non-positive dimensions, or more
// than MaxCells cells, fail with KindInvalidDimensions.
func NewGrid(width, height int) (Grid, error) {
	if err := checkDimensions(width, height); err != nil {
		return Grid{}, err
	}
	return Grid{
		width:  width,
		height: height,
		cells:  make([]bool, width*height),
	}, nil
}

func checkDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return Errorf(KindInvalidDimensions, "dimensions %dx%d must be positive", width, height)
	}
	if width > MaxCells/height {
		return Errorf(KindInvalidDimensions, "dimensions %dx%d exceed %d cells", width, height, MaxCells)
	}
	return nil
}

// Width returns the number of columns.
func (g Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g Grid) Height() int { return g.height }

// IsZero reports whether g is the zero Grid.
func (g Grid) IsZero() bool { return g.cells == nil }

// InBounds reports whether (x, y) is a cell of g.
func (g Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// Alive reports whether the cell at (x, y) is alive. Out-of-bounds
// coordinates are dead.
func (g Grid) Alive(x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	return g.cells[y*g.width+x]
}

// Set sets the cell at (x, y). Out-of-bounds coordinates fail with
// KindOutOfBounds.
func (g Grid) Set(x, y int, alive bool) error {
	if !g.InBounds(x, y) {
		return g.outOfBounds(x, y)
	}
	g.cells[y*g.width+x] = alive
	return nil
}

// Toggle flips the cell at (x, y).
func (g Grid) Toggle(x, y int) error {
	if !g.InBounds(x, y) {
		return g.outOfBounds(x, y)
	}
	index := y*g.width + x
	g.cells[index] = !g.cells[index]
	return nil
}

func (g Grid) outOfBounds(x, y int) error {
	return Errorf(KindOutOfBounds, "cell (%d,%d) is outside %dx%d", x, y, g.width, g.height)
}

// Clear kills every cell.
func (g Grid) Clear() {
	clear(g.cells)
}

// Population returns the number of live cells.
func (g Grid) Population() int {
	count := 0
	for _, alive := range g.cells {
		if alive {
			count++
		}
	}
	return count
}

// LiveCells returns the coordinates of every live cell in row-major
// order.
func (g Grid) LiveCells() []Point {
	var points []Point
	for index, alive := range g.cells {
		if alive {
			points = append(points, Point{X: index % g.width, Y: index / g.width})
		}
	}
	return points
}

// Clone returns a deep copy of g.
func (g Grid) Clone() Grid {
	return Grid{
		width:  g.width,
		height: g.height,
		cells:  append([]bool(nil), g.cells...),
	}
}

// Equal reports whether two grids have the same dimensions and cells.
func (g Grid) Equal(other Grid) bool {
	if g.width != other.width || g.height != other.height || len(g.cells) != len(other.cells) {
		return false
	}
	for index := range g.cells {
		if g.cells[index] != other.cells[index] {
			return false
		}
	}
	return true
}

// Stamp sets every live cell of pattern alive in g with the pattern's
// top-left corner at (x, y). Pattern cells that fall off an edge wrap
// around, matching the grid's toroidal topology. Dead pattern cells
// leave g untouched. The origin itself must be in bounds.
func (g Grid) Stamp(pattern Grid, x, y int) error {
	if !g.InBounds(x, y) {
		return g.outOfBounds(x, y)
	}
	for _, point := range pattern.LiveCells() {
		targetX := (x + point.X) % g.width
		targetY := (y + point.Y) % g.height
		g.cells[targetY*g.width+targetX] = true
	}
	return nil
}
