// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package life

import (
	"runtime"
	"sync"
)

// parallelThreshold is the cell count above which Evolve splits the
// grid into row bands evaluated concurrently. Below it the goroutine
// overhead outweighs the work.
const parallelThreshold = 1 << 16

// Evolve computes the next generation of current under rules. The input
// grid is never modified. Evolve is pure and total: the same grid and
// rule set always produce the same result, and every grid built by
// NewGrid is acceptable input.
func Evolve(current Grid, rules RuleSet) Grid {
	next := Grid{
		width:  current.width,
		height: current.height,
		cells:  make([]bool, len(current.cells)),
	}
	if len(current.cells) < parallelThreshold {
		evolveRows(current, next.cells, rules, 0, current.height)
		return next
	}

	// Every band reads the shared, immutable source grid and writes a
	// disjoint range of rows in the destination, so no halo exchange
	// or locking is needed.
	var waitGroup sync.WaitGroup
	start := 0
	for _, rows := range rowBands(current.height, runtime.GOMAXPROCS(0)) {
		end := start + rows
		waitGroup.Add(1)
		go func(start, end int) {
			defer waitGroup.Done()
			evolveRows(current, next.cells, rules, start, end)
		}(start, end)
		start = end
	}
	waitGroup.Wait()
	return next
}

// evolveRows writes generation N+1 for rows [start, end) into
// destination.
func evolveRows(source Grid, destination []bool, rules RuleSet, start, end int) {
	for y := start; y < end; y++ {
		row := y * source.width
		for x := 0; x < source.width; x++ {
			destination[row+x] = rules.Next(source.cells[row+x], neighborCount(source, x, y))
		}
	}
}

// neighborCount returns the number of live cells among the eight
// toroidal neighbours of (x, y). On grids narrower or shorter than three
// cells some offsets land on the same cell (or on the cell itself) and
// are counted once per offset.
func neighborCount(g Grid, x, y int) int {
	count := 0
	for dy := -1; dy <= 1; dy++ {
		neighborY := (y + dy + g.height) % g.height
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			neighborX := (x + dx + g.width) % g.width
			if g.cells[neighborY*g.width+neighborX] {
				count++
			}
		}
	}
	return count
}

// rowBands splits height rows between at most workers bands whose sizes
// differ by at most one row.
func rowBands(height, workers int) []int {
	if workers < 1 {
		workers = 1
	}
	if workers > height {
		workers = height
	}
	each := height / workers
	larger := height - each*workers
	bands := make([]int, 0, workers)
	for index := 0; index < workers; index++ {
		if index < larger {
			bands = append(bands, each+1)
		} else {
			bands = append(bands, each)
		}
	}
	return bands
}
