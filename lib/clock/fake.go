// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock is a Clock for tests. Time stands still until Advance.
// It is safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*alarm
	changed *sync.Cond
}

// alarm is one registered After or ticker.
type alarm struct {
	due      time.Time
	channel  chan time.Time
	period   time.Duration // zero for one-shot alarms
	canceled bool
}

// Fake returns a FakeClock reading start.
func Fake(start time.Time) *FakeClock {
	clock := &FakeClock{now: start}
	clock.changed = sync.NewCond(&clock.mu)
	return clock
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After registers a one-shot alarm d from now.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.now
		return channel
	}
	c.registerLocked(&alarm{due: c.now.Add(d), channel: channel})
	return channel
}

// NewTicker registers a periodic alarm.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: NewTicker with non-positive interval")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	channel := make(chan time.Time, 1)
	entry := &alarm{due: c.now.Add(d), channel: channel, period: d}
	c.registerLocked(entry)
	return &Ticker{
		C: channel,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			entry.canceled = true
			c.changed.Broadcast()
		},
	}
}

func (c *FakeClock) registerLocked(entry *alarm) {
	if !slices.Contains(c.pending, entry) {
		c.pending = append(c.pending, entry)
	}
	c.changed.Broadcast()
}

// Advance moves time forward by d and fires every alarm that comes due,
// earliest first. A ticker whose period fits several times into d fires
// once per period; sends never block, so ticks beyond the channel's
// buffer are lost.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	for {
		due := c.takeDue(target)
		if len(due) == 0 {
			return
		}
		for _, entry := range due {
			select {
			case entry.channel <- target:
			default:
			}
		}
	}
}

// takeDue removes alarms due at or before target, re-arming tickers
// for their next period, and returns them in due order.
func (c *FakeClock) takeDue(target time.Time) []*alarm {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due []*alarm
	kept := c.pending[:0]
	for _, entry := range c.pending {
		switch {
		case entry.canceled:
		case entry.due.After(target):
			kept = append(kept, entry)
		default:
			due = append(due, entry)
		}
	}
	slices.SortStableFunc(due, func(a, b *alarm) int { return a.due.Compare(b.due) })
	for _, entry := range due {
		if entry.period > 0 {
			entry.due = entry.due.Add(entry.period)
			kept = append(kept, entry)
		}
	}
	clear(c.pending[len(kept):])
	c.pending = kept
	return due
}

// WaitForTimers blocks until at least n alarms are pending. Call it
// before Advance when another goroutine is about to start a ticker or
// wait on After.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.activeLocked() < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of active alarms.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked()
}

func (c *FakeClock) activeLocked() int {
	count := 0
	for _, entry := range c.pending {
		if !entry.canceled {
			count++
		}
	}
	return count
}
