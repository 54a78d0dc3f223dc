// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the time source for everything in lifeboard that
// waits: the session coordinator's generation ticker, the subscription
// heartbeat, persistence timestamps, and the client's reconnect backoff.
//
// Production code holds a [Clock] and never calls time.Now,
// time.After, or time.NewTicker directly. Real returns the wall clock.
// Fake returns a [FakeClock] whose time moves only when a test calls
// Advance.
//
// # Synchronizing with a FakeClock
//
// A goroutine that starts a ticker races with the test that wants to
// advance past it. WaitForTimers closes the race:
//
//	fake := clock.Fake(epoch)
//	coordinator := session.NewCoordinator(board, session.Config{Clock: fake, ...})
//	coordinator.Submit(ctx, life.Request{Mutation: life.SetRunning{Running: true}})
//	fake.WaitForTimers(1)            // the generation ticker is registered
//	fake.Advance(100 * time.Millisecond) // exactly one tick
package clock
