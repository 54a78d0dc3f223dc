// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by lifeboard's tests.
//
// [RequireReceive], [RequireSend], and [RequireClosed] bound every
// channel wait with a wall-clock timeout so a broken test fails instead
// of hanging. They are the only place tests touch real time; everything
// else runs on clock.Fake.
//
// [SocketDir] returns a short directory under /tmp for Unix sockets,
// whose paths are limited to 108 bytes. [StateDir] is the same idea for
// a service state directory holding a socket, a database, and a lock.
//
// [UniqueID] returns distinct identifiers without consulting the clock.
//
// Helpers fail the test with t.Fatalf rather than returning errors.
package testutil
