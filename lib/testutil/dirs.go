// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"testing"
)

// SocketDir creates a short-named directory in /tmp, removed when the
// test ends. t.TempDir paths can exceed the Unix socket path limit.
func SocketDir(t *testing.T) string {
	t.Helper()
	return shortTempDir(t, "lifeboard-sock-*")
}

// StateDir creates a directory to serve as a lifeboard-service state
// directory. It lives in /tmp for the same reason as SocketDir: the
// service socket is created inside it.
func StateDir(t *testing.T) string {
	t.Helper()
	return shortTempDir(t, "lifeboard-state-*")
}

func shortTempDir(t *testing.T, pattern string) string {
	t.Helper()
	directory, err := os.MkdirTemp("/tmp", pattern)
	if err != nil {
		t.Fatalf("creating temp directory: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(directory) })
	return directory
}
