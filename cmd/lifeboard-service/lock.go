// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// errStateLocked is returned when another process already serves the
// state directory.
var errStateLocked = errors.New("state directory is locked by another lifeboard-service")

// stateLock is an exclusive flock on a file in the state directory.
// The kernel drops it when the process exits, so a crash never leaves
// a stale lock behind.
type stateLock struct {
	path string
	file *os.File
}

// acquireStateLock takes the lock without blocking and writes the
// holder's pid into the file for operators.
func acquireStateLock(path string) (*stateLock, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			holder, _ := os.ReadFile(path)
			if pid := strings.TrimSpace(string(holder)); pid != "" {
				return nil, fmt.Errorf("%w (%s, pid %s)", errStateLocked, path, pid)
			}
			return nil, fmt.Errorf("%w (%s)", errStateLocked, path)
		}
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if err := file.Truncate(0); err == nil {
		file.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return &stateLock{path: path, file: file}, nil
}

// Release drops the lock. The lock file itself is left in place.
func (l *stateLock) Release() error {
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		l.file.Close()
		return fmt.Errorf("unlocking %s: %w", l.path, err)
	}
	return l.file.Close()
}
