// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint error handling shared by the
// lifeboard binaries. Errors from run() are reported here because the
// structured logger may not exist yet (bad flags, unreadable config),
// and CLI commands that already printed their own output ask for a
// specific exit code instead of an "error:" line.
package process
