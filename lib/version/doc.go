// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the build identity of lifeboard binaries.
//
// The variables are set at link time:
//
//	go build -ldflags "-X github.com/bureau-foundation/lifeboard/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Unset, they read "unknown" and "0.1.0-dev". The service reports
// [Current] in its status response so that `lifeboard version` can show
// both sides of the socket.
package version
