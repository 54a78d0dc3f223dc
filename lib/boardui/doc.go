// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package boardui is the bubbletea viewer for a live board.
//
// A [Model] renders the newest snapshot delivered by a [Source] and
// turns key presses into mutations submitted through a [Mutator]. The
// viewer never edits its own copy of the grid: every change, local or
// remote, arrives as a snapshot, so the screen always shows a version
// the service committed. Snapshots older than the one on screen are
// ignored, which makes the submit response and the watch event for
// the same version interchangeable.
//
// Live cells are coloured blocks. When the terminal has no colour
// support (termenv's Ascii profile) cells fall back to '#' and '.'.
package boardui
