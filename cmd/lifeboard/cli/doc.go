// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the lifeboard CLI.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], flags bound from a params struct
// (see [BindFlags]), and a Run function. Commands are assembled into a
// tree in cmd/lifeboard/commands and dispatched via [Command.Execute],
// which handles flag parsing, subcommand routing, and structured help
// output with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3).
//
// Errors returned by commands are [ToolError] values carrying an
// [ErrorCategory]; [ExitError] signals a handled non-zero exit.
package cli
