// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds lifeboard's one CBOR configuration.
//
// CBOR is the format of the service socket: every request, response,
// and subscription frame exchanged between lifeboard-service and its
// clients. JSON is reserved for what humans read or write: CLI --json
// output and pattern library files.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2), so equal
// values always produce equal bytes. Types implementing
// encoding.TextMarshaler (life.RuleSet, for one) travel as CBOR text
// strings in their textual form.
//
// A `cbor` struct tag marks a type that only ever travels as CBOR, such
// as the response envelope. A `json` tag marks a type that is also
// printed as JSON by the CLI, such as life.Snapshot; fxamacker/cbor
// falls back to `json` tags when no `cbor` tag is present. A field
// never carries both.
package codec
