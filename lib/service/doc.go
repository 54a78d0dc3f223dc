// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service is the Unix socket transport between lifeboard-service
// and its clients.
//
// Every connection carries one CBOR request: a map with an "action"
// field plus action-specific fields. What follows depends on how the
// action was registered:
//
//   - [SocketServer.Handle]: one [Response] envelope {ok, error, kind,
//     data}, then the connection closes.
//   - [SocketServer.HandleStream]: the handler owns the connection and
//     writes a sequence of CBOR frames until it returns.
//
// [ServiceClient.Call] and [ServiceClient.OpenStream] are the matching
// client halves. A failed call surfaces as a [*ServiceError] whose Kind
// is the machine-readable error class the server attached, so clients
// can rebuild typed errors without parsing messages.
//
// The socket has no caller authentication. Whoever can open the socket
// file can use the service; file permissions on the state directory are
// the access control.
package service
