// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package boardclient is the typed client for lifeboard-service and
// the home of the socket protocol's request and frame types.
//
// Request/response actions go through [Client] methods, one
// connection per call. Errors the service classifies with a life
// error kind come back as *life.Error, so errors.Is works against the
// life sentinels on the client side too.
//
// [Client.Watch] follows a board over the subscribe stream and keeps
// following it across service restarts, reconnecting with exponential
// backoff.
package boardclient
