// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads lifeboard-service configuration from one YAML
// file.
//
// The file is named by the --config flag ([LoadFile]) or the
// LIFEBOARD_CONFIG environment variable ([Load]). Nothing is discovered
// and no other environment variable overrides a value. A service
// started with neither runs on [Default] rooted at its --state-dir.
//
// A file may carry development, staging, and production sections; the
// one matching [Config].Environment is merged over the base values.
// Path fields then have ${VAR} and ${VAR:-default} expanded, with
// ${LIFEBOARD_STATE} referring to the resolved state directory.
//
//	environment: production
//	paths:
//	  state: /var/lib/lifeboard
//	  patterns: ${LIFEBOARD_STATE}/patterns.jsonc
//	session:
//	  tick_interval: 250ms
//	  subscriber_buffer: 64
//	limits:
//	  max_width: 200
//	  max_height: 200
//	defaults:
//	  dimensions: 30x30
//	  rules: highlife
//	log:
//	  level: info
package config
