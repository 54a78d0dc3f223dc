// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardclient

import (
	"strings"

	"github.com/bureau-foundation/lifeboard/lib/life"
	"github.com/bureau-foundation/lifeboard/lib/version"
)

// Socket action names served by lifeboard-service.
const (
	ActionStatus       = "status"
	ActionListBoards   = "list-boards"
	ActionCreateBoard  = "create-board"
	ActionGetBoard     = "get-board"
	ActionDeleteBoard  = "delete-board"
	ActionSubmit       = "submit"
	ActionListRules    = "list-rules"
	ActionListPatterns = "list-patterns"
	ActionParticipants = "participants"
	ActionSubscribe    = "subscribe"
)

// Subscribe stream frame types.
const (
	FrameSnapshot  = "snapshot"
	FrameResync    = "resync"
	FrameHeartbeat = "heartbeat"
	FrameDisposed  = "disposed"
	FrameError     = "error"
)

// BoardRequest is the request body of actions that address one board.
type BoardRequest struct {
	Board string `cbor:"board"`
}

// CreateRequest is the create-board request body. Empty Dimensions
// and Rules take the service's configured defaults.
type CreateRequest struct {
	Name       string `cbor:"name"`
	Dimensions string `cbor:"dimensions,omitempty"`
	Rules      string `cbor:"rules,omitempty"`

	// Pattern names a library pattern stamped at (X, Y).
	Pattern string `cbor:"pattern,omitempty"`
	X       int    `cbor:"x,omitempty"`
	Y       int    `cbor:"y,omitempty"`
}

// SubmitRequest is the submit request body: one mutation for one
// board. Which of the remaining fields apply depends on Op.
type SubmitRequest struct {
	Board        string `cbor:"board"`
	Op           string `cbor:"op"`
	KnownVersion uint64 `cbor:"known_version,omitempty"`
	Participant  string `cbor:"participant,omitempty"`

	X       int  `cbor:"x,omitempty"`
	Y       int  `cbor:"y,omitempty"`
	Running bool `cbor:"running,omitempty"`

	// A stamp carries either a library pattern name or inline cells in
	// board text form with their dimensions.
	Pattern    string `cbor:"pattern,omitempty"`
	Cells      string `cbor:"cells,omitempty"`
	Dimensions string `cbor:"dimensions,omitempty"`
}

// SubscribeRequest is the subscribe request body. Session is an
// opaque client-chosen id that appears in the service's logs.
type SubscribeRequest struct {
	Board   string `cbor:"board"`
	Session string `cbor:"session,omitempty"`
}

// Frame is one message on a subscribe stream.
type Frame struct {
	Type     string         `cbor:"type"`
	Snapshot *life.Snapshot `cbor:"snapshot,omitempty"`
	Message  string         `cbor:"message,omitempty"`
	Kind     string         `cbor:"kind,omitempty"`
}

// Status is the status action's response.
type Status struct {
	Build         version.Build `json:"build"`
	Boards        int           `json:"boards"`
	Loaded        int           `json:"loaded"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Database      string        `json:"database"`
	Actions       []string      `json:"actions"`
}

// RulesInfo is the list-rules response: the rule and size presets
// offered for new boards plus the service defaults.
type RulesInfo struct {
	Presets           []life.Preset `json:"presets"`
	Sizes             []string      `json:"sizes"`
	DefaultRules      string        `json:"default_rules"`
	DefaultDimensions string        `json:"default_dimensions"`
	MaxDimensions     string        `json:"max_dimensions"`
}

// PatternInfo describes one library pattern.
type PatternInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Dimensions  string   `json:"dimensions"`
	Rows        []string `json:"rows"`
	Builtin     bool     `json:"builtin"`
}

// EncodeMutation converts a client mutation into submit fields.
// Tick is not a client mutation and is rejected.
func EncodeMutation(mutation life.Mutation) (SubmitRequest, error) {
	switch m := mutation.(type) {
	case life.ToggleCell:
		return SubmitRequest{Op: string(life.OpToggleCell), X: m.X, Y: m.Y}, nil
	case life.SetRunning:
		return SubmitRequest{Op: string(life.OpSetRunning), Running: m.Running}, nil
	case life.Step:
		return SubmitRequest{Op: string(life.OpStep)}, nil
	case life.Reset:
		return SubmitRequest{Op: string(life.OpReset)}, nil
	case life.StampPattern:
		if m.Pattern.IsZero() {
			return SubmitRequest{}, life.Errorf(life.KindInvalidRequest, "stamp requires a pattern")
		}
		return SubmitRequest{
			Op:         string(life.OpStampPattern),
			X:          m.X,
			Y:          m.Y,
			Cells:      life.EncodeGrid(m.Pattern),
			Dimensions: life.FormatDimensions(m.Pattern.Width(), m.Pattern.Height()),
		}, nil
	case nil:
		return SubmitRequest{}, life.Errorf(life.KindInvalidRequest, "no mutation")
	default:
		return SubmitRequest{}, life.Errorf(life.KindInvalidRequest, "%s is not a client mutation", mutation.Op())
	}
}

// PatternResolver finds a library pattern by name.
type PatternResolver func(name string) (life.Grid, error)

// DecodeMutation converts submit fields back into a mutation. Named
// patterns are resolved through resolve, which may be nil if the
// caller has no library.
func DecodeMutation(request SubmitRequest, resolve PatternResolver) (life.Mutation, error) {
	switch life.Op(strings.TrimSpace(request.Op)) {
	case life.OpToggleCell:
		return life.ToggleCell{X: request.X, Y: request.Y}, nil
	case life.OpSetRunning:
		return life.SetRunning{Running: request.Running}, nil
	case life.OpStep:
		return life.Step{}, nil
	case life.OpReset:
		return life.Reset{}, nil
	case life.OpStampPattern:
		pattern, err := decodeStamp(request, resolve)
		if err != nil {
			return nil, err
		}
		return life.StampPattern{X: request.X, Y: request.Y, Pattern: pattern}, nil
	case "":
		return nil, life.Errorf(life.KindInvalidRequest, "missing required field: op")
	default:
		return nil, life.Errorf(life.KindInvalidRequest, "unknown op %q", request.Op)
	}
}

func decodeStamp(request SubmitRequest, resolve PatternResolver) (life.Grid, error) {
	switch {
	case request.Pattern != "" && request.Cells != "":
		return life.Grid{}, life.Errorf(life.KindInvalidRequest, "stamp takes a pattern name or cells, not both")
	case request.Pattern != "":
		if resolve == nil {
			return life.Grid{}, life.Errorf(life.KindInvalidRequest, "no pattern library available")
		}
		return resolve(request.Pattern)
	case request.Cells != "":
		width, height, err := life.ParseDimensions(request.Dimensions)
		if err != nil {
			return life.Grid{}, err
		}
		return life.DecodeGrid(request.Cells, width, height)
	default:
		return life.Grid{}, life.Errorf(life.KindInvalidRequest, "stamp requires a pattern name or cells")
	}
}
