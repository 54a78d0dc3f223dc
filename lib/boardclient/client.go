// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/bureau-foundation/lifeboard/lib/codec"
	"github.com/bureau-foundation/lifeboard/lib/life"
	"github.com/bureau-foundation/lifeboard/lib/service"
	"github.com/bureau-foundation/lifeboard/lib/session"
)

// Client is a typed client for lifeboard-service. It holds no
// connection; each call dials the socket.
type Client struct {
	service     *service.ServiceClient
	participant string
}

// New returns a client for the service at socketPath. participant, if
// non-empty, is attached to every submitted mutation for attribution.
func New(socketPath, participant string) *Client {
	return &Client{
		service:     service.NewServiceClient(socketPath),
		participant: participant,
	}
}

// SocketPath returns the socket the client dials.
func (c *Client) SocketPath() string { return c.service.SocketPath() }

// Participant returns the identity attached to submissions.
func (c *Client) Participant() string { return c.participant }

// Status reports on the running service.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var status Status
	err := c.call(ctx, ActionStatus, nil, &status)
	return status, err
}

// ListBoards summarizes every board, most recently updated first.
func (c *Client) ListBoards(ctx context.Context) ([]session.Summary, error) {
	var summaries []session.Summary
	err := c.call(ctx, ActionListBoards, nil, &summaries)
	return summaries, err
}

// CreateBoard creates a board and returns its first snapshot.
func (c *Client) CreateBoard(ctx context.Context, request CreateRequest) (life.Snapshot, error) {
	var snapshot life.Snapshot
	err := c.call(ctx, ActionCreateBoard, request, &snapshot)
	return snapshot, err
}

// GetBoard returns a board's current snapshot.
func (c *Client) GetBoard(ctx context.Context, id string) (life.Snapshot, error) {
	var snapshot life.Snapshot
	err := c.call(ctx, ActionGetBoard, BoardRequest{Board: id}, &snapshot)
	return snapshot, err
}

// DeleteBoard deletes a board. Its watchers receive a disposed frame.
func (c *Client) DeleteBoard(ctx context.Context, id string) error {
	return c.call(ctx, ActionDeleteBoard, BoardRequest{Board: id}, nil)
}

// Submit applies one mutation to a board and returns the snapshot
// immediately after it. knownVersion is the last version the caller
// saw, or zero.
func (c *Client) Submit(ctx context.Context, id string, mutation life.Mutation, knownVersion uint64) (life.Snapshot, error) {
	request, err := EncodeMutation(mutation)
	if err != nil {
		return life.Snapshot{}, err
	}
	return c.submit(ctx, id, request, knownVersion)
}

// Stamp stamps a named library pattern at (x, y).
func (c *Client) Stamp(ctx context.Context, id, pattern string, x, y int, knownVersion uint64) (life.Snapshot, error) {
	request := SubmitRequest{Op: string(life.OpStampPattern), Pattern: pattern, X: x, Y: y}
	return c.submit(ctx, id, request, knownVersion)
}

func (c *Client) submit(ctx context.Context, id string, request SubmitRequest, knownVersion uint64) (life.Snapshot, error) {
	request.Board = id
	request.KnownVersion = knownVersion
	request.Participant = c.participant
	var snapshot life.Snapshot
	err := c.call(ctx, ActionSubmit, request, &snapshot)
	return snapshot, err
}

// ListRules returns the rule and size presets.
func (c *Client) ListRules(ctx context.Context) (RulesInfo, error) {
	var info RulesInfo
	err := c.call(ctx, ActionListRules, nil, &info)
	return info, err
}

// ListPatterns returns the service's pattern library.
func (c *Client) ListPatterns(ctx context.Context) ([]PatternInfo, error) {
	var patterns []PatternInfo
	err := c.call(ctx, ActionListPatterns, nil, &patterns)
	return patterns, err
}

// Participants returns a board's contributors.
func (c *Client) Participants(ctx context.Context, id string) ([]session.Participation, error) {
	var participants []session.Participation
	err := c.call(ctx, ActionParticipants, BoardRequest{Board: id}, &participants)
	return participants, err
}

func (c *Client) call(ctx context.Context, action string, body any, result any) error {
	fields, err := toFields(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", action, err)
	}
	return translateError(c.service.Call(ctx, action, fields, result))
}

// toFields converts a request struct into the field map the service
// client sends, using the struct's cbor tags.
func toFields(body any) (map[string]any, error) {
	if body == nil {
		return nil, nil
	}
	encoded, err := codec.Marshal(body)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := codec.Unmarshal(encoded, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// translateError rebuilds a life.Error from a service error that
// carries one of its kinds, so callers can use errors.Is against the
// life sentinels on either side of the socket.
func translateError(err error) error {
	var serviceError *service.ServiceError
	if !errors.As(err, &serviceError) {
		return err
	}
	switch kind := life.ErrorKind(serviceError.Kind); kind {
	case life.KindOutOfBounds, life.KindInvalidWhileRunning, life.KindFormatError,
		life.KindBoardNotFound, life.KindRuleSetInvalid, life.KindInvalidDimensions,
		life.KindInvalidRequest:
		return &life.Error{Kind: kind, Message: serviceError.Message}
	default:
		return err
	}
}
