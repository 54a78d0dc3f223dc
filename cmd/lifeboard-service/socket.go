// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/lifeboard/lib/boardclient"
	"github.com/bureau-foundation/lifeboard/lib/codec"
	"github.com/bureau-foundation/lifeboard/lib/life"
	"github.com/bureau-foundation/lifeboard/lib/service"
	"github.com/bureau-foundation/lifeboard/lib/session"
	"github.com/bureau-foundation/lifeboard/lib/version"
)

// registerActions registers every socket action on server.
func (bs *BoardService) registerActions(server *service.SocketServer) {
	server.ClassifyErrors(classifyError)

	server.Handle(boardclient.ActionStatus, bs.handleStatus)

	// Boards.
	server.Handle(boardclient.ActionListBoards, bs.handleListBoards)
	server.Handle(boardclient.ActionCreateBoard, bs.handleCreateBoard)
	server.Handle(boardclient.ActionGetBoard, bs.handleGetBoard)
	server.Handle(boardclient.ActionDeleteBoard, bs.handleDeleteBoard)
	server.Handle(boardclient.ActionSubmit, bs.handleSubmit)
	server.Handle(boardclient.ActionParticipants, bs.handleParticipants)

	// Presets.
	server.Handle(boardclient.ActionListRules, bs.handleListRules)
	server.Handle(boardclient.ActionListPatterns, bs.handleListPatterns)

	server.HandleStream(boardclient.ActionSubscribe, bs.handleSubscribe)

	bs.actions = sortedActions(server)
}

// decodeRequest unmarshals an action's fields. Malformed requests are
// the client's fault and classified as invalid_request.
func decodeRequest(raw []byte, request any) error {
	if err := codec.Unmarshal(raw, request); err != nil {
		return life.Errorf(life.KindInvalidRequest, "invalid request: %v", err)
	}
	return nil
}

func (bs *BoardService) handleStatus(ctx context.Context, raw []byte) (any, error) {
	boards, err := bs.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting boards: %w", err)
	}
	return boardclient.Status{
		Build:         version.Current(),
		Boards:        boards,
		Loaded:        bs.manager.Loaded(),
		UptimeSeconds: int64(bs.clock.Now().Sub(bs.startedAt).Seconds()),
		Database:      bs.config.DatabasePath(),
		Actions:       bs.actions,
	}, nil
}

func (bs *BoardService) handleListBoards(ctx context.Context, raw []byte) (any, error) {
	return bs.manager.List(ctx)
}

// handleCreateBoard fills omitted dimensions and rules from the
// configured defaults. An optional library pattern is stamped onto the
// new board before its first version is published.
func (bs *BoardService) handleCreateBoard(ctx context.Context, raw []byte) (any, error) {
	var request boardclient.CreateRequest
	if err := decodeRequest(raw, &request); err != nil {
		return nil, err
	}

	dimensions := request.Dimensions
	if dimensions == "" {
		dimensions = bs.config.Defaults.Dimensions
	}
	width, height, err := life.ParseDimensions(dimensions)
	if err != nil {
		return nil, err
	}

	ruleText := request.Rules
	if ruleText == "" {
		ruleText = bs.config.Defaults.Rules
	}
	rules, err := life.LookupRules(ruleText)
	if err != nil {
		return nil, err
	}

	params := session.CreateParams{
		Name:   request.Name,
		Width:  width,
		Height: height,
		Rules:  rules,
	}
	if request.Pattern != "" {
		params.Pattern, err = bs.resolvePattern(request.Pattern)
		if err != nil {
			return nil, err
		}
		params.X, params.Y = request.X, request.Y
	}

	return bs.manager.Create(ctx, params)
}

func (bs *BoardService) handleGetBoard(ctx context.Context, raw []byte) (any, error) {
	var request boardclient.BoardRequest
	if err := decodeRequest(raw, &request); err != nil {
		return nil, err
	}
	return bs.manager.Get(ctx, request.Board)
}

func (bs *BoardService) handleDeleteBoard(ctx context.Context, raw []byte) (any, error) {
	var request boardclient.BoardRequest
	if err := decodeRequest(raw, &request); err != nil {
		return nil, err
	}
	return nil, bs.manager.Delete(ctx, request.Board)
}

func (bs *BoardService) handleSubmit(ctx context.Context, raw []byte) (any, error) {
	var request boardclient.SubmitRequest
	if err := decodeRequest(raw, &request); err != nil {
		return nil, err
	}
	mutation, err := boardclient.DecodeMutation(request, bs.resolvePattern)
	if err != nil {
		return nil, err
	}
	return bs.manager.Submit(ctx, request.Board, life.Request{
		Mutation:     mutation,
		KnownVersion: request.KnownVersion,
		Participant:  request.Participant,
	})
}

func (bs *BoardService) handleParticipants(ctx context.Context, raw []byte) (any, error) {
	var request boardclient.BoardRequest
	if err := decodeRequest(raw, &request); err != nil {
		return nil, err
	}
	return bs.manager.Participants(ctx, request.Board)
}

func (bs *BoardService) handleListRules(ctx context.Context, raw []byte) (any, error) {
	return boardclient.RulesInfo{
		Presets:           life.Presets(),
		Sizes:             life.SizePresets(),
		DefaultRules:      bs.config.Defaults.Rules,
		DefaultDimensions: bs.config.Defaults.Dimensions,
		MaxDimensions:     life.FormatDimensions(bs.config.Limits.MaxWidth, bs.config.Limits.MaxHeight),
	}, nil
}

func (bs *BoardService) handleListPatterns(ctx context.Context, raw []byte) (any, error) {
	definitions := bs.library.List()
	patterns := make([]boardclient.PatternInfo, len(definitions))
	for index, definition := range definitions {
		patterns[index] = boardclient.PatternInfo{
			Name:        definition.Name,
			Description: definition.Description,
			Dimensions:  definition.Dimensions(),
			Rows:        definition.Rows,
			Builtin:     definition.Builtin,
		}
	}
	return patterns, nil
}
