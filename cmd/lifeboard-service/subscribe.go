// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/bureau-foundation/lifeboard/lib/boardclient"
	"github.com/bureau-foundation/lifeboard/lib/codec"
	"github.com/bureau-foundation/lifeboard/lib/life"
	"github.com/bureau-foundation/lifeboard/lib/session"
)

// streamWriteTimeout bounds each frame write. A client that stops
// reading for this long is disconnected.
const streamWriteTimeout = 10 * time.Second

// handleSubscribe is the stream handler for the subscribe action. It
// forwards the subscription's snapshots as frames until the client
// disconnects, the board is deleted, or the service shuts down.
//
// Snapshots are pulled from the subscription by a separate goroutine
// and handed over unbuffered, so a slow client backs up into the
// subscription's own buffer and is resynced there rather than here.
func (bs *BoardService) handleSubscribe(ctx context.Context, raw []byte, conn net.Conn) {
	encoder := codec.NewEncoder(conn)

	var request boardclient.SubscribeRequest
	if err := decodeRequest(raw, &request); err != nil {
		writeFrame(conn, encoder, errorFrame(err))
		return
	}

	subscription, err := bs.manager.Subscribe(ctx, request.Board)
	if err != nil {
		writeFrame(conn, encoder, errorFrame(err))
		return
	}
	defer subscription.Close()

	logger := bs.logger.With("board", request.Board, "session", request.Session)
	logger.Info("subscribe stream started")
	defer logger.Info("subscribe stream ended")

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The client sends nothing after its request; a read returning
	// means it hung up.
	go func() {
		io.Copy(io.Discard, conn)
		cancel()
	}()

	snapshots := make(chan life.Snapshot)
	failed := make(chan error, 1)
	go func() {
		for {
			snapshot, err := subscription.Next(streamCtx)
			if err != nil {
				failed <- err
				return
			}
			select {
			case snapshots <- snapshot:
			case <-streamCtx.Done():
				return
			}
		}
	}()

	heartbeat := bs.clock.NewTicker(bs.config.Session.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		var frame boardclient.Frame
		select {
		case <-streamCtx.Done():
			return

		case snapshot := <-snapshots:
			frame = snapshotFrame(snapshot)

		case <-heartbeat.C:
			frame = boardclient.Frame{Type: boardclient.FrameHeartbeat}

		case err := <-failed:
			switch {
			case errors.Is(err, session.ErrBoardDisposed):
				logger.Info("board disposed under subscriber")
				writeFrame(conn, encoder, boardclient.Frame{Type: boardclient.FrameDisposed})
			case streamCtx.Err() != nil, errors.Is(err, session.ErrUnsubscribed):
			default:
				writeFrame(conn, encoder, errorFrame(err))
			}
			return
		}

		if err := writeFrame(conn, encoder, frame); err != nil {
			logger.Debug("subscribe stream write error", "error", err)
			return
		}
	}
}

// snapshotFrame wraps a snapshot, using the resync frame type for a
// snapshot that skipped intermediate versions.
func snapshotFrame(snapshot life.Snapshot) boardclient.Frame {
	frameType := boardclient.FrameSnapshot
	if snapshot.Resync {
		frameType = boardclient.FrameResync
	}
	return boardclient.Frame{Type: frameType, Snapshot: &snapshot}
}

func errorFrame(err error) boardclient.Frame {
	return boardclient.Frame{
		Type:    boardclient.FrameError,
		Message: err.Error(),
		Kind:    classifyError(err),
	}
}

func writeFrame(conn net.Conn, encoder *codec.Encoder, frame boardclient.Frame) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return encoder.Encode(frame)
}
