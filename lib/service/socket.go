// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/lifeboard/lib/codec"
)

// ActionFunc handles a request/response action. raw is the whole CBOR
// request, including the action field. A nil result produces {ok:
// true} with no data.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// StreamFunc handles a streaming action. It owns conn until it returns
// and should return promptly once ctx is cancelled.
type StreamFunc func(ctx context.Context, raw []byte, conn net.Conn)

// ErrorClassifier maps a handler error to the kind string sent in the
// response envelope. An empty result omits the field.
type ErrorClassifier func(err error) string

// Response is the envelope of every request/response action.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Kind  string           `cbor:"kind,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// Kinds the server itself attaches, for failures that never reach a
// handler.
const (
	KindInvalidRequest = "invalid_request"
	KindUnknownAction  = "unknown_action"
	KindInternal       = "internal"
)

// Connection limits.
const (
	readTimeout    = 30 * time.Second
	writeTimeout   = 10 * time.Second
	maxRequestSize = 1 << 20
)

// SocketServer dispatches CBOR requests arriving on a Unix socket.
// Register every action before calling Serve.
type SocketServer struct {
	socketPath string
	logger     *slog.Logger
	classify   ErrorClassifier

	handlers       map[string]ActionFunc
	streamHandlers map[string]StreamFunc

	ready     chan struct{}
	readyOnce sync.Once

	activeConnections sync.WaitGroup
}

// NewSocketServer returns a server that will listen on socketPath.
func NewSocketServer(socketPath string, logger *slog.Logger) *SocketServer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SocketServer{
		socketPath:     socketPath,
		logger:         logger,
		handlers:       make(map[string]ActionFunc),
		streamHandlers: make(map[string]StreamFunc),
		ready:          make(chan struct{}),
	}
}

// ClassifyErrors sets the function that fills Response.Kind for
// handler errors.
func (s *SocketServer) ClassifyErrors(classify ErrorClassifier) {
	s.classify = classify
}

// Handle registers a request/response action. Registering an action
// twice panics.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	s.checkUnregistered(action)
	s.handlers[action] = handler
}

// HandleStream registers a streaming action.
func (s *SocketServer) HandleStream(action string, handler StreamFunc) {
	s.checkUnregistered(action)
	s.streamHandlers[action] = handler
}

func (s *SocketServer) checkUnregistered(action string) {
	_, plain := s.handlers[action]
	_, stream := s.streamHandlers[action]
	if plain || stream {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
}

// Actions returns the registered action names, streams included.
func (s *SocketServer) Actions() []string {
	actions := make([]string, 0, len(s.handlers)+len(s.streamHandlers))
	for action := range s.handlers {
		actions = append(actions, action)
	}
	for action := range s.streamHandlers {
		actions = append(actions, action)
	}
	return actions
}

// Ready is closed once the socket is listening.
func (s *SocketServer) Ready() <-chan struct{} { return s.ready }

// Serve listens until ctx is cancelled, then stops accepting and waits
// for in-flight connections, streams included, to finish. A stale
// socket file is replaced; the socket file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening", "path", s.socketPath)
	s.readyOnce.Do(func() { close(s.ready) })

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.writeResponse(conn, Response{Error: fmt.Sprintf("invalid request: %v", err), Kind: KindInvalidRequest})
		return
	}

	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.writeResponse(conn, Response{Error: fmt.Sprintf("invalid request: %v", err), Kind: KindInvalidRequest})
		return
	}
	if header.Action == "" {
		s.writeResponse(conn, Response{Error: "missing required field: action", Kind: KindInvalidRequest})
		return
	}

	if stream, ok := s.streamHandlers[header.Action]; ok {
		// Streams outlive the request deadline.
		conn.SetReadDeadline(time.Time{})
		stream(ctx, []byte(raw), conn)
		return
	}

	handler, ok := s.handlers[header.Action]
	if !ok {
		s.writeResponse(conn, Response{Error: fmt.Sprintf("unknown action %q", header.Action), Kind: KindUnknownAction})
		return
	}

	result, err := handler(ctx, []byte(raw))
	if err != nil {
		s.logger.Debug("action failed", "action", header.Action, "error", err)
		response := Response{Error: err.Error()}
		if s.classify != nil {
			response.Kind = s.classify(err)
		}
		s.writeResponse(conn, response)
		return
	}

	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeResponse(conn, Response{Error: fmt.Sprintf("marshaling response: %v", err), Kind: KindInternal})
			return
		}
		response.Data = data
	}
	s.writeResponse(conn, response)
}

// writeResponse encodes one envelope. Write failures are only logged:
// the connection is closing either way.
func (s *SocketServer) writeResponse(conn net.Conn, response Response) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("writing response failed", "error", err)
	}
}
