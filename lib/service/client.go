// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/lifeboard/lib/codec"
)

const (
	dialTimeout         = 5 * time.Second
	responseReadTimeout = 45 * time.Second
	maxResponseSize     = 8 << 20
)

// ServiceError is a failure reported by the server (ok=false).
type ServiceError struct {
	Action  string
	Message string

	// Kind is the server's classification of the failure, empty if
	// the server attached none.
	Kind string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error on %q: %s", e.Action, e.Message)
}

// ServiceClient talks to a service socket, one connection per call.
type ServiceClient struct {
	socketPath string
}

// NewServiceClient returns a client for socketPath. No connection is
// made until the first call.
func NewServiceClient(socketPath string) *ServiceClient {
	return &ServiceClient{socketPath: socketPath}
}

// SocketPath returns the socket the client dials.
func (c *ServiceClient) SocketPath() string { return c.socketPath }

// Call sends action with fields and decodes the response data into
// result, if result is non-nil. Server-side failures are returned as
// *ServiceError; transport failures are plain wrapped errors.
func (c *ServiceClient) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	conn, err := c.dial(ctx, action, fields)
	if err != nil {
		return err
	}
	defer conn.Close()

	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}
	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))

	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return fmt.Errorf("calling %q on %s: reading response: %w", action, c.socketPath, err)
	}
	if !response.OK {
		return &ServiceError{Action: action, Message: response.Error, Kind: response.Kind}
	}
	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}

// OpenStream sends a streaming request and returns the open stream.
// Cancelling ctx closes the stream.
func (c *ServiceClient) OpenStream(ctx context.Context, action string, fields map[string]any) (*Stream, error) {
	conn, err := c.dial(ctx, action, fields)
	if err != nil {
		return nil, err
	}
	stream := &Stream{
		action:  action,
		conn:    conn,
		decoder: codec.NewDecoder(conn),
		done:    make(chan struct{}),
	}
	go func() {
		select {
		case <-ctx.Done():
			stream.Close()
		case <-stream.done:
		}
	}()
	return stream, nil
}

// dial connects and writes the request map: the caller's fields plus
// "action".
func (c *ServiceClient) dial(ctx context.Context, action string, fields map[string]any) (net.Conn, error) {
	request := make(map[string]any, len(fields)+1)
	maps.Copy(request, fields)
	request["action"] = action

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("calling %q on %s: connecting: %w", action, c.socketPath, err)
	}
	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		conn.Close()
		return nil, fmt.Errorf("calling %q on %s: writing request: %w", action, c.socketPath, err)
	}
	return conn, nil
}

// Stream is the client side of a streaming action.
type Stream struct {
	action    string
	conn      net.Conn
	decoder   *codec.Decoder
	done      chan struct{}
	closeOnce sync.Once
}

// Recv decodes the next frame into frame. It returns io.EOF when the
// server ends the stream cleanly and net.ErrClosed after Close.
func (s *Stream) Recv(frame any) error {
	if err := s.decoder.Decode(frame); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			return err
		}
		select {
		case <-s.done:
			return net.ErrClosed
		default:
		}
		return fmt.Errorf("reading %q stream: %w", s.action, err)
	}
	return nil
}

// Close ends the stream. It is safe to call more than once and from
// another goroutine than the one calling Recv.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}
