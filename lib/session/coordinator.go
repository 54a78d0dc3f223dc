// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/lifeboard/lib/clock"
	"github.com/bureau-foundation/lifeboard/lib/life"
)

// ErrBoardDisposed is returned by a Coordinator, and by the
// Subscriptions attached to it, once the board has been closed or
// deleted.
var ErrBoardDisposed = errors.New("session: board disposed")

// Defaults applied to a zero CoordinatorConfig.
const (
	DefaultTickInterval     = 500 * time.Millisecond
	DefaultSubscriberBuffer = 32
)

// CoordinatorConfig holds a Coordinator's collaborators.
type CoordinatorConfig struct {
	// Clock drives auto-evolution. Defaults to the wall clock.
	Clock clock.Clock

	// TickInterval is the time between generations while running.
	TickInterval time.Duration

	// SubscriberBuffer is each subscription's event buffer length.
	SubscriberBuffer int

	// Store receives the board's records and contribution counts. Nil
	// disables persistence.
	Store Store

	Logger *slog.Logger
}

func (c *CoordinatorConfig) applyDefaults() {
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.SubscriberBuffer <= 0 {
		c.SubscriberBuffer = DefaultSubscriberBuffer
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Coordinator is the single owner of one board. Every mutation, client
// or timer, runs on its goroutine in arrival order.
type Coordinator struct {
	boardID string
	config  CoordinatorConfig
	logger  *slog.Logger

	requests  chan coordinatorRequest
	stop      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	persister *persister
}

// coordinatorRequest is one item in the coordinator's queue. At most
// one of subscribe, unsubscribe, snapshot, or count is set; otherwise
// request is a mutation.
type coordinatorRequest struct {
	request     life.Request
	subscribe   *Subscription
	unsubscribe *Subscription
	snapshot    bool
	count       bool
	reply       chan coordinatorReply
}

type coordinatorReply struct {
	snapshot    life.Snapshot
	subscribers int
	err         error
}

// NewCoordinator starts a coordinator that owns board. The caller must
// not touch board afterwards. If the board is already running, ticking
// starts immediately.
func NewCoordinator(board *life.Board, config CoordinatorConfig) *Coordinator {
	config.applyDefaults()
	logger := config.Logger.With("board", board.ID())
	coordinator := &Coordinator{
		boardID:  board.ID(),
		config:   config,
		logger:   logger,
		requests: make(chan coordinatorRequest),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if config.Store != nil {
		coordinator.persister = newPersister(board.ID(), config.Store, config.Clock, logger)
	}
	go coordinator.run(board)
	return coordinator
}

// BoardID returns the id of the board this coordinator owns.
func (c *Coordinator) BoardID() string { return c.boardID }

// Done is closed once the coordinator goroutine has exited.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// Submit queues a client request and waits for its result. The
// returned snapshot is the board immediately after this request was
// applied. A rejected request leaves the board and its version
// unchanged and returns the typed life.Error. Tick cannot be submitted.
func (c *Coordinator) Submit(ctx context.Context, request life.Request) (life.Snapshot, error) {
	if request.Mutation == nil {
		return life.Snapshot{}, life.Errorf(life.KindInvalidRequest, "no mutation")
	}
	if request.Mutation.Op() == life.OpTick {
		return life.Snapshot{}, life.Errorf(life.KindInvalidRequest, "tick is not a client mutation")
	}
	return c.call(ctx, coordinatorRequest{request: request})
}

// Snapshot returns the board's current state.
func (c *Coordinator) Snapshot(ctx context.Context) (life.Snapshot, error) {
	return c.call(ctx, coordinatorRequest{snapshot: true})
}

// Subscribe attaches a new subscription. Its first event is the board
// as of this call.
func (c *Coordinator) Subscribe(ctx context.Context) (*Subscription, error) {
	subscription := newSubscription(c, c.config.SubscriberBuffer)
	if _, err := c.call(ctx, coordinatorRequest{subscribe: subscription}); err != nil {
		subscription.Close()
		return nil, err
	}
	return subscription, nil
}

// Subscribers returns the number of open subscriptions.
func (c *Coordinator) Subscribers(ctx context.Context) (int, error) {
	reply, err := c.roundTrip(ctx, coordinatorRequest{count: true})
	return reply.subscribers, err
}

// unsubscribe detaches subscription so the coordinator stops holding
// its buffered snapshots. No-op once the coordinator has stopped.
func (c *Coordinator) unsubscribe(subscription *Subscription) {
	select {
	case c.requests <- coordinatorRequest{unsubscribe: subscription}:
	case <-c.done:
	}
}

func (c *Coordinator) call(ctx context.Context, request coordinatorRequest) (life.Snapshot, error) {
	reply, err := c.roundTrip(ctx, request)
	return reply.snapshot, err
}

func (c *Coordinator) roundTrip(ctx context.Context, request coordinatorRequest) (coordinatorReply, error) {
	request.reply = make(chan coordinatorReply, 1)
	select {
	case c.requests <- request:
	case <-c.done:
		return coordinatorReply{}, ErrBoardDisposed
	case <-ctx.Done():
		return coordinatorReply{}, ctx.Err()
	}
	// Once queued the request is always answered, so only the caller's
	// context can cut the wait short.
	select {
	case reply := <-request.reply:
		return reply, reply.err
	case <-ctx.Done():
		return coordinatorReply{}, ctx.Err()
	}
}

// Close stops the coordinator, ends every subscription with
// ErrBoardDisposed, and flushes the last record to the store. It
// returns when all of that is done. Safe to call more than once.
func (c *Coordinator) Close() {
	c.shutdown(true)
}

// Dispose is Close for a board being deleted: the pending record is
// discarded instead of flushed, so the board is not written back after
// its deletion.
func (c *Coordinator) Dispose() {
	c.shutdown(false)
}

func (c *Coordinator) shutdown(flush bool) {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
	if c.persister != nil {
		c.persister.close(flush)
	}
}

func (c *Coordinator) run(board *life.Board) {
	defer close(c.done)

	subscribers := make(map[*Subscription]struct{})
	var ticker *clock.Ticker
	var ticks <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		for subscription := range subscribers {
			close(subscription.events)
		}
	}()

	// syncTicker starts or stops the ticker to match the board's
	// running flag. A stopped ticker's buffered tick is abandoned with
	// the channel.
	syncTicker := func() {
		switch {
		case board.Running() && ticker == nil:
			ticker = c.config.Clock.NewTicker(c.config.TickInterval)
			ticks = ticker.C
		case !board.Running() && ticker != nil:
			ticker.Stop()
			ticker, ticks = nil, nil
		}
	}
	syncTicker()

	for {
		select {
		case <-c.stop:
			c.logger.Debug("coordinator stopping", "version", board.Version(), "subscribers", len(subscribers))
			return

		case <-ticks:
			if err := board.Apply(life.Tick{}); err != nil {
				// The board went idle between the tick firing and its
				// delivery. Discard.
				continue
			}
			c.commit(board, subscribers, "")

		case request := <-c.requests:
			switch {
			case request.subscribe != nil:
				subscription := request.subscribe
				// The buffer is empty, so the initial snapshot always fits.
				subscription.events <- board.Snapshot()
				subscribers[subscription] = struct{}{}
				request.reply <- coordinatorReply{}

			case request.unsubscribe != nil:
				delete(subscribers, request.unsubscribe)

			case request.count:
				request.reply <- coordinatorReply{subscribers: len(subscribers)}

			case request.snapshot:
				request.reply <- coordinatorReply{snapshot: board.Snapshot()}

			default:
				snapshot, err := c.apply(board, request.request, subscribers)
				syncTicker()
				request.reply <- coordinatorReply{snapshot: snapshot, err: err}
			}
		}
	}
}

func (c *Coordinator) apply(board *life.Board, request life.Request, subscribers map[*Subscription]struct{}) (life.Snapshot, error) {
	op := request.Mutation.Op()
	if request.KnownVersion != 0 && request.KnownVersion != board.Version() {
		c.logger.Debug("request based on stale version",
			"op", op,
			"known_version", request.KnownVersion,
			"current_version", board.Version(),
			"participant", request.Participant,
		)
	}
	wasRunning := board.Running()
	if err := board.Apply(request.Mutation); err != nil {
		c.logger.Debug("mutation rejected", "op", op, "participant", request.Participant, "error", err)
		return life.Snapshot{}, err
	}
	if board.Running() != wasRunning {
		c.logger.Info("board running state changed", "running", board.Running(), "version", board.Version(), "participant", request.Participant)
	}
	return c.commit(board, subscribers, request.Participant), nil
}

// commit publishes the board's new version: a snapshot to every live
// subscriber and a record to the persister.
func (c *Coordinator) commit(board *life.Board, subscribers map[*Subscription]struct{}, participant string) life.Snapshot {
	snapshot := board.Snapshot()
	for subscription := range subscribers {
		if subscription.isClosed() {
			delete(subscribers, subscription)
			continue
		}
		subscription.offer(snapshot)
	}
	if c.persister != nil {
		c.persister.enqueue(board.Record(c.config.Clock.Now()), participant)
	}
	return snapshot
}
