// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/lifeboard/lib/clock"
	"github.com/bureau-foundation/lifeboard/lib/life"
)

// ErrManagerClosed is returned by every Manager operation after Close.
var ErrManagerClosed = errors.New("session: manager closed")

// Config holds a Manager's collaborators and limits.
type Config struct {
	// Store is required.
	Store Store

	Clock            clock.Clock
	Logger           *slog.Logger
	TickInterval     time.Duration
	SubscriberBuffer int

	// CheckDimensions, if set, rejects board sizes beyond the
	// deployment's limits. life.MaxCells is always enforced.
	CheckDimensions func(width, height int) error

	// NewID generates board ids. Defaults to random UUIDs.
	NewID func() string
}

// CreateParams describes a board to create.
type CreateParams struct {
	Name   string
	Width  int
	Height int
	Rules  life.RuleSet

	// Pattern, if set, is stamped at (X, Y) on the new board.
	Pattern life.Grid
	X       int
	Y       int
}

// Summary describes a board without its cells.
type Summary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Dimensions string `json:"dimensions"`
	Rules      string `json:"rules"`
	Version    uint64 `json:"version"`
	Generation uint64 `json:"generation"`
	Running    bool   `json:"running"`
	Loaded     bool   `json:"loaded"`

	// Subscribers is the number of open subscriptions on a loaded
	// board.
	Subscribers int `json:"subscribers"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// loadTimeout bounds a board's load from the store. Loads run on their
// own goroutine so that a caller's deadline only ends that caller's
// wait.
const loadTimeout = 10 * time.Second

// boardEntry is a board's slot in the Manager. done is closed once the
// slot's work (load, create, or delete) has finished; coordinator and
// err are written before that and read only after.
type boardEntry struct {
	done        chan struct{}
	coordinator *Coordinator
	err         error

	// deleting marks a slot held by Delete. Callers that find one wait
	// for it and then look the board up again.
	deleting bool
}

func newBoardEntry() *boardEntry {
	return &boardEntry{done: make(chan struct{})}
}

// ready returns the entry's coordinator if its work has finished
// successfully, without blocking.
func (e *boardEntry) ready() *Coordinator {
	select {
	case <-e.done:
		return e.coordinator
	default:
		return nil
	}
}

// Manager owns the set of loaded boards. Boards are loaded from the
// store on first use and stay loaded until deleted or until the
// Manager is closed. Loads and deletes of one board never wait on
// another board.
type Manager struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	boards map[string]*boardEntry
	closed bool
}

// NewManager returns a Manager with no boards loaded.
func NewManager(config Config) (*Manager, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("session: Store is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.NewID == nil {
		config.NewID = uuid.NewString
	}
	return &Manager{
		config: config,
		logger: config.Logger,
		boards: make(map[string]*boardEntry),
	}, nil
}

func (m *Manager) coordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		Clock:            m.config.Clock,
		TickInterval:     m.config.TickInterval,
		SubscriberBuffer: m.config.SubscriberBuffer,
		Store:            m.config.Store,
		Logger:           m.logger,
	}
}

// Create validates params, persists the new board, and loads it. The
// returned snapshot is the board at version 1.
func (m *Manager) Create(ctx context.Context, params CreateParams) (life.Snapshot, error) {
	if m.config.CheckDimensions != nil {
		if err := m.config.CheckDimensions(params.Width, params.Height); err != nil {
			return life.Snapshot{}, err
		}
	}
	now := m.config.Clock.Now()
	board, err := life.NewBoard(life.BoardParams{
		ID:        m.config.NewID(),
		Name:      params.Name,
		Width:     params.Width,
		Height:    params.Height,
		Rules:     params.Rules,
		Initial:   params.Pattern,
		InitialX:  params.X,
		InitialY:  params.Y,
		CreatedAt: now,
	})
	if err != nil {
		return life.Snapshot{}, err
	}
	snapshot := board.Snapshot()

	id := board.ID()
	entry := newBoardEntry()
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return life.Snapshot{}, ErrManagerClosed
	}
	if _, exists := m.boards[id]; exists {
		m.mu.Unlock()
		return life.Snapshot{}, life.Errorf(life.KindInvalidRequest, "board %s already exists", id)
	}
	m.boards[id] = entry
	m.mu.Unlock()

	if err := m.config.Store.Save(ctx, board.Record(now)); err != nil {
		m.release(id, entry, err)
		return life.Snapshot{}, fmt.Errorf("saving new board: %w", err)
	}
	entry.coordinator = NewCoordinator(board, m.coordinatorConfig())
	close(entry.done)

	m.logger.Info("board created",
		"board", snapshot.BoardID,
		"name", snapshot.Name,
		"dimensions", snapshot.Dimensions,
		"rules", snapshot.Rules,
	)
	return snapshot, nil
}

// Get returns a board's current snapshot.
func (m *Manager) Get(ctx context.Context, id string) (life.Snapshot, error) {
	coordinator, err := m.coordinator(ctx, id)
	if err != nil {
		return life.Snapshot{}, err
	}
	snapshot, err := coordinator.Snapshot(ctx)
	return snapshot, m.translate(id, err)
}

// Submit routes request to the board's coordinator.
func (m *Manager) Submit(ctx context.Context, id string, request life.Request) (life.Snapshot, error) {
	coordinator, err := m.coordinator(ctx, id)
	if err != nil {
		return life.Snapshot{}, err
	}
	snapshot, err := coordinator.Submit(ctx, request)
	return snapshot, m.translate(id, err)
}

// Subscribe attaches a subscription to a board.
func (m *Manager) Subscribe(ctx context.Context, id string) (*Subscription, error) {
	coordinator, err := m.coordinator(ctx, id)
	if err != nil {
		return nil, err
	}
	subscription, err := coordinator.Subscribe(ctx)
	return subscription, m.translate(id, err)
}

// Participants returns a board's contributors.
func (m *Manager) Participants(ctx context.Context, id string) ([]Participation, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	return m.config.Store.Participants(ctx, id)
}

// Delete unloads a board, ends its subscriptions with
// ErrBoardDisposed, and removes it from the store. Callers of the board
// wait until the deletion finishes and then see BoardNotFound. If ctx
// ends first the deletion still completes in the background.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if id == "" {
		return life.Errorf(life.KindInvalidRequest, "board id is required")
	}
	tombstone := newBoardEntry()
	tombstone.deleting = true
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	previous := m.boards[id]
	m.boards[id] = tombstone
	m.mu.Unlock()

	go m.remove(id, previous, tombstone)

	select {
	case <-tombstone.done:
		return tombstone.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// remove does Delete's work for the slot tombstone. previous is the
// slot it replaced, if any; its pending load is allowed to finish so
// that the loaded coordinator can be disposed.
func (m *Manager) remove(id string, previous, tombstone *boardEntry) {
	var coordinator *Coordinator
	if previous != nil {
		<-previous.done
		coordinator = previous.coordinator
	}
	if coordinator != nil {
		coordinator.Dispose()
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	err := m.config.Store.Delete(ctx, id)
	cancel()
	if err == nil {
		m.logger.Info("board deleted", "board", id, "was_loaded", coordinator != nil)
	}
	m.release(id, tombstone, err)
}

// List summarizes every stored board. Loaded boards report their live
// version, generation, and running state.
func (m *Manager) List(ctx context.Context) ([]Summary, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	records, err := m.config.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(records))
	for _, record := range records {
		summary := Summary{
			ID:         record.ID,
			Name:       record.Name,
			Dimensions: record.Dimensions(),
			Rules:      record.Rules.String(),
			Version:    record.Version,
			Generation: record.Generation,
			CreatedAt:  record.CreatedAt,
			UpdatedAt:  record.UpdatedAt,
		}
		if coordinator := m.loaded(record.ID); coordinator != nil {
			if snapshot, err := coordinator.Snapshot(ctx); err == nil {
				summary.Version = snapshot.Version
				summary.Generation = snapshot.Generation
				summary.Running = snapshot.Running
				summary.Loaded = true
			}
			if count, err := coordinator.Subscribers(ctx); err == nil {
				summary.Subscribers = count
			}
		}
		summaries = append(summaries, summary)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// Loaded returns the number of boards with a running coordinator.
func (m *Manager) Loaded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, entry := range m.boards {
		if entry.ready() != nil {
			count++
		}
	}
	return count
}

// Close stops every coordinator, flushing their last records. Loads and
// deletes in progress are waited for. All later operations return
// ErrManagerClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	entries := m.boards
	m.boards = make(map[string]*boardEntry)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, entry := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-entry.done
			if entry.coordinator != nil {
				entry.coordinator.Close()
			}
		}()
	}
	wg.Wait()
	m.logger.Info("session manager closed", "boards", len(entries))
}

func (m *Manager) checkOpen() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrManagerClosed
	}
	return nil
}

// loaded returns id's coordinator if it is loaded, without loading it.
func (m *Manager) loaded(id string) *Coordinator {
	m.mu.Lock()
	entry := m.boards[id]
	m.mu.Unlock()
	if entry == nil {
		return nil
	}
	return entry.ready()
}

// coordinator returns the loaded coordinator for id, loading the board
// from the store if needed. Concurrent callers share one load. ctx
// bounds only this caller's wait.
func (m *Manager) coordinator(ctx context.Context, id string) (*Coordinator, error) {
	if id == "" {
		return nil, life.Errorf(life.KindInvalidRequest, "board id is required")
	}
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, ErrManagerClosed
		}
		entry, ok := m.boards[id]
		if !ok {
			entry = newBoardEntry()
			m.boards[id] = entry
			go m.load(id, entry)
		}
		m.mu.Unlock()

		select {
		case <-entry.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if entry.deleting {
			continue
		}
		if entry.err != nil {
			return nil, entry.err
		}
		return entry.coordinator, nil
	}
}

// load reads id from the store and starts its coordinator.
func (m *Manager) load(id string, entry *boardEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	record, err := m.config.Store.Load(ctx, id)
	if err != nil {
		m.release(id, entry, err)
		return
	}
	board, err := life.RestoreBoard(record)
	if err != nil {
		m.release(id, entry, fmt.Errorf("restoring board %s: %w", id, err))
		return
	}
	entry.coordinator = NewCoordinator(board, m.coordinatorConfig())
	close(entry.done)
	m.logger.Debug("board loaded", "board", id, "version", record.Version)
}

// release completes an entry that holds no coordinator and frees its
// slot, so the next caller starts over from the store.
func (m *Manager) release(id string, entry *boardEntry, err error) {
	entry.err = err
	m.mu.Lock()
	if m.boards[id] == entry {
		delete(m.boards, id)
	}
	m.mu.Unlock()
	close(entry.done)
}

// translate turns a coordinator's disposal into the error a caller of
// a deleted board expects.
func (m *Manager) translate(id string, err error) error {
	if errors.Is(err, ErrBoardDisposed) {
		if closedErr := m.checkOpen(); closedErr != nil {
			return closedErr
		}
		return life.Errorf(life.KindBoardNotFound, "board %s was deleted", id)
	}
	return err
}
