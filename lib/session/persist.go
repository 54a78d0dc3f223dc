// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/bureau-foundation/lifeboard/lib/clock"
	"github.com/bureau-foundation/lifeboard/lib/life"
)

// storeTimeout bounds each write the persister makes.
const storeTimeout = 10 * time.Second

// persister writes one board's records to the store off the
// coordinator goroutine. Only the newest pending record is kept;
// contribution counts accumulate until written.
type persister struct {
	boardID string
	store   Store
	clock   clock.Clock
	logger  *slog.Logger

	mu            sync.Mutex
	pending       *life.Record
	contributions map[string]int

	wake      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	flush     bool
}

func newPersister(boardID string, store Store, clk clock.Clock, logger *slog.Logger) *persister {
	p := &persister{
		boardID:       boardID,
		store:         store,
		clock:         clk,
		logger:        logger,
		contributions: make(map[string]int),
		wake:          make(chan struct{}, 1),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go p.run()
	return p
}

// enqueue replaces the pending record and credits participant, if any,
// with one contribution. It never blocks on the store.
func (p *persister) enqueue(record life.Record, participant string) {
	p.mu.Lock()
	p.pending = &record
	if participant != "" {
		p.contributions[participant]++
	}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// close stops the persister. With flush set, pending work is written
// first; otherwise it is dropped.
func (p *persister) close(flush bool) {
	p.closeOnce.Do(func() {
		p.flush = flush
		close(p.stop)
	})
	<-p.done
}

func (p *persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.write()
		case <-p.stop:
			if p.flush {
				p.write()
			}
			return
		}
	}
}

// take removes and returns the pending work.
func (p *persister) take() (*life.Record, map[string]int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	record := p.pending
	p.pending = nil
	var contributions map[string]int
	if len(p.contributions) > 0 {
		contributions = maps.Clone(p.contributions)
		clear(p.contributions)
	}
	return record, contributions
}

func (p *persister) write() {
	record, contributions := p.take()
	if record == nil && contributions == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if record != nil {
		if err := p.store.Save(ctx, *record); err != nil {
			p.logger.Error("saving board failed", "version", record.Version, "error", err)
		}
	}
	if contributions != nil {
		if err := p.store.RecordContributions(ctx, p.boardID, contributions, p.clock.Now()); err != nil {
			p.logger.Error("recording contributions failed", "participants", len(contributions), "error", err)
		}
	}
}
