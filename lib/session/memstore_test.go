// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/bureau-foundation/lifeboard/lib/life"
)

// memoryStore is an in-memory Store for tests.
type memoryStore struct {
	mu            sync.Mutex
	records       map[string]life.Record
	contributions map[string]map[string]Participation
	saves         int
	failSaves     bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		records:       make(map[string]life.Record),
		contributions: make(map[string]map[string]Participation),
	}
}

func (s *memoryStore) Load(ctx context.Context, id string) (life.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return life.Record{}, life.Errorf(life.KindBoardNotFound, "board %s not found", id)
	}
	return record, nil
}

func (s *memoryStore) Save(ctx context.Context, record life.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return errors.New("disk full")
	}
	s.saves++
	s.records[record.ID] = record
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return life.Errorf(life.KindBoardNotFound, "board %s not found", id)
	}
	delete(s.records, id)
	delete(s.contributions, id)
	return nil
}

func (s *memoryStore) List(ctx context.Context) ([]life.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]life.Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UpdatedAt.After(records[j].UpdatedAt) })
	return records, nil
}

func (s *memoryStore) RecordContributions(ctx context.Context, boardID string, counts map[string]int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	board := s.contributions[boardID]
	if board == nil {
		board = make(map[string]Participation)
		s.contributions[boardID] = board
	}
	for participant, count := range counts {
		entry := board[participant]
		entry.Participant = participant
		entry.Contributions += count
		entry.LastActive = at
		board[participant] = entry
	}
	return nil
}

func (s *memoryStore) Participants(ctx context.Context, boardID string) ([]Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []Participation
	for _, entry := range s.contributions[boardID] {
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Contributions != result[j].Contributions {
			return result[i].Contributions > result[j].Contributions
		}
		return result[i].Participant < result[j].Participant
	})
	return result, nil
}

func (s *memoryStore) record(id string) (life.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	return record, ok
}

func (s *memoryStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
