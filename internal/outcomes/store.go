/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package outcomes keeps the in-memory history of polling cycle results.
package outcomes

import (
	"sync"
	"time"

	"github.com/friendsincode/pirwatch/internal/models"
	"github.com/friendsincode/pirwatch/internal/telemetry"
)

// DefaultRetention is how long records are kept before purging.
const DefaultRetention = 24 * time.Hour

// Store is a thread-safe, time-bounded list of outcome records.
// Records are kept in append order, which is ascending by timestamp.
type Store struct {
	mu        sync.RWMutex
	records   []models.OutcomeRecord
	retention time.Duration
	now       func() time.Time
}

// NewStore creates a store. A nil clock uses time.Now.
func NewStore(retention time.Duration, now func() time.Time) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if now == nil {
		now = time.Now
	}
	return &Store{retention: retention, now: now}
}

// Append purges expired records and adds rec.
func (s *Store) Append(rec models.OutcomeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked(s.now())
	s.records = append(s.records, rec)
	telemetry.RetainedOutcomes.Set(float64(len(s.records)))
}

// Window returns records with now-d < timestamp <= now, oldest first.
func (s *Store) Window(d time.Duration) []models.OutcomeRecord {
	now := s.now()
	return s.between(now.Add(-d), now)
}

// Since returns records with timestamp strictly after t and not in the future.
func (s *Store) Since(t time.Time) []models.OutcomeRecord {
	return s.between(t, s.now())
}

// Retained purges expired records and returns a copy of the rest.
func (s *Store) Retained() []models.OutcomeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked(s.now())
	telemetry.RetainedOutcomes.Set(float64(len(s.records)))
	out := make([]models.OutcomeRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records currently held, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Last returns the most recent record.
func (s *Store) Last() (models.OutcomeRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return models.OutcomeRecord{}, false
	}
	return s.records[len(s.records)-1], true
}

// Retention returns the configured retention period.
func (s *Store) Retention() time.Duration {
	return s.retention
}

func (s *Store) between(after, upTo time.Time) []models.OutcomeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.OutcomeRecord, 0)
	for _, rec := range s.records {
		if rec.Timestamp.After(after) && !rec.Timestamp.After(upTo) {
			out = append(out, rec)
		}
	}
	return out
}

// purgeLocked drops records with timestamp <= now - retention.
func (s *Store) purgeLocked(now time.Time) {
	cutoff := now.Add(-s.retention)
	keep := 0
	for keep < len(s.records) && !s.records[keep].Timestamp.After(cutoff) {
		keep++
	}
	if keep == 0 {
		return
	}
	s.records = append(s.records[:0:0], s.records[keep:]...)
}
