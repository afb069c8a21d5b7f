// Package memory holds run state without persistence, for tests and dry
// runs.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/pagevault/internal/snapshot"
)

// Store implements snapshot.StateStore purely in memory. Load always starts
// empty; mutations update the run state and are counted so tests can assert
// on write-through behavior.
type Store struct {
	mu        sync.Mutex
	successes int
	failures  int
	flushes   int
}

// New creates a memory state store.
func New() *Store {
	return &Store{}
}

// Load returns a fresh empty run state.
func (s *Store) Load(_ context.Context) (*snapshot.RunState, error) {
	return snapshot.NewRunState(), nil
}

// RecordSuccess applies the result to the run state.
func (s *Store) RecordSuccess(_ context.Context, st *snapshot.RunState, url string, artifacts snapshot.ArtifactSet) error {
	st.SetResult(url, artifacts)
	s.mu.Lock()
	s.successes++
	s.mu.Unlock()
	return nil
}

// RecordFailure appends the record to the run state.
func (s *Store) RecordFailure(_ context.Context, st *snapshot.RunState, rec snapshot.FailureRecord) error {
	st.AppendFailure(rec)
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
	return nil
}

// Flush counts the flush call; there is nothing durable to write.
func (s *Store) Flush(_ context.Context, _ *snapshot.RunState) error {
	s.mu.Lock()
	s.flushes++
	s.mu.Unlock()
	return nil
}

// Close is a no-op.
func (s *Store) Close(_ context.Context) error {
	return nil
}

// Counts reports recorded successes, failures, and flushes.
func (s *Store) Counts() (successes, failures, flushes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.successes, s.failures, s.flushes
}
