package store

import (
	"sync"
	"time"
)

// RunPhase describes the lifecycle phase of a snapshot run.
type RunPhase string

const (
	PhaseIdle     RunPhase = "idle"
	PhaseRunning  RunPhase = "running"
	PhaseFinished RunPhase = "finished"
)

// RunStatus is a point-in-time view of the snapshot pipeline, kept current by
// the progress store sink and served read-only by the operational API.
type RunStatus struct {
	RunID       string     `json:"run_id,omitempty"`
	Phase       RunPhase   `json:"phase"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	TotalURLs   int        `json:"total_urls"`
	PendingURLs int        `json:"pending_urls"`
	Processed   int        `json:"processed"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	CurrentURL  string     `json:"current_url,omitempty"`
	LastURL     string     `json:"last_url,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// StatusStore holds the current RunStatus behind a mutex. The zero value is
// not usable; construct with NewStatusStore.
type StatusStore struct {
	mu  sync.RWMutex
	cur RunStatus
}

// NewStatusStore returns a store in the idle phase.
func NewStatusStore() *StatusStore {
	return &StatusStore{cur: RunStatus{Phase: PhaseIdle}}
}

// Update applies fn to the current status under the write lock. The pointer
// must not be retained after fn returns.
func (s *StatusStore) Update(fn func(*RunStatus)) {
	if s == nil || fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cur)
}

// Current returns a copy of the latest status.
func (s *StatusStore) Current() RunStatus {
	if s == nil {
		return RunStatus{Phase: PhaseIdle}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}
