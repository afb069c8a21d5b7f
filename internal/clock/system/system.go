// Package system provides the wall clock used for index and ledger
// timestamps.
package system

import "time"

// Clock implements snapshot.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC. Persisted timestamps are always UTC
// so index entries compare cleanly across machines.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Since reports the elapsed wall time since t.
func (Clock) Since(t time.Time) time.Duration {
	return time.Since(t)
}
