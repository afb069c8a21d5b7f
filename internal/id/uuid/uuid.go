// Package uuid provides snapshot run identifiers.
package uuid

import (
	"github.com/google/uuid"
)

// Generator creates run identifiers. It prefers UUIDv7 because v7 IDs sort
// by creation time, which keeps run logs and published capture events
// naturally ordered across runs.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewRunID returns the identifier for one snapshot run. When the random
// source cannot produce a v7 ID it falls back to v4 rather than failing
// the run.
func (Generator) NewRunID() uuid.UUID {
	if id, err := uuid.NewV7(); err == nil {
		return id
	}
	return uuid.New()
}
