// Package uuid includes tests for the run ID generator.
package uuid

import (
	"testing"

	goUUID "github.com/google/uuid"
)

// TestGeneratorNewRunID ensures generated IDs are unique, valid v7 UUIDs.
func TestGeneratorNewRunID(t *testing.T) {
	t.Parallel()

	gen := New()
	id1 := gen.NewRunID()
	id2 := gen.NewRunID()
	if id1 == id2 {
		t.Fatalf("expected unique IDs, got %s and %s", id1, id2)
	}
	if id1.Version() != goUUID.Version(7) {
		t.Fatalf("expected v7 ID, got version %d", id1.Version())
	}
}

// TestGeneratorNewRunIDSortable checks IDs generated in order compare in
// order, which is what keeps run logs sorted by start time.
func TestGeneratorNewRunIDSortable(t *testing.T) {
	t.Parallel()

	gen := New()
	first := gen.NewRunID()
	second := gen.NewRunID()
	if first.String() >= second.String() {
		t.Fatalf("expected ordered v7 IDs, got %s then %s", first, second)
	}
}
