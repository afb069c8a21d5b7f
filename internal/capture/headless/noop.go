package headless

import (
	"context"
	"errors"

	"github.com/JakeFAU/pagevault/internal/snapshot"
)

// Noop implements page capture but always returns an error, for
// deployments without a usable browser.
type Noop struct{}

// NewNoop creates a new Noop capturer.
func NewNoop() *Noop {
	return &Noop{}
}

// CapturePage returns an error since this is a stub implementation.
func (Noop) CapturePage(_ context.Context, _ string, _ string) (snapshot.ArtifactSet, error) {
	return snapshot.ArtifactSet{}, errors.New("headless capture not configured")
}
