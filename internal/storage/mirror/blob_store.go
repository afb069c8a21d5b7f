// Package mirror tees artifact writes to a primary blob store and a
// best-effort secondary, typically the local tree plus a GCS bucket.
package mirror

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/pagevault/internal/snapshot"
)

// BlobStore writes every artifact to the primary store and then to the
// mirror. The primary decides success; a mirror failure only logs, so an
// unreachable bucket never fails a capture.
type BlobStore struct {
	primary snapshot.BlobStore
	mirror  snapshot.BlobStore
	logger  *zap.Logger
}

// New creates a mirroring blob store.
func New(primary, mirror snapshot.BlobStore, logger *zap.Logger) *BlobStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlobStore{primary: primary, mirror: mirror, logger: logger}
}

// Put writes to the primary first and returns its location.
func (b *BlobStore) Put(ctx context.Context, path string, contentType string, data []byte) (string, error) {
	loc, err := b.primary.Put(ctx, path, contentType, data)
	if err != nil {
		return "", err
	}
	if _, err := b.mirror.Put(ctx, path, contentType, data); err != nil {
		b.logger.Warn("mirror write failed",
			zap.String("path", path),
			zap.Error(err),
		)
	}
	return loc, nil
}

// Get reads from the primary.
func (b *BlobStore) Get(ctx context.Context, path string) ([]byte, error) {
	return b.primary.Get(ctx, path)
}

// Exists consults the primary only. The skip check must reflect the local
// tree, not whatever the mirror happens to hold.
func (b *BlobStore) Exists(ctx context.Context, path string) bool {
	return b.primary.Exists(ctx, path)
}
