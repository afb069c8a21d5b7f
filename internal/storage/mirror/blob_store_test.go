// Package mirror_test tests the mirroring artifact store.
package mirror_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/pagevault/internal/storage/memory"
	"github.com/JakeFAU/pagevault/internal/storage/mirror"
)

func TestPutWritesBothStores(t *testing.T) {
	primary := memory.NewBlobStore()
	secondary := memory.NewBlobStore()
	store := mirror.New(primary, secondary, zap.NewNop())

	loc, err := store.Put(context.Background(), "screenshots/abc.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "memory://screenshots/abc.png", loc)

	got, err := primary.Get(context.Background(), "screenshots/abc.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), got)

	got, err = secondary.Get(context.Background(), "screenshots/abc.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), got)
	assert.Equal(t, "image/png", secondary.ContentType("screenshots/abc.png"))
}

func TestPutSurvivesMirrorFailure(t *testing.T) {
	primary := memory.NewBlobStore()
	store := mirror.New(primary, &failingBlobStore{}, zap.NewNop())

	_, err := store.Put(context.Background(), "text/abc.txt", "text/plain", []byte("hello"))
	require.NoError(t, err)
	assert.True(t, primary.Exists(context.Background(), "text/abc.txt"))
}

func TestPutFailsWhenPrimaryFails(t *testing.T) {
	secondary := memory.NewBlobStore()
	store := mirror.New(&failingBlobStore{}, secondary, zap.NewNop())

	_, err := store.Put(context.Background(), "text/abc.txt", "text/plain", []byte("hello"))
	require.Error(t, err)
	// The mirror is never consulted when the primary write fails.
	assert.Equal(t, 0, secondary.Len())
}

func TestReadsComeFromPrimary(t *testing.T) {
	primary := memory.NewBlobStore()
	secondary := memory.NewBlobStore()
	_, err := secondary.Put(context.Background(), "html/only-mirrored.html", "text/html", []byte("<p>"))
	require.NoError(t, err)

	store := mirror.New(primary, secondary, zap.NewNop())

	assert.False(t, store.Exists(context.Background(), "html/only-mirrored.html"))
	_, err = store.Get(context.Background(), "html/only-mirrored.html")
	assert.Error(t, err)
}

type failingBlobStore struct{}

func (f *failingBlobStore) Put(context.Context, string, string, []byte) (string, error) {
	return "", errors.New("bucket unavailable")
}

func (f *failingBlobStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("bucket unavailable")
}

func (f *failingBlobStore) Exists(context.Context, string) bool {
	return false
}
