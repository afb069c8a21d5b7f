package snapshot

import (
	"context"
	"time"
)

// Prober issues a metadata-only request and returns the content type.
// No body is fetched.
type Prober interface {
	Probe(ctx context.Context, url string) (string, error)
}

// Downloader fetches a resource body and reports its content type.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// PageCapturer renders a web page and persists screenshot, HTML, and text
// artifacts under the given fingerprint.
type PageCapturer interface {
	CapturePage(ctx context.Context, url string, fingerprint string) (ArtifactSet, error)
}

// DocumentCapturer downloads a document resource and persists the raw bytes
// plus extracted text under the given fingerprint. The class is the
// dispatch-time classification and decides the extractor when the re-probe
// is inconclusive.
type DocumentCapturer interface {
	CaptureDocument(ctx context.Context, url string, fingerprint string, class ContentClass) (ArtifactSet, error)
}

// TextExtractor pulls plain text from raw document bytes.
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// StateStore persists the index and ledger. Implementations mutate the
// passed RunState first and then write through, so in-memory state is never
// behind durable state by more than the call in flight.
type StateStore interface {
	Load(ctx context.Context) (*RunState, error)
	RecordSuccess(ctx context.Context, st *RunState, url string, artifacts ArtifactSet) error
	RecordFailure(ctx context.Context, st *RunState, rec FailureRecord) error
	Flush(ctx context.Context, st *RunState) error
	Close(ctx context.Context) error
}

// BlobStore writes and reads artifact blobs addressed by slash-separated
// paths relative to the output root.
type BlobStore interface {
	Put(ctx context.Context, path string, contentType string, data []byte) (string, error)
	Get(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Fingerprinter derives the stable filename stem for a URL.
type Fingerprinter interface {
	Fingerprint(url string) string
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}
