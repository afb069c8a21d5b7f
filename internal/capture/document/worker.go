// Package document downloads PDF and Word resources and extracts their
// plain text.
package document

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/pagevault/internal/snapshot"
)

// Worker captures document URLs: it re-probes the content type to pick the
// file extension, downloads the body, and extracts text with the extractor
// matching the detected type.
type Worker struct {
	prober        snapshot.Prober
	downloader    snapshot.Downloader
	blobs         snapshot.BlobStore
	clock         snapshot.Clock
	logger        *zap.Logger
	layout        snapshot.Layout
	pdfExtractor  snapshot.TextExtractor
	wordExtractor snapshot.TextExtractor
}

// NewWorker builds a document capture worker.
func NewWorker(
	prober snapshot.Prober,
	downloader snapshot.Downloader,
	blobs snapshot.BlobStore,
	clock snapshot.Clock,
	logger *zap.Logger,
	pdfExtractor snapshot.TextExtractor,
	wordExtractor snapshot.TextExtractor,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		prober:        prober,
		downloader:    downloader,
		blobs:         blobs,
		clock:         clock,
		logger:        logger,
		pdfExtractor:  pdfExtractor,
		wordExtractor: wordExtractor,
	}
}

// CaptureDocument captures one document URL under the given fingerprint.
// The class is the dispatch-time classification; it decides the extension
// and extractor whenever the re-probe is inconclusive or fails.
func (w *Worker) CaptureDocument(ctx context.Context, rawURL string, fingerprint string, class snapshot.ContentClass) (snapshot.ArtifactSet, error) {
	ext, detected, probedType := w.detect(ctx, rawURL, class)

	body, downloadType, err := w.downloader.Download(ctx, rawURL)
	if err != nil {
		return snapshot.ArtifactSet{}, fmt.Errorf("%w: %w", snapshot.ErrDownload, err)
	}

	docPath := w.layout.Document(fingerprint, ext)
	contentType := downloadType
	if contentType == "" {
		contentType = probedType
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := w.blobs.Put(ctx, docPath, contentType, body); err != nil {
		return snapshot.ArtifactSet{}, fmt.Errorf("persist document: %w", err)
	}

	extractor := w.extractorFor(detected)
	if extractor == nil {
		return snapshot.ArtifactSet{}, fmt.Errorf("%w: no extractor for class %s", snapshot.ErrExtraction, detected)
	}
	text, err := extractor.ExtractText(body)
	if err != nil {
		return snapshot.ArtifactSet{}, fmt.Errorf("%w: %w", snapshot.ErrExtraction, err)
	}

	textPath := w.layout.Text(fingerprint)
	if _, err := w.blobs.Put(ctx, textPath, "text/plain", []byte(text)); err != nil {
		return snapshot.ArtifactSet{}, fmt.Errorf("persist text: %w", err)
	}

	w.logger.Debug("document captured",
		zap.String("url", rawURL),
		zap.String("extension", ext),
		zap.Int("document_bytes", len(body)),
		zap.Int("text_bytes", len(text)))

	return snapshot.ArtifactSet{
		Kind:       snapshot.ArtifactDocument,
		Document:   docPath,
		Text:       textPath,
		CapturedAt: w.clock.Now(),
	}, nil
}

// detect re-probes the URL. The extension strictly follows the re-probed
// content type, so a URL whose type changed since dispatch lands with the
// opaque extension. The extractor class keeps the dispatch fallback since
// an opaque extension still has a known body format more often than not.
func (w *Worker) detect(ctx context.Context, rawURL string, dispatch snapshot.ContentClass) (ext string, detected snapshot.ContentClass, contentType string) {
	probed, err := w.prober.Probe(ctx, rawURL)
	if err != nil {
		w.logger.Warn("re-probe failed, using dispatch classification",
			zap.String("url", rawURL),
			zap.Error(err))
		return snapshot.ExtensionFor(dispatch), dispatch, ""
	}

	reclass := snapshot.ClassifyContentType(probed)
	ext = snapshot.ExtensionFor(reclass)
	switch reclass {
	case snapshot.ClassPDFDocument, snapshot.ClassWordDocument:
		detected = reclass
	default:
		detected = dispatch
	}
	return ext, detected, probed
}

func (w *Worker) extractorFor(class snapshot.ContentClass) snapshot.TextExtractor {
	switch class {
	case snapshot.ClassPDFDocument:
		return w.pdfExtractor
	case snapshot.ClassWordDocument:
		return w.wordExtractor
	default:
		return nil
	}
}
