// Package pipeline implements the sequential snapshot run loop: classify
// each pending URL, dispatch it to the matching capture worker, and record
// the outcome.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	runid "github.com/JakeFAU/pagevault/internal/id/uuid"
	"github.com/JakeFAU/pagevault/internal/progress"
	"github.com/JakeFAU/pagevault/internal/snapshot"
)

// Classifier resolves a URL to its content class via a metadata-only probe.
type Classifier interface {
	Classify(ctx context.Context, url string) (snapshot.ContentClass, string, error)
}

// Config controls pipeline behavior.
type Config struct {
	// Topic receives one event per URL outcome plus a run summary. Empty
	// disables publishing.
	Topic string
}

// Pipeline walks the pending URLs one at a time. It owns the run state for
// the duration of a run; capture workers own everything below the dispatch.
type Pipeline struct {
	classifier   Classifier
	pages        snapshot.PageCapturer
	documents    snapshot.DocumentCapturer
	states       snapshot.StateStore
	fingerprints snapshot.Fingerprinter
	publisher    snapshot.Publisher
	clock        snapshot.Clock
	progress     progress.Emitter
	ids          *runid.Generator
	cfg          Config
	logger       *zap.Logger
}

// New constructs a Pipeline. The publisher and emitter may be nil.
func New(
	classifier Classifier,
	pages snapshot.PageCapturer,
	documents snapshot.DocumentCapturer,
	states snapshot.StateStore,
	fingerprints snapshot.Fingerprinter,
	publisher snapshot.Publisher,
	clock snapshot.Clock,
	emitter progress.Emitter,
	cfg Config,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		classifier:   classifier,
		pages:        pages,
		documents:    documents,
		states:       states,
		fingerprints: fingerprints,
		publisher:    publisher,
		clock:        clock,
		progress:     emitter,
		ids:          runid.New(),
		cfg:          cfg,
		logger:       logger,
	}
}

// Summary reports one run's outcome.
type Summary struct {
	RunID        string        `json:"run_id"`
	TotalURLs    int           `json:"total_urls"`
	AlreadySaved int           `json:"already_saved"`
	Processed    int           `json:"processed"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	Interrupted  bool          `json:"interrupted"`
	Duration     time.Duration `json:"duration"`
}

// Run loads the persisted state, filters the input down to pending URLs,
// and processes them sequentially. A canceled ctx stops the loop between
// URLs; the URL in flight always runs to completion. State is flushed once
// before returning, best-effort.
func (p *Pipeline) Run(ctx context.Context, urls []string) (Summary, error) {
	runUUID := p.ids.NewRunID()
	runID := progress.UUIDToBytes(runUUID)
	startedAt := p.clock.Now()

	st, err := p.states.Load(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load state: %w", err)
	}

	distinct := Dedupe(urls)
	pending := Pending(distinct, st)
	sum := Summary{
		RunID:        runUUID.String(),
		TotalURLs:    len(distinct),
		AlreadySaved: len(distinct) - len(pending),
	}

	p.logger.Info("run starting",
		zap.String("run_id", sum.RunID),
		zap.Int("input_urls", len(urls)),
		zap.Int("distinct_urls", len(distinct)),
		zap.Int("already_saved", sum.AlreadySaved),
		zap.Int("pending", len(pending)),
	)
	p.emit(progress.Event{
		RunID:       runID,
		TS:          startedAt,
		Stage:       progress.StageRunStart,
		TotalURLs:   len(distinct),
		PendingURLs: len(pending),
	})

	// The in-flight URL must finish even after a shutdown signal, so the
	// per-URL context never inherits cancellation. The loop checks ctx
	// between URLs instead.
	workCtx := context.WithoutCancel(ctx)

	for _, rawURL := range pending {
		if ctx.Err() != nil {
			p.logger.Info("shutdown requested, leaving remaining urls for the next run",
				zap.Int("remaining", len(pending)-sum.Processed),
			)
			sum.Interrupted = true
			break
		}
		sum.Processed++
		if p.processURL(workCtx, runID, st, rawURL) {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
	}

	if err := p.states.Flush(workCtx, st); err != nil {
		p.logger.Warn("final state flush failed", zap.Error(err))
	}

	sum.Duration = p.clock.Since(startedAt)
	p.emit(progress.Event{
		RunID:       runID,
		TS:          p.clock.Now(),
		Stage:       progress.StageRunDone,
		Dur:         sum.Duration,
		TotalURLs:   len(distinct),
		PendingURLs: len(pending) - sum.Processed,
	})
	p.logger.Info("run complete",
		zap.String("run_id", sum.RunID),
		zap.Int("processed", sum.Processed),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
		zap.Bool("interrupted", sum.Interrupted),
		zap.Duration("dur", sum.Duration),
	)
	p.publishSummary(workCtx, sum)
	return sum, nil
}

// processURL classifies, captures, and records one URL. It reports whether
// the URL ended with an index entry.
func (p *Pipeline) processURL(ctx context.Context, runID [16]byte, st *snapshot.RunState, rawURL string) bool {
	start := p.clock.Now()
	p.emit(progress.Event{
		RunID: runID,
		TS:    start,
		Stage: progress.StageURLStart,
		URL:   rawURL,
		Site:  siteOf(rawURL),
	})
	p.logger.Info("processing url", zap.String("url", rawURL))

	class, contentType, err := p.classifier.Classify(ctx, rawURL)
	if err != nil {
		return p.recordFailure(ctx, runID, st, rawURL, "", err, start)
	}

	fp := p.fingerprints.Fingerprint(rawURL)
	var artifacts snapshot.ArtifactSet
	switch class {
	case snapshot.ClassWebPage:
		artifacts, err = p.pages.CapturePage(ctx, rawURL, fp)
	case snapshot.ClassPDFDocument, snapshot.ClassWordDocument:
		artifacts, err = p.documents.CaptureDocument(ctx, rawURL, fp, class)
	default:
		err = fmt.Errorf("%w: %q", snapshot.ErrUnsupportedContentType, contentType)
	}
	if err != nil {
		return p.recordFailure(ctx, runID, st, rawURL, class, err, start)
	}
	return p.recordSuccess(ctx, runID, st, rawURL, class, artifacts, start)
}

func (p *Pipeline) recordSuccess(
	ctx context.Context,
	runID [16]byte,
	st *snapshot.RunState,
	rawURL string,
	class snapshot.ContentClass,
	artifacts snapshot.ArtifactSet,
	start time.Time,
) bool {
	if err := p.states.RecordSuccess(ctx, st, rawURL, artifacts); err != nil {
		p.logger.Warn("persist index entry failed", zap.String("url", rawURL), zap.Error(err))
	}
	p.publishCapture(ctx, runID, rawURL, class, artifacts)

	dur := p.clock.Since(start)
	p.emit(progress.Event{
		RunID: runID,
		TS:    p.clock.Now(),
		Stage: progress.StageURLDone,
		URL:   rawURL,
		Site:  siteOf(rawURL),
		Class: string(class),
		Dur:   dur,
	})
	p.logger.Info("url captured",
		zap.String("url", rawURL),
		zap.String("class", string(class)),
		zap.Duration("dur", dur),
	)
	return true
}

func (p *Pipeline) recordFailure(
	ctx context.Context,
	runID [16]byte,
	st *snapshot.RunState,
	rawURL string,
	class snapshot.ContentClass,
	cause error,
	start time.Time,
) bool {
	kind := snapshot.KindOf(cause)
	rec := snapshot.FailureRecord{
		URL:      rawURL,
		Kind:     kind,
		Error:    cause.Error(),
		FailedAt: p.clock.Now(),
	}
	if err := p.states.RecordFailure(ctx, st, rec); err != nil {
		p.logger.Warn("persist failure record failed", zap.String("url", rawURL), zap.Error(err))
	}
	p.publishFailure(ctx, runID, rawURL, class, rec)

	p.emit(progress.Event{
		RunID: runID,
		TS:    p.clock.Now(),
		Stage: progress.StageURLFailed,
		URL:   rawURL,
		Site:  siteOf(rawURL),
		Class: string(class),
		Kind:  string(kind),
		Note:  cause.Error(),
		Dur:   p.clock.Since(start),
	})
	p.logger.Warn("url failed",
		zap.String("url", rawURL),
		zap.String("class", string(class)),
		zap.String("kind", string(kind)),
		zap.Error(cause),
	)
	return false
}

// publishCapture pushes a completion event for a captured URL. Publishing is
// advisory; failures never affect the URL outcome.
func (p *Pipeline) publishCapture(
	ctx context.Context,
	runID [16]byte,
	rawURL string,
	class snapshot.ContentClass,
	artifacts snapshot.ArtifactSet,
) {
	p.publish(ctx, map[string]any{
		"run_id":      uuid.UUID(runID).String(),
		"url":         rawURL,
		"status":      "captured",
		"class":       string(class),
		"artifacts":   artifacts,
		"captured_at": artifacts.CapturedAt.Format(time.RFC3339),
	}, zap.String("url", rawURL))
}

// publishFailure mirrors publishCapture for URLs that ended in the ledger.
func (p *Pipeline) publishFailure(
	ctx context.Context,
	runID [16]byte,
	rawURL string,
	class snapshot.ContentClass,
	rec snapshot.FailureRecord,
) {
	p.publish(ctx, map[string]any{
		"run_id":    uuid.UUID(runID).String(),
		"url":       rawURL,
		"status":    "failed",
		"class":     string(class),
		"kind":      string(rec.Kind),
		"error":     rec.Error,
		"failed_at": rec.FailedAt.Format(time.RFC3339),
	}, zap.String("url", rawURL))
}

// publishSummary pushes the run totals once the loop has finished.
func (p *Pipeline) publishSummary(ctx context.Context, sum Summary) {
	p.publish(ctx, map[string]any{
		"run_id":        sum.RunID,
		"status":        "run_summary",
		"total_urls":    sum.TotalURLs,
		"already_saved": sum.AlreadySaved,
		"processed":     sum.Processed,
		"succeeded":     sum.Succeeded,
		"failed":        sum.Failed,
		"interrupted":   sum.Interrupted,
		"duration_ms":   sum.Duration.Milliseconds(),
	})
}

func (p *Pipeline) publish(ctx context.Context, payload map[string]any, fields ...zap.Field) {
	if p.cfg.Topic == "" || p.publisher == nil {
		return
	}
	if _, err := p.publisher.Publish(ctx, p.cfg.Topic, payload); err != nil {
		p.logger.Warn("publish event failed", append(fields, zap.Error(err))...)
		return
	}
	p.logger.Debug("event published", fields...)
}

func (p *Pipeline) emit(evt progress.Event) {
	if p.progress != nil {
		p.progress.Emit(evt)
	}
}

// Dedupe drops repeated URLs, keeping first-occurrence order.
func Dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// Pending filters urls down to those with no index entry, preserving order.
// URLs recorded only in the failure ledger stay pending, so past failures
// are retried every run.
func Pending(urls []string, st *snapshot.RunState) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if st.Has(u) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func siteOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
