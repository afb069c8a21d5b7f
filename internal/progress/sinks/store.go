package sinks

import (
	"context"

	"github.com/JakeFAU/pagevault/internal/progress"
	"github.com/JakeFAU/pagevault/internal/store"
)

// StatusSink projects the progress stream onto the shared run status store
// read by the operational API. Events are applied in batch order, so the
// snapshot always reflects the newest event seen.
type StatusSink struct {
	status *store.StatusStore
}

// NewStatusSink constructs a StatusSink over the provided store.
func NewStatusSink(status *store.StatusStore) *StatusSink {
	return &StatusSink{status: status}
}

// Consume folds each event into the run status.
func (s *StatusSink) Consume(_ context.Context, batch []progress.Event) error {
	if s == nil || s.status == nil {
		return nil
	}
	for _, evt := range batch {
		evt := evt
		s.status.Update(func(st *store.RunStatus) {
			applyEvent(st, evt)
		})
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *StatusSink) Close(context.Context) error {
	return nil
}

func applyEvent(st *store.RunStatus, evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		ts := evt.TS
		// A new run resets all counters from the previous one.
		*st = store.RunStatus{
			RunID:       evt.RunUUID().String(),
			Phase:       store.PhaseRunning,
			StartedAt:   &ts,
			TotalURLs:   evt.TotalURLs,
			PendingURLs: evt.PendingURLs,
			UpdatedAt:   evt.TS,
		}
	case progress.StageURLStart:
		st.CurrentURL = evt.URL
		st.UpdatedAt = evt.TS
	case progress.StageURLDone:
		st.Processed++
		st.Succeeded++
		if st.PendingURLs > 0 {
			st.PendingURLs--
		}
		st.LastURL = evt.URL
		st.CurrentURL = ""
		st.UpdatedAt = evt.TS
	case progress.StageURLFailed:
		st.Processed++
		st.Failed++
		if st.PendingURLs > 0 {
			st.PendingURLs--
		}
		st.LastURL = evt.URL
		st.LastError = failureText(evt)
		st.CurrentURL = ""
		st.UpdatedAt = evt.TS
	case progress.StageRunDone:
		ts := evt.TS
		st.Phase = store.PhaseFinished
		st.FinishedAt = &ts
		st.CurrentURL = ""
		st.UpdatedAt = evt.TS
	}
}

func failureText(evt progress.Event) string {
	if evt.Note != "" {
		return evt.Note
	}
	return evt.Kind
}
