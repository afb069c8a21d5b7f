// Package progress defines the event structures emitted by the snapshot
// pipeline.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart  Stage = "RUN_START"
	StageRunDone   Stage = "RUN_DONE"
	StageURLStart  Stage = "URL_START"
	StageURLDone   Stage = "URL_DONE"
	StageURLFailed Stage = "URL_FAILED"
)

// Event captures a single milestone of snapshot progress.
type Event struct {
	// RunID uniquely identifies a pipeline run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which run or URL milestone occurred.
	Stage Stage
	// URL is the subject of URL-scoped events; it should not contain
	// credentials.
	URL string
	// Site optionally scopes URL events to a host label.
	Site string
	// Class is the content class label assigned at dispatch (web_page,
	// pdf_document, word_document, unsupported).
	Class string
	// Kind carries the failure taxonomy bucket for URL_FAILED events.
	Kind string
	// Bytes counts artifact bytes written for the URL.
	Bytes int64
	// Dur captures capture latency for URLs and wall time for runs.
	Dur time.Duration
	// Note lets emitters attach low-volume context (e.g. error text).
	Note string
	// TotalURLs and PendingURLs describe the run's workload on RUN_START
	// and RUN_DONE events.
	TotalURLs   int
	PendingURLs int
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StageURLStart:
		if e.URL == "" {
			return errors.New("url start requires url")
		}
	case StageURLDone:
		if e.URL == "" {
			return errors.New("url done requires url")
		}
		if e.Class == "" {
			return errors.New("url done requires class")
		}
	case StageURLFailed:
		if e.URL == "" {
			return errors.New("url failed requires url")
		}
		if e.Kind == "" {
			return errors.New("url failed requires failure kind")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// NewRunID mints a random identifier for a pipeline run.
func NewRunID() [16]byte {
	return UUIDToBytes(uuid.New())
}

// RunUUID converts the binary run ID to uuid.UUID for consumers.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
