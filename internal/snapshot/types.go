package snapshot

import "time"

// ContentClass is the category a URL resolves to after the content-type probe.
type ContentClass string

// Content classes produced by the classifier.
const (
	ClassWebPage      ContentClass = "web_page"
	ClassPDFDocument  ContentClass = "pdf_document"
	ClassWordDocument ContentClass = "word_document"
	ClassUnsupported  ContentClass = "unsupported"
)

// ArtifactKind tags which ArtifactSet variant an index entry holds.
type ArtifactKind string

// Artifact set variants persisted in the index.
const (
	ArtifactPage     ArtifactKind = "page"
	ArtifactDocument ArtifactKind = "document"
)

// ArtifactSet records the output files produced for one URL. Paths are
// slash-separated and relative to the output root, so the index stays valid
// when the output tree is relocated. Page entries carry Screenshot/HTML/Text,
// document entries carry Document/Text.
type ArtifactSet struct {
	Kind       ArtifactKind `json:"kind"`
	Screenshot string       `json:"screenshot,omitempty"`
	HTML       string       `json:"html,omitempty"`
	Text       string       `json:"text"`
	Document   string       `json:"document,omitempty"`
	CapturedAt time.Time    `json:"captured_at"`
}

// FailureKind tags a ledger entry with the failure taxonomy bucket.
type FailureKind string

// Failure kinds recorded in the ledger.
const (
	KindProbeError             FailureKind = "probe_error"
	KindUnsupportedContentType FailureKind = "unsupported_content_type"
	KindNavigationTimeout      FailureKind = "navigation_timeout"
	KindNavigationError        FailureKind = "navigation_error"
	KindDownloadError          FailureKind = "download_error"
	KindExtractionError        FailureKind = "extraction_error"
	KindError                  FailureKind = "error"
)

// FailureRecord is one ledger entry. Records are append-only in occurrence
// order and never deduplicated, so a URL failing across several runs appears
// once per failure.
type FailureRecord struct {
	URL      string      `json:"url"`
	Kind     FailureKind `json:"kind"`
	Error    string      `json:"error"`
	FailedAt time.Time   `json:"failed_at"`
}

// RunState is the run context owning the in-memory index and ledger. It is
// loaded once at startup, mutated only by the pipeline loop between
// persistence writes, and is not synchronized: concurrent observers
// (progress sinks, the ops endpoint) keep their own state.
type RunState struct {
	index    map[string]ArtifactSet
	failures []FailureRecord
}

// NewRunState builds an empty run state.
func NewRunState() *RunState {
	return &RunState{index: make(map[string]ArtifactSet)}
}

// NewRunStateFrom builds a run state seeded with a prior run's persisted
// index and ledger.
func NewRunStateFrom(index map[string]ArtifactSet, failures []FailureRecord) *RunState {
	st := NewRunState()
	for url, artifacts := range index {
		st.index[url] = artifacts
	}
	st.failures = append(st.failures, failures...)
	return st
}

// Has reports whether the URL already has a successful index entry.
func (s *RunState) Has(url string) bool {
	_, ok := s.index[url]
	return ok
}

// SetResult records a successful artifact set for the URL.
func (s *RunState) SetResult(url string, artifacts ArtifactSet) {
	s.index[url] = artifacts
}

// AppendFailure appends a ledger entry.
func (s *RunState) AppendFailure(rec FailureRecord) {
	s.failures = append(s.failures, rec)
}

// Index returns a copy of the index for persistence or inspection.
func (s *RunState) Index() map[string]ArtifactSet {
	out := make(map[string]ArtifactSet, len(s.index))
	for url, artifacts := range s.index {
		out[url] = artifacts
	}
	return out
}

// Failures returns a copy of the ledger in occurrence order.
func (s *RunState) Failures() []FailureRecord {
	out := make([]FailureRecord, len(s.failures))
	copy(out, s.failures)
	return out
}

// Succeeded reports the number of URLs with index entries.
func (s *RunState) Succeeded() int {
	return len(s.index)
}

// Failed reports the number of ledger entries.
func (s *RunState) Failed() int {
	return len(s.failures)
}
