// Package file persists the snapshot index and failure ledger as pretty-
// printed JSON files.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/pagevault/internal/snapshot"
)

// Config captures the file locations for the persisted state.
type Config struct {
	// IndexPath is the persisted index file (URL -> artifact set).
	IndexPath string `mapstructure:"index_path" yaml:"index_path"`
	// FailuresPath is the append-only failure ledger file.
	FailuresPath string `mapstructure:"failures_path" yaml:"failures_path"`
}

// Store implements snapshot.StateStore on two JSON files. Every write lands
// on a temp file first and is renamed into place, so a crash mid-flush never
// truncates the previous state.
type Store struct {
	indexPath    string
	failuresPath string
	logger       *zap.Logger
}

// New creates a file-backed state store.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.IndexPath == "" {
		return nil, fmt.Errorf("index path is required")
	}
	if cfg.FailuresPath == "" {
		return nil, fmt.Errorf("failures path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		indexPath:    cfg.IndexPath,
		failuresPath: cfg.FailuresPath,
		logger:       logger,
	}, nil
}

// Load reads both files if they exist and merges them into a fresh run
// state. Absent files mean a first run and load as empty state.
func (s *Store) Load(_ context.Context) (*snapshot.RunState, error) {
	index := make(map[string]snapshot.ArtifactSet)
	if err := readJSONFile(s.indexPath, &index); err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	var failures []snapshot.FailureRecord
	if err := readJSONFile(s.failuresPath, &failures); err != nil {
		return nil, fmt.Errorf("load failure ledger: %w", err)
	}
	s.logger.Debug("state loaded",
		zap.Int("indexed", len(index)),
		zap.Int("failures", len(failures)),
	)
	return snapshot.NewRunStateFrom(index, failures), nil
}

// RecordSuccess applies the result to the run state and writes the index
// through to disk.
func (s *Store) RecordSuccess(_ context.Context, st *snapshot.RunState, url string, artifacts snapshot.ArtifactSet) error {
	st.SetResult(url, artifacts)
	return s.persistIndex(st)
}

// RecordFailure appends the record to the run state and writes the ledger
// through to disk.
func (s *Store) RecordFailure(_ context.Context, st *snapshot.RunState, rec snapshot.FailureRecord) error {
	st.AppendFailure(rec)
	return s.persistFailures(st)
}

// Flush persists both files. They are disjoint, so the two writes run
// concurrently.
func (s *Store) Flush(ctx context.Context, st *snapshot.RunState) error {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { return s.persistIndex(st) })
	g.Go(func() error { return s.persistFailures(st) })
	return g.Wait()
}

// Close is a no-op for the file store; callers flush explicitly.
func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) persistIndex(st *snapshot.RunState) error {
	if err := writeJSONFileAtomic(s.indexPath, st.Index()); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

func (s *Store) persistFailures(st *snapshot.RunState) error {
	failures := st.Failures()
	if failures == nil {
		failures = []snapshot.FailureRecord{}
	}
	if err := writeJSONFileAtomic(s.failuresPath, failures); err != nil {
		return fmt.Errorf("persist failure ledger: %w", err)
	}
	return nil
}

// readJSONFile unmarshals path into out, treating a missing file as empty.
func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// writeJSONFileAtomic pretty-prints v to a temp file in the target directory
// and renames it into place.
func writeJSONFileAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()        //nolint:errcheck // write error wins
		os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
