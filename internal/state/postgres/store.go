// Package postgres persists the snapshot index and failure ledger in
// Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/pagevault/internal/snapshot"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for snapshot state.
type Config struct {
	DSN             string
	IndexTable      string
	FailuresTable   string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Store implements snapshot.StateStore on Postgres. Expected schema:
//
//	CREATE TABLE snapshot_index (
//	    url         TEXT PRIMARY KEY,
//	    artifacts   JSONB NOT NULL,
//	    captured_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE snapshot_failures (
//	    id        BIGSERIAL PRIMARY KEY,
//	    url       TEXT NOT NULL,
//	    kind      TEXT NOT NULL,
//	    error     TEXT NOT NULL,
//	    failed_at TIMESTAMPTZ NOT NULL
//	);
type Store struct {
	pool          querier
	indexTable    string
	failuresTable string
}

// New creates a Postgres-backed state store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("state.postgres.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewWithPool(pool, cfg.IndexTable, cfg.FailuresTable)
}

// NewWithPool constructs a store from an existing pool (primarily for
// testing).
func NewWithPool(pool querier, indexTable, failuresTable string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if indexTable == "" {
		indexTable = "snapshot_index"
	}
	if failuresTable == "" {
		failuresTable = "snapshot_failures"
	}
	if !validTableName.MatchString(indexTable) {
		return nil, fmt.Errorf("invalid table name %q", indexTable)
	}
	if !validTableName.MatchString(failuresTable) {
		return nil, fmt.Errorf("invalid table name %q", failuresTable)
	}
	return &Store{
		pool:          pool,
		indexTable:    indexTable,
		failuresTable: failuresTable,
	}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close(_ context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// Load reads the persisted index and ledger into a fresh run state.
func (s *Store) Load(ctx context.Context) (*snapshot.RunState, error) {
	index, err := s.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	failures, err := s.loadFailures(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.NewRunStateFrom(index, failures), nil
}

func (s *Store) loadIndex(ctx context.Context) (map[string]snapshot.ArtifactSet, error) {
	query := fmt.Sprintf(`SELECT url, artifacts FROM %s`, s.indexTable)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer rows.Close()

	index := make(map[string]snapshot.ArtifactSet)
	for rows.Next() {
		var url string
		var raw []byte
		if err := rows.Scan(&url, &raw); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		var artifacts snapshot.ArtifactSet
		if err := json.Unmarshal(raw, &artifacts); err != nil {
			return nil, fmt.Errorf("decode artifacts for %s: %w", url, err)
		}
		index[url] = artifacts
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index rows: %w", err)
	}
	return index, nil
}

func (s *Store) loadFailures(ctx context.Context) ([]snapshot.FailureRecord, error) {
	query := fmt.Sprintf(`SELECT url, kind, error, failed_at FROM %s ORDER BY id`, s.failuresTable)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failure ledger: %w", err)
	}
	defer rows.Close()

	var failures []snapshot.FailureRecord
	for rows.Next() {
		var rec snapshot.FailureRecord
		var kind string
		if err := rows.Scan(&rec.URL, &kind, &rec.Error, &rec.FailedAt); err != nil {
			return nil, fmt.Errorf("scan failure row: %w", err)
		}
		rec.Kind = snapshot.FailureKind(kind)
		failures = append(failures, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failure rows: %w", err)
	}
	return failures, nil
}

// RecordSuccess applies the result to the run state and upserts the index
// row.
func (s *Store) RecordSuccess(ctx context.Context, st *snapshot.RunState, url string, artifacts snapshot.ArtifactSet) error {
	st.SetResult(url, artifacts)

	raw, err := json.Marshal(artifacts)
	if err != nil {
		return fmt.Errorf("marshal artifacts: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (url, artifacts, captured_at)
VALUES ($1, $2, $3)
ON CONFLICT (url) DO UPDATE
SET artifacts = EXCLUDED.artifacts, captured_at = EXCLUDED.captured_at`, s.indexTable)
	if _, err := s.pool.Exec(ctx, query, url, string(raw), artifacts.CapturedAt); err != nil {
		return fmt.Errorf("upsert index row: %w", err)
	}
	return nil
}

// RecordFailure appends the record to the run state and inserts a ledger
// row.
func (s *Store) RecordFailure(ctx context.Context, st *snapshot.RunState, rec snapshot.FailureRecord) error {
	st.AppendFailure(rec)

	query := fmt.Sprintf(`
INSERT INTO %s (url, kind, error, failed_at)
VALUES ($1, $2, $3, $4)`, s.failuresTable)
	if _, err := s.pool.Exec(ctx, query, rec.URL, string(rec.Kind), rec.Error, rec.FailedAt); err != nil {
		return fmt.Errorf("insert failure row: %w", err)
	}
	return nil
}

// Flush is a no-op: every record call already wrote through.
func (s *Store) Flush(_ context.Context, _ *snapshot.RunState) error {
	return nil
}
