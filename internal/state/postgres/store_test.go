package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/pagevault/internal/snapshot"
)

func TestRecordSuccessUpsertsIndexRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "snapshot_index", "snapshot_failures")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	artifacts := snapshot.ArtifactSet{
		Kind:       snapshot.ArtifactPage,
		Screenshot: "screenshots/abc.png",
		HTML:       "html/abc.html",
		Text:       "text/abc.txt",
		CapturedAt: now,
	}
	raw, err := json.Marshal(artifacts)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO snapshot_index").
		WithArgs("https://example.com", string(raw), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	st := snapshot.NewRunState()
	err = store.RecordSuccess(context.Background(), st, "https://example.com", artifacts)
	require.NoError(t, err)
	require.True(t, st.Has("https://example.com"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordFailureInsertsLedgerRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "", "")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rec := snapshot.FailureRecord{
		URL:      "https://example.com/broken",
		Kind:     snapshot.KindNavigationTimeout,
		Error:    "navigation timeout: context deadline exceeded",
		FailedAt: now,
	}

	mock.ExpectExec("INSERT INTO snapshot_failures").
		WithArgs(rec.URL, string(rec.Kind), rec.Error, rec.FailedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	st := snapshot.NewRunState()
	err = store.RecordFailure(context.Background(), st, rec)
	require.NoError(t, err)
	require.Len(t, st.Failures(), 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadReadsIndexAndLedger(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "snapshot_index", "snapshot_failures")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	artifacts := snapshot.ArtifactSet{
		Kind:       snapshot.ArtifactDocument,
		Document:   "doc/def.pdf",
		Text:       "text/def.txt",
		CapturedAt: now,
	}
	raw, err := json.Marshal(artifacts)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT url, artifacts FROM snapshot_index").
		WillReturnRows(pgxmock.NewRows([]string{"url", "artifacts"}).
			AddRow("https://example.com/report", raw))
	mock.ExpectQuery("SELECT url, kind, error, failed_at FROM snapshot_failures").
		WillReturnRows(pgxmock.NewRows([]string{"url", "kind", "error", "failed_at"}).
			AddRow("https://example.com/broken", "navigation_error", "net::ERR_NAME_NOT_RESOLVED", now))

	st, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, st.Has("https://example.com/report"))
	require.Equal(t, artifacts, st.Index()["https://example.com/report"])

	failures := st.Failures()
	require.Len(t, failures, 1)
	require.Equal(t, snapshot.KindNavigationError, failures[0].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadRejectsCorruptArtifacts(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "snapshot_index", "snapshot_failures")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT url, artifacts FROM snapshot_index").
		WillReturnRows(pgxmock.NewRows([]string{"url", "artifacts"}).
			AddRow("https://example.com", []byte("{not json")))

	_, err = store.Load(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode artifacts")
}

func TestNewWithPoolValidatesInputs(t *testing.T) {
	t.Parallel()

	_, err := NewWithPool(nil, "snapshot_index", "snapshot_failures")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "snapshot_index; DROP TABLE", "snapshot_failures")
	require.Error(t, err)

	_, err = NewWithPool(mock, "snapshot_index", "bad-table")
	require.Error(t, err)
}
