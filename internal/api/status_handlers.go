package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/pagevault/internal/snapshot"
	"github.com/JakeFAU/pagevault/internal/store"
)

const (
	defaultListLimit  = 50
	maxListLimit      = 500
	stateFetchTimeout = 3 * time.Second
)

// StatusHandler serves read-only views of the snapshot run and its persisted
// state. Listings load a fresh state snapshot per request, so they never
// touch the run state the pipeline mutates.
type StatusHandler struct {
	status *store.StatusStore
	states snapshot.StateStore
	logger *zap.Logger
}

// NewStatusHandler builds a StatusHandler.
func NewStatusHandler(status *store.StatusStore, states snapshot.StateStore, logger *zap.Logger) *StatusHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusHandler{status: status, states: states, logger: logger}
}

// GetRunStatus handles GET /v1/run/status.
func (h *StatusHandler) GetRunStatus(w http.ResponseWriter, _ *http.Request) {
	if h.status == nil {
		writeError(w, http.StatusServiceUnavailable, "run status unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": h.status.Current()})
}

// ListIndex handles GET /v1/index. Entries are ordered by URL so pagination
// is stable across requests.
func (h *StatusHandler) ListIndex(w http.ResponseWriter, r *http.Request) {
	if h.states == nil {
		writeError(w, http.StatusServiceUnavailable, "run state unavailable")
		return
	}
	limit, offset, err := parseLimitOffset(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := h.loadState(r.Context())
	if err != nil {
		h.logger.Error("load run state failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load run state")
		return
	}

	index := st.Index()
	urls := make([]string, 0, len(index))
	for u := range index {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	entries := make([]indexEntryDTO, 0, limit)
	for _, u := range paginate(urls, limit, offset) {
		entries = append(entries, indexEntryDTO{URL: u, Artifacts: index[u]})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":   len(urls),
		"entries": entries,
	})
}

// ListFailures handles GET /v1/failures. Records come back in ledger order,
// oldest first.
func (h *StatusHandler) ListFailures(w http.ResponseWriter, r *http.Request) {
	if h.states == nil {
		writeError(w, http.StatusServiceUnavailable, "run state unavailable")
		return
	}
	limit, offset, err := parseLimitOffset(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := h.loadState(r.Context())
	if err != nil {
		h.logger.Error("load run state failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load run state")
		return
	}

	failures := st.Failures()
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    len(failures),
		"failures": paginate(failures, limit, offset),
	})
}

func (h *StatusHandler) loadState(ctx context.Context) (*snapshot.RunState, error) {
	ctx, cancel := context.WithTimeout(ctx, stateFetchTimeout)
	defer cancel()
	return h.states.Load(ctx)
}

type indexEntryDTO struct {
	URL       string               `json:"url"`
	Artifacts snapshot.ArtifactSet `json:"artifacts"`
}

func parseLimitOffset(r *http.Request) (int, int, error) {
	limit := defaultListLimit
	offset := 0
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			return 0, 0, fmt.Errorf("limit must be between 1 and %d", maxListLimit)
		}
		limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, 0, errors.New("offset must be >= 0")
		}
		offset = n
	}
	return limit, offset, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
