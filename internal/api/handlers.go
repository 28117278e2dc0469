package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/tracker"
)

// Handler holds API route handlers.
type Handler struct {
	svc   *tracker.Service
	db    *index.DB
	store storage.Provider
	p     *parser.Parser
}

// NewHandler creates a new Handler.
func NewHandler(svc *tracker.Service, db *index.DB, store storage.Provider, p *parser.Parser) *Handler {
	return &Handler{svc: svc, db: db, store: store, p: p}
}

// ListRecords handles GET /api/records.
// Query parameters: type, tag, all, limit, offset.
// By default only relevant, uncompleted records are returned; all=true
// includes everything.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	rows, total, err := h.db.ListRecords(index.ListQuery{
		Limit:      limit,
		Offset:     offset,
		Type:       q.Get("type"),
		Tag:        q.Get("tag"),
		IncludeAll: q.Get("all") == "true",
	})
	if err != nil {
		slog.Error("list records failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	items := make([]RecordListItem, len(rows))
	for i, row := range rows {
		tags := row.Tags
		if tags == nil {
			tags = []string{}
		}
		items[i] = RecordListItem{
			Identifier:   row.Identifier,
			Path:         row.Path,
			Type:         row.Type,
			Event:        row.Event,
			Due:          row.Due,
			Completed:    row.Completed,
			Tags:         tags,
			RankPriority: row.RankPriority,
		}
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Records: items, Total: total})
}

// GetRecord handles GET /api/records/{id}.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.svc.Find(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get record failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, recordDetail(rec))
}

// CompleteRecord handles POST /api/records/{id}/complete.
func (h *Handler) CompleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.svc.Complete(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("complete record failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	h.reindex(rec.Path)
	writeJSON(w, http.StatusOK, recordDetail(rec))
}

// PushRecord handles POST /api/records/{id}/push.
func (h *Handler) PushRecord(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := chi.URLParam(r, "id")

	var req PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Due == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("due is required"))
		return
	}

	rec, err := h.svc.PushDue(r.Context(), id, req.Due)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrUnrecognizedExpression):
			writeJSON(w, http.StatusBadRequest, errorBody("unrecognized temporal expression"))
		default:
			slog.Error("push record failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	h.reindex(rec.Path)
	writeJSON(w, http.StatusOK, recordDetail(rec))
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.db.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{Path: hit.Path, Event: hit.Event, Snippet: hit.Snippet}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// reindex refreshes the index row for a record that was just rewritten.
// The filesystem watcher would catch the change eventually; doing it
// here makes the API read-your-writes consistent.
func (h *Handler) reindex(path string) {
	data, err := h.store.Read(path)
	if err != nil {
		slog.Warn("reindex read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if err := index.IndexFile(h.db, h.p, path, data); err != nil {
		slog.Warn("reindex failed", slog.String("path", path), slog.String("error", err.Error()))
	}
}
