// Package httphandler implements the JSON API driving adapter.
package httphandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/ericfisherdev/tomeboard/internal/application"
	"github.com/ericfisherdev/tomeboard/internal/domain/model"
	"github.com/ericfisherdev/tomeboard/internal/domain/port/driven"
)

// defaultEntriesLimit caps the entries endpoint when no limit is given.
const defaultEntriesLimit = 10

// BoardProvider is the slice of the board pipeline the API needs.
type BoardProvider interface {
	Board(ctx context.Context, repo model.RepositoryRef, ref string) (*application.Board, error)
}

// Handler is the JSON API driving adapter.
type Handler struct {
	boardSvc   BoardProvider
	defaultRef string
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(boardSvc BoardProvider, defaultRef string, logger *slog.Logger) *Handler {
	return &Handler{
		boardSvc:   boardSvc,
		defaultRef: defaultRef,
		logger:     logger,
	}
}

// RegisterAPIRoutes registers all API endpoints on the given mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/board", h.GetBoard)
	mux.HandleFunc("GET /api/v1/entries", h.GetEntries)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// GetBoard serves the fully processed board for the repository named by the
// "repo" query parameter, e.g. ?repo=github.com/alice/growth-journal.
// An optional "ref" parameter overrides the configured default git ref.
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	board, ok := h.loadBoard(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, toBoardResponse(board))
}

// GetEntries serves the latest N joined entries across all training files,
// newest first. N comes from the "limit" query parameter.
func (h *Handler) GetEntries(w http.ResponseWriter, r *http.Request) {
	board, ok := h.loadBoard(w, r)
	if !ok {
		return
	}

	limit := defaultEntriesLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = parsed
	}

	entries := latestEntries(board, limit)

	resp := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toEntryResponse(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health serves the liveness endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// loadBoard parses the repository reference from the request and runs the
// pipeline, translating the error taxonomy into HTTP responses: a malformed
// reference is the caller's fault (400); an invalid repository gets its own
// verify-the-structure guidance (422); anything else is treated as an
// upstream failure with retry guidance (502).
func (h *Handler) loadBoard(w http.ResponseWriter, r *http.Request) (*application.Board, bool) {
	source := r.URL.Query().Get("repo")
	if source == "" {
		writeError(w, http.StatusBadRequest, "missing required query parameter: repo")
		return nil, false
	}

	repo, err := model.ParseRepositoryRef(source)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	ref := r.URL.Query().Get("ref")
	if ref == "" {
		ref = h.defaultRef
	}

	board, err := h.boardSvc.Board(r.Context(), repo, ref)
	if err != nil {
		if errors.Is(err, driven.ErrInvalidRepository) {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf(
				"repository %s could not be read: verify that it exists, is public, and contains tome.yaml, training/, or evaluations/",
				repo.FullName(),
			))
			return nil, false
		}

		h.logger.Error("board pipeline failed", "repo", repo.FullName(), "ref", ref, "error", err)
		writeError(w, http.StatusBadGateway, fmt.Sprintf(
			"unexpected failure fetching https://github.com/%s, please retry",
			repo.FullName(),
		))
		return nil, false
	}

	return board, true
}

// latestEntries flattens the board's processed files into one
// newest-first list and truncates it to limit.
func latestEntries(board *application.Board, limit int) []model.ProcessedTrainingEntry {
	all := board.Data.AllEntries()

	// Each file is already newest first; merge across files by re-sorting
	// only when multiple files are present.
	if len(board.Data.ProcessedTrainings) > 1 {
		sort.SliceStable(all, func(i, j int) bool {
			a, b := all[i], all[j]
			if a.HasDate() && b.HasDate() {
				return a.Date.After(b.Date)
			}
			return a.Datetime > b.Datetime
		})
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return all
}
