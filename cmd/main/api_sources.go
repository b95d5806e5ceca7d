package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/CTAG07/trigram/pkg/corpus"
	"github.com/CTAG07/trigram/pkg/trigram"
	"github.com/dustin/go-humanize"
)

// SourcesAPI holds the dependencies for the source library API handlers.
type SourcesAPI struct {
	store  *corpus.Store
	logger *slog.Logger
}

// NewSourcesAPI creates a new instance of the SourcesAPI.
func NewSourcesAPI(store *corpus.Store, logger *slog.Logger) *SourcesAPI {
	return &SourcesAPI{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/sources and /api/examples endpoints.
func (s *SourcesAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/sources", s.handleSources)
	mux.HandleFunc("/api/sources/", s.handleSourceByID)
	mux.HandleFunc("/api/sources/export", s.handleExport)
	mux.HandleFunc("/api/sources/import", s.handleImport)
	mux.HandleFunc("/api/examples", s.handleExamples)
	mux.HandleFunc("/api/examples/", s.handleExampleByIndex)
}

// AddSourceRequest is the expected JSON body for adding a source.
type AddSourceRequest struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// SourceList is the response for listing sources.
type SourceList struct {
	Sources   []corpus.Source `json:"sources"`
	Count     int             `json:"count"`
	TotalSize string          `json:"total_size"`
}

// ExampleInfo describes a bundled example without its full text.
type ExampleInfo struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Size  string `json:"size"`
}

// handleSources handles GET for listing, POST for adding and DELETE for clearing sources.
func (s *SourcesAPI) handleSources(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !requireScope(w, r, scopeSourcesRead) {
			return
		}
		sources, err := s.store.Sources(r.Context())
		if err != nil {
			s.respondWithStoreError(w, err, "Failed to list sources")
			return
		}
		stats, err := s.store.Stats(r.Context())
		if err != nil {
			s.respondWithStoreError(w, err, "Failed to read source stats")
			return
		}
		respondWithJSON(w, http.StatusOK, SourceList{
			Sources:   sources,
			Count:     stats.Sources,
			TotalSize: humanize.Bytes(uint64(stats.TotalBytes)),
		})

	case http.MethodPost:
		if !requireScope(w, r, scopeSourcesWrite) {
			return
		}
		var req AddSourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
			return
		}
		src, err := s.store.AddSource(r.Context(), req.Label, req.Text)
		if err != nil {
			s.respondWithStoreError(w, err, "Failed to add source")
			return
		}
		respondWithJSON(w, http.StatusCreated, src)

	case http.MethodDelete:
		if !requireScope(w, r, scopeSourcesWrite) {
			return
		}
		if err := s.store.Clear(r.Context()); err != nil {
			s.respondWithStoreError(w, err, "Failed to clear sources")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSourceByID gets or deletes a single source.
func (s *SourcesAPI) handleSourceByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/sources/"), "/")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Source id not specified")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !requireScope(w, r, scopeSourcesRead) {
			return
		}
		src, err := s.store.Source(r.Context(), id)
		if err != nil {
			s.respondWithStoreError(w, err, "Failed to get source")
			return
		}
		respondWithJSON(w, http.StatusOK, src)

	case http.MethodDelete:
		if !requireScope(w, r, scopeSourcesWrite) {
			return
		}
		if err := s.store.RemoveSource(r.Context(), id); err != nil {
			s.respondWithStoreError(w, err, "Failed to remove source")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleExport streams every source as a JSON attachment.
func (s *SourcesAPI) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeSourcesRead) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="sources.json"`)
	if err := s.store.Export(r.Context(), w); err != nil {
		s.logger.Error("Failed to export sources", "error", err)
	}
}

// handleImport appends the sources of an uploaded JSON corpus.
func (s *SourcesAPI) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeSourcesWrite) {
		return
	}

	n, err := s.store.Import(r.Context(), r.Body)
	if err != nil {
		s.logger.Error("Failed to import sources", "error", err)
		if errors.Is(err, trigram.ErrInvalidArgument) {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Import failed: %v", err))
			return
		}
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Import failed: %v", err))
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]int{"imported": n})
}

// handleExamples lists the bundled example sources.
func (s *SourcesAPI) handleExamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeSourcesRead) {
		return
	}

	examples := corpus.Examples()
	infos := make([]ExampleInfo, 0, len(examples))
	for i, ex := range examples {
		infos = append(infos, ExampleInfo{Index: i, Label: ex.Label, Size: humanize.Bytes(uint64(len(ex.Text)))})
	}
	respondWithJSON(w, http.StatusOK, infos)
}

// handleExampleByIndex adds the bundled example at the given index as a source.
func (s *SourcesAPI) handleExampleByIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeSourcesWrite) {
		return
	}

	index, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/examples/"), "/"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid example index in URL")
		return
	}
	src, err := s.store.AddExample(r.Context(), index)
	if err != nil {
		s.respondWithStoreError(w, err, "Failed to add example source")
		return
	}
	respondWithJSON(w, http.StatusCreated, src)
}

// respondWithStoreError maps corpus and trigram errors to HTTP status codes.
func (s *SourcesAPI) respondWithStoreError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, trigram.ErrInvalidArgument):
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", message, err))
	case errors.Is(err, corpus.ErrSourceNotFound):
		respondWithError(w, http.StatusNotFound, "Source not found")
	default:
		s.logger.Error(message, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", message, err))
	}
}
