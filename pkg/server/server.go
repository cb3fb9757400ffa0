// Package server exposes the ingestion pipeline over HTTP. It is a thin
// collaborator: all pipeline semantics live in pkg/ingest.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spendlens/spendlens/pkg/csv"
	"github.com/spendlens/spendlens/pkg/ingest"
	"github.com/spendlens/spendlens/pkg/store"
)

// maxUploadBytes caps statement uploads. Real statements are well under
// this; anything larger is not a statement.
const maxUploadBytes = 32 << 20

type Server struct {
	logger   *log.Logger
	mux      *http.ServeMux
	ingestor *ingest.Ingestor
	store    store.Store
}

func New(logger *log.Logger, ingestor *ingest.Ingestor, st store.Store) *Server {
	s := &Server{
		logger:   logger,
		mux:      http.NewServeMux(),
		ingestor: ingestor,
		store:    st,
	}
	s.setupRoutes()
	return s
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/ingest", s.withLogging(s.handleIngest))
	s.mux.HandleFunc("/api/categories", s.withLogging(s.handleCategories))
	s.mux.HandleFunc("/api/batches/", s.withLogging(s.handleBatch))
	s.mux.HandleFunc("/api/exports/", s.withLogging(s.handleExport))
}

// handleIngest accepts a multipart statement upload and runs the
// pipeline synchronously. The upload is staged to a temp file which the
// ingestor removes on every path.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("statement")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "statement file required", err)
		return
	}
	defer file.Close()

	sourceID := r.FormValue("source")
	if sourceID == "" {
		s.respondError(w, r, http.StatusBadRequest, "source required", nil)
		return
	}

	tmp, err := os.CreateTemp("", "spendlens-upload-*")
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to stage upload", err)
		return
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		s.respondError(w, r, http.StatusInternalServerError, "failed to stage upload", err)
		return
	}
	tmp.Close()

	result, err := s.ingestor.IngestFile(r.Context(), tmp.Name(), header.Filename, sourceID)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, ingest.ErrUnsupportedFileType) {
			status = http.StatusUnsupportedMediaType
		}
		s.logger.Warn("ingestion rejected", "file", header.Filename, "error", err)
		_ = s.writeJSON(w, status, map[string]any{
			"status":  "error",
			"error":   err.Error(),
			"details": result.Warnings,
		})
		return
	}

	if err := s.writeJSON(w, http.StatusOK, result); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to list categories", err)
		return
	}
	if err := s.writeJSON(w, http.StatusOK, map[string]any{"categories": categories}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/batches/")
	if id == "" {
		s.respondError(w, r, http.StatusBadRequest, "batch id required", nil)
		return
	}
	batch, err := s.store.GetBatch(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, r, http.StatusNotFound, "batch not found", nil)
		return
	}
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to load batch", err)
		return
	}
	if err := s.writeJSON(w, http.StatusOK, batch); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// handleExport serves a source's stored transactions as CSV, e.g.
// GET /api/exports/chase-visa.csv.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/exports/")
	sourceID := strings.TrimSuffix(name, filepath.Ext(name))
	if sourceID == "" {
		s.respondError(w, r, http.StatusBadRequest, "source required", nil)
		return
	}

	txns, err := s.store.ListTransactions(r.Context(), sourceID, 0)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to list transactions", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sourceID+".csv"))
	if _, err := w.Write(csv.Create(txns, nil)); err != nil {
		s.logger.Warn("failed to write csv response", "err", err)
	}
}

// --- helpers ---

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// withLogging wraps a handler to log requests and recover panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		next(w, r)
	}
}
