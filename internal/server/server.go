// Package server exposes the RAG workflows over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/config"
	"pdf-rag/internal/extract"
	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"
	"pdf-rag/internal/rag"
)

// RAG is the workflow surface the handlers need.
type RAG interface {
	Ingest(ctx context.Context, path string) (int, error)
	Query(ctx context.Context, question string, topK int) (string, error)
}

// Server holds the HTTP handlers for the RAG service.
type Server struct {
	svc RAG
	cfg config.ServerConfig
}

func New(svc RAG, cfg config.ServerConfig) *Server {
	return &Server{svc: svc, cfg: cfg}
}

// Routes builds the router with the service's three endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", s.handleHealth)
	r.Post("/upload-pdf", s.handleUpload)
	r.Post("/ask", s.handleAsk)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "pdf rag service is running"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.cfg.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing or oversized file upload")
		return
	}
	defer file.Close()

	if err := validateUpload(header.Filename, header.Header.Get("Content-Type")); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, err := s.saveUpload(file, header.Filename)
	if err != nil {
		log.Error().Err(err).Msg("failed to save upload")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	count, err := s.svc.Ingest(r.Context(), path)
	if err != nil {
		if errors.Is(err, extract.ErrNoText) {
			respondError(w, http.StatusBadRequest, "could not extract any text from the document")
			return
		}
		log.Error().Err(err).Str("file", header.Filename).Msg("ingestion failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, models.UploadResponse{
		Message:     "PDF uploaded and processed successfully",
		ChunkStored: count,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondError(w, http.StatusBadRequest, "question must not be empty")
		return
	}

	answer, err := s.svc.Query(r.Context(), req.Question, 0)
	if err != nil {
		if errors.Is(err, rag.ErrNotIngested) {
			respondError(w, http.StatusNotFound, "no document has been ingested yet")
			return
		}
		log.Error().Err(err).Msg("query failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, models.AskResponse{Answer: answer})
}

// saveUpload writes the uploaded file under the upload dir with a uuid
// prefix so concurrent uploads of the same filename never collide.
func (s *Server) saveUpload(file io.Reader, filename string) (string, error) {
	if err := helper.CreateFolder(s.cfg.UploadDir); err != nil {
		return "", err
	}
	id, err := helper.GenerateUUID()
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.cfg.UploadDir, id+"_"+filepath.Base(filename))

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	return path, nil
}

func validateUpload(filename, contentType string) error {
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return errors.New("only .pdf files are accepted")
	}
	switch contentType {
	case "", "application/pdf", "application/octet-stream":
		return nil
	default:
		return fmt.Errorf("unexpected content type: %s", contentType)
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, models.ErrorResponse{Error: msg})
}

// requestLogger logs one line per request with method, path, status and
// latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	})
}
