// File path: internal/api/ingest_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	chi "github.com/go-chi/chi/v5"

	"github.com/raglens/raglens/internal/common"
	"github.com/raglens/raglens/internal/ingest"
	"github.com/raglens/raglens/internal/kb"
)

// handleIngest runs the pipeline over a server-local path, directory, or the
// configured bucket.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pipeline := s.orchestrator.Pipeline()
	var (
		reports []ingest.Report
		err     error
	)
	switch {
	case req.Bucket:
		objects := s.orchestrator.Bucket()
		if objects == nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("no bucket configured"))
			return
		}
		reports, err = pipeline.ProcessBucket(ctx, objects)
	case req.Dir != "":
		reports, err = pipeline.ProcessDir(ctx, req.Dir)
	case req.Path != "":
		var report ingest.Report
		report, err = pipeline.ProcessFile(ctx, req.Path)
		if err == nil {
			reports = []ingest.Report{report}
		}
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("one of path, dir, or bucket required"))
		return
	}
	if err != nil {
		var unsupported *kb.UnsupportedFormatError
		if errors.As(err, &unsupported) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.Info("api: ingest complete", "documents", len(reports))
	writeJSON(w, http.StatusOK, ingestResponse{Reports: reports})
}

// handleIngestUpload accepts a multipart document upload, stages it on disk,
// mirrors it to the bucket when one is configured, and ingests it.
func (s *Server) handleIngestUpload(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file field required: %w", err))
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !kb.SupportedFormat(name) {
		writeError(w, http.StatusBadRequest, &kb.UnsupportedFormatError{Path: name})
		return
	}
	staged := filepath.Join(s.uploadRoot, name)
	out, err := os.Create(staged)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := out.Close(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.Info("api: upload staged", "file", name, "bytes", header.Size)

	if objects := s.orchestrator.Bucket(); objects != nil {
		data, err := os.ReadFile(staged)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if err := objects.Upload(ctx, name, data); err != nil {
			logger.Warn("api: bucket mirror failed", "file", name, "error", err)
		}
	}

	report, err := s.orchestrator.Pipeline().ProcessFile(ctx, staged)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ingestResponse{Reports: []ingest.Report{report}})
}

// handleDocument returns one persisted chunk document by id.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.orchestrator.Catalog().Document(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
