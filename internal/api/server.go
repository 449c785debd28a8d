// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/raglens/raglens/internal/common"
	"github.com/raglens/raglens/internal/data/orchestrator"
	"github.com/raglens/raglens/internal/llm"
)

type Server struct {
	router     chi.Router
	provider   llm.Provider
	uploadRoot string

	orchestrator *orchestrator.Orchestrator
}

// Config controls how the API server stages uploaded documents.
type Config struct {
	UploadRoot string
}

// DefaultConfig returns the standard configuration used when no overrides
// are provided.
func DefaultConfig() Config {
	return Config{
		UploadRoot: filepath.Join(os.TempDir(), "raglens_uploads"),
	}
}

// Merge overlays non-empty configuration fields from the override onto the
// base configuration.
func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.UploadRoot) != "" {
		result.UploadRoot = strings.TrimSpace(override.UploadRoot)
	}
	return result
}

func NewServer(orch *orchestrator.Orchestrator, provider llm.Provider, cfg *Config) (*Server, error) {
	logger := common.Logger()
	if orch == nil {
		return nil, fmt.Errorf("orchestrator required")
	}
	configuration := DefaultConfig()
	if cfg != nil {
		configuration = configuration.Merge(*cfg)
	}
	if provider == nil {
		provider = llm.NewProvider()
	}
	logger.Info(
		"api: building server",
		"provider", provider.Name(),
		"index", orch.IndexName(),
		"bucket_available", orch.Bucket() != nil,
	)
	if err := os.MkdirAll(configuration.UploadRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	srv := &Server{
		router:       chi.NewRouter(),
		provider:     provider,
		uploadRoot:   configuration.UploadRoot,
		orchestrator: orch,
	}
	srv.routes()
	logger.Info("api: server ready")
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Post("/v1/ingest", s.handleIngest)
	s.router.Post("/v1/ingest/upload", s.handleIngestUpload)
	s.router.Get("/v1/search", s.handleSearch)
	s.router.Post("/v1/chat", s.handleChat)
	s.router.Get("/v1/documents/{id}", s.handleDocument)
	s.router.Get("/v1/conversations/{session}", s.handleConversation)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
