// File path: internal/api/search_handler.go
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/raglens/raglens/internal/common"
	"github.com/raglens/raglens/internal/retriever"
)

// handleSearch runs a retrieval query. Query parameters: q (required),
// mode (vector|hybrid|semantic, default semantic), top (positive integer,
// default 5).
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("q parameter required"))
		return
	}
	mode, err := retriever.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	top, err := retriever.CoerceTopK(r.URL.Query().Get("top"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	results, err := s.orchestrator.Retriever().Retrieve(r.Context(), query, mode, top)
	if err != nil {
		var inputErr *retriever.InputError
		if errors.As(err, &inputErr) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.Debug("api: search complete", "query", query, "mode", mode, "results", len(results))
	writeJSON(w, http.StatusOK, searchResponse{
		Query:   query,
		Mode:    string(mode),
		Top:     top,
		Results: results,
	})
}
