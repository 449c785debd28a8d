// File path: internal/retriever/retriever.go
package retriever

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/raglens/raglens/internal/common"
	"github.com/raglens/raglens/internal/kb"
	"github.com/raglens/raglens/internal/search"
)

// Mode selects how a query is executed against the search index.
type Mode string

const (
	// VectorOnly runs a pure vector similarity query. The lexical text is
	// never sent to the backend.
	VectorOnly Mode = "vector"
	// Hybrid combines lexical and vector matching.
	Hybrid Mode = "hybrid"
	// SemanticHybrid adds the semantic reranker on top of hybrid matching.
	SemanticHybrid Mode = "semantic"
)

// DefaultTopK is the result count used when the caller does not specify one.
const DefaultTopK = 5

// InputError reports an invalid caller-supplied retrieval parameter.
type InputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ParseMode maps a caller-supplied mode string onto a Mode. Empty input
// selects SemanticHybrid.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return SemanticHybrid, nil
	case "vector", "vectoronly", "vector_only":
		return VectorOnly, nil
	case "hybrid":
		return Hybrid, nil
	case "semantic", "semantichybrid", "semantic_hybrid":
		return SemanticHybrid, nil
	default:
		return "", &InputError{Field: "mode", Value: raw, Reason: "unknown search mode"}
	}
}

// CoerceTopK converts a caller-supplied result count to a positive integer.
// Empty input yields DefaultTopK.
func CoerceTopK(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultTopK, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, &InputError{Field: "top", Value: raw, Reason: "must be an integer"}
	}
	if parsed <= 0 {
		return 0, &InputError{Field: "top", Value: raw, Reason: "must be positive"}
	}
	return parsed, nil
}

// Embedder produces the query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Backend is the slice of the search client the retriever uses.
type Backend interface {
	Search(ctx context.Context, indexName string, req search.Request) ([]search.Hit, error)
}

// Result is one retrieved chunk with its relevance score.
type Result struct {
	ID       string   `json:"id"`
	FileName string   `json:"fileName"`
	ChunkNo  int      `json:"chunkNo"`
	Content  string   `json:"content"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
	Score    float64  `json:"score"`
}

// Label returns the citation label for this result.
func (r Result) Label() string {
	return kb.SourceLabel(r.FileName, r.ChunkNo)
}

// Retriever executes similarity queries against one search index.
type Retriever struct {
	embedder  Embedder
	backend   Backend
	indexName string
}

func New(embedder Embedder, backend Backend, indexName string) *Retriever {
	return &Retriever{embedder: embedder, backend: backend, indexName: indexName}
}

// Retrieve embeds the query and runs it in the requested mode, returning at
// most topK results ordered by relevance.
func (r *Retriever) Retrieve(ctx context.Context, query string, mode Mode, topK int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &InputError{Field: "query", Value: query, Reason: "must not be empty"}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	req := search.Request{Vector: vector, Top: topK}
	switch mode {
	case VectorOnly:
	case Hybrid:
		req.Text = query
	case SemanticHybrid:
		req.Text = query
		req.Semantic = true
	default:
		return nil, &InputError{Field: "mode", Value: string(mode), Reason: "unknown search mode"}
	}
	hits, err := r.backend.Search(ctx, r.indexName, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			ID:       hit.ID,
			FileName: hit.FileName,
			ChunkNo:  hit.ChunkNo,
			Content:  hit.Content,
			Title:    hit.Title,
			Summary:  hit.Summary,
			Keywords: hit.Keywords,
			Score:    hit.Score,
		})
	}
	common.Logger().Debug("retriever: query complete", "mode", mode, "top", topK, "results", len(results))
	return results, nil
}
