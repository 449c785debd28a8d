// File path: internal/embedder/embedder.go
package embedder

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/raglens/raglens/internal/common"
	"github.com/raglens/raglens/internal/common/telemetry"
)

// DefaultTextLimit is the character bound applied to normalized text before
// it is sent to the embedding backend.
const DefaultTextLimit = 7000

var whitespaceRun = regexp.MustCompile(`\s+`)

// Provider is the minimal embedding contract the Embedder needs.
type Provider interface {
	Embed(ctx context.Context, input []string) ([][]float32, error)
}

// Embedder normalizes and bounds text before handing it to the embedding
// backend. Over-long input is truncated with a warning, never rejected.
type Embedder struct {
	provider  Provider
	textLimit int
}

func New(provider Provider) *Embedder {
	limit := DefaultTextLimit
	if raw := strings.TrimSpace(os.Getenv("EMBED_TEXT_LIMIT")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return &Embedder{provider: provider, textLimit: limit}
}

// NewWithLimit constructs an Embedder with an explicit character limit,
// bypassing the environment default.
func NewWithLimit(provider Provider, limit int) *Embedder {
	if limit <= 0 {
		limit = DefaultTextLimit
	}
	return &Embedder{provider: provider, textLimit: limit}
}

// Embed returns the fixed-length vector for text. Whitespace runs are
// collapsed to single spaces and the result trimmed before the length check,
// so the limit applies to normalized characters.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e == nil || e.provider == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	normalized := Normalize(text)
	// The limit counts characters, not bytes, so multi-byte text keeps its
	// full budget and a cut never lands mid-rune.
	if runes := []rune(normalized); len(runes) > e.textLimit {
		common.Logger().Warn("embedder: text exceeds limit, truncating", "length", len(runes), "limit", e.textLimit)
		telemetry.RecordTruncation()
		normalized = string(runes[:e.textLimit])
	}
	vectors, err := e.provider.Embed(ctx, []string{normalized})
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embedding backend returned no vector")
	}
	return vectors[0], nil
}

// Normalize collapses whitespace and newline runs to single spaces and trims
// the result.
func Normalize(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
