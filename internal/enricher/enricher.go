// File path: internal/enricher/enricher.go
package enricher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/raglens/raglens/internal/common"
	"github.com/raglens/raglens/internal/kb"
	"github.com/raglens/raglens/internal/llm"
)

const systemPrompt = `You are a skilled assistant building a knowledge base for retrieval-augmented generation. You read internal documents, summarize them clearly, and extract keywords. Follow the constraints and output JSON.
### Constraints
- The given context is one chunk of a document. Summarize the chunk and output it as the value of "summary". Keep the important keywords inside the summary.
- Give the chunk a one-sentence title and output it as the value of "title".
- Extract the important keywords useful for search within this chunk. Output at most 25 keywords as the value of "keywords".
- Respect the output format.
### Output format
{"summary": "<summary of the chunk>", "title": "<title of the chunk>", "keywords": ["keyword1", "keyword2", ...]}`

const userPromptPrefix = "Produce JSON output from the following context, strictly following the constraints and the output format. Read it carefully from start to finish.\n### Context\n"

// EnrichmentError marks structured output from the model that failed schema
// validation. It is fatal for the chunk in question, not for the batch.
type EnrichmentError struct {
	Reason string
	Raw    string
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("invalid enrichment output: %s", e.Reason)
}

// Enricher derives a title, summary and keyword set per chunk via the
// generative backend's structured-JSON mode.
type Enricher struct {
	provider llm.Provider
}

func New(provider llm.Provider) *Enricher {
	return &Enricher{provider: provider}
}

// Enrich produces the enrichment for one chunk. Malformed model output is
// retried once before the chunk is failed.
func (e *Enricher) Enrich(ctx context.Context, chunkText string) (kb.Enrichment, error) {
	if e == nil || e.provider == nil {
		return kb.Enrichment{}, fmt.Errorf("enricher not configured")
	}
	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPromptPrefix + chunkText},
	}
	opts := llm.ChatOptions{Temperature: 0, JSONObject: true}
	logger := common.Logger()
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := e.provider.Chat(ctx, messages, opts)
		if err != nil {
			return kb.Enrichment{}, fmt.Errorf("enrichment completion: %w", err)
		}
		enrichment, err := parseEnrichment(raw)
		if err == nil {
			return enrichment, nil
		}
		lastErr = err
		logger.Warn("enricher: malformed model output", "attempt", attempt+1, "error", err)
	}
	return kb.Enrichment{}, lastErr
}

// parseEnrichment validates the model's JSON against the expected schema.
// The keyword list is accepted under "keywords" or the legacy "Keywords" key
// and capped at kb.MaxKeywords entries, order preserved.
func parseEnrichment(raw string) (kb.Enrichment, error) {
	var payload struct {
		Title          string   `json:"title"`
		Summary        string   `json:"summary"`
		Keywords       []string `json:"keywords"`
		LegacyKeywords []string `json:"Keywords"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return kb.Enrichment{}, &EnrichmentError{Reason: fmt.Sprintf("not valid JSON: %v", err), Raw: raw}
	}
	title := strings.TrimSpace(payload.Title)
	summary := strings.TrimSpace(payload.Summary)
	if title == "" {
		return kb.Enrichment{}, &EnrichmentError{Reason: "missing title", Raw: raw}
	}
	if summary == "" {
		return kb.Enrichment{}, &EnrichmentError{Reason: "missing summary", Raw: raw}
	}
	keywords := payload.Keywords
	if len(keywords) == 0 {
		keywords = payload.LegacyKeywords
	}
	cleaned := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		cleaned = append(cleaned, keyword)
		if len(cleaned) == kb.MaxKeywords {
			break
		}
	}
	return kb.Enrichment{Title: title, Summary: summary, Keywords: cleaned}, nil
}
