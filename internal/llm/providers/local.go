// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
)

// LocalProvider is a deterministic offline fallback used when no API key is
// configured. Answers and vectors are pure functions of the input, which also
// makes it convenient in tests.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := strings.TrimSpace(messages[len(messages)-1].Content)
	if opts.JSONObject {
		return localEnrichmentJSON(last)
	}
	return "[local-stub] " + last, nil
}

func (l *LocalProvider) ChatStream(ctx context.Context, messages []Message, opts ChatOptions, emit func(delta string) error) (string, error) {
	answer, err := l.Chat(ctx, messages, opts)
	if err != nil {
		return "", err
	}
	if emit != nil {
		if err := emit(answer); err != nil {
			return answer, err
		}
	}
	return answer, nil
}

func (l *LocalProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	vectors := make([][]float32, len(input))
	for i, text := range input {
		vec := make([]float32, 8)
		for j, field := range strings.Fields(text) {
			h := fnv.New32a()
			h.Write([]byte(field))
			vec[j%len(vec)] += float32(h.Sum32()%1000) / 1000
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (l *LocalProvider) Name() string {
	return "local"
}

func localEnrichmentJSON(text string) (string, error) {
	fields := strings.Fields(text)
	title := strings.Join(headFields(fields, 8), " ")
	if title == "" {
		title = "empty chunk"
	}
	summary := text
	if len(summary) > 240 {
		summary = summary[:240]
	}
	seen := make(map[string]struct{})
	var keywords []string
	for _, field := range fields {
		word := strings.ToLower(strings.Trim(field, ".,:;!?\"'()[]"))
		if len(word) < 4 {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
		if len(keywords) >= 10 {
			break
		}
	}
	payload, err := json.Marshal(map[string]any{
		"title":    title,
		"summary":  summary,
		"keywords": keywords,
	})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func headFields(fields []string, n int) []string {
	if n >= len(fields) {
		return fields
	}
	return fields[:n]
}
