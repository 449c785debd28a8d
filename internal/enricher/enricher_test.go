// File path: internal/enricher/enricher_test.go
package enricher

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/raglens/raglens/internal/kb"
	"github.com/raglens/raglens/internal/llm/providers"
)

type scriptedProvider struct {
	responses []string
	err       error
	calls     int
	lastOpts  providers.ChatOptions
}

func (s *scriptedProvider) Chat(ctx context.Context, messages []providers.Message, opts providers.ChatOptions) (string, error) {
	s.lastOpts = opts
	if s.err != nil {
		return "", s.err
	}
	if s.calls >= len(s.responses) {
		return "", errors.New("no scripted response left")
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

func (s *scriptedProvider) ChatStream(ctx context.Context, messages []providers.Message, opts providers.ChatOptions, emit func(string) error) (string, error) {
	return s.Chat(ctx, messages, opts)
}

func (s *scriptedProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func (s *scriptedProvider) Name() string { return "scripted" }

func TestEnrichParsesStructuredOutput(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"title": "Vacation policy", "summary": "Details annual leave rules.", "keywords": ["vacation", "leave"]}`,
	}}
	enricher := New(provider)
	got, err := enricher.Enrich(context.Background(), "employees receive 20 days of annual leave")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if got.Title != "Vacation policy" || got.Summary != "Details annual leave rules." {
		t.Fatalf("unexpected enrichment: %+v", got)
	}
	if len(got.Keywords) != 2 {
		t.Fatalf("keywords: %v", got.Keywords)
	}
	if !provider.lastOpts.JSONObject {
		t.Fatal("enrichment must request structured JSON output")
	}
	if provider.lastOpts.Temperature != 0 {
		t.Fatalf("enrichment temperature should be 0, got %v", provider.lastOpts.Temperature)
	}
}

func TestEnrichAcceptsLegacyKeywordsKey(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"title": "t", "summary": "s", "Keywords": ["one", "two"]}`,
	}}
	got, err := New(provider).Enrich(context.Background(), "text")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(got.Keywords) != 2 {
		t.Fatalf("legacy keywords not accepted: %v", got.Keywords)
	}
}

func TestEnrichCapsKeywords(t *testing.T) {
	keywords := ""
	for i := 0; i < 40; i++ {
		if i > 0 {
			keywords += ", "
		}
		keywords += fmt.Sprintf("%q", fmt.Sprintf("kw%d", i))
	}
	provider := &scriptedProvider{responses: []string{
		fmt.Sprintf(`{"title": "t", "summary": "s", "keywords": [%s]}`, keywords),
	}}
	got, err := New(provider).Enrich(context.Background(), "text")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(got.Keywords) != kb.MaxKeywords {
		t.Fatalf("expected %d keywords, got %d", kb.MaxKeywords, len(got.Keywords))
	}
	if got.Keywords[0] != "kw0" || got.Keywords[kb.MaxKeywords-1] != fmt.Sprintf("kw%d", kb.MaxKeywords-1) {
		t.Fatal("keyword order not preserved")
	}
}

func TestEnrichRetriesOnceThenFails(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"not json at all",
		`{"title": "", "summary": "s"}`,
	}}
	_, err := New(provider).Enrich(context.Background(), "text")
	if err == nil {
		t.Fatal("expected enrichment failure")
	}
	var enrichmentErr *EnrichmentError
	if !errors.As(err, &enrichmentErr) {
		t.Fatalf("expected EnrichmentError, got %T", err)
	}
	if provider.calls != 2 {
		t.Fatalf("expected exactly one retry (2 calls), got %d", provider.calls)
	}
}

func TestEnrichRecoversOnRetry(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"garbage",
		`{"title": "t", "summary": "s", "keywords": []}`,
	}}
	got, err := New(provider).Enrich(context.Background(), "text")
	if err != nil {
		t.Fatalf("Enrich should succeed on retry: %v", err)
	}
	if got.Title != "t" {
		t.Fatalf("unexpected enrichment: %+v", got)
	}
}

func TestEnrichBackendErrorFatal(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("rate limited")}
	_, err := New(provider).Enrich(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error")
	}
	var enrichmentErr *EnrichmentError
	if errors.As(err, &enrichmentErr) {
		t.Fatal("backend errors must not masquerade as schema errors")
	}
	if provider.calls != 0 && provider.calls != 1 {
		t.Fatalf("unexpected call count %d", provider.calls)
	}
}
