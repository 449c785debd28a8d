// File path: internal/retriever/retriever_test.go
package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/raglens/raglens/internal/kb"
	"github.com/raglens/raglens/internal/search"
)

type fakeEmbedder struct {
	vector []float32
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	return f.vector, nil
}

type fakeBackend struct {
	lastIndex string
	lastReq   search.Request
	hits      []search.Hit
	err       error
}

func (f *fakeBackend) Search(_ context.Context, indexName string, req search.Request) ([]search.Hit, error) {
	f.lastIndex = indexName
	f.lastReq = req
	return f.hits, f.err
}

func newTestRetriever(backend *fakeBackend) *Retriever {
	return New(&fakeEmbedder{vector: []float32{0.1, 0.2}}, backend, "docs-index")
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		raw     string
		want    Mode
		wantErr bool
	}{
		{"", SemanticHybrid, false},
		{"vector", VectorOnly, false},
		{"VectorOnly", VectorOnly, false},
		{"hybrid", Hybrid, false},
		{"semantic", SemanticHybrid, false},
		{"semantic_hybrid", SemanticHybrid, false},
		{"fuzzy", "", true},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.raw)
		if tc.wantErr {
			var inputErr *InputError
			if !errors.As(err, &inputErr) {
				t.Fatalf("ParseMode(%q): expected InputError, got %v", tc.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseMode(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestCoerceTopK(t *testing.T) {
	if got, err := CoerceTopK("10"); err != nil || got != 10 {
		t.Fatalf("CoerceTopK(10) = %d, %v", got, err)
	}
	if got, err := CoerceTopK(" 3 "); err != nil || got != 3 {
		t.Fatalf("CoerceTopK(' 3 ') = %d, %v", got, err)
	}
	if got, err := CoerceTopK(""); err != nil || got != DefaultTopK {
		t.Fatalf("CoerceTopK('') = %d, %v", got, err)
	}
	for _, raw := range []string{"zero", "-1", "0", "2.5"} {
		_, err := CoerceTopK(raw)
		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("CoerceTopK(%q): expected InputError, got %v", raw, err)
		}
	}
}

func TestRetrieveVectorOnlyOmitsText(t *testing.T) {
	backend := &fakeBackend{}
	r := newTestRetriever(backend)
	if _, err := r.Retrieve(context.Background(), "what is churn", VectorOnly, 3); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if backend.lastIndex != "docs-index" {
		t.Fatalf("queried index %q", backend.lastIndex)
	}
	if backend.lastReq.Text != "" {
		t.Fatalf("vector mode must not carry query text, got %q", backend.lastReq.Text)
	}
	if backend.lastReq.Semantic {
		t.Fatal("vector mode must not request semantic reranking")
	}
	if len(backend.lastReq.Vector) == 0 || backend.lastReq.Top != 3 {
		t.Fatalf("unexpected request: %+v", backend.lastReq)
	}
}

func TestRetrieveHybridCarriesText(t *testing.T) {
	backend := &fakeBackend{}
	r := newTestRetriever(backend)
	if _, err := r.Retrieve(context.Background(), "what is churn", Hybrid, 5); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if backend.lastReq.Text != "what is churn" || backend.lastReq.Semantic {
		t.Fatalf("unexpected request: %+v", backend.lastReq)
	}
}

func TestRetrieveSemanticSetsReranker(t *testing.T) {
	backend := &fakeBackend{hits: []search.Hit{
		{
			ChunkDocument: kb.ChunkDocument{
				ID:       kb.DocumentID("report.pdf", 3),
				FileName: "report.pdf",
				ChunkNo:  3,
				Content:  "chunk body",
				Title:    "Quarterly churn",
				Summary:  "summary",
				Keywords: []string{"churn"},
			},
			Score: 2.5,
		},
	}}
	r := newTestRetriever(backend)
	results, err := r.Retrieve(context.Background(), "what is churn", SemanticHybrid, 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if backend.lastReq.Text != "what is churn" || !backend.lastReq.Semantic {
		t.Fatalf("unexpected request: %+v", backend.lastReq)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got := results[0]
	if got.FileName != "report.pdf" || got.ChunkNo != 3 || got.Score != 2.5 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.Label() != "report.pdf-3" {
		t.Fatalf("unexpected label: %q", got.Label())
	}
}

func TestRetrieveRejectsEmptyQuery(t *testing.T) {
	r := newTestRetriever(&fakeBackend{})
	_, err := r.Retrieve(context.Background(), "   ", SemanticHybrid, 5)
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError, got %v", err)
	}
}
