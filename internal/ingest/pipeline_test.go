// File path: internal/ingest/pipeline_test.go
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raglens/raglens/internal/kb"
)

type fakeEnricher struct {
	failOn int
	calls  int
}

func (f *fakeEnricher) Enrich(_ context.Context, content string) (kb.Enrichment, error) {
	f.calls++
	if f.failOn > 0 && f.calls == f.failOn {
		return kb.Enrichment{}, errors.New("model unavailable")
	}
	return kb.Enrichment{
		Title:    fmt.Sprintf("title %d", f.calls),
		Summary:  "summary of " + strings.TrimSpace(content),
		Keywords: []string{"alpha"},
	}, nil
}

type fakeEmbedder struct {
	texts []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.texts = append(f.texts, text)
	return []float32{0.5, float32(len(text))}, nil
}

type fakeIndex struct {
	ensured  int
	uploaded [][]kb.ChunkDocument
}

func (f *fakeIndex) EnsureIndex(context.Context, string) error {
	f.ensured++
	return nil
}

func (f *fakeIndex) UploadDocuments(_ context.Context, docs []kb.ChunkDocument) error {
	f.uploaded = append(f.uploaded, docs)
	return nil
}

type fakeDocStore struct {
	docs map[string]kb.ChunkDocument
	seq  []string
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: make(map[string]kb.ChunkDocument)}
}

func (f *fakeDocStore) PersistDocument(_ context.Context, doc kb.ChunkDocument) error {
	f.docs[doc.ID] = doc
	f.seq = append(f.seq, doc.ID)
	return nil
}

type fakeBucket struct {
	names   []string
	objects map[string][]byte
}

func (f *fakeBucket) List(context.Context) ([]string, error) { return f.names, nil }

func (f *fakeBucket) Download(_ context.Context, name string) ([]byte, error) {
	data, ok := f.objects[name]
	if !ok {
		return nil, errors.New("missing object")
	}
	return data, nil
}

func (f *fakeBucket) Upload(context.Context, string, []byte) error { return nil }

func newTestPipeline(enricher *fakeEnricher) (*Pipeline, *fakeEmbedder, *fakeIndex, *fakeDocStore) {
	embedder := &fakeEmbedder{}
	index := &fakeIndex{}
	store := newFakeDocStore()
	pipeline := NewPipeline(enricher, embedder, index, store, Config{MaxChunkTokens: 4})
	return pipeline, embedder, index, store
}

func TestProcessTextPersistsBeforeUploading(t *testing.T) {
	pipeline, embedder, index, store := newTestPipeline(&fakeEnricher{})
	report, err := pipeline.ProcessText(context.Background(), "notes.txt", "one two three four five six")
	if err != nil {
		t.Fatalf("ProcessText: %v", err)
	}
	if report.Chunks != 2 {
		t.Fatalf("expected 2 chunks, got %d", report.Chunks)
	}
	if len(store.seq) != 2 {
		t.Fatalf("expected 2 persisted documents, got %d", len(store.seq))
	}
	if index.ensured != 1 || len(index.uploaded) != 1 {
		t.Fatalf("expected one ensure and one upload, got %d/%d", index.ensured, len(index.uploaded))
	}
	batch := index.uploaded[0]
	if len(batch) != 2 {
		t.Fatalf("expected batch of 2, got %d", len(batch))
	}
	for chunkNo, doc := range batch {
		if doc.ID != kb.DocumentID("notes.txt", chunkNo) {
			t.Fatalf("chunk %d has id %s", chunkNo, doc.ID)
		}
		if doc.ChunkNo != chunkNo || doc.FileName != "notes.txt" {
			t.Fatalf("chunk %d metadata wrong: %+v", chunkNo, doc)
		}
	}
	// The vector is computed from the summary, not the raw content.
	for i, text := range embedder.texts {
		if !strings.HasPrefix(text, "summary of ") {
			t.Fatalf("embed input %d was %q", i, text)
		}
	}
}

func TestProcessTextFailureSkipsIndexUpload(t *testing.T) {
	pipeline, _, index, store := newTestPipeline(&fakeEnricher{failOn: 2})
	_, err := pipeline.ProcessText(context.Background(), "notes.txt", "one two three four five six")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "notes.txt") || !strings.Contains(err.Error(), "chunk 1") {
		t.Fatalf("error should name the file and chunk: %v", err)
	}
	if len(index.uploaded) != 0 {
		t.Fatal("failed batch must not reach the index")
	}
	if len(store.seq) != 0 {
		t.Fatal("failed batch must not be persisted")
	}
}

func TestProcessTextRerunOverwritesSameIDs(t *testing.T) {
	pipeline, _, index, store := newTestPipeline(&fakeEnricher{})
	ctx := context.Background()
	if _, err := pipeline.ProcessText(ctx, "notes.txt", "one two three four"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := pipeline.ProcessText(ctx, "notes.txt", "one two three four"); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(store.docs) != 1 {
		t.Fatalf("re-ingest should reuse chunk ids, store has %d", len(store.docs))
	}
	if len(index.uploaded) != 2 {
		t.Fatalf("expected two upload batches, got %d", len(index.uploaded))
	}
	if index.uploaded[0][0].ID != index.uploaded[1][0].ID {
		t.Fatal("same file and chunk must produce the same id")
	}
}

func TestProcessDirSkipsUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "image.png"), []byte{0x89}, 0o644); err != nil {
		t.Fatal(err)
	}
	pipeline, _, index, _ := newTestPipeline(&fakeEnricher{})
	reports, err := pipeline.ProcessDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessDir: %v", err)
	}
	if len(reports) != 1 || reports[0].FileName != "a.txt" {
		t.Fatalf("unexpected reports: %+v", reports)
	}
	if len(index.uploaded) != 1 {
		t.Fatalf("expected one upload batch, got %d", len(index.uploaded))
	}
}

func TestProcessBucketIngestsSupportedObjects(t *testing.T) {
	objects := &fakeBucket{
		names: []string{"doc.txt", "photo.jpg"},
		objects: map[string][]byte{
			"doc.txt":   []byte("bucket text content"),
			"photo.jpg": {0xff},
		},
	}
	pipeline, _, index, _ := newTestPipeline(&fakeEnricher{})
	reports, err := pipeline.ProcessBucket(context.Background(), objects)
	if err != nil {
		t.Fatalf("ProcessBucket: %v", err)
	}
	if len(reports) != 1 || reports[0].FileName != "doc.txt" {
		t.Fatalf("unexpected reports: %+v", reports)
	}
	if len(index.uploaded) != 1 {
		t.Fatalf("expected one upload batch, got %d", len(index.uploaded))
	}
}
