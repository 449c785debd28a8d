// File path: internal/store/store_test.go
package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raglens/raglens/internal/kb"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := Config{Path: filepath.Join(t.TempDir(), "test.db"), BusyTimeout: time.Second}
	cfg.applyDefaults()
	s, err := OpenWithConfig(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "catalog.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open with missing parent directories: %v", err)
	}
	defer s.Close()
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("store directory not created: %v", err)
	}
}

func TestPersistDocumentUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc := kb.ChunkDocument{
		ID:            kb.DocumentID("a.txt", 0),
		FileName:      "a.txt",
		ChunkNo:       0,
		Content:       "original content",
		Title:         "original",
		Summary:       "summary",
		Keywords:      []string{"one", "two"},
		ContentVector: []float32{0.5, 0.25},
	}
	if err := s.PersistDocument(ctx, doc); err != nil {
		t.Fatalf("persist: %v", err)
	}

	// Re-persisting the same id must overwrite, never append.
	doc.Content = "updated content"
	if err := s.PersistDocument(ctx, doc); err != nil {
		t.Fatalf("re-persist: %v", err)
	}
	count, err := s.CountDocumentsForFile(ctx, "a.txt")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 document after re-persist, got %d", count)
	}
	loaded, err := s.Document(ctx, doc.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Content != "updated content" {
		t.Fatalf("overwrite did not take: %q", loaded.Content)
	}
	if len(loaded.Keywords) != 2 || loaded.Keywords[0] != "one" {
		t.Fatalf("keywords round trip failed: %v", loaded.Keywords)
	}
	if len(loaded.ContentVector) != 2 || loaded.ContentVector[1] != 0.25 {
		t.Fatalf("vector round trip failed: %v", loaded.ContentVector)
	}
}

func TestDocumentNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Document(context.Background(), "missing-id")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConversationTurnsOrdered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	const session = "session-1"
	if err := s.AppendTurn(ctx, session, "user", "what is the vacation policy?"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendTurn(ctx, session, "assistant", "20 days per year [policy.txt-0]"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendTurn(ctx, "other-session", "user", "unrelated"); err != nil {
		t.Fatalf("append: %v", err)
	}
	turns, err := s.TurnsForSession(ctx, session)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != "user" || turns[1].Role != "assistant" {
		t.Fatalf("turns out of order: %+v", turns)
	}
}

func TestRecordEval(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.RecordEval(ctx, "session-1", "q", "a", "sources"); err != nil {
		t.Fatalf("record eval: %v", err)
	}
}
