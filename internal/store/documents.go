// File path: internal/store/documents.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/raglens/raglens/internal/kb"
)

// ErrNotFound marks a document id absent from the catalog.
var ErrNotFound = errors.New("document not found")

// PersistDocument writes the chunk document keyed by its id with overwrite
// semantics. Re-persisting an id replaces the previous row.
func (s *Store) PersistDocument(ctx context.Context, doc kb.ChunkDocument) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	if doc.ID == "" {
		return errors.New("document id required")
	}
	keywords, err := json.Marshal(doc.Keywords)
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}
	vector, err := json.Marshal(doc.ContentVector)
	if err != nil {
		return fmt.Errorf("encode vector: %w", err)
	}
	const query = `INSERT INTO documents
                (id, file_name, chunk_no, content, title, summary, keywords, content_vector, updated_at)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
                ON CONFLICT(id) DO UPDATE SET
                        file_name = excluded.file_name,
                        chunk_no = excluded.chunk_no,
                        content = excluded.content,
                        title = excluded.title,
                        summary = excluded.summary,
                        keywords = excluded.keywords,
                        content_vector = excluded.content_vector,
                        updated_at = excluded.updated_at`
	_, err = s.db.ExecContext(ctx, query,
		doc.ID, doc.FileName, doc.ChunkNo, doc.Content, doc.Title, doc.Summary,
		string(keywords), string(vector), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("persist document %s: %w", doc.ID, err)
	}
	return nil
}

// Document loads one chunk document by id.
func (s *Store) Document(ctx context.Context, id string) (kb.ChunkDocument, error) {
	if s == nil || s.db == nil {
		return kb.ChunkDocument{}, errors.New("store not initialised")
	}
	var row struct {
		ID       string `db:"id"`
		FileName string `db:"file_name"`
		ChunkNo  int    `db:"chunk_no"`
		Content  string `db:"content"`
		Title    string `db:"title"`
		Summary  string `db:"summary"`
		Keywords string `db:"keywords"`
		Vector   string `db:"content_vector"`
	}
	const query = `SELECT id, file_name, chunk_no, content, title, summary, keywords, content_vector
                FROM documents WHERE id = ?`
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return kb.ChunkDocument{}, ErrNotFound
		}
		return kb.ChunkDocument{}, fmt.Errorf("load document %s: %w", id, err)
	}
	doc := kb.ChunkDocument{
		ID:       row.ID,
		FileName: row.FileName,
		ChunkNo:  row.ChunkNo,
		Content:  row.Content,
		Title:    row.Title,
		Summary:  row.Summary,
	}
	if err := json.Unmarshal([]byte(row.Keywords), &doc.Keywords); err != nil {
		return kb.ChunkDocument{}, fmt.Errorf("decode keywords for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(row.Vector), &doc.ContentVector); err != nil {
		return kb.ChunkDocument{}, fmt.Errorf("decode vector for %s: %w", id, err)
	}
	return doc, nil
}

// CountDocumentsForFile reports how many chunk documents a source file has in
// the catalog.
func (s *Store) CountDocumentsForFile(ctx context.Context, fileName string) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("store not initialised")
	}
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM documents WHERE file_name = ?`, fileName); err != nil {
		return 0, fmt.Errorf("count documents for %s: %w", fileName, err)
	}
	return count, nil
}
