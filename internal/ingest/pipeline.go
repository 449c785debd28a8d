// File path: internal/ingest/pipeline.go
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/raglens/raglens/internal/bucket"
	"github.com/raglens/raglens/internal/common"
	"github.com/raglens/raglens/internal/common/telemetry"
	"github.com/raglens/raglens/internal/kb"
)

// Enricher produces a title, summary, and keywords for one chunk of text.
type Enricher interface {
	Enrich(ctx context.Context, content string) (kb.Enrichment, error)
}

// Embedder turns a piece of text into its vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchIndex is the slice of the search backend the pipeline needs.
type SearchIndex interface {
	EnsureIndex(ctx context.Context, schemaPath string) error
	UploadDocuments(ctx context.Context, docs []kb.ChunkDocument) error
}

// DocumentStore persists enriched chunks for durable bookkeeping.
type DocumentStore interface {
	PersistDocument(ctx context.Context, doc kb.ChunkDocument) error
}

// Pipeline runs the full ingestion flow for files, directories, and buckets:
// extract text, chunk it, enrich and embed every chunk, persist, then upload
// the whole batch to the search index.
type Pipeline struct {
	enricher Enricher
	embedder Embedder
	index    SearchIndex
	store    DocumentStore
	cfg      Config
}

// Report summarizes one ingestion run.
type Report struct {
	FileName string        `json:"fileName"`
	Chunks   int           `json:"chunks"`
	Duration time.Duration `json:"duration"`
}

func NewPipeline(enricher Enricher, embedder Embedder, index SearchIndex, store DocumentStore, cfg Config) *Pipeline {
	cfg.applyDefaults()
	return &Pipeline{
		enricher: enricher,
		embedder: embedder,
		index:    index,
		store:    store,
		cfg:      cfg,
	}
}

// ProcessFile ingests a single document from disk.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (Report, error) {
	text, err := kb.ExtractText(path)
	if err != nil {
		telemetry.RecordIngestFailure()
		return Report{}, err
	}
	return p.ProcessText(ctx, filepath.Base(path), text)
}

// ProcessText ingests already-extracted text under the given file name. All
// chunks are enriched, embedded, and persisted before anything reaches the
// search index, so a mid-file failure never leaves a partial batch indexed.
func (p *Pipeline) ProcessText(ctx context.Context, fileName, text string) (Report, error) {
	started := time.Now()
	chunks := kb.SplitText(text, p.cfg.chunkOptions())
	logger := common.Logger()
	logger.Info("ingest: processing document", "file", fileName, "chunks", len(chunks))

	docs := make([]kb.ChunkDocument, 0, len(chunks))
	for chunkNo, content := range chunks {
		doc, err := p.buildDocument(ctx, fileName, chunkNo, content)
		if err != nil {
			telemetry.RecordIngestFailure()
			return Report{}, fmt.Errorf("ingest %s chunk %d: %w", fileName, chunkNo, err)
		}
		docs = append(docs, doc)
	}
	if p.store != nil {
		for _, doc := range docs {
			if err := p.store.PersistDocument(ctx, doc); err != nil {
				telemetry.RecordIngestFailure()
				return Report{}, fmt.Errorf("ingest %s: persist chunk %d: %w", fileName, doc.ChunkNo, err)
			}
		}
	}
	if err := p.index.EnsureIndex(ctx, p.cfg.SchemaPath); err != nil {
		telemetry.RecordIngestFailure()
		return Report{}, fmt.Errorf("ingest %s: ensure index: %w", fileName, err)
	}
	if err := p.index.UploadDocuments(ctx, docs); err != nil {
		telemetry.RecordIngestFailure()
		return Report{}, fmt.Errorf("ingest %s: upload documents: %w", fileName, err)
	}
	telemetry.RecordIngest(len(docs))
	report := Report{FileName: fileName, Chunks: len(docs), Duration: time.Since(started)}
	logger.Info("ingest: document indexed", "file", fileName, "chunks", report.Chunks, "duration", report.Duration)
	return report, nil
}

// ProcessDir walks a directory tree and ingests every supported document.
// Unsupported extensions are skipped with a diagnostic rather than failing
// the batch.
func (p *Pipeline) ProcessDir(ctx context.Context, dir string) ([]Report, error) {
	var reports []Report
	logger := common.Logger()
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		if !kb.SupportedFormat(path) {
			logger.Warn("ingest: skipping unsupported file", "path", path)
			return nil
		}
		report, err := p.ProcessFile(ctx, path)
		if err != nil {
			return err
		}
		reports = append(reports, report)
		return nil
	})
	if err != nil {
		return reports, err
	}
	return reports, nil
}

// ProcessBucket downloads every supported object from the bucket and ingests
// it.
func (p *Pipeline) ProcessBucket(ctx context.Context, objects bucket.Bucket) ([]Report, error) {
	names, err := objects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest bucket: %w", err)
	}
	logger := common.Logger()
	var reports []Report
	for _, name := range names {
		if !kb.SupportedFormat(name) {
			logger.Warn("ingest: skipping unsupported object", "object", name)
			continue
		}
		data, err := objects.Download(ctx, name)
		if err != nil {
			return reports, fmt.Errorf("ingest bucket object %s: %w", name, err)
		}
		report, err := p.ingestRaw(ctx, name, data)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (p *Pipeline) ingestRaw(ctx context.Context, name string, data []byte) (Report, error) {
	if filepath.Ext(name) == ".txt" {
		return p.ProcessText(ctx, name, string(data))
	}
	// PDF extraction needs a file on disk for the reader.
	tmp, err := os.CreateTemp("", "raglens-*"+filepath.Ext(name))
	if err != nil {
		return Report{}, fmt.Errorf("ingest %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Report{}, fmt.Errorf("ingest %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return Report{}, fmt.Errorf("ingest %s: %w", name, err)
	}
	text, err := kb.ExtractText(tmpPath)
	if err != nil {
		var unsupported *kb.UnsupportedFormatError
		if errors.As(err, &unsupported) {
			return Report{}, &kb.UnsupportedFormatError{Path: name}
		}
		return Report{}, fmt.Errorf("ingest %s: %w", name, err)
	}
	return p.ProcessText(ctx, name, text)
}

func (p *Pipeline) buildDocument(ctx context.Context, fileName string, chunkNo int, content string) (kb.ChunkDocument, error) {
	enrichment, err := p.enricher.Enrich(ctx, content)
	if err != nil {
		return kb.ChunkDocument{}, err
	}
	vector, err := p.embedder.Embed(ctx, enrichment.Summary)
	if err != nil {
		return kb.ChunkDocument{}, err
	}
	return kb.ChunkDocument{
		ID:            kb.DocumentID(fileName, chunkNo),
		FileName:      fileName,
		ChunkNo:       chunkNo,
		Content:       content,
		Title:         enrichment.Title,
		Summary:       enrichment.Summary,
		Keywords:      enrichment.Keywords,
		ContentVector: vector,
	}, nil
}
