// File path: internal/data/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/raglens/raglens/internal/bucket"
	"github.com/raglens/raglens/internal/embedder"
	"github.com/raglens/raglens/internal/enricher"
	"github.com/raglens/raglens/internal/ingest"
	"github.com/raglens/raglens/internal/kb"
	"github.com/raglens/raglens/internal/llm"
	"github.com/raglens/raglens/internal/retriever"
	"github.com/raglens/raglens/internal/search"
	"github.com/raglens/raglens/internal/store"
)

type closer interface {
	Close() error
}

// Orchestrator wires together the catalog, search backend, object store, and
// model provider that back the server, and exposes the assembled pipeline
// and retriever to the API layer.
type Orchestrator struct {
	cfg Config

	catalog   *store.Store
	index     search.Index
	objects   bucket.Bucket
	provider  llm.Provider
	embedder  *embedder.Embedder
	enricher  *enricher.Enricher
	pipeline  *ingest.Pipeline
	retriever *retriever.Retriever

	closers []closer
}

// New constructs an orchestrator from the provided configuration and
// optional overrides.
func New(ctx context.Context, cfg Config, opts ...Option) (*Orchestrator, error) {
	cfg = applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	settings := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}

	catalog, err := store.Open(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}

	index := settings.index
	if index == nil {
		client, err := search.NewFromEnv(ctx)
		if err != nil {
			catalog.Close()
			return nil, fmt.Errorf("init search client: %w", err)
		}
		index = client
	}

	provider := settings.provider
	if provider == nil {
		provider = llm.NewProvider()
	}

	objects := settings.objects
	if objects == nil {
		if client := bucket.NewFromEnv(); client != nil {
			objects = client
		}
	}

	embed := embedder.New(provider)
	enrich := enricher.New(provider)
	binding := &indexBinding{index: index, name: cfg.IndexName}
	pipeline := ingest.NewPipeline(enrich, embed, binding, catalog, ingest.Config{
		IndexName:  cfg.IndexName,
		SchemaPath: cfg.SchemaPath,
	})

	orch := &Orchestrator{
		cfg:       cfg,
		catalog:   catalog,
		index:     index,
		objects:   objects,
		provider:  provider,
		embedder:  embed,
		enricher:  enrich,
		pipeline:  pipeline,
		retriever: retriever.New(embed, index, cfg.IndexName),
	}
	orch.closers = append(orch.closers, catalog)
	if c, ok := index.(closer); ok {
		orch.closers = append(orch.closers, c)
	}
	return orch, nil
}

// Catalog exposes the document and conversation store.
func (o *Orchestrator) Catalog() *store.Store {
	if o == nil {
		return nil
	}
	return o.catalog
}

// Index exposes the search backend.
func (o *Orchestrator) Index() search.Index {
	if o == nil {
		return nil
	}
	return o.index
}

// Bucket exposes the optional object store; nil when none is configured.
func (o *Orchestrator) Bucket() bucket.Bucket {
	if o == nil {
		return nil
	}
	return o.objects
}

// Provider exposes the chat/embedding provider.
func (o *Orchestrator) Provider() llm.Provider {
	if o == nil {
		return nil
	}
	return o.provider
}

// Pipeline exposes the assembled ingestion pipeline.
func (o *Orchestrator) Pipeline() *ingest.Pipeline {
	if o == nil {
		return nil
	}
	return o.pipeline
}

// PipelineWithConfig builds a pipeline over the same collaborators with
// custom chunking settings.
func (o *Orchestrator) PipelineWithConfig(cfg ingest.Config) *ingest.Pipeline {
	if o == nil {
		return nil
	}
	cfg.IndexName = o.cfg.IndexName
	cfg.SchemaPath = o.cfg.SchemaPath
	binding := &indexBinding{index: o.index, name: o.cfg.IndexName}
	return ingest.NewPipeline(o.enricher, o.embedder, binding, o.catalog, cfg)
}

// Retriever exposes the assembled retriever.
func (o *Orchestrator) Retriever() *retriever.Retriever {
	if o == nil {
		return nil
	}
	return o.retriever
}

// IndexName reports the index targeted by this deployment.
func (o *Orchestrator) IndexName() string {
	if o == nil {
		return ""
	}
	return o.cfg.IndexName
}

// Close releases any resources associated with the orchestrator.
func (o *Orchestrator) Close() error {
	if o == nil {
		return nil
	}
	var err error
	for i := len(o.closers) - 1; i >= 0; i-- {
		closer := o.closers[i]
		if closer == nil {
			continue
		}
		if cerr := closer.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}

// indexBinding pins the search backend to one index name so the pipeline
// does not need to carry it per call.
type indexBinding struct {
	index search.Index
	name  string
}

func (b *indexBinding) EnsureIndex(ctx context.Context, schemaPath string) error {
	return b.index.EnsureIndex(ctx, b.name, schemaPath)
}

func (b *indexBinding) UploadDocuments(ctx context.Context, docs []kb.ChunkDocument) error {
	return b.index.UploadDocuments(ctx, b.name, docs)
}
