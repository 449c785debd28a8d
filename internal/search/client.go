// File path: internal/search/client.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/raglens/raglens/internal/common"
	"github.com/raglens/raglens/internal/common/telemetry"
	"github.com/raglens/raglens/internal/kb"
)

// Index is the search-backend contract used by ingestion and retrieval.
type Index interface {
	EnsureIndex(ctx context.Context, name, schemaPath string) error
	UploadDocuments(ctx context.Context, indexName string, docs []kb.ChunkDocument) error
	Search(ctx context.Context, indexName string, req Request) ([]Hit, error)
}

// Request describes one query against an index. An empty Text with a
// populated Vector is a pure similarity search; Semantic additionally asks
// the backend to rerank with its semantic configuration.
type Request struct {
	Text     string
	Vector   []float32
	Top      int
	Semantic bool
}

// Hit is one ranked document returned by the backend.
type Hit struct {
	kb.ChunkDocument
	Score float64 `json:"@search.score"`
}

var (
	errNotFound = errors.New("resource not found")
	errConflict = errors.New("resource conflict")
)

// Client talks to the search service's REST surface.
type Client struct {
	httpClient *http.Client
	transport  *http.Transport

	endpoint string
	cfg      Config
}

func NewFromEnv(ctx context.Context) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
}

// New constructs a client using the provided configuration.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("search endpoint required")
	}
	logger := common.Logger()
	logger.Info(
		"search: initializing client",
		"endpoint", cfg.Endpoint,
		"index", cfg.Index,
		"api_version", cfg.APIVersion,
		"timeout", cfg.Timeout,
	)
	transport := &http.Transport{
		MaxIdleConns:        cfg.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: cfg.HTTPMaxIdlePerHost,
		MaxConnsPerHost:     cfg.HTTPMaxConnsPerHost,
		IdleConnTimeout:     cfg.HTTPIdleConnTimeout,
	}
	client := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		transport:  transport,
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		cfg:        cfg,
	}
	return client, nil
}

// IndexName returns the configured default index.
func (c *Client) IndexName() string {
	if c == nil {
		return ""
	}
	return c.cfg.Index
}

// Ping verifies the service is reachable, retrying briefly before giving up.
func (c *Client) Ping(ctx context.Context) error {
	const maxAttempts = 3
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = c.doRequest(ctx, http.MethodGet, c.url("/indexes"), nil, nil)
		if err == nil || errors.Is(err, errNotFound) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 250 * time.Millisecond):
		}
	}
	return err
}

// EnsureIndex checks for the named index and creates it from the JSON schema
// template when absent, substituting the name. Calling it for an existing
// index is a no-op.
func (c *Client) EnsureIndex(ctx context.Context, name, schemaPath string) error {
	if c == nil {
		return errors.New("search client not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = c.cfg.Index
	}
	logger := common.Logger()
	err := c.doRequest(ctx, http.MethodGet, c.url("/indexes/"+url.PathEscape(name)), nil, nil)
	if err == nil {
		logger.Debug("search: index exists", "index", name)
		return nil
	}
	if !errors.Is(err, errNotFound) {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	schema, err := loadSchemaTemplate(schemaPath, name)
	if err != nil {
		return err
	}
	logger.Info("search: creating index", "index", name, "schema", schemaPath)
	if err := c.doRequest(ctx, http.MethodPost, c.url("/indexes"), schema, nil); err != nil {
		// A concurrent creator winning the race still satisfies EnsureIndex.
		if errors.Is(err, errConflict) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// UploadDocuments writes a batch of chunk documents with merge-or-upload
// semantics, so re-indexing the same ids overwrites rather than duplicates.
func (c *Client) UploadDocuments(ctx context.Context, indexName string, docs []kb.ChunkDocument) error {
	if c == nil {
		return errors.New("search client not configured")
	}
	if len(docs) == 0 {
		return nil
	}
	indexName = strings.TrimSpace(indexName)
	if indexName == "" {
		indexName = c.cfg.Index
	}
	type actionDoc struct {
		kb.ChunkDocument
		Action string `json:"@search.action"`
	}
	payload := struct {
		Value []actionDoc `json:"value"`
	}{Value: make([]actionDoc, 0, len(docs))}
	for _, doc := range docs {
		payload.Value = append(payload.Value, actionDoc{ChunkDocument: doc, Action: "mergeOrUpload"})
	}
	endpoint := c.url("/indexes/" + url.PathEscape(indexName) + "/docs/index")
	if err := c.doRequest(ctx, http.MethodPost, endpoint, payload, nil); err != nil {
		return fmt.Errorf("upload %d documents to %s: %w", len(docs), indexName, err)
	}
	common.Logger().Info("search: uploaded documents", "index", indexName, "count", len(docs))
	return nil
}

// Search executes one query. The lexical query text is omitted from the wire
// request entirely when req.Text is empty.
func (c *Client) Search(ctx context.Context, indexName string, req Request) ([]Hit, error) {
	if c == nil {
		return nil, errors.New("search client not configured")
	}
	indexName = strings.TrimSpace(indexName)
	if indexName == "" {
		indexName = c.cfg.Index
	}
	top := req.Top
	if top <= 0 {
		top = 10
	}
	body := searchRequest{Top: top}
	if req.Text != "" {
		body.Search = &req.Text
	}
	if len(req.Vector) > 0 {
		body.VectorQueries = []vectorQuery{{
			Kind:   "vector",
			Vector: req.Vector,
			Fields: "contentVector",
			K:      top,
		}}
	}
	if req.Semantic {
		body.QueryType = "semantic"
		body.SemanticConfiguration = c.cfg.SemanticConfig
	}
	var resp struct {
		Value []Hit `json:"value"`
	}
	endpoint := c.url("/indexes/" + url.PathEscape(indexName) + "/docs/search")
	start := time.Now()
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		telemetry.RecordSearchFailure()
		return nil, fmt.Errorf("search index %s: %w", indexName, err)
	}
	telemetry.RecordSearch(time.Since(start))
	return resp.Value, nil
}

var _ Index = (*Client)(nil)

type searchRequest struct {
	Search                *string       `json:"search,omitempty"`
	Top                   int           `json:"top"`
	VectorQueries         []vectorQuery `json:"vectorQueries,omitempty"`
	QueryType             string        `json:"queryType,omitempty"`
	SemanticConfiguration string        `json:"semanticConfiguration,omitempty"`
}

type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	Fields string    `json:"fields"`
	K      int       `json:"k"`
}

func loadSchemaTemplate(path, name string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index schema %s: %w", path, err)
	}
	var schema map[string]interface{}
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parse index schema %s: %w", path, err)
	}
	schema["name"] = name
	return schema, nil
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("%s%s?api-version=%s", c.endpoint, path, url.QueryEscape(c.cfg.APIVersion))
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	if c == nil {
		return errors.New("search client not configured")
	}
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("api-key", c.cfg.APIKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode == http.StatusConflict {
		return errConflict
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("search %s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	return decoder.Decode(out)
}

// Close releases pooled resources associated with the client.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	return nil
}
