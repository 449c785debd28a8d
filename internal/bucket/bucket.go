// File path: internal/bucket/bucket.go
package bucket

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
)

// Bucket is the object-storage collaborator: a flat namespace of named
// objects with overwrite-on-upload semantics.
type Bucket interface {
	List(ctx context.Context) ([]string, error)
	Download(ctx context.Context, name string) ([]byte, error)
	Upload(ctx context.Context, name string, data []byte) error
}

// ErrObjectNotFound marks a missing object name.
var ErrObjectNotFound = errors.New("object not found")

type Config struct {
	Endpoint string
	Name     string
	APIKey   string
	Timeout  time.Duration
}

func LoadConfig() Config {
	cfg := Config{
		Endpoint: strings.TrimSpace(os.Getenv("BUCKET_ENDPOINT")),
		Name:     strings.TrimSpace(os.Getenv("BUCKET_NAME")),
		APIKey:   strings.TrimSpace(os.Getenv("BUCKET_API_KEY")),
	}
	if raw := strings.TrimSpace(os.Getenv("BUCKET_TIMEOUT")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			cfg.Timeout = parsed
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "raglens-documents"
	}
	return cfg
}

// Client is a minimal REST client for the object store.
type Client struct {
	httpClient *http.Client
	endpoint   string
	cfg        Config
}

// NewFromEnv constructs a client from the environment, or returns nil when
// no endpoint is configured (bucket processing disabled).
func NewFromEnv() *Client {
	cfg := LoadConfig()
	if cfg.Endpoint == "" {
		return nil
	}
	return New(cfg)
}

func New(cfg Config) *Client {
	common.Logger().Info("bucket: initializing client", "endpoint", cfg.Endpoint, "bucket", cfg.Name)
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		cfg:        cfg,
	}
}

// List returns the names of all objects in the bucket.
func (c *Client) List(ctx context.Context) ([]string, error) {
	if c == nil {
		return nil, errors.New("bucket client not configured")
	}
	var resp struct {
		Objects []struct {
			Name string `json:"name"`
		} `json:"objects"`
	}
	endpoint := fmt.Sprintf("%s/%s", c.endpoint, url.PathEscape(c.cfg.Name))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(&resp)
	}); err != nil {
		return nil, fmt.Errorf("list bucket %s: %w", c.cfg.Name, err)
	}
	names := make([]string, 0, len(resp.Objects))
	for _, obj := range resp.Objects {
		if obj.Name != "" {
			names = append(names, obj.Name)
		}
	}
	return names, nil
}

// Download fetches one object's content.
func (c *Client) Download(ctx context.Context, name string) ([]byte, error) {
	if c == nil {
		return nil, errors.New("bucket client not configured")
	}
	var data []byte
	endpoint := c.objectURL(name)
	err := c.do(ctx, http.MethodGet, endpoint, nil, func(body io.Reader) error {
		var readErr error
		data, readErr = io.ReadAll(body)
		return readErr
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	return data, nil
}

// Upload writes an object, overwriting any previous content under the same
// name.
func (c *Client) Upload(ctx context.Context, name string, data []byte) error {
	if c == nil {
		return errors.New("bucket client not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.objectURL(name), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload %s failed: %s", name, strings.TrimSpace(string(payload)))
	}
	common.Logger().Info("bucket: uploaded object", "bucket", c.cfg.Name, "object", name, "bytes", len(data))
	return nil
}

var _ Bucket = (*Client)(nil)

func (c *Client) objectURL(name string) string {
	return fmt.Sprintf("%s/%s/%s", c.endpoint, url.PathEscape(c.cfg.Name), url.PathEscape(name))
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.APIKey))
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, handle func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrObjectNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(payload)))
	}
	if handle == nil {
		return nil
	}
	return handle(resp.Body)
}
