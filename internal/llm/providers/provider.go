// File path: internal/llm/providers/provider.go
package providers

import "context"

// Message is one role-tagged turn sent to the generative backend.
type Message struct {
	Role    string
	Content string
}

// ChatOptions tune a single completion request. A zero MaxTokens defers to
// the provider's configured default; JSONObject requests structured JSON
// output (used only by chunk enrichment).
type ChatOptions struct {
	Temperature float64
	MaxTokens   int64
	JSONObject  bool
}

// Provider abstracts the generative and embedding backends so components can
// substitute fakes in tests.
type Provider interface {
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error)
	// ChatStream invokes emit for each incremental output delta and returns
	// the full answer text once the stream completes.
	ChatStream(ctx context.Context, messages []Message, opts ChatOptions, emit func(delta string) error) (string, error)
	Embed(ctx context.Context, input []string) ([][]float32, error)
	Name() string
}
