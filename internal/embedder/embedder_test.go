// File path: internal/embedder/embedder_test.go
package embedder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

type capturingProvider struct {
	inputs []string
	vector []float32
	err    error
}

func (c *capturingProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	c.inputs = append(c.inputs, input...)
	if c.err != nil {
		return nil, c.err
	}
	return [][]float32{c.vector}, nil
}

func TestEmbedNormalizesWhitespace(t *testing.T) {
	provider := &capturingProvider{vector: []float32{0.1, 0.2}}
	emb := NewWithLimit(provider, 100)
	if _, err := emb.Embed(context.Background(), "  first\n\nsecond\t\tthird  "); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(provider.inputs) != 1 {
		t.Fatalf("expected one backend call, got %d", len(provider.inputs))
	}
	if provider.inputs[0] != "first second third" {
		t.Fatalf("normalization wrong: %q", provider.inputs[0])
	}
}

func TestEmbedTruncatesAtLimit(t *testing.T) {
	provider := &capturingProvider{vector: []float32{1}}
	const limit = 50
	emb := NewWithLimit(provider, limit)
	long := strings.Repeat("word ", 40) // 200 chars before normalization
	if _, err := emb.Embed(context.Background(), long); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	sent := provider.inputs[0]
	if len(sent) != limit {
		t.Fatalf("backend received %d chars, want exactly %d", len(sent), limit)
	}
	if !strings.HasPrefix(strings.TrimSpace(long), sent[:4]) {
		t.Fatalf("truncated text should be a prefix of the normalized input: %q", sent)
	}
}

func TestEmbedTruncatesMultiByteByCharacters(t *testing.T) {
	provider := &capturingProvider{vector: []float32{1}}
	const limit = 50
	emb := NewWithLimit(provider, limit)
	long := strings.Repeat("日本語 ", 40) // 160 chars, 3-byte runes
	if _, err := emb.Embed(context.Background(), long); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	sent := []rune(provider.inputs[0])
	if len(sent) != limit {
		t.Fatalf("backend received %d characters, want exactly %d", len(sent), limit)
	}
	if !utf8.ValidString(provider.inputs[0]) {
		t.Fatalf("truncated text is not valid UTF-8: %q", provider.inputs[0])
	}
	if !strings.HasPrefix(Normalize(long), provider.inputs[0]) {
		t.Fatalf("truncated text should be a prefix of the normalized input: %q", provider.inputs[0])
	}
}

func TestEmbedShortTextUntouched(t *testing.T) {
	provider := &capturingProvider{vector: []float32{1}}
	emb := NewWithLimit(provider, 7000)
	if _, err := emb.Embed(context.Background(), "short query"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if provider.inputs[0] != "short query" {
		t.Fatalf("text altered: %q", provider.inputs[0])
	}
}

func TestEmbedPropagatesBackendError(t *testing.T) {
	provider := &capturingProvider{err: errors.New("backend down")}
	emb := NewWithLimit(provider, 7000)
	if _, err := emb.Embed(context.Background(), "anything"); err == nil {
		t.Fatal("expected backend error to propagate")
	}
}
