// File path: internal/kb/chunker.go
package kb

import (
	"strings"
	"unicode"
)

// OverlapType controls whether a slice of the adjacent chunk is duplicated
// into the current chunk to preserve retrieval continuity across boundaries.
type OverlapType string

const (
	OverlapNone    OverlapType = "NONE"
	OverlapPre     OverlapType = "PRE"
	OverlapPost    OverlapType = "POST"
	OverlapPrePost OverlapType = "PREPOST"
)

// ParseOverlapType maps a configuration string onto an OverlapType,
// defaulting to OverlapNone for unrecognized values.
func ParseOverlapType(value string) OverlapType {
	switch OverlapType(strings.ToUpper(strings.TrimSpace(value))) {
	case OverlapPre:
		return OverlapPre
	case OverlapPost:
		return OverlapPost
	case OverlapPrePost:
		return OverlapPrePost
	default:
		return OverlapNone
	}
}

// ChunkOptions bounds chunk size and configures the overlap policy.
type ChunkOptions struct {
	MaxTokens   int
	OverlapRate float64
	Overlap     OverlapType
}

// DefaultChunkOptions mirrors the ingestion defaults: 2048-token chunks,
// no overlap.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{MaxTokens: 2048, OverlapRate: 0, Overlap: OverlapNone}
}

// SplitText splits text into chunks of at most MaxTokens whitespace-delimited
// tokens. Each token keeps its trailing separator, so with no overlap the
// concatenation of the returned chunks reconstructs the input exactly. The
// split is a pure function of the input and options.
func SplitText(text string, opts ChunkOptions) []string {
	if text == "" {
		return nil
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultChunkOptions().MaxTokens
	}
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	var base [][]string
	for start := 0; start < len(tokens); start += opts.MaxTokens {
		end := start + opts.MaxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		base = append(base, tokens[start:end])
	}

	overlap := overlapTokenCount(opts)
	chunks := make([]string, 0, len(base))
	for i, group := range base {
		var b strings.Builder
		if overlap > 0 && (opts.Overlap == OverlapPre || opts.Overlap == OverlapPrePost) && i > 0 {
			prev := base[i-1]
			for _, tok := range tail(prev, overlap) {
				b.WriteString(tok)
			}
		}
		for _, tok := range group {
			b.WriteString(tok)
		}
		if overlap > 0 && (opts.Overlap == OverlapPost || opts.Overlap == OverlapPrePost) && i+1 < len(base) {
			next := base[i+1]
			for _, tok := range head(next, overlap) {
				b.WriteString(tok)
			}
		}
		chunks = append(chunks, b.String())
	}
	return chunks
}

// CountTokens reports the whitespace-delimited token count used by the
// chunker's size bound.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

func overlapTokenCount(opts ChunkOptions) int {
	if opts.Overlap == OverlapNone || opts.OverlapRate <= 0 {
		return 0
	}
	n := int(opts.OverlapRate * float64(opts.MaxTokens))
	if n < 1 {
		n = 1
	}
	return n
}

// tokenize splits text into tokens consisting of a run of non-space runes
// followed by its trailing whitespace run. Leading whitespace is folded into
// the first token so concatenation restores the input byte-for-byte.
func tokenize(text string) []string {
	runes := []rune(text)
	var tokens []string
	i := 0
	for i < len(runes) {
		start := i
		for i < len(runes) && !unicode.IsSpace(runes[i]) {
			i++
		}
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
		tokens = append(tokens, string(runes[start:i]))
	}
	if len(tokens) > 1 && strings.TrimSpace(tokens[0]) == "" {
		tokens[1] = tokens[0] + tokens[1]
		tokens = tokens[1:]
	}
	return tokens
}

func tail(tokens []string, n int) []string {
	if n >= len(tokens) {
		return tokens
	}
	return tokens[len(tokens)-n:]
}

func head(tokens []string, n int) []string {
	if n >= len(tokens) {
		return tokens
	}
	return tokens[:n]
}
