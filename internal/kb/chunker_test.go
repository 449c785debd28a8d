// File path: internal/kb/chunker_test.go
package kb

import (
	"strings"
	"testing"
)

func TestSplitTextSingleChunkWhenWithinLimit(t *testing.T) {
	text := "a short plain-text document that fits in one chunk"
	chunks := SplitText(text, ChunkOptions{MaxTokens: 100, Overlap: OverlapNone})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Fatalf("chunk does not match input: %q", chunks[0])
	}
}

func TestSplitTextDeterministic(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon ", 200)
	opts := ChunkOptions{MaxTokens: 64, OverlapRate: 0.1, Overlap: OverlapPrePost}
	first := SplitText(text, opts)
	second := SplitText(text, opts)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitTextBoundsAndReconstruction(t *testing.T) {
	// 2500 single-rune tokens in 5000 characters forces at least two chunks
	// at the default 2048-token bound.
	text := strings.Repeat("a ", 2500)
	if len(text) != 5000 {
		t.Fatalf("fixture should be 5000 chars, got %d", len(text))
	}
	chunks := SplitText(text, ChunkOptions{MaxTokens: 2048, OverlapRate: 0, Overlap: OverlapNone})
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if got := CountTokens(chunk); got > 2048 {
			t.Fatalf("chunk %d has %d tokens, over the limit", i, got)
		}
	}
	if strings.Join(chunks, "") != text {
		t.Fatal("concatenated chunks do not reconstruct the input")
	}
}

func TestSplitTextPreservesSeparators(t *testing.T) {
	text := "line one\nline two\n\n\tindented three"
	chunks := SplitText(text, ChunkOptions{MaxTokens: 3, Overlap: OverlapNone})
	if strings.Join(chunks, "") != text {
		t.Fatalf("separators lost: %q", strings.Join(chunks, ""))
	}
}

func TestSplitTextOverlapModes(t *testing.T) {
	text := "one two three four five six seven eight"
	base := SplitText(text, ChunkOptions{MaxTokens: 4, Overlap: OverlapNone})
	if len(base) != 2 {
		t.Fatalf("expected 2 base chunks, got %d", len(base))
	}

	pre := SplitText(text, ChunkOptions{MaxTokens: 4, OverlapRate: 0.5, Overlap: OverlapPre})
	if pre[0] != base[0] {
		t.Fatalf("first chunk should have no leading overlap: %q", pre[0])
	}
	if !strings.HasPrefix(pre[1], "three four ") {
		t.Fatalf("PRE overlap missing from second chunk: %q", pre[1])
	}

	post := SplitText(text, ChunkOptions{MaxTokens: 4, OverlapRate: 0.5, Overlap: OverlapPost})
	if !strings.HasSuffix(post[0], "five six ") {
		t.Fatalf("POST overlap missing from first chunk: %q", post[0])
	}
	if post[1] != base[1] {
		t.Fatalf("last chunk should have no trailing overlap: %q", post[1])
	}

	both := SplitText(text, ChunkOptions{MaxTokens: 4, OverlapRate: 0.5, Overlap: OverlapPrePost})
	if !strings.HasPrefix(both[1], "three four ") {
		t.Fatalf("PREPOST missing leading overlap: %q", both[1])
	}
	if !strings.HasSuffix(both[0], "five six ") {
		t.Fatalf("PREPOST missing trailing overlap: %q", both[0])
	}
}

func TestParseOverlapType(t *testing.T) {
	cases := map[string]OverlapType{
		"none":    OverlapNone,
		"PRE":     OverlapPre,
		" post ":  OverlapPost,
		"PrePost": OverlapPrePost,
		"bogus":   OverlapNone,
		"":        OverlapNone,
	}
	for input, want := range cases {
		if got := ParseOverlapType(input); got != want {
			t.Fatalf("ParseOverlapType(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDocumentIDDeterministic(t *testing.T) {
	const want = "432a2b51bb68992b811d0e4f640ad0a9f6e9fefb6c49c6afb9c4e1168ec39d11"
	if got := DocumentID("a.txt", 0); got != want {
		t.Fatalf("DocumentID(a.txt, 0) = %s, want %s", got, want)
	}
	if DocumentID("a.txt", 0) != DocumentID("a.txt", 0) {
		t.Fatal("DocumentID is not stable")
	}
	if DocumentID("a.txt", 0) == DocumentID("a.txt", 1) {
		t.Fatal("distinct chunks must not collide")
	}
	const wantPDF = "52dac7884b0093b6004753705e9f95ee2f794c155ba5712fc550f85b58013241"
	if got := DocumentID("report.pdf", 3); got != wantPDF {
		t.Fatalf("DocumentID(report.pdf, 3) = %s, want %s", got, wantPDF)
	}
}

func TestSourceLabel(t *testing.T) {
	if got := SourceLabel("info1.txt", 2); got != "info1.txt-2" {
		t.Fatalf("SourceLabel = %q", got)
	}
}
