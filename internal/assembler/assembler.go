// File path: internal/assembler/assembler.go
package assembler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/raglens/raglens/internal/llm"
	"github.com/raglens/raglens/internal/retriever"
)

const systemPrompt = "You are an assistant that answers questions using only the provided sources. " +
	"Cite every fact with the source label in square brackets, for example [report.pdf-3]. " +
	"If the sources do not contain the answer, say so instead of guessing."

// BuildPrompt renders the grounding prompt sent to the chat model: a Sources
// section listing the retrieved chunks under their citation labels, the
// conversation so far (system turns excluded), and the user's question.
func BuildPrompt(question string, history []llm.Message, sources []retriever.Result) string {
	var b strings.Builder
	b.WriteString("# Sources:\n")
	for _, src := range sources {
		fmt.Fprintf(&b, "## filename: %s\n", src.Label())
		fmt.Fprintf(&b, "score: %.4f\n", src.Score)
		b.WriteString(src.Content)
		b.WriteString("\n\n")
	}
	for _, msg := range history {
		if msg.Role == "system" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	fmt.Fprintf(&b, "\nAnswer the following question using only the sources above, citing each fact as [filename-chunkNo].\nQuestion: %s\n", question)
	return b.String()
}

// bracketToken matches candidate citation tokens like [report.pdf-3].
var bracketToken = regexp.MustCompile(`\[([^\[\]]+)\]`)

// Citation is one resolved source reference in an answer.
type Citation struct {
	Label    string  `json:"label"`
	ID       string  `json:"id"`
	FileName string  `json:"fileName"`
	ChunkNo  int     `json:"chunkNo"`
	Content  string  `json:"content"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
}

// ResolveCitations scans the answer text for bracketed labels and matches
// them against the retrieved sources. Each source appears at most once, in
// the order of its first mention; tokens that match no source are ignored.
// Beyond exact labels, a token containing a label resolves (decorated
// mentions like [source: report.pdf-3]) and so does a token that is a prefix
// of a label (model shorthand like [report.pdf]), taking the first source in
// ranking order.
func ResolveCitations(answer string, sources []retriever.Result) []Citation {
	byLabel := make(map[string]retriever.Result, len(sources))
	labels := make([]string, 0, len(sources))
	for _, src := range sources {
		label := src.Label()
		if _, ok := byLabel[label]; ok {
			continue
		}
		byLabel[label] = src
		labels = append(labels, label)
	}

	var citations []Citation
	seen := make(map[string]bool)
	appendCitation := func(src retriever.Result) {
		if seen[src.ID] {
			return
		}
		seen[src.ID] = true
		citations = append(citations, Citation{
			Label:    src.Label(),
			ID:       src.ID,
			FileName: src.FileName,
			ChunkNo:  src.ChunkNo,
			Content:  src.Content,
			Title:    src.Title,
			Score:    src.Score,
		})
	}
	for _, match := range bracketToken.FindAllStringSubmatch(answer, -1) {
		token := strings.TrimSpace(match[1])
		if token == "" {
			continue
		}
		if src, ok := byLabel[token]; ok {
			appendCitation(src)
			continue
		}
		for _, label := range labels {
			if strings.Contains(token, label) || strings.HasPrefix(label, token) {
				appendCitation(byLabel[label])
				break
			}
		}
	}
	return citations
}

// Conversation accumulates the message history of one chat session. The
// system turn is pinned at the front and set at most once.
type Conversation struct {
	messages  []llm.Message
	hasSystem bool
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// SetSystem inserts the standard system turn if none is present yet.
func (c *Conversation) SetSystem() {
	if c.hasSystem {
		return
	}
	c.messages = append([]llm.Message{{Role: "system", Content: systemPrompt}}, c.messages...)
	c.hasSystem = true
}

func (c *Conversation) Append(role, content string) {
	c.messages = append(c.messages, llm.Message{Role: role, Content: content})
}

// Turns returns a copy of the accumulated messages.
func (c *Conversation) Turns() []llm.Message {
	out := make([]llm.Message, len(c.messages))
	copy(out, c.messages)
	return out
}
