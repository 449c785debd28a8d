// File path: internal/kb/types.go
package kb

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ChunkDocument is the enriched, embedded unit stored in both the search
// index and the durable document store. The two copies share the same ID.
type ChunkDocument struct {
	ID            string    `json:"id" db:"id"`
	FileName      string    `json:"fileName" db:"file_name"`
	ChunkNo       int       `json:"chunkNo" db:"chunk_no"`
	Content       string    `json:"content" db:"content"`
	Title         string    `json:"title" db:"title"`
	Summary       string    `json:"summary" db:"summary"`
	Keywords      []string  `json:"keywords"`
	ContentVector []float32 `json:"contentVector,omitempty"`
}

// Enrichment is the generative-model-derived metadata attached to a chunk.
type Enrichment struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
}

// MaxKeywords bounds the keyword set produced by enrichment.
const MaxKeywords = 25

// DocumentID derives the idempotence key for a chunk. Re-indexing the same
// (fileName, chunkNo) pair always yields the same ID, so writes overwrite
// rather than duplicate.
func DocumentID(fileName string, chunkNo int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s_%d", fileName, chunkNo)))
	return hex.EncodeToString(sum[:])
}

// SourceLabel is the citation identifier a generated answer uses to refer to
// a chunk, rendered into the prompt's Sources section.
func SourceLabel(fileName string, chunkNo int) string {
	return fmt.Sprintf("%s-%d", fileName, chunkNo)
}
