// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"expvar"
	"sync"
	"time"
)

var (
	initOnce sync.Once

	searchTotal         *expvar.Int
	searchLatencyMS     *expvar.Int
	searchFailuresTotal *expvar.Int

	ingestFilesTotal    *expvar.Int
	ingestChunksTotal   *expvar.Int
	ingestFailuresTotal *expvar.Int

	embedTruncations *expvar.Int

	chatTotal     *expvar.Int
	chatLatencyMS *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		searchTotal = expvar.NewInt("raglens_search_total")
		searchLatencyMS = expvar.NewInt("raglens_search_latency_ms")
		searchFailuresTotal = expvar.NewInt("raglens_search_failures_total")

		ingestFilesTotal = expvar.NewInt("raglens_ingest_files_total")
		ingestChunksTotal = expvar.NewInt("raglens_ingest_chunks_total")
		ingestFailuresTotal = expvar.NewInt("raglens_ingest_failures_total")

		embedTruncations = expvar.NewInt("raglens_embed_truncations_total")

		chatTotal = expvar.NewInt("raglens_chat_total")
		chatLatencyMS = expvar.NewInt("raglens_chat_latency_ms")
	})
}

// RecordSearch tracks one successful retrieval round trip against the search
// backend.
func RecordSearch(duration time.Duration) {
	ensureInit()
	searchTotal.Add(1)
	searchLatencyMS.Add(duration.Milliseconds())
}

// RecordSearchFailure tracks a retrieval round trip that errored.
func RecordSearchFailure() {
	ensureInit()
	searchFailuresTotal.Add(1)
}

// RecordIngest tracks a completed per-file ingestion batch.
func RecordIngest(chunks int) {
	ensureInit()
	ingestFilesTotal.Add(1)
	ingestChunksTotal.Add(int64(chunks))
}

// RecordIngestFailure tracks a file whose ingestion aborted.
func RecordIngestFailure() {
	ensureInit()
	ingestFailuresTotal.Add(1)
}

// RecordTruncation tracks an embedding input cut down to the text limit.
func RecordTruncation() {
	ensureInit()
	embedTruncations.Add(1)
}

// RecordChat tracks one answer-generation round trip.
func RecordChat(duration time.Duration) {
	ensureInit()
	chatTotal.Add(1)
	chatLatencyMS.Add(duration.Milliseconds())
}
