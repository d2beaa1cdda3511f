package batch

import "github.com/fintech-reviews/revload/pkg/ingest/normalize"

// ChunkState tracks a chunk through the two-tier upsert.
type ChunkState string

const (
	// ChunkPending means the chunk has not been dispatched yet.
	ChunkPending ChunkState = "pending"
	// ChunkBulkAttempted means the bulk statement is in flight.
	ChunkBulkAttempted ChunkState = "bulk_attempted"
	// ChunkCommitted means the bulk statement committed.
	ChunkCommitted ChunkState = "committed"
	// ChunkFallbackPerRecord means the bulk statement failed and the chunk
	// was replayed record by record.
	ChunkFallbackPerRecord ChunkState = "fallback_per_record"
)

// Chunk is one upsert unit.
type Chunk struct {
	Index   int
	Records []*normalize.Review
	State   ChunkState
}

// splitChunks partitions records into chunks of at most size records,
// preserving order.
func splitChunks(records []*normalize.Review, size int) []*Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var chunks []*Chunk
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, &Chunk{
			Index:   len(chunks),
			Records: records[start:end],
			State:   ChunkPending,
		})
	}
	return chunks
}

// dedupeLastWins collapses duplicate record ids to the last occurrence,
// keeping the order of last appearances. A single statement cannot apply two
// conflicting updates to the same id, so earlier duplicates are dropped
// before chunking.
func dedupeLastWins(records []*normalize.Review) []*normalize.Review {
	last := make(map[string]int, len(records))
	for i, rec := range records {
		last[rec.ID] = i
	}

	out := make([]*normalize.Review, 0, len(last))
	for i, rec := range records {
		if last[rec.ID] == i {
			out = append(out, rec)
		}
	}
	return out
}
