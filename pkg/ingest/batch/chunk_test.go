package batch

import (
	"testing"

	"github.com/fintech-reviews/revload/pkg/ingest/normalize"
)

func reviews(ids ...string) []*normalize.Review {
	out := make([]*normalize.Review, len(ids))
	for i, id := range ids {
		out[i] = &normalize.Review{ID: id}
	}
	return out
}

func TestSplitChunksEven(t *testing.T) {
	chunks := splitChunks(reviews("a", "b", "c", "d"), 2)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len(chunks[0].Records) != 2 || len(chunks[1].Records) != 2 {
		t.Error("uneven chunk sizes")
	}
	if chunks[0].Index != 0 || chunks[1].Index != 1 {
		t.Error("chunk indexes not sequential")
	}
	for _, c := range chunks {
		if c.State != ChunkPending {
			t.Errorf("new chunk should be pending, got %s", c.State)
		}
	}
}

func TestSplitChunksRemainder(t *testing.T) {
	chunks := splitChunks(reviews("a", "b", "c"), 2)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len(chunks[1].Records) != 1 {
		t.Errorf("expected trailing chunk of 1, got %d", len(chunks[1].Records))
	}
}

func TestSplitChunksZeroSizeUsesDefault(t *testing.T) {
	chunks := splitChunks(reviews("a", "b"), 0)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if len(chunks[0].Records) != 2 {
		t.Errorf("expected 2 records, got %d", len(chunks[0].Records))
	}
}

func TestSplitChunksEmpty(t *testing.T) {
	if chunks := splitChunks(nil, 10); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestDedupeLastWins(t *testing.T) {
	in := []*normalize.Review{
		{ID: "a", Text: "first"},
		{ID: "b", Text: "only"},
		{ID: "a", Text: "second"},
	}

	out := dedupeLastWins(in)

	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].ID != "b" {
		t.Errorf("expected b first, got %s", out[0].ID)
	}
	if out[1].ID != "a" || out[1].Text != "second" {
		t.Errorf("expected last occurrence of a, got %s/%s", out[1].ID, out[1].Text)
	}
}

func TestDedupeNoDuplicates(t *testing.T) {
	in := reviews("a", "b", "c")

	out := dedupeLastWins(in)

	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	for i, id := range []string{"a", "b", "c"} {
		if out[i].ID != id {
			t.Errorf("order changed at %d: got %s", i, out[i].ID)
		}
	}
}
