package normalize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rverrors "github.com/fintech-reviews/revload/pkg/errors"
	"github.com/fintech-reviews/revload/pkg/ingest/source"
)

// fakeResolver assigns sequential ids and remembers what it saw.
type fakeResolver struct {
	ids  map[string]int64
	next int64
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{ids: make(map[string]int64)}
}

func (r *fakeResolver) Resolve(_ context.Context, name string) (int64, error) {
	if id, ok := r.ids[name]; ok {
		return id, nil
	}
	r.next++
	r.ids[name] = r.next
	return r.next, nil
}

func raw(fields map[string]string) source.RawRecord {
	return source.RawRecord{Line: 2, Fields: fields}
}

func TestNormalizeFullRecord(t *testing.T) {
	n := NewNormalizer(newFakeResolver())

	rev, err := n.Normalize(context.Background(), raw(map[string]string{
		"record_id":       "r1",
		"bank":            "CBE",
		"review":          "Great app",
		"rating":          "5",
		"date":            "2024-06-01",
		"sentiment":       "positive",
		"sentiment_score": "0.93",
		"themes":          "usability",
		"keywords":        "fast,simple",
		"source":          "App Store",
	}))
	require.NoError(t, err)

	assert.Equal(t, "r1", rev.ID)
	assert.Equal(t, int64(1), rev.BankID)
	assert.Equal(t, "CBE", rev.BankName)
	assert.Equal(t, "Great app", rev.Text)
	require.NotNil(t, rev.Rating)
	assert.Equal(t, 5, *rev.Rating)
	require.NotNil(t, rev.Date)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), *rev.Date)
	require.NotNil(t, rev.SentimentLabel)
	assert.Equal(t, "positive", *rev.SentimentLabel)
	require.NotNil(t, rev.SentimentScore)
	assert.InDelta(t, 0.93, *rev.SentimentScore, 1e-9)
	require.NotNil(t, rev.Themes)
	assert.Equal(t, "usability", *rev.Themes)
	require.NotNil(t, rev.Keywords)
	assert.Equal(t, "fast,simple", *rev.Keywords)
	assert.Equal(t, "App Store", rev.Source)
}

func TestNormalizeAliases(t *testing.T) {
	n := NewNormalizer(newFakeResolver())

	rev, err := n.Normalize(context.Background(), raw(map[string]string{
		"reviewid":        "r2",
		"bank_name":       "BOA",
		"review_text":     "Crashes on login",
		"score":           "2",
		"review_date":     "2024-01-15",
		"sentiment_label": "negative",
		"theme":           "stability",
	}))
	require.NoError(t, err)

	assert.Equal(t, "r2", rev.ID)
	assert.Equal(t, "Crashes on login", rev.Text)
	require.NotNil(t, rev.Rating)
	assert.Equal(t, 2, *rev.Rating)
	require.NotNil(t, rev.Date)
	require.NotNil(t, rev.SentimentLabel)
	assert.Equal(t, "negative", *rev.SentimentLabel)
	require.NotNil(t, rev.Themes)
	assert.Equal(t, "stability", *rev.Themes)
}

func TestNormalizeRejectsEmptyText(t *testing.T) {
	n := NewNormalizer(newFakeResolver())

	_, err := n.Normalize(context.Background(), raw(map[string]string{
		"bank":   "CBE",
		"review": "   ",
		"rating": "3",
	}))
	require.Error(t, err)
	assert.True(t, rverrors.IsRejected(err))
}

func TestNormalizeRejectsMissingBank(t *testing.T) {
	n := NewNormalizer(newFakeResolver())

	_, err := n.Normalize(context.Background(), raw(map[string]string{
		"review": "Decent app",
	}))
	require.Error(t, err)
	assert.True(t, rverrors.IsRejected(err))
}

func TestNormalizeRejectionCreatesNoBank(t *testing.T) {
	resolver := newFakeResolver()
	n := NewNormalizer(resolver)

	_, err := n.Normalize(context.Background(), raw(map[string]string{
		"bank":   "CBE",
		"review": "",
	}))
	require.Error(t, err)
	assert.Empty(t, resolver.ids, "rejected record must not touch the dimension table")
}

func TestNormalizeBadFieldsDegradeToAbsent(t *testing.T) {
	n := NewNormalizer(newFakeResolver())

	rev, err := n.Normalize(context.Background(), raw(map[string]string{
		"bank":            "CBE",
		"review":          "ok",
		"rating":          "11",
		"date":            "not a date",
		"sentiment_score": "very positive",
	}))
	require.NoError(t, err)

	assert.Nil(t, rev.Rating)
	assert.Nil(t, rev.Date)
	assert.Nil(t, rev.SentimentScore)
}

func TestNormalizeDerivedIdentity(t *testing.T) {
	n := NewNormalizer(newFakeResolver())

	first, err := n.Normalize(context.Background(), raw(map[string]string{
		"bank":   "CBE",
		"review": "Great app",
	}))
	require.NoError(t, err)

	again, err := n.Normalize(context.Background(), raw(map[string]string{
		"bank":   "CBE",
		"review": "Great app",
	}))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "same content must derive the same identity")

	other, err := n.Normalize(context.Background(), raw(map[string]string{
		"bank":   "CBE",
		"review": "Different text",
	}))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestNormalizeDefaults(t *testing.T) {
	n := NewNormalizer(newFakeResolver())

	rev, err := n.Normalize(context.Background(), raw(map[string]string{
		"bank":   "CBE",
		"review": "fine",
	}))
	require.NoError(t, err)

	assert.Equal(t, DefaultSource, rev.Source)
	assert.Nil(t, rev.SentimentLabel)
	assert.Nil(t, rev.Themes)
	assert.Nil(t, rev.Keywords)
}

func TestNormalizeSourceOption(t *testing.T) {
	n := NewNormalizer(newFakeResolver(), WithSource("Huawei AppGallery"))

	rev, err := n.Normalize(context.Background(), raw(map[string]string{
		"bank":   "CBE",
		"review": "fine",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Huawei AppGallery", rev.Source)
}

type staticIDs struct{}

func (staticIDs) DeriveID(bankID int64, _ string) string { return "static" }

func TestNormalizeIDStrategyOption(t *testing.T) {
	n := NewNormalizer(newFakeResolver(), WithIDStrategy(staticIDs{}))

	rev, err := n.Normalize(context.Background(), raw(map[string]string{
		"bank":   "CBE",
		"review": "fine",
	}))
	require.NoError(t, err)
	assert.Equal(t, "static", rev.ID)
}

func TestNormalizeRatingFloats(t *testing.T) {
	n := NewNormalizer(newFakeResolver())

	rev, err := n.Normalize(context.Background(), raw(map[string]string{
		"bank":   "CBE",
		"review": "fine",
		"rating": "4.0",
	}))
	require.NoError(t, err)
	require.NotNil(t, rev.Rating)
	assert.Equal(t, 4, *rev.Rating)
}
