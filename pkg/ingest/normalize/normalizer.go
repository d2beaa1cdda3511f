package normalize

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	rverrors "github.com/fintech-reviews/revload/pkg/errors"
	"github.com/fintech-reviews/revload/pkg/ingest/source"
)

// DefaultSource labels records whose input carries no source column.
const DefaultSource = "Google Play Store"

// aliases maps each canonical field to the column names it may arrive
// under. Earlier names win when a row carries several.
var aliases = map[string][]string{
	"identity":        {"record_id", "reviewid"},
	"bank":            {"bank", "bank_name"},
	"text":            {"review", "review_text"},
	"rating":          {"rating", "score"},
	"date":            {"date", "review_date"},
	"sentiment_label": {"sentiment", "sentiment_label"},
	"sentiment_score": {"sentiment_score"},
	"themes":          {"themes", "theme"},
	"keywords":        {"keywords"},
	"source":          {"source"},
}

// dateLayouts are tried in order for best-effort date parsing.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"Jan 2, 2006",
}

// BankResolver maps a bank name to its stable dimension identity.
type BankResolver interface {
	Resolve(ctx context.Context, name string) (int64, error)
}

// Normalizer converts raw CSV rows into Review records.
type Normalizer struct {
	resolver BankResolver
	ids      IDStrategy
	source   string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithIDStrategy overrides the default content-fingerprint identity.
func WithIDStrategy(s IDStrategy) Option {
	return func(n *Normalizer) { n.ids = s }
}

// WithSource overrides the default source label for rows without one.
func WithSource(src string) Option {
	return func(n *Normalizer) {
		if src != "" {
			n.source = src
		}
	}
}

// NewNormalizer creates a Normalizer backed by the given bank resolver.
func NewNormalizer(resolver BankResolver, opts ...Option) *Normalizer {
	n := &Normalizer{
		resolver: resolver,
		ids:      ContentFingerprint{},
		source:   DefaultSource,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize maps a raw row to a Review. It returns an error wrapping
// ErrRejected when the row is missing its review text or bank name; every
// other malformed field degrades to absent.
func (n *Normalizer) Normalize(ctx context.Context, raw source.RawRecord) (*Review, error) {
	text := strings.TrimSpace(firstValue(raw, "text"))
	if text == "" {
		return nil, fmt.Errorf("line %d: empty review text: %w", raw.Line, rverrors.ErrRejected)
	}

	bankName := strings.TrimSpace(firstValue(raw, "bank"))
	if bankName == "" {
		return nil, fmt.Errorf("line %d: missing bank name: %w", raw.Line, rverrors.ErrRejected)
	}

	bankID, err := n.resolver.Resolve(ctx, bankName)
	if err != nil {
		return nil, fmt.Errorf("resolve bank %q: %w", bankName, err)
	}

	rev := &Review{
		BankID:   bankID,
		BankName: bankName,
		Text:     text,
		Rating:   parseRating(firstValue(raw, "rating")),
		Date:     parseDate(firstValue(raw, "date")),
		Source:   n.source,
	}

	if id := strings.TrimSpace(firstValue(raw, "identity")); id != "" {
		rev.ID = id
	} else {
		rev.ID = n.ids.DeriveID(bankID, text)
	}

	if src := strings.TrimSpace(firstValue(raw, "source")); src != "" {
		rev.Source = src
	}
	if label := strings.TrimSpace(firstValue(raw, "sentiment_label")); label != "" {
		rev.SentimentLabel = &label
	}
	if score := parseScore(firstValue(raw, "sentiment_score")); score != nil {
		rev.SentimentScore = score
	}
	if themes := strings.TrimSpace(firstValue(raw, "themes")); themes != "" {
		rev.Themes = &themes
	}
	if kw := strings.TrimSpace(firstValue(raw, "keywords")); kw != "" {
		rev.Keywords = &kw
	}

	return rev, nil
}

// firstValue returns the first non-empty value among the canonical field's
// aliases.
func firstValue(raw source.RawRecord, canonical string) string {
	for _, name := range aliases[canonical] {
		if v := raw.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// parseRating accepts integers (or integral floats, as some exports write
// "5.0") in [1,5]. Anything else is absent, not an error.
func parseRating(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var r int
	if v, err := strconv.Atoi(s); err == nil {
		r = v
	} else if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		r = int(f)
	} else {
		return nil
	}

	if r < 1 || r > 5 {
		return nil
	}
	return &r
}

// parseDate tries each known layout and gives up silently.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func parseScore(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
