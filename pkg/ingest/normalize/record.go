// Package normalize maps raw tabular review records onto the canonical
// schema fields, coercing types and deriving a stable identity when the
// upstream stage did not supply one.
package normalize

import "time"

// Review is a fully normalized review record ready for upsert.
//
// Identity fields (ID, BankID, Text, Rating, Date) are written once at first
// insert. Enrichment fields (SentimentLabel, SentimentScore, Themes,
// Keywords) are refreshed on every subsequent load of the same ID.
type Review struct {
	ID             string
	BankID         int64
	BankName       string
	Text           string
	Rating         *int
	Date           *time.Time
	SentimentLabel *string
	SentimentScore *float64
	Source         string
	Themes         *string
	Keywords       *string
}
