// Package verify runs read-only aggregate queries after a load so operators
// can sanity-check the result. Verification is observational: a query that
// fails is reported as a warning and never fails the run.
package verify

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fintech-reviews/revload/pkg/logging"
)

// BankStats holds per-bank aggregates.
type BankStats struct {
	BankName      string   `json:"bank_name" yaml:"bank_name"`
	ReviewCount   int64    `json:"review_count" yaml:"review_count"`
	AverageRating *float64 `json:"average_rating,omitempty" yaml:"average_rating,omitempty"`
}

// SentimentCount holds one label's share of the corpus.
type SentimentCount struct {
	Label string `json:"label" yaml:"label"`
	Count int64  `json:"count" yaml:"count"`
}

// Report is the verification outcome.
type Report struct {
	TotalReviews int64            `json:"total_reviews" yaml:"total_reviews"`
	Banks        []BankStats      `json:"banks" yaml:"banks"`
	Sentiment    []SentimentCount `json:"sentiment" yaml:"sentiment"`

	// Warnings lists queries that could not be run.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Verifier runs the integrity queries.
type Verifier struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewVerifier creates a verifier on the given pool.
func NewVerifier(pool *pgxpool.Pool, logger logging.Logger) *Verifier {
	return &Verifier{
		pool:   pool,
		logger: logger.With(logging.F("component", "verifier")),
	}
}

// Run executes all verification queries. Individual query failures become
// warnings in the report; the returned error is always nil unless the pool
// is missing.
func (v *Verifier) Run(ctx context.Context) (*Report, error) {
	if v.pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}

	report := &Report{}

	if err := v.countBanks(ctx, report); err != nil {
		v.warn(report, "reviews per bank", err)
	}
	if err := v.countTotal(ctx, report); err != nil {
		v.warn(report, "total review count", err)
	}
	if err := v.countSentiment(ctx, report); err != nil {
		v.warn(report, "sentiment distribution", err)
	}

	return report, nil
}

func (v *Verifier) warn(report *Report, query string, err error) {
	v.logger.Warn("Verification query failed",
		logging.F("query", query),
		logging.Err(err))
	report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", query, err))
}

func (v *Verifier) countBanks(ctx context.Context, report *Report) error {
	rows, err := v.pool.Query(ctx, `
		SELECT b.bank_name, COUNT(r.review_id) AS review_count,
		       AVG(r.rating) AS avg_rating
		FROM banks b
		LEFT JOIN reviews r ON b.bank_id = r.bank_id
		GROUP BY b.bank_id, b.bank_name
		ORDER BY review_count DESC
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var stats BankStats
		if err := rows.Scan(&stats.BankName, &stats.ReviewCount, &stats.AverageRating); err != nil {
			return err
		}
		report.Banks = append(report.Banks, stats)
	}
	return rows.Err()
}

func (v *Verifier) countTotal(ctx context.Context, report *Report) error {
	return v.pool.QueryRow(ctx, "SELECT COUNT(*) FROM reviews").Scan(&report.TotalReviews)
}

func (v *Verifier) countSentiment(ctx context.Context, report *Report) error {
	rows, err := v.pool.Query(ctx, `
		SELECT sentiment_label, COUNT(*) AS count
		FROM reviews
		WHERE sentiment_label IS NOT NULL AND sentiment_label != ''
		GROUP BY sentiment_label
		ORDER BY count DESC
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sc SentimentCount
		if err := rows.Scan(&sc.Label, &sc.Count); err != nil {
			return err
		}
		report.Sentiment = append(report.Sentiment, sc)
	}
	return rows.Err()
}
