// Package schema manages the normalized review schema: the banks dimension
// table, the reviews fact table, their indexes, and the reporting view. All
// DDL is idempotent so EnsureSchema can run before every load.
package schema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	rverrors "github.com/fintech-reviews/revload/pkg/errors"
)

// DDL statements in dependency order. Each uses IF NOT EXISTS (or
// CREATE OR REPLACE for the view) so re-running is a no-op.
var statements = []struct {
	Name string
	SQL  string
}{
	{
		Name: "banks table",
		SQL: `
			CREATE TABLE IF NOT EXISTS banks (
				bank_id SERIAL PRIMARY KEY,
				bank_name VARCHAR(255) NOT NULL UNIQUE,
				app_name VARCHAR(255)
			)
		`,
	},
	{
		Name: "reviews table",
		SQL: `
			CREATE TABLE IF NOT EXISTS reviews (
				review_id VARCHAR(255) PRIMARY KEY,
				bank_id INTEGER NOT NULL REFERENCES banks(bank_id) ON DELETE CASCADE,
				review_text TEXT,
				rating INTEGER CHECK (rating >= 1 AND rating <= 5),
				review_date DATE,
				sentiment_label VARCHAR(50),
				sentiment_score FLOAT,
				source VARCHAR(100) DEFAULT 'Google Play Store',
				themes TEXT,
				keywords TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)
		`,
	},
	{
		Name: "bank_id index",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_reviews_bank_id ON reviews(bank_id)`,
	},
	{
		Name: "rating index",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_reviews_rating ON reviews(rating)`,
	},
	{
		Name: "sentiment_label index",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_reviews_sentiment_label ON reviews(sentiment_label)`,
	},
	{
		Name: "review_date index",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_reviews_review_date ON reviews(review_date)`,
	},
	{
		Name: "review_statistics view",
		SQL: `
			CREATE OR REPLACE VIEW review_statistics AS
			SELECT
				b.bank_name,
				COUNT(r.review_id) AS total_reviews,
				AVG(r.rating) AS average_rating,
				COUNT(CASE WHEN r.sentiment_label = 'positive' THEN 1 END) AS positive_count,
				COUNT(CASE WHEN r.sentiment_label = 'negative' THEN 1 END) AS negative_count,
				COUNT(CASE WHEN r.sentiment_label = 'neutral' THEN 1 END) AS neutral_count
			FROM banks b
			LEFT JOIN reviews r ON b.bank_id = r.bank_id
			GROUP BY b.bank_id, b.bank_name
		`,
	},
}

// EnsureSchema creates every schema object that does not already exist.
// A failure on any statement aborts immediately with a fatal schema error.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return rverrors.NewLoadError(rverrors.ErrSchemaFailure, "schema", fmt.Errorf("pool is nil"))
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt.SQL); err != nil {
			return rverrors.NewLoadError(rverrors.ErrSchemaFailure, "schema",
				fmt.Errorf("create %s: %w", stmt.Name, err))
		}
	}

	return nil
}

// ObjectStatus reports whether a single schema object exists.
type ObjectStatus struct {
	Name   string
	Kind   string // "table", "index", or "view"
	Exists bool
}

// Status describes which schema objects are present in the database.
type Status struct {
	Objects []ObjectStatus
}

// Complete reports whether every expected object exists.
func (s *Status) Complete() bool {
	for _, o := range s.Objects {
		if !o.Exists {
			return false
		}
	}
	return len(s.Objects) > 0
}

var expectedObjects = []struct {
	Name string
	Kind string
}{
	{"banks", "table"},
	{"reviews", "table"},
	{"idx_reviews_bank_id", "index"},
	{"idx_reviews_rating", "index"},
	{"idx_reviews_sentiment_label", "index"},
	{"idx_reviews_review_date", "index"},
	{"review_statistics", "view"},
}

// CheckStatus queries the catalog for each expected schema object.
func CheckStatus(ctx context.Context, pool *pgxpool.Pool) (*Status, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}

	status := &Status{}
	for _, obj := range expectedObjects {
		var exists bool
		err := pool.QueryRow(ctx,
			"SELECT to_regclass($1) IS NOT NULL", obj.Name,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", obj.Name, err)
		}
		status.Objects = append(status.Objects, ObjectStatus{
			Name:   obj.Name,
			Kind:   obj.Kind,
			Exists: exists,
		})
	}

	return status, nil
}
