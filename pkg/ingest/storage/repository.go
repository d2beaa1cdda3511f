// Package storage provides database operations for review ingest.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fintech-reviews/revload/pkg/ingest/normalize"
	"github.com/fintech-reviews/revload/pkg/logging"
)

// upsertColumns is the column order used by both the bulk and the
// single-record statement.
var upsertColumns = []string{
	"review_id",
	"bank_id",
	"review_text",
	"rating",
	"review_date",
	"sentiment_label",
	"sentiment_score",
	"source",
	"themes",
	"keywords",
}

// onConflict updates only the enrichment fields. Identity fields keep their
// first-insert values so re-running a load after enrichment is safe.
const onConflict = `
	ON CONFLICT (review_id) DO UPDATE SET
		sentiment_label = EXCLUDED.sentiment_label,
		sentiment_score = EXCLUDED.sentiment_score,
		themes = EXCLUDED.themes,
		keywords = EXCLUDED.keywords
	RETURNING (xmax = 0)`

// Repository provides database operations for review ingest.
type Repository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewRepository creates a new review repository.
func NewRepository(pool *pgxpool.Pool, logger logging.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger.With(logging.F("component", "review_repository")),
	}
}

// UpsertChunk writes a chunk of reviews in one statement inside a single
// transaction. It returns how many rows were inserted and how many updated.
// On any failure the transaction is rolled back and nothing is written.
func (r *Repository) UpsertChunk(ctx context.Context, reviews []*normalize.Review) (inserted, updated int, err error) {
	if len(reviews) == 0 {
		return 0, 0, nil
	}

	query, args := buildUpsert(reviews)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return 0, 0, fmt.Errorf("chunk upsert failed: %w", err)
	}

	inserted, updated, err = countOutcomes(rows)
	if err != nil {
		return 0, 0, fmt.Errorf("chunk upsert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit chunk: %w", err)
	}

	r.logger.Debug("Chunk upserted",
		logging.F("records", len(reviews)),
		logging.F("inserted", inserted),
		logging.F("updated", updated))

	return inserted, updated, nil
}

// UpsertOne writes a single review in auto-commit mode. It reports whether
// the row was inserted (as opposed to updated).
func (r *Repository) UpsertOne(ctx context.Context, review *normalize.Review) (bool, error) {
	query, args := buildUpsert([]*normalize.Review{review})

	var freshInsert bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&freshInsert); err != nil {
		return false, fmt.Errorf("record upsert failed: %w", err)
	}
	return freshInsert, nil
}

// buildUpsert renders the multi-row insert-or-update statement and its
// positional arguments.
func buildUpsert(reviews []*normalize.Review) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO reviews (")
	sb.WriteString(strings.Join(upsertColumns, ", "))
	sb.WriteString(") VALUES ")

	args := make([]interface{}, 0, len(reviews)*len(upsertColumns))
	for i, rev := range reviews {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := range upsertColumns {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*len(upsertColumns)+j+1)
		}
		sb.WriteString(")")

		args = append(args,
			rev.ID,
			rev.BankID,
			rev.Text,
			rev.Rating,
			rev.Date,
			rev.SentimentLabel,
			rev.SentimentScore,
			rev.Source,
			rev.Themes,
			rev.Keywords,
		)
	}

	sb.WriteString(onConflict)
	return sb.String(), args
}

// countOutcomes consumes the RETURNING rows. Postgres reports xmax = 0 for
// rows created by this statement and non-zero for rows it updated.
func countOutcomes(rows pgx.Rows) (inserted, updated int, err error) {
	defer rows.Close()

	for rows.Next() {
		var freshInsert bool
		if err := rows.Scan(&freshInsert); err != nil {
			return 0, 0, err
		}
		if freshInsert {
			inserted++
		} else {
			updated++
		}
	}
	return inserted, updated, rows.Err()
}

// LookupBank returns the bank_id for name. pgx.ErrNoRows when the bank is
// not in the dimension yet.
func (r *Repository) LookupBank(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		"SELECT bank_id FROM banks WHERE bank_name = $1", name,
	).Scan(&id)
	return id, err
}

// InsertBank creates a dimension row and returns its id. Auto-commits, so
// the row survives any later chunk rollback.
func (r *Repository) InsertBank(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		"INSERT INTO banks (bank_name, app_name) VALUES ($1, $2) RETURNING bank_id",
		name, name,
	).Scan(&id)
	return id, err
}

// Pool exposes the underlying connection pool for health checks and the
// verifier's read-only queries.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}
