package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	rverrors "github.com/fintech-reviews/revload/pkg/errors"
	"github.com/fintech-reviews/revload/pkg/ingest/events"
	"github.com/fintech-reviews/revload/pkg/ingest/normalize"
	"github.com/fintech-reviews/revload/pkg/ingest/source"
	"github.com/fintech-reviews/revload/pkg/logging"
)

// DefaultChunkSize is the number of records per bulk upsert statement.
const DefaultChunkSize = 500

// Store writes normalized reviews to the database.
type Store interface {
	// UpsertChunk writes a chunk in one transaction, returning insert and
	// update counts. On error nothing from the chunk is persisted.
	UpsertChunk(ctx context.Context, reviews []*normalize.Review) (inserted, updated int, err error)

	// UpsertOne writes a single review in auto-commit mode. It reports
	// whether the row was inserted rather than updated.
	UpsertOne(ctx context.Context, review *normalize.Review) (bool, error)
}

// RecordNormalizer converts a raw row into a Review.
type RecordNormalizer interface {
	Normalize(ctx context.Context, raw source.RawRecord) (*normalize.Review, error)
}

// LoaderConfig configures a load run.
type LoaderConfig struct {
	// ChunkSize is the number of records per bulk statement.
	ChunkSize int

	// File is the input path, carried into events for traceability.
	File string

	// DryRun normalizes and chunks without writing to the database.
	DryRun bool
}

// Result summarizes a load run.
type Result struct {
	JobID        string
	File         string
	TotalRecords int

	Inserted int
	Updated  int
	Skipped  int
	Rejected int

	// SkippedIDs lists records that failed their single-record retry.
	SkippedIDs []string

	CommittedChunks int
	FallbackChunks  int

	StartedAt   time.Time
	CompletedAt time.Time
	Success     bool
	DryRun      bool
}

// Loader runs the normalize-dedupe-chunk-upsert pipeline.
type Loader struct {
	cfg       LoaderConfig
	norm      RecordNormalizer
	store     Store
	publisher *events.Publisher
	metrics   *Metrics
	logger    logging.Logger

	progress *Progress
}

// NewLoader creates a loader. The publisher and metrics may be nil.
func NewLoader(
	norm RecordNormalizer,
	store Store,
	publisher *events.Publisher,
	metrics *Metrics,
	logger logging.Logger,
	cfg LoaderConfig,
) *Loader {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &Loader{
		cfg:       cfg,
		norm:      norm,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.With(logging.F("component", "batch_loader")),
	}
}

// Progress returns the tracker for the current run, or nil before Load.
func (l *Loader) Progress() *Progress {
	return l.progress
}

// Load normalizes raw records and upserts them in chunks. Recoverable
// failures (rejected records, poison records, chunk fallbacks) are absorbed
// and counted; the returned error is non-nil only for fatal failures, and
// the partial Result is still returned alongside it.
func (l *Loader) Load(ctx context.Context, raw []source.RawRecord) (*Result, error) {
	jobID := uuid.New().String()
	progress := NewProgress(len(raw))
	l.progress = progress

	result := &Result{
		JobID:        jobID,
		File:         l.cfg.File,
		TotalRecords: len(raw),
		StartedAt:    progress.StartedAt,
		DryRun:       l.cfg.DryRun,
	}

	l.logger.Info("Load started",
		logging.F("job_id", jobID),
		logging.F("file", l.cfg.File),
		logging.F("records", len(raw)),
		logging.F("chunk_size", l.cfg.ChunkSize),
		logging.F("dry_run", l.cfg.DryRun))

	reviews, err := l.normalizeAll(ctx, raw, progress)
	if err != nil {
		l.finish(ctx, result, progress, false)
		return result, err
	}

	deduped := dedupeLastWins(reviews)
	if dropped := len(reviews) - len(deduped); dropped > 0 {
		l.logger.Info("Collapsed duplicate identities",
			logging.F("job_id", jobID),
			logging.F("dropped", dropped))
	}

	chunks := splitChunks(deduped, l.cfg.ChunkSize)
	progress.Start(len(chunks))

	if l.cfg.DryRun {
		l.logger.Info("Dry run, skipping database writes",
			logging.F("job_id", jobID),
			logging.F("records", len(deduped)),
			logging.F("chunks", len(chunks)))
		l.finish(ctx, result, progress, true)
		return result, nil
	}

	for _, chunk := range chunks {
		if err := l.loadChunk(ctx, chunk, progress, result); err != nil {
			l.finish(ctx, result, progress, false)
			return result, err
		}
		l.publishProgress(ctx, jobID, chunk, progress)
	}

	l.finish(ctx, result, progress, true)
	return result, nil
}

// normalizeAll maps raw rows to reviews, absorbing rejections.
func (l *Loader) normalizeAll(ctx context.Context, raw []source.RawRecord, progress *Progress) ([]*normalize.Review, error) {
	reviews := make([]*normalize.Review, 0, len(raw))
	for _, r := range raw {
		rev, err := l.norm.Normalize(ctx, r)
		if err != nil {
			if rverrors.IsRejected(err) {
				progress.RecordRejected()
				l.metrics.addRecords("rejected", 1)
				l.logger.Warn("Record rejected", logging.Err(err))
				continue
			}
			// Any resolver failure aborts: without a bank id the rest of
			// the file cannot reference the dimension. Classify honestly;
			// a statement error comes from a server that is still up.
			var loadErr *rverrors.LoadError
			if errors.As(err, &loadErr) {
				return nil, err
			}
			code := rverrors.ErrBankResolveFailed
			if rverrors.IsConnectionFailure(err) {
				code = rverrors.ErrConnectionFailure
			}
			return nil, rverrors.NewLoadError(code, "normalize", err)
		}
		reviews = append(reviews, rev)
	}
	return reviews, nil
}

// loadChunk runs the two-tier upsert for one chunk. Bulk first; on a
// statement failure the chunk is rolled back and replayed record by record
// so one poison record cannot sink its whole chunk.
func (l *Loader) loadChunk(ctx context.Context, chunk *Chunk, progress *Progress, result *Result) error {
	progress.SetCurrentChunk(chunk.Index)
	chunk.State = ChunkBulkAttempted

	inserted, updated, err := l.store.UpsertChunk(ctx, chunk.Records)
	if err == nil {
		chunk.State = ChunkCommitted
		progress.RecordInserted(inserted)
		progress.RecordUpdated(updated)
		l.metrics.addRecords("inserted", inserted)
		l.metrics.addRecords("updated", updated)
		l.metrics.addChunk(ChunkCommitted)
		result.CommittedChunks++
		return nil
	}

	if rverrors.IsConnectionFailure(err) {
		return rverrors.NewLoadError(rverrors.ErrConnectionFailure, "upsert",
			fmt.Errorf("chunk %d: %w", chunk.Index, err))
	}

	l.logger.Warn("Chunk upsert failed, retrying record by record",
		logging.F("chunk", chunk.Index),
		logging.F("records", len(chunk.Records)),
		logging.Err(err))

	chunk.State = ChunkFallbackPerRecord
	l.metrics.addChunk(ChunkFallbackPerRecord)
	result.FallbackChunks++

	for _, rev := range chunk.Records {
		freshInsert, err := l.store.UpsertOne(ctx, rev)
		if err != nil {
			if rverrors.IsConnectionFailure(err) {
				return rverrors.NewLoadError(rverrors.ErrConnectionFailure, "upsert",
					fmt.Errorf("record %s: %w", rev.ID, err))
			}
			progress.RecordSkipped()
			l.metrics.addRecords("skipped", 1)
			result.SkippedIDs = append(result.SkippedIDs, rev.ID)
			l.logger.Warn("Record skipped",
				logging.F("record_id", rev.ID),
				logging.F("bank", rev.BankName),
				logging.Err(err))
			continue
		}
		if freshInsert {
			progress.RecordInserted(1)
			l.metrics.addRecords("inserted", 1)
		} else {
			progress.RecordUpdated(1)
			l.metrics.addRecords("updated", 1)
		}
	}

	return nil
}

// finish copies final counts into the result and publishes completion.
func (l *Loader) finish(ctx context.Context, result *Result, progress *Progress, success bool) {
	progress.Complete(success)
	snap := progress.Snapshot()

	result.Inserted = snap.InsertedCount
	result.Updated = snap.UpdatedCount
	result.Skipped = snap.SkippedCount
	result.Rejected = snap.RejectedCount
	result.CompletedAt = time.Now()
	result.Success = success

	l.logger.Info("Load finished",
		logging.F("job_id", result.JobID),
		logging.F("inserted", result.Inserted),
		logging.F("updated", result.Updated),
		logging.F("skipped", result.Skipped),
		logging.F("rejected", result.Rejected),
		logging.F("success", success))

	if err := l.publisher.PublishJobCompleted(ctx, events.JobCompletedParams{
		JobID:         result.JobID,
		File:          result.File,
		TotalRecords:  result.TotalRecords,
		InsertedCount: result.Inserted,
		UpdatedCount:  result.Updated,
		SkippedCount:  result.Skipped,
		RejectedCount: result.Rejected,
		StartedAt:     result.StartedAt,
		CompletedAt:   result.CompletedAt,
		Success:       success,
	}); err != nil {
		l.logger.Warn("Failed to publish completion event", logging.Err(err))
	}
}

// publishProgress emits a best-effort progress event after a chunk.
func (l *Loader) publishProgress(ctx context.Context, jobID string, chunk *Chunk, progress *Progress) {
	snap := progress.Snapshot()
	if err := l.publisher.PublishJobProgress(ctx, events.JobProgressParams{
		JobID:          jobID,
		File:           l.cfg.File,
		TotalRecords:   snap.TotalRecords,
		LoadedCount:    snap.LoadedCount,
		InsertedCount:  snap.InsertedCount,
		UpdatedCount:   snap.UpdatedCount,
		SkippedCount:   snap.SkippedCount,
		RejectedCount:  snap.RejectedCount,
		ChunkIndex:     chunk.Index,
		TotalChunks:    snap.TotalChunks,
		ElapsedSeconds: progress.Elapsed().Seconds(),
		Status:         snap.Status,
	}); err != nil {
		l.logger.Warn("Failed to publish progress event", logging.Err(err))
	}
}
