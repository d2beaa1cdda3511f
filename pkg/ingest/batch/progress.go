// Package batch provides chunked loading of normalized reviews.
package batch

import (
	"sync"
	"time"
)

// Progress tracks the progress of a load run.
type Progress struct {
	mu sync.RWMutex

	// Counts
	TotalRecords  int
	LoadedCount   int
	InsertedCount int
	UpdatedCount  int
	SkippedCount  int
	RejectedCount int

	// Current state
	CurrentChunk int
	TotalChunks  int
	Status       string

	// Timing
	StartedAt time.Time
	UpdatedAt time.Time

	// Callbacks
	onUpdate func(*Progress)
}

// NewProgress creates a new progress tracker.
func NewProgress(totalRecords int) *Progress {
	return &Progress{
		TotalRecords: totalRecords,
		Status:       "pending",
		StartedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// SetOnUpdate sets a callback function called on each update.
func (p *Progress) SetOnUpdate(fn func(*Progress)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUpdate = fn
}

// Start marks the progress as started.
func (p *Progress) Start(totalChunks int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = "running"
	p.TotalChunks = totalChunks
	p.StartedAt = time.Now()
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// SetCurrentChunk updates the chunk being loaded.
func (p *Progress) SetCurrentChunk(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CurrentChunk = index
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// RecordInserted adds freshly inserted rows to the counts.
func (p *Progress) RecordInserted(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.InsertedCount += n
	p.LoadedCount += n
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// RecordUpdated adds updated rows to the counts.
func (p *Progress) RecordUpdated(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.UpdatedCount += n
	p.LoadedCount += n
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// RecordSkipped counts a record that failed its single-record retry.
func (p *Progress) RecordSkipped() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SkippedCount++
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// RecordRejected counts a record dropped during normalization.
func (p *Progress) RecordRejected() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RejectedCount++
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// Complete marks the run as finished.
func (p *Progress) Complete(success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if success {
		p.Status = "completed"
	} else {
		p.Status = "failed"
	}
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// Snapshot returns a copy of the current counts.
func (p *Progress) Snapshot() Progress {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Progress{
		TotalRecords:  p.TotalRecords,
		LoadedCount:   p.LoadedCount,
		InsertedCount: p.InsertedCount,
		UpdatedCount:  p.UpdatedCount,
		SkippedCount:  p.SkippedCount,
		RejectedCount: p.RejectedCount,
		CurrentChunk:  p.CurrentChunk,
		TotalChunks:   p.TotalChunks,
		Status:        p.Status,
		StartedAt:     p.StartedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// Elapsed returns the time since the run started.
func (p *Progress) Elapsed() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return time.Since(p.StartedAt)
}

// notifyUpdate calls the update callback if set.
// Must be called with lock held.
func (p *Progress) notifyUpdate() {
	if p.onUpdate != nil {
		// Make a copy to avoid holding lock during callback
		snapshot := &Progress{
			TotalRecords:  p.TotalRecords,
			LoadedCount:   p.LoadedCount,
			InsertedCount: p.InsertedCount,
			UpdatedCount:  p.UpdatedCount,
			SkippedCount:  p.SkippedCount,
			RejectedCount: p.RejectedCount,
			CurrentChunk:  p.CurrentChunk,
			TotalChunks:   p.TotalChunks,
			Status:        p.Status,
			StartedAt:     p.StartedAt,
			UpdatedAt:     p.UpdatedAt,
		}
		go p.onUpdate(snapshot)
	}
}
