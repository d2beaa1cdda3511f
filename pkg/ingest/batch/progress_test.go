package batch

import (
	"testing"
	"time"
)

func TestProgressCounts(t *testing.T) {
	p := NewProgress(10)
	p.Start(2)

	p.RecordInserted(3)
	p.RecordUpdated(2)
	p.RecordSkipped()
	p.RecordRejected()

	snap := p.Snapshot()
	if snap.InsertedCount != 3 {
		t.Errorf("expected 3 inserted, got %d", snap.InsertedCount)
	}
	if snap.UpdatedCount != 2 {
		t.Errorf("expected 2 updated, got %d", snap.UpdatedCount)
	}
	if snap.SkippedCount != 1 {
		t.Errorf("expected 1 skipped, got %d", snap.SkippedCount)
	}
	if snap.RejectedCount != 1 {
		t.Errorf("expected 1 rejected, got %d", snap.RejectedCount)
	}
	if snap.LoadedCount != 5 {
		t.Errorf("loaded should count inserted+updated, got %d", snap.LoadedCount)
	}
	if snap.Status != "running" {
		t.Errorf("expected running, got %s", snap.Status)
	}
}

func TestProgressComplete(t *testing.T) {
	p := NewProgress(1)
	p.Start(1)
	p.Complete(true)
	if p.Snapshot().Status != "completed" {
		t.Errorf("expected completed, got %s", p.Snapshot().Status)
	}

	q := NewProgress(1)
	q.Start(1)
	q.Complete(false)
	if q.Snapshot().Status != "failed" {
		t.Errorf("expected failed, got %s", q.Snapshot().Status)
	}
}

func TestProgressOnUpdateCallback(t *testing.T) {
	p := NewProgress(5)

	calls := make(chan *Progress, 8)
	p.SetOnUpdate(func(snap *Progress) { calls <- snap })

	p.Start(1)
	p.RecordInserted(1)
	p.Complete(true)

	for i := 0; i < 3; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected 3 callbacks, got %d", i)
		}
	}
}

// The callback must receive a copy, never the live tracker under its lock,
// so a callback is free to read the tracker's own API.
func TestProgressCallbackCanReadTracker(t *testing.T) {
	p := NewProgress(1)

	snaps := make(chan Progress, 1)
	p.SetOnUpdate(func(*Progress) { snaps <- p.Snapshot() })

	done := make(chan struct{})
	go func() {
		p.Start(1)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start blocked while the callback read the tracker")
	}

	select {
	case snap := <-snaps:
		if snap.Status != "running" {
			t.Errorf("expected running, got %s", snap.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never ran")
	}
}
