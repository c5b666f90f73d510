package corpstorage

import (
	"context"
	"testing"
	"time"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

func TestPutGetAct(t *testing.T) {
	be := NewMemoryBackend()
	ctx := context.Background()

	act := &domain.ActRecord{InternalID: "act-1", ContentRaw: "raw text"}
	if err := be.PutAct(ctx, act); err != nil {
		t.Fatalf("PutAct: %v", err)
	}

	got, err := be.GetAct(ctx, "act-1")
	if err != nil {
		t.Fatalf("GetAct: %v", err)
	}
	if got.ContentRaw != "raw text" {
		t.Errorf("expected content_raw preserved, got %q", got.ContentRaw)
	}
}

func TestGetActNotFound(t *testing.T) {
	be := NewMemoryBackend()
	_, err := be.GetAct(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected not-found error")
	}
	serr, ok := err.(*StorageError)
	if !ok || serr.Code != ErrCodeNotFound {
		t.Errorf("expected StorageError with ErrCodeNotFound, got %v", err)
	}
}

func TestArchiveActRemovesFromLiveSet(t *testing.T) {
	be := NewMemoryBackend()
	ctx := context.Background()
	be.PutAct(ctx, &domain.ActRecord{InternalID: "act-1"})

	if err := be.ArchiveAct(ctx, "act-1"); err != nil {
		t.Fatalf("ArchiveAct: %v", err)
	}
	if _, err := be.GetAct(ctx, "act-1"); err == nil {
		t.Error("expected archived act to be absent from live set")
	}
}

func TestDequeueNextPendingIsFIFO(t *testing.T) {
	be := NewMemoryBackend()
	ctx := context.Background()

	now := time.Now()
	be.EnqueueItem(ctx, &domain.QueueItem{ID: "b", Status: domain.StatusPending, AddedAt: now.Add(2 * time.Second)})
	be.EnqueueItem(ctx, &domain.QueueItem{ID: "a", Status: domain.StatusPending, AddedAt: now})

	next, err := be.DequeueNextPending(ctx)
	if err != nil {
		t.Fatalf("DequeueNextPending: %v", err)
	}
	if next == nil || next.ID != "a" {
		t.Errorf("expected FIFO-earliest item 'a', got %+v", next)
	}
}

func TestWALIncompleteExtractionDetection(t *testing.T) {
	be := NewMemoryBackend()
	ctx := context.Background()

	be.WriteIntent(ctx, "act-1", "session-1")
	be.WriteIntent(ctx, "act-2", "session-1")
	be.WriteComplete(ctx, "act-1", "session-1", "deadbeef")

	incomplete, err := be.GetIncompleteExtractions(ctx, "session-1")
	if err != nil {
		t.Fatalf("GetIncompleteExtractions: %v", err)
	}
	if len(incomplete) != 1 || incomplete[0] != "act-2" {
		t.Errorf("expected only act-2 incomplete, got %v", incomplete)
	}
}

func TestWALCompleteWritesReceipt(t *testing.T) {
	be := NewMemoryBackend()
	ctx := context.Background()

	be.WriteIntent(ctx, "act-1", "session-1")
	be.WriteComplete(ctx, "act-1", "session-1", "deadbeef")

	receipts, err := be.ListReceipts(ctx)
	if err != nil {
		t.Fatalf("ListReceipts: %v", err)
	}
	if len(receipts) != 1 || receipts[0].ContentHash != "deadbeef" {
		t.Errorf("expected one receipt with matching hash, got %+v", receipts)
	}
}

func TestCheckpointManagerClampsAndSignals(t *testing.T) {
	be := NewMemoryBackend()
	ctx := context.Background()

	cm := NewCheckpointManager(be, 5) // below min, clamps to 10
	if cm.Threshold() != minCheckpointThreshold {
		t.Errorf("expected clamped threshold %d, got %d", minCheckpointThreshold, cm.Threshold())
	}

	shouldExport, total, err := cm.RecordPersisted(ctx, 9)
	if err != nil {
		t.Fatalf("RecordPersisted: %v", err)
	}
	if shouldExport || total != 9 {
		t.Errorf("expected not yet at threshold, got shouldExport=%v total=%d", shouldExport, total)
	}

	shouldExport, total, err = cm.RecordPersisted(ctx, 2)
	if err != nil {
		t.Fatalf("RecordPersisted: %v", err)
	}
	if !shouldExport || total != 11 {
		t.Errorf("expected threshold reached, got shouldExport=%v total=%d", shouldExport, total)
	}

	cm.Reset(ctx)
	_, total, _ = cm.RecordPersisted(ctx, 1)
	if total != 1 {
		t.Errorf("expected counter reset, got total=%d", total)
	}
}

func TestClampCheckpointThresholdDefaultsOnZero(t *testing.T) {
	if got := ClampCheckpointThreshold(0); got != defaultCheckpointThreshold {
		t.Errorf("expected default %d, got %d", defaultCheckpointThreshold, got)
	}
	if got := ClampCheckpointThreshold(9999); got != maxCheckpointThreshold {
		t.Errorf("expected clamp to max %d, got %d", maxCheckpointThreshold, got)
	}
}
