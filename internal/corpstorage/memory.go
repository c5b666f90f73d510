package corpstorage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

// MemoryBackend is the in-memory storage backend required for environments
// without a persistent structured store (§4.8). It is the default backend
// and the one exercised by the test suite.
type MemoryBackend struct {
	mu sync.RWMutex

	acts     map[string]*domain.ActRecord
	archived map[string][]*domain.ActRecord
	failed   map[string]*domain.FailedExtraction
	queue    []*domain.QueueItem
	wal      []WALEntry
	receipts []ExtractionReceipt

	persistedSinceCheckpoint int
}

// NewMemoryBackend constructs an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		acts:     make(map[string]*domain.ActRecord),
		archived: make(map[string][]*domain.ActRecord),
		failed:   make(map[string]*domain.FailedExtraction),
	}
}

func (m *MemoryBackend) PutAct(ctx context.Context, act *domain.ActRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *act
	m.acts[act.InternalID] = &cp
	return nil
}

func (m *MemoryBackend) GetAct(ctx context.Context, actID string) (*domain.ActRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	act, ok := m.acts[actID]
	if !ok {
		return nil, &StorageError{Code: ErrCodeNotFound, Op: "GetAct", ActID: actID}
	}
	cp := *act
	return &cp, nil
}

func (m *MemoryBackend) ListActs(ctx context.Context) ([]*domain.ActRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.ActRecord, 0, len(m.acts))
	for _, a := range m.acts {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InternalID < out[j].InternalID })
	return out, nil
}

// ArchiveAct moves the current version of actID into the archive and
// removes it from the live set, per the manifest engine's replace-existing
// rule (§4.9). Archived versions are never re-promoted automatically.
func (m *MemoryBackend) ArchiveAct(ctx context.Context, actID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	act, ok := m.acts[actID]
	if !ok {
		return &StorageError{Code: ErrCodeNotFound, Op: "ArchiveAct", ActID: actID}
	}
	cp := *act
	m.archived[actID] = append(m.archived[actID], &cp)
	delete(m.acts, actID)
	return nil
}

func (m *MemoryBackend) PutFailedExtraction(ctx context.Context, f *domain.FailedExtraction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.failed[f.InternalID] = &cp
	return nil
}

func (m *MemoryBackend) GetFailedExtraction(ctx context.Context, actID string) (*domain.FailedExtraction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.failed[actID]
	if !ok {
		return nil, &StorageError{Code: ErrCodeNotFound, Op: "GetFailedExtraction", ActID: actID}
	}
	cp := *f
	return &cp, nil
}

func (m *MemoryBackend) ListFailedExtractions(ctx context.Context) ([]*domain.FailedExtraction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.FailedExtraction, 0, len(m.failed))
	for _, f := range m.failed {
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InternalID < out[j].InternalID })
	return out, nil
}

func (m *MemoryBackend) RemoveFailedExtraction(ctx context.Context, actID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failed, actID)
	return nil
}

func (m *MemoryBackend) EnqueueItem(ctx context.Context, item *domain.QueueItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	cp := *item
	m.queue = append(m.queue, &cp)
	return nil
}

// DequeueNextPending returns the oldest pending item by added_at (FIFO,
// §5 ordering guarantee) without removing it from the queue; the caller
// transitions its status via UpdateQueueItem.
func (m *MemoryBackend) DequeueNextPending(ctx context.Context) (*domain.QueueItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *domain.QueueItem
	for _, item := range m.queue {
		if item.Status != domain.StatusPending {
			continue
		}
		if best == nil || item.AddedAt.Before(best.AddedAt) {
			best = item
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (m *MemoryBackend) UpdateQueueItem(ctx context.Context, item *domain.QueueItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.queue {
		if existing.ID == item.ID {
			cp := *item
			m.queue[i] = &cp
			return nil
		}
	}
	return &StorageError{Code: ErrCodeNotFound, Op: "UpdateQueueItem", ActID: item.ID}
}

func (m *MemoryBackend) ListQueueItems(ctx context.Context) ([]*domain.QueueItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.QueueItem, len(m.queue))
	for i, item := range m.queue {
		cp := *item
		out[i] = &cp
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}

func (m *MemoryBackend) WriteIntent(ctx context.Context, actID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wal = append(m.wal, WALEntry{
		EntryID:   uuid.NewString(),
		SessionID: sessionID,
		ActID:     actID,
		EntryType: WALIntent,
		Timestamp: time.Now(),
	})
	return nil
}

func (m *MemoryBackend) WriteComplete(ctx context.Context, actID, sessionID, contentHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.wal = append(m.wal, WALEntry{
		EntryID:     uuid.NewString(),
		SessionID:   sessionID,
		ActID:       actID,
		EntryType:   WALComplete,
		Timestamp:   now,
		ContentHash: contentHash,
	})
	m.receipts = append(m.receipts, ExtractionReceipt{
		ActID: actID, SessionID: sessionID, ContentHash: contentHash, Timestamp: now,
	})
	return nil
}

// GetIncompleteExtractions implements §4.8 contract 2: an act with an
// intent but no matching complete in the same session is incomplete.
func (m *MemoryBackend) GetIncompleteExtractions(ctx context.Context, sessionID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	intents := make(map[string]bool)
	completes := make(map[string]bool)
	for _, e := range m.wal {
		if e.SessionID != sessionID || e.Pruned {
			continue
		}
		switch e.EntryType {
		case WALIntent:
			intents[e.ActID] = true
		case WALComplete:
			completes[e.ActID] = true
		}
	}

	var incomplete []string
	for actID := range intents {
		if !completes[actID] {
			incomplete = append(incomplete, actID)
		}
	}
	sort.Strings(incomplete)
	return incomplete, nil
}

func (m *MemoryBackend) ListReceipts(ctx context.Context) ([]ExtractionReceipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ExtractionReceipt, len(m.receipts))
	copy(out, m.receipts)
	return out, nil
}

// RecordPersistedCount adds n to the checkpoint counter and returns the
// running total since the last reset; the checkpoint manager decides when
// to reset it after an export prompt.
func (m *MemoryBackend) RecordPersistedCount(ctx context.Context, n int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistedSinceCheckpoint += n
	return m.persistedSinceCheckpoint, nil
}

// ResetCheckpointCounter zeroes the persisted-since-checkpoint counter
// after the checkpoint manager has prompted for export.
func (m *MemoryBackend) ResetCheckpointCounter(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistedSinceCheckpoint = 0
}

func (m *MemoryBackend) Close(ctx context.Context) error { return nil }
