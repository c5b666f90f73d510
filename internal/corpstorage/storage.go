// Package corpstorage implements the Storage Layer (C8): a content-hashed
// act store fronted by a write-ahead log and a checkpoint manager, exposed
// through a single Backend interface so a memory backend and a Postgres
// backend are interchangeable to every other component.
package corpstorage

import (
	"context"
	"fmt"
	"time"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

// ErrorCode classifies a StorageError the way the backend registry's error
// classifier does, so callers can branch on failure class without string
// matching.
type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "not_found"
	ErrCodeAlreadyExists ErrorCode = "already_exists"
	ErrCodeConnection    ErrorCode = "connection_failed"
	ErrCodeIntegrity     ErrorCode = "integrity_violation"
)

// StorageError wraps a backend failure with a stable code.
type StorageError struct {
	Code    ErrorCode
	Op      string
	ActID   string
	Cause   error
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (act=%s): %v", e.Op, e.Code, e.ActID, e.Cause)
	}
	return fmt.Sprintf("%s: %s (act=%s)", e.Op, e.Code, e.ActID)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// WALEntryType distinguishes intent from complete entries (§4.8).
type WALEntryType string

const (
	WALIntent   WALEntryType = "intent"
	WALComplete WALEntryType = "complete"
)

// WALEntry is one write-ahead log record.
type WALEntry struct {
	EntryID     string
	SessionID   string
	ActID       string
	EntryType   WALEntryType
	Timestamp   time.Time
	ContentHash string // populated only on WALComplete
	Pruned      bool
}

// ExtractionReceipt is the durable, cross-session record mirroring a
// WALComplete entry (§4.8 contract 3).
type ExtractionReceipt struct {
	ActID       string
	SessionID   string
	ContentHash string
	Timestamp   time.Time
}

// Backend is the interface every storage implementation presents to the
// rest of the pipeline. It exclusively owns the queue, failed-extractions
// list, captured acts, manifest, and WAL, per §4's ownership rule.
type Backend interface {
	// Acts
	PutAct(ctx context.Context, act *domain.ActRecord) error
	GetAct(ctx context.Context, actID string) (*domain.ActRecord, error)
	ListActs(ctx context.Context) ([]*domain.ActRecord, error)
	ArchiveAct(ctx context.Context, actID string) error

	// Failed extractions
	PutFailedExtraction(ctx context.Context, f *domain.FailedExtraction) error
	GetFailedExtraction(ctx context.Context, actID string) (*domain.FailedExtraction, error)
	ListFailedExtractions(ctx context.Context) ([]*domain.FailedExtraction, error)
	RemoveFailedExtraction(ctx context.Context, actID string) error

	// Queue
	EnqueueItem(ctx context.Context, item *domain.QueueItem) error
	DequeueNextPending(ctx context.Context) (*domain.QueueItem, error)
	UpdateQueueItem(ctx context.Context, item *domain.QueueItem) error
	ListQueueItems(ctx context.Context) ([]*domain.QueueItem, error)

	// Write-ahead log
	WriteIntent(ctx context.Context, actID, sessionID string) error
	WriteComplete(ctx context.Context, actID, sessionID, contentHash string) error
	GetIncompleteExtractions(ctx context.Context, sessionID string) ([]string, error)
	ListReceipts(ctx context.Context) ([]ExtractionReceipt, error)

	// Checkpoint
	RecordPersistedCount(ctx context.Context, n int) (total int, err error)
	ResetCheckpointCounter(ctx context.Context)

	Close(ctx context.Context) error
}
