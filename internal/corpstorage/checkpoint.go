package corpstorage

import "context"

const (
	defaultCheckpointThreshold = 50
	minCheckpointThreshold     = 10
	maxCheckpointThreshold     = 200
)

// ClampCheckpointThreshold enforces the [10, 200] bound from §4.8,
// defaulting non-numeric or zero input to 50 rather than erroring.
func ClampCheckpointThreshold(threshold int) int {
	if threshold == 0 {
		return defaultCheckpointThreshold
	}
	if threshold < minCheckpointThreshold {
		return minCheckpointThreshold
	}
	if threshold > maxCheckpointThreshold {
		return maxCheckpointThreshold
	}
	return threshold
}

// CheckpointManager counts acts persisted since the last export prompt and
// signals when the configured threshold is reached (§4.8).
type CheckpointManager struct {
	backend   Backend
	threshold int
}

// NewCheckpointManager constructs a manager with a clamped threshold.
func NewCheckpointManager(backend Backend, threshold int) *CheckpointManager {
	return &CheckpointManager{backend: backend, threshold: ClampCheckpointThreshold(threshold)}
}

// RecordPersisted registers n newly persisted acts and reports whether the
// checkpoint threshold has now been reached; the caller is responsible for
// prompting export and calling Reset afterward.
func (c *CheckpointManager) RecordPersisted(ctx context.Context, n int) (shouldExport bool, total int, err error) {
	total, err = c.backend.RecordPersistedCount(ctx, n)
	if err != nil {
		return false, 0, err
	}
	return total >= c.threshold, total, nil
}

// Reset zeroes the counter after an export prompt has been handled.
func (c *CheckpointManager) Reset(ctx context.Context) {
	c.backend.ResetCheckpointCounter(ctx)
}

// Threshold returns the manager's effective (clamped) threshold.
func (c *CheckpointManager) Threshold() int {
	return c.threshold
}
