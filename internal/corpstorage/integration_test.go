package corpstorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

// TestStorageManagerSessionRecoveryEndToEnd exercises the WAL intent/
// complete lifecycle together with the checkpoint manager the way a real
// crash-and-resume run would: a completed act, a crashed (intent-only)
// act from the same session, and a checkpoint threshold crossing.
func TestStorageManagerSessionRecoveryEndToEnd(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()
	sessionID := "session-1"

	require.NoError(t, backend.WriteIntent(ctx, "act-done", sessionID))
	require.NoError(t, backend.PutAct(ctx, &domain.ActRecord{InternalID: "act-done", ContentRawSHA256: "abc123"}))
	require.NoError(t, backend.WriteComplete(ctx, "act-done", sessionID, "abc123"))

	require.NoError(t, backend.WriteIntent(ctx, "act-crashed", sessionID))

	incomplete, err := backend.GetIncompleteExtractions(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"act-crashed"}, incomplete)

	cm := NewCheckpointManager(backend, 10)
	require.Equal(t, 10, cm.Threshold())

	shouldExport, total, err := cm.RecordPersisted(ctx, 6)
	require.NoError(t, err)
	assert.False(t, shouldExport)
	assert.Equal(t, 6, total)

	shouldExport, total, err = cm.RecordPersisted(ctx, 4)
	require.NoError(t, err)
	assert.True(t, shouldExport)
	assert.Equal(t, 10, total)

	cm.Reset(ctx)
	_, total, err = cm.RecordPersisted(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, total, "counter should restart from zero after Reset")
}
