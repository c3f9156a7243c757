package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	runID, err := store.BeginRun(ctx, "lofi beats", "audio")
	require.NoError(t, err)
	assert.NotZero(t, runID)

	require.NoError(t, store.RecordDownload(ctx, runID, "https://youtu.be/a", true, ""))
	require.NoError(t, store.RecordDownload(ctx, runID, "https://youtu.be/b", false, "tool reported failure"))
	require.NoError(t, store.FinishRun(ctx, runID, 1, 1))

	count, err := store.CountForQuery(ctx, "lofi beats")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCountForQuerySpansRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		runID, err := store.BeginRun(ctx, "jazz", "video")
		require.NoError(t, err)
		require.NoError(t, store.RecordDownload(ctx, runID, "https://youtu.be/a", true, ""))
	}

	count, err := store.CountForQuery(ctx, "jazz")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	other, err := store.CountForQuery(ctx, "metal")
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestCloseIsNilSafe(t *testing.T) {
	var store *Store
	assert.NoError(t, store.Close())
}
