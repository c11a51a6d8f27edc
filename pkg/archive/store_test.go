package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replicator/pkg/proto"
	"replicator/pkg/workflow"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreArchiveAndQuery(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	state := &workflow.State{Progress: []workflow.ProgressRecord{
		{StageID: "stage0", Status: proto.StatusCompletedSuccess, Summary: "3/3 targets matched"},
	}}

	require.NoError(t, store.ArchiveStage(ctx, state, "stage0"))
	require.NoError(t, store.ArchiveStage(ctx, state, "stage1")) // no progress record, archived as unknown
	require.NoError(t, store.ArchiveStage(ctx, state, "stage0")) // re-archive is fine

	ids, err := store.ArchivedStages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"stage0", "stage1"}, ids)
}

func TestStoreRejectsEmptyStageID(t *testing.T) {
	store := openTestStore(t)

	err := store.ArchiveStage(context.Background(), &workflow.State{}, "")
	assert.Error(t, err)
}

func TestStoreSessionsAreIsolated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.db")
	ctx := context.Background()

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.ArchiveStage(ctx, &workflow.State{}, "stage0"))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	assert.NotEqual(t, first.SessionID(), second.SessionID())
	ids, err := second.ArchivedStages(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
