package purge

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeTest は両ストア実装に共通の往復試験
func storeTest(t *testing.T, store Store) {
	t.Helper()

	now := time.Now().Truncate(time.Millisecond)
	summary := &Summary{
		RequestID:          "req-1",
		TenantID:           "tenant-1",
		Provider:           ProviderCloudFront,
		State:              StatePartialFailure,
		TotalBatches:       2,
		SucceededBatches:   1,
		FailedBatches:      1,
		ProviderReferences: []string{"INV1"},
		CreatedAt:          now,
		CompletedAt:        now.Add(time.Second),
	}
	require.NoError(t, store.SaveSummary(summary))

	loaded, err := store.GetSummary("req-1")
	require.NoError(t, err)
	assert.Equal(t, summary.State, loaded.State)
	assert.Equal(t, summary.ProviderReferences, loaded.ProviderReferences)

	_, err = store.GetSummary("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// バッチ結果はバッチ番号順で返る
	require.NoError(t, store.SaveResult(&Result{RequestID: "req-1", BatchIndex: 1, Status: StatusFailed, ErrorKind: KindProvider, AttemptCount: 1, Timestamp: now}))
	require.NoError(t, store.SaveResult(&Result{RequestID: "req-1", BatchIndex: 0, Status: StatusSucceeded, ProviderReference: "INV1", AttemptCount: 2, Timestamp: now}))

	results, err := store.ListResults("req-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].BatchIndex)
	assert.Equal(t, 1, results[1].BatchIndex)
	assert.Equal(t, StatusSucceeded, results[0].Status)

	// 一覧は新しい順
	require.NoError(t, store.SaveSummary(&Summary{RequestID: "req-2", State: StateSucceeded, CreatedAt: now.Add(time.Minute)}))
	summaries, err := store.ListSummaries(0)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "req-2", summaries[0].RequestID)

	summaries, err = store.ListSummaries(1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	// 冪等性レジストリ
	ref, ok, err := store.WasSubmitted("caller-1", 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, ref)

	require.NoError(t, store.MarkSubmitted("caller-1", 0, "INV1"))
	ref, ok, err = store.WasSubmitted("caller-1", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "INV1", ref)

	// 別のバッチ番号は未送信扱い
	_, ok, err = store.WasSubmitted("caller-1", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	storeTest(t, store)
}

func TestLevelDBStore(t *testing.T) {
	store, err := OpenLevelDBStore(filepath.Join(t.TempDir(), "results"))
	require.NoError(t, err)
	defer store.Close()
	storeTest(t, store)
}
