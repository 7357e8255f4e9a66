package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestConfigStore_SetGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("sources.gmail.client_id", "abc"))
	require.NoError(t, store.Set("sources.gmail.max", 42))
	require.NoError(t, store.Set("sources.gmail.authenticated", true))

	assert.Equal(t, "abc", store.GetString("sources.gmail.client_id"))
	assert.Equal(t, 42, store.GetInt("sources.gmail.max"))
	assert.True(t, store.GetBool("sources.gmail.authenticated"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("missing"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_PersistsAcrossLoads(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("sources.gmail.email", "a@b.org"))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "a@b.org", reopened.GetString("sources.gmail.email"))
}

func TestConfigStore_Delete(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("key", "value"))

	require.NoError(t, store.Delete("key"))

	_, ok := store.Get("key")
	assert.False(t, ok)
}

func TestConfigStore_SetState(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("sources.gmail.token", "old"))
	require.NoError(t, store.Set("sources.gmail.label", "INBOX"))

	err := store.SetState("sources.gmail", map[string]any{
		"token":         nil,
		"authenticated": false,
		"email":         "a@b.org",
	})
	require.NoError(t, err)

	_, ok := store.Get("sources.gmail.token")
	assert.False(t, ok, "nil value deletes the key")
	assert.False(t, store.GetBool("sources.gmail.authenticated"))
	assert.Equal(t, "a@b.org", store.GetString("sources.gmail.email"))
	assert.Equal(t, "INBOX", store.GetString("sources.gmail.label"), "untouched keys survive")
}

func TestCheckpointStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	checkpoints := NewCheckpointStore(store, "sources.gmail")
	ctx := context.Background()

	_, err := checkpoints.Get(ctx, "gmail")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cp := domain.SyncCheckpoint{
		LastHistoryID: "9000",
		LastSyncDate:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		FirstSyncDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		NextPageToken: "tok",
	}
	require.NoError(t, checkpoints.Save(ctx, "gmail", cp))

	got, err := checkpoints.Get(ctx, "gmail")
	require.NoError(t, err)
	assert.Equal(t, cp.LastHistoryID, got.LastHistoryID)
	assert.True(t, cp.LastSyncDate.Equal(got.LastSyncDate))
	assert.True(t, cp.FirstSyncDate.Equal(got.FirstSyncDate))
	assert.Equal(t, cp.NextPageToken, got.NextPageToken)

	require.NoError(t, checkpoints.Delete(ctx, "gmail"))
	_, err = checkpoints.Get(ctx, "gmail")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
