package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
)

func TestFileTokenStore_RoundTrip(t *testing.T) {
	store, err := NewFileTokenStore(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testToken("a@b.org")))

	got, err := store.Get(ctx, "a@b.org")
	require.NoError(t, err)
	assert.Equal(t, "at", got.AccessToken)
	assert.Equal(t, "rt", got.RefreshToken)
	assert.Equal(t, "a@b.org", got.Email)
}

func TestFileTokenStore_GetMissing(t *testing.T) {
	store, err := NewFileTokenStore(t.TempDir(), "")
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "nobody@b.org")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileTokenStore_Delete(t *testing.T) {
	store, err := NewFileTokenStore(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testToken("a@b.org")))

	require.NoError(t, store.Delete(ctx, "a@b.org"))

	_, err = store.Get(ctx, "a@b.org")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "a@b.org"), "deleting an absent token is not an error")
}

func TestFileTokenStore_Encrypted(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileTokenStore(dir, "passphrase")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testToken("a@b.org")))

	// The on-disk payload must not expose the token.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	raw, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "access_token")
	assert.NotContains(t, string(raw), "a@b.org")

	got, err := store.Get(ctx, "a@b.org")
	require.NoError(t, err)
	assert.Equal(t, "at", got.AccessToken)
}

func TestFileTokenStore_WrongKeyFails(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileTokenStore(dir, "passphrase")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testToken("a@b.org")))

	other, err := NewFileTokenStore(dir, "wrong")
	require.NoError(t, err)

	_, err = other.Get(ctx, "a@b.org")
	assert.Error(t, err)
}
