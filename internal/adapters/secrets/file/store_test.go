package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	testCases := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "empty", key: "", wantErr: "store key is empty"},
		{name: "whitespace", key: "   ", wantErr: "store key is empty"},
		{name: "absolute", key: "/absolute/path", wantErr: "invalid store key"},
		{name: "traversal", key: "../escape", wantErr: "invalid store key"},
		{name: "deep traversal", key: "../../secret", wantErr: "invalid store key"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Put(context.Background(), tc.key, "value")
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStorePutGetRoundTripAndPermissions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, store.Put(context.Background(), "@token", "signed.jwt.value"))

	got, err := store.Get(context.Background(), "@token")
	require.NoError(t, err)
	assert.Equal(t, "signed.jwt.value", got)

	info, err := os.Stat(filepath.Join(root, "@token"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(valueFileMod), info.Mode().Perm())
}

func TestStorePutOverwritesPreviousValue(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	require.NoError(t, store.Put(context.Background(), "@token", "first"))
	require.NoError(t, store.Put(context.Background(), "@token", "second"))

	got, err := store.Get(context.Background(), "@token")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestStoreGetMissingKeyWrapsNotFound(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	_, err := store.Get(context.Background(), "@token")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestStoreDeleteIsIdempotentWhenValueMissing(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	require.NoError(t, store.Delete(context.Background(), "@user"))
	require.NoError(t, store.Delete(context.Background(), "@user"))
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "@token")
	assert.ErrorIs(t, err, context.Canceled)
}
