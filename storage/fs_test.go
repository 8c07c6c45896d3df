package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_PutGetListDelete(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, store.Driver())
	ctx := context.Background()

	key := NewArchiveKey()
	info, err := store.Put(ctx, key, strings.NewReader("PK-data"), "application/zip")
	require.NoError(t, err)
	assert.Equal(t, key, info.Key)
	assert.EqualValues(t, 7, info.Size)
	assert.Len(t, info.ETag, 64)

	_, err = store.Put(ctx, key, strings.NewReader("again"), "")
	assert.ErrorIs(t, err, ErrExists)

	got, rc, err := store.Get(ctx, key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "PK-data", string(body))
	assert.EqualValues(t, 7, got.Size)

	_, err = store.Put(ctx, "other/x.zip", strings.NewReader("x"), "")
	require.NoError(t, err)
	list, err := store.List(ctx, UploadPrefix)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, key, list[0].Key)

	ok, err := store.Delete(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Delete(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "  ", "/etc/passwd", "../up.zip", "a/../../b.zip"} {
		_, err := store.Put(ctx, key, strings.NewReader("x"), "")
		assert.Error(t, err, "key %q", key)
	}
}

func TestNewArchiveKey_IsUnique(t *testing.T) {
	a, b := NewArchiveKey(), NewArchiveKey()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, UploadPrefix))
	assert.True(t, strings.HasSuffix(a, ".zip"))
}
