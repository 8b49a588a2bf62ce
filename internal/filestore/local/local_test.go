package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroomhq/stockroom/internal/filestore"
)

func TestLocalBlobStoreSaveAndGet(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	data := []byte("fake jpeg data")

	key, err := store.Save(ctx, "items", "Front Label.jpg", "image/jpeg", bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "items/front-label_"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	reader, mimeType, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "image/jpeg", mimeType)

	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestLocalBlobStoreKeysAreUnique(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	a, err := store.Save(ctx, "items", "photo.png", "image/png", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := store.Save(ctx, "items", "photo.png", "image/png", strings.NewReader("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalBlobStoreExtensionFromMimeType(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	key, err := store.Save(context.Background(), "files", "datasheet", "application/pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	_, mimeType, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mimeType)
}

func TestLocalBlobStoreDelete(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key, err := store.Save(ctx, "items", "photo.jpg", "image/jpeg", strings.NewReader("data"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, key))

	_, _, err = store.Get(ctx, key)
	assert.True(t, errors.Is(err, filestore.ErrNotFound))
}

func TestLocalBlobStoreNotFound(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), "items/nonexistent.jpg")
	assert.True(t, errors.Is(err, filestore.ErrNotFound))
}

func TestLocalBlobStorePathTraversal(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
}
