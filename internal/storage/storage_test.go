package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey_ExtensionFromContentType(t *testing.T) {
	key := NewKey("image/png", "whatever.bin")

	assert.True(t, strings.HasPrefix(key, "editor_uploads/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
}

func TestNewKey_ContentTypeWithParams(t *testing.T) {
	key := NewKey("image/jpeg; charset=binary", "")
	assert.True(t, strings.HasSuffix(key, ".jpg"))
}

func TestNewKey_FallsBackToFilename(t *testing.T) {
	key := NewKey("image/x-unknown-thing", "Logo.WEBP")
	assert.True(t, strings.HasSuffix(key, ".webp"))
}

func TestNewKey_Unique(t *testing.T) {
	assert.NotEqual(t, NewKey("image/png", ""), NewKey("image/png", ""))
}

func TestLocalStore_SaveAndRemove(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/media")
	require.NoError(t, err)
	ctx := context.Background()

	key := "editor_uploads/a.png"
	require.NoError(t, store.Save(ctx, key, strings.NewReader("png-bytes"), 9, "image/png"))

	data, err := os.ReadFile(filepath.Join(root, "editor_uploads", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "/media/editor_uploads/a.png", store.URL(key))

	require.NoError(t, store.Remove(ctx, key))
	_, err = os.Stat(filepath.Join(root, "editor_uploads", "a.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStore_RemoveMissingIsTolerated(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/media/")
	require.NoError(t, err)

	assert.NoError(t, store.Remove(context.Background(), "editor_uploads/never.png"))
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/media/")
	require.NoError(t, err)
	ctx := context.Background()

	err = store.Save(ctx, "../outside.png", strings.NewReader("x"), 1, "image/png")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, store.Remove(ctx, "/etc/passwd"), ErrInvalidKey)
}
