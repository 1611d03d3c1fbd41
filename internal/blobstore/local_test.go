package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtensionByType(t *testing.T) {
	ext, err := ExtensionByType("image/png")
	require.NoError(t, err)
	require.Equal(t, "png", ext)

	ext, err = ExtensionByType("image/pjpeg")
	require.NoError(t, err)
	require.Equal(t, "jpg", ext)

	_, err = ExtensionByType("application/pdf")
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestLocalStorePutAndOpen(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Put(ctx, "users/u1/avatar.png", strings.NewReader("png data"))
	require.NoError(t, err)
	require.Equal(t, "/uploads/users/u1/avatar.png", url)

	rc, err := store.Open(ctx, "users/u1/avatar.png")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "png data", string(data))

	// overwrite replaces content
	_, err = store.Put(ctx, "users/u1/avatar.png", strings.NewReader("newer"))
	require.NoError(t, err)
	rc, err = store.Open(ctx, "users/u1/avatar.png")
	require.NoError(t, err)
	defer rc.Close()
	data, err = io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "newer", string(data))
}

func TestLocalStoreConfinesPaths(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/uploads")
	require.NoError(t, err)
	ctx := context.Background()

	// traversal segments are squashed, the blob lands inside the root
	_, err = store.Put(ctx, "../outside.txt", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "outside.txt"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(root), "outside.txt"))
	require.True(t, os.IsNotExist(err))

	_, err = store.Open(ctx, "a/../outside.txt")
	require.NoError(t, err)
}
