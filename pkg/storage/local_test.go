package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLocalUploadWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocal(dir, "/uploads/", zerolog.New(io.Discard))
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "../escape/photo.png", strings.NewReader("png"))
	require.NoError(t, err)
	require.Equal(t, "/uploads/photo.png", url)

	content, err := os.ReadFile(filepath.Join(dir, "photo.png"))
	require.NoError(t, err)
	require.Equal(t, "png", string(content))

	_, err = store.Upload(context.Background(), "photo.png", strings.NewReader("again"))
	require.Error(t, err)
}

func TestNewLocalRequiresDirectory(t *testing.T) {
	_, err := NewLocal(" ", "/uploads", zerolog.New(io.Discard))
	require.Error(t, err)
}
