package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	catalogapp "github.com/Marusmurong/mall-sub000/internal/application/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLocalImageStorage_PutExistsDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalImageStorage(dir, "uploads/", zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx := context.Background()

	url, err := s.Put(ctx, "goods/abc/cover.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/goods/abc/cover.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "goods", "abc", "cover.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	exists, err := s.Exists(ctx, "goods/abc/cover.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.Delete(ctx, "goods/abc/cover.jpg"))
	exists, err = s.Exists(ctx, "goods/abc/cover.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	// deleting twice is fine
	require.NoError(t, s.Delete(ctx, "goods/abc/cover.jpg"))
}

func TestLocalImageStorage_RejectsTraversal(t *testing.T) {
	s, err := NewLocalImageStorage(t.TempDir(), "/uploads", nil)
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "goods/../../x", "/"} {
		_, err := s.Put(context.Background(), key, []byte("x"), "image/png")
		assert.Error(t, err, key)
	}
}

func TestLocalImageStorage_PresignUnsupported(t *testing.T) {
	s, err := NewLocalImageStorage(t.TempDir(), "/uploads", nil)
	require.NoError(t, err)

	_, _, err = s.PresignUpload(context.Background(), "k.png", "image/png")
	assert.ErrorIs(t, err, catalogapp.ErrPresignUnsupported)
}

func TestNewLocalImageStorage_RequiresDir(t *testing.T) {
	_, err := NewLocalImageStorage("", "/uploads", nil)
	assert.Error(t, err)
}
