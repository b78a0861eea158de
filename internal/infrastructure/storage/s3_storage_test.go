package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testS3Config(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:            "goods-images",
		AccessKey:         "test-key",
		SecretKey:         "test-secret",
		Region:            "us-east-1",
		Endpoint:          endpoint,
		UsePathStyle:      true,
		PresignExpiration: 15 * time.Minute,
	}
}

// fakeS3 is a minimal path-style object store
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		key := strings.TrimPrefix(r.URL.Path, "/goods-images/")
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.objects[key] = body
			f.types[key] = r.Header.Get("Content-Type")
			w.WriteHeader(http.StatusOK)
		case http.MethodHead:
			if _, ok := f.objects[key]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			delete(f.objects, key)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func TestNewS3ImageStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ImageStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		cfg := testS3Config("")
		cfg.Bucket = ""
		_, err := NewS3ImageStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		cfg := testS3Config("")
		cfg.AccessKey = ""
		_, err := NewS3ImageStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		cfg := testS3Config("")
		cfg.SecretKey = ""
		_, err := NewS3ImageStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("default presign expiration is 15 minutes", func(t *testing.T) {
		cfg := testS3Config("http://localhost:9000")
		cfg.PresignExpiration = 0
		s, err := NewS3ImageStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, s.presignTTL)
		assert.Equal(t, "goods-images", s.Bucket())
	})

	t.Run("bare endpoint gets a scheme", func(t *testing.T) {
		cfg := testS3Config("minio.internal:9000")
		cfg.UseSSL = true
		s, err := NewS3ImageStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, "https://minio.internal:9000/goods-images/a.jpg", s.URL("a.jpg"))
	})
}

func TestS3ImageStorage_Options(t *testing.T) {
	cfg := testS3Config("http://localhost:9000")

	t.Run("WithLogger sets custom logger", func(t *testing.T) {
		s, err := NewS3ImageStorage(cfg, WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.NotNil(t, s.logger)
	})

	t.Run("WithPresignExpiration sets custom duration", func(t *testing.T) {
		s, err := NewS3ImageStorage(cfg, WithPresignExpiration(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, time.Hour, s.presignTTL)
	})
}

func TestS3ImageStorage_URL(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.StorageConfig)
		want   string
	}{
		{
			name: "path style",
			want: "http://localhost:9000/goods-images/goods/1.jpg",
		},
		{
			name:   "virtual host style",
			mutate: func(c *config.StorageConfig) { c.UsePathStyle = false; c.Endpoint = "s3.amazonaws.com"; c.UseSSL = true },
			want:   "https://goods-images.s3.amazonaws.com/goods/1.jpg",
		},
		{
			name:   "public base url wins",
			mutate: func(c *config.StorageConfig) { c.PublicBaseURL = "https://cdn.example.com/" },
			want:   "https://cdn.example.com/goods/1.jpg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testS3Config("http://localhost:9000")
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			s, err := NewS3ImageStorage(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.URL("goods/1.jpg"))
		})
	}
}

func TestS3ImageStorage_PresignUpload(t *testing.T) {
	s, err := NewS3ImageStorage(testS3Config("http://localhost:9000"))
	require.NoError(t, err)

	t.Run("empty storage key returns error", func(t *testing.T) {
		url, _, err := s.PresignUpload(context.Background(), "", "image/jpeg")
		require.Error(t, err)
		assert.Empty(t, url)
	})

	t.Run("generates presigned URL", func(t *testing.T) {
		url, expiresAt, err := s.PresignUpload(context.Background(), "goods/key.jpg", "image/jpeg")
		require.NoError(t, err)
		assert.Contains(t, url, "localhost:9000")
		assert.Contains(t, url, "goods-images")
		assert.Contains(t, url, "X-Amz-Signature")
		assert.True(t, expiresAt.After(time.Now()))
		assert.True(t, expiresAt.Before(time.Now().Add(16*time.Minute)))
	})
}

func TestS3ImageStorage_PutExistsDelete(t *testing.T) {
	fake, srv := newFakeS3(t)
	s, err := NewS3ImageStorage(testS3Config(srv.URL), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	ctx := context.Background()

	url, err := s.Put(ctx, "goods/abc.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/goods-images/goods/abc.png", url)

	fake.mu.Lock()
	assert.Contains(t, string(fake.objects["goods/abc.png"]), "png-bytes")
	assert.Equal(t, "image/png", fake.types["goods/abc.png"])
	fake.mu.Unlock()

	exists, err := s.Exists(ctx, "goods/abc.png")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.Delete(ctx, "goods/abc.png"))

	exists, err = s.Exists(ctx, "goods/abc.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestS3ImageStorage_EmptyKey(t *testing.T) {
	s, err := NewS3ImageStorage(testS3Config("http://localhost:9000"))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Put(ctx, "", []byte("x"), "image/png")
	assert.Error(t, err)
	assert.Error(t, s.Delete(ctx, ""))
	_, err = s.Exists(ctx, "")
	assert.Error(t, err)
}
