package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	catalogapp "github.com/Marusmurong/mall-sub000/internal/application/catalog"
	"go.uber.org/zap"
)

var _ catalogapp.ImageStorage = (*LocalImageStorage)(nil)

// LocalImageStorage writes images below a directory that the HTTP server
// exposes under urlPrefix. Used in development when S3 is disabled.
type LocalImageStorage struct {
	dir       string
	urlPrefix string
	logger    *zap.Logger
}

// NewLocalImageStorage creates the directory if needed
func NewLocalImageStorage(dir, urlPrefix string, logger *zap.Logger) (*LocalImageStorage, error) {
	if dir == "" {
		return nil, errors.New("local storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := "/" + strings.Trim(urlPrefix, "/")
	return &LocalImageStorage{dir: dir, urlPrefix: prefix, logger: logger}, nil
}

// Dir returns the root directory
func (s *LocalImageStorage) Dir() string {
	return s.dir
}

// URLPrefix returns the path the directory is served under
func (s *LocalImageStorage) URLPrefix() string {
	return s.urlPrefix
}

func (s *LocalImageStorage) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Put writes the file and returns its URL
func (s *LocalImageStorage) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	p, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	s.logger.Debug("Stored image locally", zap.String("path", p), zap.Int("size", len(data)))
	return s.URL(key), nil
}

// Delete removes the file; a missing file is ignored
func (s *LocalImageStorage) Delete(_ context.Context, key string) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// Exists reports whether the file is present
func (s *LocalImageStorage) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat image: %w", err)
	}
	return true, nil
}

// PresignUpload is not available for local storage
func (s *LocalImageStorage) PresignUpload(context.Context, string, string) (string, time.Time, error) {
	return "", time.Time{}, catalogapp.ErrPresignUnsupported
}

// URL returns the path the image is served from
func (s *LocalImageStorage) URL(key string) string {
	return s.urlPrefix + "/" + strings.TrimPrefix(key, "/")
}
