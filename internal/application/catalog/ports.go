package catalog

import (
	"context"
	"errors"
	"time"
)

// ImageStorage stores goods images. Implementations live in infrastructure
// (S3-compatible buckets or a local directory).
type ImageStorage interface {
	// Put stores data under key and returns its public URL
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Delete removes an object; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored under key
	Exists(ctx context.Context, key string) (bool, error)

	// PresignUpload returns a URL the browser can PUT the file to directly
	PresignUpload(ctx context.Context, key, contentType string) (string, time.Time, error)

	// URL returns the public URL for key
	URL(key string) string
}

// ErrPresignUnsupported is returned by storages that only accept server-side uploads
var ErrPresignUnsupported = errors.New("storage does not support presigned uploads")

// AllowedImageTypes maps accepted upload content types to file extensions.
// SVG is excluded because it can carry scripts.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}
