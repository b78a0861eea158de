// Package storage holds the goods image stores: an S3-compatible bucket
// for production and a local directory for development.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	catalogapp "github.com/Marusmurong/mall-sub000/internal/application/catalog"
	infraconfig "github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const (
	defaultPresignTTL = 15 * time.Minute
	imageCacheControl = "public, max-age=31536000, immutable"
)

var (
	_ catalogapp.ImageStorage = (*S3ImageStorage)(nil)

	errEmptyKey = errors.New("storage key is required")
)

// S3ImageStorage keeps goods images in an S3-compatible bucket (AWS S3,
// MinIO, R2). Keys are immutable, so objects are served with a year-long
// cache lifetime.
type S3ImageStorage struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	endpoint   *url.URL
	pathStyle  bool
	publicBase string
	presignTTL time.Duration
	logger     *zap.Logger
}

type S3Option func(*S3ImageStorage)

func WithLogger(logger *zap.Logger) S3Option {
	return func(s *S3ImageStorage) { s.logger = logger }
}

// WithPresignExpiration sets how long a browser upload URL stays valid.
func WithPresignExpiration(d time.Duration) S3Option {
	return func(s *S3ImageStorage) {
		if d > 0 {
			s.presignTTL = d
		}
	}
}

func NewS3ImageStorage(cfg *infraconfig.StorageConfig, opts ...S3Option) (*S3ImageStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	for _, f := range [][2]string{
		{"bucket", cfg.Bucket},
		{"access key", cfg.AccessKey},
		{"secret key", cfg.SecretKey},
	} {
		if f[1] == "" {
			return nil, fmt.Errorf("storage %s is required", f[0])
		}
	}

	endpoint, err := endpointURL(cfg)
	if err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint.String())
	})

	s := &S3ImageStorage{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		endpoint:   endpoint,
		pathStyle:  cfg.UsePathStyle,
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
		presignTTL: defaultPresignTTL,
		logger:     zap.NewNop(),
	}
	WithPresignExpiration(cfg.PresignExpiration)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// endpointURL defaults to a local MinIO and adds the scheme UseSSL implies
// when the configured endpoint is a bare host.
func endpointURL(cfg *infraconfig.StorageConfig) (*url.URL, error) {
	raw := strings.TrimRight(cfg.Endpoint, "/")
	if raw == "" {
		raw = "http://localhost:9000"
	}
	if !strings.Contains(raw, "://") {
		scheme := "http://"
		if cfg.UseSSL {
			scheme = "https://"
		}
		raw = scheme + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid storage endpoint %q", cfg.Endpoint)
	}
	return u, nil
}

// missing reports whether err is the service saying the object or bucket
// does not exist. Some S3-compatible servers answer HEAD with a bare code.
func missing(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}

// EnsureBucket creates the bucket on first start.
func (s *S3ImageStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	switch {
	case err == nil:
		return nil
	case !missing(err):
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}

	s.logger.Info("Creating image bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *S3ImageStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", errEmptyKey
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String(imageCacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	s.logger.Debug("Image stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return s.URL(key), nil
}

// PresignUpload returns a PUT URL the admin UI uploads to directly, and the
// moment it stops working.
func (s *S3ImageStorage) PresignUpload(ctx context.Context, key, contentType string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errEmptyKey
	}
	expires := time.Now().Add(s.presignTTL)
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, expires, nil
}

func (s *S3ImageStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errEmptyKey
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Exists confirms a presigned upload actually landed.
func (s *S3ImageStorage) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errEmptyKey
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	switch {
	case err == nil:
		return true, nil
	case missing(err):
		return false, nil
	default:
		return false, fmt.Errorf("head %s: %w", key, err)
	}
}

// URL is the public address of key: the CDN prefix when configured,
// otherwise the bucket endpoint in the configured addressing style.
func (s *S3ImageStorage) URL(key string) string {
	if s.publicBase != "" {
		return s.publicBase + "/" + key
	}
	u := *s.endpoint
	if s.pathStyle {
		u.Path = strings.TrimRight(u.Path, "/") + "/" + s.bucket + "/" + key
	} else {
		u.Host = s.bucket + "." + u.Host
		u.Path = "/" + key
	}
	return u.String()
}

func (s *S3ImageStorage) Bucket() string {
	return s.bucket
}
