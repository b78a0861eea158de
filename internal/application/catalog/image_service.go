package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageServiceConfig holds upload limits
type ImageServiceConfig struct {
	MaxImageSize int64
}

// DefaultImageServiceConfig returns the default configuration
func DefaultImageServiceConfig() ImageServiceConfig {
	return ImageServiceConfig{MaxImageSize: 5 << 20}
}

// ImageService attaches images to goods and keeps object storage in step
type ImageService struct {
	goodsRepo catalog.GoodsRepository
	storage   ImageStorage
	config    ImageServiceConfig
	logger    *zap.Logger
}

// NewImageService creates a new ImageService
func NewImageService(goodsRepo catalog.GoodsRepository, storage ImageStorage, logger *zap.Logger) *ImageService {
	return &ImageService{
		goodsRepo: goodsRepo,
		storage:   storage,
		config:    DefaultImageServiceConfig(),
		logger:    logger,
	}
}

// SetConfig sets the service configuration
func (s *ImageService) SetConfig(config ImageServiceConfig) {
	if config.MaxImageSize > 0 {
		s.config = config
	}
}

// Upload stores an image and attaches it to the goods
func (s *ImageService) Upload(ctx context.Context, goodsID uuid.UUID, req UploadImageRequest) (*ImageResponse, error) {
	if len(req.Data) == 0 {
		return nil, shared.NewDomainError("INVALID_IMAGE", "Image is empty")
	}
	if int64(len(req.Data)) > s.config.MaxImageSize {
		return nil, shared.NewDomainErrorf("IMAGE_TOO_LARGE", "Image exceeds %d bytes", s.config.MaxImageSize)
	}
	// trust the bytes, not the client's header
	contentType := http.DetectContentType(req.Data)
	ext, ok := AllowedImageTypes[contentType]
	if !ok {
		return nil, shared.NewDomainErrorf("INVALID_CONTENT_TYPE", "Content type %s is not allowed", contentType)
	}

	goods, err := s.goodsRepo.FindByID(ctx, goodsID)
	if err != nil {
		return nil, err
	}

	key := imageKey(goodsID, ext)
	url, err := s.storage.Put(ctx, key, req.Data, contentType)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	img, err := s.attach(ctx, goods, url, key, req.Primary)
	if err != nil {
		s.cleanup(ctx, key)
		return nil, err
	}
	return img, nil
}

// AddByURL attaches an externally hosted image
func (s *ImageService) AddByURL(ctx context.Context, goodsID uuid.UUID, req AddImageURLRequest) (*ImageResponse, error) {
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		return nil, shared.NewDomainError("INVALID_IMAGE", "Image URL must be http or https")
	}
	goods, err := s.goodsRepo.FindByID(ctx, goodsID)
	if err != nil {
		return nil, err
	}
	return s.attach(ctx, goods, req.URL, "", req.Primary)
}

// PresignUpload reserves a key and returns a URL the browser uploads to
func (s *ImageService) PresignUpload(ctx context.Context, goodsID uuid.UUID, req PresignImageRequest) (*PresignImageResponse, error) {
	ext, ok := AllowedImageTypes[req.ContentType]
	if !ok {
		return nil, shared.NewDomainErrorf("INVALID_CONTENT_TYPE", "Content type %s is not allowed", req.ContentType)
	}
	if _, err := s.goodsRepo.FindByID(ctx, goodsID); err != nil {
		return nil, err
	}
	key := imageKey(goodsID, ext)
	url, expiresAt, err := s.storage.PresignUpload(ctx, key, req.ContentType)
	if err != nil {
		if errors.Is(err, ErrPresignUnsupported) {
			return nil, shared.NewDomainError("PRESIGN_UNSUPPORTED", "Direct uploads are not available, upload through the API")
		}
		return nil, fmt.Errorf("presign image upload: %w", err)
	}
	return &PresignImageResponse{Key: key, UploadURL: url, ExpiresAt: expiresAt}, nil
}

// ConfirmUpload attaches an object uploaded with a presigned URL
func (s *ImageService) ConfirmUpload(ctx context.Context, goodsID uuid.UUID, req ConfirmImageRequest) (*ImageResponse, error) {
	if !strings.HasPrefix(req.Key, imagePrefix(goodsID)) {
		return nil, shared.NewDomainError("INVALID_IMAGE", "Key does not belong to these goods")
	}
	goods, err := s.goodsRepo.FindByID(ctx, goodsID)
	if err != nil {
		return nil, err
	}
	exists, err := s.storage.Exists(ctx, req.Key)
	if err != nil {
		return nil, fmt.Errorf("check uploaded image: %w", err)
	}
	if !exists {
		return nil, shared.NewDomainError("UPLOAD_NOT_FOUND", "Image has not been uploaded")
	}
	return s.attach(ctx, goods, s.storage.URL(req.Key), req.Key, req.Primary)
}

// Remove detaches an image and deletes the stored object if it has one
func (s *ImageService) Remove(ctx context.Context, goodsID, imageID uuid.UUID) error {
	goods, err := s.goodsRepo.FindByID(ctx, goodsID)
	if err != nil {
		return err
	}
	removed, err := goods.RemoveImage(imageID)
	if err != nil {
		return err
	}
	if err := s.goodsRepo.DeleteImage(ctx, goodsID, imageID); err != nil {
		return err
	}
	// remaining images may have been renumbered or promoted
	for i := range goods.Images {
		if err := s.goodsRepo.SaveImage(ctx, &goods.Images[i]); err != nil {
			return err
		}
	}
	if removed.ObjectKey != "" {
		s.cleanup(ctx, removed.ObjectKey)
	}
	return nil
}

func (s *ImageService) attach(ctx context.Context, goods *catalog.Goods, url, key string, primary bool) (*ImageResponse, error) {
	img, err := goods.AddImage(url, key, primary)
	if err != nil {
		return nil, err
	}
	for i := range goods.Images {
		if err := s.goodsRepo.SaveImage(ctx, &goods.Images[i]); err != nil {
			return nil, err
		}
	}
	return &ImageResponse{ID: img.ID, URL: img.URL, SortOrder: img.SortOrder, IsPrimary: img.IsPrimary}, nil
}

func (s *ImageService) cleanup(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete stored image", zap.String("key", key), zap.Error(err))
	}
}

func imagePrefix(goodsID uuid.UUID) string {
	return "goods/" + goodsID.String() + "/"
}

func imageKey(goodsID uuid.UUID, ext string) string {
	return fmt.Sprintf("%s%s-%s%s", imagePrefix(goodsID), time.Now().UTC().Format("20060102"), uuid.NewString()[:8], ext)
}
