package site

import (
	"context"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// SiteRepository persists sites
type SiteRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Site, error)
	FindByCode(ctx context.Context, code string) (*Site, error)
	// FindByDomain matches the normalized host against Site.Domain
	FindByDomain(ctx context.Context, domain string) (*Site, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Site, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	FindActive(ctx context.Context) ([]Site, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, s *Site) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ThemeRepository persists site themes
type ThemeRepository interface {
	FindBySite(ctx context.Context, siteID uuid.UUID) (*Theme, error)
	Save(ctx context.Context, theme *Theme) error
}

// ConfigRepository persists key/value settings
type ConfigRepository interface {
	FindBySite(ctx context.Context, siteID uuid.UUID) ([]Config, error)
	FindByKey(ctx context.Context, siteID uuid.UUID, key string) (*Config, error)
	Save(ctx context.Context, cfg *Config) error
	Delete(ctx context.Context, siteID uuid.UUID, key string) error
}

// SlideRepository persists carousel slides
type SlideRepository interface {
	FindByID(ctx context.Context, siteID, id uuid.UUID) (*Slide, error)
	// FindBySite returns slides ordered by sort order
	FindBySite(ctx context.Context, siteID uuid.UUID, activeOnly bool) ([]Slide, error)
	Save(ctx context.Context, slide *Slide) error
	Delete(ctx context.Context, siteID, id uuid.UUID) error
}
