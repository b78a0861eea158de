package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ScrapedGoods is one item collected from an external listing page
type ScrapedGoods struct {
	SourceURL   string
	Name        string
	Price       decimal.Decimal
	Currency    string
	Description string
	ImageURLs   []string
}

// Scraper collects goods from a listing URL
type Scraper interface {
	Scrape(ctx context.Context, listingURL string) ([]ScrapedGoods, error)
}

// ImportRequest describes one import run
type ImportRequest struct {
	SiteCode     string
	CategorySlug string
	DryRun       bool
	Items        []ScrapedGoods
}

// ImportError records an item that could not be imported
type ImportError struct {
	SourceURL string `json:"source_url"`
	Error     string `json:"error"`
}

// ImportResult summarises an import run
type ImportResult struct {
	Created int           `json:"created"`
	Updated int           `json:"updated"`
	Skipped int           `json:"skipped"`
	Errors  []ImportError `json:"errors,omitempty"`
}

// ImportService upserts scraped goods by source URL. New goods stay in
// draft and are made visible on the importing site only.
type ImportService struct {
	goodsRepo    catalog.GoodsRepository
	categoryRepo catalog.CategoryRepository
	logger       *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(goodsRepo catalog.GoodsRepository, categoryRepo catalog.CategoryRepository, logger *zap.Logger) *ImportService {
	return &ImportService{goodsRepo: goodsRepo, categoryRepo: categoryRepo, logger: logger}
}

// Import runs the upsert. Per-item failures are collected, not returned.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	siteCode := strings.ToLower(strings.TrimSpace(req.SiteCode))
	if siteCode == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Site code is required")
	}

	var categoryID *uuid.UUID
	if req.CategorySlug != "" {
		category, err := s.categoryRepo.FindBySlug(ctx, catalog.Slugify(req.CategorySlug))
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainErrorf("INVALID_CATEGORY", "Category %q not found", req.CategorySlug)
			}
			return nil, err
		}
		categoryID = &category.ID
	}

	result := &ImportResult{}
	for _, item := range req.Items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		created, err := s.importOne(ctx, siteCode, categoryID, item, req.DryRun)
		switch {
		case errors.Is(err, errSkipItem):
			result.Skipped++
		case err != nil:
			s.logger.Warn("Import failed", zap.String("source_url", item.SourceURL), zap.Error(err))
			result.Errors = append(result.Errors, ImportError{SourceURL: item.SourceURL, Error: err.Error()})
		case created:
			result.Created++
		default:
			result.Updated++
		}
	}

	s.logger.Info("Import finished",
		zap.String("site", siteCode),
		zap.Bool("dry_run", req.DryRun),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Errors)),
	)
	return result, nil
}

var errSkipItem = errors.New("skip")

func (s *ImportService) importOne(ctx context.Context, siteCode string, categoryID *uuid.UUID, item ScrapedGoods, dryRun bool) (bool, error) {
	item.SourceURL = strings.TrimSpace(item.SourceURL)
	item.Name = strings.TrimSpace(item.Name)
	if item.SourceURL == "" || item.Name == "" || !item.Price.IsPositive() {
		return false, errSkipItem
	}

	currency := valueobject.DefaultCurrency
	if item.Currency != "" {
		c, err := valueobject.ParseCurrency(item.Currency)
		if err != nil {
			return false, err
		}
		currency = c
	}
	price, err := valueobject.NewMoney(item.Price, currency)
	if err != nil {
		return false, err
	}

	existing, err := s.goodsRepo.FindBySourceURL(ctx, item.SourceURL)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}

	if existing != nil {
		if err := existing.Update(item.Name, item.Description, coalesceCategory(categoryID, existing.CategoryID)); err != nil {
			return false, err
		}
		if err := existing.SetPrice(price, valueobject.Zero(currency)); err != nil {
			return false, err
		}
		// an empty list already means every site
		if len(existing.VisibleIn) > 0 && !slices.Contains(existing.VisibleIn, siteCode) {
			existing.SetVisibleIn(append(slices.Clone(existing.VisibleIn), siteCode))
		}
		addImages(existing, item.ImageURLs)
		if dryRun {
			return false, nil
		}
		return false, s.goodsRepo.SaveWithLock(ctx, existing)
	}

	goods, err := catalog.NewGoods(importSKU(item.SourceURL), item.Name, price)
	if err != nil {
		return false, err
	}
	if err := goods.Update(item.Name, item.Description, categoryID); err != nil {
		return false, err
	}
	if err := s.uniqueSlug(ctx, goods); err != nil {
		return false, err
	}
	goods.SetVisibleIn([]string{siteCode})
	goods.SourceURL = item.SourceURL
	addImages(goods, item.ImageURLs)
	goods.ClearDomainEvents()

	if dryRun {
		return true, nil
	}
	return true, s.goodsRepo.Save(ctx, goods)
}

// uniqueSlug appends a short suffix when the name-derived slug is taken
func (s *ImportService) uniqueSlug(ctx context.Context, goods *catalog.Goods) error {
	base := goods.Slug
	for i := 0; i < 5; i++ {
		_, err := s.goodsRepo.FindBySlug(ctx, goods.Slug)
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := goods.SetSlug(fmt.Sprintf("%s-%s", base, uuid.NewString()[:6])); err != nil {
			return err
		}
	}
	return shared.ErrAlreadyExists.WithMessage("Could not find a free slug")
}

func addImages(goods *catalog.Goods, urls []string) {
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || slices.ContainsFunc(goods.Images, func(img catalog.Image) bool { return img.URL == u }) {
			continue
		}
		if _, err := goods.AddImage(u, "", false); err != nil {
			// image limit reached
			return
		}
	}
}

// importSKU derives a stable SKU from the source URL so re-imports map to the same code
func importSKU(sourceURL string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(sourceURL))
	return "IMP-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:12])
}

func coalesceCategory(a, b *uuid.UUID) *uuid.UUID {
	if a != nil {
		return a
	}
	return b
}
