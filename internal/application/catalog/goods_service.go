package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GoodsService handles goods administration and storefront reads
type GoodsService struct {
	goodsRepo      catalog.GoodsRepository
	categoryRepo   catalog.CategoryRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewGoodsService creates a new GoodsService
func NewGoodsService(
	goodsRepo catalog.GoodsRepository,
	categoryRepo catalog.CategoryRepository,
	logger *zap.Logger,
) *GoodsService {
	return &GoodsService{
		goodsRepo:    goodsRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// SetEventPublisher sets the publisher for goods events
func (s *GoodsService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates draft goods
func (s *GoodsService) Create(ctx context.Context, req CreateGoodsRequest) (*GoodsResponse, error) {
	if _, err := s.goodsRepo.FindBySKU(ctx, req.SKU); err == nil {
		return nil, shared.ErrAlreadyExists.WithMessage("Goods with this SKU already exists")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	currency := valueobject.DefaultCurrency
	if req.Currency != "" {
		c, err := valueobject.ParseCurrency(req.Currency)
		if err != nil {
			return nil, err
		}
		currency = c
	}
	price, err := valueobject.NewMoney(req.Price, currency)
	if err != nil {
		return nil, err
	}

	goods, err := catalog.NewGoods(req.SKU, req.Name, price)
	if err != nil {
		return nil, err
	}
	if req.Description != "" || req.CategoryID != nil {
		if err := goods.Update(req.Name, req.Description, req.CategoryID); err != nil {
			return nil, err
		}
	}
	if req.OriginalPrice != nil {
		original, err := valueobject.NewMoney(*req.OriginalPrice, currency)
		if err != nil {
			return nil, err
		}
		if err := goods.SetPrice(price, original); err != nil {
			return nil, err
		}
	}
	if req.Slug != "" {
		if err := goods.SetSlug(req.Slug); err != nil {
			return nil, err
		}
	}
	if err := s.ensureSlugFree(ctx, goods); err != nil {
		return nil, err
	}
	if req.Stock > 0 {
		if err := goods.SetStock(req.Stock); err != nil {
			return nil, err
		}
	}
	if len(req.VisibleIn) > 0 {
		goods.SetVisibleIn(req.VisibleIn)
	}
	goods.SourceURL = strings.TrimSpace(req.SourceURL)

	if err := s.goodsRepo.Save(ctx, goods); err != nil {
		return nil, err
	}
	s.publish(ctx, goods)

	resp := ToGoodsResponse(goods)
	return &resp, nil
}

// GetByID returns goods regardless of status (admin)
func (s *GoodsService) GetByID(ctx context.Context, id uuid.UUID) (*GoodsResponse, error) {
	goods, err := s.goodsRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToGoodsResponse(goods)
	return &resp, nil
}

// List returns goods of any status (admin)
func (s *GoodsService) List(ctx context.Context, filter GoodsListFilter) ([]GoodsListResponse, int64, error) {
	f := toDomainFilter(filter)
	goods, err := s.goodsRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.goodsRepo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return ToGoodsListResponses(goods), total, nil
}

// ListVisible returns the goods shown on a site
func (s *GoodsService) ListVisible(ctx context.Context, siteCode string, filter GoodsListFilter) ([]GoodsListResponse, int64, error) {
	// storefront callers never see drafts
	filter.Status = ""
	f := toDomainFilter(filter)
	goods, err := s.goodsRepo.FindVisible(ctx, siteCode, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.goodsRepo.CountVisible(ctx, siteCode, f)
	if err != nil {
		return nil, 0, err
	}
	return ToGoodsListResponses(goods), total, nil
}

// GetVisible looks goods up by id or slug and hides anything not visible on the site
func (s *GoodsService) GetVisible(ctx context.Context, siteCode, idOrSlug string) (*GoodsResponse, error) {
	var (
		goods *catalog.Goods
		err   error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		goods, err = s.goodsRepo.FindByID(ctx, id)
	} else {
		goods, err = s.goodsRepo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, err
	}
	if !goods.IsVisibleIn(siteCode) {
		return nil, shared.ErrNotFound
	}
	resp := ToGoodsResponse(goods)
	return &resp, nil
}

// Update applies a partial update
func (s *GoodsService) Update(ctx context.Context, id uuid.UUID, req UpdateGoodsRequest) (*GoodsResponse, error) {
	goods, err := s.goodsRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := goods.Name
	if req.Name != nil {
		name = *req.Name
	}
	description := goods.Description
	if req.Description != nil {
		description = *req.Description
	}
	categoryID := goods.CategoryID
	if req.ClearCategory {
		categoryID = nil
	} else if req.CategoryID != nil {
		if err := s.checkCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		categoryID = req.CategoryID
	}
	if err := goods.Update(name, description, categoryID); err != nil {
		return nil, err
	}

	if req.Slug != nil {
		if err := goods.SetSlug(*req.Slug); err != nil {
			return nil, err
		}
		if err := s.ensureSlugFree(ctx, goods); err != nil {
			return nil, err
		}
	}

	if req.Price != nil || req.OriginalPrice != nil {
		price := goods.UnitPrice()
		if req.Price != nil {
			if price, err = valueobject.NewMoney(*req.Price, goods.Currency); err != nil {
				return nil, err
			}
		}
		original := valueobject.MustMoney(goods.OriginalPrice, goods.Currency)
		if req.OriginalPrice != nil {
			if original, err = valueobject.NewMoney(*req.OriginalPrice, goods.Currency); err != nil {
				return nil, err
			}
		}
		if err := goods.SetPrice(price, original); err != nil {
			return nil, err
		}
	}

	if err := s.goodsRepo.SaveWithLock(ctx, goods); err != nil {
		return nil, err
	}
	resp := ToGoodsResponse(goods)
	return &resp, nil
}

// Publish puts goods on sale
func (s *GoodsService) Publish(ctx context.Context, id uuid.UUID) (*GoodsResponse, error) {
	return s.mutate(ctx, id, (*catalog.Goods).Publish)
}

// Unpublish takes goods off sale
func (s *GoodsService) Unpublish(ctx context.Context, id uuid.UUID) (*GoodsResponse, error) {
	return s.mutate(ctx, id, (*catalog.Goods).Unpublish)
}

// SetVisibility replaces the list of sites the goods is shown on
func (s *GoodsService) SetVisibility(ctx context.Context, id uuid.UUID, req SetVisibilityRequest) (*GoodsResponse, error) {
	return s.mutate(ctx, id, func(g *catalog.Goods) error {
		g.SetVisibleIn(req.VisibleIn)
		return nil
	})
}

// AdjustStock sets stock or applies a delta. A negative delta larger than
// the stock on hand fails with INSUFFICIENT_STOCK.
func (s *GoodsService) AdjustStock(ctx context.Context, id uuid.UUID, req AdjustStockRequest) (*GoodsResponse, error) {
	if (req.Stock == nil) == (req.Delta == nil) {
		return nil, shared.ErrInvalidInput.WithMessage("Exactly one of stock or delta is required")
	}
	return s.mutate(ctx, id, func(g *catalog.Goods) error {
		switch {
		case req.Stock != nil:
			return g.SetStock(*req.Stock)
		case *req.Delta > 0:
			return g.SetStock(g.Stock + *req.Delta)
		case *req.Delta < 0:
			if g.Stock < -*req.Delta {
				return shared.ErrInsufficientStock
			}
			return g.SetStock(g.Stock + *req.Delta)
		}
		return nil
	})
}

// Delete removes goods
func (s *GoodsService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.goodsRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.goodsRepo.Delete(ctx, id)
}

func (s *GoodsService) mutate(ctx context.Context, id uuid.UUID, fn func(*catalog.Goods) error) (*GoodsResponse, error) {
	goods, err := s.goodsRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(goods); err != nil {
		return nil, err
	}
	if err := s.goodsRepo.SaveWithLock(ctx, goods); err != nil {
		return nil, err
	}
	s.publish(ctx, goods)
	resp := ToGoodsResponse(goods)
	return &resp, nil
}

func (s *GoodsService) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.categoryRepo.FindByID(ctx, *id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_CATEGORY", "Category not found")
		}
		return err
	}
	return nil
}

func (s *GoodsService) ensureSlugFree(ctx context.Context, goods *catalog.Goods) error {
	existing, err := s.goodsRepo.FindBySlug(ctx, goods.Slug)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != goods.ID {
		return shared.ErrAlreadyExists.WithMessage("Goods with this slug already exists")
	}
	return nil
}

func (s *GoodsService) publish(ctx context.Context, goods *catalog.Goods) {
	events := goods.GetDomainEvents()
	goods.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish goods events", zap.Error(err))
	}
}

func toDomainFilter(filter GoodsListFilter) shared.Filter {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   strings.TrimSpace(filter.Search),
		Filters:  make(map[string]any),
	}
	f.Normalize()
	if filter.CategoryID != nil {
		f.Filters["category_id"] = *filter.CategoryID
	}
	if filter.Status != "" {
		f.Filters["status"] = catalog.GoodsStatus(filter.Status)
	}
	if filter.MinPrice != nil {
		f.Filters["min_price"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		f.Filters["max_price"] = *filter.MaxPrice
	}
	return f
}
