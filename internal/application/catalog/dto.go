package catalog

import (
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateGoodsRequest represents a request to create goods
type CreateGoodsRequest struct {
	SKU           string           `json:"sku" binding:"required,min=1,max=64"`
	Name          string           `json:"name" binding:"required,min=1,max=200"`
	Slug          string           `json:"slug" binding:"omitempty,max=200"`
	Description   string           `json:"description" binding:"max=20000"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	Price         decimal.Decimal  `json:"price" binding:"required"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Currency      string           `json:"currency" binding:"omitempty,len=3|len=4"`
	Stock         int              `json:"stock" binding:"min=0"`
	VisibleIn     []string         `json:"visible_in"`
	SourceURL     string           `json:"source_url" binding:"omitempty,url"`
}

// UpdateGoodsRequest represents a partial goods update
type UpdateGoodsRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Slug          *string          `json:"slug" binding:"omitempty,min=1,max=200"`
	Description   *string          `json:"description" binding:"omitempty,max=20000"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	ClearCategory bool             `json:"clear_category"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
}

// SetVisibilityRequest replaces the site list; empty means every site
type SetVisibilityRequest struct {
	VisibleIn []string `json:"visible_in"`
}

// AdjustStockRequest either sets stock or applies a signed delta
type AdjustStockRequest struct {
	Stock *int `json:"stock" binding:"omitempty,min=0"`
	Delta *int `json:"delta"`
}

// GoodsListFilter represents storefront and admin list options
type GoodsListFilter struct {
	Search     string           `form:"search"`
	CategoryID *uuid.UUID       `form:"category_id"`
	Status     string           `form:"status" binding:"omitempty,oneof=draft on_sale off_sale"`
	MinPrice   *decimal.Decimal `form:"min_price"`
	MaxPrice   *decimal.Decimal `form:"max_price"`
	Page       int              `form:"page" binding:"omitempty,min=1"`
	PageSize   int              `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string           `form:"order_by" binding:"omitempty,oneof=created_at price sales name"`
	OrderDir   string           `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ImageResponse represents a goods image
type ImageResponse struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	SortOrder int       `json:"sort_order"`
	IsPrimary bool      `json:"is_primary"`
}

// GoodsResponse represents goods in API responses
type GoodsResponse struct {
	ID            uuid.UUID       `json:"id"`
	CategoryID    *uuid.UUID      `json:"category_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Currency      string          `json:"currency"`
	Stock         int             `json:"stock"`
	Sales         int             `json:"sales"`
	Status        string          `json:"status"`
	VisibleIn     []string        `json:"visible_in"`
	SourceURL     string          `json:"source_url,omitempty"`
	Images        []ImageResponse `json:"images"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// GoodsListResponse is the list item shape
type GoodsListResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Currency      string          `json:"currency"`
	Stock         int             `json:"stock"`
	Sales         int             `json:"sales"`
	Status        string          `json:"status"`
	ImageURL      string          `json:"image_url"`
	CategoryID    *uuid.UUID      `json:"category_id"`
}

// ToGoodsResponse converts domain goods to GoodsResponse
func ToGoodsResponse(g *catalog.Goods) GoodsResponse {
	images := make([]ImageResponse, len(g.Images))
	for i, img := range g.Images {
		images[i] = ImageResponse{ID: img.ID, URL: img.URL, SortOrder: img.SortOrder, IsPrimary: img.IsPrimary}
	}
	visible := g.VisibleIn
	if visible == nil {
		visible = []string{}
	}
	return GoodsResponse{
		ID:            g.ID,
		CategoryID:    g.CategoryID,
		SKU:           g.SKU,
		Name:          g.Name,
		Slug:          g.Slug,
		Description:   g.Description,
		Price:         g.Price,
		OriginalPrice: g.OriginalPrice,
		Currency:      string(g.Currency),
		Stock:         g.Stock,
		Sales:         g.Sales,
		Status:        string(g.Status),
		VisibleIn:     visible,
		SourceURL:     g.SourceURL,
		Images:        images,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
		Version:       g.Version,
	}
}

// ToGoodsListResponses converts a slice of goods to list items
func ToGoodsListResponses(goods []catalog.Goods) []GoodsListResponse {
	out := make([]GoodsListResponse, len(goods))
	for i := range goods {
		g := &goods[i]
		out[i] = GoodsListResponse{
			ID:            g.ID,
			Name:          g.Name,
			Slug:          g.Slug,
			SKU:           g.SKU,
			Price:         g.Price,
			OriginalPrice: g.OriginalPrice,
			Currency:      string(g.Currency),
			Stock:         g.Stock,
			Sales:         g.Sales,
			Status:        string(g.Status),
			ImageURL:      g.PrimaryImageURL(),
			CategoryID:    g.CategoryID,
		}
	}
	return out
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=100"`
	Slug        string     `json:"slug" binding:"omitempty,max=100"`
	Description string     `json:"description" binding:"max=1000"`
	ParentID    *uuid.UUID `json:"parent_id"`
	SortOrder   int        `json:"sort_order"`
}

// UpdateCategoryRequest represents a request to update a category
type UpdateCategoryRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=100"`
	Description string     `json:"description" binding:"max=1000"`
	ParentID    *uuid.UUID `json:"parent_id"`
	SortOrder   int        `json:"sort_order"`
	Active      *bool      `json:"active"`
}

// CategoryResponse represents a category, optionally with its subtree
type CategoryResponse struct {
	ID          uuid.UUID           `json:"id"`
	ParentID    *uuid.UUID          `json:"parent_id"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Description string              `json:"description"`
	SortOrder   int                 `json:"sort_order"`
	Active      bool                `json:"active"`
	Children    []*CategoryResponse `json:"children,omitempty"`
}

// ToCategoryResponse converts a domain category
func ToCategoryResponse(c *catalog.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:          c.ID,
		ParentID:    c.ParentID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		SortOrder:   c.SortOrder,
		Active:      c.Active,
	}
}

// UploadImageRequest carries a server-side upload
type UploadImageRequest struct {
	Filename    string
	ContentType string
	Data        []byte
	Primary     bool
}

// AddImageURLRequest attaches an externally hosted image
type AddImageURLRequest struct {
	URL     string `json:"url" binding:"required,url"`
	Primary bool   `json:"primary"`
}

// PresignImageRequest asks for a direct browser upload URL
type PresignImageRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// PresignImageResponse is returned by PresignUpload
type PresignImageResponse struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ConfirmImageRequest attaches an object uploaded through a presigned URL
type ConfirmImageRequest struct {
	Key     string `json:"key" binding:"required"`
	Primary bool   `json:"primary"`
}
