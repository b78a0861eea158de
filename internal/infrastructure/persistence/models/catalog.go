package models

import (
	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GoodsCategoryModel is the persistence model for a goods category
type GoodsCategoryModel struct {
	BaseModel
	ParentID    *uuid.UUID `gorm:"type:uuid;index"`
	Name        string     `gorm:"type:varchar(100);not null"`
	Slug        string     `gorm:"type:varchar(180);not null;uniqueIndex"`
	Description string     `gorm:"type:text"`
	SortOrder   int        `gorm:"not null;default:0"`
	Active      bool       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GoodsCategoryModel) TableName() string {
	return "goods_categories"
}

// ToDomain converts the persistence model to a domain Category
func (m *GoodsCategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseEntity:  m.BaseModel.entity(),
		ParentID:    m.ParentID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		SortOrder:   m.SortOrder,
		Active:      m.Active,
	}
}

// GoodsCategoryModelFromDomain creates a persistence model from a domain Category
func GoodsCategoryModelFromDomain(c *catalog.Category) *GoodsCategoryModel {
	m := &GoodsCategoryModel{
		ParentID:    c.ParentID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		SortOrder:   c.SortOrder,
		Active:      c.Active,
	}
	m.BaseModel = baseFrom(c.BaseEntity)
	return m
}

// GoodsModel is the persistence model for the Goods aggregate root.
// VisibleIn is stored as a JSON array of site codes; an empty array means
// visible on every site.
type GoodsModel struct {
	AggregateModel
	CategoryID    *uuid.UUID          `gorm:"type:uuid;index"`
	SKU           string              `gorm:"column:sku;type:varchar(64);not null;uniqueIndex"`
	Name          string              `gorm:"type:varchar(200);not null"`
	Slug          string              `gorm:"type:varchar(180);not null;uniqueIndex"`
	Description   string              `gorm:"type:text"`
	Price         decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	OriginalPrice decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	Currency      string              `gorm:"type:varchar(10);not null"`
	Stock         int                 `gorm:"not null;default:0"`
	Sales         int                 `gorm:"not null;default:0"`
	Status        catalog.GoodsStatus `gorm:"type:varchar(20);not null;index"`
	VisibleIn     []string            `gorm:"type:text;serializer:json"`
	SourceURL     string              `gorm:"type:varchar(1000);index"`
	Images        []GoodsImageModel   `gorm:"foreignKey:GoodsID;references:ID"`
}

// TableName returns the table name for GORM
func (GoodsModel) TableName() string {
	return "goods"
}

// ToDomain converts the persistence model to a domain Goods
func (m *GoodsModel) ToDomain() *catalog.Goods {
	g := &catalog.Goods{
		BaseAggregateRoot: m.root(),
		CategoryID:        m.CategoryID,
		SKU:               m.SKU,
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		Price:             m.Price,
		OriginalPrice:     m.OriginalPrice,
		Currency:          valueobject.Currency(m.Currency),
		Stock:             m.Stock,
		Sales:             m.Sales,
		Status:            m.Status,
		VisibleIn:         m.VisibleIn,
		SourceURL:         m.SourceURL,
		Images:            make([]catalog.Image, len(m.Images)),
	}
	if g.VisibleIn == nil {
		g.VisibleIn = []string{}
	}
	for i := range m.Images {
		g.Images[i] = *m.Images[i].ToDomain()
	}
	return g
}

// GoodsModelFromDomain creates a persistence model from a domain Goods.
// Images are saved separately and are not copied.
func GoodsModelFromDomain(g *catalog.Goods) *GoodsModel {
	visible := g.VisibleIn
	if visible == nil {
		visible = []string{}
	}
	m := &GoodsModel{
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
		Status:        g.Status,
		VisibleIn:     visible,
		SourceURL:     g.SourceURL,
	}
	m.AggregateModel = aggregateFrom(g.BaseAggregateRoot)
	return m
}

// GoodsImageModel is the persistence model for a goods image
type GoodsImageModel struct {
	BaseModel
	GoodsID   uuid.UUID `gorm:"type:uuid;not null;index"`
	URL       string    `gorm:"type:varchar(1000);not null"`
	ObjectKey string    `gorm:"type:varchar(500)"`
	SortOrder int       `gorm:"not null;default:0"`
	IsPrimary bool      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GoodsImageModel) TableName() string {
	return "goods_images"
}

// ToDomain converts the persistence model to a domain Image
func (m *GoodsImageModel) ToDomain() *catalog.Image {
	return &catalog.Image{
		BaseEntity: m.BaseModel.entity(),
		GoodsID:    m.GoodsID,
		URL:        m.URL,
		ObjectKey:  m.ObjectKey,
		SortOrder:  m.SortOrder,
		IsPrimary:  m.IsPrimary,
	}
}

// GoodsImageModelFromDomain creates a persistence model from a domain Image
func GoodsImageModelFromDomain(img *catalog.Image) *GoodsImageModel {
	m := &GoodsImageModel{
		GoodsID:   img.GoodsID,
		URL:       img.URL,
		ObjectKey: img.ObjectKey,
		SortOrder: img.SortOrder,
		IsPrimary: img.IsPrimary,
	}
	m.BaseModel = baseFrom(img.BaseEntity)
	return m
}
