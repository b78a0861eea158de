package catalog

import (
	"slices"
	"strings"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GoodsStatus is the publication state of a goods item
type GoodsStatus string

const (
	GoodsStatusDraft   GoodsStatus = "draft"
	GoodsStatusOnSale  GoodsStatus = "on_sale"
	GoodsStatusOffSale GoodsStatus = "off_sale"
)

// IsValid checks if the status is a known value
func (s GoodsStatus) IsValid() bool {
	switch s {
	case GoodsStatusDraft, GoodsStatusOnSale, GoodsStatusOffSale:
		return true
	}
	return false
}

// Goods is a sellable catalog item.
// VisibleIn lists the site codes the item is shown on; an empty list means every site.
type Goods struct {
	shared.BaseAggregateRoot
	CategoryID    *uuid.UUID
	SKU           string
	Name          string
	Slug          string
	Description   string
	Price         decimal.Decimal
	OriginalPrice decimal.Decimal
	Currency      valueobject.Currency
	Stock         int
	Sales         int
	Status        GoodsStatus
	VisibleIn     []string
	SourceURL     string
	Images        []Image
}

// Image is a picture attached to goods. ObjectKey is set for uploads
// held in object storage; imported images keep only the URL.
type Image struct {
	shared.BaseEntity
	GoodsID   uuid.UUID
	URL       string
	ObjectKey string
	SortOrder int
	IsPrimary bool
}

// NewGoods creates a draft goods item
func NewGoods(sku, name string, price valueobject.Money) (*Goods, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 64 {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 64 characters")
	}
	if err := validateGoodsName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	g := &Goods{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              strings.TrimSpace(name),
		Slug:              Slugify(name),
		Price:             price.Amount(),
		OriginalPrice:     price.Amount(),
		Currency:          price.Currency(),
		Status:            GoodsStatusDraft,
		VisibleIn:         []string{},
	}
	g.AddDomainEvent(NewGoodsCreatedEvent(g))
	return g, nil
}

// Update replaces descriptive fields
func (g *Goods) Update(name, description string, categoryID *uuid.UUID) error {
	if err := validateGoodsName(name); err != nil {
		return err
	}
	g.Name = strings.TrimSpace(name)
	g.Description = description
	g.CategoryID = categoryID
	g.UpdatedAt = time.Now()
	g.IncrementVersion()
	return nil
}

// SetSlug overrides the generated slug
func (g *Goods) SetSlug(slug string) error {
	s := Slugify(slug)
	if s == "" {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot be empty")
	}
	g.Slug = s
	g.UpdatedAt = time.Now()
	return nil
}

// SetPrice changes the selling and reference price. A zero original price
// means "no strike-through" and is stored equal to the selling price.
func (g *Goods) SetPrice(price, original valueobject.Money) error {
	if price.IsNegative() || original.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if !original.IsZero() && original.Currency() != price.Currency() {
		return shared.NewDomainError("INVALID_PRICE", "Price and original price must use the same currency")
	}
	g.Price = price.Amount()
	g.Currency = price.Currency()
	if original.IsZero() {
		g.OriginalPrice = price.Amount()
	} else {
		g.OriginalPrice = original.Amount()
	}
	g.UpdatedAt = time.Now()
	g.IncrementVersion()
	return nil
}

// UnitPrice returns the selling price as Money
func (g *Goods) UnitPrice() valueobject.Money {
	return valueobject.MustMoney(g.Price, g.Currency)
}

// Publish puts the goods on sale
func (g *Goods) Publish() error {
	if g.Status == GoodsStatusOnSale {
		return shared.ErrInvalidState.WithMessage("Goods is already on sale")
	}
	if !g.Price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Goods must have a positive price before publishing")
	}
	old := g.Status
	g.Status = GoodsStatusOnSale
	g.UpdatedAt = time.Now()
	g.IncrementVersion()
	g.AddDomainEvent(NewGoodsStatusChangedEvent(g, old))
	return nil
}

// Unpublish takes the goods off sale
func (g *Goods) Unpublish() error {
	if g.Status != GoodsStatusOnSale {
		return shared.ErrInvalidState.WithMessage("Goods is not on sale")
	}
	old := g.Status
	g.Status = GoodsStatusOffSale
	g.UpdatedAt = time.Now()
	g.IncrementVersion()
	g.AddDomainEvent(NewGoodsStatusChangedEvent(g, old))
	return nil
}

// SetVisibleIn replaces the site list, lower-casing and de-duplicating codes
func (g *Goods) SetVisibleIn(siteCodes []string) {
	out := make([]string, 0, len(siteCodes))
	for _, c := range siteCodes {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	slices.Sort(out)
	g.VisibleIn = out
	g.UpdatedAt = time.Now()
	g.IncrementVersion()
}

// IsVisibleIn reports whether the goods is shown on the given site
func (g *Goods) IsVisibleIn(siteCode string) bool {
	if g.Status != GoodsStatusOnSale {
		return false
	}
	if len(g.VisibleIn) == 0 {
		return true
	}
	return slices.Contains(g.VisibleIn, strings.ToLower(siteCode))
}

// CanPurchase checks visibility and stock for a quantity
func (g *Goods) CanPurchase(siteCode string, quantity int) error {
	if !g.IsVisibleIn(siteCode) {
		return shared.ErrNotVisible
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if g.Stock < quantity {
		return shared.NewDomainErrorf("INSUFFICIENT_STOCK", "Only %d of %s left in stock", g.Stock, g.Name)
	}
	return nil
}

// SetStock sets the on-hand quantity
func (g *Goods) SetStock(stock int) error {
	if stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	g.Stock = stock
	g.UpdatedAt = time.Now()
	g.IncrementVersion()
	return nil
}

// DecreaseStock reserves quantity for an order and counts it as sold
func (g *Goods) DecreaseStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if g.Stock < quantity {
		return shared.ErrInsufficientStock
	}
	g.Stock -= quantity
	g.Sales += quantity
	g.UpdatedAt = time.Now()
	g.IncrementVersion()
	return nil
}

// IncreaseStock returns quantity to stock, e.g. on order cancellation
func (g *Goods) IncreaseStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	g.Stock += quantity
	g.Sales = max(g.Sales-quantity, 0)
	g.UpdatedAt = time.Now()
	g.IncrementVersion()
	return nil
}

// AddImage appends an image. The first image, or one flagged primary,
// becomes the primary image.
func (g *Goods) AddImage(url, objectKey string, primary bool) (*Image, error) {
	if strings.TrimSpace(url) == "" {
		return nil, shared.NewDomainError("INVALID_IMAGE", "Image URL cannot be empty")
	}
	if len(g.Images) >= 20 {
		return nil, shared.NewDomainError("TOO_MANY_IMAGES", "Goods cannot have more than 20 images")
	}
	img := Image{
		BaseEntity: shared.NewBaseEntity(),
		GoodsID:    g.ID,
		URL:        url,
		ObjectKey:  objectKey,
		SortOrder:  len(g.Images),
		IsPrimary:  primary || len(g.Images) == 0,
	}
	if img.IsPrimary {
		for i := range g.Images {
			g.Images[i].IsPrimary = false
		}
	}
	g.Images = append(g.Images, img)
	g.UpdatedAt = time.Now()
	return &g.Images[len(g.Images)-1], nil
}

// RemoveImage detaches an image and promotes the next one if needed
func (g *Goods) RemoveImage(imageID uuid.UUID) (*Image, error) {
	idx := slices.IndexFunc(g.Images, func(i Image) bool { return i.ID == imageID })
	if idx < 0 {
		return nil, shared.ErrNotFound
	}
	removed := g.Images[idx]
	g.Images = slices.Delete(g.Images, idx, idx+1)
	for i := range g.Images {
		g.Images[i].SortOrder = i
	}
	if removed.IsPrimary && len(g.Images) > 0 {
		g.Images[0].IsPrimary = true
	}
	g.UpdatedAt = time.Now()
	return &removed, nil
}

// PrimaryImageURL returns the primary image URL or ""
func (g *Goods) PrimaryImageURL() string {
	for _, img := range g.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(g.Images) > 0 {
		return g.Images[0].URL
	}
	return ""
}

func validateGoodsName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_GOODS_NAME", "Goods name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_GOODS_NAME", "Goods name cannot exceed 200 characters")
	}
	return nil
}
