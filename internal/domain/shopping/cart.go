package shopping

import (
	"slices"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart limits
const (
	MaxCartLines       = 50
	MaxQuantityPerLine = 99
)

// Cart is a user's basket on one site. There is one cart per (site, user).
type Cart struct {
	shared.SiteAggregateRoot
	UserID   uuid.UUID
	Currency valueobject.Currency
	Items    []CartItem
}

// CartItem is one line in a cart. Name, SKU and price are refreshed on every add.
type CartItem struct {
	shared.BaseEntity
	CartID    uuid.UUID
	GoodsID   uuid.UUID
	GoodsName string
	SKU       string
	ImageURL  string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal returns unit price times quantity
func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewCart creates an empty cart
func NewCart(siteID, userID uuid.UUID, currency valueobject.Currency) *Cart {
	return &Cart{
		SiteAggregateRoot: shared.NewSiteAggregateRoot(siteID),
		UserID:            userID,
		Currency:          currency,
		Items:             []CartItem{},
	}
}

// AddItem adds quantity of goods, merging into an existing line
func (c *Cart) AddItem(goods *catalog.Goods, siteCode string, quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if goods.Currency != c.Currency {
		return shared.NewDomainErrorf("CURRENCY_MISMATCH", "Goods is priced in %s but the cart uses %s", goods.Currency, c.Currency)
	}

	idx := c.indexOf(goods.ID)
	total := quantity
	if idx >= 0 {
		total += c.Items[idx].Quantity
	}
	if total > MaxQuantityPerLine {
		return shared.NewDomainErrorf("INVALID_QUANTITY", "Cannot add more than %d of one item", MaxQuantityPerLine)
	}
	if err := goods.CanPurchase(siteCode, total); err != nil {
		return err
	}

	if idx >= 0 {
		c.Items[idx].Quantity = total
		c.refreshLine(idx, goods)
	} else {
		if len(c.Items) >= MaxCartLines {
			return shared.NewDomainErrorf("CART_FULL", "Cart cannot hold more than %d different items", MaxCartLines)
		}
		c.Items = append(c.Items, CartItem{
			BaseEntity: shared.NewBaseEntity(),
			CartID:     c.ID,
			GoodsID:    goods.ID,
			Quantity:   total,
		})
		c.refreshLine(len(c.Items)-1, goods)
	}
	c.touch()
	return nil
}

// UpdateQuantity sets a line's quantity; zero removes the line
func (c *Cart) UpdateQuantity(goods *catalog.Goods, siteCode string, quantity int) error {
	idx := c.indexOf(goods.ID)
	if idx < 0 {
		return shared.ErrNotFound.WithMessage("Item is not in the cart")
	}
	if quantity == 0 {
		c.Items = slices.Delete(c.Items, idx, idx+1)
		c.touch()
		return nil
	}
	if quantity < 0 || quantity > MaxQuantityPerLine {
		return shared.NewDomainErrorf("INVALID_QUANTITY", "Quantity must be between 0 and %d", MaxQuantityPerLine)
	}
	if err := goods.CanPurchase(siteCode, quantity); err != nil {
		return err
	}
	c.Items[idx].Quantity = quantity
	c.refreshLine(idx, goods)
	c.touch()
	return nil
}

// RemoveItem drops a line
func (c *Cart) RemoveItem(goodsID uuid.UUID) error {
	idx := c.indexOf(goodsID)
	if idx < 0 {
		return shared.ErrNotFound.WithMessage("Item is not in the cart")
	}
	c.Items = slices.Delete(c.Items, idx, idx+1)
	c.touch()
	return nil
}

// RemoveItems drops every line for the given goods, ignoring unknown IDs
func (c *Cart) RemoveItems(goodsIDs []uuid.UUID) {
	c.Items = slices.DeleteFunc(c.Items, func(i CartItem) bool {
		return slices.Contains(goodsIDs, i.GoodsID)
	})
	c.touch()
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.touch()
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Total returns the sum of all line subtotals
func (c *Cart) Total() valueobject.Money {
	sum := decimal.Zero
	for _, i := range c.Items {
		sum = sum.Add(i.Subtotal())
	}
	return valueobject.MustMoney(sum, c.Currency)
}

// ItemCount returns the total number of units
func (c *Cart) ItemCount() int {
	n := 0
	for _, i := range c.Items {
		n += i.Quantity
	}
	return n
}

func (c *Cart) indexOf(goodsID uuid.UUID) int {
	return slices.IndexFunc(c.Items, func(i CartItem) bool { return i.GoodsID == goodsID })
}

func (c *Cart) refreshLine(idx int, goods *catalog.Goods) {
	c.Items[idx].GoodsName = goods.Name
	c.Items[idx].SKU = goods.SKU
	c.Items[idx].ImageURL = goods.PrimaryImageURL()
	c.Items[idx].UnitPrice = goods.Price
	c.Items[idx].UpdatedAt = time.Now()
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
