package shopping

import (
	"crypto/rand"
	"encoding/hex"
	"slices"
	"strings"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemPaymentStatus mirrors the state of the payment buying a wishlist item
type ItemPaymentStatus string

const (
	ItemPaymentNone       ItemPaymentStatus = "none"
	ItemPaymentPending    ItemPaymentStatus = "pending"
	ItemPaymentProcessing ItemPaymentStatus = "processing"
	ItemPaymentPaid       ItemPaymentStatus = "paid"
	ItemPaymentFailed     ItemPaymentStatus = "failed"
)

// InFlight reports whether a payment is currently running for the item
func (s ItemPaymentStatus) InFlight() bool {
	return s == ItemPaymentPending || s == ItemPaymentProcessing
}

// Wishlist is a user-curated list that third parties can pay for
// once it is shared.
type Wishlist struct {
	shared.SiteAggregateRoot
	UserID      uuid.UUID
	Name        string
	Description string
	ShareToken  string
	Public      bool
	Items       []WishlistItem
}

// WishlistItem references goods and carries purchase mirror fields
type WishlistItem struct {
	shared.BaseEntity
	WishlistID    uuid.UUID
	GoodsID       uuid.UUID
	GoodsName     string
	UnitPrice     decimal.Decimal
	Currency      valueobject.Currency
	Quantity      int
	Note          string
	PaymentStatus ItemPaymentStatus
	PaymentID     *uuid.UUID
	PurchasedBy   *uuid.UUID
	PurchaserName string
	PurchasedAt   *time.Time
}

// NewWishlist creates a private wishlist
func NewWishlist(siteID, userID uuid.UUID, name string) (*Wishlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_WISHLIST_NAME", "Wishlist name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_WISHLIST_NAME", "Wishlist name cannot exceed 100 characters")
	}
	return &Wishlist{
		SiteAggregateRoot: shared.NewSiteAggregateRoot(siteID),
		UserID:            userID,
		Name:              name,
		Items:             []WishlistItem{},
	}, nil
}

// Rename changes name and description
func (w *Wishlist) Rename(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_WISHLIST_NAME", "Wishlist name cannot be empty")
	}
	w.Name = name
	w.Description = description
	w.touch()
	return nil
}

// Share makes the wishlist public and issues a share token if none exists
func (w *Wishlist) Share() error {
	if w.ShareToken == "" {
		token, err := newShareToken()
		if err != nil {
			return err
		}
		w.ShareToken = token
	}
	w.Public = true
	w.touch()
	return nil
}

// Unshare hides the wishlist and revokes its token. Sharing again issues
// a new one, so links handed out before stop working.
func (w *Wishlist) Unshare() {
	w.Public = false
	w.ShareToken = ""
	w.touch()
}

// AddItem puts goods on the list
func (w *Wishlist) AddItem(goods *catalog.Goods, siteCode string, quantity int, note string) (*WishlistItem, error) {
	if quantity <= 0 {
		quantity = 1
	}
	if !goods.IsVisibleIn(siteCode) {
		return nil, shared.ErrNotVisible
	}
	if slices.ContainsFunc(w.Items, func(i WishlistItem) bool {
		return i.GoodsID == goods.ID && i.PaymentStatus != ItemPaymentPaid
	}) {
		return nil, shared.ErrAlreadyExists.WithMessage("Goods is already on this wishlist")
	}
	item := WishlistItem{
		BaseEntity:    shared.NewBaseEntity(),
		WishlistID:    w.ID,
		GoodsID:       goods.ID,
		GoodsName:     goods.Name,
		UnitPrice:     goods.Price,
		Currency:      goods.Currency,
		Quantity:      quantity,
		Note:          note,
		PaymentStatus: ItemPaymentNone,
	}
	w.Items = append(w.Items, item)
	w.touch()
	return &w.Items[len(w.Items)-1], nil
}

// RemoveItem deletes an item unless a payment for it is running
func (w *Wishlist) RemoveItem(itemID uuid.UUID) error {
	idx := slices.IndexFunc(w.Items, func(i WishlistItem) bool { return i.ID == itemID })
	if idx < 0 {
		return shared.ErrNotFound
	}
	if w.Items[idx].PaymentStatus.InFlight() {
		return shared.ErrInvalidState.WithMessage("Cannot remove an item while it is being paid for")
	}
	w.Items = slices.Delete(w.Items, idx, idx+1)
	w.touch()
	return nil
}

// Item returns the item with the given ID
func (w *Wishlist) Item(itemID uuid.UUID) (*WishlistItem, error) {
	for i := range w.Items {
		if w.Items[i].ID == itemID {
			return &w.Items[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// CanBeViewedBy reports whether userID may read the wishlist.
// Owners always can; everyone else only when it is public.
func (w *Wishlist) CanBeViewedBy(userID uuid.UUID) bool {
	return w.Public || w.UserID == userID
}

// Amount returns unit price times quantity
func (i *WishlistItem) Amount() valueobject.Money {
	return valueobject.MustMoney(i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))), i.Currency)
}

// BeginPayment attaches a new payment. Allowed when nothing is paid or in flight.
func (i *WishlistItem) BeginPayment(paymentID uuid.UUID, purchaserID *uuid.UUID, purchaserName string) error {
	switch i.PaymentStatus {
	case ItemPaymentPaid:
		return shared.NewDomainError("ALREADY_PAID", "Wishlist item has already been paid for")
	case ItemPaymentPending, ItemPaymentProcessing:
		return shared.NewDomainError("PAYMENT_IN_PROGRESS", "A payment for this wishlist item is already in progress")
	}
	i.PaymentID = &paymentID
	i.PurchasedBy = purchaserID
	i.PurchaserName = strings.TrimSpace(purchaserName)
	i.PaymentStatus = ItemPaymentPending
	i.UpdatedAt = time.Now()
	return nil
}

// SyncPayment applies a payment status change to the mirror fields.
// Updates from a payment other than the attached one are ignored.
func (i *WishlistItem) SyncPayment(paymentID uuid.UUID, status ItemPaymentStatus) bool {
	if i.PaymentID == nil || *i.PaymentID != paymentID {
		return false
	}
	if i.PaymentStatus == ItemPaymentPaid {
		return false
	}
	now := time.Now()
	switch status {
	case ItemPaymentProcessing:
		if i.PaymentStatus != ItemPaymentPending {
			return false
		}
	case ItemPaymentPaid:
		i.PurchasedAt = &now
	case ItemPaymentFailed:
	case ItemPaymentNone:
		i.PaymentID = nil
		i.PurchasedBy = nil
		i.PurchaserName = ""
	default:
		return false
	}
	i.PaymentStatus = status
	i.UpdatedAt = now
	return true
}

func (w *Wishlist) touch() {
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
}

func newShareToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
