package catalog

import (
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeGoods is the aggregate type for goods events
const AggregateTypeGoods = "Goods"

// Event type constants
const (
	EventTypeGoodsCreated       = "GoodsCreated"
	EventTypeGoodsStatusChanged = "GoodsStatusChanged"
)

// GoodsCreatedEvent is published when goods are added to the catalog
type GoodsCreatedEvent struct {
	shared.BaseDomainEvent
	GoodsID uuid.UUID `json:"goods_id"`
	SKU     string    `json:"sku"`
	Name    string    `json:"name"`
}

// NewGoodsCreatedEvent creates a new GoodsCreatedEvent.
// Catalog events are not owned by any single site, so SiteID is nil.
func NewGoodsCreatedEvent(g *Goods) *GoodsCreatedEvent {
	return &GoodsCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGoodsCreated, AggregateTypeGoods, g.ID, uuid.Nil),
		GoodsID:         g.ID,
		SKU:             g.SKU,
		Name:            g.Name,
	}
}

// GoodsStatusChangedEvent is published on publish/unpublish
type GoodsStatusChangedEvent struct {
	shared.BaseDomainEvent
	GoodsID   uuid.UUID   `json:"goods_id"`
	OldStatus GoodsStatus `json:"old_status"`
	NewStatus GoodsStatus `json:"new_status"`
}

// NewGoodsStatusChangedEvent creates a new GoodsStatusChangedEvent
func NewGoodsStatusChangedEvent(g *Goods, old GoodsStatus) *GoodsStatusChangedEvent {
	return &GoodsStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGoodsStatusChanged, AggregateTypeGoods, g.ID, uuid.Nil),
		GoodsID:         g.ID,
		OldStatus:       old,
		NewStatus:       g.Status,
	}
}
