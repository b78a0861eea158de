package shared

import (
	"time"

	"github.com/google/uuid"
)

// Now is the clock used for entity timestamps. Tests may replace it.
var Now = func() time.Time { return time.Now().UTC() }

// BaseEntity carries identity and audit timestamps for every stored row,
// aggregate or child (cart items, slides, refund details, webhook logs).
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBaseEntity() BaseEntity {
	now := Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch marks the entity as modified.
func (e *BaseEntity) Touch() {
	e.UpdatedAt = Now()
}

// IsZero reports whether the entity was never initialised.
func (e BaseEntity) IsZero() bool {
	return e.ID == uuid.Nil
}
