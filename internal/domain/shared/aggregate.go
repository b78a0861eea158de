package shared

import (
	"github.com/google/uuid"
)

// BaseAggregateRoot adds an optimistic-lock version and the events raised
// since the aggregate was loaded.
//
// Version is bumped once per save. persistedVersion is the value the row
// held when it was read, which repositories use in the UPDATE guard.
type BaseAggregateRoot struct {
	BaseEntity
	Version int

	events           []DomainEvent
	persistedVersion int
}

func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

func (a *BaseAggregateRoot) GetVersion() int   { return a.Version }
func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

// PersistedVersion is 0 for an aggregate that has never been saved.
func (a *BaseAggregateRoot) PersistedVersion() int { return a.persistedVersion }

func (a *BaseAggregateRoot) MarkPersisted() { a.persistedVersion = a.Version }

func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent { return a.events }

func (a *BaseAggregateRoot) ClearDomainEvents() { a.events = nil }

// SiteAggregateRoot is an aggregate owned by exactly one storefront site.
type SiteAggregateRoot struct {
	BaseAggregateRoot
	SiteID uuid.UUID
}

func NewSiteAggregateRoot(siteID uuid.UUID) SiteAggregateRoot {
	return SiteAggregateRoot{BaseAggregateRoot: NewBaseAggregateRoot(), SiteID: siteID}
}

// BelongsTo reports whether the aggregate is owned by siteID.
func (a *SiteAggregateRoot) BelongsTo(siteID uuid.UUID) bool {
	return a.SiteID != uuid.Nil && a.SiteID == siteID
}
