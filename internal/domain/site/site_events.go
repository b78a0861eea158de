package site

import "github.com/Marusmurong/mall-sub000/internal/domain/shared"

// AggregateTypeSite is the aggregate type for site events
const AggregateTypeSite = "Site"

// Event type constants
const (
	EventTypeSiteCreated       = "SiteCreated"
	EventTypeSiteStatusChanged = "SiteStatusChanged"
)

// SiteCreatedEvent is published when a storefront is registered
type SiteCreatedEvent struct {
	shared.BaseDomainEvent
	Code   string `json:"code"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// NewSiteCreatedEvent creates a new SiteCreatedEvent
func NewSiteCreatedEvent(s *Site) *SiteCreatedEvent {
	return &SiteCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSiteCreated, AggregateTypeSite, s.ID, s.ID),
		Code:            s.Code,
		Name:            s.Name,
		Domain:          s.Domain,
	}
}

// SiteStatusChangedEvent is published on activate/deactivate
type SiteStatusChangedEvent struct {
	shared.BaseDomainEvent
	Code   string `json:"code"`
	Status Status `json:"status"`
}

// NewSiteStatusChangedEvent creates a new SiteStatusChangedEvent
func NewSiteStatusChangedEvent(s *Site) *SiteStatusChangedEvent {
	return &SiteStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSiteStatusChanged, AggregateTypeSite, s.ID, s.ID),
		Code:            s.Code,
		Status:          s.Status,
	}
}
