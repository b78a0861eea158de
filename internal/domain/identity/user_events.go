package identity

import (
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeUser is the aggregate type for user events
const AggregateTypeUser = "User"

// EventTypeUserRegistered is raised when a customer signs up
const EventTypeUserRegistered = "UserRegistered"

// UserRegisteredEvent is raised when a customer signs up
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(u *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, u.ID, u.SiteID),
		UserID:          u.ID,
		Email:           u.Email,
		DisplayName:     u.DisplayName,
	}
}
