// Package notification fans storefront events out to operator chats.
package notification

import (
	"context"

	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/google/uuid"
)

// Sender delivers one formatted message to one chat
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

// SiteLookup loads the site an event belongs to
type SiteLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*site.Site, error)
}
