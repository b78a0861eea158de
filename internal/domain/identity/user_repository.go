package identity

import (
	"context"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence.
//
// Filter keys: "role" (Role), "status" (UserStatus). Search matches email
// and display name.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByEmail looks up an account within a site
	FindByEmail(ctx context.Context, siteID uuid.UUID, email string) (*User, error)
	ExistsByEmail(ctx context.Context, siteID uuid.UUID, email string) (bool, error)
	FindAllForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) ([]User, error)
	CountForSite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, user *User) error
}
