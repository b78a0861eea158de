package identity

import (
	"context"

	"github.com/Marusmurong/mall-sub000/internal/domain/identity"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService is the admin view over a site's accounts
type UserService struct {
	userRepo  identity.UserRepository
	blacklist auth.TokenBlacklist
	config    AuthServiceConfig
	logger    *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo identity.UserRepository, blacklist auth.TokenBlacklist, config AuthServiceConfig, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, blacklist: blacklist, config: config, logger: logger}
}

// List returns a page of the site's users
func (s *UserService) List(ctx context.Context, siteID uuid.UUID, filter UserListFilter) ([]UserDTO, int64, error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Search:   filter.Search,
		Filters:  map[string]any{},
	}
	if filter.Role != "" {
		f.Filters["role"] = identity.Role(filter.Role)
	}
	if filter.Status != "" {
		f.Filters["status"] = identity.UserStatus(filter.Status)
	}
	f.Normalize()

	users, err := s.userRepo.FindAllForSite(ctx, siteID, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.userRepo.CountForSite(ctx, siteID, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]UserDTO, len(users))
	for i := range users {
		out[i] = ToUserDTO(&users[i])
	}
	return out, total, nil
}

// GetByID returns one of the site's users
func (s *UserService) GetByID(ctx context.Context, siteID, id uuid.UUID) (*UserDTO, error) {
	user, err := s.find(ctx, siteID, id)
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// SetRole promotes or demotes a user
func (s *UserService) SetRole(ctx context.Context, siteID, id uuid.UUID, input SetRoleInput) (*UserDTO, error) {
	return s.mutate(ctx, siteID, id, func(u *identity.User) error {
		return u.SetRole(identity.Role(input.Role))
	}, true)
}

// Activate re-enables a deactivated or locked account
func (s *UserService) Activate(ctx context.Context, siteID, id uuid.UUID) (*UserDTO, error) {
	return s.mutate(ctx, siteID, id, (*identity.User).Activate, false)
}

// Deactivate disables an account and revokes its tokens
func (s *UserService) Deactivate(ctx context.Context, siteID, id uuid.UUID) (*UserDTO, error) {
	return s.mutate(ctx, siteID, id, (*identity.User).Deactivate, true)
}

func (s *UserService) mutate(ctx context.Context, siteID, id uuid.UUID, fn func(*identity.User) error, revoke bool) (*UserDTO, error) {
	user, err := s.find(ctx, siteID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(user); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	if revoke && s.blacklist != nil {
		if err := s.blacklist.InvalidateUserTokens(ctx, user.ID.String(), s.config.RefreshTTL); err != nil {
			s.logger.Warn("Failed to revoke user tokens", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) find(ctx context.Context, siteID, id uuid.UUID) (*identity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.BelongsTo(siteID) {
		return nil, shared.ErrNotFound
	}
	return user, nil
}
