package identity

import (
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/identity"
	"github.com/google/uuid"
)

// SiteScope identifies the storefront a request arrived on
type SiteScope struct {
	ID   uuid.UUID
	Code string
}

// RegisterInput contains sign-up data
type RegisterInput struct {
	Site        SiteScope
	Email       string `json:"email" binding:"required,email,max=200"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	DisplayName string `json:"display_name" binding:"max=100"`
	IP          string `json:"-"`
}

// LoginInput contains login credentials
type LoginInput struct {
	Site     SiteScope
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	IP       string `json:"-"`
}

// RefreshTokenInput contains a refresh token
type RefreshTokenInput struct {
	Site         SiteScope
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutInput identifies the access token to revoke
type LogoutInput struct {
	UserID     uuid.UUID
	TokenID    string
	TokenTTL   time.Duration
	AllDevices bool `json:"all_devices"`
}

// ChangePasswordInput contains old and new passwords
type ChangePasswordInput struct {
	UserID      uuid.UUID `json:"-"`
	OldPassword string    `json:"old_password" binding:"required"`
	NewPassword string    `json:"new_password" binding:"required,min=8,max=72"`
}

// UpdateProfileInput changes profile fields
type UpdateProfileInput struct {
	UserID      uuid.UUID `json:"-"`
	DisplayName string    `json:"display_name" binding:"required,max=100"`
	Phone       string    `json:"phone" binding:"max=50"`
}

// AuthResult is returned by register, login and refresh
type AuthResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
	User                  UserDTO   `json:"user"`
}

// UserDTO is the public view of an account
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	SiteID      uuid.UUID  `json:"site_id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Phone       string     `json:"phone,omitempty"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// UserListFilter is the admin user list query
type UserListFilter struct {
	Search   string `form:"search"`
	Role     string `form:"role" binding:"omitempty,oneof=customer admin"`
	Status   string `form:"status" binding:"omitempty,oneof=active locked deactivated"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SetRoleInput changes a user's role
type SetRoleInput struct {
	Role string `json:"role" binding:"required,oneof=customer admin"`
}

// ToUserDTO converts a domain user
func ToUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		SiteID:      u.SiteID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Phone:       u.Phone,
		Role:        string(u.Role),
		Status:      string(u.Status),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
