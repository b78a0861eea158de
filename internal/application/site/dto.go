package site

import (
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/google/uuid"
)

// CreateSiteRequest represents a request to register a storefront
type CreateSiteRequest struct {
	Code            string `json:"code" binding:"required,sitecode"`
	Name            string `json:"name" binding:"required,min=1,max=100"`
	Domain          string `json:"domain" binding:"omitempty,max=255"`
	Description     string `json:"description" binding:"max=2000"`
	ContactEmail    string `json:"contact_email" binding:"omitempty,email"`
	DefaultCurrency string `json:"default_currency" binding:"omitempty,len=3|len=4"`
	TelegramChatID  string `json:"telegram_chat_id" binding:"max=64"`
}

// UpdateSiteRequest replaces the descriptive fields of a site
type UpdateSiteRequest struct {
	Name            string  `json:"name" binding:"required,min=1,max=100"`
	Domain          string  `json:"domain" binding:"omitempty,max=255"`
	Description     string  `json:"description" binding:"max=2000"`
	ContactEmail    string  `json:"contact_email" binding:"omitempty,email"`
	DefaultCurrency string  `json:"default_currency" binding:"omitempty,len=3|len=4"`
	TelegramChatID  *string `json:"telegram_chat_id" binding:"omitempty,max=64"`
}

// SetFeaturesRequest sets explicit feature flag values
type SetFeaturesRequest struct {
	Features map[string]bool `json:"features" binding:"required"`
}

// SiteListFilter represents admin list options
type SiteListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SiteResponse represents a site in admin responses
type SiteResponse struct {
	ID              uuid.UUID       `json:"id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Domain          string          `json:"domain"`
	Description     string          `json:"description"`
	ContactEmail    string          `json:"contact_email"`
	Status          string          `json:"status"`
	DefaultCurrency string          `json:"default_currency"`
	Features        map[string]bool `json:"features"`
	TelegramChatID  string          `json:"telegram_chat_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// PublicSiteResponse is what the storefront needs to render itself
type PublicSiteResponse struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	ContactEmail    string          `json:"contact_email"`
	DefaultCurrency string          `json:"default_currency"`
	Features        map[string]bool `json:"features"`
	PaymentMethods  []string        `json:"payment_methods"`
	Theme           ThemeResponse   `json:"theme"`
}

// ToSiteResponse converts a domain site
func ToSiteResponse(s *site.Site) SiteResponse {
	return SiteResponse{
		ID:              s.ID,
		Code:            s.Code,
		Name:            s.Name,
		Domain:          s.Domain,
		Description:     s.Description,
		ContactEmail:    s.ContactEmail,
		Status:          string(s.Status),
		DefaultCurrency: string(s.DefaultCurrency),
		Features:        effectiveFeatures(s),
		TelegramChatID:  s.TelegramChatID,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		Version:         s.Version,
	}
}

// effectiveFeatures merges explicit flags over the defaults
func effectiveFeatures(s *site.Site) map[string]bool {
	out := make(map[string]bool, len(site.DefaultFeatures)+len(s.Features))
	for k := range site.DefaultFeatures {
		out[k] = s.HasFeature(k)
	}
	for k, v := range s.Features {
		out[k] = v
	}
	return out
}

// UpdateThemeRequest replaces the theme
type UpdateThemeRequest struct {
	PrimaryColor   string `json:"primary_color" binding:"omitempty,hexcolor"`
	SecondaryColor string `json:"secondary_color" binding:"omitempty,hexcolor"`
	LogoURL        string `json:"logo_url" binding:"omitempty,url"`
	FaviconURL     string `json:"favicon_url" binding:"omitempty,url"`
	CustomCSS      string `json:"custom_css" binding:"max=50000"`
}

// ThemeResponse represents a site theme
type ThemeResponse struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	LogoURL        string `json:"logo_url"`
	FaviconURL     string `json:"favicon_url"`
	CustomCSS      string `json:"custom_css"`
}

// ToThemeResponse converts a domain theme
func ToThemeResponse(t *site.Theme) ThemeResponse {
	return ThemeResponse{
		PrimaryColor:   t.PrimaryColor,
		SecondaryColor: t.SecondaryColor,
		LogoURL:        t.LogoURL,
		FaviconURL:     t.FaviconURL,
		CustomCSS:      t.CustomCSS,
	}
}

// SetConfigRequest upserts one key
type SetConfigRequest struct {
	Value       string `json:"value" binding:"max=10000"`
	Description string `json:"description" binding:"max=500"`
}

// ConfigResponse represents a site setting
type ConfigResponse struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToConfigResponse converts a domain config row
func ToConfigResponse(c *site.Config) ConfigResponse {
	return ConfigResponse{Key: c.Key, Value: c.Value, Description: c.Description, UpdatedAt: c.UpdatedAt}
}

// SlideRequest creates or replaces a slide
type SlideRequest struct {
	Title     string `json:"title" binding:"max=200"`
	Subtitle  string `json:"subtitle" binding:"max=500"`
	ImageURL  string `json:"image_url" binding:"required"`
	LinkURL   string `json:"link_url" binding:"omitempty,max=500"`
	SortOrder int    `json:"sort_order"`
	Active    *bool  `json:"active"`
}

// SlideResponse represents a carousel slide
type SlideResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	ImageURL  string    `json:"image_url"`
	LinkURL   string    `json:"link_url"`
	SortOrder int       `json:"sort_order"`
	Active    bool      `json:"active"`
}

// ToSlideResponses converts domain slides
func ToSlideResponses(slides []site.Slide) []SlideResponse {
	out := make([]SlideResponse, len(slides))
	for i := range slides {
		s := &slides[i]
		out[i] = SlideResponse{
			ID:        s.ID,
			Title:     s.Title,
			Subtitle:  s.Subtitle,
			ImageURL:  s.ImageURL,
			LinkURL:   s.LinkURL,
			SortOrder: s.SortOrder,
			Active:    s.Active,
		}
	}
	return out
}
