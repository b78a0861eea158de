package site

import (
	"regexp"
	"strings"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

var (
	hexColorPattern  = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	configKeyPattern = regexp.MustCompile(`^[a-z0-9_.]{1,100}$`)
)

// Theme holds branding for one site. A site has at most one theme.
type Theme struct {
	shared.BaseEntity
	SiteID         uuid.UUID
	PrimaryColor   string
	SecondaryColor string
	LogoURL        string
	FaviconURL     string
	CustomCSS      string
}

// NewTheme creates a theme with the default palette
func NewTheme(siteID uuid.UUID) *Theme {
	return &Theme{
		BaseEntity:     shared.NewBaseEntity(),
		SiteID:         siteID,
		PrimaryColor:   "#1f2937",
		SecondaryColor: "#f59e0b",
	}
}

// Apply replaces all theme fields after validating colours
func (t *Theme) Apply(primary, secondary, logoURL, faviconURL, customCSS string) error {
	for _, c := range []string{primary, secondary} {
		if c != "" && !hexColorPattern.MatchString(c) {
			return shared.NewDomainErrorf("INVALID_COLOR", "Invalid colour %q, expected #rgb or #rrggbb", c)
		}
	}
	if primary != "" {
		t.PrimaryColor = strings.ToLower(primary)
	}
	if secondary != "" {
		t.SecondaryColor = strings.ToLower(secondary)
	}
	t.LogoURL = logoURL
	t.FaviconURL = faviconURL
	t.CustomCSS = customCSS
	t.UpdatedAt = time.Now()
	return nil
}

// Config is a free-form key/value setting scoped to a site
type Config struct {
	shared.BaseEntity
	SiteID      uuid.UUID
	Key         string
	Value       string
	Description string
}

// NewConfig validates the key and creates a setting
func NewConfig(siteID uuid.UUID, key, value, description string) (*Config, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if !configKeyPattern.MatchString(key) {
		return nil, shared.NewDomainError("INVALID_CONFIG_KEY", "Config key must match [a-z0-9_.]{1,100}")
	}
	return &Config{
		BaseEntity:  shared.NewBaseEntity(),
		SiteID:      siteID,
		Key:         key,
		Value:       value,
		Description: description,
	}, nil
}

// SetValue replaces the value
func (c *Config) SetValue(value, description string) {
	c.Value = value
	if description != "" {
		c.Description = description
	}
	c.UpdatedAt = time.Now()
}

// Slide is a homepage carousel banner
type Slide struct {
	shared.BaseEntity
	SiteID    uuid.UUID
	Title     string
	Subtitle  string
	ImageURL  string
	LinkURL   string
	SortOrder int
	Active    bool
}

// NewSlide creates an active slide
func NewSlide(siteID uuid.UUID, title, imageURL string) (*Slide, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, shared.NewDomainError("INVALID_SLIDE", "Slide image URL is required")
	}
	if len(title) > 200 {
		return nil, shared.NewDomainError("INVALID_SLIDE", "Slide title cannot exceed 200 characters")
	}
	return &Slide{
		BaseEntity: shared.NewBaseEntity(),
		SiteID:     siteID,
		Title:      title,
		ImageURL:   imageURL,
		Active:     true,
	}, nil
}

// Update replaces slide content
func (s *Slide) Update(title, subtitle, imageURL, linkURL string, sortOrder int, active bool) error {
	if strings.TrimSpace(imageURL) == "" {
		return shared.NewDomainError("INVALID_SLIDE", "Slide image URL is required")
	}
	s.Title = title
	s.Subtitle = subtitle
	s.ImageURL = imageURL
	s.LinkURL = linkURL
	s.SortOrder = sortOrder
	s.Active = active
	s.UpdatedAt = time.Now()
	return nil
}
