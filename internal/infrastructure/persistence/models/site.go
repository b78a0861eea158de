package models

import (
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/google/uuid"
)

// SiteModel is the persistence model for the Site aggregate root
type SiteModel struct {
	AggregateModel
	Code            string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name            string          `gorm:"type:varchar(100);not null"`
	Domain          string          `gorm:"type:varchar(255);index"`
	Description     string          `gorm:"type:text"`
	ContactEmail    string          `gorm:"type:varchar(200)"`
	Status          site.Status     `gorm:"type:varchar(20);not null;default:'active'"`
	DefaultCurrency string          `gorm:"type:varchar(10);not null;default:'USD'"`
	Features        map[string]bool `gorm:"type:text;serializer:json"`
	TelegramChatID  string          `gorm:"type:varchar(64)"`
}

// TableName returns the table name for GORM
func (SiteModel) TableName() string {
	return "sites"
}

// ToDomain converts the persistence model to a domain Site
func (m *SiteModel) ToDomain() *site.Site {
	features := m.Features
	if features == nil {
		features = make(map[string]bool)
	}
	return &site.Site{
		BaseAggregateRoot: m.root(),
		Code:              m.Code,
		Name:              m.Name,
		Domain:            m.Domain,
		Description:       m.Description,
		ContactEmail:      m.ContactEmail,
		Status:            m.Status,
		DefaultCurrency:   valueobject.Currency(m.DefaultCurrency),
		Features:          features,
		TelegramChatID:    m.TelegramChatID,
	}
}

// SiteModelFromDomain creates a persistence model from a domain Site
func SiteModelFromDomain(s *site.Site) *SiteModel {
	m := &SiteModel{
		Code:            s.Code,
		Name:            s.Name,
		Domain:          s.Domain,
		Description:     s.Description,
		ContactEmail:    s.ContactEmail,
		Status:          s.Status,
		DefaultCurrency: string(s.DefaultCurrency),
		Features:        s.Features,
		TelegramChatID:  s.TelegramChatID,
	}
	m.AggregateModel = aggregateFrom(s.BaseAggregateRoot)
	return m
}

// SiteThemeModel is the persistence model for a site theme (one per site)
type SiteThemeModel struct {
	BaseModel
	SiteID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	PrimaryColor   string    `gorm:"type:varchar(7)"`
	SecondaryColor string    `gorm:"type:varchar(7)"`
	LogoURL        string    `gorm:"type:varchar(500)"`
	FaviconURL     string    `gorm:"type:varchar(500)"`
	CustomCSS      string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SiteThemeModel) TableName() string {
	return "site_themes"
}

// ToDomain converts the persistence model to a domain Theme
func (m *SiteThemeModel) ToDomain() *site.Theme {
	return &site.Theme{
		BaseEntity:     m.BaseModel.entity(),
		SiteID:         m.SiteID,
		PrimaryColor:   m.PrimaryColor,
		SecondaryColor: m.SecondaryColor,
		LogoURL:        m.LogoURL,
		FaviconURL:     m.FaviconURL,
		CustomCSS:      m.CustomCSS,
	}
}

// SiteThemeModelFromDomain creates a persistence model from a domain Theme
func SiteThemeModelFromDomain(t *site.Theme) *SiteThemeModel {
	m := &SiteThemeModel{
		SiteID:         t.SiteID,
		PrimaryColor:   t.PrimaryColor,
		SecondaryColor: t.SecondaryColor,
		LogoURL:        t.LogoURL,
		FaviconURL:     t.FaviconURL,
		CustomCSS:      t.CustomCSS,
	}
	m.BaseModel = baseFrom(t.BaseEntity)
	return m
}

// SiteConfigModel is the persistence model for a site key/value setting
type SiteConfigModel struct {
	BaseModel
	SiteID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_site_config_key,priority:1"`
	Key         string    `gorm:"column:config_key;type:varchar(100);not null;uniqueIndex:idx_site_config_key,priority:2"`
	Value       string    `gorm:"type:text"`
	Description string    `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (SiteConfigModel) TableName() string {
	return "site_configs"
}

// ToDomain converts the persistence model to a domain Config
func (m *SiteConfigModel) ToDomain() *site.Config {
	return &site.Config{
		BaseEntity:  m.BaseModel.entity(),
		SiteID:      m.SiteID,
		Key:         m.Key,
		Value:       m.Value,
		Description: m.Description,
	}
}

// SiteConfigModelFromDomain creates a persistence model from a domain Config
func SiteConfigModelFromDomain(c *site.Config) *SiteConfigModel {
	m := &SiteConfigModel{SiteID: c.SiteID, Key: c.Key, Value: c.Value, Description: c.Description}
	m.BaseModel = baseFrom(c.BaseEntity)
	return m
}

// SiteSlideModel is the persistence model for a carousel slide
type SiteSlideModel struct {
	BaseModel
	SiteID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"type:varchar(200)"`
	Subtitle  string    `gorm:"type:varchar(500)"`
	ImageURL  string    `gorm:"type:varchar(500);not null"`
	LinkURL   string    `gorm:"type:varchar(500)"`
	SortOrder int       `gorm:"not null;default:0"`
	Active    bool      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SiteSlideModel) TableName() string {
	return "site_slides"
}

// ToDomain converts the persistence model to a domain Slide
func (m *SiteSlideModel) ToDomain() *site.Slide {
	return &site.Slide{
		BaseEntity: m.BaseModel.entity(),
		SiteID:     m.SiteID,
		Title:      m.Title,
		Subtitle:   m.Subtitle,
		ImageURL:   m.ImageURL,
		LinkURL:    m.LinkURL,
		SortOrder:  m.SortOrder,
		Active:     m.Active,
	}
}

// SiteSlideModelFromDomain creates a persistence model from a domain Slide
func SiteSlideModelFromDomain(s *site.Slide) *SiteSlideModel {
	m := &SiteSlideModel{
		SiteID:    s.SiteID,
		Title:     s.Title,
		Subtitle:  s.Subtitle,
		ImageURL:  s.ImageURL,
		LinkURL:   s.LinkURL,
		SortOrder: s.SortOrder,
		Active:    s.Active,
	}
	m.BaseModel = baseFrom(s.BaseEntity)
	return m
}
