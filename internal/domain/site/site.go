package site

import (
	"regexp"
	"strings"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
)

// Status represents whether a storefront is serving traffic
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// Feature flag keys understood by the storefront
const (
	FeatureWishlist              = "wishlist"
	FeatureTelegramNotifications = "telegram_notifications"
	FeaturePaymentUSDT           = "payment_usdt"
	FeaturePaymentPayPal         = "payment_paypal"
	FeaturePaymentCreditCard     = "payment_credit_card"
	FeaturePaymentCoinbase       = "payment_coinbase"
)

// DefaultFeatures are applied when a site has not set a flag explicitly
var DefaultFeatures = map[string]bool{
	FeatureWishlist:              true,
	FeatureTelegramNotifications: true,
	FeaturePaymentUSDT:           true,
	FeaturePaymentPayPal:         true,
	FeaturePaymentCreditCard:     true,
	FeaturePaymentCoinbase:       true,
}

var siteCodePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,49}$`)

// Site is one storefront instance sharing the common catalog backend.
// It controls branding, domain routing and feature flags.
type Site struct {
	shared.BaseAggregateRoot
	Code            string
	Name            string
	Domain          string
	Description     string
	ContactEmail    string
	Status          Status
	DefaultCurrency valueobject.Currency
	Features        map[string]bool
	TelegramChatID  string
}

// NewSite creates an active site
func NewSite(code, name, domain string, currency valueobject.Currency) (*Site, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if !siteCodePattern.MatchString(code) {
		return nil, shared.NewDomainError("INVALID_SITE_CODE", "Site code must be 2-50 lowercase letters, digits or dashes")
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	s := &Site{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              strings.TrimSpace(name),
		Domain:            normalizeDomain(domain),
		Status:            StatusActive,
		DefaultCurrency:   currency,
		Features:          make(map[string]bool),
	}
	s.AddDomainEvent(NewSiteCreatedEvent(s))
	return s, nil
}

// Update changes descriptive fields
func (s *Site) Update(name, domain, description, contactEmail string) error {
	if err := validateName(name); err != nil {
		return err
	}
	s.Name = strings.TrimSpace(name)
	s.Domain = normalizeDomain(domain)
	s.Description = description
	s.ContactEmail = strings.TrimSpace(contactEmail)
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// SetDefaultCurrency changes the currency new carts and orders use
func (s *Site) SetDefaultCurrency(currency valueobject.Currency) {
	s.DefaultCurrency = currency
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// Activate puts the site back online
func (s *Site) Activate() error {
	if s.Status == StatusActive {
		return shared.ErrInvalidState.WithMessage("Site is already active")
	}
	s.Status = StatusActive
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	s.AddDomainEvent(NewSiteStatusChangedEvent(s))
	return nil
}

// Deactivate takes the site offline
func (s *Site) Deactivate() error {
	if s.Status == StatusInactive {
		return shared.ErrInvalidState.WithMessage("Site is already inactive")
	}
	s.Status = StatusInactive
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	s.AddDomainEvent(NewSiteStatusChangedEvent(s))
	return nil
}

// IsActive reports whether the site serves traffic
func (s *Site) IsActive() bool {
	return s.Status == StatusActive
}

// SetFeature sets an explicit flag value
func (s *Site) SetFeature(key string, enabled bool) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return shared.NewDomainError("INVALID_FEATURE", "Feature key cannot be empty")
	}
	if s.Features == nil {
		s.Features = make(map[string]bool)
	}
	s.Features[key] = enabled
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// HasFeature reports the effective value of a flag
func (s *Site) HasFeature(key string) bool {
	if v, ok := s.Features[key]; ok {
		return v
	}
	return DefaultFeatures[key]
}

// SetTelegramChatID sets the chat receiving this site's notifications
func (s *Site) SetTelegramChatID(chatID string) {
	s.TelegramChatID = strings.TrimSpace(chatID)
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_SITE_NAME", "Site name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_SITE_NAME", "Site name cannot exceed 100 characters")
	}
	return nil
}

// normalizeDomain strips scheme, port and trailing dots so Host headers match
func normalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexAny(d, "/:"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimSuffix(d, ".")
}

// NormalizeHost is applied to incoming Host headers before domain lookup
func NormalizeHost(host string) string {
	return normalizeDomain(host)
}
