package site

import (
	"context"
	"errors"
	"strings"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SiteService manages storefront sites and their presentation settings
type SiteService struct {
	siteRepo       site.SiteRepository
	themeRepo      site.ThemeRepository
	configRepo     site.ConfigRepository
	slideRepo      site.SlideRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSiteService creates a new SiteService
func NewSiteService(
	siteRepo site.SiteRepository,
	themeRepo site.ThemeRepository,
	configRepo site.ConfigRepository,
	slideRepo site.SlideRepository,
	logger *zap.Logger,
) *SiteService {
	return &SiteService{
		siteRepo:   siteRepo,
		themeRepo:  themeRepo,
		configRepo: configRepo,
		slideRepo:  slideRepo,
		logger:     logger,
	}
}

// SetEventPublisher sets the publisher for site events
func (s *SiteService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Resolve picks the site for a request: an explicit code wins, then the
// host, then the fallback code. Inactive sites are reported as not found.
func (s *SiteService) Resolve(ctx context.Context, code, host, fallback string) (*site.Site, error) {
	var (
		st  *site.Site
		err error
	)
	switch {
	case strings.TrimSpace(code) != "":
		st, err = s.siteRepo.FindByCode(ctx, strings.ToLower(strings.TrimSpace(code)))
	case host != "":
		st, err = s.siteRepo.FindByDomain(ctx, site.NormalizeHost(host))
		if errors.Is(err, shared.ErrNotFound) && fallback != "" {
			st, err = s.siteRepo.FindByCode(ctx, fallback)
		}
	case fallback != "":
		st, err = s.siteRepo.FindByCode(ctx, fallback)
	default:
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !st.IsActive() {
		return nil, shared.ErrNotFound
	}
	return st, nil
}

// Create registers a site with a default theme
func (s *SiteService) Create(ctx context.Context, req CreateSiteRequest) (*SiteResponse, error) {
	currency, err := parseCurrency(req.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	st, err := site.NewSite(req.Code, req.Name, req.Domain, currency)
	if err != nil {
		return nil, err
	}
	exists, err := s.siteRepo.ExistsByCode(ctx, st.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Site code %q is already taken", st.Code)
	}
	if err := st.Update(req.Name, req.Domain, req.Description, req.ContactEmail); err != nil {
		return nil, err
	}
	if req.TelegramChatID != "" {
		st.SetTelegramChatID(req.TelegramChatID)
	}

	if err := s.siteRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	if err := s.themeRepo.Save(ctx, site.NewTheme(st.ID)); err != nil {
		return nil, err
	}

	s.logger.Info("Site created", zap.String("code", st.Code), zap.String("domain", st.Domain))
	s.publish(ctx, st)
	resp := ToSiteResponse(st)
	return &resp, nil
}

// GetByID returns a site for admins
func (s *SiteService) GetByID(ctx context.Context, id uuid.UUID) (*SiteResponse, error) {
	st, err := s.siteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSiteResponse(st)
	return &resp, nil
}

// GetByCode returns a site by its code regardless of status
func (s *SiteService) GetByCode(ctx context.Context, code string) (*SiteResponse, error) {
	st, err := s.siteRepo.FindByCode(ctx, strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	resp := ToSiteResponse(st)
	return &resp, nil
}

// List lists sites
func (s *SiteService) List(ctx context.Context, filter SiteListFilter) ([]SiteResponse, int64, error) {
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize, Search: filter.Search, Filters: make(map[string]any)}
	f.Normalize()
	if filter.Status != "" {
		f.Filters["status"] = site.Status(filter.Status)
	}
	sites, err := s.siteRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.siteRepo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SiteResponse, len(sites))
	for i := range sites {
		out[i] = ToSiteResponse(&sites[i])
	}
	return out, total, nil
}

// Update changes descriptive fields
func (s *SiteService) Update(ctx context.Context, id uuid.UUID, req UpdateSiteRequest) (*SiteResponse, error) {
	st, err := s.siteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := st.Update(req.Name, req.Domain, req.Description, req.ContactEmail); err != nil {
		return nil, err
	}
	if req.DefaultCurrency != "" {
		currency, err := parseCurrency(req.DefaultCurrency)
		if err != nil {
			return nil, err
		}
		st.SetDefaultCurrency(currency)
	}
	if req.TelegramChatID != nil {
		st.SetTelegramChatID(*req.TelegramChatID)
	}
	if err := s.siteRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	resp := ToSiteResponse(st)
	return &resp, nil
}

// Activate puts a site online
func (s *SiteService) Activate(ctx context.Context, id uuid.UUID) (*SiteResponse, error) {
	return s.changeStatus(ctx, id, (*site.Site).Activate)
}

// Deactivate takes a site offline
func (s *SiteService) Deactivate(ctx context.Context, id uuid.UUID) (*SiteResponse, error) {
	return s.changeStatus(ctx, id, (*site.Site).Deactivate)
}

func (s *SiteService) changeStatus(ctx context.Context, id uuid.UUID, apply func(*site.Site) error) (*SiteResponse, error) {
	st, err := s.siteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(st); err != nil {
		return nil, err
	}
	if err := s.siteRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	s.logger.Info("Site status changed", zap.String("code", st.Code), zap.String("status", string(st.Status)))
	s.publish(ctx, st)
	resp := ToSiteResponse(st)
	return &resp, nil
}

// SetFeatures sets explicit feature flags
func (s *SiteService) SetFeatures(ctx context.Context, id uuid.UUID, req SetFeaturesRequest) (*SiteResponse, error) {
	st, err := s.siteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for key, enabled := range req.Features {
		if err := st.SetFeature(key, enabled); err != nil {
			return nil, err
		}
	}
	if err := s.siteRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	resp := ToSiteResponse(st)
	return &resp, nil
}

// Public returns the storefront view of a resolved site
func (s *SiteService) Public(ctx context.Context, st *site.Site, paymentMethods []string) (*PublicSiteResponse, error) {
	theme, err := s.theme(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	if paymentMethods == nil {
		paymentMethods = []string{}
	}
	return &PublicSiteResponse{
		Code:            st.Code,
		Name:            st.Name,
		Description:     st.Description,
		ContactEmail:    st.ContactEmail,
		DefaultCurrency: string(st.DefaultCurrency),
		Features:        effectiveFeatures(st),
		PaymentMethods:  paymentMethods,
		Theme:           ToThemeResponse(theme),
	}, nil
}

// GetTheme returns the site theme, or the default palette when none was saved
func (s *SiteService) GetTheme(ctx context.Context, siteID uuid.UUID) (*ThemeResponse, error) {
	theme, err := s.theme(ctx, siteID)
	if err != nil {
		return nil, err
	}
	resp := ToThemeResponse(theme)
	return &resp, nil
}

// UpdateTheme replaces the site theme
func (s *SiteService) UpdateTheme(ctx context.Context, siteID uuid.UUID, req UpdateThemeRequest) (*ThemeResponse, error) {
	if _, err := s.siteRepo.FindByID(ctx, siteID); err != nil {
		return nil, err
	}
	theme, err := s.theme(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if err := theme.Apply(req.PrimaryColor, req.SecondaryColor, req.LogoURL, req.FaviconURL, req.CustomCSS); err != nil {
		return nil, err
	}
	if err := s.themeRepo.Save(ctx, theme); err != nil {
		return nil, err
	}
	resp := ToThemeResponse(theme)
	return &resp, nil
}

func (s *SiteService) theme(ctx context.Context, siteID uuid.UUID) (*site.Theme, error) {
	theme, err := s.themeRepo.FindBySite(ctx, siteID)
	if errors.Is(err, shared.ErrNotFound) {
		return site.NewTheme(siteID), nil
	}
	return theme, err
}

// ListConfig lists all settings of a site
func (s *SiteService) ListConfig(ctx context.Context, siteID uuid.UUID) ([]ConfigResponse, error) {
	configs, err := s.configRepo.FindBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	out := make([]ConfigResponse, len(configs))
	for i := range configs {
		out[i] = ToConfigResponse(&configs[i])
	}
	return out, nil
}

// SetConfig inserts or replaces one key
func (s *SiteService) SetConfig(ctx context.Context, siteID uuid.UUID, key string, req SetConfigRequest) (*ConfigResponse, error) {
	if _, err := s.siteRepo.FindByID(ctx, siteID); err != nil {
		return nil, err
	}
	cfg, err := s.configRepo.FindByKey(ctx, siteID, strings.ToLower(strings.TrimSpace(key)))
	switch {
	case errors.Is(err, shared.ErrNotFound):
		cfg, err = site.NewConfig(siteID, key, req.Value, req.Description)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		cfg.SetValue(req.Value, req.Description)
	}
	if err := s.configRepo.Save(ctx, cfg); err != nil {
		return nil, err
	}
	s.logger.Debug("Site config set", zap.String("site_id", siteID.String()), zap.String("key", cfg.Key))
	resp := ToConfigResponse(cfg)
	return &resp, nil
}

// DeleteConfig removes a key
func (s *SiteService) DeleteConfig(ctx context.Context, siteID uuid.UUID, key string) error {
	return s.configRepo.Delete(ctx, siteID, strings.ToLower(strings.TrimSpace(key)))
}

// ListSlides lists slides ordered by sort order
func (s *SiteService) ListSlides(ctx context.Context, siteID uuid.UUID, activeOnly bool) ([]SlideResponse, error) {
	slides, err := s.slideRepo.FindBySite(ctx, siteID, activeOnly)
	if err != nil {
		return nil, err
	}
	return ToSlideResponses(slides), nil
}

// CreateSlide adds a slide
func (s *SiteService) CreateSlide(ctx context.Context, siteID uuid.UUID, req SlideRequest) (*SlideResponse, error) {
	if _, err := s.siteRepo.FindByID(ctx, siteID); err != nil {
		return nil, err
	}
	slide, err := site.NewSlide(siteID, req.Title, req.ImageURL)
	if err != nil {
		return nil, err
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	if err := slide.Update(req.Title, req.Subtitle, req.ImageURL, req.LinkURL, req.SortOrder, active); err != nil {
		return nil, err
	}
	if err := s.slideRepo.Save(ctx, slide); err != nil {
		return nil, err
	}
	return &ToSlideResponses([]site.Slide{*slide})[0], nil
}

// UpdateSlide replaces a slide
func (s *SiteService) UpdateSlide(ctx context.Context, siteID, id uuid.UUID, req SlideRequest) (*SlideResponse, error) {
	slide, err := s.slideRepo.FindByID(ctx, siteID, id)
	if err != nil {
		return nil, err
	}
	active := slide.Active
	if req.Active != nil {
		active = *req.Active
	}
	if err := slide.Update(req.Title, req.Subtitle, req.ImageURL, req.LinkURL, req.SortOrder, active); err != nil {
		return nil, err
	}
	if err := s.slideRepo.Save(ctx, slide); err != nil {
		return nil, err
	}
	return &ToSlideResponses([]site.Slide{*slide})[0], nil
}

// DeleteSlide removes a slide
func (s *SiteService) DeleteSlide(ctx context.Context, siteID, id uuid.UUID) error {
	return s.slideRepo.Delete(ctx, siteID, id)
}

func (s *SiteService) publish(ctx context.Context, st *site.Site) {
	events := st.GetDomainEvents()
	st.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish site events", zap.String("code", st.Code), zap.Error(err))
	}
}

func parseCurrency(code string) (valueobject.Currency, error) {
	if code == "" {
		return valueobject.DefaultCurrency, nil
	}
	c, err := valueobject.ParseCurrency(code)
	if err != nil {
		return "", shared.NewDomainError("INVALID_CURRENCY", err.Error())
	}
	return c, nil
}
