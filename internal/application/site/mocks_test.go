package site

import (
	"context"
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockSiteRepository struct {
	mock.Mock
}

func (m *MockSiteRepository) one(args mock.Arguments) (*site.Site, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*site.Site), args.Error(1)
}

func (m *MockSiteRepository) FindByID(ctx context.Context, id uuid.UUID) (*site.Site, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockSiteRepository) FindByCode(ctx context.Context, code string) (*site.Site, error) {
	return m.one(m.Called(ctx, code))
}

func (m *MockSiteRepository) FindByDomain(ctx context.Context, domain string) (*site.Site, error) {
	return m.one(m.Called(ctx, domain))
}

func (m *MockSiteRepository) FindAll(ctx context.Context, filter shared.Filter) ([]site.Site, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]site.Site), args.Error(1)
}

func (m *MockSiteRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSiteRepository) FindActive(ctx context.Context) ([]site.Site, error) {
	args := m.Called(ctx)
	return args.Get(0).([]site.Site), args.Error(1)
}

func (m *MockSiteRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockSiteRepository) Save(ctx context.Context, s *site.Site) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockThemeRepository struct {
	mock.Mock
}

func (m *MockThemeRepository) FindBySite(ctx context.Context, siteID uuid.UUID) (*site.Theme, error) {
	args := m.Called(ctx, siteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*site.Theme), args.Error(1)
}

func (m *MockThemeRepository) Save(ctx context.Context, theme *site.Theme) error {
	return m.Called(ctx, theme).Error(0)
}

type MockConfigRepository struct {
	mock.Mock
}

func (m *MockConfigRepository) FindBySite(ctx context.Context, siteID uuid.UUID) ([]site.Config, error) {
	args := m.Called(ctx, siteID)
	return args.Get(0).([]site.Config), args.Error(1)
}

func (m *MockConfigRepository) FindByKey(ctx context.Context, siteID uuid.UUID, key string) (*site.Config, error) {
	args := m.Called(ctx, siteID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*site.Config), args.Error(1)
}

func (m *MockConfigRepository) Save(ctx context.Context, cfg *site.Config) error {
	return m.Called(ctx, cfg).Error(0)
}

func (m *MockConfigRepository) Delete(ctx context.Context, siteID uuid.UUID, key string) error {
	return m.Called(ctx, siteID, key).Error(0)
}

type MockSlideRepository struct {
	mock.Mock
}

func (m *MockSlideRepository) FindByID(ctx context.Context, siteID, id uuid.UUID) (*site.Slide, error) {
	args := m.Called(ctx, siteID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*site.Slide), args.Error(1)
}

func (m *MockSlideRepository) FindBySite(ctx context.Context, siteID uuid.UUID, activeOnly bool) ([]site.Slide, error) {
	args := m.Called(ctx, siteID, activeOnly)
	return args.Get(0).([]site.Slide), args.Error(1)
}

func (m *MockSlideRepository) Save(ctx context.Context, slide *site.Slide) error {
	return m.Called(ctx, slide).Error(0)
}

func (m *MockSlideRepository) Delete(ctx context.Context, siteID, id uuid.UUID) error {
	return m.Called(ctx, siteID, id).Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

type siteFixture struct {
	svc    *SiteService
	sites  *MockSiteRepository
	themes *MockThemeRepository
	config *MockConfigRepository
	slides *MockSlideRepository
}

func newSiteFixture(t *testing.T) *siteFixture {
	f := &siteFixture{
		sites:  new(MockSiteRepository),
		themes: new(MockThemeRepository),
		config: new(MockConfigRepository),
		slides: new(MockSlideRepository),
	}
	f.svc = NewSiteService(f.sites, f.themes, f.config, f.slides, zaptest.NewLogger(t))
	return f
}

func newTestSite(t *testing.T, code, domain string) *site.Site {
	t.Helper()
	st, err := site.NewSite(code, "Shop "+code, domain, valueobject.USD)
	require.NoError(t, err)
	st.ClearDomainEvents()
	return st
}
