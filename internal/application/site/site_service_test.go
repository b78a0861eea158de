package site

import (
	"context"
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSiteService_Resolve(t *testing.T) {
	ctx := context.Background()
	gifts := newTestSite(t, "gifts", "gifts.example.com")
	main := newTestSite(t, "main", "shop.example.com")
	closed := newTestSite(t, "closed", "closed.example.com")
	require.NoError(t, closed.Deactivate())

	tests := []struct {
		name     string
		code     string
		host     string
		fallback string
		setup    func(f *siteFixture)
		want     *site.Site
		wantErr  error
	}{
		{
			name: "header code wins over host",
			code: " GIFTS ",
			host: "shop.example.com",
			setup: func(f *siteFixture) {
				f.sites.On("FindByCode", ctx, "gifts").Return(gifts, nil)
			},
			want: gifts,
		},
		{
			name: "host with port",
			host: "Shop.Example.com:8080",
			setup: func(f *siteFixture) {
				f.sites.On("FindByDomain", ctx, "shop.example.com").Return(main, nil)
			},
			want: main,
		},
		{
			name:     "unknown host falls back",
			host:     "localhost:8080",
			fallback: "main",
			setup: func(f *siteFixture) {
				f.sites.On("FindByDomain", ctx, "localhost").Return(nil, shared.ErrNotFound)
				f.sites.On("FindByCode", ctx, "main").Return(main, nil)
			},
			want: main,
		},
		{
			name: "unknown host without fallback",
			host: "localhost",
			setup: func(f *siteFixture) {
				f.sites.On("FindByDomain", ctx, "localhost").Return(nil, shared.ErrNotFound)
			},
			wantErr: shared.ErrNotFound,
		},
		{
			name: "inactive site is hidden",
			code: "closed",
			setup: func(f *siteFixture) {
				f.sites.On("FindByCode", ctx, "closed").Return(closed, nil)
			},
			wantErr: shared.ErrNotFound,
		},
		{
			name:    "nothing to go on",
			setup:   func(f *siteFixture) {},
			wantErr: shared.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSiteFixture(t)
			tt.setup(f)
			got, err := f.svc.Resolve(ctx, tt.code, tt.host, tt.fallback)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.ID, got.ID)
		})
	}
}

func TestSiteService_Create(t *testing.T) {
	ctx := context.Background()
	f := newSiteFixture(t)
	publisher := new(MockEventPublisher)
	f.svc.SetEventPublisher(publisher)

	f.sites.On("ExistsByCode", ctx, "gifts").Return(false, nil)
	f.sites.On("Save", ctx, mock.AnythingOfType("*site.Site")).Return(nil)
	f.themes.On("Save", ctx, mock.MatchedBy(func(th *site.Theme) bool { return th.PrimaryColor == "#1f2937" })).Return(nil)
	publisher.On("Publish", ctx, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		return len(events) == 1 && events[0].EventType() == site.EventTypeSiteCreated
	})).Return(nil)

	resp, err := f.svc.Create(ctx, CreateSiteRequest{
		Code:            "Gifts",
		Name:            "Gift Shop",
		Domain:          "https://Gifts.Example.com/",
		ContactEmail:    "hello@gifts.example.com",
		DefaultCurrency: "eur",
		TelegramChatID:  "-100123",
	})
	require.NoError(t, err)
	assert.Equal(t, "gifts", resp.Code)
	assert.Equal(t, "gifts.example.com", resp.Domain)
	assert.Equal(t, "EUR", resp.DefaultCurrency)
	assert.Equal(t, "-100123", resp.TelegramChatID)
	assert.Equal(t, "active", resp.Status)
	assert.True(t, resp.Features[site.FeatureWishlist])
	publisher.AssertExpectations(t)
	f.themes.AssertExpectations(t)
}

func TestSiteService_CreateDuplicateCode(t *testing.T) {
	ctx := context.Background()
	f := newSiteFixture(t)
	f.sites.On("ExistsByCode", ctx, "gifts").Return(true, nil)

	_, err := f.svc.Create(ctx, CreateSiteRequest{Code: "gifts", Name: "Gift Shop"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	f.sites.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSiteService_DeactivateTwice(t *testing.T) {
	ctx := context.Background()
	f := newSiteFixture(t)
	st := newTestSite(t, "gifts", "")
	f.sites.On("FindByID", ctx, st.ID).Return(st, nil)
	f.sites.On("Save", ctx, st).Return(nil).Once()

	resp, err := f.svc.Deactivate(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "inactive", resp.Status)

	_, err = f.svc.Deactivate(ctx, st.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	f.sites.AssertNumberOfCalls(t, "Save", 1)
}

func TestSiteService_SetFeatures(t *testing.T) {
	ctx := context.Background()
	f := newSiteFixture(t)
	st := newTestSite(t, "gifts", "")
	f.sites.On("FindByID", ctx, st.ID).Return(st, nil)
	f.sites.On("Save", ctx, st).Return(nil)

	resp, err := f.svc.SetFeatures(ctx, st.ID, SetFeaturesRequest{Features: map[string]bool{
		site.FeaturePaymentUSDT: false,
		"beta_checkout":         true,
	}})
	require.NoError(t, err)
	assert.False(t, resp.Features[site.FeaturePaymentUSDT])
	assert.True(t, resp.Features[site.FeaturePaymentPayPal])
	assert.True(t, resp.Features["beta_checkout"])
	assert.False(t, st.HasFeature(site.FeaturePaymentUSDT))
}

func TestSiteService_Theme(t *testing.T) {
	ctx := context.Background()
	f := newSiteFixture(t)
	st := newTestSite(t, "gifts", "")
	f.sites.On("FindByID", ctx, st.ID).Return(st, nil)
	f.themes.On("FindBySite", ctx, st.ID).Return(nil, shared.ErrNotFound)
	f.themes.On("Save", ctx, mock.AnythingOfType("*site.Theme")).Return(nil)

	resp, err := f.svc.UpdateTheme(ctx, st.ID, UpdateThemeRequest{PrimaryColor: "#FF0000", LogoURL: "https://cdn.example.com/logo.png"})
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", resp.PrimaryColor)
	assert.Equal(t, "#f59e0b", resp.SecondaryColor)

	_, err = f.svc.UpdateTheme(ctx, st.ID, UpdateThemeRequest{PrimaryColor: "red"})
	assert.ErrorIs(t, err, shared.NewDomainError("INVALID_COLOR", ""))
}

func TestSiteService_Public(t *testing.T) {
	ctx := context.Background()
	f := newSiteFixture(t)
	st := newTestSite(t, "gifts", "")
	theme := site.NewTheme(st.ID)
	theme.LogoURL = "https://cdn.example.com/logo.png"
	f.themes.On("FindBySite", ctx, st.ID).Return(theme, nil)

	resp, err := f.svc.Public(ctx, st, nil)
	require.NoError(t, err)
	assert.Equal(t, "gifts", resp.Code)
	assert.Equal(t, "https://cdn.example.com/logo.png", resp.Theme.LogoURL)
	assert.NotNil(t, resp.PaymentMethods)
}

func TestSiteService_SetConfig(t *testing.T) {
	ctx := context.Background()
	st := newTestSite(t, "gifts", "")

	t.Run("insert", func(t *testing.T) {
		f := newSiteFixture(t)
		f.sites.On("FindByID", ctx, st.ID).Return(st, nil)
		f.config.On("FindByKey", ctx, st.ID, "shipping.flat_fee").Return(nil, shared.ErrNotFound)
		f.config.On("Save", ctx, mock.AnythingOfType("*site.Config")).Return(nil)

		resp, err := f.svc.SetConfig(ctx, st.ID, "Shipping.Flat_Fee", SetConfigRequest{Value: "5.00", Description: "flat shipping"})
		require.NoError(t, err)
		assert.Equal(t, "shipping.flat_fee", resp.Key)
		assert.Equal(t, "5.00", resp.Value)
	})

	t.Run("update keeps description", func(t *testing.T) {
		f := newSiteFixture(t)
		existing, err := site.NewConfig(st.ID, "shipping.flat_fee", "5.00", "flat shipping")
		require.NoError(t, err)
		f.sites.On("FindByID", ctx, st.ID).Return(st, nil)
		f.config.On("FindByKey", ctx, st.ID, "shipping.flat_fee").Return(existing, nil)
		f.config.On("Save", ctx, existing).Return(nil)

		resp, err := f.svc.SetConfig(ctx, st.ID, "shipping.flat_fee", SetConfigRequest{Value: "7.50"})
		require.NoError(t, err)
		assert.Equal(t, "7.50", resp.Value)
		assert.Equal(t, "flat shipping", resp.Description)
	})

	t.Run("invalid key", func(t *testing.T) {
		f := newSiteFixture(t)
		f.sites.On("FindByID", ctx, st.ID).Return(st, nil)
		f.config.On("FindByKey", ctx, st.ID, "bad key!").Return(nil, shared.ErrNotFound)

		_, err := f.svc.SetConfig(ctx, st.ID, "bad key!", SetConfigRequest{Value: "x"})
		assert.ErrorIs(t, err, shared.NewDomainError("INVALID_CONFIG_KEY", ""))
	})
}

func TestSiteService_Slides(t *testing.T) {
	ctx := context.Background()
	f := newSiteFixture(t)
	st := newTestSite(t, "gifts", "")
	f.sites.On("FindByID", ctx, st.ID).Return(st, nil)
	f.slides.On("Save", ctx, mock.AnythingOfType("*site.Slide")).Return(nil)

	inactive := false
	created, err := f.svc.CreateSlide(ctx, st.ID, SlideRequest{Title: "Sale", ImageURL: "/media/slides/sale.jpg", SortOrder: 2, Active: &inactive})
	require.NoError(t, err)
	assert.False(t, created.Active)
	assert.Equal(t, 2, created.SortOrder)

	_, err = f.svc.CreateSlide(ctx, st.ID, SlideRequest{Title: "No image"})
	assert.ErrorIs(t, err, shared.NewDomainError("INVALID_SLIDE", ""))

	slide, err := site.NewSlide(st.ID, "Sale", "/media/slides/sale.jpg")
	require.NoError(t, err)
	f.slides.On("FindByID", ctx, st.ID, slide.ID).Return(slide, nil)
	updated, err := f.svc.UpdateSlide(ctx, st.ID, slide.ID, SlideRequest{Title: "Sale", ImageURL: "/media/slides/sale2.jpg", LinkURL: "/goods?search=sale"})
	require.NoError(t, err)
	assert.True(t, updated.Active)
	assert.Equal(t, "/media/slides/sale2.jpg", updated.ImageURL)

	f.slides.On("FindByID", ctx, st.ID, mock.Anything).Return(nil, shared.ErrNotFound)
	_, err = f.svc.UpdateSlide(ctx, st.ID, uuid.New(), SlideRequest{ImageURL: "x"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
