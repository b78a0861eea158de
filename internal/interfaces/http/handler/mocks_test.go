package handler

import (
	"context"
	"net/http"

	"github.com/Marusmurong/mall-sub000/internal/application/catalog"
	"github.com/Marusmurong/mall-sub000/internal/application/identity"
	paymentapp "github.com/Marusmurong/mall-sub000/internal/application/payment"
	siteapp "github.com/Marusmurong/mall-sub000/internal/application/site"
	"github.com/Marusmurong/mall-sub000/internal/application/shopping"
	"github.com/Marusmurong/mall-sub000/internal/application/trade"
	"github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// result returns the typed first value of a mock call, or the zero value
func result[T any](args mock.Arguments) T {
	var zero T
	if v := args.Get(0); v != nil {
		return v.(T)
	}
	return zero
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, input identity.RegisterInput) (*identity.AuthResult, error) {
	args := m.Called(ctx, input)
	return result[*identity.AuthResult](args), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, input identity.LoginInput) (*identity.AuthResult, error) {
	args := m.Called(ctx, input)
	return result[*identity.AuthResult](args), args.Error(1)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, input identity.RefreshTokenInput) (*identity.AuthResult, error) {
	args := m.Called(ctx, input)
	return result[*identity.AuthResult](args), args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, input identity.LogoutInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*identity.UserDTO, error) {
	args := m.Called(ctx, userID)
	return result[*identity.UserDTO](args), args.Error(1)
}

func (m *mockAuthService) UpdateProfile(ctx context.Context, input identity.UpdateProfileInput) (*identity.UserDTO, error) {
	args := m.Called(ctx, input)
	return result[*identity.UserDTO](args), args.Error(1)
}

func (m *mockAuthService) ChangePassword(ctx context.Context, input identity.ChangePasswordInput) error {
	return m.Called(ctx, input).Error(0)
}

type mockCartService struct{ mock.Mock }

func (m *mockCartService) Get(ctx context.Context, st *site.Site, userID uuid.UUID) (*shopping.CartResponse, error) {
	args := m.Called(ctx, st, userID)
	return result[*shopping.CartResponse](args), args.Error(1)
}

func (m *mockCartService) AddItem(ctx context.Context, st *site.Site, userID uuid.UUID, req shopping.AddCartItemRequest) (*shopping.CartResponse, error) {
	args := m.Called(ctx, st, userID, req)
	return result[*shopping.CartResponse](args), args.Error(1)
}

func (m *mockCartService) UpdateItem(ctx context.Context, st *site.Site, userID, goodsID uuid.UUID, req shopping.UpdateCartItemRequest) (*shopping.CartResponse, error) {
	args := m.Called(ctx, st, userID, goodsID, req)
	return result[*shopping.CartResponse](args), args.Error(1)
}

func (m *mockCartService) RemoveItem(ctx context.Context, st *site.Site, userID, goodsID uuid.UUID) (*shopping.CartResponse, error) {
	args := m.Called(ctx, st, userID, goodsID)
	return result[*shopping.CartResponse](args), args.Error(1)
}

func (m *mockCartService) Clear(ctx context.Context, st *site.Site, userID uuid.UUID) error {
	return m.Called(ctx, st, userID).Error(0)
}

type mockWishlistService struct{ mock.Mock }

func (m *mockWishlistService) Create(ctx context.Context, st *site.Site, userID uuid.UUID, req shopping.CreateWishlistRequest) (*shopping.WishlistResponse, error) {
	args := m.Called(ctx, st, userID, req)
	return result[*shopping.WishlistResponse](args), args.Error(1)
}

func (m *mockWishlistService) List(ctx context.Context, st *site.Site, userID uuid.UUID) ([]shopping.WishlistResponse, error) {
	args := m.Called(ctx, st, userID)
	return result[[]shopping.WishlistResponse](args), args.Error(1)
}

func (m *mockWishlistService) Get(ctx context.Context, st *site.Site, viewerID, id uuid.UUID) (*shopping.WishlistResponse, error) {
	args := m.Called(ctx, st, viewerID, id)
	return result[*shopping.WishlistResponse](args), args.Error(1)
}

func (m *mockWishlistService) GetShared(ctx context.Context, st *site.Site, token string) (*shopping.WishlistResponse, error) {
	args := m.Called(ctx, st, token)
	return result[*shopping.WishlistResponse](args), args.Error(1)
}

func (m *mockWishlistService) Rename(ctx context.Context, st *site.Site, userID, id uuid.UUID, req shopping.UpdateWishlistRequest) (*shopping.WishlistResponse, error) {
	args := m.Called(ctx, st, userID, id, req)
	return result[*shopping.WishlistResponse](args), args.Error(1)
}

func (m *mockWishlistService) Share(ctx context.Context, st *site.Site, userID, id uuid.UUID) (*shopping.WishlistResponse, error) {
	args := m.Called(ctx, st, userID, id)
	return result[*shopping.WishlistResponse](args), args.Error(1)
}

func (m *mockWishlistService) Unshare(ctx context.Context, st *site.Site, userID, id uuid.UUID) (*shopping.WishlistResponse, error) {
	args := m.Called(ctx, st, userID, id)
	return result[*shopping.WishlistResponse](args), args.Error(1)
}

func (m *mockWishlistService) AddItem(ctx context.Context, st *site.Site, userID, id uuid.UUID, req shopping.AddWishlistItemRequest) (*shopping.WishlistResponse, error) {
	args := m.Called(ctx, st, userID, id, req)
	return result[*shopping.WishlistResponse](args), args.Error(1)
}

func (m *mockWishlistService) RemoveItem(ctx context.Context, st *site.Site, userID, id, itemID uuid.UUID) (*shopping.WishlistResponse, error) {
	args := m.Called(ctx, st, userID, id, itemID)
	return result[*shopping.WishlistResponse](args), args.Error(1)
}

func (m *mockWishlistService) Delete(ctx context.Context, st *site.Site, userID, id uuid.UUID) error {
	return m.Called(ctx, st, userID, id).Error(0)
}

type mockCheckoutService struct{ mock.Mock }

func (m *mockCheckoutService) Checkout(ctx context.Context, st *site.Site, userID uuid.UUID, req trade.CheckoutRequest) (*trade.OrderResponse, error) {
	args := m.Called(ctx, st, userID, req)
	return result[*trade.OrderResponse](args), args.Error(1)
}

type mockOrderService struct{ mock.Mock }

func (m *mockOrderService) ListForUser(ctx context.Context, siteID, userID uuid.UUID, filter trade.OrderListFilter) ([]trade.OrderListItemResponse, int64, error) {
	args := m.Called(ctx, siteID, userID, filter)
	return result[[]trade.OrderListItemResponse](args), args.Get(1).(int64), args.Error(2)
}

func (m *mockOrderService) GetForUser(ctx context.Context, siteID, userID, orderID uuid.UUID) (*trade.OrderResponse, error) {
	args := m.Called(ctx, siteID, userID, orderID)
	return result[*trade.OrderResponse](args), args.Error(1)
}

func (m *mockOrderService) CancelForUser(ctx context.Context, siteID, userID, orderID uuid.UUID, req trade.CancelOrderRequest) (*trade.OrderResponse, error) {
	args := m.Called(ctx, siteID, userID, orderID, req)
	return result[*trade.OrderResponse](args), args.Error(1)
}

func (m *mockOrderService) ConfirmReceipt(ctx context.Context, siteID, userID, orderID uuid.UUID) (*trade.OrderResponse, error) {
	args := m.Called(ctx, siteID, userID, orderID)
	return result[*trade.OrderResponse](args), args.Error(1)
}

func (m *mockOrderService) RequestRefund(ctx context.Context, siteID, userID, orderID uuid.UUID, req trade.RefundOrderRequest) (*trade.RefundResponse, error) {
	args := m.Called(ctx, siteID, userID, orderID, req)
	return result[*trade.RefundResponse](args), args.Error(1)
}

func (m *mockOrderService) List(ctx context.Context, siteID uuid.UUID, filter trade.OrderListFilter) ([]trade.OrderListItemResponse, int64, error) {
	args := m.Called(ctx, siteID, filter)
	return result[[]trade.OrderListItemResponse](args), args.Get(1).(int64), args.Error(2)
}

func (m *mockOrderService) Get(ctx context.Context, siteID, orderID uuid.UUID) (*trade.OrderResponse, error) {
	args := m.Called(ctx, siteID, orderID)
	return result[*trade.OrderResponse](args), args.Error(1)
}

func (m *mockOrderService) StartProcessing(ctx context.Context, siteID, orderID, adminID uuid.UUID) (*trade.OrderResponse, error) {
	args := m.Called(ctx, siteID, orderID, adminID)
	return result[*trade.OrderResponse](args), args.Error(1)
}

func (m *mockOrderService) Ship(ctx context.Context, siteID, orderID, adminID uuid.UUID, req trade.ShipOrderRequest) (*trade.OrderResponse, error) {
	args := m.Called(ctx, siteID, orderID, adminID, req)
	return result[*trade.OrderResponse](args), args.Error(1)
}

func (m *mockOrderService) MarkDelivered(ctx context.Context, siteID, orderID, adminID uuid.UUID) (*trade.OrderResponse, error) {
	args := m.Called(ctx, siteID, orderID, adminID)
	return result[*trade.OrderResponse](args), args.Error(1)
}

func (m *mockOrderService) Complete(ctx context.Context, siteID, orderID, adminID uuid.UUID) (*trade.OrderResponse, error) {
	args := m.Called(ctx, siteID, orderID, adminID)
	return result[*trade.OrderResponse](args), args.Error(1)
}

func (m *mockOrderService) Cancel(ctx context.Context, siteID, orderID, adminID uuid.UUID, req trade.CancelOrderRequest) (*trade.OrderResponse, error) {
	args := m.Called(ctx, siteID, orderID, adminID, req)
	return result[*trade.OrderResponse](args), args.Error(1)
}

func (m *mockOrderService) ListOpenRefunds(ctx context.Context, siteID uuid.UUID, page, pageSize int) ([]trade.RefundResponse, error) {
	args := m.Called(ctx, siteID, page, pageSize)
	return result[[]trade.RefundResponse](args), args.Error(1)
}

func (m *mockOrderService) ApproveRefund(ctx context.Context, siteID, refundID, adminID uuid.UUID) (*trade.RefundResponse, error) {
	args := m.Called(ctx, siteID, refundID, adminID)
	return result[*trade.RefundResponse](args), args.Error(1)
}

func (m *mockOrderService) RejectRefund(ctx context.Context, siteID, refundID, adminID uuid.UUID, req trade.RejectRefundRequest) (*trade.RefundResponse, error) {
	args := m.Called(ctx, siteID, refundID, adminID, req)
	return result[*trade.RefundResponse](args), args.Error(1)
}

type mockPaymentService struct{ mock.Mock }

func (m *mockPaymentService) Methods(st *site.Site) []string {
	return result[[]string](m.Called(st))
}

func (m *mockPaymentService) Create(ctx context.Context, st *site.Site, userID *uuid.UUID, req paymentapp.CreatePaymentRequest) (*paymentapp.CreatePaymentResponse, error) {
	args := m.Called(ctx, st, userID, req)
	return result[*paymentapp.CreatePaymentResponse](args), args.Error(1)
}

func (m *mockPaymentService) Get(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*paymentapp.PaymentResponse, error) {
	args := m.Called(ctx, siteID, userID, id)
	return result[*paymentapp.PaymentResponse](args), args.Error(1)
}

func (m *mockPaymentService) Process(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID, req paymentapp.ProcessPaymentRequest) (*paymentapp.PaymentResponse, error) {
	args := m.Called(ctx, siteID, userID, id, req)
	return result[*paymentapp.PaymentResponse](args), args.Error(1)
}

func (m *mockPaymentService) Verify(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*paymentapp.PaymentResponse, error) {
	args := m.Called(ctx, siteID, userID, id)
	return result[*paymentapp.PaymentResponse](args), args.Error(1)
}

func (m *mockPaymentService) Cancel(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*paymentapp.PaymentResponse, error) {
	args := m.Called(ctx, siteID, userID, id)
	return result[*paymentapp.PaymentResponse](args), args.Error(1)
}

func (m *mockPaymentService) List(ctx context.Context, siteID uuid.UUID, filter paymentapp.PaymentListFilter) ([]paymentapp.PaymentResponse, int64, error) {
	args := m.Called(ctx, siteID, filter)
	return result[[]paymentapp.PaymentResponse](args), args.Get(1).(int64), args.Error(2)
}

func (m *mockPaymentService) HandleWebhook(ctx context.Context, method payment.Method, body []byte, header http.Header) error {
	return m.Called(ctx, method, body, header).Error(0)
}

func (m *mockPaymentService) ListWebhookLogs(ctx context.Context, filter paymentapp.WebhookLogFilter) ([]paymentapp.WebhookLogResponse, int64, error) {
	args := m.Called(ctx, filter)
	return result[[]paymentapp.WebhookLogResponse](args), args.Get(1).(int64), args.Error(2)
}

func (m *mockPaymentService) GetWebhookLog(ctx context.Context, id uuid.UUID) (*paymentapp.WebhookLogResponse, error) {
	args := m.Called(ctx, id)
	return result[*paymentapp.WebhookLogResponse](args), args.Error(1)
}

type mockSiteService struct{ mock.Mock }

func (m *mockSiteService) Create(ctx context.Context, req siteapp.CreateSiteRequest) (*siteapp.SiteResponse, error) {
	args := m.Called(ctx, req)
	return result[*siteapp.SiteResponse](args), args.Error(1)
}

func (m *mockSiteService) GetByID(ctx context.Context, id uuid.UUID) (*siteapp.SiteResponse, error) {
	args := m.Called(ctx, id)
	return result[*siteapp.SiteResponse](args), args.Error(1)
}

func (m *mockSiteService) List(ctx context.Context, filter siteapp.SiteListFilter) ([]siteapp.SiteResponse, int64, error) {
	args := m.Called(ctx, filter)
	return result[[]siteapp.SiteResponse](args), args.Get(1).(int64), args.Error(2)
}

func (m *mockSiteService) Update(ctx context.Context, id uuid.UUID, req siteapp.UpdateSiteRequest) (*siteapp.SiteResponse, error) {
	args := m.Called(ctx, id, req)
	return result[*siteapp.SiteResponse](args), args.Error(1)
}

func (m *mockSiteService) Activate(ctx context.Context, id uuid.UUID) (*siteapp.SiteResponse, error) {
	args := m.Called(ctx, id)
	return result[*siteapp.SiteResponse](args), args.Error(1)
}

func (m *mockSiteService) Deactivate(ctx context.Context, id uuid.UUID) (*siteapp.SiteResponse, error) {
	args := m.Called(ctx, id)
	return result[*siteapp.SiteResponse](args), args.Error(1)
}

func (m *mockSiteService) SetFeatures(ctx context.Context, id uuid.UUID, req siteapp.SetFeaturesRequest) (*siteapp.SiteResponse, error) {
	args := m.Called(ctx, id, req)
	return result[*siteapp.SiteResponse](args), args.Error(1)
}

func (m *mockSiteService) Public(ctx context.Context, st *site.Site, paymentMethods []string) (*siteapp.PublicSiteResponse, error) {
	args := m.Called(ctx, st, paymentMethods)
	return result[*siteapp.PublicSiteResponse](args), args.Error(1)
}

func (m *mockSiteService) GetTheme(ctx context.Context, siteID uuid.UUID) (*siteapp.ThemeResponse, error) {
	args := m.Called(ctx, siteID)
	return result[*siteapp.ThemeResponse](args), args.Error(1)
}

func (m *mockSiteService) UpdateTheme(ctx context.Context, siteID uuid.UUID, req siteapp.UpdateThemeRequest) (*siteapp.ThemeResponse, error) {
	args := m.Called(ctx, siteID, req)
	return result[*siteapp.ThemeResponse](args), args.Error(1)
}

func (m *mockSiteService) ListConfig(ctx context.Context, siteID uuid.UUID) ([]siteapp.ConfigResponse, error) {
	args := m.Called(ctx, siteID)
	return result[[]siteapp.ConfigResponse](args), args.Error(1)
}

func (m *mockSiteService) SetConfig(ctx context.Context, siteID uuid.UUID, key string, req siteapp.SetConfigRequest) (*siteapp.ConfigResponse, error) {
	args := m.Called(ctx, siteID, key, req)
	return result[*siteapp.ConfigResponse](args), args.Error(1)
}

func (m *mockSiteService) DeleteConfig(ctx context.Context, siteID uuid.UUID, key string) error {
	return m.Called(ctx, siteID, key).Error(0)
}

func (m *mockSiteService) ListSlides(ctx context.Context, siteID uuid.UUID, activeOnly bool) ([]siteapp.SlideResponse, error) {
	args := m.Called(ctx, siteID, activeOnly)
	return result[[]siteapp.SlideResponse](args), args.Error(1)
}

func (m *mockSiteService) CreateSlide(ctx context.Context, siteID uuid.UUID, req siteapp.SlideRequest) (*siteapp.SlideResponse, error) {
	args := m.Called(ctx, siteID, req)
	return result[*siteapp.SlideResponse](args), args.Error(1)
}

func (m *mockSiteService) UpdateSlide(ctx context.Context, siteID, id uuid.UUID, req siteapp.SlideRequest) (*siteapp.SlideResponse, error) {
	args := m.Called(ctx, siteID, id, req)
	return result[*siteapp.SlideResponse](args), args.Error(1)
}

func (m *mockSiteService) DeleteSlide(ctx context.Context, siteID, id uuid.UUID) error {
	return m.Called(ctx, siteID, id).Error(0)
}

type mockGoodsService struct{ mock.Mock }

func (m *mockGoodsService) Create(ctx context.Context, req catalog.CreateGoodsRequest) (*catalog.GoodsResponse, error) {
	args := m.Called(ctx, req)
	return result[*catalog.GoodsResponse](args), args.Error(1)
}

func (m *mockGoodsService) GetByID(ctx context.Context, id uuid.UUID) (*catalog.GoodsResponse, error) {
	args := m.Called(ctx, id)
	return result[*catalog.GoodsResponse](args), args.Error(1)
}

func (m *mockGoodsService) List(ctx context.Context, filter catalog.GoodsListFilter) ([]catalog.GoodsListResponse, int64, error) {
	args := m.Called(ctx, filter)
	return result[[]catalog.GoodsListResponse](args), args.Get(1).(int64), args.Error(2)
}

func (m *mockGoodsService) ListVisible(ctx context.Context, siteCode string, filter catalog.GoodsListFilter) ([]catalog.GoodsListResponse, int64, error) {
	args := m.Called(ctx, siteCode, filter)
	return result[[]catalog.GoodsListResponse](args), args.Get(1).(int64), args.Error(2)
}

func (m *mockGoodsService) GetVisible(ctx context.Context, siteCode, idOrSlug string) (*catalog.GoodsResponse, error) {
	args := m.Called(ctx, siteCode, idOrSlug)
	return result[*catalog.GoodsResponse](args), args.Error(1)
}

func (m *mockGoodsService) Update(ctx context.Context, id uuid.UUID, req catalog.UpdateGoodsRequest) (*catalog.GoodsResponse, error) {
	args := m.Called(ctx, id, req)
	return result[*catalog.GoodsResponse](args), args.Error(1)
}

func (m *mockGoodsService) Publish(ctx context.Context, id uuid.UUID) (*catalog.GoodsResponse, error) {
	args := m.Called(ctx, id)
	return result[*catalog.GoodsResponse](args), args.Error(1)
}

func (m *mockGoodsService) Unpublish(ctx context.Context, id uuid.UUID) (*catalog.GoodsResponse, error) {
	args := m.Called(ctx, id)
	return result[*catalog.GoodsResponse](args), args.Error(1)
}

func (m *mockGoodsService) SetVisibility(ctx context.Context, id uuid.UUID, req catalog.SetVisibilityRequest) (*catalog.GoodsResponse, error) {
	args := m.Called(ctx, id, req)
	return result[*catalog.GoodsResponse](args), args.Error(1)
}

func (m *mockGoodsService) AdjustStock(ctx context.Context, id uuid.UUID, req catalog.AdjustStockRequest) (*catalog.GoodsResponse, error) {
	args := m.Called(ctx, id, req)
	return result[*catalog.GoodsResponse](args), args.Error(1)
}

func (m *mockGoodsService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockCategoryService struct{ mock.Mock }

func (m *mockCategoryService) Create(ctx context.Context, req catalog.CreateCategoryRequest) (*catalog.CategoryResponse, error) {
	args := m.Called(ctx, req)
	return result[*catalog.CategoryResponse](args), args.Error(1)
}

func (m *mockCategoryService) GetByID(ctx context.Context, id uuid.UUID) (*catalog.CategoryResponse, error) {
	args := m.Called(ctx, id)
	return result[*catalog.CategoryResponse](args), args.Error(1)
}

func (m *mockCategoryService) Tree(ctx context.Context, activeOnly bool) ([]*catalog.CategoryResponse, error) {
	args := m.Called(ctx, activeOnly)
	return result[[]*catalog.CategoryResponse](args), args.Error(1)
}

func (m *mockCategoryService) Update(ctx context.Context, id uuid.UUID, req catalog.UpdateCategoryRequest) (*catalog.CategoryResponse, error) {
	args := m.Called(ctx, id, req)
	return result[*catalog.CategoryResponse](args), args.Error(1)
}

func (m *mockCategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockImageService struct{ mock.Mock }

func (m *mockImageService) Upload(ctx context.Context, goodsID uuid.UUID, req catalog.UploadImageRequest) (*catalog.ImageResponse, error) {
	args := m.Called(ctx, goodsID, req)
	return result[*catalog.ImageResponse](args), args.Error(1)
}

func (m *mockImageService) AddByURL(ctx context.Context, goodsID uuid.UUID, req catalog.AddImageURLRequest) (*catalog.ImageResponse, error) {
	args := m.Called(ctx, goodsID, req)
	return result[*catalog.ImageResponse](args), args.Error(1)
}

func (m *mockImageService) PresignUpload(ctx context.Context, goodsID uuid.UUID, req catalog.PresignImageRequest) (*catalog.PresignImageResponse, error) {
	args := m.Called(ctx, goodsID, req)
	return result[*catalog.PresignImageResponse](args), args.Error(1)
}

func (m *mockImageService) ConfirmUpload(ctx context.Context, goodsID uuid.UUID, req catalog.ConfirmImageRequest) (*catalog.ImageResponse, error) {
	args := m.Called(ctx, goodsID, req)
	return result[*catalog.ImageResponse](args), args.Error(1)
}

func (m *mockImageService) Remove(ctx context.Context, goodsID, imageID uuid.UUID) error {
	return m.Called(ctx, goodsID, imageID).Error(0)
}
