package trade

import (
	"context"
	"errors"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shopping"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/Marusmurong/mall-sub000/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrEmptyCheckout is returned when neither items nor a non-empty cart were given
var ErrEmptyCheckout = shared.NewDomainError("EMPTY_CART", "Nothing to check out")

// CheckoutService turns a cart or a list of goods into a pending order
type CheckoutService struct {
	orderRepo      trade.OrderRepository
	cartRepo       shopping.CartRepository
	stock          StockKeeper
	settings       SettingsReader
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	orderRepo trade.OrderRepository,
	cartRepo shopping.CartRepository,
	stock StockKeeper,
	settings SettingsReader,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		stock:     stock,
		settings:  settings,
		logger:    logger,
	}
}

// SetEventPublisher sets the publisher for order events
func (s *CheckoutService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Checkout validates the lines, reserves stock and creates a pending order.
// Checked-out goods are removed from the user's cart.
func (s *CheckoutService) Checkout(ctx context.Context, st *site.Site, userID uuid.UUID, req CheckoutRequest) (*OrderResponse, error) {
	if !st.IsActive() {
		return nil, shared.NewDomainError("SITE_INACTIVE", "This site is not accepting orders")
	}

	cart, err := s.cartRepo.FindByUser(ctx, st.ID, userID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	lines := mergeLines(req.Items)
	if len(lines) == 0 && cart != nil {
		for _, it := range cart.Items {
			lines = append(lines, CheckoutItem{GoodsID: it.GoodsID, Quantity: it.Quantity})
		}
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCheckout
	}

	items, err := s.snapshot(ctx, st, lines)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal)
	}
	shippingFee, err := s.shippingFee(ctx, st.ID, subtotal)
	if err != nil {
		return nil, err
	}

	orderNumber, err := s.orderRepo.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}
	order, err := trade.NewOrder(st.ID, userID, orderNumber, st.DefaultCurrency, items,
		shippingFee, req.ShippingAddress.toDomain(), req.ContactEmail, req.Remark)
	if err != nil {
		return nil, err
	}

	if err := s.reserve(ctx, order.Items); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		s.release(ctx, order.Items)
		return nil, err
	}

	if cart != nil {
		ids := make([]uuid.UUID, len(order.Items))
		for i, it := range order.Items {
			ids[i] = it.GoodsID
		}
		cart.RemoveItems(ids)
		if err := s.cartRepo.Save(ctx, cart); err != nil {
			s.logger.Warn("Failed to clear checked-out cart lines",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err))
		}
	}

	s.logger.Info("Order placed",
		zap.String("site", st.Code),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("currency", string(order.Currency)))

	s.publish(ctx, order)
	resp := ToOrderResponse(order)
	return &resp, nil
}

func (s *CheckoutService) snapshot(ctx context.Context, st *site.Site, lines []CheckoutItem) ([]trade.OrderItem, error) {
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.GoodsID
	}
	found, err := s.stock.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Goods, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	items := make([]trade.OrderItem, 0, len(lines))
	for _, l := range lines {
		g, ok := byID[l.GoodsID]
		if !ok {
			return nil, shared.NewDomainErrorf("GOODS_NOT_FOUND", "Goods %s no longer exists", l.GoodsID)
		}
		if err := g.CanPurchase(st.Code, l.Quantity); err != nil {
			return nil, err
		}
		if g.Currency != st.DefaultCurrency {
			return nil, shared.NewDomainErrorf("CURRENCY_MISMATCH", "%s is priced in %s, this site sells in %s", g.Name, g.Currency, st.DefaultCurrency)
		}
		item, err := trade.NewOrderItem(g.ID, g.Name, g.SKU, g.PrimaryImageURL(), g.Price, l.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// reserve deducts stock line by line and gives back what it took on failure
func (s *CheckoutService) reserve(ctx context.Context, items []trade.OrderItem) error {
	for i, it := range items {
		if err := s.stock.DeductStock(ctx, it.GoodsID, it.Quantity); err != nil {
			s.release(ctx, items[:i])
			if errors.Is(err, shared.ErrInsufficientStock) {
				return shared.NewDomainErrorf("INSUFFICIENT_STOCK", "%s sold out while checking out", it.GoodsName)
			}
			return err
		}
	}
	return nil
}

func (s *CheckoutService) release(ctx context.Context, items []trade.OrderItem) {
	for _, it := range items {
		if err := s.stock.RestoreStock(ctx, it.GoodsID, it.Quantity); err != nil {
			s.logger.Error("Failed to restore stock",
				zap.String("goods_id", it.GoodsID.String()),
				zap.Int("quantity", it.Quantity),
				zap.Error(err))
		}
	}
}

// shippingFee applies the site's flat fee unless the subtotal reaches the free threshold
func (s *CheckoutService) shippingFee(ctx context.Context, siteID uuid.UUID, subtotal decimal.Decimal) (decimal.Decimal, error) {
	fee, err := s.decimalSetting(ctx, siteID, ConfigShippingFlatFee)
	if err != nil || fee.IsZero() {
		return decimal.Zero, err
	}
	threshold, err := s.decimalSetting(ctx, siteID, ConfigShippingFreeThreshold)
	if err != nil {
		return decimal.Zero, err
	}
	if threshold.IsPositive() && subtotal.GreaterThanOrEqual(threshold) {
		return decimal.Zero, nil
	}
	return fee, nil
}

func (s *CheckoutService) decimalSetting(ctx context.Context, siteID uuid.UUID, key string) (decimal.Decimal, error) {
	cfg, err := s.settings.FindByKey(ctx, siteID, key)
	if errors.Is(err, shared.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	v, err := decimal.NewFromString(cfg.Value)
	if err != nil || v.IsNegative() {
		s.logger.Warn("Ignoring invalid site setting", zap.String("key", key), zap.String("value", cfg.Value))
		return decimal.Zero, nil
	}
	return v, nil
}

func (s *CheckoutService) publish(ctx context.Context, order *trade.Order) {
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish order events", zap.String("order_number", order.OrderNumber), zap.Error(err))
	}
}

// mergeLines folds duplicate goods into one line
func mergeLines(items []CheckoutItem) []CheckoutItem {
	out := make([]CheckoutItem, 0, len(items))
	idx := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		if i, ok := idx[it.GoodsID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		idx[it.GoodsID] = len(out)
		out = append(out, it)
	}
	return out
}

