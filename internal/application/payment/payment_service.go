package payment

import (
	"context"
	"errors"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared/valueobject"
	"github.com/Marusmurong/mall-sub000/internal/domain/shopping"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService opens payments, applies processor outcomes and keeps
// orders and wishlist items in step with them
type PaymentService struct {
	paymentRepo    payment.PaymentRepository
	webhookRepo    payment.WebhookLogRepository
	registry       *payment.Registry
	orders         OrderPort
	wishlists      shopping.WishlistRepository
	idempotency    shared.IdempotencyStore
	eventPublisher shared.EventPublisher
	config         Config
	logger         *zap.Logger
	now            func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo payment.PaymentRepository,
	webhookRepo payment.WebhookLogRepository,
	registry *payment.Registry,
	orders OrderPort,
	wishlists shopping.WishlistRepository,
	idempotency shared.IdempotencyStore,
	config Config,
	logger *zap.Logger,
) *PaymentService {
	if config.ExpireAfter <= 0 {
		config.ExpireAfter = DefaultConfig().ExpireAfter
	}
	if config.WebhookDedupeTTL <= 0 {
		config.WebhookDedupeTTL = DefaultConfig().WebhookDedupeTTL
	}
	return &PaymentService{
		paymentRepo: paymentRepo,
		webhookRepo: webhookRepo,
		registry:    registry,
		orders:      orders,
		wishlists:   wishlists,
		idempotency: idempotency,
		config:      config,
		logger:      logger,
		now:         time.Now,
	}
}

// SetEventPublisher sets the publisher for payment events
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Methods lists the payment methods a site currently accepts
func (s *PaymentService) Methods(st *site.Site) []string {
	var out []string
	for _, m := range s.registry.Methods() {
		if st.HasFeature(featureKey(m)) {
			out = append(out, string(m))
		}
	}
	return out
}

// payTarget is a resolved order or wishlist item with what it costs
type payTarget struct {
	target      payment.Target
	amount      valueobject.Money
	description string
	wishlist    *shopping.Wishlist
	item        *shopping.WishlistItem
}

// Create opens a payment. userID is nil for anonymous wishlist gifts.
func (s *PaymentService) Create(ctx context.Context, st *site.Site, userID *uuid.UUID, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	method := payment.Method(req.Method)
	if !method.IsValid() {
		return nil, payment.ErrUnsupportedMethod
	}
	if !st.HasFeature(featureKey(method)) {
		return nil, payment.ErrMethodDisabled
	}
	processor, err := s.registry.Get(method)
	if err != nil {
		return nil, err
	}

	pt, err := s.resolveTarget(ctx, st, userID, req)
	if err != nil {
		return nil, err
	}
	if err := s.supersede(ctx, pt, userID); err != nil {
		return nil, err
	}

	p, err := payment.NewPayment(st.ID, userID, method, pt.amount, pt.target)
	if err != nil {
		return nil, err
	}
	p.SetExpiry(s.now().Add(s.config.ExpireAfter))

	if pt.item != nil {
		if err := pt.item.BeginPayment(p.ID, userID, req.PurchaserName); err != nil {
			return nil, err
		}
	}

	action, err := processor.Create(ctx, p, payment.CreateOptions{
		Description: pt.description,
		ReturnURL:   s.config.ReturnURL,
		CancelURL:   s.config.CancelURL,
		CustomerRef: p.ID.String(),
	})
	if err != nil {
		s.logger.Warn("Processor refused payment",
			zap.String("method", string(method)),
			zap.String("site", st.Code),
			zap.Error(err))
		return nil, err
	}

	if err := s.paymentRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	if pt.item != nil {
		if err := s.wishlists.SaveItem(ctx, pt.item); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Payment created",
		zap.String("payment_id", p.ID.String()),
		zap.String("method", string(method)),
		zap.String("target", string(pt.target.Type)),
		zap.String("amount", p.Amount.StringFixed(2)),
		zap.String("currency", string(p.Currency)))
	s.publish(ctx, p)

	return &CreatePaymentResponse{Payment: ToPaymentResponse(p), Action: action}, nil
}

// Get returns a payment visible to the caller
func (s *PaymentService) Get(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.accessible(ctx, siteID, userID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// Process submits the customer's confirmation (tx hash, PayPal approval,
// card payment method) and applies the processor's answer
func (s *PaymentService) Process(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID, req ProcessPaymentRequest) (*PaymentResponse, error) {
	p, processor, err := s.openPayment(ctx, siteID, userID, id)
	if err != nil {
		return nil, err
	}
	outcome, err := processor.Process(ctx, p, payment.ProcessInput{
		TxHash:          req.TxHash,
		PayerID:         req.PayerID,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.applyOutcome(ctx, p, outcome); err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// Verify asks the gateway for the current state
func (s *PaymentService) Verify(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.accessible(ctx, siteID, userID, id)
	if err != nil {
		return nil, err
	}
	if p.Status.IsOpen() {
		if err := s.verify(ctx, p); err != nil {
			return nil, err
		}
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// Cancel abandons an open payment
func (s *PaymentService) Cancel(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*PaymentResponse, error) {
	p, _, err := s.openPayment(ctx, siteID, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyOutcome(ctx, p, &payment.Outcome{Status: payment.StatusCancelled, FailureReason: "cancelled by customer"}); err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// RefundPayment returns money through the processor and records it on the
// payment. When the processor accepted the refund but the payment could not
// be updated, the processor's reference is returned along with the error.
func (s *PaymentService) RefundPayment(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal, reason string) (string, error) {
	p, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return "", err
	}
	if err := p.CanRefund(amount); err != nil {
		return "", err
	}
	processor, err := s.registry.Get(p.Method)
	if err != nil {
		return "", err
	}
	res, err := processor.Refund(ctx, p, amount, reason)
	if err != nil {
		return "", err
	}
	p, err = s.recordRefund(ctx, p, amount)
	if err != nil {
		s.logger.Error("Refund executed by processor but not recorded on payment",
			zap.String("payment_id", paymentID.String()),
			zap.String("amount", amount.StringFixed(2)),
			zap.String("external_refund_id", res.ExternalRefundID),
			zap.Error(err))
		return res.ExternalRefundID, err
	}
	s.logger.Info("Payment refunded",
		zap.String("payment_id", p.ID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("external_refund_id", res.ExternalRefundID))
	s.publish(ctx, p)
	return res.ExternalRefundID, nil
}

// recordRefund books an executed refund, reloading the payment once when a
// concurrent write changed it
func (s *PaymentService) recordRefund(ctx context.Context, p *payment.Payment, amount decimal.Decimal) (*payment.Payment, error) {
	if err := p.RecordRefund(amount); err != nil {
		return nil, err
	}
	err := s.paymentRepo.SaveWithLock(ctx, p)
	if !errors.Is(err, shared.ErrConcurrencyConflict) {
		return p, err
	}
	fresh, err := s.paymentRepo.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if err := fresh.RecordRefund(amount); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.SaveWithLock(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// ExpireStale cancels open payments past their expiry. Each one is
// verified first so a payment settled at the last moment is not lost.
func (s *PaymentService) ExpireStale(ctx context.Context, batch int) (int, error) {
	payments, err := s.paymentRepo.FindExpired(ctx, s.now(), batch)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range payments {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		p := &payments[i]
		if err := s.verify(ctx, p); err != nil && !errors.Is(err, payment.ErrProcessInputMissing) {
			s.logger.Debug("Verify before expiry failed", zap.String("payment_id", p.ID.String()), zap.Error(err))
		}
		if !p.Status.IsOpen() {
			continue
		}
		if err := s.applyOutcome(ctx, p, &payment.Outcome{Status: payment.StatusCancelled, FailureReason: "payment expired"}); err != nil {
			s.logger.Warn("Failed to expire payment", zap.String("payment_id", p.ID.String()), zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}

// PollOpen verifies open payments of a method created before olderThan ago.
// It serves methods without webhooks, such as USDT transfers.
func (s *PaymentService) PollOpen(ctx context.Context, method payment.Method, olderThan time.Duration, batch int) (int, error) {
	payments, err := s.paymentRepo.FindOpenBefore(ctx, method, s.now().Add(-olderThan), batch)
	if err != nil {
		return 0, err
	}
	changed := 0
	for i := range payments {
		if ctx.Err() != nil {
			return changed, ctx.Err()
		}
		p := &payments[i]
		before := p.Status
		if err := s.verify(ctx, p); err != nil {
			s.logger.Debug("Payment poll failed", zap.String("payment_id", p.ID.String()), zap.Error(err))
			continue
		}
		if p.Status != before {
			changed++
		}
	}
	return changed, nil
}

// CancelOpenForOrder closes the open payment of an order that was
// cancelled. The gateway is asked first so money taken at the last moment
// is booked and refunded instead of abandoned.
func (s *PaymentService) CancelOpenForOrder(ctx context.Context, orderID uuid.UUID) error {
	p, err := s.paymentRepo.FindOpenByTarget(ctx, payment.OrderTarget(orderID))
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.verify(ctx, p); err != nil && !errors.Is(err, payment.ErrProcessInputMissing) {
		s.logger.Debug("Verify before cancel failed", zap.String("payment_id", p.ID.String()), zap.Error(err))
	}
	if !p.Status.IsOpen() {
		return nil
	}
	return s.applyOutcome(ctx, p, &payment.Outcome{Status: payment.StatusCancelled, FailureReason: "order cancelled"})
}

// List lists payments on a site
func (s *PaymentService) List(ctx context.Context, siteID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize, Search: filter.Search, Filters: make(map[string]any)}
	f.Normalize()
	if filter.Status != "" {
		f.Filters["status"] = payment.Status(filter.Status)
	}
	if filter.Method != "" {
		f.Filters["method"] = payment.Method(filter.Method)
	}
	if filter.OrderID != nil {
		f.Filters["order_id"] = *filter.OrderID
	}
	payments, err := s.paymentRepo.FindAllForSite(ctx, siteID, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.paymentRepo.CountForSite(ctx, siteID, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	return out, total, nil
}

// ---- helpers ----

func (s *PaymentService) resolveTarget(ctx context.Context, st *site.Site, userID *uuid.UUID, req CreatePaymentRequest) (*payTarget, error) {
	switch {
	case req.OrderID != nil && req.WishlistItemID != nil, req.OrderID == nil && req.WishlistItemID == nil:
		return nil, shared.NewDomainError("INVALID_TARGET", "Pay for exactly one order or wishlist item")

	case req.OrderID != nil:
		if userID == nil {
			return nil, shared.NewDomainError("UNAUTHORIZED", "Sign in to pay for an order")
		}
		order, err := s.orders.PayableOrder(ctx, st.ID, *userID, *req.OrderID)
		if err != nil {
			return nil, err
		}
		return &payTarget{
			target:      payment.OrderTarget(order.ID),
			amount:      order.TotalMoney(),
			description: "Order " + order.OrderNumber,
		}, nil

	default:
		if !st.HasFeature(site.FeatureWishlist) {
			return nil, shared.NewDomainError("FEATURE_DISABLED", "Wishlists are not enabled on this site")
		}
		w, err := s.wishlists.FindByItemID(ctx, *req.WishlistItemID)
		if err != nil {
			return nil, err
		}
		viewer := uuid.Nil
		if userID != nil {
			viewer = *userID
		}
		if !w.BelongsTo(st.ID) || !w.CanBeViewedBy(viewer) {
			return nil, shared.ErrNotFound
		}
		item, err := w.Item(*req.WishlistItemID)
		if err != nil {
			return nil, err
		}
		return &payTarget{
			target:      payment.WishlistItemTarget(item.ID),
			amount:      item.Amount(),
			description: "Gift: " + item.GoodsName,
			wishlist:    w,
			item:        item,
		}, nil
	}
}

// supersede cancels a previous open payment for the same target when the
// same user starts again or the old one has expired. Another buyer's live
// payment blocks the new one.
func (s *PaymentService) supersede(ctx context.Context, pt *payTarget, userID *uuid.UUID) error {
	existing, err := s.paymentRepo.FindOpenByTarget(ctx, pt.target)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	sameBuyer := userID != nil && existing.IsOwnedBy(*userID)
	if !sameBuyer && !existing.IsExpired(s.now()) {
		return shared.NewDomainError("PAYMENT_IN_PROGRESS", "A payment for this item is already in progress")
	}
	if err := existing.Cancel("superseded by a new payment"); err != nil {
		return err
	}
	if err := s.paymentRepo.SaveWithLock(ctx, existing); err != nil {
		return err
	}
	s.publish(ctx, existing)
	// the released item is stored before the gateway is asked for a new one
	if pt.item != nil && pt.item.SyncPayment(existing.ID, shopping.ItemPaymentNone) {
		if err := s.wishlists.SaveItem(ctx, pt.item); err != nil {
			return err
		}
	}
	return nil
}

func (s *PaymentService) accessible(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*payment.Payment, error) {
	p, err := s.paymentRepo.FindByIDForSite(ctx, siteID, id)
	if err != nil {
		return nil, err
	}
	// anonymous gift payments are reachable by id alone
	if p.UserID != nil && (userID == nil || *p.UserID != *userID) {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (s *PaymentService) openPayment(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*payment.Payment, payment.Processor, error) {
	p, err := s.accessible(ctx, siteID, userID, id)
	if err != nil {
		return nil, nil, err
	}
	if !p.Status.IsOpen() {
		return nil, nil, payment.ErrPaymentClosed
	}
	processor, err := s.registry.Get(p.Method)
	if err != nil {
		return nil, nil, err
	}
	return p, processor, nil
}

func (s *PaymentService) verify(ctx context.Context, p *payment.Payment) error {
	processor, err := s.registry.Get(p.Method)
	if err != nil {
		return err
	}
	outcome, err := processor.Verify(ctx, p)
	if err != nil {
		return err
	}
	return s.applyOutcome(ctx, p, outcome)
}

// applyOutcome moves the payment to the processor's status, saves it and
// propagates a change to the order or wishlist item
func (s *PaymentService) applyOutcome(ctx context.Context, p *payment.Payment, outcome *payment.Outcome) error {
	before := p.Status
	if outcome != nil && outcome.Status != before {
		var err error
		switch outcome.Status {
		case payment.StatusPending:
		case payment.StatusProcessing:
			err = p.MarkProcessing()
		case payment.StatusCompleted:
			if before == payment.StatusCancelled || before == payment.StatusFailed {
				s.logger.Error("Processor captured a payment already given up",
					zap.String("payment_id", p.ID.String()),
					zap.String("method", string(p.Method)),
					zap.String("was", string(before)),
					zap.String("amount", p.Amount.StringFixed(2)))
				err = p.RecoverCapture()
			} else {
				err = p.Complete()
			}
		case payment.StatusFailed:
			err = p.Fail(outcome.FailureReason)
		case payment.StatusCancelled:
			err = p.Cancel(outcome.FailureReason)
		default:
			err = shared.NewDomainErrorf("INVALID_STATE", "Processor returned unexpected status %s", outcome.Status)
		}
		if err != nil {
			return err
		}
	}

	if err := s.paymentRepo.SaveWithLock(ctx, p); err != nil {
		return err
	}
	if p.Status == before {
		return nil
	}

	s.logger.Info("Payment status changed",
		zap.String("payment_id", p.ID.String()),
		zap.String("from", string(before)),
		zap.String("to", string(p.Status)))
	s.publish(ctx, p)
	return s.syncTarget(ctx, p)
}

func (s *PaymentService) syncTarget(ctx context.Context, p *payment.Payment) error {
	target := p.Target()
	switch target.Type {
	case payment.TargetOrder:
		if p.Status != payment.StatusCompleted {
			return nil
		}
		err := s.orders.MarkPaid(ctx, target.ID, p.ID, string(p.Method))
		if errors.Is(err, shared.ErrInvalidState) {
			// the order was cancelled or settled by another payment
			s.logger.Error("Payment completed for an order that no longer accepts it",
				zap.String("payment_id", p.ID.String()),
				zap.String("order_id", target.ID.String()),
				zap.Error(err))
			err = s.orders.RefundLatePayment(ctx, target.ID, p.ID, p.Amount, string(p.Method))
		}
		if err != nil {
			s.logger.Error("Payment completed but order could not be updated",
				zap.String("payment_id", p.ID.String()),
				zap.String("order_id", target.ID.String()),
				zap.Error(err))
			return err
		}
	case payment.TargetWishlistItem:
		w, err := s.wishlists.FindByItemID(ctx, target.ID)
		if err != nil {
			return err
		}
		item, err := w.Item(target.ID)
		if err != nil {
			return err
		}
		if item.SyncPayment(p.ID, mirrorStatus(p.Status)) {
			return s.wishlists.SaveItem(ctx, item)
		}
		if p.Status == payment.StatusCompleted && (item.PaymentID == nil || *item.PaymentID != p.ID) {
			s.logger.Error("Gift payment completed for an item it no longer holds; refund it manually",
				zap.String("payment_id", p.ID.String()),
				zap.String("item_id", item.ID.String()),
				zap.String("amount", p.Amount.StringFixed(2)))
		}
	}
	return nil
}

func (s *PaymentService) publish(ctx context.Context, p *payment.Payment) {
	events := p.GetDomainEvents()
	p.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish payment events", zap.String("payment_id", p.ID.String()), zap.Error(err))
	}
}

// mirrorStatus maps a payment status onto the wishlist item mirror
func mirrorStatus(status payment.Status) shopping.ItemPaymentStatus {
	switch status {
	case payment.StatusPending:
		return shopping.ItemPaymentPending
	case payment.StatusProcessing:
		return shopping.ItemPaymentProcessing
	case payment.StatusCompleted:
		return shopping.ItemPaymentPaid
	case payment.StatusFailed:
		return shopping.ItemPaymentFailed
	case payment.StatusCancelled:
		return shopping.ItemPaymentNone
	}
	return ""
}

func featureKey(m payment.Method) string {
	return "payment_" + string(m)
}
