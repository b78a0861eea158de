package trade

import (
	"context"
	"strings"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrRefundFailed wraps a processor refusal; the refund stays open for retry
var ErrRefundFailed = shared.NewDomainError("REFUND_FAILED", "The payment processor did not accept the refund")

// OrderService drives the order lifecycle for customers, admins and
// the payment integration
type OrderService struct {
	orderRepo      trade.OrderRepository
	refundRepo     trade.RefundRepository
	refunder       RefundExecutor
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo trade.OrderRepository, refundRepo trade.RefundRepository, logger *zap.Logger) *OrderService {
	return &OrderService{orderRepo: orderRepo, refundRepo: refundRepo, logger: logger}
}

// SetEventPublisher sets the publisher for order events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetRefundExecutor wires the payment side used when approving refunds
func (s *OrderService) SetRefundExecutor(refunder RefundExecutor) {
	s.refunder = refunder
}

// CustomerOperator is the order log operator for a customer action
func CustomerOperator(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// AdminOperator is the order log operator for an admin action
func AdminOperator(adminID uuid.UUID) string {
	return "admin:" + adminID.String()
}

// ---- customer ----

// ListForUser lists the user's orders on the site
func (s *OrderService) ListForUser(ctx context.Context, siteID, userID uuid.UUID, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	filter.UserID = &userID
	return s.List(ctx, siteID, filter)
}

// GetForUser returns one of the user's orders with its refunds
func (s *OrderService) GetForUser(ctx context.Context, siteID, userID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.owned(ctx, siteID, userID, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	if err := s.attachRefunds(ctx, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelForUser cancels the user's own order
func (s *OrderService) CancelForUser(ctx context.Context, siteID, userID, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	order, err := s.owned(ctx, siteID, userID, orderID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, order, req.Reason, CustomerOperator(userID))
}

// ConfirmReceipt lets the customer mark a shipped order delivered
func (s *OrderService) ConfirmReceipt(ctx context.Context, siteID, userID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.owned(ctx, siteID, userID, orderID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, order, func(o *trade.Order) error {
		return o.ConfirmDelivery(CustomerOperator(userID))
	})
}

// RequestRefund opens a refund request on a paid order
func (s *OrderService) RequestRefund(ctx context.Context, siteID, userID, orderID uuid.UUID, req RefundOrderRequest) (*RefundResponse, error) {
	order, err := s.owned(ctx, siteID, userID, orderID)
	if err != nil {
		return nil, err
	}
	amount := order.Total
	if req.Amount != nil {
		amount = *req.Amount
	}
	refund, err := order.RequestRefund(amount, strings.TrimSpace(req.Reason), CustomerOperator(userID))
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithRefund(ctx, order, refund); err != nil {
		return nil, err
	}
	s.publish(ctx, order)
	resp := ToRefundResponse(refund)
	return &resp, nil
}

// ---- admin ----

// List lists orders on a site
func (s *OrderService) List(ctx context.Context, siteID uuid.UUID, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   strings.TrimSpace(filter.Search),
		Filters:  make(map[string]any),
	}
	f.Normalize()
	if filter.Status != "" {
		f.Filters["status"] = trade.OrderStatus(filter.Status)
	}
	if filter.UserID != nil {
		f.Filters["user_id"] = *filter.UserID
	}
	if filter.From != nil {
		f.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		f.Filters["to"] = *filter.To
	}

	orders, err := s.orderRepo.FindAllForSite(ctx, siteID, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.CountForSite(ctx, siteID, f)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderListItemResponses(orders), total, nil
}

// Get returns an order with its audit trail and refunds
func (s *OrderService) Get(ctx context.Context, siteID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForSite(ctx, siteID, orderID)
	if err != nil {
		return nil, err
	}
	logs, err := s.orderRepo.FindLogs(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	resp.Logs = ToOrderLogResponses(logs)
	if err := s.attachRefunds(ctx, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartProcessing moves a paid order into fulfilment
func (s *OrderService) StartProcessing(ctx context.Context, siteID, orderID, adminID uuid.UUID) (*OrderResponse, error) {
	return s.adminApply(ctx, siteID, orderID, func(o *trade.Order) error {
		return o.StartProcessing(AdminOperator(adminID))
	})
}

// Ship records carrier and tracking number
func (s *OrderService) Ship(ctx context.Context, siteID, orderID, adminID uuid.UUID, req ShipOrderRequest) (*OrderResponse, error) {
	return s.adminApply(ctx, siteID, orderID, func(o *trade.Order) error {
		return o.Ship(req.Carrier, req.TrackingNumber, AdminOperator(adminID))
	})
}

// MarkDelivered records delivery on the customer's behalf
func (s *OrderService) MarkDelivered(ctx context.Context, siteID, orderID, adminID uuid.UUID) (*OrderResponse, error) {
	return s.adminApply(ctx, siteID, orderID, func(o *trade.Order) error {
		return o.ConfirmDelivery(AdminOperator(adminID))
	})
}

// Complete closes a delivered order
func (s *OrderService) Complete(ctx context.Context, siteID, orderID, adminID uuid.UUID) (*OrderResponse, error) {
	return s.adminApply(ctx, siteID, orderID, func(o *trade.Order) error {
		return o.Complete(AdminOperator(adminID))
	})
}

// Cancel cancels an order as an admin
func (s *OrderService) Cancel(ctx context.Context, siteID, orderID, adminID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForSite(ctx, siteID, orderID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, order, req.Reason, AdminOperator(adminID))
}

// ListOpenRefunds lists refunds waiting for a decision or a retry
func (s *OrderService) ListOpenRefunds(ctx context.Context, siteID uuid.UUID, page, pageSize int) ([]RefundResponse, error) {
	f := shared.Filter{Page: page, PageSize: pageSize}
	f.Normalize()
	refunds, err := s.refundRepo.FindOpen(ctx, siteID, f)
	if err != nil {
		return nil, err
	}
	out := make([]RefundResponse, len(refunds))
	for i := range refunds {
		out[i] = ToRefundResponse(&refunds[i])
	}
	return out, nil
}

// ApproveRefund returns the money through the payment processor and
// completes the refund. A processor failure is recorded on the refund,
// which stays open for a retry. A refund the processor executed is
// completed even if the payment record lagged behind.
func (s *OrderService) ApproveRefund(ctx context.Context, siteID, refundID, adminID uuid.UUID) (*RefundResponse, error) {
	order, refund, err := s.refundOf(ctx, siteID, refundID)
	if err != nil {
		return nil, err
	}
	if !refund.IsOpen() {
		return nil, shared.NewDomainErrorf("INVALID_STATE", "Refund is already %s", refund.Status)
	}
	op := AdminOperator(adminID)

	externalID := "manual"
	if refund.PaymentID != nil {
		if s.refunder == nil {
			return nil, shared.NewDomainError("REFUND_UNAVAILABLE", "Refunds are not configured")
		}
		externalID, err = s.refunder.RefundPayment(ctx, *refund.PaymentID, refund.Amount, refund.Reason)
		if err != nil && externalID != "" {
			s.logger.Error("Refund executed but payment record not updated",
				zap.String("order_number", order.OrderNumber),
				zap.String("refund_id", refund.ID.String()),
				zap.String("external_refund_id", externalID),
				zap.Error(err))
		} else if err != nil {
			s.logger.Warn("Refund rejected by processor",
				zap.String("order_number", order.OrderNumber),
				zap.String("refund_id", refund.ID.String()),
				zap.Error(err))
			if ferr := order.FailRefund(refund, err.Error(), op); ferr != nil {
				return nil, ferr
			}
			if serr := s.saveRefund(ctx, order, refund); serr != nil {
				return nil, serr
			}
			return nil, shared.NewDomainErrorf(ErrRefundFailed.Code, "%s: %s", ErrRefundFailed.Message, err.Error())
		}
	}

	if err := order.CompleteRefund(refund, externalID, op); err != nil {
		return nil, err
	}
	if err := s.saveRefund(ctx, order, refund); err != nil {
		return nil, err
	}
	s.logger.Info("Refund completed",
		zap.String("order_number", order.OrderNumber),
		zap.String("refund_id", refund.ID.String()),
		zap.String("amount", refund.Amount.StringFixed(2)))
	s.publish(ctx, order)
	resp := ToRefundResponse(refund)
	return &resp, nil
}

// RejectRefund declines a refund and restores the order's previous status
func (s *OrderService) RejectRefund(ctx context.Context, siteID, refundID, adminID uuid.UUID, req RejectRefundRequest) (*RefundResponse, error) {
	order, refund, err := s.refundOf(ctx, siteID, refundID)
	if err != nil {
		return nil, err
	}
	if err := order.RejectRefund(refund, req.Note, AdminOperator(adminID)); err != nil {
		return nil, err
	}
	if err := s.saveRefund(ctx, order, refund); err != nil {
		return nil, err
	}
	resp := ToRefundResponse(refund)
	return &resp, nil
}

// ---- system ----

// MarkPaid records a completed payment. Repeated calls for the same
// payment are no-ops so webhook retries are harmless.
func (s *OrderService) MarkPaid(ctx context.Context, orderID, paymentID uuid.UUID, method string) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.PaymentID != nil && *order.PaymentID == paymentID && order.Status != trade.OrderStatusPending {
		return nil
	}
	if err := order.MarkPaid(paymentID, method, trade.OperatorWebhook); err != nil {
		return err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return err
	}
	s.logger.Info("Order paid",
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_id", paymentID.String()),
		zap.String("method", method))
	s.publish(ctx, order)
	return nil
}

// RefundLatePayment opens a refund for a payment that completed after the
// order stopped accepting it. Repeated calls for the same payment are no-ops.
func (s *OrderService) RefundLatePayment(ctx context.Context, orderID, paymentID uuid.UUID, amount decimal.Decimal, method string) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.PaymentID != nil && *order.PaymentID == paymentID {
		return nil
	}
	refunds, err := s.refundRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	for i := range refunds {
		if refunds[i].PaymentID != nil && *refunds[i].PaymentID == paymentID {
			return nil
		}
	}
	refund, err := order.OpenLatePaymentRefund(paymentID, amount, method, trade.OperatorWebhook)
	if err != nil {
		return err
	}
	if err := s.orderRepo.SaveWithRefund(ctx, order, refund); err != nil {
		return err
	}
	s.logger.Warn("Refund opened for late payment",
		zap.String("order_number", order.OrderNumber),
		zap.String("order_status", string(order.Status)),
		zap.String("payment_id", paymentID.String()),
		zap.String("amount", amount.StringFixed(2)))
	s.publish(ctx, order)
	return nil
}

// PayableOrder returns a pending order the user may pay for
func (s *OrderService) PayableOrder(ctx context.Context, siteID, userID, orderID uuid.UUID) (*trade.Order, error) {
	order, err := s.owned(ctx, siteID, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != trade.OrderStatusPending {
		return nil, shared.NewDomainErrorf("INVALID_STATE", "Order %s is %s and cannot be paid", order.OrderNumber, order.Status)
	}
	return order, nil
}

// CancelExpired cancels orders left unpaid for longer than ttl and
// returns how many were cancelled
func (s *OrderService) CancelExpired(ctx context.Context, ttl time.Duration, batch int) (int, error) {
	orders, err := s.orderRepo.FindPendingBefore(ctx, time.Now().Add(-ttl), batch)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for i := range orders {
		if ctx.Err() != nil {
			return cancelled, ctx.Err()
		}
		if _, err := s.cancel(ctx, &orders[i], "payment not received in time", trade.OperatorSystem); err != nil {
			s.logger.Warn("Failed to cancel unpaid order",
				zap.String("order_number", orders[i].OrderNumber),
				zap.Error(err))
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

// ---- helpers ----

func (s *OrderService) cancel(ctx context.Context, order *trade.Order, reason, operator string) (*OrderResponse, error) {
	needsRefund, err := order.Cancel(strings.TrimSpace(reason), operator)
	if err != nil {
		return nil, err
	}
	var refund *trade.RefundDetail
	if needsRefund {
		refund, err = order.OpenCancellationRefund(operator)
		if err != nil {
			return nil, err
		}
	}
	if refund != nil {
		err = s.orderRepo.SaveWithRefund(ctx, order, refund)
	} else {
		err = s.orderRepo.SaveWithLock(ctx, order)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("Order cancelled",
		zap.String("order_number", order.OrderNumber),
		zap.String("operator", operator),
		zap.Bool("refund_opened", refund != nil))
	s.publish(ctx, order)
	resp := ToOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) adminApply(ctx context.Context, siteID, orderID uuid.UUID, fn func(*trade.Order) error) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForSite(ctx, siteID, orderID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, order, fn)
}

func (s *OrderService) apply(ctx context.Context, order *trade.Order, fn func(*trade.Order) error) (*OrderResponse, error) {
	if err := fn(order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, order)
	resp := ToOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) owned(ctx context.Context, siteID, userID, orderID uuid.UUID) (*trade.Order, error) {
	order, err := s.orderRepo.FindByIDForSite(ctx, siteID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOwnedBy(userID) {
		return nil, shared.ErrNotFound
	}
	return order, nil
}

func (s *OrderService) refundOf(ctx context.Context, siteID, refundID uuid.UUID) (*trade.Order, *trade.RefundDetail, error) {
	refund, err := s.refundRepo.FindByID(ctx, refundID)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.orderRepo.FindByIDForSite(ctx, siteID, refund.OrderID)
	if err != nil {
		return nil, nil, err
	}
	return order, refund, nil
}

func (s *OrderService) saveRefund(ctx context.Context, order *trade.Order, refund *trade.RefundDetail) error {
	return s.orderRepo.SaveWithRefund(ctx, order, refund)
}

func (s *OrderService) attachRefunds(ctx context.Context, resp *OrderResponse) error {
	refunds, err := s.refundRepo.FindByOrder(ctx, resp.ID)
	if err != nil {
		return err
	}
	for i := range refunds {
		resp.Refunds = append(resp.Refunds, ToRefundResponse(&refunds[i]))
	}
	return nil
}

func (s *OrderService) publish(ctx context.Context, order *trade.Order) {
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish order events", zap.String("order_number", order.OrderNumber), zap.Error(err))
	}
}

