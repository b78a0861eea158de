package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	paymentapp "github.com/Marusmurong/mall-sub000/internal/application/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/Marusmurong/mall-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxWebhookBody caps gateway callback payloads
const MaxWebhookBody = 64 << 10

// webhookProviders maps callback path segments to payment methods
var webhookProviders = map[string]payment.Method{
	"usdt":        payment.MethodUSDT,
	"paypal":      payment.MethodPayPal,
	"stripe":      payment.MethodCreditCard,
	"credit_card": payment.MethodCreditCard,
	"coinbase":    payment.MethodCoinbase,
}

// PaymentService is the payment use case set
type PaymentService interface {
	Methods(st *site.Site) []string
	Create(ctx context.Context, st *site.Site, userID *uuid.UUID, req paymentapp.CreatePaymentRequest) (*paymentapp.CreatePaymentResponse, error)
	Get(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*paymentapp.PaymentResponse, error)
	Process(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID, req paymentapp.ProcessPaymentRequest) (*paymentapp.PaymentResponse, error)
	Verify(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*paymentapp.PaymentResponse, error)
	Cancel(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*paymentapp.PaymentResponse, error)
	List(ctx context.Context, siteID uuid.UUID, filter paymentapp.PaymentListFilter) ([]paymentapp.PaymentResponse, int64, error)
	HandleWebhook(ctx context.Context, method payment.Method, body []byte, header http.Header) error
	ListWebhookLogs(ctx context.Context, filter paymentapp.WebhookLogFilter) ([]paymentapp.WebhookLogResponse, int64, error)
	GetWebhookLog(ctx context.Context, id uuid.UUID) (*paymentapp.WebhookLogResponse, error)
}

// PaymentHandler serves payments, gateway callbacks and the webhook log
type PaymentHandler struct {
	BaseHandler
	payments PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{BaseHandler: BaseHandler{logger: logger}, payments: payments}
}

// Methods godoc
// @ID           listPaymentMethods
// @Summary      Payment methods accepted by the site
// @Tags         payments
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Success      200 {object} APIResponse[[]string]
// @Router       /payments/methods [get]
func (h *PaymentHandler) Methods(c *gin.Context) {
	st, ok := h.currentSite(c)
	if !ok {
		return
	}
	h.Success(c, h.payments.Methods(st))
}

// Create godoc
// @ID           createPayment
// @Summary      Start a payment
// @Description  Pays an order, or buys a shared wishlist item as a gift. Guests may buy gifts.
// @Description  Any earlier open payment for the same target is cancelled.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        request body paymentapp.CreatePaymentRequest true "Payment"
// @Success      201 {object} APIResponse[paymentapp.CreatePaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	st, ok := h.currentSite(c)
	if !ok {
		return
	}
	var req paymentapp.CreatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.payments.Create(c.Request.Context(), st, optionalUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get godoc
// @ID           getPayment
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[paymentapp.PaymentResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	withPayer(h, c, h.payments.Get)
}

// Process godoc
// @ID           processPayment
// @Summary      Submit the payer's proof
// @Description  A USDT transaction hash, a PayPal payer ID or a Stripe payment method
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body paymentapp.ProcessPaymentRequest true "Proof"
// @Success      200 {object} APIResponse[paymentapp.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /payments/{id}/process [post]
func (h *PaymentHandler) Process(c *gin.Context) {
	var req paymentapp.ProcessPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	withPayer(h, c, func(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (*paymentapp.PaymentResponse, error) {
		return h.payments.Process(ctx, siteID, userID, id, req)
	})
}

// Verify godoc
// @ID           verifyPayment
// @Summary      Re-check a payment with its gateway
// @Tags         payments
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[paymentapp.PaymentResponse]
// @Failure      502 {object} ErrorResponse
// @Router       /payments/{id}/verify [post]
func (h *PaymentHandler) Verify(c *gin.Context) {
	withPayer(h, c, h.payments.Verify)
}

// Cancel godoc
// @ID           cancelPayment
// @Summary      Abandon an open payment
// @Tags         payments
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[paymentapp.PaymentResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /payments/{id}/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	withPayer(h, c, h.payments.Cancel)
}

// Webhook godoc
// @ID           paymentWebhook
// @Summary      Gateway callback
// @Description  Authenticated by the gateway's signature. Accepted callbacks are always acknowledged; their outcome is kept in the webhook log.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        provider path string true "usdt, paypal, stripe or coinbase"
// @Success      200 {object} APIResponse[MessageData]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Router       /payments/webhooks/{provider} [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	method, ok := webhookProviders[c.Param("provider")]
	if !ok {
		h.NotFound(c, "Unknown payment provider")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Webhook body too large")
			return
		}
		h.BadRequest(c, "Unreadable webhook body")
		return
	}

	if err := h.payments.HandleWebhook(c.Request.Context(), method, body, c.Request.Header); err != nil {
		switch {
		case errors.Is(err, payment.ErrUnsupportedMethod), errors.Is(err, payment.ErrWebhookUnsupported):
			h.NotFound(c, "Unknown payment provider")
		default:
			h.HandleError(c, err)
		}
		return
	}
	h.Success(c, MessageData{Message: "received"})
}

// AdminList godoc
// @ID           adminListPayments
// @Summary      List site payments
// @Tags         admin-payments
// @Produce      json
// @Param        status query string false "Payment status"
// @Param        method query string false "Payment method"
// @Param        order_id query string false "Order" format(uuid)
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]paymentapp.PaymentResponse]
// @Security     BearerAuth
// @Router       /admin/payments [get]
func (h *PaymentHandler) AdminList(c *gin.Context) {
	st, ok := h.currentSite(c)
	if !ok {
		return
	}
	var filter paymentapp.PaymentListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.payments.List(c.Request.Context(), st.ID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// ListWebhookLogs godoc
// @ID           adminListWebhookLogs
// @Summary      Gateway callback history
// @Tags         admin-payments
// @Produce      json
// @Param        provider query string false "Payment method"
// @Param        status query string false "received, processed, ignored, duplicate, rejected or failed"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]paymentapp.WebhookLogResponse]
// @Security     BearerAuth
// @Router       /admin/webhook-logs [get]
func (h *PaymentHandler) ListWebhookLogs(c *gin.Context) {
	var filter paymentapp.WebhookLogFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.payments.ListWebhookLogs(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// GetWebhookLog godoc
// @ID           adminGetWebhookLog
// @Summary      Get one callback with its payload
// @Tags         admin-payments
// @Produce      json
// @Param        id path string true "Log ID" format(uuid)
// @Success      200 {object} APIResponse[paymentapp.WebhookLogResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/webhook-logs/{id} [get]
func (h *PaymentHandler) GetWebhookLog(c *gin.Context) {
	withID(&h.BaseHandler, c, h.payments.GetWebhookLog)
}

// withPayer runs fn for the :id payment on behalf of the user or guest
func withPayer[T any](h *PaymentHandler, c *gin.Context, fn func(ctx context.Context, siteID uuid.UUID, userID *uuid.UUID, id uuid.UUID) (T, error)) {
	userID := optionalUserID(c)
	withSiteAndID(&h.BaseHandler, c, "id", func(ctx context.Context, siteID, id uuid.UUID) (T, error) {
		return fn(ctx, siteID, userID, id)
	})
}
