package handler

import (
	"context"

	"github.com/Marusmurong/mall-sub000/internal/application/trade"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutService turns a cart or an explicit line list into an order
type CheckoutService interface {
	Checkout(ctx context.Context, st *site.Site, userID uuid.UUID, req trade.CheckoutRequest) (*trade.OrderResponse, error)
}

// OrderService is the order use case set
type OrderService interface {
	ListForUser(ctx context.Context, siteID, userID uuid.UUID, filter trade.OrderListFilter) ([]trade.OrderListItemResponse, int64, error)
	GetForUser(ctx context.Context, siteID, userID, orderID uuid.UUID) (*trade.OrderResponse, error)
	CancelForUser(ctx context.Context, siteID, userID, orderID uuid.UUID, req trade.CancelOrderRequest) (*trade.OrderResponse, error)
	ConfirmReceipt(ctx context.Context, siteID, userID, orderID uuid.UUID) (*trade.OrderResponse, error)
	RequestRefund(ctx context.Context, siteID, userID, orderID uuid.UUID, req trade.RefundOrderRequest) (*trade.RefundResponse, error)
	List(ctx context.Context, siteID uuid.UUID, filter trade.OrderListFilter) ([]trade.OrderListItemResponse, int64, error)
	Get(ctx context.Context, siteID, orderID uuid.UUID) (*trade.OrderResponse, error)
	StartProcessing(ctx context.Context, siteID, orderID, adminID uuid.UUID) (*trade.OrderResponse, error)
	Ship(ctx context.Context, siteID, orderID, adminID uuid.UUID, req trade.ShipOrderRequest) (*trade.OrderResponse, error)
	MarkDelivered(ctx context.Context, siteID, orderID, adminID uuid.UUID) (*trade.OrderResponse, error)
	Complete(ctx context.Context, siteID, orderID, adminID uuid.UUID) (*trade.OrderResponse, error)
	Cancel(ctx context.Context, siteID, orderID, adminID uuid.UUID, req trade.CancelOrderRequest) (*trade.OrderResponse, error)
	ListOpenRefunds(ctx context.Context, siteID uuid.UUID, page, pageSize int) ([]trade.RefundResponse, error)
	ApproveRefund(ctx context.Context, siteID, refundID, adminID uuid.UUID) (*trade.RefundResponse, error)
	RejectRefund(ctx context.Context, siteID, refundID, adminID uuid.UUID, req trade.RejectRefundRequest) (*trade.RefundResponse, error)
}

type pageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OrderHandler serves checkout, the shopper's orders and order administration
type OrderHandler struct {
	BaseHandler
	checkout CheckoutService
	orders   OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(checkout CheckoutService, orders OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{BaseHandler: BaseHandler{logger: logger}, checkout: checkout, orders: orders}
}

// Checkout godoc
// @ID           checkout
// @Summary      Place an order
// @Description  Without items the whole cart is ordered and cleared. Stock is reserved per line.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        request body trade.CheckoutRequest true "Checkout"
// @Success      201 {object} APIResponse[trade.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /checkout [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	st, ok := h.currentSite(c)
	if !ok {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req trade.CheckoutRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.checkout.Checkout(c.Request.Context(), st, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// ListMine godoc
// @ID           listMyOrders
// @Summary      My orders
// @Tags         orders
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        status query string false "Order status"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]trade.OrderListItemResponse]
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	st, ok := h.currentSite(c)
	if !ok {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var filter trade.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.orders.ListForUser(c.Request.Context(), st.ID, userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// GetMine godoc
// @ID           getMyOrder
// @Summary      One of my orders
// @Tags         orders
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[trade.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetMine(c *gin.Context) {
	withOwnOrder(h, c, h.orders.GetForUser)
}

// CancelMine godoc
// @ID           cancelMyOrder
// @Summary      Cancel an unpaid order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body trade.CancelOrderRequest true "Reason"
// @Success      200 {object} APIResponse[trade.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) CancelMine(c *gin.Context) {
	var req trade.CancelOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	withOwnOrder(h, c, func(ctx context.Context, siteID, userID, orderID uuid.UUID) (*trade.OrderResponse, error) {
		return h.orders.CancelForUser(ctx, siteID, userID, orderID, req)
	})
}

// ConfirmReceipt godoc
// @ID           confirmOrderReceipt
// @Summary      Confirm delivery
// @Tags         orders
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[trade.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/confirm [post]
func (h *OrderHandler) ConfirmReceipt(c *gin.Context) {
	withOwnOrder(h, c, h.orders.ConfirmReceipt)
}

// RequestRefund godoc
// @ID           requestOrderRefund
// @Summary      Request a refund
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body trade.RefundOrderRequest true "Refund"
// @Success      201 {object} APIResponse[trade.RefundResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/refunds [post]
func (h *OrderHandler) RequestRefund(c *gin.Context) {
	st, ok := h.currentSite(c)
	if !ok {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req trade.RefundOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	refund, err := h.orders.RequestRefund(c.Request.Context(), st.ID, userID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, refund)
}

// AdminList godoc
// @ID           adminListOrders
// @Summary      List site orders
// @Tags         admin-orders
// @Produce      json
// @Param        search query string false "Order number"
// @Param        status query string false "Order status"
// @Param        user_id query string false "Customer" format(uuid)
// @Param        from query string false "From date (2006-01-02)"
// @Param        to query string false "To date (2006-01-02)"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]trade.OrderListItemResponse]
// @Security     BearerAuth
// @Router       /admin/orders [get]
func (h *OrderHandler) AdminList(c *gin.Context) {
	st, ok := h.currentSite(c)
	if !ok {
		return
	}
	var filter trade.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.orders.List(c.Request.Context(), st.ID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// AdminGet godoc
// @ID           adminGetOrder
// @Summary      Get an order with its log and refunds
// @Tags         admin-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[trade.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders/{id} [get]
func (h *OrderHandler) AdminGet(c *gin.Context) {
	withSiteAndID(&h.BaseHandler, c, "id", h.orders.Get)
}

// StartProcessing godoc
// @ID           adminProcessOrder
// @Summary      Start fulfilling a paid order
// @Tags         admin-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[trade.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders/{id}/process [post]
func (h *OrderHandler) StartProcessing(c *gin.Context) {
	withAdminOrder(h, c, "id", h.orders.StartProcessing)
}

// Ship godoc
// @ID           adminShipOrder
// @Summary      Ship an order
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body trade.ShipOrderRequest true "Tracking"
// @Success      200 {object} APIResponse[trade.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders/{id}/ship [post]
func (h *OrderHandler) Ship(c *gin.Context) {
	var req trade.ShipOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	withAdminOrder(h, c, "id", func(ctx context.Context, siteID, orderID, adminID uuid.UUID) (*trade.OrderResponse, error) {
		return h.orders.Ship(ctx, siteID, orderID, adminID, req)
	})
}

// MarkDelivered godoc
// @ID           adminDeliverOrder
// @Summary      Mark an order delivered
// @Tags         admin-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[trade.OrderResponse]
// @Security     BearerAuth
// @Router       /admin/orders/{id}/deliver [post]
func (h *OrderHandler) MarkDelivered(c *gin.Context) {
	withAdminOrder(h, c, "id", h.orders.MarkDelivered)
}

// Complete godoc
// @ID           adminCompleteOrder
// @Summary      Complete an order
// @Tags         admin-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[trade.OrderResponse]
// @Security     BearerAuth
// @Router       /admin/orders/{id}/complete [post]
func (h *OrderHandler) Complete(c *gin.Context) {
	withAdminOrder(h, c, "id", h.orders.Complete)
}

// AdminCancel godoc
// @ID           adminCancelOrder
// @Summary      Cancel an order
// @Description  Reserved stock is restored
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body trade.CancelOrderRequest true "Reason"
// @Success      200 {object} APIResponse[trade.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders/{id}/cancel [post]
func (h *OrderHandler) AdminCancel(c *gin.Context) {
	var req trade.CancelOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	withAdminOrder(h, c, "id", func(ctx context.Context, siteID, orderID, adminID uuid.UUID) (*trade.OrderResponse, error) {
		return h.orders.Cancel(ctx, siteID, orderID, adminID, req)
	})
}

// ListRefunds godoc
// @ID           adminListRefunds
// @Summary      Refund requests awaiting review
// @Tags         admin-orders
// @Produce      json
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]trade.RefundResponse]
// @Security     BearerAuth
// @Router       /admin/refunds [get]
func (h *OrderHandler) ListRefunds(c *gin.Context) {
	st, ok := h.currentSite(c)
	if !ok {
		return
	}
	var q pageQuery
	if !h.bindQuery(c, &q) {
		return
	}
	refunds, err := h.orders.ListOpenRefunds(c.Request.Context(), st.ID, q.Page, q.PageSize)
	reply(&h.BaseHandler, c, refunds, err)
}

// ApproveRefund godoc
// @ID           adminApproveRefund
// @Summary      Approve a refund
// @Description  Refunds through the gateway that took the payment
// @Tags         admin-orders
// @Produce      json
// @Param        refund_id path string true "Refund ID" format(uuid)
// @Success      200 {object} APIResponse[trade.RefundResponse]
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/refunds/{refund_id}/approve [post]
func (h *OrderHandler) ApproveRefund(c *gin.Context) {
	withAdminOrder(h, c, "refund_id", h.orders.ApproveRefund)
}

// RejectRefund godoc
// @ID           adminRejectRefund
// @Summary      Reject a refund
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        refund_id path string true "Refund ID" format(uuid)
// @Param        request body trade.RejectRefundRequest true "Reason"
// @Success      200 {object} APIResponse[trade.RefundResponse]
// @Security     BearerAuth
// @Router       /admin/refunds/{refund_id}/reject [post]
func (h *OrderHandler) RejectRefund(c *gin.Context) {
	var req trade.RejectRefundRequest
	if !h.bindJSON(c, &req) {
		return
	}
	withAdminOrder(h, c, "refund_id", func(ctx context.Context, siteID, refundID, adminID uuid.UUID) (*trade.RefundResponse, error) {
		return h.orders.RejectRefund(ctx, siteID, refundID, adminID, req)
	})
}

// withOwnOrder runs fn for the signed-in shopper's :id order
func withOwnOrder[T any](h *OrderHandler, c *gin.Context, fn func(ctx context.Context, siteID, userID, orderID uuid.UUID) (T, error)) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	withSiteAndID(&h.BaseHandler, c, "id", func(ctx context.Context, siteID, orderID uuid.UUID) (T, error) {
		return fn(ctx, siteID, userID, orderID)
	})
}

// withAdminOrder runs fn on behalf of the signed-in admin
func withAdminOrder[T any](h *OrderHandler, c *gin.Context, param string, fn func(ctx context.Context, siteID, id, adminID uuid.UUID) (T, error)) {
	adminID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	withSiteAndID(&h.BaseHandler, c, param, func(ctx context.Context, siteID, id uuid.UUID) (T, error) {
		return fn(ctx, siteID, id, adminID)
	})
}
