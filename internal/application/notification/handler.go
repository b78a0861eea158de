package notification

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/Marusmurong/mall-sub000/internal/domain/payment"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/Marusmurong/mall-sub000/internal/domain/trade"
	"go.uber.org/zap"
)

// EventHandler turns order and payment events into Telegram messages.
// Each message goes to the configured admin chats plus the site's own chat,
// unless the site switched the telegram_notifications feature off.
type EventHandler struct {
	sender     Sender
	sites      SiteLookup
	adminChats []string
	logger     *zap.Logger
}

// NewEventHandler creates the handler
func NewEventHandler(sender Sender, sites SiteLookup, adminChats []string, logger *zap.Logger) *EventHandler {
	chats := make([]string, 0, len(adminChats))
	for _, c := range adminChats {
		if c = strings.TrimSpace(c); c != "" {
			chats = append(chats, c)
		}
	}
	return &EventHandler{sender: sender, sites: sites, adminChats: chats, logger: logger}
}

// EventTypes returns the events that produce a message
func (h *EventHandler) EventTypes() []string {
	return []string{
		trade.EventTypeOrderCreated,
		trade.EventTypeOrderPaid,
		trade.EventTypeOrderShipped,
		trade.EventTypeOrderCancelled,
		trade.EventTypeOrderRefundRequested,
		trade.EventTypeOrderRefunded,
		payment.EventTypePaymentCompleted,
		payment.EventTypePaymentFailed,
	}
}

// Handle formats the event and sends it. It fails only when no chat
// received the message, so a retry does not spam the chats that did.
func (h *EventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	s, err := h.sites.FindByID(ctx, event.SiteID())
	if err != nil {
		return fmt.Errorf("load site for notification: %w", err)
	}
	if !s.HasFeature(site.FeatureTelegramNotifications) {
		h.logger.Debug("Telegram notifications disabled for site", zap.String("site", s.Code))
		return nil
	}

	text := Format(s, event)
	if text == "" {
		return nil
	}

	chats := h.recipients(s)
	if len(chats) == 0 {
		return nil
	}

	var errs []error
	for _, chat := range chats {
		if err := h.sender.Send(ctx, chat, text); err != nil {
			h.logger.Warn("Telegram notification failed",
				zap.String("chat_id", chat),
				zap.String("event_type", event.EventType()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	if len(errs) == len(chats) {
		return errors.Join(errs...)
	}
	return nil
}

func (h *EventHandler) recipients(s *site.Site) []string {
	chats := append([]string(nil), h.adminChats...)
	if s.TelegramChatID != "" {
		for _, c := range chats {
			if c == s.TelegramChatID {
				return chats
			}
		}
		chats = append(chats, s.TelegramChatID)
	}
	return chats
}

// Format renders an event as Telegram HTML. Unknown events render empty.
func Format(s *site.Site, event shared.DomainEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>[%s]</b> ", html.EscapeString(s.Name))

	switch e := event.(type) {
	case *trade.OrderCreatedEvent:
		fmt.Fprintf(&b, "🛒 New order <code>%s</code>\nItems: %d\nTotal: %s %s",
			e.OrderNumber, e.ItemCount, e.Total.StringFixed(2), e.Currency)
	case *trade.OrderPaidEvent:
		fmt.Fprintf(&b, "💰 Order <code>%s</code> paid\nMethod: %s\nTotal: %s %s",
			e.OrderNumber, html.EscapeString(e.PaymentMethod), e.Total.StringFixed(2), e.Currency)
	case *trade.OrderShippedEvent:
		fmt.Fprintf(&b, "📦 Order <code>%s</code> shipped\nCarrier: %s\nTracking: %s",
			e.OrderNumber, html.EscapeString(e.Carrier), html.EscapeString(e.TrackingNumber))
	case *trade.OrderCancelledEvent:
		fmt.Fprintf(&b, "❌ Order <code>%s</code> cancelled (was %s)", e.OrderNumber, e.PreviousStatus)
		if e.Reason != "" {
			fmt.Fprintf(&b, "\nReason: %s", html.EscapeString(e.Reason))
		}
	case *trade.OrderRefundRequestedEvent:
		fmt.Fprintf(&b, "↩️ Refund requested for <code>%s</code>\nAmount: %s %s",
			e.OrderNumber, e.Amount.StringFixed(2), e.Currency)
		if e.Reason != "" {
			fmt.Fprintf(&b, "\nReason: %s", html.EscapeString(e.Reason))
		}
	case *trade.OrderRefundedEvent:
		fmt.Fprintf(&b, "✅ Refund completed for <code>%s</code>\nAmount: %s %s",
			e.OrderNumber, e.Amount.StringFixed(2), e.Currency)
	case *payment.PaymentCompletedEvent:
		// order payments are announced by OrderPaid
		if e.WishlistItemID == nil {
			return ""
		}
		fmt.Fprintf(&b, "🎁 Wishlist item paid\nMethod: %s\nAmount: %s %s",
			e.Method, e.Amount.StringFixed(2), e.Currency)
	case *payment.PaymentFailedEvent:
		fmt.Fprintf(&b, "⚠️ Payment failed\nMethod: %s\nAmount: %s %s",
			e.Method, e.Amount.StringFixed(2), e.Currency)
		if e.FailureReason != "" {
			fmt.Fprintf(&b, "\nReason: %s", html.EscapeString(e.FailureReason))
		}
	default:
		return ""
	}
	return b.String()
}

var _ shared.EventHandler = (*EventHandler)(nil)
