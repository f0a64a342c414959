package httpserver

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Skotchmaster/desi_occasions/internal/service"
	"github.com/Skotchmaster/desi_occasions/internal/transport"
	"github.com/Skotchmaster/desi_occasions/pkg/logging"
)

const maxWebhookBody = 1 << 20

type PaymentHTTP struct {
	Checkout *service.CheckoutService
	Webhooks *service.WebhookService
}

func (h *PaymentHTTP) CreateCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "payment.create_checkout"))

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return reject(l, "create_checkout_error", http.StatusBadRequest, "invalid body", err)
	}

	res, err := h.Checkout.CreateSession(ctx, req)
	if err != nil {
		return fail(l, "create_checkout_error", err, "")
	}
	l.Info("create_checkout_success", zap.String("type", req.Type))
	return c.JSON(http.StatusOK, res)
}

// Webhook needs the exact request bytes, so the body is read raw instead of bound.
func (h *PaymentHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "payment.webhook"))

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return reject(l, "webhook_error", http.StatusBadRequest, "could not read body", err)
	}

	ev, err := h.Webhooks.Handle(ctx, payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		return fail(l, "webhook_error", err, "internal error")
	}
	l.Info("webhook_received", zap.String("event_id", ev.ID), zap.String("type", ev.Type))
	return c.JSON(http.StatusOK, transport.WebhookAck{Received: true, Type: ev.Type})
}
