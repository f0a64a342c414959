package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Skotchmaster/desi_occasions/internal/service"
	"github.com/Skotchmaster/desi_occasions/internal/transport"
	"github.com/Skotchmaster/desi_occasions/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "order.create_order"))

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return reject(l, "create_order_error", http.StatusBadRequest, "invalid body", err)
	}

	res, err := h.Svc.CreateOrder(ctx, c.Param("slug"), req, optionalUserID(c))
	if err != nil {
		return fail(l, "create_order_error", err, "failed to create order")
	}

	l.Info("create_order_success", zap.String("order_id", res.Order.ID.String()))
	return c.JSON(http.StatusCreated, res)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "order.get_order"))

	id, err := pathID(c, "id")
	if err != nil {
		return reject(l, "get_order_error", http.StatusBadRequest, "invalid order id", err)
	}

	view, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		return fail(l, "get_order_error", err, "internal error")
	}
	return c.JSON(http.StatusOK, view)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "order.update_status"))

	uid, err := userID(c)
	if err != nil {
		return reject(l, "update_status_error", http.StatusUnauthorized, "unauthorized", err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return reject(l, "update_status_error", http.StatusBadRequest, "invalid order id", err)
	}
	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return reject(l, "update_status_error", http.StatusBadRequest, "invalid body", err)
	}

	o, err := h.Svc.UpdateStatus(ctx, id, req.Status, uid)
	if err != nil {
		return fail(l, "update_status_error", err, "failed to update order status")
	}

	l.Info("update_status_success", zap.String("order_id", o.ID.String()), zap.String("status", o.Status))
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) StartCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "order.start_checkout"))

	id, err := pathID(c, "id")
	if err != nil {
		return reject(l, "order_checkout_error", http.StatusBadRequest, "invalid order id", err)
	}
	var req transport.OrderCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return reject(l, "order_checkout_error", http.StatusBadRequest, "invalid body", err)
	}

	res, err := h.Svc.StartOrderCheckout(ctx, id, req)
	if err != nil {
		return fail(l, "order_checkout_error", err, "")
	}
	return c.JSON(http.StatusOK, res)
}
