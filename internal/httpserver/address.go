package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Skotchmaster/desi_occasions/internal/service"
	"github.com/Skotchmaster/desi_occasions/internal/transport"
	"github.com/Skotchmaster/desi_occasions/pkg/logging"
)

type AddressHTTP struct {
	Svc *service.AddressService
}

func (h *AddressHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "address.list"))

	uid, err := userID(c)
	if err != nil {
		return reject(l, "list_addresses_error", http.StatusUnauthorized, "unauthorized", err)
	}
	out, err := h.Svc.List(ctx, uid)
	if err != nil {
		return fail(l, "list_addresses_error", err, "internal error")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AddressHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "address.create"))

	uid, err := userID(c)
	if err != nil {
		return reject(l, "create_address_error", http.StatusUnauthorized, "unauthorized", err)
	}
	var req transport.AddressRequest
	if err := c.Bind(&req); err != nil {
		return reject(l, "create_address_error", http.StatusBadRequest, "invalid body", err)
	}

	a, err := h.Svc.Create(ctx, uid, req)
	if err != nil {
		return fail(l, "create_address_error", err, "internal error")
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *AddressHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "address.delete"))

	uid, err := userID(c)
	if err != nil {
		return reject(l, "delete_address_error", http.StatusUnauthorized, "unauthorized", err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return reject(l, "delete_address_error", http.StatusBadRequest, "invalid address id", err)
	}

	if err := h.Svc.Delete(ctx, uid, id); err != nil {
		return fail(l, "delete_address_error", err, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}
