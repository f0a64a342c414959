package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Skotchmaster/desi_occasions/internal/service"
	"github.com/Skotchmaster/desi_occasions/internal/transport"
	"github.com/Skotchmaster/desi_occasions/pkg/logging"
)

type VendorHTTP struct {
	Svc *service.VendorService
}

type labelsResponse struct {
	Occasions []service.Label `json:"occasions"`
	Dietary   []service.Label `json:"dietary"`
}

func (h *VendorHTTP) Labels(c echo.Context) error {
	return c.JSON(http.StatusOK, labelsResponse{
		Occasions: service.OccasionLabels(),
		Dietary:   service.DietaryLabels(),
	})
}

func (h *VendorHTTP) ListVendors(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "vendor.list_vendors"))

	var q transport.DirectoryQuery
	if err := c.Bind(&q); err != nil {
		return reject(l, "list_vendors_error", http.StatusBadRequest, "invalid query", err)
	}

	res, err := h.Svc.Directory(ctx, q)
	if err != nil {
		return fail(l, "list_vendors_error", err, "internal error")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *VendorHTTP) Storefront(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "vendor.storefront"))

	res, err := h.Svc.Storefront(ctx, c.Param("slug"), c.QueryParam("kind"), c.QueryParam("slot"))
	if err != nil {
		return fail(l, "storefront_error", err, "internal error")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *VendorHTTP) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "vendor.get_profile"))

	uid, err := userID(c)
	if err != nil {
		return reject(l, "get_profile_error", http.StatusUnauthorized, "unauthorized", err)
	}
	v, err := h.Svc.OwnVendor(ctx, uid)
	if err != nil {
		return fail(l, "get_profile_error", err, "internal error")
	}
	return c.JSON(http.StatusOK, v)
}

func (h *VendorHTTP) SaveProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "vendor.save_profile"))

	uid, err := userID(c)
	if err != nil {
		return reject(l, "save_profile_error", http.StatusUnauthorized, "unauthorized", err)
	}
	var req transport.VendorProfileRequest
	if err := c.Bind(&req); err != nil {
		return reject(l, "save_profile_error", http.StatusBadRequest, "invalid body", err)
	}

	v, err := h.Svc.SaveProfile(ctx, uid, req)
	if err != nil {
		return fail(l, "save_profile_error", err, "internal error")
	}
	l.Info("save_profile_success", zap.String("vendor_id", v.ID.String()))
	return c.JSON(http.StatusOK, v)
}

func (h *VendorHTTP) AddCatalogItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "vendor.add_catalog_item"))

	uid, err := userID(c)
	if err != nil {
		return reject(l, "add_catalog_item_error", http.StatusUnauthorized, "unauthorized", err)
	}
	var req transport.CatalogItemRequest
	if err := c.Bind(&req); err != nil {
		return reject(l, "add_catalog_item_error", http.StatusBadRequest, "invalid body", err)
	}

	item, err := h.Svc.AddCatalogItem(ctx, uid, req)
	if err != nil {
		return fail(l, "add_catalog_item_error", err, "internal error")
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *VendorHTTP) ListCatalog(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "vendor.list_catalog"))

	uid, err := userID(c)
	if err != nil {
		return reject(l, "list_catalog_error", http.StatusUnauthorized, "unauthorized", err)
	}
	items, err := h.Svc.OwnCatalog(ctx, uid)
	if err != nil {
		return fail(l, "list_catalog_error", err, "internal error")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *VendorHTTP) AddGallery(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "vendor.add_gallery"))

	uid, err := userID(c)
	if err != nil {
		return reject(l, "add_gallery_error", http.StatusUnauthorized, "unauthorized", err)
	}
	var req transport.GalleryRequest
	if err := c.Bind(&req); err != nil {
		return reject(l, "add_gallery_error", http.StatusBadRequest, "invalid body", err)
	}

	media, err := h.Svc.AddGallery(ctx, uid, req.URLs)
	if err != nil {
		return fail(l, "add_gallery_error", err, "internal error")
	}
	return c.JSON(http.StatusCreated, media)
}

func (h *VendorHTTP) ListGallery(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "vendor.list_gallery"))

	uid, err := userID(c)
	if err != nil {
		return reject(l, "list_gallery_error", http.StatusUnauthorized, "unauthorized", err)
	}
	media, err := h.Svc.OwnGallery(ctx, uid)
	if err != nil {
		return fail(l, "list_gallery_error", err, "internal error")
	}
	return c.JSON(http.StatusOK, media)
}

func (h *VendorHTTP) Orders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "vendor.orders"))

	uid, err := userID(c)
	if err != nil {
		return reject(l, "vendor_orders_error", http.StatusUnauthorized, "unauthorized", err)
	}
	var q transport.DashboardOrdersQuery
	if err := c.Bind(&q); err != nil {
		return reject(l, "vendor_orders_error", http.StatusBadRequest, "invalid query", err)
	}

	res, err := h.Svc.DashboardOrders(ctx, uid, q)
	if err != nil {
		return fail(l, "vendor_orders_error", err, "internal error")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *VendorHTTP) Capacity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "vendor.capacity"))

	uid, err := userID(c)
	if err != nil {
		return reject(l, "capacity_error", http.StatusUnauthorized, "unauthorized", err)
	}
	res, err := h.Svc.Capacity(ctx, uid, c.QueryParam("date"))
	if err != nil {
		return fail(l, "capacity_error", err, "internal error")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *VendorHTTP) NotificationFailures(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "vendor.notification_failures"))

	uid, err := userID(c)
	if err != nil {
		return reject(l, "notification_failures_error", http.StatusUnauthorized, "unauthorized", err)
	}
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			return reject(l, "notification_failures_error", http.StatusBadRequest, "limit must be a number", err)
		}
	}

	rows, err := h.Svc.NotificationFailures(ctx, uid, limit)
	if err != nil {
		return fail(l, "notification_failures_error", err, "internal error")
	}
	return c.JSON(http.StatusOK, rows)
}
