package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Skotchmaster/desi_occasions/internal/transport"
	"github.com/Skotchmaster/desi_occasions/pkg/db"
	"github.com/Skotchmaster/desi_occasions/pkg/logging"
	middleware "github.com/Skotchmaster/desi_occasions/pkg/middleware/auth"
)

type Deps struct {
	DB       *gorm.DB
	Gatherer prometheus.Gatherer

	Vendors   *VendorHTTP
	Orders    *OrderHTTP
	Addresses *AddressHTTP
	Payments  *PaymentHTTP
	Messages  *MessageHTTP
	Auth      *AuthHTTP

	JWTSecret  []byte
	AuthClient middleware.Refresher
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB != nil {
			if err := db.Ping(c.Request().Context(), d.DB); err != nil {
				logging.FromContext(c.Request().Context()).Warn("ready_error", zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, transport.ErrorResponse{Error: "database unavailable"})
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)

	v1 := e.Group("/api/v1")

	v1.GET("/labels", d.Vendors.Labels)
	v1.GET("/vendors", d.Vendors.ListVendors)
	v1.GET("/vendors/:slug", d.Vendors.Storefront)
	v1.POST("/vendors/:slug/orders", d.Orders.CreateOrder, authMW.OptionalAuth)

	v1.GET("/orders/:id", d.Orders.GetOrder)
	v1.PATCH("/orders/:id/status", d.Orders.UpdateStatus, authMW.RequireAuth)
	v1.POST("/orders/:id/checkout", d.Orders.StartCheckout)

	v1.POST("/stripe/checkout", d.Payments.CreateCheckout)
	v1.POST("/stripe/webhook", d.Payments.Webhook)

	v1.POST("/whatsapp/send", d.Messages.Send, authMW.RequireAuth)

	auth := v1.Group("/auth")
	auth.POST("/magic-link", d.Auth.MagicLink)
	auth.POST("/session", d.Auth.Session)
	auth.POST("/logout", d.Auth.Logout)
	v1.GET("/me", d.Auth.Me, authMW.RequireAuth)

	account := v1.Group("/account", authMW.RequireAuth)
	account.GET("/addresses", d.Addresses.List)
	account.POST("/addresses", d.Addresses.Create)
	account.DELETE("/addresses/:id", d.Addresses.Delete)

	vendor := v1.Group("/vendor", authMW.RequireAuth)
	vendor.GET("/profile", d.Vendors.GetProfile)
	vendor.PUT("/profile", d.Vendors.SaveProfile)
	vendor.GET("/catalog", d.Vendors.ListCatalog)
	vendor.POST("/catalog", d.Vendors.AddCatalogItem)
	vendor.GET("/gallery", d.Vendors.ListGallery)
	vendor.POST("/gallery", d.Vendors.AddGallery)
	vendor.GET("/orders", d.Vendors.Orders)
	vendor.GET("/capacity", d.Vendors.Capacity)
	vendor.GET("/notification-failures", d.Vendors.NotificationFailures)
}
