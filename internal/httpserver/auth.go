package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Skotchmaster/desi_occasions/internal/service"
	"github.com/Skotchmaster/desi_occasions/internal/transport"
	"github.com/Skotchmaster/desi_occasions/pkg/logging"
	middleware "github.com/Skotchmaster/desi_occasions/pkg/middleware/auth"
	"github.com/Skotchmaster/desi_occasions/pkg/tokens"
)

type MagicLinker interface {
	SendMagicLink(ctx context.Context, email, redirectTo string) error
}

type AuthHTTP struct {
	Client    MagicLinker
	JWTSecret []byte
	BaseURL   string
	Vendors   *service.VendorService
}

func (h *AuthHTTP) MagicLink(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "auth.magic_link"))

	var req transport.MagicLinkRequest
	if err := c.Bind(&req); err != nil {
		return reject(l, "magic_link_error", http.StatusBadRequest, "invalid body", err)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return reject(l, "magic_link_error", http.StatusBadRequest, "valid email required", err)
	}
	if h.Client == nil {
		l.Error("magic_link_error", zap.Int("status", http.StatusServiceUnavailable), zap.String("reason", "auth not configured"))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "sign-in is not configured")
	}

	if err := h.Client.SendMagicLink(ctx, addr.Address, h.BaseURL+"/vendor/dashboard"); err != nil {
		l.Error("magic_link_error", zap.Int("status", http.StatusBadGateway), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "could not send sign-in link")
	}
	return c.JSON(http.StatusOK, transport.OKResponse{OK: true})
}

// Session stores tokens obtained by the browser from the hosted auth redirect as cookies.
func (h *AuthHTTP) Session(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "auth.session"))

	var req transport.SessionRequest
	if err := c.Bind(&req); err != nil {
		return reject(l, "session_error", http.StatusBadRequest, "invalid body", err)
	}
	if req.AccessToken == "" {
		return reject(l, "session_error", http.StatusBadRequest, "access_token required", nil)
	}

	claims, err := tokens.AccessClaimsFromToken(req.AccessToken, h.JWTSecret)
	if err != nil {
		return reject(l, "session_error", http.StatusUnauthorized, "invalid access token", err)
	}

	now := time.Now()
	exp := now.Add(time.Hour)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, req.AccessToken, "/", exp))
	if req.RefreshToken != "" {
		c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, req.RefreshToken, "/", now.Add(middleware.RefreshCookieTTL())))
	}

	l.Info("session_created", zap.String("user_id", claims.Subject))
	return c.JSON(http.StatusOK, transport.MeResponse{UserID: claims.Subject, Email: claims.Email})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
	return c.JSON(http.StatusOK, transport.OKResponse{OK: true})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "auth.me"))

	uid, err := userID(c)
	if err != nil {
		return reject(l, "me_error", http.StatusUnauthorized, "unauthorized", err)
	}
	email, _ := c.Get("email").(string)
	res := transport.MeResponse{UserID: uid.String(), Email: email}

	if h.Vendors != nil {
		v, err := h.Vendors.OwnVendor(ctx, uid)
		switch {
		case err == nil:
			res.Vendor = &transport.VendorSummary{Slug: v.Slug, Name: v.Name, City: v.City, WhatsAppE164: v.WhatsAppE164}
		case !errors.Is(err, service.ErrNotFound):
			return fail(l, "me_error", err, "internal error")
		}
	}
	return c.JSON(http.StatusOK, res)
}
