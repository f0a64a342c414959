package loggingmw

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Skotchmaster/desi_occasions/pkg/logging"
)

// RequestLogger puts a request-scoped logger into the request context
// and logs one line per completed request.
func RequestLogger(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With(
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
				zap.String("url", req.URL.Path),
				zap.String("remote_ip", c.RealIP()),
				zap.String("user_agent", req.UserAgent()),
			)
			if rid != "" {
				l = l.With(zap.String("request_id", rid))
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			l = logging.WithTrace(req.Context(), l)

			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			dur := time.Since(start)

			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status

			switch {
			case status >= 500:
				l.Error("request completed", zap.Int("status", status), zap.Int64("duration_ms", dur.Milliseconds()), zap.Error(err))
			case status >= 400:
				l.Warn("request completed", zap.Int("status", status), zap.Int64("duration_ms", dur.Milliseconds()))
			default:
				l.Info("request completed", zap.Int("status", status), zap.Int64("duration_ms", dur.Milliseconds()), zap.Int64("bytes", c.Response().Size))
			}
			return nil
		}
	}
}
