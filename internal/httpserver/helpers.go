package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Skotchmaster/desi_occasions/internal/service"
	"github.com/Skotchmaster/desi_occasions/internal/transport"
	"github.com/Skotchmaster/desi_occasions/pkg/logging"
)

var errUnauthorized = errors.New("unauthorized")

func userID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get("user_id").(string)
	if !ok || s == "" {
		return uuid.Nil, errUnauthorized
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errUnauthorized
	}
	return id, nil
}

// optionalUserID is nil for anonymous requests.
func optionalUserID(c echo.Context) *uuid.UUID {
	id, err := userID(c)
	if err != nil {
		return nil
	}
	return &id
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail logs err under event and converts it to an HTTP error. internal replaces
// the message of unexpected 500s; an empty internal passes the error text through.
func fail(l *zap.Logger, event string, err error, internal string) error {
	status := statusOf(err)
	reason := service.Message(err)
	if status >= 500 {
		l.Error(event, zap.Int("status", status), zap.String("reason", reason), zap.Error(err))
		if status == http.StatusInternalServerError && internal != "" {
			reason = internal
		}
	} else {
		l.Warn(event, zap.Int("status", status), zap.String("reason", reason), zap.Error(err))
	}
	return echo.NewHTTPError(status, reason)
}

func reject(l *zap.Logger, event string, status int, reason string, err error) error {
	l.Warn(event, zap.Int("status", status), zap.String("reason", reason), zap.Error(err))
	return echo.NewHTTPError(status, reason)
}

// ErrorHandler renders every error as {"error": "..."}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(code)
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, transport.ErrorResponse{Error: msg})
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Warn("write_error_response_error", zap.Error(err))
	}
}
