package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Skotchmaster/desi_occasions/internal/service"
	"github.com/Skotchmaster/desi_occasions/internal/transport"
	"github.com/Skotchmaster/desi_occasions/pkg/logging"
)

type MessageHTTP struct {
	Svc *service.MessageService
}

func (h *MessageHTTP) Send(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "message.send"))

	var req transport.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return reject(l, "send_message_error", http.StatusBadRequest, "invalid body", err)
	}

	resp, err := h.Svc.Send(ctx, req.ToE164, req.Body)
	if err != nil {
		status := statusOf(err)
		if status < http.StatusInternalServerError {
			return fail(l, "send_message_error", err, "")
		}
		l.Error("send_message_error", zap.Int("status", status), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, transport.SendMessageResponse{OK: false, Error: service.Message(err)})
	}
	return c.JSON(http.StatusOK, transport.SendMessageResponse{OK: true, Resp: resp})
}
