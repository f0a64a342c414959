package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Skotchmaster/desi_occasions/internal/whatsapp"
)

const maxMessageBody = 1600

type MessageService struct {
	Sender whatsapp.Sender
}

// Send delivers one WhatsApp message synchronously and returns the provider reply.
func (s *MessageService) Send(ctx context.Context, to, body string) (json.RawMessage, error) {
	if strings.TrimSpace(to) == "" || strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: toE164 and body required", ErrValidation)
	}
	phone, err := NormalizeE164(to)
	if err != nil {
		return nil, err
	}
	if s.Sender == nil {
		return nil, fmt.Errorf("%w: whatsapp sender not configured", ErrUnavailable)
	}
	return s.Sender.Send(ctx, phone, SafeText(body, maxMessageBody))
}
