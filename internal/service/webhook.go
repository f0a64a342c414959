package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/desi_occasions/internal/metrics"
	"github.com/Skotchmaster/desi_occasions/internal/mykafka"
	"github.com/Skotchmaster/desi_occasions/internal/payments"
)

type WebhookVerifier interface {
	Configured() bool
	Verify(payload []byte, sigHeader string) (*payments.Event, error)
}

type WebhookService struct {
	Verifier WebhookVerifier
	Events   EventPublisher
	Metrics  *metrics.Metrics
	Clock    Clock
}

// Handle authenticates a provider callback. Nothing is trusted unless the
// signature verifies against the configured secret.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, sigHeader string) (*payments.Event, error) {
	if strings.TrimSpace(sigHeader) == "" || s.Verifier == nil || !s.Verifier.Configured() {
		s.Metrics.Webhook("rejected", "")
		return nil, fmt.Errorf("%w: Missing stripe signature/secret", ErrValidation)
	}
	ev, err := s.Verifier.Verify(payload, sigHeader)
	if err != nil {
		s.Metrics.Webhook("rejected", "")
		return nil, fmt.Errorf("%w: Webhook signature verification failed: %s", ErrValidation, err.Error())
	}
	s.Metrics.Webhook("ok", ev.Type)

	publish(ctx, s.Events, mykafka.TopicPaymentEvents, ev.ID, mykafka.PaymentEvent{
		Type:        mykafka.EventStripeWebhook,
		StripeID:    ev.ID,
		StripeType:  ev.Type,
		Livemode:    ev.Livemode,
		CreatedUnix: ev.Created,
		At:          s.Clock.now().UTC(),
	})
	return ev, nil
}
