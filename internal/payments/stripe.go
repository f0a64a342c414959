package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"

	CurrencyGBP = "gbp"
)

var ErrNotConfigured = errors.New("stripe secret key not configured")

type SessionRequest struct {
	Mode        string
	ProductName string
	AmountPence int64
	Currency    string
	PriceID     string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

type Session struct {
	ID  string
	URL string
}

type Event struct {
	ID       string
	Type     string
	Created  int64
	Livemode bool
}

// Checkout creates hosted Stripe Checkout sessions.
type Checkout struct {
	api *client.API
}

// NewCheckout returns nil when secretKey is empty. backends may be nil.
func NewCheckout(secretKey string, backends *stripe.Backends) *Checkout {
	if secretKey == "" {
		return nil
	}
	return &Checkout{api: client.New(secretKey, backends)}
}

func (c *Checkout) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if c == nil || c.api == nil {
		return nil, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(req.Mode),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}

	switch req.Mode {
	case ModeSubscription:
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(req.PriceID),
			Quantity: stripe.Int64(1),
		}}
	case ModePayment:
		currency := req.Currency
		if currency == "" {
			currency = CurrencyGBP
		}
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.ProductName),
				},
				UnitAmount: stripe.Int64(req.AmountPence),
			},
			Quantity: stripe.Int64(1),
		}}
	default:
		return nil, fmt.Errorf("unsupported checkout mode %q", req.Mode)
	}

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	ctx, span := otel.Tracer("desi_occasions/payments").Start(ctx, "stripe.checkout_session",
		trace.WithAttributes(attribute.String("checkout.mode", req.Mode)))
	defer span.End()
	params.Context = ctx

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create session failed")
		return nil, fmt.Errorf("stripe checkout: %w", err)
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

// WebhookVerifier checks the Stripe-Signature header against the endpoint secret.
type WebhookVerifier struct {
	Secret string
}

func (v *WebhookVerifier) Configured() bool {
	return v != nil && v.Secret != ""
}

func (v *WebhookVerifier) Verify(payload []byte, sigHeader string) (*Event, error) {
	if !v.Configured() {
		return nil, errors.New("webhook secret not configured")
	}
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.Secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:       ev.ID,
		Type:     string(ev.Type),
		Created:  ev.Created,
		Livemode: ev.Livemode,
	}, nil
}
