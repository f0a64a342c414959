package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Skotchmaster/desi_occasions/internal/metrics"
	"github.com/Skotchmaster/desi_occasions/internal/models"
	"github.com/Skotchmaster/desi_occasions/internal/payments"
	"github.com/Skotchmaster/desi_occasions/internal/transport"
)

const (
	CheckoutDaily        = models.OrderTypeDaily
	CheckoutOccasion     = models.OrderTypeOccasion
	CheckoutSubscription = "subscription"
)

type CheckoutProvider interface {
	CreateSession(ctx context.Context, req payments.SessionRequest) (*payments.Session, error)
}

type CheckoutService struct {
	Provider CheckoutProvider
	Metrics  *metrics.Metrics
}

// CreateSession validates a checkout request before any call to the provider.
func (s *CheckoutService) CreateSession(ctx context.Context, req transport.CheckoutRequest) (*transport.CheckoutResponse, error) {
	switch req.Type {
	case CheckoutDaily, CheckoutOccasion, CheckoutSubscription:
	case "":
		return nil, fmt.Errorf("%w: type required", ErrValidation)
	default:
		return nil, fmt.Errorf("%w: type must be daily, occasion or subscription", ErrValidation)
	}
	success, cancel := strings.TrimSpace(req.SuccessURL), strings.TrimSpace(req.CancelURL)
	if success == "" || cancel == "" {
		return nil, fmt.Errorf("%w: successUrl and cancelUrl required", ErrValidation)
	}

	sr := payments.SessionRequest{
		SuccessURL: success,
		CancelURL:  cancel,
		Metadata:   req.Metadata,
	}
	if req.Type == CheckoutSubscription {
		if strings.TrimSpace(req.PriceID) == "" {
			return nil, fmt.Errorf("%w: price_id required for subscription", ErrValidation)
		}
		sr.Mode = payments.ModeSubscription
		sr.PriceID = strings.TrimSpace(req.PriceID)
	} else {
		if req.AmountGBP == nil {
			return nil, fmt.Errorf("%w: amount_gbp required", ErrValidation)
		}
		amount := *req.AmountGBP
		if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
			return nil, fmt.Errorf("%w: amount_gbp must be a positive number", ErrValidation)
		}
		pence, err := PenceFromGBP("amount_gbp", amount)
		if err != nil {
			return nil, err
		}
		if pence < 1 {
			return nil, fmt.Errorf("%w: amount_gbp must be at least 0.01", ErrValidation)
		}
		sr.Mode = payments.ModePayment
		sr.Currency = payments.CurrencyGBP
		sr.AmountPence = pence
		sr.ProductName = productName(req.Type)
	}
	return s.create(ctx, sr)
}

// ForOrder prices a payment session from a stored order.
func (s *CheckoutService) ForOrder(ctx context.Context, o *models.Order, successURL, cancelURL string) (*transport.CheckoutResponse, error) {
	success, cancel := strings.TrimSpace(successURL), strings.TrimSpace(cancelURL)
	if success == "" || cancel == "" {
		return nil, fmt.Errorf("%w: successUrl and cancelUrl required", ErrValidation)
	}
	return s.create(ctx, payments.SessionRequest{
		Mode:        payments.ModePayment,
		ProductName: productName(o.OrderType),
		AmountPence: o.TotalPence,
		Currency:    payments.CurrencyGBP,
		SuccessURL:  success,
		CancelURL:   cancel,
		Metadata: map[string]string{
			"order_id":  o.ID.String(),
			"vendor_id": o.VendorID.String(),
		},
	})
}

func (s *CheckoutService) create(ctx context.Context, sr payments.SessionRequest) (*transport.CheckoutResponse, error) {
	if s == nil || s.Provider == nil {
		return nil, fmt.Errorf("%w: payments are not configured", ErrUnavailable)
	}
	sess, err := s.Provider.CreateSession(ctx, sr)
	if err != nil {
		s.Metrics.Checkout(sr.Mode, "error")
		if errors.Is(err, payments.ErrNotConfigured) {
			return nil, fmt.Errorf("%w: payments are not configured", ErrUnavailable)
		}
		return nil, err
	}
	s.Metrics.Checkout(sr.Mode, "ok")
	return &transport.CheckoutResponse{URL: sess.URL}, nil
}

func productName(kind string) string {
	if kind == CheckoutOccasion {
		return "Desi Occasions deposit"
	}
	return "Desi Occasions order"
}
