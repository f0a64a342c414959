package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Skotchmaster/desi_occasions/internal/metrics"
	"github.com/Skotchmaster/desi_occasions/internal/models"
	"github.com/Skotchmaster/desi_occasions/internal/mykafka"
	"github.com/Skotchmaster/desi_occasions/internal/notify"
	"github.com/Skotchmaster/desi_occasions/internal/repo"
	"github.com/Skotchmaster/desi_occasions/internal/transport"
	"github.com/Skotchmaster/desi_occasions/pkg/logging"
)

const (
	maxCustomerName = 80
	maxAddress      = 300
	maxNote         = 500
	maxAddressLabel = 40
	maxDeliveryTime = 60
)

type OrderService struct {
	Repo     *repo.GormRepo
	Notifier Notifier
	Events   EventPublisher
	Checkout *CheckoutService
	Metrics  *metrics.Metrics
	BaseURL  string
	Clock    Clock
}

// CreateOrder validates a customer's selections against the vendor's catalog,
// stores the order as "sent" and queues the vendor notification.
func (s *OrderService) CreateOrder(ctx context.Context, slug string, req transport.CreateOrderRequest, userID *uuid.UUID) (*transport.OrderCreatedResponse, error) {
	selections, err := mergeSelections(req.Items)
	if err != nil {
		return nil, err
	}
	if len(selections) == 0 {
		return nil, fmt.Errorf("%w: select at least one item", ErrValidation)
	}

	var slot *string
	switch req.OrderType {
	case models.OrderTypeDaily:
		if !models.IsValidSlot(req.MealSlot) {
			return nil, fmt.Errorf("%w: meal_slot must be breakfast, lunch or dinner", ErrValidation)
		}
		ms := req.MealSlot
		slot = &ms
	case models.OrderTypeOccasion:
		if req.MealSlot != "" {
			return nil, fmt.Errorf("%w: occasion orders have no meal_slot", ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: order_type must be daily or occasion", ErrValidation)
	}

	date, err := s.deliveryDate(req.OrderType, req.DeliveryDate)
	if err != nil {
		return nil, err
	}
	fee, err := ParseDeliveryFee(string(req.DeliveryFee))
	if err != nil {
		return nil, err
	}
	var phone *string
	if raw := strings.TrimSpace(req.CustomerWhatsApp); raw != "" {
		if p, err := NormalizeE164(raw); err == nil {
			phone = &p
		} else {
			logging.FromContext(ctx).Warn("customer_whatsapp_dropped", zap.String("reason", Message(err)))
		}
	}
	mapURL, err := optionalURL("delivery_map_url", &req.DeliveryMapURL, maxMapURL)
	if err != nil {
		return nil, err
	}

	vendor, err := s.Repo.VendorBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: vendor %q", ErrNotFound, slug)
		}
		return nil, err
	}

	items, err := s.snapshot(ctx, vendor.ID, req.OrderType, req.MealSlot, selections)
	if err != nil {
		return nil, err
	}

	var capacity *int
	if slot != nil {
		if cutoff := vendor.Cutoff(*slot); s.Clock.cutoffPassed(date, cutoff) {
			return nil, fmt.Errorf("%w: %s orders for today closed at %s", ErrValidation, *slot, *cutoff)
		}
		capacity = vendor.Capacity(*slot)
	}

	subtotal, total := OrderTotals(items, fee)
	order := &models.Order{
		VendorID:             vendor.ID,
		UserID:               userID,
		OrderType:            req.OrderType,
		MealSlot:             slot,
		Items:                items,
		CustomerName:         SafeText(req.CustomerName, maxCustomerName),
		CustomerWhatsAppE164: phone,
		DeliveryDate:         date,
		DeliveryTime:         SafeText(req.DeliveryTime, maxDeliveryTime),
		DeliveryAddress:      SafeText(req.DeliveryAddress, maxAddress),
		DeliveryMapURL:       mapURL,
		DeliveryFeePence:     fee,
		SubtotalPence:        subtotal,
		TotalPence:           total,
		Note:                 SafeText(req.Note, maxNote),
		Status:               models.OrderStatusSent,
	}

	if err := s.Repo.CreateOrder(ctx, order, capacity); err != nil {
		if errors.Is(err, repo.ErrCapacity) {
			return nil, fmt.Errorf("%w: %s is fully booked for %s", ErrConflict, *slot, date)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.Metrics.OrderCreated(order.OrderType)

	if req.SaveAddress && userID != nil && order.DeliveryAddress != "" {
		s.saveAddress(ctx, *userID, req.AddressLabel, order)
	}

	s.notify(ctx, order, models.NotifyOrderCreated, vendor.WhatsAppE164, NewOrderMessage(s.BaseURL, order))
	publish(ctx, s.Events, mykafka.TopicOrderEvents, order.ID.String(), s.orderEvent(mykafka.EventOrderCreated, order))

	return &transport.OrderCreatedResponse{Order: order, TrackingURL: TrackingURL(s.BaseURL, order)}, nil
}

// deliveryDate defaults a missing daily date to today so the cutoff and
// capacity rules have a day to apply to. Occasion orders may leave it empty.
func (s *OrderService) deliveryDate(orderType, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if orderType == models.OrderTypeDaily {
			return s.Clock.today(), nil
		}
		return "", nil
	}
	return parseDate("delivery_date", raw)
}

// mergeSelections drops zero quantities and sums repeated items, keeping first-seen order.
func mergeSelections(in []transport.Selection) ([]transport.Selection, error) {
	out := make([]transport.Selection, 0, len(in))
	at := make(map[uuid.UUID]int, len(in))
	for _, sel := range in {
		if sel.Qty < 0 {
			return nil, fmt.Errorf("%w: qty must not be negative", ErrValidation)
		}
		if sel.Qty == 0 {
			continue
		}
		if sel.Qty > models.MaxQty {
			return nil, fmt.Errorf("%w: qty must be at most %d", ErrValidation, models.MaxQty)
		}
		if sel.ItemID == uuid.Nil {
			return nil, fmt.Errorf("%w: item_id required", ErrValidation)
		}
		if i, ok := at[sel.ItemID]; ok {
			out[i].Qty += sel.Qty
			if out[i].Qty > models.MaxQty {
				return nil, fmt.Errorf("%w: qty must be at most %d", ErrValidation, models.MaxQty)
			}
			continue
		}
		if len(out) == models.MaxOrderLines {
			return nil, fmt.Errorf("%w: at most %d different items per order", ErrValidation, models.MaxOrderLines)
		}
		at[sel.ItemID] = len(out)
		out = append(out, sel)
	}
	return out, nil
}

func (s *OrderService) snapshot(ctx context.Context, vendorID uuid.UUID, orderType, slot string, sel []transport.Selection) ([]models.LineItem, error) {
	ids := make([]uuid.UUID, 0, len(sel))
	for _, x := range sel {
		ids = append(ids, x.ItemID)
	}
	catalog, err := s.Repo.CatalogItemsByIDs(ctx, vendorID, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.LineItem, 0, len(sel))
	for _, x := range sel {
		c, ok := catalog[x.ItemID]
		if !ok {
			return nil, fmt.Errorf("%w: item %s is not on this vendor's menu", ErrValidation, x.ItemID)
		}
		if c.Kind != orderType {
			return nil, fmt.Errorf("%w: %q cannot be ordered as %s", ErrValidation, c.Title, orderType)
		}
		li := models.LineItem{
			ItemID:         c.ID,
			Kind:           c.Kind,
			Title:          c.Title,
			Qty:            x.Qty,
			UnitPricePence: c.PricePence,
		}
		if orderType == models.OrderTypeDaily {
			if c.MealSlot == nil || *c.MealSlot != slot {
				return nil, fmt.Errorf("%w: %q is not on the %s menu", ErrValidation, c.Title, slot)
			}
			li.MealSlot = slot
		}
		if err := li.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
		items = append(items, li)
	}
	return items, nil
}

func (s *OrderService) saveAddress(ctx context.Context, userID uuid.UUID, label string, o *models.Order) {
	a := &models.CustomerAddress{
		UserID:  userID,
		Label:   SafeText(label, maxAddressLabel),
		Address: o.DeliveryAddress,
		MapURL:  o.DeliveryMapURL,
	}
	if err := s.Repo.CreateAddress(ctx, a); err != nil {
		logging.FromContext(ctx).Warn("save_address_error", zap.String("order_id", o.ID.String()), zap.Error(err))
	}
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*transport.OrderView, error) {
	o, err := s.Repo.OrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: order not found", ErrNotFound)
		}
		return nil, err
	}
	v, err := s.Repo.VendorByID(ctx, o.VendorID)
	if err != nil {
		return nil, err
	}
	return &transport.OrderView{
		Order: o,
		Vendor: transport.VendorSummary{
			Slug:         v.Slug,
			Name:         v.Name,
			City:         v.City,
			WhatsAppE164: v.WhatsAppE164,
		},
		TrackingURL: TrackingURL(s.BaseURL, o),
	}, nil
}

// UpdateStatus overwrites the order status. Any status may follow any other;
// only the vendor that received the order may change it.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string, actor uuid.UUID) (*models.Order, error) {
	if !models.IsValidStatus(status) {
		return nil, fmt.Errorf("%w: status must be one of %s", ErrValidation, strings.Join(models.OrderStatuses, ", "))
	}

	o, err := s.Repo.OrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: order not found", ErrNotFound)
		}
		return nil, err
	}
	v, err := s.Repo.VendorByID(ctx, o.VendorID)
	if err != nil {
		return nil, err
	}
	if v.UserID != actor {
		return nil, fmt.Errorf("%w: only the vendor can update this order", ErrForbidden)
	}

	if err := s.Repo.UpdateOrderStatus(ctx, o.ID, status); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: order not found", ErrNotFound)
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	o.Status = status
	s.Metrics.StatusUpdated(status)

	s.notify(ctx, o, models.NotifyStatusVendor, v.WhatsAppE164, VendorStatusMessage(s.BaseURL, o))
	if o.CustomerWhatsAppE164 != nil {
		s.notify(ctx, o, models.NotifyStatusCustomer, *o.CustomerWhatsAppE164, CustomerStatusMessage(s.BaseURL, o))
	}
	publish(ctx, s.Events, mykafka.TopicOrderEvents, o.ID.String(), s.orderEvent(mykafka.EventOrderStatusChanged, o))
	return o, nil
}

// StartOrderCheckout opens a payment session for the stored order total.
func (s *OrderService) StartOrderCheckout(ctx context.Context, id uuid.UUID, req transport.OrderCheckoutRequest) (*transport.CheckoutResponse, error) {
	o, err := s.Repo.OrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: order not found", ErrNotFound)
		}
		return nil, err
	}
	if o.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: order is cancelled", ErrValidation)
	}
	if o.TotalPence <= 0 {
		return nil, fmt.Errorf("%w: order has nothing to pay", ErrValidation)
	}
	return s.Checkout.ForOrder(ctx, o, req.SuccessURL, req.CancelURL)
}

func (s *OrderService) notify(ctx context.Context, o *models.Order, kind, to, body string) {
	if s.Notifier == nil {
		return
	}
	id := o.ID
	s.Notifier.Notify(ctx, notify.Job{OrderID: &id, Kind: kind, To: to, Body: body})
}

func (s *OrderService) orderEvent(typ string, o *models.Order) mykafka.OrderEvent {
	ev := mykafka.OrderEvent{
		Type:       typ,
		OrderID:    o.ID.String(),
		VendorID:   o.VendorID.String(),
		OrderType:  o.OrderType,
		Status:     o.Status,
		TotalPence: o.TotalPence,
		At:         s.Clock.now().UTC(),
	}
	if o.MealSlot != nil {
		ev.MealSlot = *o.MealSlot
	}
	return ev
}
