package mykafka

import "time"

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
	EventStripeWebhook      = "stripe_webhook"
)

type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderID"`
	VendorID   string    `json:"vendorID"`
	OrderType  string    `json:"orderType"`
	MealSlot   string    `json:"mealSlot,omitempty"`
	Status     string    `json:"status"`
	TotalPence int64     `json:"totalPence"`
	At         time.Time `json:"at"`
}

type PaymentEvent struct {
	Type        string    `json:"type"`
	StripeID    string    `json:"stripeID"`
	StripeType  string    `json:"stripeType"`
	Livemode    bool      `json:"livemode"`
	CreatedUnix int64     `json:"createdUnix"`
	At          time.Time `json:"at"`
}
