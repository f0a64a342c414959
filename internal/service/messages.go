package service

import (
	"strings"

	"github.com/Skotchmaster/desi_occasions/internal/models"
)

func TrackingURL(baseURL string, o *models.Order) string {
	return strings.TrimRight(baseURL, "/") + "/order/" + o.ID.String()
}

func statusLabel(s string) string { return strings.ReplaceAll(s, "_", " ") }

func NewOrderMessage(baseURL string, o *models.Order) string {
	line := "Occasion order"
	if o.OrderType == models.OrderTypeDaily && o.MealSlot != nil {
		line = "Meal: " + *o.MealSlot
	}
	return "New order on Desi Occasions\n" + line + "\nOrder link: " + TrackingURL(baseURL, o)
}

func VendorStatusMessage(baseURL string, o *models.Order) string {
	return "Order update on Desi Occasions\nOrder: " + o.ID.String() +
		"\nNew status: " + statusLabel(o.Status) +
		"\nTrack: " + TrackingURL(baseURL, o)
}

func CustomerStatusMessage(baseURL string, o *models.Order) string {
	return "Your order update on Desi Occasions\nNew status: " + statusLabel(o.Status) +
		"\nTrack: " + TrackingURL(baseURL, o)
}
