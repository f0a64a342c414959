package transport

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/desi_occasions/internal/models"
)

// FreeText accepts a JSON string, number or null and keeps its text form.
type FreeText string

func (f *FreeText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*f = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FreeText(s)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*f = FreeText(b)
	default:
		return fmt.Errorf("expected string or number, got %s", b)
	}
	return nil
}

type Selection struct {
	ItemID uuid.UUID `json:"item_id"`
	Qty    int       `json:"qty"`
}

type CreateOrderRequest struct {
	OrderType string      `json:"order_type"`
	MealSlot  string      `json:"meal_slot"`
	Items     []Selection `json:"items"`

	CustomerName     string `json:"customer_name"`
	CustomerWhatsApp string `json:"customer_whatsapp"`

	DeliveryDate    string   `json:"delivery_date"`
	DeliveryTime    string   `json:"delivery_time"`
	DeliveryAddress string   `json:"delivery_address"`
	DeliveryMapURL  string   `json:"delivery_map_url"`
	DeliveryFee     FreeText `json:"delivery_fee"`

	Note string `json:"note"`

	SaveAddress  bool   `json:"save_address"`
	AddressLabel string `json:"address_label"`
}

type OrderCreatedResponse struct {
	Order       *models.Order `json:"order"`
	TrackingURL string        `json:"tracking_url"`
}

type VendorSummary struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	City         string `json:"city"`
	WhatsAppE164 string `json:"whatsapp_e164"`
}

type OrderView struct {
	Order       *models.Order `json:"order"`
	Vendor      VendorSummary `json:"vendor"`
	TrackingURL string        `json:"tracking_url"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type CheckoutRequest struct {
	Type       string            `json:"type"`
	AmountGBP  *float64          `json:"amount_gbp"`
	PriceID    string            `json:"price_id"`
	SuccessURL string            `json:"successUrl"`
	CancelURL  string            `json:"cancelUrl"`
	Metadata   map[string]string `json:"metadata"`
}

type OrderCheckoutRequest struct {
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type WebhookAck struct {
	Received bool   `json:"received"`
	Type     string `json:"type"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type SendMessageRequest struct {
	ToE164 string `json:"toE164"`
	Body   string `json:"body"`
}

type SendMessageResponse struct {
	OK    bool            `json:"ok"`
	Resp  json.RawMessage `json:"resp,omitempty"`
	Error string          `json:"error,omitempty"`
}

type AddressRequest struct {
	Label   string `json:"label"`
	Address string `json:"address"`
	MapURL  string `json:"map_url"`
}

type VendorProfileRequest struct {
	Slug     string  `json:"slug"`
	Name     string  `json:"name"`
	City     string  `json:"city"`
	WhatsApp string  `json:"whatsapp_e164"`
	MapURL   *string `json:"map_url"`

	BreakfastCapacity *int    `json:"breakfast_capacity"`
	LunchCapacity     *int    `json:"lunch_capacity"`
	DinnerCapacity    *int    `json:"dinner_capacity"`
	BreakfastCutoff   *string `json:"breakfast_cutoff"`
	LunchCutoff       *string `json:"lunch_cutoff"`
	DinnerCutoff      *string `json:"dinner_cutoff"`

	Categories         []string `json:"categories"`
	SupportedOccasions []string `json:"supported_occasions"`
	DietaryTags        []string `json:"dietary_tags"`

	CoverImageURL *string `json:"cover_image_url"`
	MenuPDFURL    *string `json:"menu_pdf_url"`
}

type CatalogItemRequest struct {
	Kind        string   `json:"kind"`
	MealSlot    string   `json:"meal_slot"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	PriceGBP    *float64 `json:"price_gbp"`
	IsVeg       *bool    `json:"is_veg"`
}

type GalleryRequest struct {
	URLs []string `json:"urls"`
}

type DirectoryQuery struct {
	City     string `query:"city"`
	Category string `query:"category"`
	Occasion string `query:"occasion"`
	Diet     string `query:"diet"`
	Q        string `query:"q"`
	Page     int    `query:"page"`
	Size     int    `query:"size"`
}

type VendorListResponse struct {
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	Size    int             `json:"size"`
	Vendors []models.Vendor `json:"vendors"`
}

type StorefrontResponse struct {
	Vendor  *models.Vendor       `json:"vendor"`
	Catalog []models.CatalogItem `json:"catalog"`
	Gallery []models.VendorMedia `json:"gallery"`
}

type DashboardOrdersQuery struct {
	OrderType string `query:"type"`
	MealSlot  string `query:"slot"`
	Date      string `query:"date"`
	Page      int    `query:"page"`
	Size      int    `query:"size"`
}

type DashboardOrdersResponse struct {
	Orders []models.Order   `json:"orders"`
	Counts map[string]int64 `json:"counts"`
}

type SlotCapacity struct {
	Slot      string  `json:"slot"`
	Capacity  *int    `json:"capacity,omitempty"`
	Used      int64   `json:"used"`
	Remaining *int64  `json:"remaining,omitempty"`
	Cutoff    *string `json:"cutoff,omitempty"`
	Closed    bool    `json:"closed"`
}

type CapacityResponse struct {
	Date  string         `json:"date"`
	Slots []SlotCapacity `json:"slots"`
}

type MagicLinkRequest struct {
	Email string `json:"email"`
}

type SessionRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type MeResponse struct {
	UserID string         `json:"user_id"`
	Email  string         `json:"email,omitempty"`
	Vendor *VendorSummary `json:"vendor,omitempty"`
}
