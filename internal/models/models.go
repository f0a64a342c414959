package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OrderTypeDaily    = "daily"
	OrderTypeOccasion = "occasion"

	SlotBreakfast = "breakfast"
	SlotLunch     = "lunch"
	SlotDinner    = "dinner"
)

const (
	OrderStatusSent           = "sent"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusInProgress     = "in_progress"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusCompleted      = "completed"
	OrderStatusCancelled      = "cancelled"
)

// OrderStatuses is listed in display order. Any status may be set from any other.
var OrderStatuses = []string{
	OrderStatusSent,
	OrderStatusConfirmed,
	OrderStatusInProgress,
	OrderStatusOutForDelivery,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

var MealSlots = []string{SlotBreakfast, SlotLunch, SlotDinner}

// Upper bounds for order arithmetic. With at most MaxOrderLines lines every
// total stays far inside int64.
const (
	MaxQty        = 1000
	MaxPricePence = 100_000_000
	MaxOrderLines = 100
)

func IsValidStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func IsValidSlot(s string) bool {
	return s == SlotBreakfast || s == SlotLunch || s == SlotDinner
}

func IsValidOrderType(s string) bool {
	return s == OrderTypeDaily || s == OrderTypeOccasion
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

type Vendor struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"             json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"   json:"-"`
	Slug   string    `gorm:"uniqueIndex;not null"             json:"slug"`
	Name   string    `gorm:"not null"                         json:"name"`
	City   string    `gorm:"index;not null;default:''"        json:"city"`

	WhatsAppE164 string  `gorm:"column:whatsapp_e164;not null" json:"whatsapp_e164"`
	MapURL       *string `json:"map_url,omitempty"`

	BreakfastCapacity *int    `json:"breakfast_capacity,omitempty"`
	LunchCapacity     *int    `json:"lunch_capacity,omitempty"`
	DinnerCapacity    *int    `json:"dinner_capacity,omitempty"`
	BreakfastCutoff   *string `json:"breakfast_cutoff,omitempty"`
	LunchCutoff       *string `json:"lunch_cutoff,omitempty"`
	DinnerCutoff      *string `json:"dinner_cutoff,omitempty"`

	Categories         datatypes.JSONSlice[string] `json:"categories"`
	SupportedOccasions datatypes.JSONSlice[string] `json:"supported_occasions"`
	DietaryTags        datatypes.JSONSlice[string] `json:"dietary_tags"`

	CoverImageURL *string `json:"cover_image_url,omitempty"`
	MenuPDFURL    *string `gorm:"column:menu_pdf_url" json:"menu_pdf_url,omitempty"`

	IsVerified bool `gorm:"not null;default:false" json:"is_verified"`
	IsFeatured bool `gorm:"not null;default:false" json:"is_featured"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *Vendor) BeforeCreate(tx *gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

func (Vendor) TableName() string { return "vendors" }

// Capacity returns the per-slot order limit; nil means unlimited.
func (v *Vendor) Capacity(slot string) *int {
	switch slot {
	case SlotBreakfast:
		return v.BreakfastCapacity
	case SlotLunch:
		return v.LunchCapacity
	case SlotDinner:
		return v.DinnerCapacity
	}
	return nil
}

// Cutoff returns the per-slot "HH:MM" ordering cutoff; nil means none.
func (v *Vendor) Cutoff(slot string) *string {
	switch slot {
	case SlotBreakfast:
		return v.BreakfastCutoff
	case SlotLunch:
		return v.LunchCutoff
	case SlotDinner:
		return v.DinnerCutoff
	}
	return nil
}

type CatalogItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"        json:"id"`
	VendorID    uuid.UUID `gorm:"type:uuid;index;not null"    json:"vendor_id"`
	Kind        string    `gorm:"not null"                    json:"kind"`
	MealSlot    *string   `json:"meal_slot,omitempty"`
	Title       string    `gorm:"not null"                    json:"title"`
	Description *string   `json:"description,omitempty"`
	PricePence  *int64    `json:"price_pence,omitempty"`
	IsVeg       *bool     `json:"is_veg,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (i *CatalogItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

func (CatalogItem) TableName() string { return "vendor_catalog" }

type VendorMedia struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	VendorID  uuid.UUID `gorm:"type:uuid;index;not null" json:"vendor_id"`
	URL       string    `gorm:"not null"                 json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *VendorMedia) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

func (VendorMedia) TableName() string { return "vendor_gallery" }

// LineItem is a priced snapshot of a catalog item at order time.
// Daily items carry their meal slot; occasion packages never do.
type LineItem struct {
	ItemID         uuid.UUID `json:"item_id"`
	Kind           string    `json:"kind"`
	MealSlot       string    `json:"meal_slot,omitempty"`
	Title          string    `json:"title"`
	Qty            int       `json:"qty"`
	UnitPricePence *int64    `json:"unit_price_pence,omitempty"`
}

func (li LineItem) Validate() error {
	if li.ItemID == uuid.Nil {
		return errors.New("line item without item_id")
	}
	if li.Qty <= 0 || li.Qty > MaxQty {
		return fmt.Errorf("line item %s: qty must be 1..%d", li.ItemID, MaxQty)
	}
	if li.UnitPricePence != nil && (*li.UnitPricePence < 0 || *li.UnitPricePence > MaxPricePence) {
		return fmt.Errorf("line item %s: price out of range", li.ItemID)
	}
	switch li.Kind {
	case OrderTypeDaily:
		if !IsValidSlot(li.MealSlot) {
			return fmt.Errorf("line item %s: daily item needs a meal slot", li.ItemID)
		}
	case OrderTypeOccasion:
		if li.MealSlot != "" {
			return fmt.Errorf("line item %s: occasion package has no meal slot", li.ItemID)
		}
	default:
		return fmt.Errorf("line item %s: unknown kind %q", li.ItemID, li.Kind)
	}
	return nil
}

// LineTotal is qty x unit price; items without a price count as 0.
func (li LineItem) LineTotal() int64 {
	if li.UnitPricePence == nil {
		return 0
	}
	return int64(li.Qty) * *li.UnitPricePence
}

type Order struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"     json:"id"`
	VendorID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"vendor_id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index"          json:"user_id,omitempty"`
	OrderType string     `gorm:"not null"                 json:"order_type"`
	MealSlot  *string    `json:"meal_slot,omitempty"`

	Items datatypes.JSONSlice[LineItem] `gorm:"not null" json:"items"`

	CustomerName         string  `gorm:"not null;default:''" json:"customer_name"`
	CustomerWhatsAppE164 *string `gorm:"column:customer_whatsapp_e164" json:"customer_whatsapp_e164,omitempty"`

	DeliveryDate    string  `gorm:"index;not null;default:''" json:"delivery_date"`
	DeliveryTime    string  `gorm:"not null;default:''" json:"delivery_time"`
	DeliveryAddress string  `gorm:"not null;default:''" json:"delivery_address"`
	DeliveryMapURL  *string `json:"delivery_map_url,omitempty"`

	DeliveryFeePence int64 `gorm:"not null;default:0" json:"delivery_fee_pence"`
	SubtotalPence    int64 `gorm:"not null" json:"subtotal_pence"`
	TotalPence       int64 `gorm:"not null" json:"total_pence"`

	Note   string `gorm:"not null;default:''" json:"note"`
	Status string `gorm:"index;not null"      json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

func (Order) TableName() string { return "orders" }

type CustomerAddress struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	Label     string    `gorm:"not null;default:''"      json:"label"`
	Address   string    `gorm:"not null"                 json:"address"`
	MapURL    *string   `json:"map_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *CustomerAddress) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

func (CustomerAddress) TableName() string { return "customer_addresses" }

const (
	NotifyOrderCreated   = "order_created"
	NotifyStatusVendor   = "status_vendor"
	NotifyStatusCustomer = "status_customer"
)

// NotificationFailure records a message that could not be delivered.
type NotificationFailure struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   *uuid.UUID `gorm:"type:uuid;index"      json:"order_id,omitempty"`
	Kind      string     `gorm:"not null"             json:"kind"`
	ToE164    string     `gorm:"column:to_e164;not null" json:"to_e164"`
	Body      string     `gorm:"not null"             json:"body"`
	Error     string     `gorm:"not null"             json:"error"`
	CreatedAt time.Time  `json:"created_at"`
}

func (f *NotificationFailure) BeforeCreate(tx *gorm.DB) error {
	ensureID(&f.ID)
	return nil
}

func (NotificationFailure) TableName() string { return "notification_failures" }

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&Vendor{},
		&CatalogItem{},
		&VendorMedia{},
		&Order{},
		&CustomerAddress{},
		&NotificationFailure{},
	}
}
