package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/desi_occasions/internal/models"
)

type OrderFilter struct {
	OrderType string
	MealSlot  string
	Date      string
}

func (f OrderFilter) apply(q *gorm.DB) *gorm.DB {
	if f.OrderType != "" {
		q = q.Where("order_type = ?", f.OrderType)
	}
	if f.MealSlot != "" {
		q = q.Where("meal_slot = ?", f.MealSlot)
	}
	if f.Date != "" {
		q = q.Where("delivery_date = ?", f.Date)
	}
	return q
}

// CreateOrder inserts order. For daily orders with a capacity limit the
// vendor row is locked and the slot usage is re-counted inside the same transaction.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order, capacity *int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if capacity != nil && order.MealSlot != nil {
			lock := tx
			if tx.Dialector.Name() == "postgres" {
				lock = tx.Clauses(clause.Locking{Strength: "UPDATE"})
			}
			var v models.Vendor
			if err := lock.Select("id").First(&v, "id = ?", order.VendorID).Error; err != nil {
				return translate(err)
			}

			used, err := countActive(tx, order.VendorID, *order.MealSlot, order.DeliveryDate)
			if err != nil {
				return err
			}
			if used >= int64(*capacity) {
				return ErrCapacity
			}
		}
		return translate(tx.Create(order).Error)
	})
}

func (r *GormRepo) OrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// UpdateOrderStatus overwrites the status column without looking at the previous value.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) ListVendorOrders(ctx context.Context, vendorID uuid.UUID, f OrderFilter, limit, offset int) ([]models.Order, error) {
	q := f.apply(r.DB.WithContext(ctx).Model(&models.Order{}).Where("vendor_id = ?", vendorID))

	var out []models.Order
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) CountVendorOrdersByStatus(ctx context.Context, vendorID uuid.UUID, f OrderFilter) (map[string]int64, error) {
	q := f.apply(r.DB.WithContext(ctx).Model(&models.Order{}).Where("vendor_id = ?", vendorID))

	var rows []struct {
		Status string
		N      int64
	}
	if err := q.Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(models.OrderStatuses))
	for _, s := range models.OrderStatuses {
		out[s] = 0
	}
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

// CountActiveOrders counts non-cancelled daily orders for one vendor, slot and date.
func (r *GormRepo) CountActiveOrders(ctx context.Context, vendorID uuid.UUID, slot, date string) (int64, error) {
	return countActive(r.DB.WithContext(ctx), vendorID, slot, date)
}

func countActive(db *gorm.DB, vendorID uuid.UUID, slot, date string) (int64, error) {
	var n int64
	err := db.Model(&models.Order{}).
		Where("vendor_id = ? AND order_type = ? AND meal_slot = ? AND delivery_date = ? AND status <> ?",
			vendorID, models.OrderTypeDaily, slot, date, models.OrderStatusCancelled).
		Count(&n).Error
	return n, err
}
