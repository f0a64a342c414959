package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/desi_occasions/internal/models"
)

func (r *GormRepo) RecordFailure(ctx context.Context, f *models.NotificationFailure) error {
	return translate(r.DB.WithContext(ctx).Create(f).Error)
}

// ListVendorFailures returns failed notifications about orders of one vendor, newest first.
func (r *GormRepo) ListVendorFailures(ctx context.Context, vendorID uuid.UUID, limit int) ([]models.NotificationFailure, error) {
	var out []models.NotificationFailure
	err := r.DB.WithContext(ctx).
		Model(&models.NotificationFailure{}).
		Joins("JOIN orders ON orders.id = notification_failures.order_id").
		Where("orders.vendor_id = ?", vendorID).
		Order("notification_failures.created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
