package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/desi_occasions/internal/models"
)

func (r *GormRepo) CreateCatalogItem(ctx context.Context, item *models.CatalogItem) error {
	return translate(r.DB.WithContext(ctx).Create(item).Error)
}

// ListCatalog returns a vendor's items oldest first; empty kind/slot match everything.
func (r *GormRepo) ListCatalog(ctx context.Context, vendorID uuid.UUID, kind, slot string) ([]models.CatalogItem, error) {
	q := r.DB.WithContext(ctx).Where("vendor_id = ?", vendorID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if slot != "" {
		q = q.Where("meal_slot = ?", slot)
	}

	var out []models.CatalogItem
	if err := q.Order("created_at ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CatalogItemsByIDs only returns items owned by vendorID.
func (r *GormRepo) CatalogItemsByIDs(ctx context.Context, vendorID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.CatalogItem, error) {
	out := make(map[uuid.UUID]models.CatalogItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.CatalogItem
	if err := r.DB.WithContext(ctx).Where("vendor_id = ? AND id IN ?", vendorID, ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r *GormRepo) AddMedia(ctx context.Context, media []models.VendorMedia) error {
	if len(media) == 0 {
		return nil
	}
	return translate(r.DB.WithContext(ctx).Create(&media).Error)
}

func (r *GormRepo) ListMedia(ctx context.Context, vendorID uuid.UUID) ([]models.VendorMedia, error) {
	var out []models.VendorMedia
	if err := r.DB.WithContext(ctx).Where("vendor_id = ?", vendorID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
