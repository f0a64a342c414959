package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/desi_occasions/internal/models"
)

func (r *GormRepo) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.CustomerAddress, error) {
	var out []models.CustomerAddress
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) CreateAddress(ctx context.Context, a *models.CustomerAddress) error {
	return translate(r.DB.WithContext(ctx).Create(a).Error)
}

func (r *GormRepo) AddressByID(ctx context.Context, id uuid.UUID) (*models.CustomerAddress, error) {
	var a models.CustomerAddress
	if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// DeleteAddress is scoped to the owner as well as the id.
func (r *GormRepo) DeleteAddress(ctx context.Context, id, userID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.CustomerAddress{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
