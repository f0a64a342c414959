package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Skotchmaster/desi_occasions/internal/models"
)

// VendorFilter narrows the directory. Tags match one element of the vendor's
// category, occasion or diet list; blank fields are ignored.
type VendorFilter struct {
	City     string
	Q        string
	Category string
	Occasion string
	Diet     string
}

func (r *GormRepo) VendorBySlug(ctx context.Context, slug string) (*models.Vendor, error) {
	var v models.Vendor
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&v).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *GormRepo) VendorByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var v models.Vendor
	if err := r.DB.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *GormRepo) VendorByUserID(ctx context.Context, userID uuid.UUID) (*models.Vendor, error) {
	var v models.Vendor
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&v).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// SlugTaken reports whether slug belongs to a vendor other than except.
func (r *GormRepo) SlugTaken(ctx context.Context, slug string, except uuid.UUID) (bool, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.Vendor{}).Where("slug = ?", slug)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// SaveVendor inserts v when it has no id yet, otherwise updates every column.
func (r *GormRepo) SaveVendor(ctx context.Context, v *models.Vendor) error {
	db := r.DB.WithContext(ctx)
	if v.ID == uuid.Nil {
		return translate(db.Create(v).Error)
	}
	return translate(db.Save(v).Error)
}

// ListVendors returns one page of matching vendors, featured first, then by
// name, along with the number of matches. A limit <= 0 returns every match.
func (r *GormRepo) ListVendors(ctx context.Context, f VendorFilter, offset, limit int) ([]models.Vendor, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Vendor{})
	if city := strings.TrimSpace(f.City); city != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(city))
	}
	if s := strings.TrimSpace(f.Q); s != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(s))+"%")
	}
	for _, t := range [...]struct{ column, tag string }{
		{"categories", f.Category},
		{"supported_occasions", f.Occasion},
		{"dietary_tags", f.Diet},
	} {
		if tag := strings.ToLower(strings.TrimSpace(t.tag)); tag != "" {
			q = q.Where(datatypes.JSONArrayQuery(t.column).Contains(tag))
		}
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	var out []models.Vendor
	if err := q.Order("is_featured DESC").Order("name ASC").Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *GormRepo) VendorsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Vendor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.Vendor
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
