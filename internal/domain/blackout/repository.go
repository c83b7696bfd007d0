package blackout

import (
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, b *Blackout) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *Repository) ListForResource(ctx context.Context, resourceID string) ([]Blackout, error) {
	var out []Blackout
	err := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("start_date ASC, id ASC").
		Find(&out).Error
	return out, err
}

// Overlapping returns blackouts of resourceID intersecting [start, end].
// Dates compare lexically because they are stored as YYYY-MM-DD.
func (r *Repository) Overlapping(ctx context.Context, resourceID, start, end string) ([]Blackout, error) {
	var out []Blackout
	err := r.db.WithContext(ctx).
		Where("resource_id = ? AND start_date <= ? AND end_date >= ?", resourceID, end, start).
		Order("start_date ASC, id ASC").
		Find(&out).Error
	return out, err
}

// Delete returns the number of rows removed.
func (r *Repository) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Blackout{})
	return res.RowsAffected, res.Error
}
