package resource

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, res *Resource) error {
	return r.db.WithContext(ctx).Create(res).Error
}

// GetByID returns the resource including soft-deleted rows, or ErrResourceNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*Resource, error) {
	var res Resource
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Save writes every column of res, including zero values.
func (r *Repository) Save(ctx context.Context, res *Resource) error {
	return r.db.WithContext(ctx).Save(res).Error
}

func (r *Repository) List(ctx context.Context, f ResourceFilter) ([]Resource, error) {
	q := r.db.WithContext(ctx).Model(&Resource{})
	if !f.IncludeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}

	var out []Resource
	if err := q.Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
