package hold

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Hold, error) {
	var h Hold
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// FindByRequestToken returns every hold created under token, ordered by date.
func (r *Repository) FindByRequestToken(ctx context.Context, token string) ([]Hold, error) {
	var out []Hold
	err := r.db.WithContext(ctx).
		Where("request_token = ?", token).
		Order("date ASC").
		Find(&out).Error
	return out, err
}

func (r *Repository) ListActive(ctx context.Context, resourceID, date string) ([]Hold, error) {
	var out []Hold
	err := r.db.WithContext(ctx).
		Where("resource_id = ? AND date = ? AND status = ?", resourceID, date, StatusActive).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// ListExpired returns ACTIVE holds whose expiry is strictly before now, oldest
// first, leaving out the ids in skip.
func (r *Repository) ListExpired(ctx context.Context, now time.Time, limit int, skip []string) ([]Hold, error) {
	var out []Hold
	q := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", StatusActive, now)
	if len(skip) > 0 {
		q = q.Where("id NOT IN ?", skip)
	}
	err := q.Order("expires_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *Repository) AllocationsByOrder(ctx context.Context, orderID string) ([]Allocation, error) {
	var out []Allocation
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("date ASC, created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *Repository) Allocations(ctx context.Context, resourceID, date string) ([]Allocation, error) {
	var out []Allocation
	err := r.db.WithContext(ctx).
		Where("resource_id = ? AND date = ?", resourceID, date).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// Extend moves an ACTIVE hold's expiry. Zero rows means the hold left ACTIVE.
func (r *Repository) Extend(ctx context.Context, id string, expiresAt, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&Hold{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Updates(map[string]any{"expires_at": expiresAt, "updated_at": now})
	return res.RowsAffected, res.Error
}

func createHolds(tx *gorm.DB, holds []Hold) error {
	return tx.Create(&holds).Error
}

func createAllocation(tx *gorm.DB, a *Allocation) error {
	return tx.Create(a).Error
}

// transition moves a hold out of ACTIVE. The status guard makes concurrent
// transitions of the same hold mutually exclusive: only one sees a row affected.
func transition(tx *gorm.DB, id string, to Status, now time.Time, extra ...any) (int64, error) {
	q := tx.Model(&Hold{}).Where("id = ? AND status = ?", id, StatusActive)
	if len(extra) > 0 {
		q = q.Where(extra[0], extra[1:]...)
	}
	res := q.Updates(map[string]any{"status": to, "updated_at": now})
	return res.RowsAffected, res.Error
}
