package capacity

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn in a database transaction bound to ctx.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// InsertMissing inserts rows whose (resource_id, date) does not exist yet and
// returns how many were created.
func (r *Repository) InsertMissing(ctx context.Context, rows []Capacity) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "resource_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		Create(&rows)
	return res.RowsAffected, res.Error
}

func (r *Repository) FindDates(ctx context.Context, resourceID string, dates []string) ([]Capacity, error) {
	var out []Capacity
	err := r.db.WithContext(ctx).
		Where("resource_id = ? AND date IN ?", resourceID, dates).
		Order("date ASC").
		Find(&out).Error
	return out, err
}

func (r *Repository) FindRange(ctx context.Context, resourceID, start, end string) ([]Capacity, error) {
	var out []Capacity
	err := r.db.WithContext(ctx).
		Where("resource_id = ? AND date >= ? AND date <= ?", resourceID, start, end).
		Order("date ASC").
		Find(&out).Error
	return out, err
}

// lockRow re-reads the row inside tx. On Postgres the row is also locked
// FOR UPDATE until tx ends; SQLite ignores the clause.
func lockRow(tx *gorm.DB, resourceID, date string) (*Capacity, error) {
	var row Capacity
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("resource_id = ? AND date = ?", resourceID, date).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCapacityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func setAvailable(tx *gorm.DB, id string, available int, now time.Time) error {
	return tx.Model(&Capacity{}).
		Where("id = ?", id).
		Updates(map[string]any{"available_capacity": available, "updated_at": now}).Error
}
