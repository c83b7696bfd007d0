package blackout

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Blackout blocks a resource for every date in [StartDate, EndDate].
type Blackout struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ResourceID string    `json:"resource_id" gorm:"type:varchar(36);not null;index"`
	StartDate  string    `json:"start_date" gorm:"type:varchar(10);not null"`
	EndDate    string    `json:"end_date" gorm:"type:varchar(10);not null"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Blackout) TableName() string {
	return "resource_blackouts"
}

func (b *Blackout) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Covers reports whether the inclusive range contains date (YYYY-MM-DD).
func (b *Blackout) Covers(date string) bool {
	return b.StartDate <= date && date <= b.EndDate
}
