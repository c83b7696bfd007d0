package hold

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusConfirmed Status = "CONFIRMED"
	StatusReleased  Status = "RELEASED"
	StatusExpired   Status = "EXPIRED"
)

// Hold reserves Quantity units of one resource on one date until ExpiresAt.
// A multi-date request is stored as one Hold per date sharing RequestToken.
type Hold struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ResourceID     string    `json:"resource_id" gorm:"type:varchar(36);not null;index:idx_holds_resource_date,priority:1"`
	Date           string    `json:"date" gorm:"type:varchar(10);not null;index:idx_holds_resource_date,priority:2"`
	Quantity       int       `json:"quantity" gorm:"not null"`
	CustomerEmail  *string   `json:"customer_email,omitempty"`
	ExpiresAt      time.Time `json:"expires_at" gorm:"not null;index:idx_holds_status_expires,priority:2"`
	IdempotencyKey string    `json:"idempotency_key" gorm:"type:varchar(255);not null;uniqueIndex"`
	RequestToken   string    `json:"request_token" gorm:"type:varchar(255);not null;index"`
	Status         Status    `json:"status" gorm:"type:varchar(16);not null;index:idx_holds_status_expires,priority:1"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Hold) TableName() string {
	return "resource_holds"
}

func (h *Hold) BeforeCreate(*gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// Allocation is the permanent record of a confirmed hold. Append-only.
type Allocation struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	HoldID     string    `json:"hold_id" gorm:"type:varchar(36);not null;uniqueIndex"`
	ResourceID string    `json:"resource_id" gorm:"type:varchar(36);not null;index:idx_allocations_resource_date,priority:1"`
	Date       string    `json:"date" gorm:"type:varchar(10);not null;index:idx_allocations_resource_date,priority:2"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	OrderID    string    `json:"order_id" gorm:"type:varchar(255);not null;index"`
	LineItemID string    `json:"line_item_id" gorm:"type:varchar(255);not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Allocation) TableName() string {
	return "resource_allocations"
}

func (a *Allocation) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// idempotencyKey derives the per-date unique key from the caller's token.
func idempotencyKey(token, date string) string {
	return token + ":" + date
}
