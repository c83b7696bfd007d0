package capacity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Capacity is the per-(resource, date) counter. AvailableCapacity only changes
// inside Service.AdjustMany.
type Capacity struct {
	ID                string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ResourceID        string    `json:"resource_id" gorm:"type:varchar(36);not null;uniqueIndex:ux_capacity_resource_date,priority:1;index"`
	Date              string    `json:"date" gorm:"type:varchar(10);not null;uniqueIndex:ux_capacity_resource_date,priority:2;index"`
	MaxCapacity       int       `json:"max_capacity" gorm:"not null;check:max_capacity >= available_capacity"`
	AvailableCapacity int       `json:"available_capacity" gorm:"not null;check:available_capacity >= 0"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Capacity) TableName() string {
	return "resource_capacities"
}

func (c *Capacity) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Adjustment is a signed change to one date's available capacity.
type Adjustment struct {
	Date  string
	Delta int
}

// DateAvailability answers whether quantity units can be held on Date.
type DateAvailability struct {
	Date              string `json:"date"`
	Available         bool   `json:"available"`
	AvailableCapacity int    `json:"available_capacity"`
	MaxCapacity       int    `json:"max_capacity"`
	Reason            string `json:"reason,omitempty"`
	Blackout          bool   `json:"blackout,omitempty"`
}

type AvailableDate struct {
	Date              string `json:"date"`
	AvailableCapacity int    `json:"available_capacity"`
	MaxCapacity       int    `json:"max_capacity"`
}

type ReportRow struct {
	Date               string  `json:"date"`
	MaxCapacity        int     `json:"max_capacity"`
	AvailableCapacity  int     `json:"available_capacity"`
	Reserved           int     `json:"reserved"`
	UtilizationPercent float64 `json:"utilization_percent"`
	Blackout           string  `json:"blackout,omitempty"`
}
