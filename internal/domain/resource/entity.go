package resource

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Type is the closed set of bookable resource kinds.
type Type string

const (
	TypeVehicle   Type = "VEHICLE"
	TypeTour      Type = "TOUR"
	TypeGuide     Type = "GUIDE"
	TypeEquipment Type = "EQUIPMENT"
)

var allTypes = []Type{TypeVehicle, TypeTour, TypeGuide, TypeEquipment}

func (t Type) Valid() bool {
	for _, v := range allTypes {
		if t == v {
			return true
		}
	}
	return false
}

type Resource struct {
	ID          string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Type        Type           `json:"type" gorm:"type:varchar(20);not null;index"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata" gorm:"serializer:json"`
	IsActive    bool           `json:"is_active" gorm:"not null"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Resource) TableName() string {
	return "resources"
}

func (r *Resource) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r *Resource) IsDeleted() bool {
	return r.DeletedAt != nil
}
