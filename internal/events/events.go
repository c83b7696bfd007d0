// Package events publishes hold lifecycle notifications to the surrounding platform.
// Publishing is best effort: callers log failures and never roll back on them.
package events

import (
	"context"
	"time"
)

const (
	HoldCreated   = "hold.created"
	HoldConfirmed = "hold.confirmed"
	HoldReleased  = "hold.released"
	HoldExpired   = "hold.expired"
	HoldExtended  = "hold.extended"
)

type Event struct {
	Type         string    `json:"type"`
	HoldID       string    `json:"hold_id"`
	ResourceID   string    `json:"resource_id"`
	Date         string    `json:"date"`
	Quantity     int       `json:"quantity"`
	Status       string    `json:"status"`
	RequestToken string    `json:"request_token,omitempty"`
	OrderID      string    `json:"order_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, ...Event) error { return nil }
