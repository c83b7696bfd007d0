package capacity

import (
	"errors"

	"reservecore/internal/domain"
)

const (
	ReasonNoCapacity   = "no capacity configured"
	ReasonInsufficient = "insufficient capacity"

	CodeInsufficientCapacity = "insufficient_capacity"
	CodeExceedsMaxCapacity   = "exceeds_max_capacity"
)

var (
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrExceedsMaxCapacity   = errors.New("exceeds max capacity")

	ErrCapacityNotFound = domain.NotFoundError{Resource: "capacity"}
)
