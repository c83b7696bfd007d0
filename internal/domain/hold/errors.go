package hold

import (
	"errors"

	"reservecore/internal/domain"
)

const (
	CodeHoldNotActive    = "hold_not_active"
	CodeHoldExpired      = "hold_expired"
	CodeBlackoutConflict = "blackout_conflict"
)

var (
	ErrHoldNotActive    = errors.New("hold is not active")
	ErrHoldExpired      = errors.New("hold has expired")
	ErrBlackoutConflict = errors.New("requested dates are blacked out")

	ErrHoldNotFound = domain.NotFoundError{Resource: "hold"}
)
