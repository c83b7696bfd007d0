package blackout

import "reservecore/internal/domain"

const defaultReason = "blackout period"

var ErrBlackoutNotFound = domain.NotFoundError{Resource: "blackout"}
