package resource

import (
	"errors"

	"reservecore/internal/domain"
)

var (
	ErrInvalidType = errors.New("invalid resource type")

	ErrResourceNotFound = domain.NotFoundError{Resource: "resource"}
	ErrResourceDeleted  = domain.DeletedError{Resource: "resource"}
)
