package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports bad caller input. Never retried.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// DeletedError is returned for soft-deleted records. Callers must not treat it as NotFound.
type DeletedError struct {
	Resource string
	Err      error
}

func (e DeletedError) Error() string {
	if e.Resource == "" {
		return "deleted"
	}
	return fmt.Sprintf("%s is deleted", e.Resource)
}

func (e DeletedError) Unwrap() error { return e.Err }

// ConflictError is a state-machine violation: insufficient capacity, wrong hold status, expiry.
type ConflictError struct {
	Code string
	Msg  string
	Err  error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Code != "":
		return e.Code
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// SemanticConflictError is a business-rule rejection (blackouts) reported separately from Conflict.
type SemanticConflictError struct {
	Code string
	Msg  string
	Err  error
}

func (e SemanticConflictError) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Code != "":
		return e.Code
	default:
		return "semantic conflict"
	}
}

func (e SemanticConflictError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsDeleted(err error) bool {
	var target DeletedError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsSemanticConflict(err error) bool {
	var target SemanticConflictError
	return errors.As(err, &target)
}
