package resource

type CreateResourceRequest struct {
	Type        string         `json:"type" validate:"required"`
	Name        string         `json:"name" validate:"required,max=255"`
	Description string         `json:"description" validate:"max=4000"`
	Metadata    map[string]any `json:"metadata"`
	IsActive    *bool          `json:"is_active"`
}

// UpdateResourceRequest is a partial update; nil fields are left unchanged.
type UpdateResourceRequest struct {
	Type        *string        `json:"type"`
	Name        *string        `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string        `json:"description" validate:"omitempty,max=4000"`
	Metadata    map[string]any `json:"metadata"`
	IsActive    *bool          `json:"is_active"`
}

type ResourceFilter struct {
	Type           Type
	IsActive       *bool
	IncludeDeleted bool
}
