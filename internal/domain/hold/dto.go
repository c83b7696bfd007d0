package hold

type CreateHoldInput struct {
	ResourceID       string   `json:"resourceId" validate:"required"`
	Dates            []string `json:"dates" validate:"required,min=1,max=365"`
	Quantity         int      `json:"quantity"`
	IdempotencyToken string   `json:"idempotencyToken" validate:"required,max=200"`
	CustomerEmail    string   `json:"customerEmail" validate:"omitempty,email"`
}

type CreateHoldResult struct {
	Hold    *Hold  `json:"hold"`
	Holds   []Hold `json:"holds"`
	Created bool   `json:"created"`
}

type ConfirmHoldInput struct {
	OrderID    string `json:"order_id" validate:"required,max=255"`
	LineItemID string `json:"line_item_id" validate:"required,max=255"`
}

type ExtendHoldInput struct {
	Minutes *int `json:"minutes"`
}
