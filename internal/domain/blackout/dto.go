package blackout

type CreateBlackoutRequest struct {
	ResourceID string `json:"resource_id" validate:"required"`
	StartDate  string `json:"start_date" validate:"required"`
	EndDate    string `json:"end_date" validate:"required"`
	Reason     string `json:"reason" validate:"max=500"`
}
