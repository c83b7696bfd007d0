package capacity

type InitializeRequest struct {
	StartDate     string `json:"start_date" validate:"required"`
	EndDate       string `json:"end_date" validate:"required"`
	DailyCapacity int    `json:"daily_capacity" validate:"gte=0"`
}
