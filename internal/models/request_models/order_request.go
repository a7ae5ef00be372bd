package request_models

type CreateOrderRequest struct {
	EventID string `json:"eventId" binding:"required,uuid"`
}
