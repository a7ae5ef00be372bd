package request_models

// IPNRequest is the gateway-initiated push notification body. Field names
// follow the gateway's PascalCase wire format.
type IPNRequest struct {
	OrderTrackingID        string `json:"OrderTrackingId" binding:"required"`
	OrderMerchantReference string `json:"OrderMerchantReference"`
	OrderNotificationType  string `json:"OrderNotificationType"`
}

// CallbackRequest is the payer-browser redirect body used for synchronous
// status confirmation.
type CallbackRequest struct {
	OrderTrackingID        string `json:"OrderTrackingId" binding:"required"`
	OrderMerchantReference string `json:"OrderMerchantReference"`
}
