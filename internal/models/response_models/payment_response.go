package response_models

type IPNAckResponse struct {
	OrderTrackingID        string `json:"orderTrackingId"`
	OrderMerchantReference string `json:"orderMerchantReference"`
	Status                 int    `json:"status"`
}

type CallbackResponse struct {
	Status                   string `json:"status"`
	PaymentStatusDescription string `json:"paymentStatusDescription"`
	ConfirmationCode         string `json:"confirmationCode,omitempty"`
}

type VerifyResponse struct {
	Valid         bool   `json:"valid"`
	PaymentStatus string `json:"payment_status"`
	TicketStatus  string `json:"ticket_status,omitempty"`
	TicketCode    string `json:"ticket_code,omitempty"`
}
