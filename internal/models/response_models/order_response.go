package response_models

type CreateOrderResponse struct {
	RedirectURL       string `json:"redirect_url"`
	OrderTrackingID   string `json:"order_tracking_id"`
	MerchantReference string `json:"merchant_reference"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
}
