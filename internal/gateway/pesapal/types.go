package pesapal

import (
	"github.com/shopspring/decimal"
)

// Pesapal API v3 status codes returned by GetTransactionStatus.
const (
	StatusCodeInvalid   = 0
	StatusCodeCompleted = 1
	StatusCodeFailed    = 2
	StatusCodeReversed  = 3
)

type BillingAddress struct {
	EmailAddress string `json:"email_address"`
	PhoneNumber  string `json:"phone_number"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}

// OrderRequest is the submit-order payload. ID is the locally generated
// merchant reference.
type OrderRequest struct {
	ID             string          `json:"id"`
	Currency       string          `json:"currency"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	CallbackURL    string          `json:"callback_url"`
	NotificationID string          `json:"notification_id"`
	RedirectMode   string          `json:"redirect_mode,omitempty"`
	Billing        BillingAddress  `json:"billing_address"`
}

type OrderResponse struct {
	OrderTrackingID   string    `json:"order_tracking_id"`
	MerchantReference string    `json:"merchant_reference"`
	RedirectURL       string    `json:"redirect_url"`
	Error             *apiError `json:"error,omitempty"`
	Status            string    `json:"status"`
}

type IPNRegistration struct {
	URL    string    `json:"url"`
	IPNID  string    `json:"ipn_id"`
	Status string    `json:"status"`
	Error  *apiError `json:"error,omitempty"`
}

// TransactionStatus is the authoritative payment state as reported by the
// gateway. Raw carries the undecoded response body for audit snapshots.
type TransactionStatus struct {
	PaymentMethod            string          `json:"payment_method"`
	Amount                   decimal.Decimal `json:"amount"`
	CreatedDate              string          `json:"created_date"`
	ConfirmationCode         string          `json:"confirmation_code"`
	PaymentStatusDescription string          `json:"payment_status_description"`
	Description              string          `json:"description"`
	PaymentAccount           string          `json:"payment_account"`
	MerchantReference        string          `json:"merchant_reference"`
	Currency                 string          `json:"currency"`
	StatusCode               int             `json:"status_code"`
	Error                    *apiError       `json:"error,omitempty"`

	Raw []byte `json:"-"`
}

type apiError struct {
	ErrorType string `json:"error_type"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

func (e *apiError) empty() bool {
	return e == nil || (e.Code == "" && e.Message == "")
}

type tokenResponse struct {
	Token      string    `json:"token"`
	ExpiryDate string    `json:"expiryDate"`
	Error      *apiError `json:"error,omitempty"`
	Status     string    `json:"status"`
}
