package response_models

import (
	"encoding/json"
)

type PayoutResponse struct {
	ID                string          `json:"id"`
	Amount            string          `json:"amount"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status"`
	Method            string          `json:"method"`
	MethodDetails     json.RawMessage `json:"method_details,omitempty"`
	RequestedAt       int64           `json:"requested_at"`
	ReviewedAt        *int64          `json:"reviewed_at,omitempty"`
	ProcessedAt       *int64          `json:"processed_at,omitempty"`
	RejectionReason   string          `json:"rejection_reason,omitempty"`
	ExternalReference string          `json:"external_reference,omitempty"`
}

type BalanceResponse struct {
	PendingEarnings  string `json:"pending_earnings"`
	ReservedAmount   string `json:"reserved_amount"`
	AvailableBalance string `json:"available_balance"`
	WithdrawnAmount  string `json:"withdrawn_amount"`
}
