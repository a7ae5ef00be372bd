package request_models

import "encoding/json"

type CreatePayoutRequest struct {
	Amount        string          `json:"amount" binding:"required"`
	Method        string          `json:"method" binding:"required"`
	MethodDetails json.RawMessage `json:"methodDetails"`
}

type RejectPayoutRequest struct {
	Reason string `json:"reason" binding:"required"`
	Notes  string `json:"notes"`
}

type ApprovePayoutRequest struct {
	Notes string `json:"notes"`
}

type CompletePayoutRequest struct {
	ExternalReference string `json:"externalReference" binding:"required"`
}
