package db_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutApproved   PayoutStatus = "approved"
	PayoutProcessing PayoutStatus = "processing"
	PayoutRejected   PayoutStatus = "rejected"
	PayoutCancelled  PayoutStatus = "cancelled"
	PayoutCompleted  PayoutStatus = "completed"
)

// payoutTransitions is the single authority on which payout state changes are
// legal. Every mutation goes through CanTransition rather than ad hoc status
// checks scattered across handlers.
var payoutTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutPending:    {PayoutApproved, PayoutRejected, PayoutCancelled},
	PayoutApproved:   {PayoutProcessing, PayoutCompleted},
	PayoutProcessing: {PayoutCompleted},
}

// CanTransition reports whether a payout may move from one status to another.
func CanTransition(from, to PayoutStatus) bool {
	for _, allowed := range payoutTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// PayoutRequest is one withdrawal attempt by an organizer against accrued
// earnings. Pending requests reserve balance virtually through the
// availability computation; only completion mutates account balances.
type PayoutRequest struct {
	BaseModel
	RequesterID uuid.UUID       `gorm:"index"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2)"`
	Currency    string          `gorm:"size:3"`

	Status PayoutStatus `gorm:"index;default:'pending'"`

	Method        string         // "mpesa", "bank_transfer", ...
	MethodDetails datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	RequestedAt int64
	ReviewedAt  *int64
	ProcessedAt *int64

	ReviewerID      *uuid.UUID `gorm:"index"`
	RejectionReason string
	AdminNotes      string

	TransactionID     *uuid.UUID `gorm:"index"`
	ExternalReference string

	Requester Account `gorm:"foreignKey:RequesterID"`
}
