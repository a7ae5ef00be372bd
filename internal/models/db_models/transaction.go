package db_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type TransactionType string

const (
	TxnPayment    TransactionType = "payment"
	TxnCommission TransactionType = "commission"
	TxnPayout     TransactionType = "payout"
	TxnDeposit    TransactionType = "deposit"
	TxnRefund     TransactionType = "refund"
)

type TransactionStatus string

const (
	TxnStatusCompleted TransactionStatus = "completed"
	TxnStatusPending   TransactionStatus = "pending"
	TxnStatusFailed    TransactionStatus = "failed"
)

// Transaction is an immutable ledger row. Rows are created by the ledger
// service and never updated or deleted afterwards. A payment row and its
// commission row are written in the same database transaction and carry
// mutual back-references through RelatedTxnID.
type Transaction struct {
	BaseModel
	// The composite unique index on (payment_intent_id, type) guarantees at
	// most one payment row and one commission row per intent.
	Type   TransactionType `gorm:"index:idx_txn_intent_type,unique,where:payment_intent_id IS NOT NULL"`
	UserID uuid.UUID       `gorm:"index"`

	EventID         *uuid.UUID `gorm:"index"`
	PaymentIntentID *uuid.UUID `gorm:"index:idx_txn_intent_type,unique,where:payment_intent_id IS NOT NULL"`

	Amount   decimal.Decimal `gorm:"type:decimal(14,2)"`
	Currency string          `gorm:"size:3"`

	Status      TransactionStatus `gorm:"index;default:'completed'"`
	Description string

	RelatedTxnID *uuid.UUID `gorm:"index"`

	// Split audit: original amount, commission amount, organizer amount,
	// commission percentage at the time of the split.
	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}

// SplitMetadata is the audit payload stored on both rows of a commission
// split.
type SplitMetadata struct {
	OriginalAmount    decimal.Decimal `json:"original_amount"`
	CommissionAmount  decimal.Decimal `json:"commission_amount"`
	OrganizerAmount   decimal.Decimal `json:"organizer_amount"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
}
