package db_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentReversed  PaymentStatus = "REVERSED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// PaymentIntent is the local record of one purchase attempt submitted to the
// gateway. The (MerchantReference, OrderTrackingID) pair is immutable once
// assigned; OrderTrackingID correlates every IPN, callback and status query
// for the attempt and is the idempotency key of the whole engine.
type PaymentIntent struct {
	BaseModel
	PayerID uuid.UUID `gorm:"index"`
	EventID uuid.UUID `gorm:"index"`

	MerchantReference string `gorm:"uniqueIndex"`
	OrderTrackingID   string `gorm:"uniqueIndex"`

	Amount   decimal.Decimal `gorm:"type:decimal(12,2)"`
	Currency string          `gorm:"size:3"`

	// Status moves PENDING -> {COMPLETED, FAILED, REVERSED} exactly once;
	// COMPLETED may later move to REVERSED. Transitions are applied with a
	// conditional update so racing reconciliations cannot double-apply
	// side effects.
	Status            PaymentStatus `gorm:"index;default:'PENDING'"`
	StatusDescription string
	ConfirmationCode  string

	// Raw snapshot of the last authoritative gateway status response.
	GatewayResponse datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Payer Account `gorm:"foreignKey:PayerID"`
	Event Event   `gorm:"foreignKey:EventID"`
}

// Terminal reports whether the intent has reached a state that no further
// PENDING-path transition may leave.
func (p *PaymentIntent) Terminal() bool {
	return p.Status != PaymentPending
}

// PaymentNotification is one received gateway notification, appended
// unconditionally as an audit trail. Append-only.
type PaymentNotification struct {
	BaseModel
	PaymentIntentID  uuid.UUID `gorm:"index"`
	Source           string    // "ipn" or "callback"
	NotificationType string
	Payload          datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}
