package db_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TicketStatus string

const (
	TicketValid     TicketStatus = "valid"
	TicketUsed      TicketStatus = "used"
	TicketCancelled TicketStatus = "cancelled"
	TicketRefunded  TicketStatus = "refunded"
)

// Ticket is issued exactly once per completed payment. The unique index on
// OrderTrackingID is the enforcement of that invariant: a second issuance
// attempt for the same payment fails at the database, not at a best-effort
// existence check.
type Ticket struct {
	BaseModel
	OwnerID uuid.UUID `gorm:"index"`
	EventID uuid.UUID `gorm:"index"`

	TicketCode string `gorm:"uniqueIndex"`
	QRPayload  string `gorm:"uniqueIndex"`

	Status      TicketStatus    `gorm:"index;default:'valid'"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2)"`
	PurchasedAt int64

	OrderTrackingID string `gorm:"uniqueIndex"`

	Owner Account `gorm:"foreignKey:OwnerID"`
	Event Event   `gorm:"foreignKey:EventID"`
}
