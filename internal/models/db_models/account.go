package db_models

import (
	"github.com/shopspring/decimal"
)

type AccountRole string

const (
	RoleAttendee  AccountRole = "attendee"
	RoleOrganizer AccountRole = "organizer"
	RoleAdmin     AccountRole = "admin"
)

// Account is the billing/earnings view of a user. Authentication and profile
// management live outside the reconciliation engine; it only needs the billing
// identity and the organizer balance counters.
type Account struct {
	BaseModel
	Name  string
	Email string `gorm:"uniqueIndex"`
	Phone string
	Role  AccountRole `gorm:"index;default:'attendee'"`

	// PendingEarnings accrues from completed payments (net of commission)
	// and is drawn down by completed payouts.
	PendingEarnings decimal.Decimal `gorm:"type:decimal(14,2);default:0"`
	WithdrawnAmount decimal.Decimal `gorm:"type:decimal(14,2);default:0"`
}
