package db_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventFinished  EventStatus = "finished"
)

// Event carries the subset of event data the purchase flow depends on:
// pricing, capacity and the organizer who earns from it. Event CRUD itself
// is handled elsewhere.
type Event struct {
	BaseModel
	OrganizerID uuid.UUID `gorm:"index"`
	Title       string
	TicketPrice decimal.Decimal `gorm:"type:decimal(12,2)"`
	Currency    string          `gorm:"size:3;default:'KES'"`
	Status      EventStatus     `gorm:"index;default:'draft'"`

	// Capacity 0 means unlimited.
	Capacity         int `gorm:"default:0"`
	CurrentAttendees int `gorm:"default:0"`

	Organizer Account `gorm:"foreignKey:OrganizerID"`
}

// HasCapacity reports whether at least one more ticket can be sold.
func (e *Event) HasCapacity() bool {
	return e.Capacity == 0 || e.CurrentAttendees < e.Capacity
}
