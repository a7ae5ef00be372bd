package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/okwareddevnest/eventpass/internal/models/db_models"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

type ITicketRepository interface {
	GetByTrackingID(ctx context.Context, orderTrackingID string) (*db_models.Ticket, error)

	// Issue inserts the ticket and bumps the event attendee counter in one
	// database transaction. A second issuance for the same order tracking id
	// hits the unique index and comes back as ErrDuplicateTicket.
	Issue(ctx context.Context, ticket *db_models.Ticket) error

	UpdateStatus(ctx context.Context, ticketCode string, from, to db_models.TicketStatus) (bool, error)
}

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) ITicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) GetByTrackingID(ctx context.Context, orderTrackingID string) (*db_models.Ticket, error) {
	var ticket db_models.Ticket
	err := r.db.WithContext(ctx).First(&ticket, "order_tracking_id = ?", orderTrackingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepository) Issue(ctx context.Context, ticket *db_models.Ticket) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ticket).Error; err != nil {
			return err
		}
		return tx.Model(&db_models.Event{}).
			Where("id = ?", ticket.EventID).
			UpdateColumn("current_attendees", gorm.Expr("current_attendees + 1")).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ErrDuplicateTicket
		}
		return err
	}
	return nil
}

func (r *TicketRepository) UpdateStatus(ctx context.Context, ticketCode string, from, to db_models.TicketStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db_models.Ticket{}).
		Where("ticket_code = ? AND status = ?", ticketCode, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
