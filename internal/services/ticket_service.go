package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/okwareddevnest/eventpass/internal/models/db_models"
	"github.com/okwareddevnest/eventpass/internal/models/response_models"
	"github.com/okwareddevnest/eventpass/internal/repositories"
	"github.com/okwareddevnest/eventpass/pkg/monitoring"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

type TicketServiceInterface interface {
	// Issue converts a completed payment intent into its single ticket.
	// Calling it again for the same intent returns the existing ticket
	// unchanged.
	Issue(ctx context.Context, intent *db_models.PaymentIntent) (*db_models.Ticket, error)

	Verify(ctx context.Context, orderTrackingID string) (*response_models.VerifyResponse, error)
	CheckIn(ctx context.Context, ticketCode string) error

	// Cancel voids a still-valid ticket after its payment is reversed. A
	// ticket that is already used or cancelled is left alone.
	Cancel(ctx context.Context, orderTrackingID string) error
}

type TicketService struct {
	tickets repositories.ITicketRepository
	intents repositories.IPaymentIntentRepository
	events  repositories.IEventRepository
	logger  *zap.Logger
}

func NewTicketService(
	tickets repositories.ITicketRepository,
	intents repositories.IPaymentIntentRepository,
	events repositories.IEventRepository,
	logger *zap.Logger,
) TicketServiceInterface {
	return &TicketService{
		tickets: tickets,
		intents: intents,
		events:  events,
		logger:  logger,
	}
}

func (s *TicketService) Issue(ctx context.Context, intent *db_models.PaymentIntent) (*db_models.Ticket, error) {
	existing, err := s.tickets.GetByTrackingID(ctx, intent.OrderTrackingID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if existing != nil {
		return existing, nil
	}

	issuedAt := time.Now()
	code := utils.NewTicketCode()
	ticket := &db_models.Ticket{
		OwnerID:         intent.PayerID,
		EventID:         intent.EventID,
		TicketCode:      code,
		QRPayload:       utils.QRPayload(code, intent.PayerID, intent.EventID, issuedAt),
		Status:          db_models.TicketValid,
		Price:           intent.Amount,
		PurchasedAt:     issuedAt.Unix(),
		OrderTrackingID: intent.OrderTrackingID,
	}

	if err := s.tickets.Issue(ctx, ticket); err != nil {
		if errors.Is(err, utils.ErrDuplicateTicket) {
			// Lost the race against a concurrent reconciliation; the other
			// ticket is the one that counts.
			winner, ferr := s.tickets.GetByTrackingID(ctx, intent.OrderTrackingID)
			if ferr != nil || winner == nil {
				return nil, utils.ErrTicketIssue
			}
			return winner, nil
		}
		s.logger.Error("ticket issuance failed",
			zap.String("order_tracking_id", intent.OrderTrackingID),
			zap.Error(err))
		return nil, utils.ErrTicketIssue
	}

	s.trackOversell(ctx, intent)

	s.logger.Info("ticket issued",
		zap.String("ticket_code", ticket.TicketCode),
		zap.String("order_tracking_id", intent.OrderTrackingID),
		zap.String("event_id", intent.EventID.String()))
	return ticket, nil
}

// trackOversell counts issuance past capacity on capacity-limited events.
// Capacity is validated at order creation, not re-checked here, so racing
// completions can exceed it; the metric makes that visible to operators.
func (s *TicketService) trackOversell(ctx context.Context, intent *db_models.PaymentIntent) {
	event, err := s.events.GetByID(ctx, intent.EventID)
	if err != nil || event == nil {
		return
	}
	if event.Capacity > 0 && event.CurrentAttendees > event.Capacity {
		monitoring.TrackOversell()
		s.logger.Warn("event oversold",
			zap.String("event_id", event.ID.String()),
			zap.Int("capacity", event.Capacity),
			zap.Int("current_attendees", event.CurrentAttendees))
	}
}

func (s *TicketService) Verify(ctx context.Context, orderTrackingID string) (*response_models.VerifyResponse, error) {
	intent, err := s.intents.GetByTrackingID(ctx, orderTrackingID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if intent == nil {
		return nil, utils.ErrIntentNotFound
	}

	resp := &response_models.VerifyResponse{
		PaymentStatus: string(intent.Status),
	}

	ticket, err := s.tickets.GetByTrackingID(ctx, orderTrackingID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if ticket != nil {
		resp.TicketStatus = string(ticket.Status)
		resp.TicketCode = ticket.TicketCode
		resp.Valid = ticket.Status == db_models.TicketValid
	}
	return resp, nil
}

func (s *TicketService) CheckIn(ctx context.Context, ticketCode string) error {
	ok, err := s.tickets.UpdateStatus(ctx, ticketCode, db_models.TicketValid, db_models.TicketUsed)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if !ok {
		return utils.ErrInvalidTransition
	}
	s.logger.Info("ticket checked in", zap.String("ticket_code", ticketCode))
	return nil
}

func (s *TicketService) Cancel(ctx context.Context, orderTrackingID string) error {
	ticket, err := s.tickets.GetByTrackingID(ctx, orderTrackingID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if ticket == nil || ticket.Status != db_models.TicketValid {
		return nil
	}
	ok, err := s.tickets.UpdateStatus(ctx, ticket.TicketCode, db_models.TicketValid, db_models.TicketCancelled)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if ok {
		s.logger.Warn("ticket cancelled",
			zap.String("ticket_code", ticket.TicketCode),
			zap.String("order_tracking_id", orderTrackingID))
	}
	return nil
}
