package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/okwareddevnest/eventpass/internal/gateway/pesapal"
	"github.com/okwareddevnest/eventpass/internal/models/db_models"
	"github.com/okwareddevnest/eventpass/internal/models/response_models"
	"github.com/okwareddevnest/eventpass/internal/repositories"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, payerID, eventID uuid.UUID) (*response_models.CreateOrderResponse, error)
}

type OrderService struct {
	events      repositories.IEventRepository
	accounts    repositories.IAccountRepository
	intents     repositories.IPaymentIntentRepository
	settings    SettingsServiceInterface
	gateway     PaymentGateway
	callbackURL string
	logger      *zap.Logger
}

func NewOrderService(
	events repositories.IEventRepository,
	accounts repositories.IAccountRepository,
	intents repositories.IPaymentIntentRepository,
	settings SettingsServiceInterface,
	gateway PaymentGateway,
	callbackURL string,
	logger *zap.Logger,
) OrderServiceInterface {
	return &OrderService{
		events:      events,
		accounts:    accounts,
		intents:     intents,
		settings:    settings,
		gateway:     gateway,
		callbackURL: callbackURL,
		logger:      logger,
	}
}

// CreateOrder validates the purchase, submits a remote order and persists the
// PENDING PaymentIntent. The intent is written only after the gateway accepts
// the order, so a remote failure leaves no partial local state.
func (s *OrderService) CreateOrder(ctx context.Context, payerID, eventID uuid.UUID) (*response_models.CreateOrderResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if event == nil {
		return nil, utils.ErrEventNotFound
	}
	if event.Status != db_models.EventPublished {
		return nil, utils.ErrEventNotActive
	}
	if !event.HasCapacity() {
		return nil, utils.ErrEventSoldOut
	}

	payer, err := s.accounts.GetByID(ctx, payerID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if payer == nil {
		return nil, utils.ErrAccountNotFound
	}

	ipnID, err := s.settings.IPNID(ctx)
	if err != nil {
		return nil, err
	}
	if ipnID == "" {
		return nil, utils.ErrPaymentSetupRequired
	}

	merchantReference := utils.NewMerchantReference()
	firstName, lastName := splitName(payer.Name)

	order := pesapal.OrderRequest{
		ID:             merchantReference,
		Currency:       event.Currency,
		Amount:         event.TicketPrice,
		Description:    fmt.Sprintf("Ticket for %s", event.Title),
		CallbackURL:    s.callbackURL,
		NotificationID: ipnID,
		Billing: pesapal.BillingAddress{
			EmailAddress: payer.Email,
			PhoneNumber:  payer.Phone,
			FirstName:    firstName,
			LastName:     lastName,
		},
	}

	reply, err := s.gateway.SubmitOrder(ctx, order)
	if err != nil {
		s.logger.Error("order submission failed",
			zap.String("merchant_reference", merchantReference),
			zap.String("event_id", eventID.String()),
			zap.Error(err))
		return nil, err
	}

	intent := &db_models.PaymentIntent{
		PayerID:           payerID,
		EventID:           eventID,
		MerchantReference: merchantReference,
		OrderTrackingID:   reply.OrderTrackingID,
		Amount:            event.TicketPrice,
		Currency:          event.Currency,
		Status:            db_models.PaymentPending,
	}
	if err := s.intents.Create(ctx, intent); err != nil {
		// The remote order exists but the local record does not; surface
		// loudly so the tracking id in the log can be reconciled by hand.
		s.logger.Error("payment intent persist failed after remote order",
			zap.String("order_tracking_id", reply.OrderTrackingID),
			zap.String("merchant_reference", merchantReference),
			zap.Error(err))
		return nil, utils.ErrDatabaseError
	}

	s.logger.Info("order created",
		zap.String("order_tracking_id", reply.OrderTrackingID),
		zap.String("merchant_reference", merchantReference),
		zap.String("event_id", eventID.String()),
		zap.String("amount", event.TicketPrice.StringFixed(2)))

	return &response_models.CreateOrderResponse{
		RedirectURL:       reply.RedirectURL,
		OrderTrackingID:   reply.OrderTrackingID,
		MerchantReference: merchantReference,
		Amount:            event.TicketPrice.StringFixed(2),
		Currency:          event.Currency,
	}, nil
}

func splitName(full string) (string, string) {
	first := full
	last := ""
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == ' ' {
			first = full[:i]
			last = full[i+1:]
			break
		}
	}
	return first, last
}
