package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/okwareddevnest/eventpass/internal/models/db_models"
	"github.com/okwareddevnest/eventpass/internal/repositories"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

var oneHundred = decimal.NewFromInt(100)

type LedgerServiceInterface interface {
	// RecordPayment writes the payment/commission pair for a completed
	// intent. Repeating the call for the same intent returns the existing
	// rows without crediting anything twice.
	RecordPayment(ctx context.Context, intent *db_models.PaymentIntent) (*db_models.Transaction, *db_models.Transaction, error)
}

type LedgerService struct {
	transactions repositories.ITransactionRepository
	events       repositories.IEventRepository
	settings     SettingsServiceInterface
	logger       *zap.Logger
}

func NewLedgerService(
	transactions repositories.ITransactionRepository,
	events repositories.IEventRepository,
	settings SettingsServiceInterface,
	logger *zap.Logger,
) LedgerServiceInterface {
	return &LedgerService{
		transactions: transactions,
		events:       events,
		settings:     settings,
		logger:       logger,
	}
}

func (s *LedgerService) RecordPayment(ctx context.Context, intent *db_models.PaymentIntent) (*db_models.Transaction, *db_models.Transaction, error) {
	event, err := s.events.GetByID(ctx, intent.EventID)
	if err != nil {
		return nil, nil, utils.ErrDatabaseError
	}
	if event == nil {
		return nil, nil, utils.ErrEventNotFound
	}

	pct, err := s.settings.CommissionPercent(ctx)
	if err != nil {
		return nil, nil, err
	}

	commissionAmount := intent.Amount.Mul(pct).Div(oneHundred).Round(2)
	organizerShare := intent.Amount.Sub(commissionAmount)

	meta, _ := json.Marshal(db_models.SplitMetadata{
		OriginalAmount:    intent.Amount,
		CommissionAmount:  commissionAmount,
		OrganizerAmount:   organizerShare,
		CommissionPercent: pct,
	})

	payment := &db_models.Transaction{
		Type:            db_models.TxnPayment,
		UserID:          event.OrganizerID,
		EventID:         &event.ID,
		PaymentIntentID: &intent.ID,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
		Status:          db_models.TxnStatusCompleted,
		Description:     fmt.Sprintf("Ticket sale for %s (ref %s)", event.Title, intent.MerchantReference),
		Metadata:        meta,
	}
	commission := &db_models.Transaction{
		Type:            db_models.TxnCommission,
		UserID:          event.OrganizerID,
		EventID:         &event.ID,
		PaymentIntentID: &intent.ID,
		Amount:          commissionAmount,
		Currency:        intent.Currency,
		Status:          db_models.TxnStatusCompleted,
		Description:     fmt.Sprintf("Platform commission %s%% on %s", pct.String(), intent.MerchantReference),
		Metadata:        meta,
	}

	err = s.transactions.RecordSplit(ctx, payment, commission, event.OrganizerID, organizerShare)
	if err != nil {
		if errors.Is(err, utils.ErrDuplicateLedger) {
			return s.existingSplit(ctx, intent)
		}
		s.logger.Error("ledger split failed",
			zap.String("order_tracking_id", intent.OrderTrackingID),
			zap.Error(err))
		return nil, nil, utils.ErrLedgerWrite
	}

	s.logger.Info("payment recorded",
		zap.String("order_tracking_id", intent.OrderTrackingID),
		zap.String("amount", intent.Amount.StringFixed(2)),
		zap.String("commission", commissionAmount.StringFixed(2)),
		zap.String("organizer_share", organizerShare.StringFixed(2)))
	return payment, commission, nil
}

func (s *LedgerService) existingSplit(ctx context.Context, intent *db_models.PaymentIntent) (*db_models.Transaction, *db_models.Transaction, error) {
	payment, err := s.transactions.GetByIntentAndType(ctx, intent.ID, db_models.TxnPayment)
	if err != nil || payment == nil {
		return nil, nil, utils.ErrLedgerWrite
	}
	commission, err := s.transactions.GetByIntentAndType(ctx, intent.ID, db_models.TxnCommission)
	if err != nil || commission == nil {
		return nil, nil, utils.ErrLedgerWrite
	}
	return payment, commission, nil
}
