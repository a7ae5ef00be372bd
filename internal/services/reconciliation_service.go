package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/okwareddevnest/eventpass/internal/gateway/pesapal"
	"github.com/okwareddevnest/eventpass/internal/models/db_models"
	"github.com/okwareddevnest/eventpass/internal/repositories"
	"github.com/okwareddevnest/eventpass/pkg/monitoring"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

// Notification sources. Both channels converge on the same Reconcile path;
// whichever arrives first wins the transition and the other becomes a no-op.
const (
	SourceIPN      = "ipn"
	SourceCallback = "callback"
)

type ReconciliationServiceInterface interface {
	// Reconcile fetches the authoritative transaction status from the
	// gateway and applies it to the local intent exactly once. Safe to call
	// any number of times for the same tracking ID, from any source,
	// concurrently.
	Reconcile(ctx context.Context, orderTrackingID, source, notificationType string, payload []byte) (*db_models.PaymentIntent, error)
}

type ReconciliationService struct {
	intents repositories.IPaymentIntentRepository
	tickets TicketServiceInterface
	ledger  LedgerServiceInterface
	gateway PaymentGateway
	logger  *zap.Logger
}

func NewReconciliationService(
	intents repositories.IPaymentIntentRepository,
	tickets TicketServiceInterface,
	ledger LedgerServiceInterface,
	gateway PaymentGateway,
	logger *zap.Logger,
) ReconciliationServiceInterface {
	return &ReconciliationService{
		intents: intents,
		tickets: tickets,
		ledger:  ledger,
		gateway: gateway,
		logger:  logger,
	}
}

func (s *ReconciliationService) Reconcile(ctx context.Context, orderTrackingID, source, notificationType string, payload []byte) (*db_models.PaymentIntent, error) {
	intent, err := s.intents.GetByTrackingID(ctx, orderTrackingID)
	if err != nil {
		monitoring.TrackReconciliation(source, "db_error")
		return nil, utils.ErrDatabaseError
	}
	if intent == nil {
		monitoring.TrackReconciliation(source, "unknown_intent")
		return nil, utils.ErrIntentNotFound
	}

	// Audit trail first, regardless of what the reconciliation decides.
	if err := s.intents.AppendNotification(ctx, intent.ID, source, notificationType, payload); err != nil {
		s.logger.Warn("notification audit write failed",
			zap.String("order_tracking_id", orderTrackingID),
			zap.String("source", source),
			zap.Error(err))
	}

	// The notification body is untrusted. Only the gateway's status query
	// decides the outcome.
	status, err := s.gateway.GetTransactionStatus(ctx, orderTrackingID)
	if err != nil {
		monitoring.TrackReconciliation(source, "gateway_error")
		s.logger.Error("gateway status fetch failed",
			zap.String("order_tracking_id", orderTrackingID),
			zap.Error(err))
		return nil, utils.ErrGatewayUnavailable
	}

	target, description := mapGatewayStatus(status)

	if intent.Status == db_models.PaymentCompleted && target == db_models.PaymentReversed {
		return s.applyReversal(ctx, intent, source, status)
	}

	if intent.Terminal() {
		// Duplicate notification for a settled intent. A COMPLETED intent
		// may still be missing its side effects after a crash between the
		// status write and ticket issuance, so heal before answering.
		if intent.Status == db_models.PaymentCompleted {
			if err := s.ensureSideEffects(ctx, intent); err != nil {
				monitoring.TrackReconciliation(source, "heal_failed")
				return nil, err
			}
		}
		monitoring.TrackReconciliation(source, "duplicate")
		return intent, nil
	}

	claimed, err := s.intents.TransitionStatus(ctx, orderTrackingID,
		db_models.PaymentPending, target, description, status.ConfirmationCode, status.Raw)
	if err != nil {
		monitoring.TrackReconciliation(source, "db_error")
		return nil, utils.ErrDatabaseError
	}
	if !claimed {
		// A concurrent reconciliation won the transition. Re-read and fall
		// through to the duplicate path so this caller still heals.
		fresh, ferr := s.intents.GetByTrackingID(ctx, orderTrackingID)
		if ferr != nil || fresh == nil {
			monitoring.TrackReconciliation(source, "db_error")
			return nil, utils.ErrDatabaseError
		}
		if fresh.Status == db_models.PaymentCompleted {
			if err := s.ensureSideEffects(ctx, fresh); err != nil {
				monitoring.TrackReconciliation(source, "heal_failed")
				return nil, err
			}
		}
		monitoring.TrackReconciliation(source, "lost_race")
		return fresh, nil
	}

	intent.Status = target
	intent.StatusDescription = description
	intent.ConfirmationCode = status.ConfirmationCode
	if len(status.Raw) > 0 {
		intent.GatewayResponse = status.Raw
	}

	if target == db_models.PaymentCompleted {
		if err := s.ensureSideEffects(ctx, intent); err != nil {
			// Put the intent back so a later notification or retry can run
			// the whole completion again.
			s.rollbackCompletion(ctx, orderTrackingID)
			monitoring.TrackReconciliation(source, "side_effects_failed")
			return nil, err
		}
	}

	s.logger.Info("payment reconciled",
		zap.String("order_tracking_id", orderTrackingID),
		zap.String("source", source),
		zap.String("status", string(target)))
	monitoring.TrackReconciliation(source, "applied")
	return intent, nil
}

// ensureSideEffects makes the ticket and ledger rows exist for a completed
// intent. Both calls are idempotent, so repeating after a partial failure
// finishes whatever is missing.
func (s *ReconciliationService) ensureSideEffects(ctx context.Context, intent *db_models.PaymentIntent) error {
	if _, err := s.tickets.Issue(ctx, intent); err != nil {
		return err
	}
	if _, _, err := s.ledger.RecordPayment(ctx, intent); err != nil {
		return err
	}
	return nil
}

func (s *ReconciliationService) rollbackCompletion(ctx context.Context, orderTrackingID string) {
	ok, err := s.intents.TransitionStatus(ctx, orderTrackingID,
		db_models.PaymentCompleted, db_models.PaymentPending,
		"completion rolled back pending retry", "", nil)
	if err != nil || !ok {
		s.logger.Error("completion rollback failed",
			zap.String("order_tracking_id", orderTrackingID),
			zap.Bool("applied", ok),
			zap.Error(err))
	}
}

func (s *ReconciliationService) applyReversal(ctx context.Context, intent *db_models.PaymentIntent, source string, status *pesapal.TransactionStatus) (*db_models.PaymentIntent, error) {
	ok, err := s.intents.TransitionStatus(ctx, intent.OrderTrackingID,
		db_models.PaymentCompleted, db_models.PaymentReversed,
		status.PaymentStatusDescription, status.ConfirmationCode, status.Raw)
	if err != nil {
		monitoring.TrackReconciliation(source, "db_error")
		return nil, utils.ErrDatabaseError
	}
	if !ok {
		monitoring.TrackReconciliation(source, "duplicate")
		return intent, nil
	}

	intent.Status = db_models.PaymentReversed
	intent.StatusDescription = status.PaymentStatusDescription

	// The ticket is voided but ledger rows stay. Chargeback accounting is a
	// manual admin adjustment for now.
	if cerr := s.tickets.Cancel(ctx, intent.OrderTrackingID); cerr != nil {
		s.logger.Error("ticket cancel failed after reversal",
			zap.String("order_tracking_id", intent.OrderTrackingID),
			zap.Error(cerr))
	}

	s.logger.Warn("payment reversed",
		zap.String("order_tracking_id", intent.OrderTrackingID),
		zap.String("source", source))
	monitoring.TrackReconciliation(source, "reversed")
	return intent, nil
}

func mapGatewayStatus(status *pesapal.TransactionStatus) (db_models.PaymentStatus, string) {
	description := status.PaymentStatusDescription
	switch status.StatusCode {
	case pesapal.StatusCodeCompleted:
		return db_models.PaymentCompleted, description
	case pesapal.StatusCodeReversed:
		return db_models.PaymentReversed, description
	case pesapal.StatusCodeInvalid:
		if description == "" {
			description = "invalid transaction"
		}
		return db_models.PaymentFailed, description
	case pesapal.StatusCodeFailed:
		return db_models.PaymentFailed, description
	default:
		if description == "" {
			description = "unrecognized gateway status"
		}
		return db_models.PaymentFailed, description
	}
}
