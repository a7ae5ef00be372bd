package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/okwareddevnest/eventpass/internal/models/db_models"
	"github.com/okwareddevnest/eventpass/internal/models/request_models"
	"github.com/okwareddevnest/eventpass/internal/models/response_models"
	"github.com/okwareddevnest/eventpass/internal/repositories"
	"github.com/okwareddevnest/eventpass/pkg/monitoring"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

const payoutLockTTL = 10 * time.Second

type PayoutServiceInterface interface {
	// Request creates a pending payout after checking the available
	// balance. Requests from the same organizer are serialized so two
	// concurrent requests cannot both pass the balance check.
	Request(ctx context.Context, requesterID uuid.UUID, req request_models.CreatePayoutRequest) (*db_models.PayoutRequest, error)

	Balance(ctx context.Context, requesterID uuid.UUID) (*response_models.BalanceResponse, error)
	ListMine(ctx context.Context, requesterID uuid.UUID) ([]db_models.PayoutRequest, error)
	Cancel(ctx context.Context, requesterID, payoutID uuid.UUID) error

	ListAll(ctx context.Context, status db_models.PayoutStatus) ([]db_models.PayoutRequest, error)
	Approve(ctx context.Context, reviewerID, payoutID uuid.UUID, notes string) error
	Reject(ctx context.Context, reviewerID, payoutID uuid.UUID, reason, notes string) error
	MarkProcessing(ctx context.Context, reviewerID, payoutID uuid.UUID) error
	Complete(ctx context.Context, reviewerID, payoutID uuid.UUID, externalReference string) error
}

type PayoutService struct {
	payouts  repositories.IPayoutRepository
	accounts repositories.IAccountRepository
	settings SettingsServiceInterface
	rdb      *redis.Client
	logger   *zap.Logger
}

func NewPayoutService(
	payouts repositories.IPayoutRepository,
	accounts repositories.IAccountRepository,
	settings SettingsServiceInterface,
	rdb *redis.Client,
	logger *zap.Logger,
) PayoutServiceInterface {
	return &PayoutService{
		payouts:  payouts,
		accounts: accounts,
		settings: settings,
		rdb:      rdb,
		logger:   logger,
	}
}

// acquireLock takes the per-requester payout lock. Balance checks and
// completions for one organizer must not interleave; a lock miss is surfaced
// as ErrPayoutLocked rather than waited out.
func (s *PayoutService) acquireLock(ctx context.Context, requesterID uuid.UUID) (func(), error) {
	key := fmt.Sprintf("payout:lock:%s", requesterID)
	ok, err := s.rdb.SetNX(ctx, key, "1", payoutLockTTL).Result()
	if err != nil {
		s.logger.Error("payout lock unavailable", zap.Error(err))
		return nil, utils.ErrPayoutLocked
	}
	if !ok {
		return nil, utils.ErrPayoutLocked
	}
	return func() {
		if derr := s.rdb.Del(context.Background(), key).Err(); derr != nil {
			s.logger.Warn("payout lock release failed", zap.String("key", key), zap.Error(derr))
		}
	}, nil
}

func (s *PayoutService) Request(ctx context.Context, requesterID uuid.UUID, req request_models.CreatePayoutRequest) (*db_models.PayoutRequest, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("invalid payout amount %q", req.Amount)
	}

	release, err := s.acquireLock(ctx, requesterID)
	if err != nil {
		monitoring.TrackPayoutAction("request", "locked")
		return nil, err
	}
	defer release()

	account, err := s.accounts.GetByID(ctx, requesterID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}

	minimum, err := s.settings.MinimumPayout(ctx)
	if err != nil {
		return nil, err
	}
	if amount.LessThan(minimum) {
		monitoring.TrackPayoutAction("request", "below_minimum")
		return nil, utils.ErrBelowMinimumPayout
	}

	reserved, err := s.payouts.SumReserved(ctx, requesterID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	available := account.PendingEarnings.Sub(reserved)
	if amount.GreaterThan(available) {
		monitoring.TrackPayoutAction("request", "insufficient")
		return nil, &utils.InsufficientBalanceError{Requested: amount, Available: available}
	}

	details := req.MethodDetails
	if len(details) == 0 {
		details = []byte("{}")
	}
	payout := &db_models.PayoutRequest{
		RequesterID:   requesterID,
		Amount:        amount,
		Currency:      "KES",
		Status:        db_models.PayoutPending,
		Method:        req.Method,
		MethodDetails: datatypes.JSON(details),
		RequestedAt:   time.Now().Unix(),
	}
	if err := s.payouts.Create(ctx, payout); err != nil {
		monitoring.TrackPayoutAction("request", "error")
		return nil, utils.ErrDatabaseError
	}

	s.logger.Info("payout requested",
		zap.String("payout_id", payout.ID.String()),
		zap.String("requester_id", requesterID.String()),
		zap.String("amount", amount.StringFixed(2)))
	monitoring.TrackPayoutAction("request", "ok")
	return payout, nil
}

func (s *PayoutService) Balance(ctx context.Context, requesterID uuid.UUID) (*response_models.BalanceResponse, error) {
	account, err := s.accounts.GetByID(ctx, requesterID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}
	reserved, err := s.payouts.SumReserved(ctx, requesterID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	return &response_models.BalanceResponse{
		PendingEarnings:  account.PendingEarnings.StringFixed(2),
		ReservedAmount:   reserved.StringFixed(2),
		AvailableBalance: account.PendingEarnings.Sub(reserved).StringFixed(2),
		WithdrawnAmount:  account.WithdrawnAmount.StringFixed(2),
	}, nil
}

func (s *PayoutService) ListMine(ctx context.Context, requesterID uuid.UUID) ([]db_models.PayoutRequest, error) {
	payouts, err := s.payouts.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	return payouts, nil
}

// Cancel lets the requester withdraw their own payout while it is still
// pending review.
func (s *PayoutService) Cancel(ctx context.Context, requesterID, payoutID uuid.UUID) error {
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if payout == nil || payout.RequesterID != requesterID {
		return utils.ErrPayoutNotFound
	}
	ok, err := s.payouts.UpdateStateIf(ctx, payoutID,
		[]db_models.PayoutStatus{db_models.PayoutPending},
		map[string]interface{}{"status": db_models.PayoutCancelled})
	if err != nil {
		return utils.ErrDatabaseError
	}
	if !ok {
		monitoring.TrackPayoutAction("cancel", "invalid_state")
		return utils.ErrInvalidTransition
	}
	monitoring.TrackPayoutAction("cancel", "ok")
	return nil
}

func (s *PayoutService) ListAll(ctx context.Context, status db_models.PayoutStatus) ([]db_models.PayoutRequest, error) {
	payouts, err := s.payouts.ListAll(ctx, status)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	return payouts, nil
}

func (s *PayoutService) Approve(ctx context.Context, reviewerID, payoutID uuid.UUID, notes string) error {
	return s.review(ctx, reviewerID, payoutID, db_models.PayoutApproved, map[string]interface{}{
		"admin_notes": notes,
	})
}

func (s *PayoutService) Reject(ctx context.Context, reviewerID, payoutID uuid.UUID, reason, notes string) error {
	return s.review(ctx, reviewerID, payoutID, db_models.PayoutRejected, map[string]interface{}{
		"rejection_reason": reason,
		"admin_notes":      notes,
	})
}

func (s *PayoutService) MarkProcessing(ctx context.Context, reviewerID, payoutID uuid.UUID) error {
	return s.review(ctx, reviewerID, payoutID, db_models.PayoutProcessing, nil)
}

func (s *PayoutService) review(ctx context.Context, reviewerID, payoutID uuid.UUID, to db_models.PayoutStatus, extra map[string]interface{}) error {
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if payout == nil {
		return utils.ErrPayoutNotFound
	}
	if !db_models.CanTransition(payout.Status, to) {
		monitoring.TrackPayoutAction(string(to), "invalid_state")
		return utils.ErrInvalidTransition
	}

	updates := map[string]interface{}{
		"status":      to,
		"reviewed_at": time.Now().Unix(),
		"reviewer_id": reviewerID,
	}
	for k, v := range extra {
		updates[k] = v
	}
	ok, err := s.payouts.UpdateStateIf(ctx, payoutID,
		[]db_models.PayoutStatus{payout.Status}, updates)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if !ok {
		// Status moved between the read and the update.
		monitoring.TrackPayoutAction(string(to), "invalid_state")
		return utils.ErrInvalidTransition
	}

	s.logger.Info("payout reviewed",
		zap.String("payout_id", payoutID.String()),
		zap.String("reviewer_id", reviewerID.String()),
		zap.String("status", string(to)))
	monitoring.TrackPayoutAction(string(to), "ok")
	return nil
}

func (s *PayoutService) Complete(ctx context.Context, reviewerID, payoutID uuid.UUID, externalReference string) error {
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if payout == nil {
		return utils.ErrPayoutNotFound
	}
	if !db_models.CanTransition(payout.Status, db_models.PayoutCompleted) {
		monitoring.TrackPayoutAction("complete", "invalid_state")
		return utils.ErrInvalidTransition
	}

	// Completion moves real balance, so it takes the same lock as Request.
	release, err := s.acquireLock(ctx, payout.RequesterID)
	if err != nil {
		monitoring.TrackPayoutAction("complete", "locked")
		return err
	}
	defer release()

	txn := &db_models.Transaction{
		Type:        db_models.TxnPayout,
		UserID:      payout.RequesterID,
		Amount:      payout.Amount,
		Currency:    payout.Currency,
		Status:      db_models.TxnStatusCompleted,
		Description: fmt.Sprintf("Payout %s via %s", payout.ID, payout.Method),
	}
	ok, err := s.payouts.Complete(ctx, payout, txn, reviewerID, externalReference)
	if err != nil {
		monitoring.TrackPayoutAction("complete", "error")
		return utils.ErrDatabaseError
	}
	if !ok {
		monitoring.TrackPayoutAction("complete", "invalid_state")
		return utils.ErrInvalidTransition
	}

	s.logger.Info("payout completed",
		zap.String("payout_id", payoutID.String()),
		zap.String("amount", payout.Amount.StringFixed(2)),
		zap.String("external_reference", externalReference))
	monitoring.TrackPayoutAction("complete", "ok")
	return nil
}
