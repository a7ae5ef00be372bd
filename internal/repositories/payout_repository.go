package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okwareddevnest/eventpass/internal/models/db_models"
)

type IPayoutRepository interface {
	Create(ctx context.Context, payout *db_models.PayoutRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.PayoutRequest, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]db_models.PayoutRequest, error)
	ListAll(ctx context.Context, status db_models.PayoutStatus) ([]db_models.PayoutRequest, error)

	// SumReserved totals the requester's payouts in non-terminal states
	// (pending, approved, processing), i.e. the amounts virtually reserved
	// against the available balance.
	SumReserved(ctx context.Context, requesterID uuid.UUID) (decimal.Decimal, error)

	// UpdateStateIf applies updates only when the payout is currently in
	// one of the given states. Returns true when the caller won the
	// transition.
	UpdateStateIf(ctx context.Context, id uuid.UUID, from []db_models.PayoutStatus, updates map[string]interface{}) (bool, error)

	// Complete atomically finalizes the payout: conditional state change to
	// completed, ledger row, and the balance move from pending earnings to
	// withdrawn. Returns false when the state gate fails, leaving
	// everything untouched.
	Complete(ctx context.Context, payout *db_models.PayoutRequest, txn *db_models.Transaction, reviewerID uuid.UUID, externalReference string) (bool, error)
}

type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) IPayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) Create(ctx context.Context, payout *db_models.PayoutRequest) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *PayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.PayoutRequest, error) {
	var payout db_models.PayoutRequest
	err := r.db.WithContext(ctx).First(&payout, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

func (r *PayoutRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]db_models.PayoutRequest, error) {
	var payouts []db_models.PayoutRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("requested_at DESC").
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *PayoutRepository) ListAll(ctx context.Context, status db_models.PayoutStatus) ([]db_models.PayoutRequest, error) {
	q := r.db.WithContext(ctx).Order("requested_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var payouts []db_models.PayoutRequest
	if err := q.Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *PayoutRepository) SumReserved(ctx context.Context, requesterID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&db_models.PayoutRequest{}).
		Select("SUM(amount)").
		Where("requester_id = ? AND status IN ?", requesterID, []db_models.PayoutStatus{
			db_models.PayoutPending,
			db_models.PayoutApproved,
			db_models.PayoutProcessing,
		}).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *PayoutRepository) UpdateStateIf(ctx context.Context, id uuid.UUID, from []db_models.PayoutStatus, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db_models.PayoutRequest{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PayoutRepository) Complete(ctx context.Context, payout *db_models.PayoutRequest, txn *db_models.Transaction, reviewerID uuid.UUID, externalReference string) (bool, error) {
	completed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		now := time.Now().Unix()
		res := tx.Model(&db_models.PayoutRequest{}).
			Where("id = ? AND status IN ?", payout.ID, []db_models.PayoutStatus{
				db_models.PayoutApproved,
				db_models.PayoutProcessing,
			}).
			Updates(map[string]interface{}{
				"status":             db_models.PayoutCompleted,
				"processed_at":       now,
				"reviewer_id":        reviewerID,
				"transaction_id":     txn.ID,
				"external_reference": externalReference,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			// State gate lost: roll the whole unit back, including the
			// ledger row created above.
			return gorm.ErrInvalidTransaction
		}

		if err := tx.Model(&db_models.Account{}).
			Where("id = ?", payout.RequesterID).
			UpdateColumns(map[string]interface{}{
				"pending_earnings": gorm.Expr("pending_earnings - ?", payout.Amount),
				"withdrawn_amount": gorm.Expr("withdrawn_amount + ?", payout.Amount),
			}).Error; err != nil {
			return err
		}

		completed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrInvalidTransaction) {
			return false, nil
		}
		return false, err
	}
	return completed, nil
}
