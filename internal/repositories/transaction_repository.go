package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okwareddevnest/eventpass/internal/models/db_models"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

type ITransactionRepository interface {
	// RecordSplit writes the payment transaction, its commission
	// counterpart and the organizer earnings credit as one unit. The rows
	// cross-reference each other; a duplicate split for the same payment
	// intent returns ErrDuplicateLedger without touching balances.
	RecordSplit(ctx context.Context, payment, commission *db_models.Transaction, organizerID uuid.UUID, organizerShare decimal.Decimal) error

	GetByIntentAndType(ctx context.Context, intentID uuid.UUID, txnType db_models.TransactionType) (*db_models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Transaction, error)
}

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) ITransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) RecordSplit(ctx context.Context, payment, commission *db_models.Transaction, organizerID uuid.UUID, organizerShare decimal.Decimal) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		commission.RelatedTxnID = &payment.ID
		if err := tx.Create(commission).Error; err != nil {
			return err
		}
		if err := tx.Model(payment).UpdateColumn("related_txn_id", commission.ID).Error; err != nil {
			return err
		}
		payment.RelatedTxnID = &commission.ID

		return tx.Model(&db_models.Account{}).
			Where("id = ?", organizerID).
			UpdateColumn("pending_earnings", gorm.Expr("pending_earnings + ?", organizerShare)).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ErrDuplicateLedger
		}
		return err
	}
	return nil
}

func (r *TransactionRepository) GetByIntentAndType(ctx context.Context, intentID uuid.UUID, txnType db_models.TransactionType) (*db_models.Transaction, error) {
	var txn db_models.Transaction
	err := r.db.WithContext(ctx).
		First(&txn, "payment_intent_id = ? AND type = ?", intentID, txnType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Transaction, error) {
	var txns []db_models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
