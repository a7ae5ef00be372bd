package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/okwareddevnest/eventpass/internal/models/db_models"
)

type IPaymentIntentRepository interface {
	Create(ctx context.Context, intent *db_models.PaymentIntent) error
	GetByTrackingID(ctx context.Context, orderTrackingID string) (*db_models.PaymentIntent, error)

	// AppendNotification adds one row to the intent's audit trail. It is
	// unconditional and safe to repeat for duplicate notifications.
	AppendNotification(ctx context.Context, intentID uuid.UUID, source, notificationType string, payload []byte) error

	// TransitionStatus moves the intent from one status to another with a
	// conditional update. It returns true only for the caller that actually
	// performed the transition; concurrent reconcilers for the same key see
	// false and must skip side effects.
	TransitionStatus(ctx context.Context, orderTrackingID string, from, to db_models.PaymentStatus, description, confirmationCode string, gatewayResponse []byte) (bool, error)
}

type PaymentIntentRepository struct {
	db *gorm.DB
}

func NewPaymentIntentRepository(db *gorm.DB) IPaymentIntentRepository {
	return &PaymentIntentRepository{db: db}
}

func (r *PaymentIntentRepository) Create(ctx context.Context, intent *db_models.PaymentIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *PaymentIntentRepository) GetByTrackingID(ctx context.Context, orderTrackingID string) (*db_models.PaymentIntent, error) {
	var intent db_models.PaymentIntent
	err := r.db.WithContext(ctx).First(&intent, "order_tracking_id = ?", orderTrackingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

func (r *PaymentIntentRepository) AppendNotification(ctx context.Context, intentID uuid.UUID, source, notificationType string, payload []byte) error {
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	notification := db_models.PaymentNotification{
		PaymentIntentID:  intentID,
		Source:           source,
		NotificationType: notificationType,
		Payload:          payload,
	}
	return r.db.WithContext(ctx).Create(&notification).Error
}

func (r *PaymentIntentRepository) TransitionStatus(ctx context.Context, orderTrackingID string, from, to db_models.PaymentStatus, description, confirmationCode string, gatewayResponse []byte) (bool, error) {
	updates := map[string]interface{}{
		"status":             to,
		"status_description": description,
	}
	if confirmationCode != "" {
		updates["confirmation_code"] = confirmationCode
	}
	if len(gatewayResponse) > 0 {
		updates["gateway_response"] = gatewayResponse
	}

	res := r.db.WithContext(ctx).
		Model(&db_models.PaymentIntent{}).
		Where("order_tracking_id = ? AND status = ?", orderTrackingID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
