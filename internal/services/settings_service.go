package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/okwareddevnest/eventpass/internal/gateway/pesapal"
	"github.com/okwareddevnest/eventpass/internal/models/db_models"
	"github.com/okwareddevnest/eventpass/internal/repositories"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

// Defaults used when an operator has not tuned a setting yet.
var (
	defaultCommissionPercent = decimal.NewFromInt(10)
	defaultMinimumPayout     = decimal.NewFromInt(100)
)

type SettingsServiceInterface interface {
	CommissionPercent(ctx context.Context) (decimal.Decimal, error)
	MinimumPayout(ctx context.Context) (decimal.Decimal, error)
	IPNID(ctx context.Context) (string, error)
	All(ctx context.Context) (map[string]string, error)
	Update(ctx context.Context, settings map[string]string) error
	RegisterIPN(ctx context.Context, url string) (*pesapal.IPNRegistration, error)
}

type SettingsService struct {
	repo    repositories.ISettingsRepository
	gateway PaymentGateway
	logger  *zap.Logger
}

func NewSettingsService(repo repositories.ISettingsRepository, gateway PaymentGateway, logger *zap.Logger) SettingsServiceInterface {
	return &SettingsService{
		repo:    repo,
		gateway: gateway,
		logger:  logger,
	}
}

func (s *SettingsService) CommissionPercent(ctx context.Context) (decimal.Decimal, error) {
	return s.decimalSetting(ctx, db_models.SettingCommissionPercent, defaultCommissionPercent)
}

func (s *SettingsService) MinimumPayout(ctx context.Context) (decimal.Decimal, error) {
	return s.decimalSetting(ctx, db_models.SettingMinimumPayout, defaultMinimumPayout)
}

// IPNID returns the registered gateway notification id, empty when no IPN has
// been registered yet.
func (s *SettingsService) IPNID(ctx context.Context) (string, error) {
	value, ok, err := s.repo.Get(ctx, db_models.SettingIPNID)
	if err != nil {
		return "", utils.ErrDatabaseError
	}
	if !ok {
		return "", nil
	}
	return value, nil
}

func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	settings, err := s.repo.All(ctx)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	out := make(map[string]string, len(settings))
	for _, setting := range settings {
		out[setting.Key] = setting.Value
	}
	return out, nil
}

func (s *SettingsService) Update(ctx context.Context, settings map[string]string) error {
	for key, value := range settings {
		if key == db_models.SettingCommissionPercent || key == db_models.SettingMinimumPayout {
			if _, err := decimal.NewFromString(value); err != nil {
				return fmt.Errorf("setting %s must be numeric: %w", key, err)
			}
		}
		if err := s.repo.Upsert(ctx, key, value); err != nil {
			return utils.ErrDatabaseError
		}
		s.logger.Info("setting updated", zap.String("key", key))
	}
	return nil
}

// RegisterIPN registers the notification URL with the gateway and stores the
// returned id, making order creation possible.
func (s *SettingsService) RegisterIPN(ctx context.Context, url string) (*pesapal.IPNRegistration, error) {
	registration, err := s.gateway.RegisterIPN(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, db_models.SettingIPNID, registration.IPNID); err != nil {
		return nil, utils.ErrDatabaseError
	}
	if err := s.repo.Upsert(ctx, db_models.SettingIPNURL, url); err != nil {
		return nil, utils.ErrDatabaseError
	}
	s.logger.Info("IPN registered", zap.String("ipn_id", registration.IPNID), zap.String("url", url))
	return registration, nil
}

func (s *SettingsService) decimalSetting(ctx context.Context, key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	value, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		return decimal.Zero, utils.ErrDatabaseError
	}
	if !ok {
		return fallback, nil
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		s.logger.Warn("malformed setting value, using default",
			zap.String("key", key), zap.String("value", value))
		return fallback, nil
	}
	return parsed, nil
}
