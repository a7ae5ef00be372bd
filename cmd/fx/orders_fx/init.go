package orders_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/okwareddevnest/eventpass/internal/infra"
	"github.com/okwareddevnest/eventpass/internal/repositories"
	"github.com/okwareddevnest/eventpass/internal/services"
)

var Module = fx.Provide(
	repositories.NewEventRepository,
	repositories.NewAccountRepository,
	repositories.NewPaymentIntentRepository,
	provideOrderService,
)

func provideOrderService(
	cfg *infra.Config,
	events repositories.IEventRepository,
	accounts repositories.IAccountRepository,
	intents repositories.IPaymentIntentRepository,
	settings services.SettingsServiceInterface,
	gateway services.PaymentGateway,
	logger *zap.Logger,
) services.OrderServiceInterface {
	return services.NewOrderService(events, accounts, intents, settings, gateway, cfg.Pesapal.CallbackURL, logger)
}
