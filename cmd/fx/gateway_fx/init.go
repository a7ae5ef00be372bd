package gateway_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/okwareddevnest/eventpass/internal/gateway/pesapal"
	"github.com/okwareddevnest/eventpass/internal/infra"
	"github.com/okwareddevnest/eventpass/internal/services"
)

var Module = fx.Provide(
	provideClient, provideGateway,
)

func provideClient(cfg *infra.Config, logger *zap.Logger) *pesapal.Client {
	return pesapal.NewClient(pesapal.ClientConfig{
		BaseURL:        cfg.Pesapal.BaseURL,
		ConsumerKey:    cfg.Pesapal.ConsumerKey,
		ConsumerSecret: cfg.Pesapal.ConsumerSecret,
	}, logger)
}

func provideGateway(client *pesapal.Client) services.PaymentGateway {
	return client
}
